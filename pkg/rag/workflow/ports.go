package workflow

import (
	"context"

	"ai-policydesk-be/pkg/llm"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"
)

// Intents returned by the general classifier.
const (
	IntentGreeting        = "greeting"
	IntentTransferRequest = "transfer_request"
	IntentGeneralQuery    = "general_query"
	IntentOutOfScope      = "out_of_scope"
)

// Intents returned by the specialist classifier.
const (
	IntentPolicyQuery     = "policy_query"
	IntentAmbiguous       = "ambiguous"
	IntentTroubleshooting = "troubleshooting"
	IntentFollowUpIssue   = "follow_up_issue"
)

type Classification struct {
	Intent   string
	Category string
	Target   string // "hr" | "it" | "none", general classifier only
}

type Classifier interface {
	ClassifyGeneral(ctx context.Context, message string) (Classification, error)
	ClassifySpecialist(ctx context.Context, specialist agent.Kind, message string) (Classification, error)
}

// Retriever returns ranked passages. An empty result is not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query, category string, numResults int) ([]store.Passage, error)
}

type GenerationMode int

const (
	ModeGrounded GenerationMode = iota
	ModeGeneral
	ModeClarify
	ModeTroubleshoot
)

func (m GenerationMode) String() string {
	switch m {
	case ModeGrounded:
		return "grounded"
	case ModeGeneral:
		return "general"
	case ModeClarify:
		return "clarify"
	case ModeTroubleshoot:
		return "troubleshoot"
	default:
		return "unknown"
	}
}

type GenerationRequest struct {
	Mode     GenerationMode
	Agent    agent.Kind
	Query    string
	Passages []store.Passage
	Reason   string // clarification reason
}

type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	GenerateStream(ctx context.Context, req GenerationRequest) (llm.Stream, error)
}

// Emitter receives answer text as it is produced in streaming runs.
// Reset tells the client to drop what it has shown so far for this turn.
type Emitter interface {
	Token(fragment string) error
	Reset() error
}

// StepObserver is notified about step timings, retries and fallbacks.
type StepObserver interface {
	ObserveStep(agent, phase string, seconds float64, failed bool)
	IncRetry(agent string)
	IncFallback(agent string)
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, string, float64, bool) {}
func (nopObserver) IncRetry(string)                            {}
func (nopObserver) IncFallback(string)                         {}
