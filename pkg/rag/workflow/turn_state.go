package workflow

import (
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"
)

const (
	// MaxRetries bounds RETRIEVE→GENERATE→VALIDATE restarts per turn.
	MaxRetries = 2

	// NumResults is the number of passages requested per retrieval.
	NumResults = 4
)

// TurnState is threaded by value through the steps of one turn. A step
// receives a copy and returns the next value; slices are never shared
// between the two.
type TurnState struct {
	Input            string
	ActiveAgent      agent.Kind
	RoutedIntent     string
	SpecialistIntent string
	Category         string

	Passages  []store.Passage
	Draft     string
	Citations []store.Citation

	NeedsClarification bool
	IsValid            bool
	ValidationReason   string
	RetryCount         int
	UsedFallback       bool // retries exhausted, Draft is the fallback text

	// append-only
	ExecutedSteps []string

	TransferRequested bool
	TransferTarget    agent.Kind
}

func NewTurnState(input string, active agent.Kind) TurnState {
	return TurnState{
		Input:         input,
		ActiveAgent:   active,
		Passages:      []store.Passage{},
		Citations:     []store.Citation{},
		ExecutedSteps: []string{},
	}
}

// clone deep-copies the slices so the returned value can be mutated freely.
func (ts TurnState) clone() TurnState {
	next := ts
	next.Passages = append([]store.Passage(nil), ts.Passages...)
	next.Citations = append([]store.Citation(nil), ts.Citations...)
	next.ExecutedSteps = append(make([]string, 0, len(ts.ExecutedSteps)+1), ts.ExecutedSteps...)
	if next.Passages == nil {
		next.Passages = []store.Passage{}
	}
	if next.Citations == nil {
		next.Citations = []store.Citation{}
	}
	return next
}

// Result is what the coordinator needs from a finished turn.
type Result struct {
	Answer             string
	Citations          []store.Citation
	NeedsClarification bool
	ActiveAgent        agent.Kind
	ExecutedSteps      []string
	IsValid            bool
	ValidationReason   string
	RetryCount         int
	UsedFallback       bool
	Intent             string
	Category           string
	TransferRequested  bool
	TransferTarget     agent.Kind
}

func resultFrom(ts TurnState) Result {
	c := ts.clone()
	intent := c.SpecialistIntent
	if intent == "" {
		intent = c.RoutedIntent
	}
	return Result{
		Answer:             c.Draft,
		Citations:          c.Citations,
		NeedsClarification: c.NeedsClarification,
		ActiveAgent:        c.ActiveAgent,
		ExecutedSteps:      c.ExecutedSteps,
		IsValid:            c.IsValid,
		ValidationReason:   c.ValidationReason,
		RetryCount:         c.RetryCount,
		UsedFallback:       c.UsedFallback,
		Intent:             intent,
		Category:           c.Category,
		TransferRequested:  c.TransferRequested,
		TransferTarget:     c.TransferTarget,
	}
}
