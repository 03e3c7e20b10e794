package workflow

import (
	"context"
	"fmt"
	"strings"

	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/rag/validator"
	"ai-policydesk-be/pkg/store"
)

const StepEntry = "Entry"

func stepName(p agent.Profile, what string) string {
	return p.Short + " " + what
}

func (r *runner) entryGeneral(ctx context.Context, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, StepEntry)
	ts.ActiveAgent = agent.General

	c, err := r.classifier.ClassifyGeneral(ctx, ts.Input)
	if err != nil {
		return ts, portFailure("classifier", err)
	}
	ts.RoutedIntent = c.Intent
	ts.IsValid = true

	switch c.Intent {
	case IntentGreeting:
		return r.finish(ts, GreetingText)

	case IntentTransferRequest:
		target, ok := agent.Parse(c.Target)
		if !ok || !target.IsSpecialist() {
			return r.finish(ts, UnknownTargetText)
		}
		ts.ActiveAgent = target
		ts.TransferRequested = true
		ts.TransferTarget = target
		if target == agent.HR {
			return r.finish(ts, HandOffHRText)
		}
		return r.finish(ts, HandOffITText)

	case IntentOutOfScope:
		return r.finish(ts, GeneralDeclineText)

	default:
		if c.Intent != IntentGeneralQuery {
			r.logger.Warn(moduleName, "Unknown general intent, answering directly", map[string]interface{}{
				"intent": c.Intent,
			})
		}
		text, err := r.generate(ctx, GenerationRequest{Mode: ModeGeneral, Agent: agent.General, Query: ts.Input})
		if err != nil {
			return ts, err
		}
		ts.Draft = text
		return ts, nil
	}
}

func (r *runner) entrySpecialist(ctx context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Entry"))
	ts.ActiveAgent = p.Kind

	c, err := r.classifier.ClassifySpecialist(ctx, p.Kind, ts.Input)
	if err != nil {
		return ts, portFailure("classifier", err)
	}
	ts.SpecialistIntent = c.Intent
	ts.Category = c.Category
	return ts, nil
}

func (r *runner) clarify(ctx context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Clarification"))

	text, err := r.labelled(ctx, p, GenerationRequest{
		Mode:   ModeClarify,
		Agent:  p.Kind,
		Query:  ts.Input,
		Reason: p.ClarifyReason,
	})
	if err != nil {
		return ts, err
	}
	ts.Draft = text
	ts.Citations = []store.Citation{}
	ts.NeedsClarification = true
	ts.IsValid = true
	return ts, nil
}

func (r *runner) retrieve(ctx context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Retrieval"))
	ts.Category = p.ClampCategory(ts.Category)

	passages, err := r.retriever.Retrieve(ctx, ts.Input, ts.Category, NumResults)
	if err != nil {
		// the generate step turns an empty result into the no-information answer
		r.logger.Warn(moduleName, "Retrieval failed, continuing without passages", map[string]interface{}{
			"agent":    string(p.Kind),
			"category": ts.Category,
			"error":    err.Error(),
		})
		passages = nil
	}

	ts.Passages = make([]store.Passage, 0, len(passages))
	for i, passage := range passages {
		if passage.Rank == 0 {
			passage.Rank = i + 1
		}
		ts.Passages = append(ts.Passages, passage)
	}
	return ts, nil
}

func (r *runner) generateAnswer(ctx context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Generation"))

	if len(ts.Passages) == 0 {
		ts.Draft = p.Label + NoInformationText
		ts.Citations = []store.Citation{}
		return ts, r.say(p.Label, NoInformationText)
	}

	text, err := r.labelled(ctx, p, GenerationRequest{
		Mode:     ModeGrounded,
		Agent:    p.Kind,
		Query:    ts.Input,
		Passages: ts.Passages,
	})
	if err != nil {
		return ts, err
	}
	ts.Draft = text
	ts.Citations = store.BuildCitations(ts.Passages)
	return ts, nil
}

func (r *runner) validate(_ context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Validation"))

	verdict := validator.Validate(ts.Draft, ts.Citations, ts.Input)
	ts.IsValid = verdict.IsValid
	ts.ValidationReason = verdict.Reason
	if verdict.IsValid {
		return ts, nil
	}

	if ts.RetryCount < MaxRetries {
		ts.RetryCount++
		ts.Passages = []store.Passage{}
		ts.Citations = []store.Citation{}
		ts.Draft = ""
		r.observer.IncRetry(string(p.Kind))
		r.logger.Info(moduleName, "Answer rejected, retrying", map[string]interface{}{
			"agent":       string(p.Kind),
			"reason":      verdict.Reason,
			"retry_count": ts.RetryCount,
		})
		return ts, r.reset()
	}

	r.observer.IncFallback(string(p.Kind))
	r.logger.Warn(moduleName, "Retries exhausted, using fallback answer", map[string]interface{}{
		"agent":  string(p.Kind),
		"reason": verdict.Reason,
	})
	ts.Draft = p.Label + p.FallbackText
	ts.Citations = []store.Citation{}
	ts.IsValid = true
	ts.UsedFallback = true
	if err := r.reset(); err != nil {
		return ts, err
	}
	return ts, r.say(p.Label, p.FallbackText)
}

func (r *runner) outOfScope(_ context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Out of Scope"))
	ts.IsValid = true
	ts.Citations = []store.Citation{}
	ts.Draft = p.Label + p.DeclineText
	return ts, r.say(p.Label, p.DeclineText)
}

func (r *runner) troubleshoot(ctx context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Troubleshooting"))

	text, err := r.labelled(ctx, p, GenerationRequest{Mode: ModeTroubleshoot, Agent: p.Kind, Query: ts.Input})
	if err != nil {
		return ts, err
	}
	ts.Draft = text + TroubleshootSuffix
	ts.Citations = []store.Citation{}
	ts.IsValid = true
	return ts, r.say(TroubleshootSuffix)
}

func (r *runner) followUp(_ context.Context, p agent.Profile, ts TurnState) (TurnState, error) {
	ts.ExecutedSteps = append(ts.ExecutedSteps, stepName(p, "Follow-up"))
	ts.IsValid = true
	ts.Citations = []store.Citation{}
	ts.Draft = p.Label + FollowUpText
	return ts, r.say(p.Label, FollowUpText)
}

// finish sets a canned answer and emits it as one fragment.
func (r *runner) finish(ts TurnState, text string) (TurnState, error) {
	ts.Draft = text
	return ts, r.say(text)
}

func (r *runner) say(fragments ...string) error {
	if r.emit == nil {
		return nil
	}
	for _, f := range fragments {
		if f == "" {
			continue
		}
		if err := r.emit.Token(f); err != nil {
			return fmt.Errorf("emit: %w", err)
		}
	}
	return nil
}

func (r *runner) reset() error {
	if r.emit == nil {
		return nil
	}
	if err := r.emit.Reset(); err != nil {
		return fmt.Errorf("emit reset: %w", err)
	}
	return nil
}

// labelled emits the specialist label ahead of the generated text and
// returns both joined.
func (r *runner) labelled(ctx context.Context, p agent.Profile, req GenerationRequest) (string, error) {
	if err := r.say(p.Label); err != nil {
		return "", err
	}
	text, err := r.generate(ctx, req)
	if err != nil {
		return "", err
	}
	return p.Label + text, nil
}

func (r *runner) generate(ctx context.Context, req GenerationRequest) (string, error) {
	if r.emit == nil {
		text, err := r.generator.Generate(ctx, req)
		if err != nil {
			return "", portFailure("generator", err)
		}
		return text, nil
	}

	stream, err := r.generator.GenerateStream(ctx, req)
	if err != nil {
		return "", portFailure("generator", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		fragment := stream.Current()
		if fragment == "" {
			continue
		}
		sb.WriteString(fragment)
		if err := r.say(fragment); err != nil {
			return sb.String(), err
		}
	}
	if err := stream.Err(); err != nil {
		return sb.String(), portFailure("generator", err)
	}
	return sb.String(), nil
}
