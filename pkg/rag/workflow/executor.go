package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/pkg/rag/agent"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	moduleName = "WORKFLOW"

	// Longest legal path is entry plus three RETRIEVE→GENERATE→VALIDATE passes.
	defaultTransitionBudget = 16
)

// Executor drives a turn from its entry state to TERMINAL. It holds no
// per-turn state and is safe for concurrent use.
type Executor struct {
	classifier Classifier
	retriever  Retriever
	generator  Generator
	logger     logger.ILogger
	observer   StepObserver
	tracer     trace.Tracer
	budget     int
}

type Option func(*Executor)

func WithObserver(o StepObserver) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithTransitionBudget(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.budget = n
		}
	}
}

func NewExecutor(classifier Classifier, retriever Retriever, generator Generator, log logger.ILogger, opts ...Option) *Executor {
	e := &Executor{
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
		logger:     log,
		observer:   nopObserver{},
		tracer:     otel.Tracer("ai-policydesk-be/workflow"),
		budget:     defaultTransitionBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type Input struct {
	Message     string
	ActiveAgent agent.Kind
}

// Run executes a turn and returns the whole answer at once.
func (e *Executor) Run(ctx context.Context, in Input) (Result, error) {
	return e.execute(ctx, in, nil)
}

// RunStream executes a turn, handing answer text to emit as it is produced.
// The returned Result matches what Run would produce for the same port output.
func (e *Executor) RunStream(ctx context.Context, in Input, emit Emitter) (Result, error) {
	if emit == nil {
		return Result{}, errors.New("workflow: nil emitter")
	}
	return e.execute(ctx, in, emit)
}

func (e *Executor) execute(ctx context.Context, in Input, emit Emitter) (Result, error) {
	active := in.ActiveAgent
	if !active.IsSpecialist() {
		active = agent.General
	}

	r := &runner{Executor: e, emit: emit}
	ts := NewTurnState(in.Message, active)
	state := EntryState(active)

	e.logger.Debug(moduleName, "Turn started", map[string]interface{}{
		"entry":     state.String(),
		"streaming": emit != nil,
	})

	for transitions := 0; state.Phase != PhaseTerminal; transitions++ {
		if transitions >= e.budget {
			return resultFrom(ts), fmt.Errorf("%w: %d transitions at %s", ErrTransitionBudget, transitions, state)
		}

		next, err := r.runStep(ctx, state, ts)
		if err != nil {
			return resultFrom(ts), err
		}
		ts = next

		to := nextState(state, ts)
		if err := checkTransition(state, to); err != nil {
			return resultFrom(ts), err
		}
		state = to
	}

	e.logger.Info(moduleName, "Turn finished", map[string]interface{}{
		"agent":       string(ts.ActiveAgent),
		"steps":       strings.Join(ts.ExecutedSteps, " → "),
		"retry_count": ts.RetryCount,
		"valid":       ts.IsValid,
		"reason":      ts.ValidationReason,
	})
	return resultFrom(ts), nil
}

type step func(ctx context.Context, ts TurnState) (TurnState, error)

// runner carries the optional emitter of one execution.
type runner struct {
	*Executor
	emit Emitter
}

func (r *runner) stepFor(s State) (step, error) {
	if s.Phase == PhaseEntryGeneral {
		return r.entryGeneral, nil
	}

	p, ok := agent.ProfileFor(s.Agent)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no specialist", ErrInvalidTransition, s)
	}

	bind := func(fn func(context.Context, agent.Profile, TurnState) (TurnState, error)) step {
		return func(ctx context.Context, ts TurnState) (TurnState, error) {
			return fn(ctx, p, ts)
		}
	}

	switch s.Phase {
	case PhaseEntrySpecialist:
		return bind(r.entrySpecialist), nil
	case PhaseClarify:
		return bind(r.clarify), nil
	case PhaseRetrieve:
		return bind(r.retrieve), nil
	case PhaseGenerate:
		return bind(r.generateAnswer), nil
	case PhaseValidate:
		return bind(r.validate), nil
	case PhaseOutOfScope:
		return bind(r.outOfScope), nil
	case PhaseTroubleshoot:
		return bind(r.troubleshoot), nil
	case PhaseFollowUp:
		return bind(r.followUp), nil
	default:
		return nil, fmt.Errorf("%w: no step for %s", ErrInvalidTransition, s)
	}
}

func (r *runner) runStep(ctx context.Context, state State, ts TurnState) (TurnState, error) {
	fn, err := r.stepFor(state)
	if err != nil {
		return ts, err
	}

	agentName := string(state.Agent)
	if agentName == "" {
		agentName = string(agent.General)
	}

	ctx, span := r.tracer.Start(ctx, "workflow."+strings.ToLower(state.Phase.String()),
		trace.WithAttributes(
			attribute.String("workflow.agent", agentName),
			attribute.Int("workflow.retry_count", ts.RetryCount),
		))
	defer span.End()

	start := time.Now()
	next, err := fn(ctx, ts.clone())
	r.observer.ObserveStep(agentName, state.Phase.String(), time.Since(start).Seconds(), err != nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error(moduleName, "Step failed", map[string]interface{}{
			"state": state.String(),
			"error": err.Error(),
		})
		return ts, err
	}
	return next, nil
}

func portFailure(port string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPortFailure, port, err)
}
