package workflow

import (
	"context"
	"strings"
	"sync"

	"ai-policydesk-be/pkg/llm"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"
)

type fakeClassifier struct {
	general    Classification
	specialist Classification
	err        error

	generalCalls    int
	specialistCalls int
	lastSpecialist  agent.Kind
}

func (f *fakeClassifier) ClassifyGeneral(_ context.Context, _ string) (Classification, error) {
	f.generalCalls++
	return f.general, f.err
}

func (f *fakeClassifier) ClassifySpecialist(_ context.Context, k agent.Kind, _ string) (Classification, error) {
	f.specialistCalls++
	f.lastSpecialist = k
	return f.specialist, f.err
}

type fakeRetriever struct {
	passages   []store.Passage
	err        error
	calls      int
	categories []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, _, category string, _ int) ([]store.Passage, error) {
	f.calls++
	f.categories = append(f.categories, category)
	if f.err != nil {
		return nil, f.err
	}
	return append([]store.Passage(nil), f.passages...), nil
}

// fakeGenerator returns answers in order, repeating the last one.
type fakeGenerator struct {
	answers []string
	err     error
	modes   []GenerationMode
}

func (f *fakeGenerator) next(req GenerationRequest) (string, error) {
	f.modes = append(f.modes, req.Mode)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", nil
	}
	i := len(f.modes) - 1
	if i >= len(f.answers) {
		i = len(f.answers) - 1
	}
	return f.answers[i], nil
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerationRequest) (string, error) {
	return f.next(req)
}

func (f *fakeGenerator) GenerateStream(_ context.Context, req GenerationRequest) (llm.Stream, error) {
	text, err := f.next(req)
	if err != nil {
		return nil, err
	}
	return llm.NewSliceStream(strings.SplitAfter(text, " ")...), nil
}

// recordingEmitter keeps the raw event log and the text a client would show.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	shown  strings.Builder
	resets int
	failOn int // fail the n-th Token call when > 0
	tokens int
}

func (e *recordingEmitter) Token(fragment string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens++
	if e.failOn > 0 && e.tokens == e.failOn {
		return errClientGone
	}
	e.events = append(e.events, fragment)
	e.shown.WriteString(fragment)
	return nil
}

func (e *recordingEmitter) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets++
	e.events = append(e.events, "<reset>")
	e.shown.Reset()
	return nil
}

type recordingObserver struct {
	steps     []string
	retries   int
	fallbacks int
}

func (o *recordingObserver) ObserveStep(agent, phase string, _ float64, _ bool) {
	o.steps = append(o.steps, agent+":"+phase)
}
func (o *recordingObserver) IncRetry(string)    { o.retries++ }
func (o *recordingObserver) IncFallback(string) { o.fallbacks++ }
