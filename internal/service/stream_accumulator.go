package service

import (
	"fmt"
	"strings"
	"sync"

	"ai-policydesk-be/pkg/rag/workflow"
)

// accumulator forwards stream events to the client sink and keeps the
// text the client currently shows, so it can be saved on disconnect.
type accumulator struct {
	sink workflow.Emitter

	mu   sync.Mutex
	buf  strings.Builder
	gone bool
}

func newAccumulator(sink workflow.Emitter) *accumulator {
	return &accumulator{sink: sink}
}

func (a *accumulator) Token(fragment string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gone {
		return ErrClientDisconnected
	}
	if err := a.sink.Token(fragment); err != nil {
		a.gone = true
		return fmt.Errorf("%w: %w", ErrClientDisconnected, err)
	}
	a.buf.WriteString(fragment)
	return nil
}

func (a *accumulator) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gone {
		return ErrClientDisconnected
	}
	if err := a.sink.Reset(); err != nil {
		a.gone = true
		return fmt.Errorf("%w: %w", ErrClientDisconnected, err)
	}
	a.buf.Reset()
	return nil
}

func (a *accumulator) text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.String()
}
