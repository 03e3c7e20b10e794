package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ai-policydesk-be/pkg/events"
	"ai-policydesk-be/pkg/rag/workflow"
)

type logEntry struct {
	level   string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: message, details: details})
}

func (l *recordingLogger) Debug(_, m string, d map[string]interface{}) { l.add("debug", m, d) }
func (l *recordingLogger) Info(_, m string, d map[string]interface{})  { l.add("info", m, d) }
func (l *recordingLogger) Warn(_, m string, d map[string]interface{})  { l.add("warn", m, d) }
func (l *recordingLogger) Error(_, m string, d map[string]interface{}) { l.add("error", m, d) }
func (l *recordingLogger) Sync() error                                 { return nil }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.message)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type staticReadiness bool

func (r staticReadiness) Ready() bool { return bool(r) }

// scriptedRunner returns a fixed result. In streaming runs it first pushes
// fragments, where "\x00reset" stands for a Reset call.
type scriptedRunner struct {
	result    workflow.Result
	err       error
	fragments []string

	mu     sync.Mutex
	inputs []workflow.Input
	before func()
}

func (r *scriptedRunner) record(in workflow.Input) {
	r.mu.Lock()
	r.inputs = append(r.inputs, in)
	r.mu.Unlock()
	if r.before != nil {
		r.before()
	}
}

func (r *scriptedRunner) Run(_ context.Context, in workflow.Input) (workflow.Result, error) {
	r.record(in)
	return r.result, r.err
}

func (r *scriptedRunner) RunStream(_ context.Context, in workflow.Input, emit workflow.Emitter) (workflow.Result, error) {
	r.record(in)
	for _, f := range r.fragments {
		var err error
		if f == "\x00reset" {
			err = emit.Reset()
		} else {
			err = emit.Token(f)
		}
		if err != nil {
			return workflow.Result{ExecutedSteps: r.result.ExecutedSteps}, fmt.Errorf("emit: %w", err)
		}
	}
	return r.result, r.err
}

var errSinkClosed = errors.New("broken pipe")

type recordingSink struct {
	tokens []string
	resets int
	failAt int // 1-based token index that fails, 0 never
}

func (s *recordingSink) Token(fragment string) error {
	if s.failAt > 0 && len(s.tokens)+1 == s.failAt {
		return errSinkClosed
	}
	s.tokens = append(s.tokens, fragment)
	return nil
}

func (s *recordingSink) Reset() error {
	s.resets++
	return nil
}
