package llm

import (
	"context"
	"strings"
	"sync"
)

// Stream is a finite, pull-based sequence of text fragments.
// It cannot be restarted; Close releases the underlying request.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Collect drains s and returns the concatenated text.
func Collect(s Stream) (string, error) {
	defer s.Close()
	var sb strings.Builder
	for s.Next() {
		sb.WriteString(s.Current())
	}
	return sb.String(), s.Err()
}

// SliceStream replays fixed fragments. Used for canned answers.
type SliceStream struct {
	fragments []string
	pos       int
}

func NewSliceStream(fragments ...string) *SliceStream {
	return &SliceStream{fragments: fragments, pos: -1}
}

func (s *SliceStream) Next() bool {
	if s.pos+1 >= len(s.fragments) {
		return false
	}
	s.pos++
	return true
}

func (s *SliceStream) Current() string {
	if s.pos < 0 || s.pos >= len(s.fragments) {
		return ""
	}
	return s.fragments[s.pos]
}

func (s *SliceStream) Err() error   { return nil }
func (s *SliceStream) Close() error { return nil }

// ChanStream adapts a producer goroutine to Stream. The producer writes
// fragments with Send and finishes with Finish.
type ChanStream struct {
	ch      chan string
	done    chan struct{}
	cancel  context.CancelFunc
	current string

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// NewChanStream derives a cancellable context for the producer.
func NewChanStream(ctx context.Context) (*ChanStream, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &ChanStream{
		ch:     make(chan string, 16),
		done:   make(chan struct{}),
		cancel: cancel,
	}, ctx
}

// Send blocks until the consumer is ready or the stream is closed.
func (s *ChanStream) Send(ctx context.Context, fragment string) error {
	select {
	case s.ch <- fragment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return context.Canceled
	}
}

// Finish records the terminal error, if any, and ends the sequence.
func (s *ChanStream) Finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.ch)
}

func (s *ChanStream) Next() bool {
	fragment, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = fragment
	return true
}

func (s *ChanStream) Current() string {
	return s.current
}

func (s *ChanStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *ChanStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
	})
	return nil
}
