// Package scheduler serializes regeneration work. Triggers arriving while a
// run is in flight coalesce into a single pending run, so a burst of file
// events produces at most one extra regeneration.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned by handles whose run was discarded because the
// scheduler shut down first.
var ErrClosed = errors.New("scheduler closed")

// RunFunc performs one unit of work. It must honor ctx cancellation.
type RunFunc[P any] func(ctx context.Context, params P) error

// Handle lets a caller wait for the run its trigger was folded into.
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed when the run completes or is discarded.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err blocks until the run completes and returns its error.
func (h *Handle) Err() error {
	<-h.done
	return h.err
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateRunningWithPending
)

// generation is one pending run: the newest params plus every handle whose
// trigger coalesced into it. All of its handles settle with the same result.
type generation[P any] struct {
	id      string
	params  P
	handles []*Handle
}

func (g *generation[P]) settle(err error) {
	for _, h := range g.handles {
		h.err = err
		close(h.done)
	}
}

// Scheduler owns a single consumer goroutine that executes runs one at a
// time.
type Scheduler[P any] struct {
	run    RunFunc[P]
	logger *zap.Logger

	mu      sync.Mutex
	state   state
	pending *generation[P]
	closed  bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New starts a scheduler for a run function. Callers must Close it.
func New[P any](run RunFunc[P], logger *zap.Logger) *Scheduler[P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler[P]{
		run:    run,
		logger: logger,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// Trigger requests a run with params. If a run is pending, its params are
// replaced with these and the existing waiters ride along. Never blocks.
func (s *Scheduler[P]) Trigger(params P) *Handle {
	h := &Handle{done: make(chan struct{})}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		h.err = ErrClosed
		close(h.done)
		return h
	}

	if s.pending != nil {
		// Newest params win; everyone already waiting settles together.
		s.pending.params = params
		s.pending.handles = append(s.pending.handles, h)
		s.logger.Debug("trigger coalesced",
			zap.String("generation", s.pending.id),
			zap.Int("waiters", len(s.pending.handles)))
		return h
	}

	s.pending = &generation[P]{
		id:      uuid.NewString(),
		params:  params,
		handles: []*Handle{h},
	}
	if s.state == stateRunning {
		s.state = stateRunningWithPending
	}
	s.logger.Debug("trigger queued", zap.String("generation", s.pending.id))

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return h
}

// Close discards any pending generation, waits for an in-flight run to
// finish, and stops the consumer goroutine. Safe to call once.
func (s *Scheduler[P]) Close() {
	s.mu.Lock()
	s.closed = true
	if s.pending != nil {
		s.pending.settle(ErrClosed)
		s.pending = nil
		if s.state == stateRunningWithPending {
			s.state = stateRunning
		}
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
	s.cancel()
}

func (s *Scheduler[P]) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for s.pending == nil {
			if s.closed {
				s.state = stateIdle
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		gen := s.pending
		s.pending = nil
		s.state = stateRunning
		s.mu.Unlock()

		s.logger.Debug("run starting", zap.String("generation", gen.id))
		err := s.run(s.ctx, gen.params)
		if err != nil {
			s.logger.Warn("run failed",
				zap.String("generation", gen.id),
				zap.Error(err))
		}

		s.mu.Lock()
		if s.pending == nil {
			s.state = stateIdle
		}
		// A pending generation stays queued; the next loop pass picks it up
		// without waiting on wake.
		s.mu.Unlock()

		// Failure settles only this generation. The pending one still runs.
		gen.settle(err)
	}
}
