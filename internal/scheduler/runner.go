package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/thomas-vilte/changelens/internal/logger"
)

// RunState is the single-flight state of a Runner.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// CycleFunc is one classification cycle.
type CycleFunc func(ctx context.Context, source TriggerSource)

// RequestObserver is told about every request and whether it was folded
// into a pending rerun.
type RequestObserver interface {
	ObserveRequest(ctx context.Context, source string, coalesced bool)
}

// Runner guarantees at most one cycle in flight. Requests arriving while a
// cycle runs collapse into a single rerun.
type Runner struct {
	ctx      context.Context
	cycle    CycleFunc
	observer RequestObserver

	mu            sync.Mutex
	state         RunState
	pendingRerun  bool
	pendingSource TriggerSource
	done          chan struct{}
}

// NewRunner runs cycles with a context detached from ctx's cancellation,
// so cancelling ctx never aborts a cycle midway. Logger values are kept.
func NewRunner(ctx context.Context, cycle CycleFunc, observer RequestObserver) *Runner {
	return &Runner{
		ctx:      context.WithoutCancel(ctx),
		cycle:    cycle,
		observer: observer,
	}
}

// Request starts a cycle if none is running and reports whether it did.
// Otherwise it marks a rerun for when the current cycle ends.
func (r *Runner) Request(source TriggerSource) bool {
	r.mu.Lock()
	if r.state == StateRunning {
		r.pendingRerun = true
		r.pendingSource = source
		r.mu.Unlock()

		logger.Debug(r.ctx, "cycle already running, rerun queued", "trigger", string(source))
		r.observe(source, true)
		return false
	}

	r.state = StateRunning
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.observe(source, false)
	go r.loop(source)
	return true
}

func (r *Runner) observe(source TriggerSource, coalesced bool) {
	if r.observer != nil {
		r.observer.ObserveRequest(r.ctx, string(source), coalesced)
	}
}

func (r *Runner) loop(source TriggerSource) {
	for {
		r.runOnce(source)

		r.mu.Lock()
		if r.pendingRerun {
			r.pendingRerun = false
			source = r.pendingSource
			r.mu.Unlock()
			continue
		}
		r.state = StateIdle
		close(r.done)
		r.mu.Unlock()
		return
	}
}

func (r *Runner) runOnce(source TriggerSource) {
	ctx := logger.With(r.ctx, "cycle_id", uuid.NewString(), "trigger", string(source))

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "classification cycle panicked", fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()))
		}
	}()

	r.cycle(ctx, source)
}

func (r *Runner) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PendingRerun reports whether a rerun is queued behind the current cycle.
func (r *Runner) PendingRerun() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingRerun
}

// Wait blocks until the runner is idle, including any queued rerun.
func (r *Runner) Wait() {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return
	}
	done := r.done
	r.mu.Unlock()

	<-done
}
