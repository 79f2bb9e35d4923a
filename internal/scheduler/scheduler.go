package scheduler

import (
	"context"
	"time"

	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/preprocess"
)

type Config struct {
	Interval time.Duration
	Debounce time.Duration
	Scope    models.Scope
	// Clock defaults to RealClock.
	Clock Clock
}

// Observer receives cycle and request notifications, e.g. metrics.
type Observer interface {
	CycleObserver
	RequestObserver
}

type Dependencies struct {
	Source      ChangeSource
	Classifiers Classifiers
	Decider     Decider
	Deliverer   Deliverer
	// Observer is optional.
	Observer Observer
}

// Scheduler owns the state of one workspace: its trigger coordinator, its
// single-flight runner and the cycle with the last fingerprint.
type Scheduler struct {
	cycle       *Cycle
	runner      *Runner
	coordinator *Coordinator
}

func New(ctx context.Context, cfg Config, deps Dependencies) (*Scheduler, error) {
	if deps.Source == nil || deps.Classifiers == nil || deps.Decider == nil || deps.Deliverer == nil {
		return nil, domainErrors.NewAppError(domainErrors.TypeScheduler, "scheduler dependencies are incomplete", nil)
	}

	scope := cfg.Scope
	if scope == "" {
		scope = models.ScopeDiff
	}
	if !scope.Valid() {
		return nil, domainErrors.ErrInvalidConfig.WithContext("scope", string(scope))
	}

	clock := cfg.Clock
	if clock == nil {
		clock = RealClock()
	}

	var (
		cycleObserver   CycleObserver
		requestObserver RequestObserver
	)
	if deps.Observer != nil {
		cycleObserver = deps.Observer
		requestObserver = deps.Observer
	}

	cycle := &Cycle{
		source:      deps.Source,
		scope:       scope,
		classifiers: deps.Classifiers,
		decider:     deps.Decider,
		deliverer:   deps.Deliverer,
		clock:       clock,
		observer:    cycleObserver,
	}

	runner := NewRunner(ctx, func(ctx context.Context, source TriggerSource) {
		cycle.Run(ctx, source)
	}, requestObserver)

	coordinator := NewCoordinator(clock, cfg.Interval, cfg.Debounce, func(source TriggerSource) {
		runner.Request(source)
	})

	return &Scheduler{
		cycle:       cycle,
		runner:      runner,
		coordinator: coordinator,
	}, nil
}

// Start arms the periodic trigger.
func (s *Scheduler) Start() {
	s.coordinator.Start()
}

// RequestNow asks for a cycle outside of any trigger. It reports whether a
// cycle started; false means one was queued behind the running cycle.
func (s *Scheduler) RequestNow() bool {
	if s.coordinator.Disposed() {
		return false
	}
	return s.runner.Request(TriggerDirect)
}

func (s *Scheduler) ManualSave() {
	s.coordinator.ManualSave()
}

func (s *Scheduler) AutoSave() {
	s.coordinator.AutoSave()
}

// Dispose cancels pending timers. A cycle already running finishes.
func (s *Scheduler) Dispose() {
	s.coordinator.Dispose()
}

// Wait blocks until no cycle is running or queued.
func (s *Scheduler) Wait() {
	s.runner.Wait()
}

func (s *Scheduler) State() RunState {
	return s.runner.State()
}

func (s *Scheduler) LastFingerprint() preprocess.Fingerprint {
	return s.cycle.LastFingerprint()
}

func (s *Scheduler) LastOutcome() CycleOutcome {
	return s.cycle.LastOutcome()
}

func (s *Scheduler) SeedFingerprint(fp preprocess.Fingerprint) {
	s.cycle.SetLastFingerprint(fp)
}
