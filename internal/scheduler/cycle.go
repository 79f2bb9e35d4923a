package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/thomas-vilte/changelens/internal/logger"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/preprocess"
)

// CycleOutcome is how a cycle ended.
type CycleOutcome string

const (
	OutcomePublished        CycleOutcome = "published"
	OutcomeSkippedEmpty     CycleOutcome = "skipped_empty"
	OutcomeSkippedDuplicate CycleOutcome = "skipped_duplicate"
	OutcomeFailed           CycleOutcome = "failed"
)

// Change is the raw change text plus the context handed to classifiers.
type Change struct {
	Text    string
	Context models.ClassificationContext
}

// ChangeSource yields the current change on demand.
type ChangeSource interface {
	Fetch(ctx context.Context) (Change, error)
}

type SourceFunc func(ctx context.Context) (Change, error)

func (f SourceFunc) Fetch(ctx context.Context) (Change, error) {
	return f(ctx)
}

// Classifiers runs every registered classifier; see classify.Fanout.
type Classifiers interface {
	Run(ctx context.Context, cleaned string, cc models.ClassificationContext) ([]models.ClassifierOutcome, error)
}

// Decider reduces outcomes to one result; see classify.Arbiter.
type Decider interface {
	Decide(outcomes []models.ClassifierOutcome) (models.FinalClassification, error)
}

// Deliverer publishes and persists results; see sink.ResultSink.
type Deliverer interface {
	Deliver(ctx context.Context, record models.StoredClassification) error
}

// CycleObserver is told how every cycle ended and how long it took.
type CycleObserver interface {
	ObserveCycle(ctx context.Context, outcome string, d time.Duration)
}

// Cycle is the body run by the Runner: fetch, clean, deduplicate,
// classify, arbitrate and deliver.
type Cycle struct {
	source      ChangeSource
	scope       models.Scope
	classifiers Classifiers
	decider     Decider
	deliverer   Deliverer
	clock       Clock
	observer    CycleObserver

	mu              sync.Mutex
	lastFingerprint preprocess.Fingerprint
	lastOutcome     CycleOutcome
}

// LastOutcome is how the most recent cycle ended, empty before the first.
func (c *Cycle) LastOutcome() CycleOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOutcome
}

func (c *Cycle) LastFingerprint() preprocess.Fingerprint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFingerprint
}

// SetLastFingerprint seeds deduplication, e.g. from a persisted result.
func (c *Cycle) SetLastFingerprint(fp preprocess.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFingerprint = fp
}

// Run executes one cycle. Failures are logged and reported through the
// outcome; nothing is returned to the trigger. A panic is recorded as
// OutcomeFailed before it propagates to the caller.
func (c *Cycle) Run(ctx context.Context, trigger TriggerSource) (outcome CycleOutcome) {
	start := c.clock.Now()
	outcome = OutcomeFailed
	defer func() {
		elapsed := c.clock.Now().Sub(start)

		c.mu.Lock()
		c.lastOutcome = outcome
		c.mu.Unlock()

		logger.Info(ctx, "classification cycle finished",
			"outcome", string(outcome),
			"duration_ms", elapsed.Milliseconds())

		if c.observer != nil {
			c.observer.ObserveCycle(ctx, string(outcome), elapsed)
		}
	}()

	outcome = c.run(ctx)
	return outcome
}

func (c *Cycle) run(ctx context.Context) CycleOutcome {
	change, err := c.source.Fetch(ctx)
	if err != nil {
		logger.Warn(ctx, "could not fetch change text, treating as empty", "error", err)
		return OutcomeSkippedEmpty
	}

	cleaned := preprocess.Clean(change.Text, c.scope)
	if cleaned == "" {
		logger.Debug(ctx, "no change to classify")
		return OutcomeSkippedEmpty
	}

	fp := preprocess.Compute(cleaned)

	// The fingerprint is committed before classifying, so a failed cycle
	// is not retried until the content changes.
	c.mu.Lock()
	if fp == c.lastFingerprint {
		c.mu.Unlock()
		logger.Debug(ctx, "change unchanged since last cycle", "fingerprint", fp.String())
		return OutcomeSkippedDuplicate
	}
	c.lastFingerprint = fp
	c.mu.Unlock()

	cc := change.Context
	if cc.Scope == "" {
		cc.Scope = c.scope
	}

	outcomes, err := c.classifiers.Run(ctx, cleaned, cc)
	if err != nil {
		logger.Error(ctx, "every classifier failed", err, "fingerprint", fp.String())
		return OutcomeFailed
	}

	result, err := c.decider.Decide(outcomes)
	if err != nil {
		logger.Error(ctx, "arbitration failed", err, "fingerprint", fp.String())
		return OutcomeFailed
	}

	logger.Info(ctx, "change classified",
		"label", string(result.Label),
		"confidence", result.Confidence,
		"outcomes", len(outcomes),
		"fingerprint", fp.String())

	record := models.StoredClassification{
		Result:       result,
		Fingerprint:  fp.String(),
		Scope:        cc.Scope,
		Project:      cc.Project,
		ClassifiedAt: c.clock.Now().UTC(),
	}
	if err := c.deliverer.Deliver(ctx, record); err != nil {
		logger.Error(ctx, "could not persist classification", err)
	}
	return OutcomePublished
}
