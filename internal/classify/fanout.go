package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thomas-vilte/changelens/internal/ai"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/logger"
	"github.com/thomas-vilte/changelens/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// PortResult is the result of a single classifier call. Exactly one of
// Outcome or Err is meaningful. An outcome whose confidence is outside [0,1]
// is reported as an error.
type PortResult struct {
	Category models.Category
	Outcome  models.ClassifierOutcome
	Err      error
	Duration time.Duration
}

// CallObserver is notified after every classifier call.
type CallObserver interface {
	ObserveClassifierCall(ctx context.Context, category string, status string, d time.Duration)
}

type Option func(*Fanout)

// WithTimeout bounds every classifier call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fanout) {
		f.timeout = d
	}
}

func WithObserver(o CallObserver) Option {
	return func(f *Fanout) {
		f.observer = o
	}
}

// Fanout sends the same change to every registered classifier at once.
type Fanout struct {
	classifiers []ai.Classifier
	timeout     time.Duration
	observer    CallObserver
}

func NewFanout(classifiers []ai.Classifier, opts ...Option) *Fanout {
	f := &Fanout{classifiers: classifiers}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Categories lists the registered categories in registration order.
func (f *Fanout) Categories() []models.Category {
	out := make([]models.Category, 0, len(f.classifiers))
	for _, c := range f.classifiers {
		out = append(out, c.Category())
	}
	return out
}

// Collect calls every classifier concurrently and waits for all of them.
// A failing classifier never cancels its siblings. Results keep
// registration order.
func (f *Fanout) Collect(ctx context.Context, cleaned string, cc models.ClassificationContext) []PortResult {
	results := make([]PortResult, len(f.classifiers))

	var g errgroup.Group
	for i, c := range f.classifiers {
		g.Go(func() error {
			results[i] = f.call(ctx, c, cleaned, cc)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Run returns the outcomes of the classifiers that answered. It fails only
// when none did.
func (f *Fanout) Run(ctx context.Context, cleaned string, cc models.ClassificationContext) ([]models.ClassifierOutcome, error) {
	if len(f.classifiers) == 0 {
		return nil, domainErrors.ErrAllClassifiersFailed.WithError(domainErrors.ErrNoClassifiers)
	}

	results := f.Collect(ctx, cleaned, cc)

	outcomes := make([]models.ClassifierOutcome, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Category, r.Err))
			continue
		}
		outcomes = append(outcomes, r.Outcome)
	}

	if len(outcomes) == 0 {
		return nil, domainErrors.ErrAllClassifiersFailed.WithError(errors.Join(errs...))
	}
	return outcomes, nil
}

func (f *Fanout) call(ctx context.Context, c ai.Classifier, cleaned string, cc models.ClassificationContext) (res PortResult) {
	category := c.Category()
	res.Category = category

	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = domainErrors.NewAppError(domainErrors.TypeInternal, "classifier panicked", fmt.Errorf("%v", r))
		}
		res.Duration = time.Since(start)

		status := StatusOK
		if res.Err != nil {
			status = StatusError
			if errors.Is(res.Err, domainErrors.ErrClassifierTimeout) {
				status = StatusTimeout
			}
			logger.Warn(ctx, "classifier failed",
				"category", string(category),
				"error", res.Err,
				"duration_ms", res.Duration.Milliseconds())
		}
		if f.observer != nil {
			f.observer.ObserveClassifierCall(ctx, string(category), status, res.Duration)
		}
	}()

	outcome, err := c.Classify(callCtx, cleaned, cc)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domainErrors.ErrClassifierTimeout) {
			err = domainErrors.ErrClassifierTimeout.WithError(err)
		}
		res.Err = err
		return res
	}

	if !ai.ValidConfidence(outcome.Confidence) {
		res.Err = domainErrors.ErrInvalidConfidence.WithContext("confidence", outcome.Confidence)
		return res
	}

	if outcome.Category == "" {
		outcome.Category = category
	}
	res.Outcome = outcome
	return res
}
