// Package engine wires configuration, classifiers, arbitration, the result
// sink and a change source into a ready scheduler for one workspace.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/thomas-vilte/changelens/internal/ai"
	"github.com/thomas-vilte/changelens/internal/ai/gemini"
	"github.com/thomas-vilte/changelens/internal/classify"
	"github.com/thomas-vilte/changelens/internal/config"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/git"
	"github.com/thomas-vilte/changelens/internal/logger"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/observability"
	"github.com/thomas-vilte/changelens/internal/preprocess"
	"github.com/thomas-vilte/changelens/internal/scheduler"
	"github.com/thomas-vilte/changelens/internal/sink"
	"github.com/thomas-vilte/changelens/internal/store"
)

// ClassifierFactory builds the classifiers for a configuration.
type ClassifierFactory func(ctx context.Context, cfg *config.Config) ([]ai.Classifier, error)

type Options struct {
	// Dir is the workspace used by the default git source.
	Dir string
	// Scope, Interval and Debounce override the configuration when set.
	Scope    models.Scope
	Interval time.Duration
	Debounce time.Duration

	// Source replaces the git source, e.g. with a hunk reader.
	Source scheduler.ChangeSource
	// NewClassifiers defaults to gemini.NewClassifiers.
	NewClassifiers ClassifierFactory
	// Store defaults to a FileStore in the configured state directory.
	Store store.Store

	Metrics     *observability.Metrics
	Clock       scheduler.Clock
	Subscribers []sink.Subscriber
}

type Engine struct {
	Scheduler *scheduler.Scheduler
	Sink      *sink.ResultSink
	Scope     models.Scope
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, domainErrors.ErrConfigMissing
	}

	scope := opts.Scope
	if scope == "" {
		scope = cfg.Classification.ScopeValue()
	}
	if !scope.Valid() {
		return nil, domainErrors.ErrInvalidConfig.WithContext("scope", string(scope))
	}

	precedence, err := cfg.Classification.PrecedenceList()
	if err != nil {
		return nil, err
	}

	newClassifiers := opts.NewClassifiers
	if newClassifiers == nil {
		newClassifiers = gemini.NewClassifiers
	}
	classifiers, err := newClassifiers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st := opts.Store
	if st == nil {
		fs, err := store.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, err
		}
		st = fs
	}

	source := opts.Source
	if source == nil {
		if scope == models.ScopeHunk {
			return nil, domainErrors.ErrInvalidConfig.
				WithContext("scope", string(scope)).
				WithSuggestion("Hunk scope needs --hunk-file")
		}
		source = GitSource(git.NewGitService(opts.Dir), scope)
	}

	fanoutOpts := []classify.Option{classify.WithTimeout(cfg.Classification.ClassifierTimeout())}
	var observer scheduler.Observer
	if opts.Metrics != nil {
		fanoutOpts = append(fanoutOpts, classify.WithObserver(opts.Metrics))
		observer = opts.Metrics
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.Classification.Interval()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = cfg.Classification.Debounce()
	}

	rs := sink.New(st, opts.Subscribers...)
	s, err := scheduler.New(ctx, scheduler.Config{
		Interval: interval,
		Debounce: debounce,
		Scope:    scope,
		Clock:    opts.Clock,
	}, scheduler.Dependencies{
		Source:      source,
		Classifiers: classify.NewFanout(classifiers, fanoutOpts...),
		Decider:     classify.NewArbiter(precedence),
		Deliverer:   rs,
		Observer:    observer,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "engine ready",
		"scope", string(scope),
		"classifiers", len(classifiers),
		"interval", interval.String(),
		"debounce", debounce.String())

	return &Engine{Scheduler: s, Sink: rs, Scope: scope}, nil
}

// SeedFromLast primes deduplication with the persisted result of the same
// scope, so unchanged content is not classified again after a restart. It
// reports whether a fingerprint was seeded.
func (e *Engine) SeedFromLast(ctx context.Context) (bool, error) {
	last, err := e.Sink.Last(ctx)
	if errors.Is(err, domainErrors.ErrNoLastResult) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if last.Scope != e.Scope || last.Fingerprint == "" {
		return false, nil
	}
	e.Scheduler.SeedFingerprint(preprocess.Fingerprint(last.Fingerprint))
	logger.Debug(ctx, "seeded fingerprint from last classification", "fingerprint", last.Fingerprint)
	return true, nil
}
