package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/changelens/internal/ai"
	"github.com/thomas-vilte/changelens/internal/config"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/scheduler"
	"github.com/thomas-vilte/changelens/internal/sink"
	"github.com/thomas-vilte/changelens/internal/store"
)

const sampleDiff = `diff --git a/parser.go b/parser.go
index 3b18e51..a9c2f70 100644
--- a/parser.go
+++ b/parser.go
@@ -10,3 +10,5 @@ func Parse(s string) error {
 	if s == "" {
-		return nil
+		return ErrEmpty
 	}
`

type stubClassifier struct {
	category models.Category
	verdict  bool
	calls    *atomic.Int32
}

func (s stubClassifier) Category() models.Category { return s.category }

func (s stubClassifier) Classify(_ context.Context, cleaned string, _ models.ClassificationContext) (models.ClassifierOutcome, error) {
	s.calls.Add(1)
	if cleaned == "" {
		return ai.EmptyInputOutcome(s.category), nil
	}
	return models.ClassifierOutcome{
		Category:   s.category,
		Verdict:    s.verdict,
		Confidence: 0.8,
		Reasoning:  "stub " + string(s.category),
	}, nil
}

func stubFactory(calls *atomic.Int32) ClassifierFactory {
	return func(_ context.Context, cfg *config.Config) ([]ai.Classifier, error) {
		cats, err := cfg.Classification.CategoryList()
		if err != nil {
			return nil, err
		}
		out := make([]ai.Classifier, 0, len(cats))
		for _, c := range cats {
			out = append(out, stubClassifier{category: c, verdict: c == models.CategoryBugFix, calls: calls})
		}
		return out, nil
	}
}

func staticSource(text string) scheduler.ChangeSource {
	return scheduler.SourceFunc(func(context.Context) (scheduler.Change, error) {
		return scheduler.Change{Text: text, Context: models.ClassificationContext{Project: "demo"}}, nil
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.DefaultConfig(filepath.Join(t.TempDir(), "config.json"))
}

func TestNew_ClassifiesAndPersists(t *testing.T) {
	var calls atomic.Int32
	var published []models.StoredClassification
	cfg := testConfig(t)

	e, err := New(context.Background(), cfg, Options{
		Source:         staticSource(sampleDiff),
		NewClassifiers: stubFactory(&calls),
		Subscribers: []sink.Subscriber{
			func(_ context.Context, r models.StoredClassification) { published = append(published, r) },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeDiff, e.Scope)

	require.True(t, e.Scheduler.RequestNow())
	e.Scheduler.Wait()

	assert.Equal(t, scheduler.OutcomePublished, e.Scheduler.LastOutcome())
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, published, 1)
	assert.Equal(t, models.CategoryBugFix, published[0].Result.Label)
	assert.Equal(t, "demo", published[0].Project)

	last, err := e.Sink.Last(context.Background())
	require.NoError(t, err)
	assert.Equal(t, published[0], last)

	files, err := os.ReadDir(cfg.StateDir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSeedFromLast(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig(t)
	st := store.NewMemoryStore()
	opts := Options{Source: staticSource(sampleDiff), NewClassifiers: stubFactory(&calls), Store: st}

	first, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	seeded, err := first.SeedFromLast(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
	first.Scheduler.RequestNow()
	first.Scheduler.Wait()
	require.Equal(t, scheduler.OutcomePublished, first.Scheduler.LastOutcome())

	second, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	seeded, err = second.SeedFromLast(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, first.Scheduler.LastFingerprint(), second.Scheduler.LastFingerprint())

	second.Scheduler.RequestNow()
	second.Scheduler.Wait()
	assert.Equal(t, scheduler.OutcomeSkippedDuplicate, second.Scheduler.LastOutcome())
	assert.Equal(t, int32(3), calls.Load())
}

func TestSeedFromLast_OtherScopeIsIgnored(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig(t)
	st := store.NewMemoryStore()

	diffEngine, err := New(context.Background(), cfg, Options{Source: staticSource(sampleDiff), NewClassifiers: stubFactory(&calls), Store: st})
	require.NoError(t, err)
	diffEngine.Scheduler.RequestNow()
	diffEngine.Scheduler.Wait()

	staged, err := New(context.Background(), cfg, Options{
		Scope:          models.ScopeStaged,
		Source:         staticSource(sampleDiff),
		NewClassifiers: stubFactory(&calls),
		Store:          st,
	})
	require.NoError(t, err)
	seeded, err := staged.SeedFromLast(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Empty(t, staged.Scheduler.LastFingerprint())
}

func TestNew_Errors(t *testing.T) {
	var calls atomic.Int32

	t.Run("nil config", func(t *testing.T) {
		_, err := New(context.Background(), nil, Options{})
		assert.ErrorIs(t, err, domainErrors.ErrConfigMissing)
	})

	t.Run("invalid scope", func(t *testing.T) {
		_, err := New(context.Background(), testConfig(t), Options{Scope: "everything", NewClassifiers: stubFactory(&calls)})
		assert.ErrorIs(t, err, domainErrors.ErrInvalidConfig)
	})

	t.Run("hunk scope without a source", func(t *testing.T) {
		_, err := New(context.Background(), testConfig(t), Options{
			Scope:          models.ScopeHunk,
			NewClassifiers: stubFactory(&calls),
			Store:          store.NewMemoryStore(),
		})
		assert.ErrorIs(t, err, domainErrors.ErrInvalidConfig)
	})

	t.Run("classifier factory fails", func(t *testing.T) {
		boom := errors.New("no key")
		_, err := New(context.Background(), testConfig(t), Options{
			NewClassifiers: func(context.Context, *config.Config) ([]ai.Classifier, error) { return nil, boom },
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unknown category", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Classification.Categories = []string{"Chore"}
		_, err := New(context.Background(), cfg, Options{NewClassifiers: stubFactory(&calls)})
		assert.Error(t, err)
	})

	t.Run("unknown precedence", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Classification.Precedence = []string{"Chore"}
		_, err := New(context.Background(), cfg, Options{NewClassifiers: stubFactory(&calls)})
		assert.Error(t, err)
	})
}

func TestHunkSources(t *testing.T) {
	hunk := "@@ -1,2 +1,2 @@\n-old\n+new\n"

	t.Run("file is re-read on every fetch", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "change.patch")
		require.NoError(t, os.WriteFile(path, []byte(hunk), 0644))
		src := HunkFileSource(path)

		change, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, hunk, change.Text)
		assert.Equal(t, models.ScopeHunk, change.Context.Scope)
		assert.Equal(t, []string{"change.patch"}, change.Context.Files)

		require.NoError(t, os.WriteFile(path, []byte("@@ -1 +1 @@\n+other\n"), 0644))
		change, err = src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Contains(t, change.Text, "+other")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := HunkFileSource(filepath.Join(t.TempDir(), "nope")).Fetch(context.Background())
		assert.ErrorIs(t, err, domainErrors.ErrReadHunk)
	})

	t.Run("reader is consumed once", func(t *testing.T) {
		src := HunkReaderSource(strings.NewReader(hunk))
		for range 2 {
			change, err := src.Fetch(context.Background())
			require.NoError(t, err)
			assert.Equal(t, hunk, change.Text)
		}
	})
}

func TestNew_HunkScopeWithReader(t *testing.T) {
	var calls atomic.Int32
	e, err := New(context.Background(), testConfig(t), Options{
		Scope:          models.ScopeHunk,
		Source:         HunkReaderSource(strings.NewReader("diff header\n@@ -1 +1 @@\n-a\n+b\n")),
		NewClassifiers: stubFactory(&calls),
		Store:          store.NewMemoryStore(),
	})
	require.NoError(t, err)

	e.Scheduler.RequestNow()
	e.Scheduler.Wait()

	last, err := e.Sink.Last(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ScopeHunk, last.Scope)
}

func TestNew_PrecedenceBreaksTies(t *testing.T) {
	var calls atomic.Int32
	allYes := func(_ context.Context, cfg *config.Config) ([]ai.Classifier, error) {
		cats, err := cfg.Classification.CategoryList()
		if err != nil {
			return nil, err
		}
		out := make([]ai.Classifier, 0, len(cats))
		for _, c := range cats {
			out = append(out, stubClassifier{category: c, verdict: true, calls: &calls})
		}
		return out, nil
	}

	tests := []struct {
		name       string
		precedence []string
		want       models.Category
	}{
		{name: "defaults to the category order", want: models.CategoryBugFix},
		{name: "configured order wins", precedence: []string{"refactor", "feature", "bugfix"}, want: models.CategoryRefactor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Classification.Precedence = tt.precedence

			e, err := New(context.Background(), cfg, Options{
				Source:         staticSource(sampleDiff),
				NewClassifiers: allYes,
				Store:          store.NewMemoryStore(),
			})
			require.NoError(t, err)

			require.True(t, e.Scheduler.RequestNow())
			e.Scheduler.Wait()

			last, err := e.Sink.Last(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, last.Result.Label)
		})
	}
}
