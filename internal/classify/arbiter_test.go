package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/models"
)

func TestArbiter_Decide(t *testing.T) {
	arbiter := NewArbiter(nil)

	tests := []struct {
		name     string
		outcomes []models.ClassifierOutcome
		want     models.FinalClassification
	}{
		{
			name: "most confident positive verdict wins",
			outcomes: []models.ClassifierOutcome{
				outcome(models.CategoryBugFix, true, 0.8, "guards nil"),
				outcome(models.CategoryFeature, false, 0.9, "no new behavior"),
				outcome(models.CategoryRefactor, true, 0.6, "some cleanup"),
			},
			want: models.FinalClassification{Label: models.CategoryBugFix, Confidence: 0.8, Reasoning: "guards nil"},
		},
		{
			name: "no positive verdict yields Unclear from the most confident outcome",
			outcomes: []models.ClassifierOutcome{
				outcome(models.CategoryBugFix, false, 0.7, "no fix"),
				outcome(models.CategoryFeature, false, 0.9, "no feature"),
				outcome(models.CategoryRefactor, false, 0.5, "no refactor"),
			},
			want: models.FinalClassification{Label: models.CategoryUnclear, Confidence: 0.9, Reasoning: "no feature"},
		},
		{
			name: "confidence tie broken by precedence",
			outcomes: []models.ClassifierOutcome{
				outcome(models.CategoryRefactor, true, 0.8, "rename"),
				outcome(models.CategoryBugFix, true, 0.8, "fix"),
			},
			want: models.FinalClassification{Label: models.CategoryBugFix, Confidence: 0.8, Reasoning: "fix"},
		},
		{
			name: "Unclear tie broken by precedence",
			outcomes: []models.ClassifierOutcome{
				outcome(models.CategoryRefactor, false, 0.6, "refactor reasoning"),
				outcome(models.CategoryFeature, false, 0.6, "feature reasoning"),
			},
			want: models.FinalClassification{Label: models.CategoryUnclear, Confidence: 0.6, Reasoning: "feature reasoning"},
		},
		{
			name: "single negative outcome",
			outcomes: []models.ClassifierOutcome{
				outcome(models.CategoryFeature, false, 1.0, "empty input"),
			},
			want: models.FinalClassification{Label: models.CategoryUnclear, Confidence: 1.0, Reasoning: "empty input"},
		},
		{
			name: "low confidence positive beats high confidence negative",
			outcomes: []models.ClassifierOutcome{
				outcome(models.CategoryFeature, false, 0.95, "no"),
				outcome(models.CategoryRefactor, true, 0.1, "maybe"),
			},
			want: models.FinalClassification{Label: models.CategoryRefactor, Confidence: 0.1, Reasoning: "maybe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := arbiter.Decide(tt.outcomes)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArbiter_DecideEmpty(t *testing.T) {
	got, err := NewArbiter(nil).Decide(nil)

	assert.ErrorIs(t, err, domainErrors.ErrNoOutcomes)
	assert.Equal(t, models.FinalClassification{}, got)
}

func TestArbiter_DecideIsOrderIndependent(t *testing.T) {
	arbiter := NewArbiter(nil)
	a := outcome(models.CategoryBugFix, true, 0.7, "a")
	b := outcome(models.CategoryFeature, true, 0.7, "b")
	c := outcome(models.CategoryRefactor, true, 0.7, "c")

	orders := [][]models.ClassifierOutcome{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, order := range orders {
		got, err := arbiter.Decide(order)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryBugFix, got.Label)
	}
}

func TestArbiter_CustomPrecedence(t *testing.T) {
	arbiter := NewArbiter([]models.Category{models.CategoryRefactor, models.CategoryFeature})

	t.Run("listed order wins", func(t *testing.T) {
		got, err := arbiter.Decide([]models.ClassifierOutcome{
			outcome(models.CategoryFeature, true, 0.5, "f"),
			outcome(models.CategoryBugFix, true, 0.5, "b"),
			outcome(models.CategoryRefactor, true, 0.5, "r"),
		})

		require.NoError(t, err)
		assert.Equal(t, models.CategoryRefactor, got.Label)
	})

	t.Run("unlisted categories rank last", func(t *testing.T) {
		got, err := arbiter.Decide([]models.ClassifierOutcome{
			outcome(models.CategoryBugFix, true, 0.5, "b"),
			outcome(models.CategoryFeature, true, 0.5, "f"),
		})

		require.NoError(t, err)
		assert.Equal(t, models.CategoryFeature, got.Label)
	})

	t.Run("unlisted categories order by name", func(t *testing.T) {
		got, err := arbiter.Decide([]models.ClassifierOutcome{
			outcome(models.Category("Zeta"), true, 0.5, "z"),
			outcome(models.CategoryBugFix, true, 0.5, "b"),
		})

		require.NoError(t, err)
		assert.Equal(t, models.CategoryBugFix, got.Label)
	})
}
