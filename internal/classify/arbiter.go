package classify

import (
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/models"
)

// Arbiter reduces classifier outcomes to a single label. Confidence ties
// are broken by a fixed category precedence.
type Arbiter struct {
	rank map[models.Category]int
}

// NewArbiter ranks categories in the given order, first wins. An empty
// list falls back to models.DefaultCategories.
func NewArbiter(precedence []models.Category) *Arbiter {
	if len(precedence) == 0 {
		precedence = models.DefaultCategories()
	}

	rank := make(map[models.Category]int, len(precedence))
	for i, c := range precedence {
		if _, dup := rank[c]; !dup {
			rank[c] = i
		}
	}
	return &Arbiter{rank: rank}
}

// Decide picks the most confident positive verdict. With no positive
// verdict the result is Unclear, carrying the confidence and reasoning of
// the most confident outcome.
func (a *Arbiter) Decide(outcomes []models.ClassifierOutcome) (models.FinalClassification, error) {
	if len(outcomes) == 0 {
		return models.FinalClassification{}, domainErrors.ErrNoOutcomes
	}

	var (
		best     models.ClassifierOutcome
		haveBest bool
		overall  = outcomes[0]
	)

	for _, o := range outcomes {
		if a.better(o, overall) {
			overall = o
		}
		if o.Verdict && (!haveBest || a.better(o, best)) {
			best = o
			haveBest = true
		}
	}

	if haveBest {
		return models.FinalClassification{
			Label:      best.Category,
			Confidence: best.Confidence,
			Reasoning:  best.Reasoning,
		}, nil
	}

	return models.FinalClassification{
		Label:      models.CategoryUnclear,
		Confidence: overall.Confidence,
		Reasoning:  overall.Reasoning,
	}, nil
}

func (a *Arbiter) better(x, y models.ClassifierOutcome) bool {
	if x.Confidence != y.Confidence {
		return x.Confidence > y.Confidence
	}
	return a.precedes(x.Category, y.Category)
}

// precedes orders listed categories by rank, then unlisted ones by name.
func (a *Arbiter) precedes(x, y models.Category) bool {
	rx, okX := a.rank[x]
	ry, okY := a.rank[y]
	switch {
	case okX && okY:
		return rx < ry
	case okX:
		return true
	case okY:
		return false
	default:
		return x < y
	}
}
