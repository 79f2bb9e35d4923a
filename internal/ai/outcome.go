package ai

import (
	"fmt"
	"math"

	"github.com/thomas-vilte/changelens/internal/models"
)

// EmptyInputReasoning is the fixed reasoning returned for empty change text.
const EmptyInputReasoning = "empty input"

// EmptyInputOutcome is the fixed answer every classifier gives for empty
// cleaned text, independent of category.
func EmptyInputOutcome(category models.Category) models.ClassifierOutcome {
	return models.ClassifierOutcome{
		Category:   category,
		Verdict:    false,
		Confidence: 1.0,
		Reasoning:  EmptyInputReasoning,
	}
}

// DegradedOutcome is returned instead of an error when a model reply cannot
// be parsed or validated.
func DegradedOutcome(category models.Category, cause error) models.ClassifierOutcome {
	reason := "classifier response could not be parsed"
	if cause != nil {
		reason = fmt.Sprintf("%s: %v", reason, cause)
	}
	return models.ClassifierOutcome{
		Category:   category,
		Verdict:    false,
		Confidence: 0,
		Reasoning:  reason,
	}
}

// ValidConfidence reports whether c is a usable confidence in [0,1].
func ValidConfidence(c float64) bool {
	return !math.IsNaN(c) && c >= 0 && c <= 1
}
