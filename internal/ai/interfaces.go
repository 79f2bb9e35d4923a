package ai

import (
	"context"

	"github.com/thomas-vilte/changelens/internal/models"
)

// Classifier answers one yes/no question about a change: does it belong to
// Category()? One instance is registered per category of interest.
type Classifier interface {
	// Category returns the category this classifier votes on.
	Category() models.Category

	// Classify judges the cleaned change text. Empty text yields
	// EmptyInputOutcome without calling the model, and a reply that cannot be
	// parsed yields DegradedOutcome with a nil error. Only failures of the
	// call itself are returned as errors.
	Classify(ctx context.Context, cleaned string, cc models.ClassificationContext) (models.ClassifierOutcome, error)
}

// GenerateFunc performs the raw model call and returns the reply text.
type GenerateFunc func(ctx context.Context, model string, prompt string) (string, *models.TokenUsage, error)

// TokenCounter is implemented by providers able to count prompt tokens.
// Classifiers use it to refuse prompts the model would reject.
type TokenCounter interface {
	CountTokens(ctx context.Context, content string) (int, error)
}
