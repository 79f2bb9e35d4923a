package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thomas-vilte/changelens/internal/ai"
	"github.com/thomas-vilte/changelens/internal/config"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/logger"
	"github.com/thomas-vilte/changelens/internal/models"
	"google.golang.org/genai"
)

// maxPromptTokens is the largest prompt sent to the model. Every token
// covers at least one byte, so shorter prompts are never counted.
const maxPromptTokens = 200_000

// Classifier asks Gemini whether a change belongs to a single category.
type Classifier struct {
	*GeminiProvider
	category   models.Category
	lang       string
	generateFn ai.GenerateFunc
	counter    ai.TokenCounter
	tokenLimit int
}

var _ ai.Classifier = (*Classifier)(nil)

// NewClassifiers builds one classifier per configured category, all sharing
// a single client.
func NewClassifiers(ctx context.Context, cfg *config.Config) ([]ai.Classifier, error) {
	categories, err := cfg.Classification.CategoryList()
	if err != nil {
		return nil, domainErrors.ErrUnknownCategory.WithError(err)
	}

	client, err := newClient(ctx, cfg.GeminiAPIKey())
	if err != nil {
		return nil, err
	}

	provider := NewGeminiProvider(client, string(cfg.ActiveModel()))
	classifiers := make([]ai.Classifier, 0, len(categories))
	for _, cat := range categories {
		classifiers = append(classifiers, newClassifier(provider, cat, cfg.Language))
	}
	return classifiers, nil
}

func newClassifier(provider *GeminiProvider, category models.Category, lang string) *Classifier {
	c := &Classifier{
		GeminiProvider: provider,
		category:       category,
		lang:           lang,
		counter:        provider,
		tokenLimit:     maxPromptTokens,
	}
	c.generateFn = c.defaultGenerate
	return c
}

func (c *Classifier) Category() models.Category {
	return c.category
}

func (c *Classifier) Classify(ctx context.Context, cleaned string, cc models.ClassificationContext) (models.ClassifierOutcome, error) {
	if strings.TrimSpace(cleaned) == "" {
		return ai.EmptyInputOutcome(c.category), nil
	}

	log := logger.FromContext(ctx).With("category", string(c.category))

	prompt, err := ai.BuildClassifierPrompt(c.lang, c.category, cleaned, cc)
	if err != nil {
		return models.ClassifierOutcome{}, domainErrors.NewAppError(domainErrors.TypeInternal, "error rendering classifier prompt", err)
	}

	log.Debug("calling classifier",
		"model", c.model,
		"prompt_length", len(prompt))

	if err := c.checkPromptSize(ctx, prompt); err != nil {
		return models.ClassifierOutcome{}, err
	}

	start := time.Now()
	text, usage, err := c.generateFn(ctx, c.model, prompt)
	if err != nil {
		return models.ClassifierOutcome{}, err
	}

	outcome, err := ParseOutcome(c.category, text)
	if err != nil {
		log.Warn("classifier response could not be parsed",
			"error", err,
			"response_length", len(text))
		outcome = ai.DegradedOutcome(c.category, err)
	}

	if usage != nil {
		usage.Model = c.model
		usage.DurationMs = time.Since(start).Milliseconds()
	}
	outcome.Usage = usage

	log.Debug("classifier answered",
		"verdict", outcome.Verdict,
		"confidence", outcome.Confidence)

	return outcome, nil
}

// checkPromptSize rejects prompts over the token limit. A failed count is
// logged and the prompt is sent anyway.
func (c *Classifier) checkPromptSize(ctx context.Context, prompt string) error {
	if c.counter == nil || len(prompt) <= c.tokenLimit {
		return nil
	}

	tokens, err := c.counter.CountTokens(ctx, prompt)
	if err != nil {
		logger.Warn(ctx, "could not count prompt tokens", "error", err, "category", string(c.category))
		return nil
	}
	if tokens > c.tokenLimit {
		return domainErrors.ErrPromptTooLarge.
			WithContext("tokens", tokens).
			WithContext("limit", c.tokenLimit)
	}
	return nil
}

func (c *Classifier) defaultGenerate(ctx context.Context, model string, prompt string) (string, *models.TokenUsage, error) {
	resp, err := c.Client.Models.GenerateContent(ctx, model, genai.Text(prompt), GetGenerateConfig(outcomeSchema()))
	if err != nil {
		logger.Error(ctx, "gemini API call failed", err, "model", model)
		return "", nil, mapCallError(ctx, err)
	}
	return formatResponse(resp), extractUsage(resp), nil
}

func mapCallError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domainErrors.ErrClassifierTimeout.WithError(err)
	case isQuotaError(err):
		return domainErrors.ErrGeminiQuotaExceeded.WithError(err)
	case isAuthError(err):
		return domainErrors.ErrGeminiAPIKeyInvalid.WithError(err)
	default:
		return domainErrors.ErrAIGeneration.WithError(err)
	}
}
