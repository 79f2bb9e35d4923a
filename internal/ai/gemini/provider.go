package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/thomas-vilte/changelens/internal/ai"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"google.golang.org/genai"
)

var _ ai.TokenCounter = (*GeminiProvider)(nil)

// GeminiProvider is the shared base of every Gemini classifier.
type GeminiProvider struct {
	Client *genai.Client
	model  string
}

func NewGeminiProvider(client *genai.Client, model string) *GeminiProvider {
	return &GeminiProvider{
		Client: client,
		model:  model,
	}
}

// newClient builds a genai client for the Gemini API backend.
func newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		if isAuthError(err) {
			return nil, domainErrors.ErrGeminiAPIKeyInvalid.WithError(err)
		}
		return nil, domainErrors.NewAppError(domainErrors.TypeAI, "error creating AI client", err)
	}
	return client, nil
}

// CountTokens asks the model how many tokens prompt takes.
func (g *GeminiProvider) CountTokens(ctx context.Context, prompt string) (int, error) {
	resp, err := g.Client.Models.CountTokens(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

// isAuthError matches credential failures only. A 400 INVALID_ARGUMENT is
// an auth failure only when its message names the API key.
func isAuthError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api key") ||
		strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "unauthenticated") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "permission_denied")
}

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "resource_exhausted")
}
