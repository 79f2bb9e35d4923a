package gemini

import (
	"errors"
	"strings"

	"github.com/thomas-vilte/changelens/internal/models"
	"google.golang.org/genai"
)

const (
	responseMIMEJSON = "application/json"
	maxOutputTokens  = int32(1024)
)

var errNoJSONObject = errors.New("no JSON object found in response")

func extractUsage(resp *genai.GenerateContentResponse) *models.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &models.TokenUsage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
	}
}

// GetGenerateConfig returns a deterministic configuration: temperature 0
// and a single candidate, so identical prompts get stable answers.
func GetGenerateConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:      float32Ptr(0),
		TopP:             float32Ptr(1),
		CandidateCount:   1,
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: responseMIMEJSON,
	}
	if schema != nil {
		config.ResponseSchema = schema
	}
	return config
}

// outcomeSchema mirrors the JSON schema in validate.go for the API side.
func outcomeSchema() *genai.Schema {
	return &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"reasoning", "verdict", "confidence"},
		Properties: map[string]*genai.Schema{
			"reasoning": {
				Type:        genai.TypeString,
				Description: "One or two sentences explaining the decision",
			},
			"verdict": {
				Type:        genai.TypeBoolean,
				Description: "True if the change belongs to the category",
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Confidence in the verdict between 0 and 1",
				Minimum:     float64Ptr(0),
				Maximum:     float64Ptr(1),
			},
		},
		PropertyOrdering: []string{"reasoning", "verdict", "confidence"},
	}
}

func float32Ptr(f float32) *float32 {
	return &f
}

func float64Ptr(f float64) *float64 {
	return &f
}

// formatResponse concatenates the text parts of the first candidate,
// skipping thought parts.
func formatResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// ExtractJSON returns the first balanced JSON object in text. Markdown code
// fences and surrounding prose are tolerated.
func ExtractJSON(text string) (string, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end := matchBrace(text, start); end > start {
			return text[start : end+1], nil
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", errNoJSONObject
}

func stripCodeFence(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	body := text[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	if closing := strings.Index(body, "```"); closing >= 0 {
		body = body[:closing]
	}
	return strings.TrimSpace(body)
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside string literals are ignored.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
