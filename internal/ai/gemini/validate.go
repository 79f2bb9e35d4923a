package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/thomas-vilte/changelens/internal/ai"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

// outcomeJSONSchema accepts either "verdict" or "result" as the boolean key.
const outcomeJSONSchema = `{
  "type": "object",
  "properties": {
    "reasoning": {"type": "string"},
    "verdict": {"type": "boolean"},
    "result": {"type": "boolean"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["reasoning", "confidence"],
  "anyOf": [
    {"required": ["verdict"]},
    {"required": ["result"]}
  ]
}`

var compiledOutcomeSchema = mustCompileSchema(outcomeJSONSchema)

type rawOutcome struct {
	Reasoning  string  `json:"reasoning"`
	Verdict    *bool   `json:"verdict"`
	Result     *bool   `json:"result"`
	Confidence float64 `json:"confidence"`
}

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid classifier outcome schema: %v", err))
	}
	return s
}

// ParseOutcome turns a model reply into an outcome for category. Any error
// means the reply was unusable and the caller should degrade.
func ParseOutcome(category models.Category, text string) (models.ClassifierOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return models.ClassifierOutcome{}, errors.New("empty response")
	}

	doc, err := ExtractJSON(text)
	if err != nil {
		return models.ClassifierOutcome{}, err
	}

	if err := validateOutcomeJSON(doc); err != nil {
		return models.ClassifierOutcome{}, err
	}

	var raw rawOutcome
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return models.ClassifierOutcome{}, fmt.Errorf("decoding response: %w", err)
	}

	verdict := raw.Verdict
	if verdict == nil {
		verdict = raw.Result
	}
	if verdict == nil || !ai.ValidConfidence(raw.Confidence) {
		return models.ClassifierOutcome{}, errors.New("response is missing a verdict or a valid confidence")
	}

	return models.ClassifierOutcome{
		Category:   category,
		Verdict:    *verdict,
		Confidence: raw.Confidence,
		Reasoning:  strings.TrimSpace(raw.Reasoning),
	}, nil
}

func validateOutcomeJSON(doc string) error {
	result, err := compiledOutcomeSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("response does not match schema: %s", strings.Join(msgs, "; "))
}
