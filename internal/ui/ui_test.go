package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/models"
)

func setupUITest(t *testing.T) *i18n.Translations {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return translations
}

func TestPrintClassification(t *testing.T) {
	translations := setupUITest(t)
	var buf bytes.Buffer

	PrintClassification(&buf, translations, models.StoredClassification{
		Result: models.FinalClassification{
			Label:      models.CategoryBugFix,
			Confidence: 0.9,
			Reasoning:  "guards a nil pointer\nadds a test",
		},
		Fingerprint:  "0123456789abcdef0123",
		Scope:        models.ScopeStaged,
		Project:      "changelens",
		ClassifiedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "Classification")
	assert.Contains(t, out, "Label: Bug Fix")
	assert.Contains(t, out, "Confidence: 90%")
	assert.Contains(t, out, "Project: changelens")
	assert.Contains(t, out, "Scope: staged")
	assert.Contains(t, out, "Fingerprint: 0123456789ab")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "   guards a nil pointer\n   adds a test")
}

func TestPrintClassification_OmitsEmptyFields(t *testing.T) {
	translations := setupUITest(t)
	var buf bytes.Buffer

	PrintClassification(&buf, translations, models.StoredClassification{
		Result: models.FinalClassification{Label: models.CategoryUnclear, Confidence: 0.4},
	})

	out := buf.String()
	assert.Contains(t, out, "Label: Unclear")
	assert.NotContains(t, out, "Project")
	assert.NotContains(t, out, "Reasoning")
	assert.NotContains(t, out, "Classified at")
}

func TestPrintFilesChanged(t *testing.T) {
	translations := setupUITest(t)

	var one bytes.Buffer
	PrintFilesChanged(&one, translations, []string{"main.go"})
	assert.Contains(t, one.String(), "1 file changed")
	assert.Contains(t, one.String(), "• main.go")

	var many bytes.Buffer
	PrintFilesChanged(&many, translations, []string{"a.go", "b.go"})
	assert.Contains(t, many.String(), "2 files changed")

	var none bytes.Buffer
	PrintFilesChanged(&none, translations, nil)
	assert.Empty(t, none.String())
}

func TestLabelColor(t *testing.T) {
	assert.Same(t, labelColors[models.CategoryFeature], LabelColor(models.CategoryFeature))
	assert.NotNil(t, LabelColor("Chore"))
}

func TestHandleAppError(t *testing.T) {
	translations := setupUITest(t)

	t.Run("app error with suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		err := domainErrors.ErrAPIKeyMissing.
			WithError(errors.New("empty key")).
			WithSuggestion("changelens config set-key <key>\nor export GEMINI_API_KEY")

		HandleAppError(&buf, err, translations)

		out := buf.String()
		assert.Contains(t, out, string(domainErrors.TypeConfiguration))
		assert.Contains(t, out, "Details: empty key")
		assert.Contains(t, out, "💡 Try: changelens config set-key <key>\n")
		assert.Contains(t, out, "       or export GEMINI_API_KEY")
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, errors.New("boom"))
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("nil error prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, nil)
		assert.Empty(t, buf.String())
	})
}

func TestPrintHelpers(t *testing.T) {
	setupUITest(t)
	var buf bytes.Buffer

	PrintSuccess(&buf, "done")
	PrintWarning(&buf, "careful")
	PrintInfo(&buf, "fyi")
	PrintKeyValue(&buf, "Key", "value")
	PrintDuration(&buf, "finished", 1234*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "fyi")
	assert.Contains(t, out, "Key: value")
	assert.Contains(t, out, "(1.23s)")
}
