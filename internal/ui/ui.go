package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/models"
)

var (
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan, color.Bold)
	Accent  = color.New(color.FgMagenta, color.Bold)
	Dim     = color.New(color.FgHiBlack)

	LensEmoji    = "🔍"
	SuccessEmoji = Success.Sprint("✅")
	WarningEmoji = Warning.Sprint("⚠️")
	InfoEmoji    = Info.Sprint("ℹ️")
)

// labelColors tints each label when printed.
var labelColors = map[models.Category]*color.Color{
	models.CategoryBugFix:   color.New(color.FgRed, color.Bold),
	models.CategoryFeature:  color.New(color.FgGreen, color.Bold),
	models.CategoryRefactor: color.New(color.FgCyan, color.Bold),
	models.CategoryUnclear:  color.New(color.FgYellow, color.Bold),
}

// SmartSpinner wraps a terminal spinner that prints its final status line
// to a writer.
type SmartSpinner struct {
	spinner *spinner.Spinner
	out     io.Writer
}

func NewSmartSpinner(w io.Writer, initialMessage string) *SmartSpinner {
	s := spinner.New(
		spinner.CharSets[14],
		100*time.Millisecond,
		spinner.WithColor("cyan"),
		spinner.WithSuffix(" "+LensEmoji+" "+initialMessage),
		spinner.WithWriter(w),
	)
	return &SmartSpinner{spinner: s, out: w}
}

func (s *SmartSpinner) Start() {
	s.spinner.Start()
}

func (s *SmartSpinner) Stop() {
	s.spinner.Stop()
}

func (s *SmartSpinner) UpdateMessage(msg string) {
	s.spinner.Suffix = " " + LensEmoji + " " + msg
}

func (s *SmartSpinner) Success(msg string) {
	s.Stop()
	PrintSuccess(s.out, msg)
}

func (s *SmartSpinner) Error(msg string) {
	s.Stop()
	PrintError(s.out, msg)
}

func (s *SmartSpinner) Warning(msg string) {
	s.Stop()
	PrintWarning(s.out, msg)
}

func PrintSuccess(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", SuccessEmoji, Success.Sprint(msg))
}

func PrintError(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", Error.Sprint("❌"), Error.Sprint(msg))
}

func PrintWarning(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", WarningEmoji, Warning.Sprint(msg))
}

func PrintInfo(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", InfoEmoji, Info.Sprint(msg))
}

func PrintSectionBanner(w io.Writer, title string) {
	separator := color.New(color.FgCyan).Sprint("━━━━━━━━━━━━━━━━━━━━━━━")
	_, _ = fmt.Fprintf(w, "\n%s\n", separator)
	_, _ = fmt.Fprintf(w, "%s %s\n", LensEmoji, Accent.Sprint(title))
	_, _ = fmt.Fprintf(w, "%s\n\n", separator)
}

func PrintDuration(w io.Writer, msg string, duration time.Duration) {
	durationStr := Dim.Sprintf("(%s)", duration.Round(10*time.Millisecond))
	_, _ = fmt.Fprintf(w, "%s %s %s\n", SuccessEmoji, Success.Sprint(msg), durationStr)
}

func PrintKeyValue(w io.Writer, key, value string) {
	keyColored := Dim.Sprint(key + ":")
	valueColored := color.New(color.FgWhite, color.Bold).Sprint(value)
	_, _ = fmt.Fprintf(w, "   %s %s\n", keyColored, valueColored)
}

// LabelColor returns the color used for a label, plain bold for unknown ones.
func LabelColor(label models.Category) *color.Color {
	if c, ok := labelColors[label]; ok {
		return c
	}
	return color.New(color.Bold)
}

// PrintClassification renders a stored result as a small report.
func PrintClassification(w io.Writer, t *i18n.Translations, record models.StoredClassification) {
	PrintSectionBanner(w, t.GetMessage("ui.result_title", 0, nil))

	label := LabelColor(record.Result.Label).Sprint(string(record.Result.Label))
	_, _ = fmt.Fprintf(w, "   %s %s\n", Dim.Sprint(t.GetMessage("ui.label", 0, nil)+":"), label)
	PrintKeyValue(w, t.GetMessage("ui.confidence", 0, nil), fmt.Sprintf("%.0f%%", record.Result.Confidence*100))
	if record.Project != "" {
		PrintKeyValue(w, t.GetMessage("ui.project", 0, nil), record.Project)
	}
	if record.Scope != "" {
		PrintKeyValue(w, t.GetMessage("ui.scope", 0, nil), string(record.Scope))
	}
	if record.Fingerprint != "" {
		PrintKeyValue(w, t.GetMessage("ui.fingerprint", 0, nil), shortFingerprint(record.Fingerprint))
	}
	if !record.ClassifiedAt.IsZero() {
		PrintKeyValue(w, t.GetMessage("ui.classified_at", 0, nil), record.ClassifiedAt.Local().Format(time.DateTime))
	}

	if reasoning := strings.TrimSpace(record.Result.Reasoning); reasoning != "" {
		_, _ = fmt.Fprintf(w, "\n   %s\n", Dim.Sprint(t.GetMessage("ui.reasoning", 0, nil)+":"))
		for _, line := range strings.Split(reasoning, "\n") {
			_, _ = fmt.Fprintf(w, "   %s\n", line)
		}
	}
	_, _ = fmt.Fprintln(w)
}

// PrintFilesChanged lists the files of a change under a pluralized header.
func PrintFilesChanged(w io.Writer, t *i18n.Translations, files []string) {
	if len(files) == 0 {
		return
	}
	header := t.GetMessage("ui.files_changed", len(files), map[string]interface{}{
		"Count": len(files),
	})
	_, _ = fmt.Fprintf(w, "%s\n", Info.Sprint(header))
	for _, file := range files {
		_, _ = fmt.Fprintf(w, "   • %s\n", file)
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// HandleAppError prints an error in a friendly way. If translations is nil,
// English defaults are used.
func HandleAppError(w io.Writer, err error, translations ...*i18n.Translations) {
	if err == nil {
		return
	}
	if w == nil {
		w = os.Stderr
	}

	var t *i18n.Translations
	if len(translations) > 0 && translations[0] != nil {
		t = translations[0]
	}

	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		suggestionColor := color.New(color.FgCyan)

		_, _ = fmt.Fprintln(w)
		_, _ = Error.Fprintf(w, "❌ %s: %s\n", appErr.Type, appErr.Message)

		if appErr.Err != nil {
			_, _ = Dim.Fprintf(w, "   Details: %v\n", appErr.Err)
		}

		if appErr.Suggestion != "" {
			_, _ = fmt.Fprintln(w)
			tryPrefix := "💡 Try: "
			if t != nil {
				tryPrefix = t.GetMessage("ui_error.try_suggestion", 0, nil)
			}
			_, _ = suggestionColor.Fprint(w, tryPrefix)
			for i, line := range strings.Split(appErr.Suggestion, "\n") {
				if i == 0 {
					_, _ = fmt.Fprintln(w, line)
				} else {
					_, _ = fmt.Fprintf(w, "       %s\n", line)
				}
			}
		}
		_, _ = fmt.Fprintln(w)
		return
	}

	PrintError(w, err.Error())
}
