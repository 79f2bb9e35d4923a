package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeAI            ErrorType = "AI"
	TypeGit           ErrorType = "GIT"
	TypeScheduler     ErrorType = "SCHEDULER"
	TypeStore         ErrorType = "STORE"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same type and message, so
// derived errors (WithError, WithContext) still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Git errors
var (
	ErrGetDiff = NewAppError(TypeGit, "Failed to get diff", nil).
			WithSuggestion("Check that the watched directory is a git repository: git status")

	ErrGetBranch = NewAppError(TypeGit, "Failed to get current branch", nil).
			WithSuggestion("Make sure you are in a git repository: git status")

	ErrGetRepoRoot = NewAppError(TypeGit, "Failed to get repository root", nil).
			WithSuggestion("Make sure you are inside a git repository")

	ErrNotInGitRepo = NewAppError(TypeGit, "Not in a git repository", nil).
			WithSuggestion("Initialize a git repository: git init")
)

// Configuration errors
var (
	ErrAPIKeyMissing = NewAppError(TypeConfiguration, "AI API key is missing", nil).
				WithSuggestion("Run: changelens config set-key <key> or export GEMINI_API_KEY")

	ErrConfigMissing = NewAppError(TypeConfiguration, "Configuration is missing", nil).
				WithSuggestion("A default configuration is created on first run in ~/.changelens/config.json")

	ErrInvalidConfig = NewAppError(TypeConfiguration, "Configuration is invalid", nil).
				WithSuggestion("Review ~/.changelens/config.json or run: changelens config show")

	ErrUnknownCategory = NewAppError(TypeConfiguration, "Unknown classification category", nil).
				WithSuggestion("Valid categories are: Bug Fix, Feature, Refactor")
)

// AI errors
var (
	ErrQuotaExceeded = NewAppError(TypeAI, "AI quota exceeded or rate limited", nil).
				WithSuggestion("Wait a few minutes and try again, or check your API quota")

	ErrAIGeneration = NewAppError(TypeAI, "AI generation failed", nil).
			WithSuggestion("Try again or check your API key configuration")

	ErrInvalidAIOutput = NewAppError(TypeAI, "invalid AI output format", nil).
				WithSuggestion("This is likely a temporary issue, please try again")

	ErrClassifierTimeout = NewAppError(TypeAI, "classifier call timed out", nil).
				WithSuggestion("Raise classification.classifier_timeout_seconds in the configuration")

	ErrInvalidConfidence = NewAppError(TypeAI, "classifier confidence outside [0,1]", nil)

	ErrPromptTooLarge = NewAppError(TypeAI, "change is too large to classify", nil).
				WithSuggestion("Classify a smaller hunk, or use --scope staged to send only staged changes")
)

// Gemini/AI specific errors
var (
	ErrGeminiAPIKeyInvalid = NewAppError(TypeAI, "Gemini API key is invalid", nil).
				WithSuggestion("Get a valid API key at: https://aistudio.google.com/app/apikey\nThen run: changelens config set-key <key>")

	ErrGeminiQuotaExceeded = NewAppError(TypeAI, "Gemini API quota exceeded", nil).
				WithSuggestion("Wait for quota to reset or upgrade your Gemini plan")
)

// Classification errors
var (
	ErrAllClassifiersFailed = NewAppError(TypeScheduler, "every classifier failed", nil)

	ErrNoClassifiers = NewAppError(TypeScheduler, "no classifiers configured", nil).
				WithSuggestion("Set classification.categories in the configuration")

	ErrNoOutcomes = NewAppError(TypeScheduler, "no classifier outcomes to arbitrate", nil)

	ErrReadHunk = NewAppError(TypeInternal, "could not read hunk input", nil).
			WithSuggestion("Pass an existing file to --hunk-file, or - to read from stdin")
)

// Store errors
var (
	ErrStoreRead = NewAppError(TypeStore, "Failed to read persisted state", nil)

	ErrStoreWrite = NewAppError(TypeStore, "Failed to persist state", nil).
			WithSuggestion("Check write permissions on the state directory")

	ErrNoLastResult = NewAppError(TypeStore, "No classification has been persisted yet", nil).
			WithSuggestion("Run: changelens classify")
)
