package models

import "time"

// Category is a classification label. Classifiers are registered per
// category; Unclear is only ever produced by arbitration.
type Category string

const (
	CategoryBugFix   Category = "Bug Fix"
	CategoryFeature  Category = "Feature"
	CategoryRefactor Category = "Refactor"
	CategoryUnclear  Category = "Unclear"
)

// DefaultCategories is the registration order, which is also the default
// tie-break precedence.
func DefaultCategories() []Category {
	return []Category{CategoryBugFix, CategoryFeature, CategoryRefactor}
}

// ParseCategory accepts the label as written or a lowercase slug
// ("bugfix", "bug-fix", "feature", "refactor").
func ParseCategory(s string) (Category, bool) {
	switch s {
	case string(CategoryBugFix), "bugfix", "bug-fix", "bug_fix", "fix":
		return CategoryBugFix, true
	case string(CategoryFeature), "feature", "feat":
		return CategoryFeature, true
	case string(CategoryRefactor), "refactor":
		return CategoryRefactor, true
	case string(CategoryUnclear), "unclear":
		return CategoryUnclear, true
	default:
		return "", false
	}
}

// Scope tells the preprocessor what kind of change text it receives.
type Scope string

const (
	ScopeDiff   Scope = "diff"
	ScopeStaged Scope = "staged"
	ScopeHunk   Scope = "hunk"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeDiff, ScopeStaged, ScopeHunk:
		return true
	default:
		return false
	}
}

type (
	// ClassificationContext is free-form project metadata handed to every
	// classifier unmodified.
	ClassificationContext struct {
		Project string            `json:"project,omitempty"`
		Branch  string            `json:"branch,omitempty"`
		Files   []string          `json:"files,omitempty"`
		Scope   Scope             `json:"scope,omitempty"`
		Extra   map[string]string `json:"extra,omitempty"`
	}

	// ClassifierOutcome is the answer of one classifier for one cycle.
	ClassifierOutcome struct {
		Category   Category    `json:"category"`
		Verdict    bool        `json:"verdict"`
		Confidence float64     `json:"confidence"`
		Reasoning  string      `json:"reasoning"`
		Usage      *TokenUsage `json:"usage,omitempty"`
	}

	// FinalClassification is the externally visible result of a cycle.
	FinalClassification struct {
		Label      Category `json:"label"`
		Confidence float64  `json:"confidence"`
		Reasoning  string   `json:"reasoning,omitempty"`
	}

	// StoredClassification is what gets persisted as the last known result.
	StoredClassification struct {
		Result       FinalClassification `json:"result"`
		Fingerprint  string              `json:"fingerprint"`
		Scope        Scope               `json:"scope,omitempty"`
		Project      string              `json:"project,omitempty"`
		ClassifiedAt time.Time           `json:"classified_at"`
	}
)
