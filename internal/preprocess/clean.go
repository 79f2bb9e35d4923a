// Package preprocess turns raw diff or hunk text into the cleaned text that
// classifiers see, and fingerprints it for change detection.
package preprocess

import (
	"strings"

	"github.com/thomas-vilte/changelens/internal/models"
)

// BinaryOmitted replaces the whole text when a diff carries binary changes.
const BinaryOmitted = "[binary changes omitted]"

const (
	hunkHeader    = "@@"
	binaryPatch   = "GIT binary patch"
	binaryPrefix  = "Binary files "
	binarySuffix  = " differ"
	indexPrefix   = "index "
	oldFilePrefix = "--- "
	newFilePrefix = "+++ "
)

// Clean normalizes raw change text for the given scope. It never fails.
func Clean(raw string, scope models.Scope) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if scope == models.ScopeHunk {
		return CleanHunk(raw)
	}
	return CleanDiff(raw)
}

// CleanHunk keeps hunk headers plus context, addition and deletion lines.
// File headers before the first hunk header are dropped; after it, lines
// starting with "---" or "+++" are real deletions/additions.
func CleanHunk(raw string) string {
	lines := splitLines(raw)
	kept := make([]string, 0, len(lines))
	inHunk := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, hunkHeader):
			inHunk = true
			kept = append(kept, line)
		case !inHunk && (strings.HasPrefix(line, oldFilePrefix) || strings.HasPrefix(line, newFilePrefix)):
			continue
		case strings.HasPrefix(line, " "), strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"):
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// CleanDiff drops per-file index lines and collapses any diff with binary
// content to BinaryOmitted.
func CleanDiff(raw string) string {
	lines := splitLines(raw)
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if isBinaryMarker(line) {
			return BinaryOmitted
		}
		if strings.HasPrefix(line, indexPrefix) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isBinaryMarker(line string) bool {
	if strings.HasPrefix(line, binaryPatch) {
		return true
	}
	return strings.HasPrefix(line, binaryPrefix) && strings.HasSuffix(strings.TrimRight(line, " \t"), binarySuffix)
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(raw, "\n")
}
