package termbank

import (
	"strings"

	"alad-i18n/internal/textutil"
)

// Candidate is a raw literal that passed normalization.
type Candidate struct {
	// Text is the trimmed literal. It is the deduplication identity and the
	// value stored in locale files.
	Text string
	// Match is Text with internal whitespace runs folded to single spaces.
	// It is only used to pair literals with machine translation results.
	Match string
}

// Normalize validates a raw literal. Empty input and input without any
// Chinese characters are rejected with ok=false.
func Normalize(raw string) (Candidate, bool) {
	if raw == "" || !textutil.ContainsChinese(raw) {
		return Candidate{}, false
	}
	return Candidate{
		Text:  strings.TrimSpace(raw),
		Match: textutil.CollapseSpace(raw),
	}, true
}
