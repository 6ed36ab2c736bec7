package interpolation

import (
	"fmt"
	"regexp"
	"strings"
)

// Mapping stores the original placeholder and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

// varMatch stores a detected interpolation variable position.
type varMatch struct {
	start, end int
	value      string
}

// patterns to detect interpolation in UI strings.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[^{}]+\}`),                         // ${expr} in template literals
	regexp.MustCompile(`\{\{[^{}]+\}\}`),                       // {{ value }} mustache
	regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_.]*\}`),          // {name} vue-i18n named
	regexp.MustCompile(`\{[0-9]+\}`),                           // {0}, {1}
	regexp.MustCompile(`@:[a-zA-Z_][a-zA-Z0-9_.]*`),            // @:linked.key
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[dsfieEgGxXoubcpq]`), // %d, %s, %f, %2d, etc.
	regexp.MustCompile(`%%`),                                   // escaped percent literal
}

// Protect replaces all interpolation variables with safe {{var_N}} placeholders.
// Returns the safe string and a mapping to restore originals after translation.
func Protect(text string) (string, []Mapping) {
	var allMatches []varMatch
	for _, p := range patterns {
		locs := p.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			allMatches = append(allMatches, varMatch{
				start: loc[0],
				end:   loc[1],
				value: text[loc[0]:loc[1]],
			})
		}
	}

	if len(allMatches) == 0 {
		return text, nil
	}

	sortVarMatches(allMatches)

	// Remove overlapping matches (keep the first/longest).
	var filtered []varMatch
	lastEnd := -1
	for _, m := range allMatches {
		if m.start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.end
		}
	}

	mappings := make([]Mapping, len(filtered))
	var sb strings.Builder
	last := 0
	for i, m := range filtered {
		placeholder := fmt.Sprintf("{{var_%d}}", i+1)
		mappings[i] = Mapping{Original: m.value, Placeholder: placeholder, Index: i + 1}
		sb.WriteString(text[last:m.start])
		sb.WriteString(placeholder)
		last = m.end
	}
	sb.WriteString(text[last:])

	return sb.String(), mappings
}

// Restore puts the original interpolation back. Providers sometimes insert
// spaces inside the braces, so "{{ var_1 }}" is accepted too.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		if strings.Contains(result, m.Placeholder) {
			result = strings.Replace(result, m.Placeholder, m.Original, 1)
			continue
		}
		loose := regexp.MustCompile(fmt.Sprintf(`\{\{\s*var_%d\s*\}\}`, m.Index))
		if loc := loose.FindStringIndex(result); loc != nil {
			result = result[:loc[0]] + m.Original + result[loc[1]:]
		}
	}
	return result
}

// Missing lists the originals whose placeholder did not survive translation.
func Missing(translated string, mappings []Mapping) []string {
	var out []string
	for _, m := range mappings {
		if !strings.Contains(translated, m.Original) {
			out = append(out, m.Original)
		}
	}
	return out
}

// sortVarMatches sorts by start position, then by length (descending) for overlaps.
func sortVarMatches(matches []varMatch) {
	for i := 1; i < len(matches); i++ {
		key := matches[i]
		j := i - 1
		for j >= 0 && (matches[j].start > key.start ||
			(matches[j].start == key.start && (matches[j].end-matches[j].start) < (key.end-key.start))) {
			matches[j+1] = matches[j]
			j--
		}
		matches[j+1] = key
	}
}
