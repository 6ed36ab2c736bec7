// Package glossary supplies fixed renderings of recurring Chinese terms to
// the machine translation prompt.
package glossary

import (
	"context"
	"sort"
	"strings"
)

// Term is one glossary entry for a target language.
type Term struct {
	Chinese     string `json:"chinese" yaml:"chinese"`
	Lang        string `json:"lang" yaml:"lang"`
	Translation string `json:"translation" yaml:"translation"`
}

// Source returns the glossary for a target language as Chinese → translation.
type Source interface {
	Terms(ctx context.Context, lang string) (map[string]string, error)
}

// Static is an in-memory glossary.
type Static []Term

func (s Static) Terms(_ context.Context, lang string) (map[string]string, error) {
	out := make(map[string]string)
	for _, t := range s {
		if t.Lang == lang {
			out[t.Chinese] = t.Translation
		}
	}
	return out, nil
}

// Relevant keeps the terms that occur in at least one of texts, longest
// Chinese term first.
func Relevant(terms map[string]string, texts []string) []Term {
	var out []Term
	for zh, tr := range terms {
		for _, text := range texts {
			if strings.Contains(text, zh) {
				out = append(out, Term{Chinese: zh, Translation: tr})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len([]rune(out[i].Chinese)) != len([]rune(out[j].Chinese)) {
			return len([]rune(out[i].Chinese)) > len([]rune(out[j].Chinese))
		}
		return out[i].Chinese < out[j].Chinese
	})
	return out
}
