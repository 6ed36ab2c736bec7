// Package seed feeds translations people already made, found in the
// project's locale files, into the translation memory, the similarity index
// and the glossary.
package seed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"alad-i18n/internal/config"
	"alad-i18n/internal/glossary"
	"alad-i18n/internal/locale"
	"alad-i18n/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Entry is one existing translation: a key's default-language text and its
// text in another language.
type Entry struct {
	Key        string
	Source     string
	Lang       string
	Translated string
}

// Sink receives the source → translation pairs of one language.
// memory.Store.SetBatch and rag.Retriever.Remember both fit.
type Sink func(ctx context.Context, lang string, pairs map[string]string) error

// Collect pairs the default-language locale file with every other
// configured locale file by key. Sources are whitespace-collapsed, the form
// translation requests use. Unreadable files are skipped with a warning.
func Collect(store *locale.Store, langs []config.Language, defaultLang string) ([]Entry, error) {
	def := slices.IndexFunc(langs, func(l config.Language) bool { return l.LangType == defaultLang })
	if def < 0 {
		return nil, fmt.Errorf("%w: default language %q is not configured", config.ErrInvalidConfig, defaultLang)
	}
	sources, err := store.Read(store.Path(langs[def].LocaleFileName))
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, lang := range langs {
		if lang.LangType == defaultLang {
			continue
		}
		translated, err := store.Read(store.Path(lang.LocaleFileName))
		if err != nil {
			if errors.Is(err, locale.ErrInvalidLocale) {
				log.Warn().Err(err).Str("lang", lang.LangType).Msg("Skipping unreadable locale file")
				continue
			}
			return nil, err
		}
		for _, key := range sortedKeys(translated) {
			source, ok := sources[key]
			if !ok || translated[key] == "" || !textutil.ContainsChinese(source) {
				continue
			}
			entries = append(entries, Entry{
				Key:        key,
				Source:     textutil.CollapseSpace(source),
				Lang:       lang.LangType,
				Translated: translated[key],
			})
		}
	}

	log.Info().Int("entries", len(entries)).Msg("Collected existing translations")
	return entries, nil
}

// Ingest hands the entries of every language to each sink. A failing sink
// stops the ingestion.
func Ingest(ctx context.Context, entries []Entry, sinks ...Sink) error {
	byLang := make(map[string]map[string]string)
	var order []string
	for _, e := range entries {
		pairs, ok := byLang[e.Lang]
		if !ok {
			pairs = make(map[string]string)
			byLang[e.Lang] = pairs
			order = append(order, e.Lang)
		}
		if _, dup := pairs[e.Source]; !dup {
			pairs[e.Source] = e.Translated
		}
	}

	for _, lang := range order {
		for _, sink := range sinks {
			if err := sink(ctx, lang, byLang[lang]); err != nil {
				return fmt.Errorf("seed %s: %w", lang, err)
			}
		}
		log.Info().Str("lang", lang).Int("pairs", len(byLang[lang])).Msg("Seeded language")
	}
	return nil
}

// GlossaryTerms picks the entries short enough to serve as glossary terms,
// typically button labels and menu items.
func GlossaryTerms(entries []Entry, maxRunes int) []glossary.Term {
	var terms []glossary.Term
	seen := make(map[string]bool)
	for _, e := range entries {
		if utf8.RuneCountInString(e.Source) > maxRunes || seen[e.Lang+"\x00"+e.Source] {
			continue
		}
		seen[e.Lang+"\x00"+e.Source] = true
		terms = append(terms, glossary.Term{Chinese: e.Source, Lang: e.Lang, Translation: e.Translated})
	}
	return terms
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
