package extract

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"alad-i18n/internal/config"
	"alad-i18n/internal/locale"
	"alad-i18n/internal/notify"
	"alad-i18n/internal/textutil"
	"alad-i18n/internal/worker"

	"github.com/rs/zerolog/log"
)

// Word is one extracted text with its value per configured language.
type Word struct {
	Key   string               `json:"key"`
	Value string               `json:"value"`
	Langs map[string]LangValue `json:"langs,omitempty"`
}

// LangValue is a word's text in one language. Exists marks values that are
// already in the locale file and must not be written again.
type LangValue struct {
	Exists bool   `json:"exists"`
	Value  string `json:"value"`
}

// Result is the outcome of Prepare.
type Result struct {
	Words     []Word
	Languages []config.Language
	// Remap maps bank keys to the key already used for the same text in the
	// default-language locale file.
	Remap map[string]string
	// Failed holds the languages whose translation was abandoned.
	Failed map[string]error
}

// LocaleWords lists the default-language locale file as words, so its
// entries can be translated into the other languages.
func (e *Extractor) LocaleWords() ([]Word, error) {
	if e.cfg.LocalesPath == "" {
		return nil, ErrNoLocalesPath
	}
	def, ok, err := e.cfg.DefaultLocale()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: default language %q is not in languages", config.ErrInvalidConfig, e.cfg.DefaultLanguage)
	}
	m, err := e.locales.Read(e.locales.Path(def.LocaleFileName))
	if err != nil {
		return nil, err
	}
	words := make([]Word, 0, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		words = append(words, Word{Key: key, Value: m[key], Langs: map[string]LangValue{}})
	}
	return words, nil
}

// Prepare fills in every configured language for words. The default
// language is handled first, wherever it is listed, and reuses keys of texts
// already present in its locale file. Other
// languages keep the values their locale files hold and get the missing
// ones translated. A language whose translation fails is recorded in
// Result.Failed and the remaining languages carry on.
func (e *Extractor) Prepare(ctx context.Context, words []Word) (*Result, error) {
	if e.cfg.LocalesPath == "" {
		e.notify.Notify(notify.Warn, "请先在配置文件中设置 localesPath。")
		return nil, ErrNoLocalesPath
	}
	langs, err := e.cfg.Locales()
	if err != nil {
		e.notify.Notify(notify.Error, err.Error())
		return nil, err
	}

	res := &Result{
		Words:     cloneWords(words),
		Languages: langs,
		Remap:     map[string]string{},
		Failed:    map[string]error{},
	}

	// Remapping onto the default locale's keys comes first so every other
	// language looks up its existing values under those keys.
	if i := slices.IndexFunc(langs, func(l config.Language) bool { return l.LangType == e.cfg.DefaultLanguage }); i >= 0 {
		e.prepareDefault(res, langs[i])
	}

	translated := 0
	for _, lang := range langs {
		if lang.LangType == e.cfg.DefaultLanguage {
			continue
		}
		if translated > 0 && e.cfg.TranslateInterval > 0 {
			if err := sleep(ctx, e.cfg.TranslateInterval); err != nil {
				return res, err
			}
		}
		translated++
		if err := e.prepareLanguage(ctx, res, lang); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed[lang.LangType] = err
			e.notify.Notify(notify.Error, fmt.Sprintf("翻译 %s 失败：%v", lang.LangType, err))
			log.Error().Err(err).Str("lang", lang.LangType).Msg("Translation abandoned for language")
		}
	}
	return res, nil
}

func (e *Extractor) prepareDefault(res *Result, lang config.Language) {
	current, err := e.locales.Read(e.locales.Path(lang.LocaleFileName))
	if err != nil {
		log.Warn().Err(err).Str("lang", lang.LangType).Msg("Default locale unreadable, treating as empty")
	}
	inverted := locale.Invert(current)
	for i := range res.Words {
		w := &res.Words[i]
		if v, ok := current[w.Key]; ok && v == w.Value {
			w.Langs[lang.LangType] = LangValue{Exists: true, Value: w.Value}
			continue
		}
		if key, ok := inverted[w.Value]; ok {
			if key != w.Key {
				res.Remap[w.Key] = key
				w.Key = key
			}
			w.Langs[lang.LangType] = LangValue{Exists: true, Value: w.Value}
			continue
		}
		w.Langs[lang.LangType] = LangValue{Value: w.Value}
	}
}

func (e *Extractor) prepareLanguage(ctx context.Context, res *Result, lang config.Language) error {
	current, err := e.locales.Read(e.locales.Path(lang.LocaleFileName))
	if err != nil && !errors.Is(err, locale.ErrInvalidLocale) {
		return err
	}

	var pending []string
	seen := map[string]bool{}
	for i := range res.Words {
		w := &res.Words[i]
		if v, ok := current[w.Key]; ok {
			w.Langs[lang.LangType] = LangValue{Exists: true, Value: v}
			continue
		}
		text := textutil.CollapseSpace(w.Value)
		if !seen[text] {
			seen[text] = true
			pending = append(pending, text)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if e.provider == nil {
		return ErrNoProvider
	}

	translations := make(map[string]string, len(pending))
	for _, batch := range worker.Batch(pending, e.cfg.BatchSize) {
		out, err := e.provider.Translate(ctx, batch, lang.LangType)
		if err != nil {
			return err
		}
		maps.Copy(translations, out)
	}

	for i := range res.Words {
		w := &res.Words[i]
		if _, done := w.Langs[lang.LangType]; done {
			continue
		}
		if v, ok := translations[textutil.CollapseSpace(w.Value)]; ok && v != "" {
			w.Langs[lang.LangType] = LangValue{Value: v}
		}
	}
	log.Info().Str("lang", lang.LangType).Int("translated", len(translations)).Int("requested", len(pending)).Msg("Language prepared")
	return nil
}

// Save writes the new values of res into the locale files. Values already
// present are left alone and for a key seen twice the first value wins.
// Languages recorded as failed are skipped.
func (e *Extractor) Save(res *Result) error {
	var errs []error
	for _, lang := range res.Languages {
		if _, failed := res.Failed[lang.LangType]; failed {
			continue
		}
		path := e.locales.Path(lang.LocaleFileName)
		if err := e.locales.Ensure(path); err != nil {
			errs = append(errs, err)
			continue
		}

		pairs := map[string]string{}
		for _, w := range res.Words {
			lv, ok := w.Langs[lang.LangType]
			if !ok || lv.Exists || lv.Value == "" {
				continue
			}
			if _, dup := pairs[w.Key]; dup {
				continue
			}
			pairs[w.Key] = lv.Value
		}
		if len(pairs) == 0 {
			continue
		}
		if err := e.locales.MergeInto(path, pairs); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info().Str("path", path).Int("added", len(pairs)).Msg("Locale file updated")
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	e.notify.Notify(notify.Success, "保存成功")
	return nil
}

func cloneWords(words []Word) []Word {
	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = Word{Key: w.Key, Value: w.Value, Langs: maps.Clone(w.Langs)}
		if out[i].Langs == nil {
			out[i].Langs = map[string]LangValue{}
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
