package translation

import (
	"context"

	"alad-i18n/internal/memory"

	"github.com/rs/zerolog/log"
)

// Learner is told about fresh translations, e.g. to index them for
// similarity search.
type Learner interface {
	Remember(ctx context.Context, lang string, pairs map[string]string) error
}

// Cached answers from a translation memory first and only sends misses to
// the wrapped provider. Results are remembered only after a successful call.
type Cached struct {
	Provider Provider
	Memory   *memory.Store
	// Learner is optional.
	Learner Learner
}

func (c Cached) Translate(ctx context.Context, texts []string, lang string) (map[string]string, error) {
	out := make(map[string]string, len(texts))
	var misses []string
	for _, text := range texts {
		if v, ok := c.Memory.Get(ctx, text, lang); ok {
			out[text] = v
			continue
		}
		misses = append(misses, text)
	}
	if len(misses) == 0 {
		return out, nil
	}

	fresh, err := c.Provider.Translate(ctx, misses, lang)
	if err != nil {
		return nil, err
	}
	for source, translated := range fresh {
		out[source] = translated
		if err := c.Memory.Set(ctx, source, lang, translated); err != nil {
			log.Warn().Err(err).Str("lang", lang).Msg("Failed to remember translation")
		}
	}
	if c.Learner != nil && len(fresh) > 0 {
		if err := c.Learner.Remember(ctx, lang, fresh); err != nil {
			log.Warn().Err(err).Str("lang", lang).Msg("Failed to index translations")
		}
	}
	return out, nil
}
