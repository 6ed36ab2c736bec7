// Package translation turns batches of source strings into a target
// language through a machine translation provider.
package translation

import (
	"context"
	"errors"
)

// ErrUnsupportedLanguage is returned for a target code outside the supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Provider translates a batch of texts into lang. The result maps each
// source text to its translation; texts the provider skipped are absent.
type Provider interface {
	Translate(ctx context.Context, texts []string, lang string) (map[string]string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, texts []string, lang string) (map[string]string, error)

func (f ProviderFunc) Translate(ctx context.Context, texts []string, lang string) (map[string]string, error) {
	return f(ctx, texts, lang)
}
