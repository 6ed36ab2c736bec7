package rag

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"

	"alad-i18n/internal/textutil"

	"github.com/rs/zerolog/log"
)

// maxExamples caps how many examples one batch prompt receives.
const maxExamples = 20

// Index stores example embeddings and answers nearest-neighbour queries.
type Index interface {
	Store(ctx context.Context, examples []Example, vectors [][]float32) error
	Search(ctx context.Context, lang string, query []float32, topK int) ([]Example, error)
}

// Retriever finds earlier translations of texts similar to the ones being
// translated, so they can be shown to the model as examples.
type Retriever struct {
	index    Index
	embedder Embedder
	topK     int
	minScore float64
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK sets how many neighbours are fetched per text.
func WithTopK(k int) Option {
	return func(r *Retriever) { r.topK = max(k, 1) }
}

// WithMinScore drops neighbours less similar than score.
func WithMinScore(score float64) Option {
	return func(r *Retriever) { r.minScore = score }
}

// NewRetriever creates a retriever over index using embedder for queries.
func NewRetriever(index Index, embedder Embedder, opts ...Option) *Retriever {
	r := &Retriever{index: index, embedder: embedder, topK: 3, minScore: 0.75}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Similar returns the examples in lang closest to any of texts, best first,
// each source at most once.
func (r *Retriever) Similar(ctx context.Context, texts []string, lang string) ([]Example, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed queries: %w", err)
	}

	best := make(map[string]Example)
	for i, vec := range vectors {
		if len(vec) == 0 {
			log.Warn().Str("text", textutil.Truncate(texts[i], 30)).Msg("Failed to embed query, skipping vector search")
			continue
		}
		found, err := r.index.Search(ctx, lang, vec, r.topK)
		if err != nil {
			return nil, err
		}
		for _, ex := range found {
			if ex.Score < r.minScore {
				continue
			}
			if prev, ok := best[ex.Source]; !ok || ex.Score > prev.Score {
				best[ex.Source] = ex
			}
		}
	}

	out := make([]Example, 0, len(best))
	for _, ex := range best {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Source < out[j].Source
	})
	if len(out) > maxExamples {
		out = out[:maxExamples]
	}
	return out, nil
}

// Remember embeds the sources of pairs (source → translation in lang) and
// adds them to the index.
func (r *Retriever) Remember(ctx context.Context, lang string, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	sources := make([]string, 0, len(pairs))
	for source := range pairs {
		sources = append(sources, source)
	}
	slices.Sort(sources)

	vectors, err := r.embedder.Embed(ctx, sources)
	if err != nil {
		return fmt.Errorf("embed examples: %w", err)
	}
	examples := make([]Example, len(sources))
	for i, source := range sources {
		examples[i] = Example{Source: source, Lang: lang, Translated: pairs[source]}
	}
	return r.index.Store(ctx, examples, vectors)
}

// BuildContextString formats examples for a prompt.
func BuildContextString(examples []Example) string {
	if len(examples) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("=== Similar Translations ===\n")
	for i, ex := range examples {
		fmt.Fprintf(&sb, "%d. [Score: %.3f] %s → %s\n", i+1, ex.Score, ex.Source, ex.Translated)
	}
	sb.WriteString("\n")
	return sb.String()
}

// MemoryIndex is an Index held in process memory, for runs without
// PostgreSQL.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]indexed // lang + hash
}

type indexed struct {
	example Example
	vector  []float32
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]indexed)}
}

func (m *MemoryIndex) Store(_ context.Context, examples []Example, vectors [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ex := range examples {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			continue
		}
		m.entries[ex.Lang+":"+textutil.Hash(ex.Source)] = indexed{example: ex, vector: vectors[i]}
	}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, lang string, query []float32, topK int) ([]Example, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Example
	for _, e := range m.entries {
		if e.example.Lang != lang {
			continue
		}
		ex := e.example
		ex.Score = cosine(query, e.vector)
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Source < out[j].Source
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
