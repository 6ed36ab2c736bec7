package rag

import (
	"context"
	"fmt"

	"alad-i18n/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// VectorStore handles pgvector-backed storage of translated texts and
// similarity search over their source embeddings.
type VectorStore struct {
	db         DB
	dimensions int
}

// NewVectorStore creates a new vector store for embeddings of the given size.
func NewVectorStore(db DB, dimensions int) *VectorStore {
	return &VectorStore{db: db, dimensions: dimensions}
}

// Example is a source text with its translation into one language.
type Example struct {
	Source     string
	Lang       string
	Translated string
	// Score is the cosine similarity to the query, set by Search.
	Score float64
}

// EnsureSchema creates the pgvector extension and the examples table.
func (vs *VectorStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS translation_examples (
			hash TEXT NOT NULL,
			lang TEXT NOT NULL,
			source TEXT NOT NULL,
			translated TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			PRIMARY KEY (hash, lang)
		)`, vs.dimensions),
	}
	for _, stmt := range stmts {
		if _, err := vs.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}
	return nil
}

// Store upserts examples with their source embeddings. vectors[i] belongs
// to examples[i]; examples without a vector are skipped.
func (vs *VectorStore) Store(ctx context.Context, examples []Example, vectors [][]float32) error {
	stored := 0
	for i, ex := range examples {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			log.Warn().Str("text", textutil.Truncate(ex.Source, 30)).Msg("Missing embedding for example")
			continue
		}
		_, err := vs.db.Exec(ctx, `
			INSERT INTO translation_examples (hash, lang, source, translated, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hash, lang) DO UPDATE SET translated = EXCLUDED.translated, embedding = EXCLUDED.embedding
		`, textutil.Hash(ex.Source), ex.Lang, ex.Source, ex.Translated, pgvector.NewVector(vectors[i]))
		if err != nil {
			return fmt.Errorf("insert example %s: %w", textutil.Truncate(ex.Source, 30), err)
		}
		stored++
	}

	log.Debug().Int("count", stored).Msg("Stored examples")
	return nil
}

// Search finds the topK examples in lang closest to the query vector.
func (vs *VectorStore) Search(ctx context.Context, lang string, query []float32, topK int) ([]Example, error) {
	rows, err := vs.db.Query(ctx, `
		SELECT source, translated, 1 - (embedding <=> $1) AS similarity
		FROM translation_examples
		WHERE lang = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(query), lang, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []Example
	for rows.Next() {
		ex := Example{Lang: lang}
		if err := rows.Scan(&ex.Source, &ex.Translated, &ex.Score); err != nil {
			return nil, fmt.Errorf("scan example: %w", err)
		}
		results = append(results, ex)
	}
	return results, rows.Err()
}
