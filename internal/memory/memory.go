// Package memory is a translation memory: source text and target language
// to an earlier machine translation.
package memory

import (
	"context"
	"fmt"
	"sync"

	"alad-i18n/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS translation_memory (
	hash       TEXT NOT NULL,
	lang       TEXT NOT NULL,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (hash, lang)
)`

// Store caches translations in memory and, when a database is attached, in
// PostgreSQL.
type Store struct {
	db     DB
	mu     sync.RWMutex
	memory map[string]string // lang + hash → translated text
}

// New creates a store. db may be nil for a process-local memory.
func New(db DB) *Store {
	return &Store{
		db:     db,
		memory: make(map[string]string),
	}
}

func memoryKey(lang, sourceText string) string {
	return lang + ":" + textutil.Hash(sourceText)
}

// EnsureSchema creates the backing table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create translation_memory: %w", err)
	}
	return nil
}

// Get retrieves a remembered translation.
func (s *Store) Get(ctx context.Context, sourceText, lang string) (string, bool) {
	key := memoryKey(lang, sourceText)

	s.mu.RLock()
	if v, ok := s.memory[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return "", false
	}

	var translated string
	err := s.db.QueryRow(ctx,
		`SELECT translated FROM translation_memory WHERE hash = $1 AND lang = $2`,
		textutil.Hash(sourceText), lang,
	).Scan(&translated)
	if err != nil {
		return "", false
	}

	s.mu.Lock()
	s.memory[key] = translated
	s.mu.Unlock()

	return translated, true
}

// Set remembers a translation.
func (s *Store) Set(ctx context.Context, sourceText, lang, translated string) error {
	s.mu.Lock()
	s.memory[memoryKey(lang, sourceText)] = translated
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO translation_memory (hash, lang, source, translated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash, lang) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()
	`, textutil.Hash(sourceText), lang, sourceText, translated)
	if err != nil {
		return fmt.Errorf("memory set: %w", err)
	}
	return nil
}

// SetBatch remembers every pair for lang.
func (s *Store) SetBatch(ctx context.Context, lang string, pairs map[string]string) error {
	for source, translated := range pairs {
		if err := s.Set(ctx, source, lang, translated); err != nil {
			return err
		}
	}
	return nil
}

// Preload loads all stored translations into memory.
func (s *Store) Preload(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	rows, err := s.db.Query(ctx, `SELECT hash, lang, translated FROM translation_memory`)
	if err != nil {
		return fmt.Errorf("preload memory: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for rows.Next() {
		var hash, lang, translated string
		if err := rows.Scan(&hash, &lang, &translated); err != nil {
			return fmt.Errorf("scan memory row: %w", err)
		}
		s.memory[lang+":"+hash] = translated
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload memory: %w", err)
	}

	log.Info().Int("count", count).Msg("Preloaded translation memory")
	return nil
}
