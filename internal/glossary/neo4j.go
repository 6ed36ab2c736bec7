package glossary

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Neo4j keeps glossary terms as (:Term {chinese})-[:TRANSLATES_TO]->(:Rendering {lang, text}).
type Neo4j struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a glossary backed by driver.
func NewNeo4j(driver neo4j.DriverWithContext) *Neo4j {
	return &Neo4j{driver: driver}
}

// EnsureSchema creates the uniqueness constraint on terms.
func (g *Neo4j) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Term) REQUIRE t.chinese IS UNIQUE",
	}
	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Glossary schema ensured")
	return nil
}

// Upsert stores terms, replacing the rendering for the same language.
func (g *Neo4j) Upsert(ctx context.Context, terms []Term) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for _, t := range terms {
		_, err := session.Run(ctx, `
			MERGE (t:Term {chinese: $chinese})
			MERGE (t)-[:TRANSLATES_TO]->(r:Rendering {lang: $lang})
			SET r.text = $text
		`, map[string]any{
			"chinese": t.Chinese,
			"lang":    t.Lang,
			"text":    t.Translation,
		})
		if err != nil {
			return fmt.Errorf("upsert term %s: %w", t.Chinese, err)
		}
	}

	log.Info().Int("terms", len(terms)).Msg("Upserted glossary terms")
	return nil
}

// Terms loads every rendering for lang.
func (g *Neo4j) Terms(ctx context.Context, lang string) (map[string]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:Term)-[:TRANSLATES_TO]->(r:Rendering {lang: $lang})
		RETURN t.chinese AS chinese, r.text AS text
	`, map[string]any{"lang": lang})
	if err != nil {
		return nil, fmt.Errorf("query glossary: %w", err)
	}

	terms := make(map[string]string)
	for result.Next(ctx) {
		record := result.Record()
		chinese, _ := record.Get("chinese")
		text, _ := record.Get("text")
		terms[fmt.Sprintf("%v", chinese)] = fmt.Sprintf("%v", text)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}

	log.Debug().Str("lang", lang).Int("count", len(terms)).Msg("Loaded glossary")
	return terms, nil
}
