package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"alad-i18n/internal/config"
	"alad-i18n/internal/extract"
	"alad-i18n/internal/glossary"
	"alad-i18n/internal/memory"
	"alad-i18n/internal/seed"
	"alad-i18n/internal/translation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [paths...]",
		Short: "Extract Chinese literals into the term bank",
		Long: `Scans the given files or directories (the project root by default) for Chinese
literals. With outExtractFile set the bank is written to the extraction file(s);
--translate fills the locale files of every configured language and --rewrite
replaces the literals in the sources with calls to the locale method.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doTranslate, _ := cmd.Flags().GetBool("translate")
			doRewrite, _ := cmd.Flags().GetBool("rewrite")
			doPrint, _ := cmd.Flags().GetBool("print")
			return runExtract(cmd, args, doTranslate, doRewrite, doPrint)
		},
	}

	cmd.Flags().Bool("translate", false, "Translate the extracted words and save them to the locale files")
	cmd.Flags().Bool("rewrite", false, "Replace literals in the sources with locale method calls")
	cmd.Flags().Bool("print", false, "Print the extracted words as JSON")

	return cmd
}

func translateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate",
		Short: "Translate the default-language locale file into every configured language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd)
		},
	}
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the language codes the translation provider accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, code := range translation.SupportedLanguages() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-4s %s\n", code, translation.DisplayName(code))
			}
			return nil
		},
	}
}

func glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the term glossary used in translation prompts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import glossary terms from a JSON or YAML list into Neo4j",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGlossaryImport(cmd, args[0])
		},
	})
	return cmd
}

// runExtract handles the `extract` command.
func runExtract(cmd *cobra.Command, paths []string, doTranslate, doRewrite, doPrint bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	s, err := openSession(ctx, cmd, doTranslate)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	if len(paths) == 0 {
		projectDir, _ := cmd.Flags().GetString("project")
		paths = []string{projectDir}
	}

	passes, err := s.extractor.Run(ctx, paths...)
	if err != nil {
		return err
	}

	for _, pass := range passes {
		log.Info().
			Str("name", pass.FileName).
			Str("output", pass.Output).
			Int("words", len(pass.Words)).
			Int("files", len(pass.Scanned)).
			Msg("Extraction pass complete")

		if doPrint {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(pass.Words); err != nil {
				return fmt.Errorf("print words: %w", err)
			}
		}

		var remap map[string]string
		if doTranslate {
			res, err := s.extractor.Prepare(ctx, pass.Words)
			if err != nil {
				return err
			}
			if err := s.extractor.Save(res); err != nil {
				return err
			}
			remap = res.Remap
		}

		if doRewrite {
			if !doTranslate && !s.cfg.OutExtractFile {
				log.Warn().Msg("Keys are neither written to an extraction file nor to the locale files")
			}
			written, err := s.extractor.Rewrite(pass.Scanned, remap)
			if err != nil {
				return err
			}
			log.Info().Int("files", len(written)).Msg("Sources rewritten")
		}
	}
	return nil
}

// runTranslate handles the `translate` command.
func runTranslate(cmd *cobra.Command) error {
	ctx, cancel := setupContext()
	defer cancel()

	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	words, err := s.extractor.LocaleWords()
	if err != nil {
		return err
	}
	if len(words) == 0 {
		log.Warn().Msg("Default-language locale file is empty, nothing to translate")
		return nil
	}

	res, err := s.extractor.Prepare(ctx, words)
	if err != nil {
		return err
	}
	if err := s.extractor.Save(res); err != nil {
		return err
	}
	if len(res.Failed) > 0 {
		errs := make([]error, 0, len(res.Failed))
		for lang, err := range res.Failed {
			errs = append(errs, fmt.Errorf("%s: %w", lang, err))
		}
		return fmt.Errorf("some languages were not translated: %w", errors.Join(errs...))
	}
	log.Info().Int("words", len(words)).Int("languages", len(res.Languages)).Msg("Translation complete")
	return nil
}

// runGlossaryImport handles the `glossary import` command.
func runGlossaryImport(cmd *cobra.Command, file string) error {
	ctx, cancel := setupContext()
	defer cancel()

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read glossary: %w", err)
	}
	// YAML is a superset of JSON, so one decoder covers both.
	var terms []glossary.Term
	if err := yaml.Unmarshal(data, &terms); err != nil {
		return fmt.Errorf("parse glossary %s: %w", file, err)
	}
	for _, t := range terms {
		if t.Chinese == "" || t.Translation == "" || !translation.IsSupported(t.Lang) {
			return fmt.Errorf("invalid glossary term %+v", t)
		}
	}

	projectDir, _ := cmd.Flags().GetString("project")
	cfg, path := config.Load(projectDir)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	d, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close(ctx)
	if d.neo4jDriver == nil {
		return errors.New("glossary import needs NEO4J_URI")
	}

	g := glossary.NewNeo4j(d.neo4jDriver)
	if err := g.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure glossary schema: %w", err)
	}
	return g.Upsert(ctx, terms)
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load existing locale translations into the translation memory, similarity index and glossary",
		Long: `Pairs the default-language locale file with every other configured locale file
by key and stores the pairs in PostgreSQL (translation memory and, with an
embedding API key, the pgvector similarity index). With Neo4j configured, short
entries also become glossary terms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxRunes, _ := cmd.Flags().GetInt("glossary-max-runes")
			return runSeed(cmd, maxRunes)
		},
	}
	cmd.Flags().Int("glossary-max-runes", 6, "Longest source text (in characters) imported as a glossary term; 0 disables")
	return cmd
}

// runSeed handles the `seed` command.
func runSeed(cmd *cobra.Command, maxRunes int) error {
	ctx, cancel := setupContext()
	defer cancel()

	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	if s.cfg.LocalesPath == "" {
		return extract.ErrNoLocalesPath
	}
	langs, err := s.cfg.Locales()
	if err != nil {
		return err
	}
	entries, err := seed.Collect(s.extractor.Locales(), langs, s.cfg.DefaultLanguage)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Warn().Msg("No existing translations found")
		return nil
	}

	d, err := initDependencies(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	var sinks []seed.Sink
	if d.pgPool != nil {
		mem := memory.New(d.pgPool)
		if err := mem.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, mem.SetBatch)

		retriever, err := newRetriever(ctx, s.cfg, d)
		if err != nil {
			return err
		}
		if retriever != nil {
			sinks = append(sinks, retriever.Remember)
		}
	}

	var terms []glossary.Term
	if d.neo4jDriver != nil && maxRunes > 0 {
		terms = seed.GlossaryTerms(entries, maxRunes)
	}
	if len(sinks) == 0 && d.neo4jDriver == nil {
		return errors.New("seed needs DATABASE_URL or NEO4J_URI")
	}

	if err := seed.Ingest(ctx, entries, sinks...); err != nil {
		return err
	}
	if len(terms) > 0 {
		g := glossary.NewNeo4j(d.neo4jDriver)
		if err := g.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure glossary schema: %w", err)
		}
		if err := g.Upsert(ctx, terms); err != nil {
			return err
		}
	}

	log.Info().Int("entries", len(entries)).Int("glossary_terms", len(terms)).Msg("Seed complete")
	return nil
}
