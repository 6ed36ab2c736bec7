package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"alad-i18n/internal/config"
	"alad-i18n/internal/extract"
	"alad-i18n/internal/glossary"
	"alad-i18n/internal/memory"
	"alad-i18n/internal/notify"
	"alad-i18n/internal/rag"
	"alad-i18n/internal/translation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:           "alad-i18n",
		Short:         "Extract Chinese literals from Vue/JS/TS sources into locale files",
		Long:          "Scans Vue, JavaScript and TypeScript sources for Chinese text, assigns every distinct text a stable key, writes term banks and locale files and machine-translates them into the configured languages.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
		},
	}
	rootCmd.PersistentFlags().StringP("project", "p", ".", "Project root holding alad-i18n.config.json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(languagesCmd())
	rootCmd.AddCommand(glossaryCmd())
	rootCmd.AddCommand(seedCmd())
	return rootCmd
}

// setupContext creates a context that cancels on SIGINT/SIGTERM.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// deps are the optional backing services of a run.
type deps struct {
	pgPool      *pgxpool.Pool
	neo4jDriver neo4j.DriverWithContext
}

func (d *deps) Close(ctx context.Context) {
	if d.pgPool != nil {
		d.pgPool.Close()
	}
	if d.neo4jDriver != nil {
		if err := d.neo4jDriver.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Close Neo4j driver")
		}
	}
}

// initDependencies connects to the services that are configured. Neither
// is required: without PostgreSQL the translation memory lives only for
// the run, without Neo4j there is no glossary.
func initDependencies(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}

	if cfg.DatabaseURL != "" {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect PostgreSQL: %w", err)
		}
		if err := pgPool.Ping(ctx); err != nil {
			pgPool.Close()
			return nil, fmt.Errorf("ping PostgreSQL: %w", err)
		}
		d.pgPool = pgPool
		log.Info().Msg("Connected to PostgreSQL")
	}

	if cfg.Neo4jURI != "" {
		neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("connect Neo4j: %w", err)
		}
		if err := neo4jDriver.VerifyConnectivity(ctx); err != nil {
			d.Close(ctx)
			_ = neo4jDriver.Close(ctx)
			return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
		}
		d.neo4jDriver = neo4jDriver
		log.Info().Msg("Connected to Neo4j")
	}

	return d, nil
}

// newProvider builds the configured translation provider behind the
// translation memory. It returns nil when the provider lacks credentials.
func newProvider(ctx context.Context, cfg config.Config, d *deps) (translation.Provider, error) {
	var db memory.DB
	if d.pgPool != nil {
		db = d.pgPool
	}
	mem := memory.New(db)
	if err := mem.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure memory schema: %w", err)
	}
	if err := mem.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload translation memory")
	}

	retriever, err := newRetriever(ctx, cfg, d)
	if err != nil {
		return nil, err
	}

	var base translation.Provider
	switch cfg.Provider {
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Warn().Msg("GEMINI_API_KEY is not set, translation disabled")
			return nil, nil
		}
		var opts []translation.GeminiOption
		if d.neo4jDriver != nil {
			g := glossary.NewNeo4j(d.neo4jDriver)
			if err := g.EnsureSchema(ctx); err != nil {
				return nil, fmt.Errorf("ensure glossary schema: %w", err)
			}
			opts = append(opts, translation.WithGlossary(g))
		}
		if retriever != nil {
			opts = append(opts, translation.WithExamples(retriever))
		}
		base = translation.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, opts...)
	default:
		if cfg.BaiduAppID == "" || cfg.BaiduAppToken == "" {
			log.Warn().Msg("Baidu appid/token are not set, translation disabled")
			return nil, nil
		}
		base = translation.NewBaiduClient(cfg.BaiduAppID, cfg.BaiduAppToken)
	}

	cached := translation.Cached{Provider: base, Memory: mem}
	if retriever != nil {
		cached.Learner = retriever
	}
	log.Info().
		Str("provider", cfg.Provider).
		Bool("persistent_memory", db != nil).
		Bool("similar_examples", retriever != nil).
		Msg("Translation provider ready")
	return cached, nil
}

// newRetriever sets up the similar-translation lookup when an embedding
// API key is configured. Examples persist in pgvector when PostgreSQL is
// available and only for the run otherwise.
func newRetriever(ctx context.Context, cfg config.Config, d *deps) (*rag.Retriever, error) {
	if cfg.EmbeddingAPIKey == "" {
		return nil, nil
	}
	embedder := rag.NewEmbeddingClient(cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingBaseURL, cfg.EmbeddingDimensions)

	var index rag.Index = rag.NewMemoryIndex()
	if d.pgPool != nil {
		vs := rag.NewVectorStore(d.pgPool, embedder.Dimensions())
		if err := vs.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		index = vs
	}
	return rag.NewRetriever(index, embedder), nil
}

// session is one command run against a project.
type session struct {
	cfg       config.Config
	deps      *deps
	extractor *extract.Extractor
}

// openSession loads the project configuration and builds the extractor.
// With translate set the backing services and the provider are set up too.
func openSession(ctx context.Context, cmd *cobra.Command, translate bool) (*session, error) {
	projectDir, _ := cmd.Flags().GetString("project")
	cfg, path := config.Load(projectDir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	s := &session{cfg: cfg, deps: &deps{}}
	opts := []extract.Option{extract.WithNotifier(notify.Log{})}
	if translate {
		d, err := initDependencies(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.deps = d
		provider, err := newProvider(ctx, cfg, d)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		if provider != nil {
			opts = append(opts, extract.WithProvider(provider))
		}
	}

	e, err := extract.New(projectDir, cfg, opts...)
	if err != nil {
		s.deps.Close(ctx)
		return nil, err
	}
	s.extractor = e
	return s, nil
}

func (s *session) Close(ctx context.Context) { s.deps.Close(ctx) }
