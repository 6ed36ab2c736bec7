package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileNames lists the configuration files looked up in the project root.
var FileNames = []string{"alad-i18n.config.json", "alad-i18n.config.yaml", "alad-i18n.config.yml"}

// Load reads the project configuration. A missing file means defaults; a
// file that cannot be parsed is reported and also falls back to defaults.
// Environment variables (and a .env file in projectDir) override secrets
// and connection settings. The result is not validated.
func Load(projectDir string) (Config, string) {
	if err := godotenv.Load(filepath.Join(projectDir, ".env")); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := Default()
	path := Find(projectDir)
	if path == "" {
		log.Info().Str("dir", projectDir).Msg("No config file found, using defaults")
		return applyEnv(cfg), ""
	}

	p, err := ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Config file is malformed, using defaults")
		return applyEnv(cfg), path
	}

	log.Info().Str("path", path).Msg("Loaded config file")
	return applyEnv(Merge(cfg, p)), path
}

// Find returns the first configuration file present in dir.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ReadFile parses a configuration file by extension.
func ReadFile(path string) (Partial, error) {
	var p Partial
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return Partial{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}
	return p, nil
}

func applyEnv(cfg Config) Config {
	cfg.BaiduAppID = getEnv("BAIDU_APP_ID", cfg.BaiduAppID)
	cfg.BaiduAppToken = getEnv("BAIDU_APP_TOKEN", cfg.BaiduAppToken)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("TRANSLATION_MODEL", cfg.GeminiModel)
	cfg.Provider = getEnv("TRANSLATION_PROVIDER", cfg.Provider)
	cfg.EmbeddingAPIKey = getEnv("EMBEDDING_API_KEY", cfg.EmbeddingAPIKey)
	cfg.EmbeddingModel = getEnv("EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.EmbeddingBaseURL = getEnv("EMBEDDING_BASE_URL", cfg.EmbeddingBaseURL)
	cfg.EmbeddingDimensions = getEnvInt("EMBEDDING_DIMENSIONS", cfg.EmbeddingDimensions)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.Neo4jURI = getEnv("NEO4J_URI", cfg.Neo4jURI)
	cfg.Neo4jUser = getEnv("NEO4J_USER", cfg.Neo4jUser)
	cfg.Neo4jPassword = getEnv("NEO4J_PASSWORD", cfg.Neo4jPassword)
	cfg.WorkerCount = getEnvInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.BatchSize = getEnvInt("BATCH_SIZE", cfg.BatchSize)
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
