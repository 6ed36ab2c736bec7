// Package config holds the project settings read from alad-i18n.config.json
// (or .yaml) and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"alad-i18n/internal/translation"
)

// Output modes for extracted term banks.
const (
	ModeFile    = "file"
	ModeUnified = "unified"
)

// Translation providers.
const (
	ProviderBaidu  = "baidu"
	ProviderGemini = "gemini"
)

var (
	// ErrInvalidConfig marks a configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedLanguage marks a configured language outside the provider's set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Config is the fully populated configuration.
type Config struct {
	// OutFile is the project-relative directory extraction files go to.
	OutFile string `json:"outFile" yaml:"outFile"`
	// I18nLang, when set, replaces OutFile as the unified output directory.
	I18nLang          string   `json:"i18nLang" yaml:"i18nLang"`
	FileOutMode       string   `json:"fileOutMode" yaml:"fileOutMode"`
	UnifiedFileName   string   `json:"unifiedFileName" yaml:"unifiedFileName"`
	Vue3I18n          bool     `json:"vue3i18n" yaml:"vue3i18n"`
	LocalesMethodName string   `json:"localesMehodName" yaml:"localesMehodName"`
	OutExtractFile    bool     `json:"outExtractFile" yaml:"outExtractFile"`
	Languages         []string `json:"languages" yaml:"languages"`
	LocalesPath       string   `json:"localesPath" yaml:"localesPath"`
	ImportCode        string   `json:"importCode" yaml:"importCode"`
	LocalesPrefix     string   `json:"localesPerfix" yaml:"localesPerfix"`
	DefaultLanguage   string   `json:"defaultLanguage" yaml:"defaultLanguage"`

	Provider          string        `json:"provider" yaml:"provider"`
	BaiduAppID        string        `json:"baiduAppId" yaml:"baiduAppId"`
	BaiduAppToken     string        `json:"baiduAppToken" yaml:"baiduAppToken"`
	GeminiAPIKey      string        `json:"geminiApiKey" yaml:"geminiApiKey"`
	GeminiModel       string        `json:"geminiModel" yaml:"geminiModel"`
	TranslateInterval time.Duration `json:"translateInterval" yaml:"translateInterval"`
	BatchSize         int           `json:"batchSize" yaml:"batchSize"`
	WorkerCount       int           `json:"workerCount" yaml:"workerCount"`

	// Embedding* configure the OpenAI-compatible embedding API used to find
	// similar earlier translations. Without a key the lookup is off.
	EmbeddingAPIKey     string `json:"embeddingApiKey" yaml:"embeddingApiKey"`
	EmbeddingModel      string `json:"embeddingModel" yaml:"embeddingModel"`
	EmbeddingBaseURL    string `json:"embeddingBaseUrl" yaml:"embeddingBaseUrl"`
	EmbeddingDimensions int    `json:"embeddingDimensions" yaml:"embeddingDimensions"`

	DatabaseURL   string `json:"databaseUrl" yaml:"databaseUrl"`
	Neo4jURI      string `json:"neo4jUri" yaml:"neo4jUri"`
	Neo4jUser     string `json:"neo4jUser" yaml:"neo4jUser"`
	Neo4jPassword string `json:"neo4jPassword" yaml:"neo4jPassword"`
}

// Partial is a configuration file as written by a user; nil fields keep the
// default.
type Partial struct {
	OutFile           *string  `json:"outFile" yaml:"outFile"`
	I18nLang          *string  `json:"i18nLang" yaml:"i18nLang"`
	FileOutMode       *string  `json:"fileOutMode" yaml:"fileOutMode"`
	UnifiedFileName   *string  `json:"unifiedFileName" yaml:"unifiedFileName"`
	Vue3I18n          *bool    `json:"vue3i18n" yaml:"vue3i18n"`
	LocalesMethodName *string  `json:"localesMehodName" yaml:"localesMehodName"`
	OutExtractFile    *bool    `json:"outExtractFile" yaml:"outExtractFile"`
	Languages         []string `json:"languages" yaml:"languages"`
	LocalesPath       *string  `json:"localesPath" yaml:"localesPath"`
	ImportCode        *string  `json:"importCode" yaml:"importCode"`
	LocalesPrefix     *string  `json:"localesPerfix" yaml:"localesPerfix"`
	DefaultLanguage   *string  `json:"defaultLanguage" yaml:"defaultLanguage"`

	Provider          *string `json:"provider" yaml:"provider"`
	BaiduAppID        *string `json:"baiduAppId" yaml:"baiduAppId"`
	BaiduAppToken     *string `json:"baiduAppToken" yaml:"baiduAppToken"`
	GeminiAPIKey      *string `json:"geminiApiKey" yaml:"geminiApiKey"`
	GeminiModel       *string `json:"geminiModel" yaml:"geminiModel"`
	TranslateInterval *int    `json:"translateIntervalMs" yaml:"translateIntervalMs"`
	BatchSize         *int    `json:"batchSize" yaml:"batchSize"`
	WorkerCount       *int    `json:"workerCount" yaml:"workerCount"`

	EmbeddingAPIKey     *string `json:"embeddingApiKey" yaml:"embeddingApiKey"`
	EmbeddingModel      *string `json:"embeddingModel" yaml:"embeddingModel"`
	EmbeddingBaseURL    *string `json:"embeddingBaseUrl" yaml:"embeddingBaseUrl"`
	EmbeddingDimensions *int    `json:"embeddingDimensions" yaml:"embeddingDimensions"`

	DatabaseURL   *string `json:"databaseUrl" yaml:"databaseUrl"`
	Neo4jURI      *string `json:"neo4jUri" yaml:"neo4jUri"`
	Neo4jUser     *string `json:"neo4jUser" yaml:"neo4jUser"`
	Neo4jPassword *string `json:"neo4jPassword" yaml:"neo4jPassword"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutFile:           "alad-i18n-out",
		FileOutMode:       ModeUnified,
		UnifiedFileName:   "lang",
		Vue3I18n:          true,
		LocalesMethodName: "$t",
		Languages:         []string{"zh:zh-CN", "en:en-US"},
		ImportCode:        "import { $t } from '#/locales';\n",
		DefaultLanguage:   "zh",
		Provider:          ProviderBaidu,
		GeminiModel:       "gemini-2.5-flash",
		TranslateInterval: time.Second,
		BatchSize:         50,
		WorkerCount:       8,
		Neo4jUser:         "neo4j",

		EmbeddingModel:      "text-embedding-v4",
		EmbeddingBaseURL:    "https://dashscope.aliyuncs.com/compatible-mode/v1",
		EmbeddingDimensions: 1024,
	}
}

// Merge overlays p on base and returns the result. Neither argument is modified.
func Merge(base Config, p Partial) Config {
	out := base
	out.Languages = append([]string(nil), base.Languages...)

	setString(&out.OutFile, p.OutFile)
	setString(&out.I18nLang, p.I18nLang)
	setString(&out.FileOutMode, p.FileOutMode)
	setString(&out.UnifiedFileName, p.UnifiedFileName)
	setString(&out.LocalesMethodName, p.LocalesMethodName)
	setString(&out.LocalesPath, p.LocalesPath)
	setString(&out.ImportCode, p.ImportCode)
	setString(&out.LocalesPrefix, p.LocalesPrefix)
	setString(&out.DefaultLanguage, p.DefaultLanguage)
	setString(&out.Provider, p.Provider)
	setString(&out.BaiduAppID, p.BaiduAppID)
	setString(&out.BaiduAppToken, p.BaiduAppToken)
	setString(&out.GeminiAPIKey, p.GeminiAPIKey)
	setString(&out.GeminiModel, p.GeminiModel)
	setString(&out.EmbeddingAPIKey, p.EmbeddingAPIKey)
	setString(&out.EmbeddingModel, p.EmbeddingModel)
	setString(&out.EmbeddingBaseURL, p.EmbeddingBaseURL)
	setString(&out.DatabaseURL, p.DatabaseURL)
	setString(&out.Neo4jURI, p.Neo4jURI)
	setString(&out.Neo4jUser, p.Neo4jUser)
	setString(&out.Neo4jPassword, p.Neo4jPassword)

	if p.Vue3I18n != nil {
		out.Vue3I18n = *p.Vue3I18n
	}
	if p.OutExtractFile != nil {
		out.OutExtractFile = *p.OutExtractFile
	}
	if p.Languages != nil {
		out.Languages = append([]string(nil), p.Languages...)
	}
	if p.TranslateInterval != nil {
		out.TranslateInterval = time.Duration(*p.TranslateInterval) * time.Millisecond
	}
	if p.BatchSize != nil {
		out.BatchSize = *p.BatchSize
	}
	if p.WorkerCount != nil {
		out.WorkerCount = *p.WorkerCount
	}
	if p.EmbeddingDimensions != nil {
		out.EmbeddingDimensions = *p.EmbeddingDimensions
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the values a run cannot recover from.
func (c Config) Validate() error {
	if c.FileOutMode != ModeFile && c.FileOutMode != ModeUnified {
		return fmt.Errorf("%w: fileOutMode %q must be %q or %q", ErrInvalidConfig, c.FileOutMode, ModeFile, ModeUnified)
	}
	if c.Provider != ProviderBaidu && c.Provider != ProviderGemini {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	if c.BatchSize < 0 || c.WorkerCount < 0 {
		return fmt.Errorf("%w: batchSize and workerCount must not be negative", ErrInvalidConfig)
	}
	_, err := c.Locales()
	return err
}

// Language is one configured target: the provider code and the locale file
// name (relative to LocalesPath, without extension).
type Language struct {
	LangType       string
	LocaleFileName string
}

// Locales parses Languages. Entries are "code" or "code:file"; LocalesPrefix
// nests every file one level deeper as "file/prefix".
func (c Config) Locales() ([]Language, error) {
	out := make([]Language, 0, len(c.Languages))
	for _, raw := range c.Languages {
		langType, fileName, _ := strings.Cut(strings.TrimSpace(raw), ":")
		if !translation.IsSupported(langType) {
			return nil, fmt.Errorf("%w: %q is not supported by the translation provider", ErrUnsupportedLanguage, langType)
		}
		if fileName == "" {
			fileName = langType
		}
		if c.LocalesPrefix != "" {
			fileName = fileName + "/" + c.LocalesPrefix
		}
		out = append(out, Language{LangType: langType, LocaleFileName: fileName})
	}
	return out, nil
}

// DefaultLocale returns the configured language matching DefaultLanguage.
func (c Config) DefaultLocale() (Language, bool, error) {
	langs, err := c.Locales()
	if err != nil {
		return Language{}, false, err
	}
	for _, l := range langs {
		if l.LangType == c.DefaultLanguage {
			return l, true, nil
		}
	}
	return Language{}, false, nil
}
