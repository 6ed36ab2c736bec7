package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"alad-i18n/internal/config"

	"github.com/stretchr/testify/require"
)

func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "NEO4J_URI", "BAIDU_APP_ID", "BAIDU_APP_TOKEN", "GEMINI_API_KEY", "TRANSLATION_PROVIDER", "EMBEDDING_API_KEY"} {
		t.Setenv(key, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLanguagesCommand(t *testing.T) {
	out, err := run(t, "languages")
	require.NoError(t, err)
	require.Contains(t, out, "zh")
	require.Contains(t, out, "en")
	require.Contains(t, out, "English")
}

func TestExtractCommandPrintsWords(t *testing.T) {
	clearServiceEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("const a = '你好'\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alad-i18n.config.json"), []byte(`{"outExtractFile": true}`), 0o644))

	out, err := run(t, "extract", "--project", root, "--print")
	require.NoError(t, err)

	var words []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	start := strings.Index(out, "[")
	require.GreaterOrEqual(t, start, 0)
	require.NoError(t, json.NewDecoder(strings.NewReader(out[start:])).Decode(&words))
	require.Len(t, words, 1)
	require.Equal(t, "你好", words[0].Value)
	require.Len(t, words[0].Key, 16)
	require.FileExists(t, filepath.Join(root, "alad-i18n-out", "lang.json"))
}

func TestExtractCommandNothingFound(t *testing.T) {
	clearServiceEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("const a = 'hi'\n"), 0o644))

	_, err := run(t, "extract", "--project", root)
	require.Error(t, err)
}

func TestTranslateCommandWithoutLocalesPath(t *testing.T) {
	clearServiceEnv(t)
	_, err := run(t, "translate", "--project", t.TempDir())
	require.Error(t, err)
}

func TestGlossaryImportRejectsBadTerms(t *testing.T) {
	clearServiceEnv(t)
	file := filepath.Join(t.TempDir(), "terms.yaml")
	require.NoError(t, os.WriteFile(file, []byte("- chinese: 按钮\n  lang: xx\n  translation: Button\n"), 0o644))

	_, err := run(t, "glossary", "import", file)
	require.ErrorContains(t, err, "invalid glossary term")
}

func TestGlossaryImportNeedsNeo4j(t *testing.T) {
	clearServiceEnv(t)
	file := filepath.Join(t.TempDir(), "terms.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"chinese": "按钮", "lang": "en", "translation": "Button"}]`), 0o644))

	_, err := run(t, "glossary", "import", "--project", t.TempDir(), file)
	require.ErrorContains(t, err, "NEO4J_URI")
}

func TestGlossaryImportValidatesConfig(t *testing.T) {
	clearServiceEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "alad-i18n.config.json"), []byte(`{"fileOutMode": "both"}`), 0o644))
	file := filepath.Join(t.TempDir(), "terms.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"chinese": "按钮", "lang": "en", "translation": "Button"}]`), 0o644))

	_, err := run(t, "glossary", "import", "--project", root, file)
	require.ErrorContains(t, err, "alad-i18n.config.json")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSeedCommandNeedsBackingService(t *testing.T) {
	clearServiceEnv(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "locales"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "locales", "zh-CN.json"), []byte(`{"a": "保存"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "locales", "en-US.json"), []byte(`{"a": "Save"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alad-i18n.config.json"), []byte(`{"localesPath": "locales"}`), 0o644))

	_, err := run(t, "seed", "--project", root)
	require.ErrorContains(t, err, "DATABASE_URL or NEO4J_URI")
}
