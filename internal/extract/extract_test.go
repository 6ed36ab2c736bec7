package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"alad-i18n/internal/config"
	"alad-i18n/internal/notify"
	"alad-i18n/internal/termbank"
	"alad-i18n/internal/translation"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readJSON(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	m := map[string]string{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// project lays out the scenario a.ts: 按钮, 提交; b.ts: 按钮.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"), "const a = '按钮'\nconst b = '提交'\n")
	writeFile(t, filepath.Join(root, "src", "b.ts"), "const c = '按钮'\n")
	return root
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.TranslateInterval = 0
	cfg.WorkerCount = 2
	return cfg
}

func sequentialBank() *termbank.Bank {
	n := 0
	return termbank.New(termbank.WithKeyGenerator(termbank.KeyFunc(func() string {
		n++
		return fmt.Sprintf("k%d", n)
	})))
}

func newExtractor(t *testing.T, root string, cfg config.Config, opts ...Option) (*Extractor, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	opts = append([]Option{WithNotifier(rec), WithBank(sequentialBank())}, opts...)
	e, err := New(root, cfg, opts...)
	require.NoError(t, err)
	return e, rec
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.FileOutMode = "both"
	_, err := New(t.TempDir(), cfg)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestMergeEntryPath(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig()
	e, _ := newExtractor(t, root, cfg)
	dir, file := e.MergeEntryPath()
	require.Equal(t, filepath.Join(root, "alad-i18n-out"), dir)
	require.Equal(t, filepath.Join(root, "alad-i18n-out", "lang.json"), file)

	cfg.I18nLang = "src/i18n"
	cfg.UnifiedFileName = "all"
	e, _ = newExtractor(t, root, cfg)
	dir, file = e.MergeEntryPath()
	require.Equal(t, filepath.Join(root, "src", "i18n"), dir)
	require.Equal(t, filepath.Join(root, "src", "i18n", "all.json"), file)
}

func TestRunUnified(t *testing.T) {
	root := project(t)
	cfg := testConfig()
	cfg.OutExtractFile = true
	e, rec := newExtractor(t, root, cfg)

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	require.Equal(t, "lang", passes[0].FileName)
	require.Equal(t, filepath.Join(root, "alad-i18n-out", "lang.json"), passes[0].Output)
	require.Equal(t, map[string]string{"k1": "按钮", "k2": "提交"}, readJSON(t, passes[0].Output))

	require.Equal(t, []Word{
		{Key: "k1", Value: "按钮", Langs: map[string]LangValue{}},
		{Key: "k2", Value: "提交", Langs: map[string]LangValue{}},
	}, passes[0].Words)
	require.Len(t, e.WordsFor(filepath.Join(root, "src", "a.ts")), 2)
	require.Len(t, e.WordsFor(filepath.Join(root, "src", "b.ts")), 1)
	require.Equal(t, 1, rec.Count(notify.Success))

	require.Len(t, passes[0].Scanned, 2)
	require.Equal(t, map[string]string{"按钮": "k1", "提交": "k2"}, passes[0].Scanned[0].Keys)
	require.Equal(t, map[string]string{"按钮": "k1"}, passes[0].Scanned[1].Keys)
}

func TestRunUnifiedKeepsExistingKeys(t *testing.T) {
	root := project(t)
	writeFile(t, filepath.Join(root, "alad-i18n-out", "lang.json"), `{"old1": "按钮", "gone": "旧的"}`)
	cfg := testConfig()
	cfg.OutExtractFile = true
	e, _ := newExtractor(t, root, cfg)

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"old1": "按钮", "gone": "旧的", "k1": "提交"}, readJSON(t, passes[0].Output))
}

func TestRunFileMode(t *testing.T) {
	root := project(t)
	writeFile(t, filepath.Join(root, "src", "c.ts"), "const c = 'english only'\n")
	cfg := testConfig()
	cfg.OutExtractFile = true
	cfg.FileOutMode = config.ModeFile
	e, _ := newExtractor(t, root, cfg)

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	require.Equal(t, "a", passes[0].FileName)
	require.Equal(t, "b", passes[1].FileName)

	out := filepath.Join(root, "alad-i18n-out")
	require.Equal(t, map[string]string{"k1": "按钮", "k2": "提交"}, readJSON(t, filepath.Join(out, "a.json")))
	require.Equal(t, map[string]string{"k3": "按钮"}, readJSON(t, filepath.Join(out, "b.json")))
	require.NoFileExists(t, filepath.Join(out, "c.json"))
}

func TestRunNothingExtracted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.js"), "const a = 'hello'\n")
	cfg := testConfig()
	cfg.OutExtractFile = true
	e, rec := newExtractor(t, root, cfg)

	_, err := e.Run(context.Background(), root)
	require.ErrorIs(t, err, ErrNothingExtracted)
	require.Equal(t, 1, rec.Count(notify.Error))
	require.NoDirExists(t, filepath.Join(root, "alad-i18n-out"))
}

func TestRunReviewOnly(t *testing.T) {
	root := project(t)
	e, _ := newExtractor(t, root, testConfig())

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	require.Empty(t, passes[0].Output)
	require.Len(t, passes[0].Words, 2)
	require.NoDirExists(t, filepath.Join(root, "alad-i18n-out"))
}

func TestRunCancelled(t *testing.T) {
	root := project(t)
	e, _ := newExtractor(t, root, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}

type fakeProvider struct {
	mu    sync.Mutex
	calls map[string][][]string
	fail  map[string]bool
}

func (f *fakeProvider) Translate(_ context.Context, texts []string, lang string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string][][]string{}
	}
	f.calls[lang] = append(f.calls[lang], texts)
	if f.fail[lang] {
		return nil, errors.New("quota exceeded")
	}
	out := make(map[string]string, len(texts))
	for _, text := range texts {
		out[text] = lang + ":" + text
	}
	return out, nil
}

var _ translation.Provider = (*fakeProvider)(nil)

func localesProject(t *testing.T) string {
	t.Helper()
	root := project(t)
	writeFile(t, filepath.Join(root, "locales", "zh-CN.json"), `{"exist1": "按钮"}`)
	writeFile(t, filepath.Join(root, "locales", "en-US.json"), `{"exist1": "Button"}`)
	return root
}

func TestPrepareAndSave(t *testing.T) {
	root := localesProject(t)
	cfg := testConfig()
	cfg.LocalesPath = "locales"
	provider := &fakeProvider{}
	e, rec := newExtractor(t, root, cfg, WithProvider(provider))

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	words := passes[0].Words
	require.Equal(t, []string{"exist1", "k1"}, []string{words[0].Key, words[1].Key})

	res, err := e.Prepare(context.Background(), words)
	require.NoError(t, err)
	require.Empty(t, res.Failed)
	require.Empty(t, res.Remap)
	require.Equal(t, map[string]LangValue{
		"zh": {Exists: true, Value: "按钮"},
		"en": {Exists: true, Value: "Button"},
	}, res.Words[0].Langs)
	require.Equal(t, map[string]LangValue{
		"zh": {Value: "提交"},
		"en": {Value: "en:提交"},
	}, res.Words[1].Langs)
	require.Equal(t, [][]string{{"提交"}}, provider.calls["en"])
	require.Empty(t, words[1].Langs, "Prepare must not modify its input")

	require.NoError(t, e.Save(res))
	require.Equal(t, map[string]string{"exist1": "按钮", "k1": "提交"}, readJSON(t, filepath.Join(root, "locales", "zh-CN.json")))
	require.Equal(t, map[string]string{"exist1": "Button", "k1": "en:提交"}, readJSON(t, filepath.Join(root, "locales", "en-US.json")))
	require.Equal(t, 1, rec.Count(notify.Success))
}

func TestPrepareRemapKeepsApprovedTranslations(t *testing.T) {
	cases := map[string][]string{
		"default first":  {"zh:zh-CN", "en:en-US", "jp:ja-JP"},
		"default last":   {"en:en-US", "jp:ja-JP", "zh:zh-CN"},
		"default middle": {"en:en-US", "zh:zh-CN", "jp:ja-JP"},
	}
	for name, languages := range cases {
		t.Run(name, func(t *testing.T) {
			root := localesProject(t)
			writeFile(t, filepath.Join(root, "locales", "ja-JP.json"), `{"exist1": "ボタン"}`)
			cfg := testConfig()
			cfg.LocalesPath = "locales"
			cfg.Languages = languages
			provider := &fakeProvider{}
			e, _ := newExtractor(t, root, cfg, WithProvider(provider))

			words := []Word{{Key: "k9", Value: "按钮"}, {Key: "k10", Value: "提交"}}
			res, err := e.Prepare(context.Background(), words)
			require.NoError(t, err)
			require.Empty(t, res.Failed)
			require.Equal(t, map[string]string{"k9": "exist1"}, res.Remap)
			require.Equal(t, "exist1", res.Words[0].Key)
			require.Equal(t, LangValue{Exists: true, Value: "Button"}, res.Words[0].Langs["en"])
			require.Equal(t, LangValue{Exists: true, Value: "ボタン"}, res.Words[0].Langs["jp"])
			require.Equal(t, [][]string{{"提交"}}, provider.calls["en"])
			require.Equal(t, [][]string{{"提交"}}, provider.calls["jp"])

			require.NoError(t, e.Save(res))
			require.Equal(t, map[string]string{"exist1": "Button", "k10": "en:提交"}, readJSON(t, filepath.Join(root, "locales", "en-US.json")))
			require.Equal(t, map[string]string{"exist1": "ボタン", "k10": "jp:提交"}, readJSON(t, filepath.Join(root, "locales", "ja-JP.json")))
			require.Equal(t, map[string]string{"exist1": "按钮", "k10": "提交"}, readJSON(t, filepath.Join(root, "locales", "zh-CN.json")))
		})
	}
}

func TestPrepareDuplicateDefaultTextNeedsNoRemap(t *testing.T) {
	root := project(t)
	writeFile(t, filepath.Join(root, "locales", "zh-CN.json"), `{"dup2": "按钮", "dup1": "按钮"}`)
	writeFile(t, filepath.Join(root, "locales", "en-US.json"), `{"dup1": "Button", "dup2": "Button"}`)
	cfg := testConfig()
	cfg.LocalesPath = "locales"
	e, _ := newExtractor(t, root, cfg, WithProvider(&fakeProvider{}))

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, "dup1", passes[0].Scanned[0].Keys["按钮"])
	words := passes[0].Words
	require.Equal(t, []string{"dup1", "dup2", "k1"}, []string{words[0].Key, words[1].Key, words[2].Key})

	res, err := e.Prepare(context.Background(), words)
	require.NoError(t, err)
	require.Empty(t, res.Remap)
	require.Equal(t, LangValue{Exists: true, Value: "按钮"}, res.Words[1].Langs["zh"])
}

func TestPrepareBatchesCollapsedText(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig()
	cfg.LocalesPath = "locales"
	cfg.BatchSize = 2
	provider := &fakeProvider{}
	e, _ := newExtractor(t, root, cfg, WithProvider(provider))

	words := []Word{
		{Key: "a", Value: "一\n  二"},
		{Key: "b", Value: "三"},
		{Key: "c", Value: "四"},
		{Key: "d", Value: "一 二"},
	}
	res, err := e.Prepare(context.Background(), words)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"一 二", "三"}, {"四"}}, provider.calls["en"])
	require.Equal(t, "en:一 二", res.Words[0].Langs["en"].Value)
	require.Equal(t, "en:一 二", res.Words[3].Langs["en"].Value)
}

func TestPrepareAbandonsFailedLanguage(t *testing.T) {
	root := localesProject(t)
	cfg := testConfig()
	cfg.LocalesPath = "locales"
	cfg.Languages = []string{"zh:zh-CN", "jp:ja-JP", "en:en-US"}
	provider := &fakeProvider{fail: map[string]bool{"jp": true}}
	e, rec := newExtractor(t, root, cfg, WithProvider(provider))

	words := []Word{{Key: "k9", Value: "提交"}}
	res, err := e.Prepare(context.Background(), words)
	require.NoError(t, err)
	require.Contains(t, res.Failed, "jp")
	require.NotContains(t, res.Failed, "en")
	require.Equal(t, 1, rec.Count(notify.Error))

	require.NoError(t, e.Save(res))
	require.NoFileExists(t, filepath.Join(root, "locales", "ja-JP.json"))
	require.Equal(t, "en:提交", readJSON(t, filepath.Join(root, "locales", "en-US.json"))["k9"])
}

func TestPrepareWithoutProvider(t *testing.T) {
	root := localesProject(t)
	cfg := testConfig()
	cfg.LocalesPath = "locales"
	e, _ := newExtractor(t, root, cfg)

	res, err := e.Prepare(context.Background(), []Word{{Key: "k9", Value: "提交"}})
	require.NoError(t, err)
	require.ErrorIs(t, res.Failed["en"], ErrNoProvider)
}

func TestPrepareRequiresLocalesPath(t *testing.T) {
	e, rec := newExtractor(t, t.TempDir(), testConfig())
	_, err := e.Prepare(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoLocalesPath)
	require.Equal(t, 1, rec.Count(notify.Warn))
}

func TestSaveCreatesMissingLocaleFiles(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig()
	cfg.LocalesPath = "locales"
	e, rec := newExtractor(t, root, cfg, WithProvider(&fakeProvider{}))

	res, err := e.Prepare(context.Background(), []Word{{Key: "k1", Value: "提交"}, {Key: "k1", Value: "重复"}})
	require.NoError(t, err)
	require.NoError(t, e.Save(res))

	require.Equal(t, map[string]string{"k1": "提交"}, readJSON(t, filepath.Join(root, "locales", "zh-CN.json")))
	require.Equal(t, "en:提交", readJSON(t, filepath.Join(root, "locales", "en-US.json"))["k1"])
	// one directory and two files created
	require.Equal(t, 3, rec.Count(notify.Warn))
}

func TestLocaleWords(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locales", "zh-CN.json"), `{"b": "二", "a": "一"}`)
	cfg := testConfig()
	cfg.LocalesPath = "locales"
	e, _ := newExtractor(t, root, cfg)

	words, err := e.LocaleWords()
	require.NoError(t, err)
	require.Equal(t, []Word{
		{Key: "a", Value: "一", Langs: map[string]LangValue{}},
		{Key: "b", Value: "二", Langs: map[string]LangValue{}},
	}, words)
}

func TestRewriteUsesRemappedKeys(t *testing.T) {
	root := project(t)
	writeFile(t, filepath.Join(root, "locales", "zh-CN.json"), `{"old": "按钮"}`)
	cfg := testConfig()
	cfg.OutExtractFile = true
	cfg.LocalesPath = "locales"
	e, _ := newExtractor(t, root, cfg, WithProvider(&fakeProvider{}))

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	res, err := e.Prepare(context.Background(), passes[0].Words)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k1": "old"}, res.Remap)

	written, err := e.Rewrite(passes[0].Scanned, res.Remap)
	require.NoError(t, err)
	require.Len(t, written, 2)

	imp := "import { $t } from '#/locales';\n"
	require.Equal(t, imp+"const a = $t('old')\nconst b = $t('k2')\n", readString(t, filepath.Join(root, "src", "a.ts")))
	require.Equal(t, imp+"const c = $t('old')\n", readString(t, filepath.Join(root, "src", "b.ts")))
}

func TestRewriteVueImport(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Page.vue")
	writeFile(t, path, "<template>\n  <p>你好</p>\n</template>\n<script setup>\nconst a = '提交'\n</script>\n")
	cfg := testConfig()
	cfg.OutExtractFile = true
	e, _ := newExtractor(t, root, cfg)

	passes, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	_, err = e.Rewrite(passes[0].Scanned, nil)
	require.NoError(t, err)

	want := "<template>\n  <p>{{ $t('k1') }}</p>\n</template>\n<script setup>\n" +
		"import { $t } from '#/locales';\nconst a = $t('k2')\n</script>\n"
	require.Equal(t, want, readString(t, path))
}
