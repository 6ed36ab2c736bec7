package locale

import (
	"os"
	"path/filepath"
	"testing"

	"alad-i18n/internal/notify"

	"github.com/stretchr/testify/require"
)

func TestReadMissingIsEmpty(t *testing.T) {
	s := NewStore(t.TempDir(), &notify.Recorder{})
	m, err := s.Read(s.Path("en-US"))
	require.NoError(t, err)
	require.Empty(t, m)
}

func TestReadInvalidIsEmptyWithWarning(t *testing.T) {
	rec := &notify.Recorder{}
	s := NewStore(t.TempDir(), rec)
	path := s.Path("zh-CN")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": `), 0o644))

	m, err := s.Read(path)
	require.ErrorIs(t, err, ErrInvalidLocale)
	require.Empty(t, m)
	require.Equal(t, 1, rec.Count(notify.Error))
}

func TestWriteFormatting(t *testing.T) {
	s := NewStore(t.TempDir(), &notify.Recorder{})
	path := s.Path("zh-CN/locale")

	require.NoError(t, s.Write(path, map[string]string{"b": "提交", "a": "<b>按钮</b>"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"a\": \"<b>按钮</b>\",\n  \"b\": \"提交\"\n}\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReadInverted(t *testing.T) {
	s := NewStore(t.TempDir(), &notify.Recorder{})
	path := s.Path("zh")
	require.NoError(t, s.Write(path, map[string]string{"k1": "你好", "k2": "提交"}))

	inv, err := s.ReadInverted(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"你好": "k1", "提交": "k2"}, inv)
}

func TestReadInvertedDuplicateTextKeepsFirstKey(t *testing.T) {
	s := NewStore(t.TempDir(), &notify.Recorder{})
	path := s.Path("zh")
	require.NoError(t, s.Write(path, map[string]string{"b": "按钮", "a": "按钮", "c": "按钮"}))

	inv, err := s.ReadInverted(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"按钮": "a"}, inv)
}

func TestEnsureCreatesAndWarns(t *testing.T) {
	rec := &notify.Recorder{}
	s := NewStore(t.TempDir(), rec)
	path := s.Path("en-US/locale")

	require.NoError(t, s.Ensure(path))
	require.Equal(t, 2, rec.Count(notify.Warn))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))

	require.NoError(t, s.Ensure(path))
	require.Equal(t, 2, rec.Count(notify.Warn))
}

func TestMergeInto(t *testing.T) {
	s := NewStore(t.TempDir(), &notify.Recorder{})
	path := s.Path("en")
	require.NoError(t, s.Write(path, map[string]string{"k1": "Hello"}))

	require.NoError(t, s.MergeInto(path, map[string]string{"k2": "Submit"}))
	m, err := s.Read(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k1": "Hello", "k2": "Submit"}, m)
}

func TestMergeIntoReplacesInvalidFile(t *testing.T) {
	s := NewStore(t.TempDir(), &notify.Recorder{})
	path := s.Path("en")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	require.NoError(t, s.MergeInto(path, map[string]string{"k2": "Submit"}))
	m, err := s.Read(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k2": "Submit"}, m)
}
