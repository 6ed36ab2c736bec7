package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"alad-i18n/internal/parser"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("const a = '你好'\n"), 0o644))
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "src", "b.vue"))
	touch(t, filepath.Join(root, "src", "a.ts"))
	touch(t, filepath.Join(root, "src", "readme.md"))
	touch(t, filepath.Join(root, "node_modules", "x", "index.js"))
	touch(t, filepath.Join(root, "out", "lang.js"))

	w := NewWalker(parser.Options{}, filepath.Join(root, "out"))
	entries, err := w.Walk(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, filepath.Join(root, "src", "a.ts"), entries[0].Path)
	require.Equal(t, ".ts", entries[0].Ext)
	require.IsType(t, &parser.ScriptParser{}, entries[0].Parser)
	require.IsType(t, &parser.VueParser{}, entries[1].Parser)
}

func TestWalkSingleFileAndDedup(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.jsx")
	touch(t, file)

	entries, err := NewWalker(parser.Options{}).Walk(file, root)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	result, err := NewWalker(parser.Options{}).ParseFile(entries[0])
	require.NoError(t, err)
	require.Len(t, result.Texts, 1)
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := NewWalker(parser.Options{}).Walk(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
