package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"alad-i18n/internal/parser"

	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists file types handled by the tool.
var SupportedExtensions = map[string]bool{
	".vue": true,
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
}

// Walker traverses directories and dispatches files to the correct parser.
type Walker struct {
	parsers []parser.Parser
	exclude []string
}

// NewWalker creates a Walker with the Vue and script parsers. Paths under
// any of exclude (typically the output directory) are skipped.
func NewWalker(opts parser.Options, exclude ...string) *Walker {
	w := &Walker{
		parsers: []parser.Parser{
			parser.NewVueParser(opts),
			parser.NewScriptParser(opts),
		},
	}
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			w.exclude = append(w.exclude, abs)
		}
	}
	return w
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path   string
	Ext    string
	Parser parser.Parser
}

// Walk discovers all supported files under the given roots. A root may be a
// single file. Results are sorted by path.
func (w *Walker) Walk(roots ...string) ([]FileEntry, error) {
	var entries []FileEntry
	seen := make(map[string]bool)

	for _, root := range roots {
		root, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root path: %w", err)
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat root: %w", err)
		}
		if !info.IsDir() {
			if e, ok := w.entry(root); ok && !seen[root] {
				seen[root] = true
				entries = append(entries, e)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Error walking path")
				return nil
			}
			if w.excluded(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if e, ok := w.entry(path); ok && !seen[path] {
				seen[path] = true
				entries = append(entries, e)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk directory: %w", err)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	log.Info().Int("count", len(entries)).Strs("roots", roots).Msg("Discovered files")
	return entries, nil
}

func (w *Walker) entry(path string) (FileEntry, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !SupportedExtensions[ext] {
		return FileEntry{}, false
	}
	for _, p := range w.parsers {
		if p.CanParse(ext) {
			return FileEntry{Path: path, Ext: ext, Parser: p}, true
		}
	}
	return FileEntry{}, false
}

func (w *Walker) excluded(path string) bool {
	for _, e := range w.exclude {
		if path == e || strings.HasPrefix(path, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ParseFile parses a single file using the appropriate parser.
func (w *Walker) ParseFile(entry FileEntry) (*parser.ParseResult, error) {
	return entry.Parser.Parse(entry.Path)
}
