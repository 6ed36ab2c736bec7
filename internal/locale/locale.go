// Package locale reads and writes locale files: flat JSON objects mapping a
// key to its text in one language.
package locale

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"

	"alad-i18n/internal/notify"
)

// ErrInvalidLocale marks a locale file that is not a flat JSON string map.
var ErrInvalidLocale = errors.New("invalid locale file")

const (
	permFile = 0o644
	permDir  = 0o755
)

// Store reads and writes locale files below a root directory.
type Store struct {
	root   string
	notify notify.Notifier
}

// NewStore creates a store rooted at root. n receives user-facing warnings.
func NewStore(root string, n notify.Notifier) *Store {
	if n == nil {
		n = notify.Log{}
	}
	return &Store{root: root, notify: n}
}

// Root returns the directory locale file names are resolved against.
func (s *Store) Root() string { return s.root }

// Path returns the JSON file for a locale file name such as "en-US" or
// "en-US/locale".
func (s *Store) Path(fileName string) string {
	return filepath.Join(s.root, filepath.FromSlash(fileName)+".json")
}

// Read loads path. A missing file is an empty mapping. A file that does not
// parse is reported, treated as empty and returned together with an error
// wrapping ErrInvalidLocale, so callers may carry on with the empty map.
func (s *Store) Read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return map[string]string{}, fmt.Errorf("read locale %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}

	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		s.notify.Notify(notify.Error, fmt.Sprintf("解析 JSON 文件 %s 时出错，请检查文件格式是否正确。", path))
		return map[string]string{}, fmt.Errorf("%w: %s: %v", ErrInvalidLocale, path, err)
	}
	return m, nil
}

// ReadInverted loads path as text → key. Used for the default language,
// where the source text is the natural lookup key. When several keys carry
// the same text the first one in key order wins, matching the term bank's
// merge.
func (s *Store) ReadInverted(path string) (map[string]string, error) {
	m, err := s.Read(path)
	return Invert(m), err
}

// Invert maps every value of m back to its first key in key order.
func Invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for _, k := range sortedKeys(m) {
		if _, ok := out[m[k]]; !ok {
			out[m[k]] = k
		}
	}
	return out
}

// Write replaces path with m, two-space indented, creating parent
// directories on demand. The file is written to a temporary sibling and
// renamed into place.
func (s *Store) Write(path string, m map[string]string) error {
	if m == nil {
		m = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode locale: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, permDir); err != nil {
		return fmt.Errorf("create locale dir: %w", err)
	}
	return writeAtomic(dir, path, buf.Bytes())
}

// Ensure creates path as an empty object when it does not exist yet,
// warning the user about every directory or file it had to create.
func (s *Store) Ensure(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, permDir); err != nil {
			s.notify.Notify(notify.Error, fmt.Sprintf("创建语言目录 %s 失败：%v", dir, err))
			return fmt.Errorf("create locale dir: %w", err)
		}
		s.notify.Notify(notify.Warn, fmt.Sprintf("语言目录 %s 不存在，已为您自动生成。", dir))
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("{}"), permFile); err != nil {
			s.notify.Notify(notify.Error, fmt.Sprintf("创建文件 %s 失败：%v", path, err))
			return fmt.Errorf("create locale file: %w", err)
		}
		s.notify.Notify(notify.Warn, fmt.Sprintf("%s 文件不存在，已为您自动生成。", filepath.Base(path)))
	}
	return nil
}

// MergeInto adds pairs to the file at path, keeping every key already there
// unless pairs overrides it. An unreadable file is replaced.
func (s *Store) MergeInto(path string, pairs map[string]string) error {
	current, err := s.Read(path)
	if err != nil && !errors.Is(err, ErrInvalidLocale) {
		return err
	}
	maps.Copy(current, pairs)
	if err := s.Write(path, current); err != nil {
		s.notify.Notify(notify.Error, fmt.Sprintf("写入文件 %s 失败：%v", path, err))
		return err
	}
	return nil
}

func writeAtomic(dir, dest string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, permFile)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
