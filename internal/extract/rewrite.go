package extract

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"alad-i18n/internal/notify"
	"alad-i18n/internal/parser"

	"github.com/rs/zerolog/log"
)

var scriptOpenRegex = regexp.MustCompile(`<script\b[^>]*>\n?`)

// Rewrite replaces the literals of every scanned file with calls to the
// locale method. remap, usually Result.Remap, substitutes keys first. The
// configured import line is added to files that were changed and lack it.
// It returns the paths it rewrote.
func (e *Extractor) Rewrite(scanned []Scanned, remap map[string]string) ([]string, error) {
	var written []string
	for _, s := range scanned {
		if len(s.Keys) == 0 {
			continue
		}
		keys := make(map[string]string, len(s.Keys))
		for text, key := range s.Keys {
			if to, ok := remap[key]; ok {
				key = to
			}
			keys[text] = key
		}

		p := e.parserFor(s.Result)
		out, err := p.Reconstruct(s.Result, keys)
		if err != nil {
			return written, fmt.Errorf("reconstruct %s: %w", s.Result.FilePath, err)
		}
		if bytes.Equal(out, s.Result.Content) {
			continue
		}
		out = e.addImport(s.Result.FileType, out)

		info, err := os.Stat(s.Result.FilePath)
		if err != nil {
			return written, fmt.Errorf("stat %s: %w", s.Result.FilePath, err)
		}
		if err := os.WriteFile(s.Result.FilePath, out, info.Mode().Perm()); err != nil {
			e.notify.Notify(notify.Error, fmt.Sprintf("写入文件 %s 失败：%v", s.Result.FilePath, err))
			return written, fmt.Errorf("write %s: %w", s.Result.FilePath, err)
		}
		log.Info().Str("file", s.Result.FilePath).Int("literals", len(keys)).Msg("Rewrote source file")
		written = append(written, s.Result.FilePath)
	}
	return written, nil
}

func (e *Extractor) parserFor(res *parser.ParseResult) parser.Parser {
	opts := parser.Options{Method: e.cfg.LocalesMethodName, OptionsAPI: !e.cfg.Vue3I18n}
	if res.FileType == "vue" {
		return parser.NewVueParser(opts)
	}
	return parser.NewScriptParser(opts)
}

// addImport inserts ImportCode at the top of a script, or right after the
// opening <script> tag of a Vue component. Options API components reach the
// method through this and need no import.
func (e *Extractor) addImport(fileType string, src []byte) []byte {
	code := e.cfg.ImportCode
	if strings.TrimSpace(code) == "" || bytes.Contains(src, []byte(strings.TrimSpace(code))) {
		return src
	}
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	if fileType != "vue" {
		return append([]byte(code), src...)
	}
	if !e.cfg.Vue3I18n {
		return src
	}
	loc := scriptOpenRegex.FindIndex(src)
	if loc == nil {
		return src
	}
	out := make([]byte, 0, len(src)+len(code))
	out = append(out, src[:loc[1]]...)
	out = append(out, code...)
	return append(out, src[loc[1]:]...)
}
