package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScriptParser handles JavaScript and TypeScript sources, including JSX.
type ScriptParser struct {
	opts Options
}

// NewScriptParser creates a parser for .js, .jsx, .ts and .tsx files.
func NewScriptParser(opts Options) *ScriptParser {
	return &ScriptParser{opts: opts}
}

func (p *ScriptParser) CanParse(ext string) bool {
	switch strings.ToLower(ext) {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		return true
	}
	return false
}

func (p *ScriptParser) Parse(filePath string) (*ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	result := &ParseResult{
		FilePath: filePath,
		FileType: strings.TrimPrefix(ext, "."),
		Content:  content,
	}

	src := string(content)
	l := lexScript(src, p.opts)
	found := l.found
	if ext == ".jsx" || ext == ".tsx" {
		for i, c := range found {
			if c.kind == KindLiteral && c.start > 1 && src[c.start-1] == '=' && isIdent(src[c.start-2]) {
				found[i].kind = KindJSXAttr
			}
		}
		found = append(found, l.jsxText()...)
	}
	result.Texts = toTexts(filePath, 0, found, nil)
	sortTexts(result.Texts)
	assignLines(content, result.Texts)
	return result, nil
}

func (p *ScriptParser) Reconstruct(result *ParseResult, keys map[string]string) ([]byte, error) {
	return splice(result, keys, p.opts, false), nil
}

func toTexts(file string, base int, found []candidate, ctx map[string]string) []ExtractedText {
	texts := make([]ExtractedText, 0, len(found))
	for _, c := range found {
		texts = append(texts, ExtractedText{
			Text:    c.text,
			File:    file,
			Start:   base + c.start,
			End:     base + c.end,
			Kind:    c.kind,
			Context: ctx,
		})
	}
	return texts
}

func sortTexts(texts []ExtractedText) {
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].Start < texts[j].Start })
}

// assignLines fills Line for texts from their offsets into content.
func assignLines(content []byte, texts []ExtractedText) {
	line, pos := 1, 0
	for i := range texts {
		for pos < texts[i].Start && pos < len(content) {
			if content[pos] == '\n' {
				line++
			}
			pos++
		}
		texts[i].Line = line
	}
}

// splice replaces every keyed text, last first so earlier offsets stay valid.
func splice(result *ParseResult, keys map[string]string, opts Options, vue bool) []byte {
	out := append([]byte(nil), result.Content...)
	texts := append([]ExtractedText(nil), result.Texts...)
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].Start > texts[j].Start })
	for _, t := range texts {
		key, ok := keys[t.Text]
		if !ok || key == "" {
			continue
		}
		repl := replacement(t, key, opts, vue)
		out = append(out[:t.Start], append([]byte(repl), out[t.End:]...)...)
	}
	return out
}

func replacement(t ExtractedText, key string, opts Options, vue bool) string {
	call := fmt.Sprintf("%s('%s')", opts.method(), key)
	inScript := vue && t.Context["block"] == "script"
	if inScript && opts.OptionsAPI {
		call = "this." + call
	}
	switch t.Kind {
	case KindTemplate:
		return "${" + call + "}"
	case KindJSXText, KindJSXAttr:
		return "{" + call + "}"
	case KindVueText:
		return "{{ " + call + " }}"
	case KindVueAttr:
		return fmt.Sprintf(":%s=\"%s\"", t.Context["attr"], call)
	default:
		return call
	}
}
