package parser

import (
	"strings"
	"unicode/utf8"

	"alad-i18n/internal/textutil"
)

// candidate is a literal found by the lexer, with offsets relative to the
// lexed source.
type candidate struct {
	text       string
	start, end int
	kind       string
}

// lexer walks JavaScript/TypeScript code, collecting string literals and
// template literal chunks. It also builds a mask of the source in which
// every string and comment byte is blanked, so later passes only see code.
type lexer struct {
	src   string
	mask  []byte
	opts  Options
	found []candidate
}

func lexScript(src string, opts Options) *lexer {
	l := &lexer{src: src, mask: []byte(src), opts: opts}
	l.run(0, false)
	return l
}

func (l *lexer) blank(from, to int) {
	for i := from; i < to && i < len(l.mask); i++ {
		if l.mask[i] != '\n' {
			l.mask[i] = ' '
		}
	}
}

// run lexes from i. With untilBrace it stops at the '}' closing a template
// substitution and returns its index.
func (l *lexer) run(i int, untilBrace bool) int {
	depth := 0
	src := l.src
	for i < len(src) {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			l.blank(i, i+end)
			i += end
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				l.blank(i, len(src))
				return len(src)
			}
			l.blank(i, i+2+end+2)
			i += 2 + end + 2
		case c == '/' && l.regexAllowed(i):
			i = l.skipRegex(i)
		case c == '\'' || c == '"':
			i = l.quoted(i)
		case c == '`':
			i = l.template(i)
		case c == '{':
			depth++
			i++
		case c == '}':
			if untilBrace && depth == 0 {
				return i
			}
			depth--
			i++
		default:
			i++
		}
	}
	return i
}

func (l *lexer) quoted(i int) int {
	q := l.src[i]
	j := i + 1
	for j < len(l.src) {
		switch l.src[j] {
		case '\\':
			j += 2
			continue
		case q:
			l.addLiteral(i, j+1)
			l.blank(i+1, j)
			return j + 1
		case '\n':
			// unterminated
			return j
		}
		j++
	}
	return j
}

func (l *lexer) addLiteral(start, end int) {
	inner := l.src[start+1 : end-1]
	if !textutil.ContainsChinese(inner) || l.opts.ignored(l.callee(start)) {
		return
	}
	l.found = append(l.found, candidate{text: unescape(inner), start: start, end: end, kind: KindLiteral})
}

func (l *lexer) template(i int) int {
	j := i + 1
	chunk := j
	for j < len(l.src) {
		switch {
		case l.src[j] == '\\':
			j += 2
		case l.src[j] == '`':
			l.addChunk(chunk, j)
			return j + 1
		case l.src[j] == '$' && j+1 < len(l.src) && l.src[j+1] == '{':
			l.addChunk(chunk, j)
			j = l.run(j+2, true) + 1
			chunk = j
		default:
			j++
		}
	}
	return j
}

func (l *lexer) addChunk(from, to int) {
	l.blank(from, to)
	raw := l.src[from:to]
	if !textutil.ContainsChinese(raw) {
		return
	}
	s, e := trimmedSpan(l.src, from, to)
	l.found = append(l.found, candidate{text: raw, start: s, end: e, kind: KindTemplate})
}

// callee returns the dotted name of the call whose argument list the
// literal at pos opens, or the import keyword for module specifiers.
func (l *lexer) callee(pos int) string {
	i := pos - 1
	for i >= 0 && isSpace(l.mask[i]) {
		i--
	}
	if i < 0 {
		return ""
	}
	if l.mask[i] != '(' {
		word := l.wordBefore(i + 1)
		if word == "from" || word == "import" {
			return "import"
		}
		return ""
	}
	i--
	for i >= 0 && isSpace(l.mask[i]) {
		i--
	}
	return l.wordBefore(i + 1)
}

func (l *lexer) wordBefore(end int) string {
	start := end
	for start > 0 {
		c := l.mask[start-1]
		if isIdent(c) || c == '.' {
			start--
			continue
		}
		break
	}
	return string(l.mask[start:end])
}

// regexAllowed guesses whether a '/' at i starts a regular expression.
func (l *lexer) regexAllowed(i int) bool {
	j := i - 1
	for j >= 0 && isSpace(l.mask[j]) {
		j--
	}
	if j < 0 {
		return true
	}
	return strings.IndexByte("(,=:[!&|?{};+-*%~^", l.mask[j]) >= 0
}

func (l *lexer) skipRegex(i int) int {
	j := i + 1
	inClass := false
	for j < len(l.src) {
		switch l.src[j] {
		case '\\':
			j += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				l.blank(i+1, j)
				return j + 1
			}
		case '\n':
			return j
		}
		j++
	}
	return j
}

// jsxText finds text children of JSX elements: code between a '>' and the
// next '<', outside braces.
func (l *lexer) jsxText() []candidate {
	var out []candidate
	m := l.mask
	for i := 0; i < len(m); i++ {
		if m[i] != '>' {
			continue
		}
		j := i + 1
		for j < len(m) && m[j] != '<' && m[j] != '>' {
			j++
		}
		if j >= len(m) || m[j] != '<' {
			continue
		}
		out = append(out, l.staticPieces(i+1, j)...)
		i = j - 1
	}
	return out
}

// staticPieces returns the Chinese text pieces of src[from:to] that lie
// outside {...} expressions.
func (l *lexer) staticPieces(from, to int) []candidate {
	var out []candidate
	depth := 0
	piece := from
	flush := func(end int) {
		raw := l.src[piece:end]
		if textutil.ContainsChinese(raw) {
			s, e := trimmedSpan(l.src, piece, end)
			out = append(out, candidate{text: raw, start: s, end: e, kind: KindJSXText})
		}
	}
	for k := from; k < to; k++ {
		switch l.mask[k] {
		case '{':
			if depth == 0 {
				flush(k)
			}
			depth++
		case '}':
			depth--
			if depth == 0 {
				piece = k + 1
			}
		}
	}
	if depth == 0 {
		flush(to)
	}
	return out
}

func trimmedSpan(src string, from, to int) (int, int) {
	for from < to {
		r, size := utf8.DecodeRuneInString(src[from:to])
		if !isSpaceRune(r) {
			break
		}
		from += size
	}
	for to > from {
		r, size := utf8.DecodeLastRuneInString(src[from:to])
		if !isSpaceRune(r) {
			break
		}
		to -= size
	}
	return from, to
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　' || r == ' '
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isIdent(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

var escapes = strings.NewReplacer(`\\`, `\`, `\'`, `'`, `\"`, `"`, `\n`, "\n", `\t`, "\t", "\\`", "`")

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapes.Replace(s)
}
