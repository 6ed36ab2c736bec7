package parser

// Kinds of extracted text; each one is rewritten differently.
const (
	KindLiteral  = "literal"  // quoted string in script code
	KindTemplate = "template" // static part of a template literal
	KindJSXText  = "jsxtext"  // text child of a JSX element
	KindJSXAttr  = "jsxattr"  // quoted JSX attribute value
	KindVueText  = "vuetext"  // text node in a Vue template
	KindVueAttr  = "vueattr"  // static attribute in a Vue template
)

// ExtractedText represents a Chinese literal found in a source file.
type ExtractedText struct {
	// Text is the literal as the program sees it (escapes resolved).
	Text string
	// File is the source file path.
	File string
	// Line is the 1-based line number of the literal's first byte.
	Line int
	// Start and End delimit the bytes a rewrite replaces.
	Start, End int
	// Kind tells how the literal is embedded.
	Kind string
	// Context holds additional context (attribute name, enclosing block, etc.)
	Context map[string]string
}

// ParseResult holds parsing output for a single file.
type ParseResult struct {
	// FilePath is the absolute path to the parsed file.
	FilePath string
	// FileType is the detected type (vue, js, jsx, ts, tsx).
	FileType string
	// Texts are the extracted literals in source order.
	Texts []ExtractedText
	// Content preserves the original file content for reconstruction.
	Content []byte
}

// Parser is the interface for all source file parsers.
type Parser interface {
	// CanParse returns true if this parser handles the given file extension.
	CanParse(ext string) bool
	// Parse extracts Chinese literals from a file.
	Parse(filePath string) (*ParseResult, error)
	// Reconstruct rebuilds the file with every literal whose text has a key
	// replaced by a call to the locale method.
	Reconstruct(result *ParseResult, keys map[string]string) ([]byte, error)
}

// Options shared by the parsers.
type Options struct {
	// Method is the translate function literals are rewritten to, e.g. "$t".
	Method string
	// OptionsAPI rewrites Vue script literals to this.<Method>(...).
	OptionsAPI bool
	// Ignore lists extra call names whose string arguments are never extracted.
	Ignore []string
}

func (o Options) method() string {
	if o.Method == "" {
		return "$t"
	}
	return o.Method
}

// ignored reports whether string arguments of a call to name are skipped.
func (o Options) ignored(name string) bool {
	if name == "" {
		return false
	}
	last := name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			last = name[i+1:]
			break
		}
	}
	switch {
	case last == o.method(), last == "t", last == "$t", last == "tc", last == "$tc",
		name == "require", name == "import", len(name) > 8 && name[:8] == "console.":
		return true
	}
	for _, ig := range o.Ignore {
		if ig == name || ig == last {
			return true
		}
	}
	return false
}
