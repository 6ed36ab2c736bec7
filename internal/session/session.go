// Package session tracks the ambient state of one extraction pass: which
// file is being scanned, what kind of file it is, and the term bank the pass
// feeds.
package session

import (
	"path/filepath"
	"strings"
	"sync"

	"alad-i18n/internal/termbank"
)

// FileKind selects how a collaborator rewrites literals in a file.
type FileKind string

const (
	KindVue     FileKind = "vue"
	KindJS      FileKind = "js"
	KindJSX     FileKind = "jsx"
	KindTS      FileKind = "ts"
	KindTSX     FileKind = "tsx"
	KindUnknown FileKind = ""
)

// DefaultFileName is the output name used before any file was scanned.
const DefaultFileName = "lang"

// KindOf derives the file kind from a path's extension.
func KindOf(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vue":
		return KindVue
	case ".js", ".mjs", ".cjs":
		return KindJS
	case ".jsx":
		return KindJSX
	case ".ts", ".mts", ".cts":
		return KindTS
	case ".tsx":
		return KindTSX
	default:
		return KindUnknown
	}
}

// Context is a snapshot of the current source context.
type Context struct {
	Kind     FileKind
	Path     string
	FileName string
}

// Registry owns the bank for a pass and the current source context.
type Registry struct {
	bank *termbank.Bank

	mu  sync.RWMutex
	ctx Context
}

// New creates a registry around bank. A nil bank gets a fresh one.
func New(bank *termbank.Bank) *Registry {
	if bank == nil {
		bank = termbank.New()
	}
	return &Registry{bank: bank, ctx: Context{Kind: KindVue, FileName: DefaultFileName}}
}

// Bank returns the term bank of the pass.
func (r *Registry) Bank() *termbank.Bank { return r.bank }

// Reset starts a new pass: the bank is emptied and the source context dropped.
func (r *Registry) Reset() {
	r.bank.Reset()
	r.mu.Lock()
	r.ctx = Context{Kind: KindVue, FileName: DefaultFileName}
	r.mu.Unlock()
}

// SetSourceContext records the file currently being scanned.
func (r *Registry) SetSourceContext(kind FileKind, path string) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if path == "" || name == "" {
		name = DefaultFileName
	}
	r.mu.Lock()
	r.ctx = Context{Kind: kind, Path: path, FileName: name}
	r.mu.Unlock()
}

// Context returns the current source context.
func (r *Registry) Context() Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctx
}

// Enter records raw against the current source file.
func (r *Registry) Enter(raw string) termbank.Status {
	return r.bank.Enter(raw, r.Context().Path)
}
