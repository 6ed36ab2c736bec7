// Package termbank holds the canonical set of extracted literals for one
// extraction pass. Every literal is normalized, deduplicated by its trimmed
// text and given a stable key that is reused across files and across runs
// once the previous output has been merged back in.
package termbank

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// State reports what Enter did with a literal.
type State int

const (
	// StateEmpty means the literal was rejected and no reference should be
	// generated for it.
	StateEmpty State = iota
	// StateSuccess means the literal is in the bank under Status.Key.
	StateSuccess
)

func (s State) String() string {
	if s == StateSuccess {
		return "success"
	}
	return "empty"
}

// Status is the result of Enter.
type Status struct {
	State State
	Key   string
	Text  string
}

// Entry is one canonical key/text pair and the files it was seen in.
type Entry struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	SourceFiles []string `json:"sourceFiles"`
}

func (e *Entry) clone() Entry {
	return Entry{Key: e.Key, Text: e.Text, SourceFiles: slices.Clone(e.SourceFiles)}
}

func (e *Entry) addSource(file string) {
	if file == "" || slices.Contains(e.SourceFiles, file) {
		return
	}
	e.SourceFiles = append(e.SourceFiles, file)
}

// Option configures a Bank.
type Option func(*Bank)

// WithKeyGenerator replaces the default random key source.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(b *Bank) { b.keys = g }
}

// Bank is the in-memory term bank. The ordered list drives export order, the
// two maps give constant time lookups; all three change together under mu.
type Bank struct {
	mu     sync.Mutex
	list   []*Entry
	byText map[string]*Entry
	byKey  map[string]*Entry
	keys   KeyGenerator
}

// New returns an empty bank.
func New(opts ...Option) *Bank {
	b := &Bank{
		byText: make(map[string]*Entry),
		byKey:  make(map[string]*Entry),
		keys:   RandomKeys{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Enter records a literal seen in sourceFile (which may be empty).
// Rejected literals return StateEmpty with empty key and text. A literal whose
// trimmed text is already known keeps the existing key and only gains the new
// source file; otherwise a fresh key is allocated.
func (b *Bank) Enter(raw, sourceFile string) Status {
	c, ok := Normalize(raw)
	if !ok {
		return Status{State: StateEmpty}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if e, hit := b.byText[c.Text]; hit {
		e.addSource(sourceFile)
		return Status{State: StateSuccess, Key: e.Key, Text: e.Text}
	}

	e := &Entry{Key: b.freshKey(), Text: c.Text, SourceFiles: []string{}}
	e.addSource(sourceFile)
	b.insert(e)
	return Status{State: StateSuccess, Key: e.Key, Text: e.Text}
}

// maxKeyAttempts bounds freshKey. A generator that cannot produce an unused
// key within this many draws is broken.
const maxKeyAttempts = 64

// freshKey draws keys until one is unused. Callers hold mu.
func (b *Bank) freshKey() string {
	for range maxKeyAttempts {
		k := b.keys.NewKey()
		if _, taken := b.byKey[k]; !taken && k != "" {
			return k
		}
	}
	panic(fmt.Sprintf("termbank: key generator returned no unused key in %d attempts", maxKeyAttempts))
}

func (b *Bank) insert(e *Entry) {
	b.list = append(b.list, e)
	b.byKey[e.Key] = e
	if _, ok := b.byText[e.Text]; !ok {
		b.byText[e.Text] = e
	}
}

// Merge discards the current contents and loads a persisted key to text
// mapping. Loaded entries carry no source files. Calling Merge with an empty
// or nil mapping still clears the bank.
func (b *Bank) Merge(persisted map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reset()
	keys := make([]string, 0, len(persisted))
	for k := range persisted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.insert(&Entry{Key: k, Text: persisted[k], SourceFiles: []string{}})
	}
}

// Reset empties the bank.
func (b *Bank) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *Bank) reset() {
	b.list = nil
	b.byText = make(map[string]*Entry)
	b.byKey = make(map[string]*Entry)
}

// Delete removes the entry with the given key.
func (b *Bank) Delete(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.byKey[key]
	if !ok {
		return false
	}
	delete(b.byKey, key)
	if b.byText[e.Text] == e {
		delete(b.byText, e.Text)
		// A merged file may carry the same text twice; hand the text to the
		// next entry holding it.
		for _, other := range b.list {
			if other != e && other.Text == e.Text {
				b.byText[e.Text] = other
				break
			}
		}
	}
	b.list = slices.DeleteFunc(b.list, func(x *Entry) bool { return x == e })
	return true
}

// Len returns the number of entries.
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.list)
}

// Lookup finds the entry owning text (after trimming).
func (b *Bank) Lookup(text string) (Entry, bool) {
	c, ok := Normalize(text)
	if !ok {
		return Entry{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.byText[c.Text]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Get finds the entry with the given key.
func (b *Bank) Get(key string) (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Entries returns copies of all entries in insertion order.
func (b *Bank) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0, len(b.list))
	for _, e := range b.list {
		out = append(out, e.clone())
	}
	return out
}

// EntriesFor returns the entries attributed to sourceFile.
func (b *Bank) EntriesFor(sourceFile string) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Entry
	for _, e := range b.list {
		if slices.Contains(e.SourceFiles, sourceFile) {
			out = append(out, e.clone())
		}
	}
	return out
}

// JSON returns the key to text view written to locale files.
func (b *Bank) JSON() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.list))
	for _, e := range b.list {
		out[e.Key] = e.Text
	}
	return out
}

// MarshalJSON encodes the bank as its key to text view.
func (b *Bank) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.JSON())
}
