// Package extract drives a pass over a project: it scans source files for
// Chinese literals, registers them in the term bank and writes the result.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"alad-i18n/internal/config"
	"alad-i18n/internal/filewalker"
	"alad-i18n/internal/locale"
	"alad-i18n/internal/notify"
	"alad-i18n/internal/parser"
	"alad-i18n/internal/session"
	"alad-i18n/internal/termbank"
	"alad-i18n/internal/translation"
	"alad-i18n/internal/worker"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNothingExtracted is returned when a pass found no Chinese literal.
	ErrNothingExtracted = errors.New("nothing extracted")
	// ErrNoLocalesPath is returned by operations that need locale files when
	// none are configured.
	ErrNoLocalesPath = errors.New("localesPath is not configured")
	// ErrNoProvider is recorded for languages that need translating when no
	// provider is set.
	ErrNoProvider = errors.New("no translation provider configured")
)

// Extractor runs extraction passes for one project.
type Extractor struct {
	cfg      config.Config
	root     string
	session  *session.Registry
	locales  *locale.Store
	notify   notify.Notifier
	walker   *filewalker.Walker
	provider translation.Provider
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithNotifier sends user-facing messages to n instead of the log.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Extractor) { e.notify = n }
}

// WithProvider sets the provider used by Prepare.
func WithProvider(p translation.Provider) Option {
	return func(e *Extractor) { e.provider = p }
}

// WithBank uses bank for the session instead of a fresh one.
func WithBank(bank *termbank.Bank) Option {
	return func(e *Extractor) { e.session = session.New(bank) }
}

// New creates an Extractor for the project at root. cfg must be valid.
func New(root string, cfg config.Config, opts ...Option) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	e := &Extractor{cfg: cfg, root: abs, notify: notify.Log{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.session == nil {
		e.session = session.New(nil)
	}
	e.locales = locale.NewStore(filepath.Join(abs, cfg.LocalesPath), e.notify)

	fileOut, _ := e.MergeEntryPath()
	exclude := []string{filepath.Join(abs, cfg.OutFile), fileOut}
	if cfg.LocalesPath != "" {
		exclude = append(exclude, e.locales.Root())
	}
	e.walker = filewalker.NewWalker(parser.Options{
		Method:     cfg.LocalesMethodName,
		OptionsAPI: !cfg.Vue3I18n,
	}, exclude...)
	return e, nil
}

// Session returns the registry the extractor feeds.
func (e *Extractor) Session() *session.Registry { return e.session }

// Locales returns the locale store rooted at the configured localesPath.
func (e *Extractor) Locales() *locale.Store { return e.locales }

// MergeEntryPath returns the unified output directory and the unified
// output file inside it. I18nLang, when set, takes precedence over OutFile.
func (e *Extractor) MergeEntryPath() (fileOut, importDataURL string) {
	dir := e.cfg.OutFile
	if e.cfg.I18nLang != "" {
		dir = e.cfg.I18nLang
	}
	fileOut = filepath.Join(e.root, dir)
	return fileOut, filepath.Join(fileOut, e.cfg.UnifiedFileName+".json")
}

// Bootstrap seeds the bank with keys that already exist so repeated runs
// keep them: the unified output file when extraction files are written in
// unified mode, otherwise the default-language locale file.
func (e *Extractor) Bootstrap() error {
	var path string
	switch {
	case e.cfg.OutExtractFile && e.cfg.FileOutMode == config.ModeUnified:
		_, path = e.MergeEntryPath()
	case !e.cfg.OutExtractFile && e.cfg.LocalesPath != "":
		def, ok, err := e.cfg.DefaultLocale()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		path = e.locales.Path(def.LocaleFileName)
	default:
		return nil
	}

	existing, err := e.locales.Read(path)
	if err != nil && !errors.Is(err, locale.ErrInvalidLocale) {
		return err
	}
	if len(existing) > 0 {
		e.session.Bank().Merge(existing)
		log.Debug().Str("path", path).Int("count", len(existing)).Msg("Merged existing entries")
	}
	return nil
}

// Scanned is one parsed file with the key each of its literals received.
type Scanned struct {
	Result *parser.ParseResult
	Keys   map[string]string
}

// Scan parses the supported files under paths in parallel and then enters
// their literals into the bank one file at a time, in path order, so key
// allocation does not depend on scheduling.
func (e *Extractor) Scan(ctx context.Context, paths ...string) ([]Scanned, error) {
	entries, err := e.walker.Walk(paths...)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool("parse", e.cfg.WorkerCount, func(_ context.Context, entry filewalker.FileEntry) (*parser.ParseResult, error) {
		return e.walker.ParseFile(entry)
	})
	tasks := pool.Execute(ctx, entries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanned := make([]Scanned, 0, len(tasks))
	for _, task := range tasks {
		if task.Err != nil {
			e.notify.Notify(notify.Error, fmt.Sprintf("解析文件 %s 失败：%v", task.Input.Path, task.Err))
			continue
		}
		res := task.Result
		e.session.SetSourceContext(session.KindOf(res.FilePath), res.FilePath)
		keys := make(map[string]string, len(res.Texts))
		for _, et := range res.Texts {
			st := e.session.Enter(et.Text)
			if st.State == termbank.StateSuccess {
				keys[et.Text] = st.Key
			}
		}
		scanned = append(scanned, Scanned{Result: res, Keys: keys})
	}
	return scanned, nil
}

// Deposit finishes a pass. With OutExtractFile the bank is written to the
// extraction file and its path returned; otherwise nothing is written and
// the caller reviews Words.
func (e *Extractor) Deposit() (string, error) {
	bank := e.session.Bank()
	if bank.Len() == 0 {
		e.notify.Notify(notify.Error, "没有提取到中文字段。")
		return "", ErrNothingExtracted
	}
	if !e.cfg.OutExtractFile {
		return "", nil
	}

	var path string
	if e.cfg.FileOutMode == config.ModeFile {
		path = filepath.Join(e.root, e.cfg.OutFile, e.session.Context().FileName+".json")
	} else {
		_, path = e.MergeEntryPath()
	}
	if err := e.locales.Write(path, bank.JSON()); err != nil {
		e.notify.Notify(notify.Error, fmt.Sprintf("写入文件 %s 失败：%v", path, err))
		return "", err
	}
	e.notify.Notify(notify.Success, fmt.Sprintf("提取 %s 成功", filepath.Base(path)))
	return path, nil
}

// Pass is the outcome of one extraction pass.
type Pass struct {
	// FileName names the pass: the source file's base name in file mode,
	// the unified file name otherwise.
	FileName string
	// Output is the extraction file written, if any.
	Output  string
	Words   []Word
	Scanned []Scanned
}

// Run extracts paths. In file mode every source file gets its own pass and
// extraction file; files without Chinese are skipped. In unified mode a
// single pass covers every path.
func (e *Extractor) Run(ctx context.Context, paths ...string) ([]Pass, error) {
	if e.cfg.FileOutMode != config.ModeFile || !e.cfg.OutExtractFile {
		pass, err := e.pass(ctx, paths...)
		if err != nil {
			return nil, err
		}
		pass.FileName = e.cfg.UnifiedFileName
		return []Pass{pass}, nil
	}

	entries, err := e.walker.Walk(paths...)
	if err != nil {
		return nil, err
	}
	var passes []Pass
	for _, entry := range entries {
		e.session.Reset()
		if err := e.Bootstrap(); err != nil {
			return passes, err
		}
		scanned, err := e.Scan(ctx, entry.Path)
		if err != nil {
			return passes, err
		}
		if e.session.Bank().Len() == 0 {
			log.Debug().Str("file", entry.Path).Msg("No Chinese literal found")
			continue
		}
		out, err := e.Deposit()
		if err != nil {
			return passes, err
		}
		passes = append(passes, Pass{
			FileName: e.session.Context().FileName,
			Output:   out,
			Words:    e.Words(),
			Scanned:  scanned,
		})
	}
	if len(passes) == 0 {
		e.notify.Notify(notify.Error, "没有提取到中文字段。")
		return nil, ErrNothingExtracted
	}
	return passes, nil
}

func (e *Extractor) pass(ctx context.Context, paths ...string) (Pass, error) {
	e.session.Reset()
	if err := e.Bootstrap(); err != nil {
		return Pass{}, err
	}
	scanned, err := e.Scan(ctx, paths...)
	if err != nil {
		return Pass{}, err
	}
	out, err := e.Deposit()
	if err != nil {
		return Pass{}, err
	}
	return Pass{Output: out, Words: e.Words(), Scanned: scanned}, nil
}

// Words returns every bank entry as a word awaiting review, in key
// allocation order.
func (e *Extractor) Words() []Word {
	return toWords(e.session.Bank().Entries())
}

// WordsFor returns the words seen in sourceFile.
func (e *Extractor) WordsFor(sourceFile string) []Word {
	return toWords(e.session.Bank().EntriesFor(sourceFile))
}

func toWords(entries []termbank.Entry) []Word {
	words := make([]Word, 0, len(entries))
	for _, en := range entries {
		words = append(words, Word{Key: en.Key, Value: en.Text, Langs: map[string]LangValue{}})
	}
	return words
}
