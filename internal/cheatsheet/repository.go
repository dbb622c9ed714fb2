package cheatsheet

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/logging"
	"github.com/devkitlanka/devkit/internal/watcher"
)

//go:embed data/*.yaml
var builtinFS embed.FS

// SourceBuiltin marks sheets compiled into the binary.
const SourceBuiltin = "builtin"

// table is one immutable generation of loaded sheets.
type table struct {
	sheets []*Sheet
	byID   map[string]*Sheet
	loaded time.Time
}

// Options configure a Repository.
type Options struct {
	// Dir holds extra *.yaml sheets; empty means built-in sheets only.
	Dir    string
	Logger logging.Logger
	// Debounce delays reloads after a burst of file changes.
	Debounce time.Duration
}

// Repository serves the loaded sheets. It is safe for concurrent use.
type Repository struct {
	dir      string
	debounce time.Duration
	logger   logging.Logger
	current  atomic.Pointer[table]
	reloads  atomic.Int64
}

// NewRepository loads the built-in sheets and, when configured, the sheets
// in opts.Dir.
func NewRepository(opts Options) (*Repository, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}

	r := &Repository{
		dir:      opts.Dir,
		debounce: debounce,
		logger:   logger.WithComponent("cheatsheet"),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}

	return r, nil
}

var (
	defaultOnce sync.Once
	defaultRepo *Repository
)

// Default returns a repository of the built-in sheets only.
func Default() *Repository {
	defaultOnce.Do(func() {
		r, err := NewRepository(Options{})
		if err != nil {
			panic("cheatsheet: invalid built-in sheets: " + err.Error())
		}
		defaultRepo = r
	})

	return defaultRepo
}

// Reload reads every sheet again and swaps the table in one step. On error
// the previous table stays in place.
func (r *Repository) Reload() error {
	sheets, err := loadBuiltin()
	if err != nil {
		return err
	}

	if r.dir != "" {
		extra, err := LoadDir(r.dir)
		if err != nil {
			return err
		}
		sheets = merge(sheets, extra, r.logger)
	}

	t := &table{sheets: sheets, byID: make(map[string]*Sheet, len(sheets)), loaded: time.Now()}
	for _, s := range sheets {
		t.byID[s.ID] = s
	}
	r.current.Store(t)
	r.reloads.Add(1)

	r.logger.Debug(context.Background(), "Cheat sheets loaded", "sheets", len(sheets), "dir", r.dir)

	return nil
}

// Reloads returns how many tables have been loaded.
func (r *Repository) Reloads() int64 {
	return r.reloads.Load()
}

// Sheets returns the sheets in display order.
func (r *Repository) Sheets() []*Sheet {
	t := r.current.Load()
	out := make([]*Sheet, len(t.sheets))
	copy(out, t.sheets)

	return out
}

// IDs returns the sheet ids in display order.
func (r *Repository) IDs() []string {
	t := r.current.Load()
	ids := make([]string, len(t.sheets))
	for i, s := range t.sheets {
		ids[i] = s.ID
	}

	return ids
}

// Sheet returns the sheet with the given id.
func (r *Repository) Sheet(id string) (*Sheet, error) {
	if s, ok := r.current.Load().byID[id]; ok {
		return s, nil
	}

	return nil, errors.ErrSheetNotFound(id).WithContext("available", r.IDs())
}

// First returns the first sheet in display order.
func (r *Repository) First() *Sheet {
	t := r.current.Load()
	if len(t.sheets) == 0 {
		return nil
	}

	return t.sheets[0]
}

// LoadedAt returns when the current table was built.
func (r *Repository) LoadedAt() time.Time {
	return r.current.Load().loaded
}

// Watch reloads the table whenever a sheet file in the directory changes.
// It returns once the watcher runs; the watcher stops with ctx.
func (r *Repository) Watch(ctx context.Context) error {
	if r.dir == "" {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "no cheat-sheet directory to watch").
			WithHints("set cheatsheets.dir in .devkit.yml")
	}

	fw, err := watcher.NewFileWatcher(r.debounce, r.logger)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "cannot create file watcher")
	}
	fw.AddFilter(watcher.YAMLFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoBackupFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, e := range events {
			r.logger.Debug(ctx, "Cheat sheet changed", "path", e.Path, "type", e.Type.String())
		}
		if err := r.Reload(); err != nil {
			return err
		}
		r.logger.Info(ctx, "Cheat sheets reloaded", "changes", len(events))

		return nil
	})

	if err := fw.AddPath(r.dir); err != nil {
		_ = fw.Stop()

		return errors.WrapIO(err, errors.ErrCodeInvalidPath, "cannot watch "+r.dir)
	}
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()

		return err
	}

	go func() {
		<-ctx.Done()
		_ = fw.Stop()
	}()

	return nil
}

func loadBuiltin() ([]*Sheet, error) {
	names, err := builtinFS.ReadDir("data")
	if err != nil {
		return nil, errors.WrapInternal(err, errors.ErrCodeInternalError, "read embedded sheets")
	}

	sheets := make([]*Sheet, 0, len(names))
	for _, n := range names {
		data, err := builtinFS.ReadFile("data/" + n.Name())
		if err != nil {
			return nil, errors.WrapInternal(err, errors.ErrCodeInternalError, "read embedded sheet "+n.Name())
		}
		s, err := Decode(bytes.NewReader(data), n.Name())
		if err != nil {
			return nil, err
		}
		s.Source = SourceBuiltin
		sheets = append(sheets, s)
	}
	sortSheets(sheets)

	return sheets, nil
}

// LoadDir reads every *.yaml and *.yml file directly inside dir.
func LoadDir(dir string) ([]*Sheet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "cannot read cheat-sheet directory "+dir)
	}

	var sheets []*Sheet
	seen := make(map[string]string)
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !watcher.YAMLFilter(name) || !watcher.NoHiddenFilter(name) {
			continue
		}

		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "cannot open "+path)
		}
		s, err := Decode(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.ID]; dup {
			return nil, malformed(path, fmt.Sprintf("sheet id %q is also defined in %s", s.ID, prev))
		}
		seen[s.ID] = path
		s.Source = path
		sheets = append(sheets, s)
	}
	sortSheets(sheets)

	return sheets, nil
}

// Decode reads and validates one sheet. source names the input in errors.
func Decode(r io.Reader, source string) (*Sheet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Sheet
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, malformed(source, "file is empty")
		}

		return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeMalformedSheet,
			"malformed cheat sheet "+source).WithSource(source)
	}
	if err := validate(&s); err != nil {
		return nil, malformed(source, err.Error())
	}

	return &s, nil
}

func validate(s *Sheet) error {
	s.ID = strings.TrimSpace(s.ID)
	switch {
	case s.ID == "":
		return fmt.Errorf("id is required")
	case strings.ContainsAny(s.ID, " /\\"):
		return fmt.Errorf("id %q must not contain spaces or slashes", s.ID)
	case s.Label == "":
		return fmt.Errorf("label is required")
	case len(s.Entries) == 0:
		return fmt.Errorf("at least one entry is required")
	}
	if s.Language == "" {
		s.Language = "si"
	}

	for i, e := range s.Entries {
		if e.Command == "" || e.Description == "" || e.Category == "" {
			return fmt.Errorf("entry %d needs command, description and category", i+1)
		}
		if e.Category == AllCategories {
			return fmt.Errorf("entry %d uses the reserved category %q", i+1, AllCategories)
		}
	}

	return nil
}

func malformed(source, reason string) error {
	return errors.NewValidationError(errors.ErrCodeMalformedSheet,
		fmt.Sprintf("malformed cheat sheet %s: %s", source, reason)).WithSource(source)
}

// merge appends user sheets after the built-in ones. A user sheet with a
// built-in id replaces it in place.
func merge(builtin, extra []*Sheet, logger logging.Logger) []*Sheet {
	out := make([]*Sheet, len(builtin))
	copy(out, builtin)

	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}
	for _, s := range extra {
		if i, ok := index[s.ID]; ok {
			logger.Info(context.Background(), "User sheet replaces built-in sheet", "id", s.ID, "path", s.Source)
			out[i] = s

			continue
		}
		index[s.ID] = len(out)
		out = append(out, s)
	}

	return out
}

func sortSheets(sheets []*Sheet) {
	sort.SliceStable(sheets, func(i, j int) bool {
		a, b := sheets[i], sheets[j]
		if a.Order != b.Order {
			// unordered sheets go last
			if a.Order == 0 || b.Order == 0 {
				return b.Order == 0
			}

			return a.Order < b.Order
		}

		return a.ID < b.ID
	})
}
