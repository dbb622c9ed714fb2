// Package scaffolding generates starter projects from a registry of
// templates. A template is a list of file entries; each entry belongs either
// to the base project or to one optional add-on, and renders its content
// from the project configuration and the set of enabled add-ons.
package scaffolding

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/validation"
)

const (
	DefaultName        = "my-awesome-project"
	DefaultDescription = "A new project"

	// NameToken is replaced by the project name in entry paths.
	NameToken = "{{name}}"
)

// ProjectConfig is the user supplied part of a generated project.
type ProjectConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Features records which add-ons are enabled.
type Features map[string]bool

// On reports whether the add-on id is enabled.
func (f Features) On(id string) bool {
	return f[id]
}

// GenerateFunc renders the content of one file. It must be a pure function
// of its arguments.
type GenerateFunc func(cfg ProjectConfig, features Features) string

// Entry is one file of a template. Owner is empty for base files and holds
// the add-on id otherwise.
type Entry struct {
	Path     string
	Generate GenerateFunc
	Owner    string
}

// Base reports whether the entry is part of every generated project.
func (e Entry) Base() bool {
	return e.Owner == ""
}

// Pair is an ordered key/value item of a package manifest section.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Packages lists what an add-on contributes to the package manifest.
type Packages struct {
	Dependencies    []Pair `json:"dependencies,omitempty"`
	DevDependencies []Pair `json:"devDependencies,omitempty"`
	Scripts         []Pair `json:"scripts,omitempty"`
}

// Addon is an optional feature of a template.
type Addon struct {
	ID          string
	Name        string
	Description string
	Packages    *Packages
}

// ProjectTemplate describes a starter project.
type ProjectTemplate struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Files       []Entry
	Addons      []Addon
}

// Addon returns the add-on with the given id.
func (t *ProjectTemplate) Addon(id string) (Addon, bool) {
	for _, a := range t.Addons {
		if a.ID == id {
			return a, true
		}
	}

	return Addon{}, false
}

// AddonIDs returns the add-on ids in declaration order.
func (t *ProjectTemplate) AddonIDs() []string {
	ids := make([]string, len(t.Addons))
	for i, a := range t.Addons {
		ids[i] = a.ID
	}

	return ids
}

// entries returns the entries owned by owner in declaration order.
func (t *ProjectTemplate) entries(owner string) []Entry {
	var out []Entry
	for _, e := range t.Files {
		if e.Owner == owner {
			out = append(out, e)
		}
	}

	return out
}

// TemplateInfo is the catalogue view of a template.
type TemplateInfo struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	BaseFiles   int         `json:"baseFiles"`
	Addons      []AddonInfo `json:"addons"`
}

// AddonInfo is the catalogue view of an add-on.
type AddonInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Files       []string `json:"files,omitempty"`
}

// Info summarises the template for listings.
func (t *ProjectTemplate) Info() TemplateInfo {
	info := TemplateInfo{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Icon:        t.Icon,
		BaseFiles:   len(t.entries("")),
		Addons:      make([]AddonInfo, 0, len(t.Addons)),
	}
	for _, a := range t.Addons {
		ai := AddonInfo{ID: a.ID, Name: a.Name, Description: a.Description}
		for _, e := range t.entries(a.ID) {
			ai.Files = append(ai.Files, e.Path)
		}
		info.Addons = append(info.Addons, ai)
	}

	return info
}

// Registry holds the available templates in display order.
type Registry struct {
	templates []*ProjectTemplate
	byID      map[string]*ProjectTemplate
}

// NewRegistry checks the templates and indexes them by id. Template ids
// must be unique, add-on ids unique per template, and every entry owner
// must name a declared add-on.
func NewRegistry(templates ...*ProjectTemplate) (*Registry, error) {
	r := &Registry{byID: make(map[string]*ProjectTemplate, len(templates))}

	for _, t := range templates {
		if t.ID == "" {
			return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "template id cannot be empty")
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "duplicate template id: "+t.ID)
		}

		addons := make(map[string]bool, len(t.Addons))
		for _, a := range t.Addons {
			if a.ID == "" || addons[a.ID] {
				return nil, errors.NewValidationError(errors.ErrCodeValidationFailed,
					fmt.Sprintf("template %s: invalid or duplicate add-on id %q", t.ID, a.ID))
			}
			addons[a.ID] = true
		}
		for _, e := range t.Files {
			if e.Owner != "" && !addons[e.Owner] {
				return nil, errors.NewValidationError(errors.ErrCodeAddonNotFound,
					fmt.Sprintf("template %s: file %s belongs to unknown add-on %q", t.ID, e.Path, e.Owner))
			}
			if e.Generate == nil {
				return nil, errors.NewValidationError(errors.ErrCodeValidationFailed,
					fmt.Sprintf("template %s: file %s has no generator", t.ID, e.Path))
			}
		}

		r.byID[t.ID] = t
		r.templates = append(r.templates, t)
	}

	return r, nil
}

// Templates returns the templates in display order.
func (r *Registry) Templates() []*ProjectTemplate {
	out := make([]*ProjectTemplate, len(r.templates))
	copy(out, r.templates)

	return out
}

// IDs returns the template ids in display order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.templates))
	for i, t := range r.templates {
		ids[i] = t.ID
	}

	return ids
}

// Catalogue returns Info for every template.
func (r *Registry) Catalogue() []TemplateInfo {
	out := make([]TemplateInfo, len(r.templates))
	for i, t := range r.templates {
		out[i] = t.Info()
	}

	return out
}

// Lookup finds a template by id.
func (r *Registry) Lookup(id string) (*ProjectTemplate, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, errors.ErrTemplateNotFound(id).WithContext("available", r.IDs())
	}

	return t, nil
}

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the registry of bundled templates.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		r, err := NewRegistry(builtinTemplates()...)
		if err != nil {
			panic("scaffolding: invalid built-in templates: " + err.Error())
		}
		builtin = r
	})

	return builtin
}

// Templates lists the bundled templates.
func Templates() []*ProjectTemplate {
	return Builtin().Templates()
}

// Lookup finds a bundled template.
func Lookup(id string) (*ProjectTemplate, error) {
	return Builtin().Lookup(id)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a project name and replaces each run of
// whitespace with a hyphen.
func NormalizeName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// ValidateName rejects names that cannot be used as a directory name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.NewValidationError(errors.ErrCodeValidationFailed, "project name cannot be empty").
			WithHints("use a name such as " + DefaultName)
	case name == "." || name == "..":
		return errors.NewValidationError(errors.ErrCodeValidationFailed, "project name cannot be "+name)
	case strings.ContainsAny(name, `/\`):
		return errors.NewValidationError(errors.ErrCodeValidationFailed, "project name cannot contain path separators").
			WithContext("name", name)
	}

	if err := validation.ValidateRelativePath(name); err != nil {
		return errors.WrapValidation(err, errors.ErrCodeValidationFailed, "invalid project name")
	}

	return nil
}

// resolvePath substitutes the project name into an entry path.
func resolvePath(p string, cfg ProjectConfig) string {
	return strings.ReplaceAll(p, NameToken, cfg.Name)
}

func sortedKeys(m map[string]*File) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
