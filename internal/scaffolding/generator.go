package scaffolding

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/validation"
)

// appendable lists the paths whose contributions are concatenated instead
// of replaced. Paths are compared after name substitution.
var appendable = map[string]bool{
	".env.example": true,
}

// Appendable reports whether contributions to path are concatenated.
func Appendable(path string) bool {
	return appendable[path]
}

// File is one generated file. Owner is the add-on that wrote it last, or
// empty for base files.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Owner   string `json:"owner,omitempty"`
}

// FileSet is the result of a generation: files keyed by path.
type FileSet struct {
	Template string        `json:"template"`
	Project  ProjectConfig `json:"project"`
	Addons   []string      `json:"addons"`
	Files    []File        `json:"files"`
}

// Len returns the number of files.
func (fs *FileSet) Len() int {
	return len(fs.Files)
}

// Empty reports whether no template was selected.
func (fs *FileSet) Empty() bool {
	return len(fs.Files) == 0
}

// Paths returns the file paths in sorted order.
func (fs *FileSet) Paths() []string {
	paths := make([]string, len(fs.Files))
	for i, f := range fs.Files {
		paths[i] = f.Path
	}

	return paths
}

// Get returns the file at path.
func (fs *FileSet) Get(path string) (File, bool) {
	for _, f := range fs.Files {
		if f.Path == path {
			return f, true
		}
	}

	return File{}, false
}

// Active returns path when it exists and the first path otherwise; the
// preview pane shows this file.
func (fs *FileSet) Active(path string) string {
	if _, ok := fs.Get(path); ok {
		return path
	}
	if len(fs.Files) == 0 {
		return ""
	}

	return fs.Files[0].Path
}

// Map returns path -> content.
func (fs *FileSet) Map() map[string]string {
	m := make(map[string]string, len(fs.Files))
	for _, f := range fs.Files {
		m[f.Path] = f.Content
	}

	return m
}

// ArchiveName is the download name of the zip archive.
func (fs *FileSet) ArchiveName() string {
	name := fs.Project.Name
	if name == "" {
		name = DefaultName
	}

	return name + ".zip"
}

// archiveTime is stamped on every zip entry so archives are reproducible.
var archiveTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Zip writes the files into a zip archive in path order.
func (fs *FileSet) Zip(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, f := range fs.Files {
		if err := validation.ValidateRelativePath(f.Path); err != nil {
			return errors.PathValidationError(f.Path, err.Error())
		}

		hdr := &zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: archiveTime,
		}
		hdr.SetMode(fileMode(f))

		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "cannot add "+f.Path+" to archive")
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return errors.WrapIO(err, errors.ErrCodeInternalError, "cannot write "+f.Path+" to archive")
		}
	}

	if err := zw.Close(); err != nil {
		return errors.WrapIO(err, errors.ErrCodeInternalError, "cannot finish archive")
	}

	return nil
}

// WriteTo materialises the files under dir. Existing files are only
// replaced when force is set; nothing is written if any check fails.
func (fs *FileSet) WriteTo(dir string, force bool) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "cannot resolve output directory")
	}

	targets := make([]string, len(fs.Files))
	for i, f := range fs.Files {
		if err := validation.ValidateRelativePath(f.Path); err != nil {
			return nil, errors.PathValidationError(f.Path, err.Error())
		}
		target := filepath.Join(root, filepath.FromSlash(f.Path))
		if rel, err := filepath.Rel(root, target); err != nil || strings.HasPrefix(rel, "..") {
			return nil, errors.ErrPathTraversal(f.Path)
		}
		if _, err := os.Stat(target); err == nil && !force {
			return nil, errors.NewValidationError(errors.ErrCodeFileExists, "file already exists: "+target).
				WithHints("pass --force to overwrite existing files")
		}
		targets[i] = target
	}

	written := make([]string, 0, len(fs.Files))
	for i, f := range fs.Files {
		if err := os.MkdirAll(filepath.Dir(targets[i]), 0o755); err != nil {
			return written, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to create directory")
		}
		if err := os.WriteFile(targets[i], []byte(f.Content), fileMode(f)); err != nil {
			return written, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to write "+f.Path)
		}
		written = append(written, targets[i])
	}

	return written, nil
}

// fileMode marks scripts with a shebang as executable.
func fileMode(f File) os.FileMode {
	if strings.HasPrefix(f.Content, "#!") {
		return 0o755
	}

	return 0o644
}

// Generate renders a project from the template id. An empty id yields an
// empty FileSet. Base entries are applied first, then the entries of each
// enabled add-on in declaration order; a later entry replaces an earlier
// one on the same path unless the path is appendable.
//
// Entry generators stay pure. Generate appends "\n" to any file whose
// final content does not already end in one; nothing else is rewritten.
func (r *Registry) Generate(id string, cfg ProjectConfig, addons []string) (*FileSet, error) {
	cfg.Name = NormalizeName(cfg.Name)
	fs := &FileSet{Template: id, Project: cfg, Addons: []string{}, Files: []File{}}
	if id == "" {
		return fs, nil
	}

	t, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(cfg.Name); err != nil {
		return nil, err
	}

	features := make(Features, len(addons))
	for _, a := range addons {
		if _, ok := t.Addon(a); !ok {
			return nil, errors.NewValidationError(errors.ErrCodeAddonNotFound,
				fmt.Sprintf("template %s has no add-on %q", t.ID, a)).
				WithContext("available", t.AddonIDs())
		}
		features[a] = true
	}
	// declaration order, not request order
	for _, a := range t.Addons {
		if features.On(a.ID) {
			fs.Addons = append(fs.Addons, a.ID)
		}
	}

	files := make(map[string]*File)
	apply := func(e Entry) error {
		path := resolvePath(e.Path, cfg)
		if err := validation.ValidateRelativePath(path); err != nil {
			return errors.PathValidationError(path, err.Error())
		}

		content := e.Generate(cfg, features)
		if prev, ok := files[path]; ok && Appendable(path) {
			prev.Content += content
			prev.Owner = e.Owner

			return nil
		}
		if Appendable(path) {
			content = strings.TrimLeft(content, "\n")
		}
		files[path] = &File{Path: path, Content: content, Owner: e.Owner}

		return nil
	}

	for _, e := range t.entries("") {
		if err := apply(e); err != nil {
			return nil, err
		}
	}
	for _, id := range fs.Addons {
		for _, e := range t.entries(id) {
			if err := apply(e); err != nil {
				return nil, err
			}
		}
	}

	for _, p := range sortedKeys(files) {
		f := files[p]
		if !strings.HasSuffix(f.Content, "\n") {
			f.Content += "\n"
		}
		fs.Files = append(fs.Files, *f)
	}

	return fs, nil
}

// Generate renders a bundled template.
func Generate(id string, cfg ProjectConfig, addons []string) (*FileSet, error) {
	return Builtin().Generate(id, cfg, addons)
}
