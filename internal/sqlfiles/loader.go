package sqlfiles

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/bqrun/pkg/bqrun"
)

const sqlExtension = ".sql"

// Statement is one query to run.
type Statement struct {
	Label string
	Path  string
	SQL   string
}

// Loader reads statements from a filesystem.
type Loader struct {
	fsys fs.FS
}

// NewLoader returns a Loader over fsys. Panics if fsys is nil.
func NewLoader(fsys fs.FS) *Loader {
	if fsys == nil {
		panic("fsys cannot be nil")
	}
	return &Loader{fsys: fsys}
}

// NewOSLoader returns a Loader reading from the host filesystem. Relative
// paths resolve against the working directory.
func NewOSLoader() *Loader {
	return NewLoader(osFS{})
}

// Load resolves paths in order. Returns bqrun.ErrNoStatements when nothing
// runnable was found.
func (l *Loader) Load(paths ...string) ([]Statement, error) {
	var statements []Statement

	for _, p := range paths {
		p = filepath.ToSlash(p)
		info, err := fs.Stat(l.fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if !info.IsDir() {
			stmt, err := l.loadFile(p)
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
			continue
		}

		dirStatements, err := l.loadDir(p)
		if err != nil {
			return nil, err
		}
		statements = append(statements, dirStatements...)
	}

	if len(statements) == 0 {
		return nil, fmt.Errorf("no .sql files in %s: %w", strings.Join(paths, ", "), bqrun.ErrNoStatements)
	}
	return statements, nil
}

func (l *Loader) loadDir(dir string) ([]Statement, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isSQLFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	statements := make([]Statement, 0, len(names))
	for _, name := range names {
		stmt, err := l.loadFile(path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

func (l *Loader) loadFile(p string) (Statement, error) {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to read %s: %w", p, err)
	}
	sql := strings.TrimSpace(string(data))
	if sql == "" {
		return Statement{}, fmt.Errorf("%s is empty: %w", p, bqrun.ErrNoStatements)
	}
	return Statement{
		Label: LabelFor(p),
		Path:  p,
		SQL:   sql,
	}, nil
}

// LabelFor returns the base name of p without its extension.
func LabelFor(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, path.Ext(base))
}

func isSQLFile(name string) bool {
	return strings.EqualFold(path.Ext(name), sqlExtension)
}

// osFS is an fs.FS over the host filesystem that accepts absolute and
// relative paths, unlike os.DirFS.
type osFS struct{}

func (osFS) Open(name string) (fs.File, error) {
	return os.Open(filepath.FromSlash(name))
}

func (osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(filepath.FromSlash(name))
}

func (osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(filepath.FromSlash(name))
}

func (osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.FromSlash(name))
}
