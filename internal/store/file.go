package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// emptyCollection is what a freshly initialized collection file contains.
var emptyCollection = []byte("[]")

// FileBackend stores each collection as <root>/<subject>/<name>.json.
// The default namespace lives directly in root.
type FileBackend struct {
	fs   afero.Fs
	root string
}

// NewFileBackend returns a backend rooted at dir on the OS filesystem.
func NewFileBackend(dir string) *FileBackend {
	return NewFileBackendFs(afero.NewOsFs(), dir)
}

// NewFileBackendFs returns a backend on the given filesystem.
func NewFileBackendFs(fs afero.Fs, dir string) *FileBackend {
	if dir == "" {
		dir = "data"
	}
	return &FileBackend{fs: fs, root: dir}
}

// Root returns the storage root directory.
func (b *FileBackend) Root() string {
	return b.root
}

func (b *FileBackend) dir(subject string) string {
	if subject == "" {
		return b.root
	}
	return filepath.Join(b.root, subject)
}

func (b *FileBackend) path(subject, name string) string {
	return filepath.Join(b.dir(subject), name+".json")
}

// Ensure creates the subject directory and any missing collection file.
// Existing files are left untouched.
func (b *FileBackend) Ensure(subject string, names []string) error {
	if err := b.fs.MkdirAll(b.dir(subject), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	for _, name := range names {
		p := b.path(subject, name)
		exists, err := afero.Exists(b.fs, p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if exists {
			continue
		}
		if err := afero.WriteFile(b.fs, p, emptyCollection, 0o644); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
	}
	return nil
}

// Load reads a collection file.
func (b *FileBackend) Load(subject, name string) ([]byte, error) {
	return afero.ReadFile(b.fs, b.path(subject, name))
}

// Flush overwrites a collection file. There is no temp-file rename, so a
// crash mid-write can leave the file truncated.
func (b *FileBackend) Flush(subject, name string, data []byte) error {
	if err := afero.WriteFile(b.fs, b.path(subject, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Subjects lists the non-hidden subdirectories of root in sorted order.
func (b *FileBackend) Subjects() ([]string, error) {
	subjects := []string{}
	exists, err := afero.DirExists(b.fs, b.root)
	if err != nil || !exists {
		return subjects, nil
	}
	entries, err := afero.ReadDir(b.fs, b.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.root, err)
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			subjects = append(subjects, e.Name())
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Close is a no-op.
func (b *FileBackend) Close() error {
	return nil
}
