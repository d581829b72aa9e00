// Package artifact persists training outputs as JSON documents and loads them
// back with a typed outcome.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrMissing is returned when an artifact does not exist.
	ErrMissing = errors.New("artifact missing")
	// ErrLoad is returned when an artifact exists but cannot be read or decoded.
	ErrLoad = errors.New("artifact load failed")
)

// Status is the outcome of Load.
type Status int

const (
	StatusOK Status = iota
	StatusMissing
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Store reads and writes artifacts on Fs. A zero Store uses the OS filesystem.
type Store struct {
	Fs afero.Fs
}

// NewStore returns a store backed by the OS filesystem.
func NewStore() *Store {
	return &Store{Fs: afero.NewOsFs()}
}

func (s *Store) fs() afero.Fs {
	if s == nil || s.Fs == nil {
		return afero.NewOsFs()
	}
	return s.Fs
}

// Save encodes v as JSON into a temporary file next to path and renames it
// over path, so readers see either the previous or the new artifact.
func (s *Store) Save(path string, v any) error {
	fsys := s.fs()

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir %q: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact %q: %w", path, err)
	}

	tmp, err := afero.TempFile(fsys, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("write artifact %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("close artifact %q: %w", path, err)
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("replace artifact %q: %w", path, err)
	}
	return nil
}

// Load decodes the artifact at path into v.
func (s *Store) Load(path string, v any) (Status, error) {
	data, err := afero.ReadFile(s.fs(), path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return StatusMissing, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return StatusCorrupt, fmt.Errorf("%w: read %s: %v", ErrLoad, path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return StatusCorrupt, fmt.Errorf("%w: decode %s: %v", ErrLoad, path, err)
	}
	return StatusOK, nil
}

// Exists reports whether an artifact is present at path.
func (s *Store) Exists(path string) (bool, error) {
	return afero.Exists(s.fs(), path)
}

// Paths locates the three artifacts a training run produces.
type Paths struct {
	Model    string `mapstructure:"model"`
	Encoders string `mapstructure:"encoders"`
	Density  string `mapstructure:"density"`
}

// DefaultPaths places the artifacts under dir with their default names.
func DefaultPaths(dir string) Paths {
	return Paths{
		Model:    filepath.Join(dir, "model.json"),
		Encoders: filepath.Join(dir, "encoders.json"),
		Density:  filepath.Join(dir, "salary_density_by_job.json"),
	}
}

// All returns the paths in a fixed order.
func (p Paths) All() []string {
	return []string{p.Model, p.Encoders, p.Density}
}

// Existing returns the paths that already hold an artifact.
func (s *Store) Existing(p Paths) ([]string, error) {
	var out []string
	for _, path := range p.All() {
		ok, err := s.Exists(path)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, path)
		}
	}
	return out, nil
}
