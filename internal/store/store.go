// internal/store/store.go
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

const (
	primaryFile = "board.yaml"
	lkgFile     = "board.lkg.yaml"
)

// Source tells which copy Load returned.
type Source int

const (
	SourcePrimary Source = iota
	SourceLastKnownGood
	SourceDefaults
)

func (s Source) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceLastKnownGood:
		return "last-known-good"
	case SourceDefaults:
		return "defaults"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// FileStore keeps the board record as YAML in a state directory,
// with a last-known-good twin written on every Persist.
type FileStore struct {
	dir      string
	defaults boardcfg.BoardConfig
}

func New(dir string, defaults boardcfg.BoardConfig) *FileStore {
	return &FileStore{dir: dir, defaults: defaults.Clone()}
}

func (s *FileStore) PrimaryPath() string { return filepath.Join(s.dir, primaryFile) }
func (s *FileStore) LKGPath() string     { return filepath.Join(s.dir, lkgFile) }

// Load returns a valid record, falling back primary -> last-known-good ->
// defaults. A non-nil *ConfigError accompanies any fallback caused by a
// corrupt or invalid copy; a plain first boot (nothing stored) is not an error.
// ErrNoFallback is returned only when even the defaults are invalid.
func (s *FileStore) Load() (boardcfg.BoardConfig, Source, error) {
	primary, perr := readRecord(s.PrimaryPath())
	if perr == nil {
		return primary, SourcePrimary, nil
	}

	lkg, lerr := readRecord(s.LKGPath())
	if lerr == nil {
		return lkg, SourceLastKnownGood, &ConfigError{
			Path:     s.PrimaryPath(),
			Fallback: SourceLastKnownGood,
			Err:      perr,
		}
	}

	d := s.defaults.Clone()
	boardcfg.Normalize(&d)
	if err := d.Validate(); err != nil {
		return boardcfg.BoardConfig{}, SourceDefaults, fmt.Errorf("%w: %v", ErrNoFallback, errors.Join(perr, lerr, err))
	}

	if errors.Is(perr, fs.ErrNotExist) && errors.Is(lerr, fs.ErrNotExist) {
		return d, SourceDefaults, nil
	}

	return d, SourceDefaults, &ConfigError{
		Path:     s.PrimaryPath(),
		Fallback: SourceDefaults,
		Err:      errors.Join(perr, lerr),
	}
}

// Persist writes the record atomically to both copies.
// Invalid records are refused; failures are *StorageError.
func (s *FileStore) Persist(c boardcfg.BoardConfig) error {
	if err := c.Validate(); err != nil {
		return &StorageError{Op: "validate", Path: s.PrimaryPath(), Err: err}
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return &StorageError{Op: "encode", Path: s.PrimaryPath(), Err: err}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: s.dir, Err: err}
	}

	for _, path := range []string{s.PrimaryPath(), s.LKGPath()} {
		if err := WriteAtomic(path, raw); err != nil {
			return &StorageError{Op: "write", Path: path, Err: err}
		}
	}
	return nil
}

func readRecord(path string) (boardcfg.BoardConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return boardcfg.BoardConfig{}, err
	}

	var c boardcfg.BoardConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return boardcfg.BoardConfig{}, fmt.Errorf("decode %s: %w", path, err)
	}

	boardcfg.Normalize(&c)
	if err := c.Validate(); err != nil {
		return boardcfg.BoardConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteAtomic replaces path through a synced temp file in the same directory.
func WriteAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
