// internal/store/errors.go
package store

import (
	"errors"
	"fmt"
)

// ErrNoFallback means neither stored copy nor the compiled defaults
// produced a valid record. The cycle cannot continue.
var ErrNoFallback = errors.New("no valid board config available")

// ConfigError explains why Load did not use the primary record.
// The configuration returned alongside it is still valid.
type ConfigError struct {
	Path     string
	Fallback Source
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s unusable, using %s: %v", e.Path, e.Fallback, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StorageError is a failed write. The in-memory record stays authoritative.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
