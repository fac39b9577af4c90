// internal/outbox/file.go
package outbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tamzrod/coolboard-agent/internal/store"
)

// File spools entries as {dir}/{n}.json with n increasing.
// When full, the oldest entry is discarded.
type File struct {
	dir   string
	limit int

	mu sync.Mutex
}

func NewFile(dir string, limit int) *File {
	return &File{dir: dir, limit: limit}
}

func (f *File) path(n uint64) string {
	return filepath.Join(f.dir, strconv.FormatUint(n, 10)+".json")
}

// entries lists spool sequence numbers in ascending order.
// Stray files are ignored.
func (f *File) entries() ([]uint64, error) {
	list, err := os.ReadDir(f.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []uint64
	for _, e := range list {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *File) Push(ctx context.Context, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return &store.StorageError{Op: "mkdir", Path: f.dir, Err: err}
	}

	seq, err := f.entries()
	if err != nil {
		return &store.StorageError{Op: "list", Path: f.dir, Err: err}
	}

	next := uint64(1)
	if len(seq) > 0 {
		next = seq[len(seq)-1] + 1
	}

	path := f.path(next)
	if err := store.WriteAtomic(path, raw); err != nil {
		return &store.StorageError{Op: "write", Path: path, Err: err}
	}

	if f.limit > 0 {
		for len(seq)+1 > f.limit {
			os.Remove(f.path(seq[0]))
			seq = seq[1:]
		}
	}
	return nil
}

func (f *File) Len(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seq, err := f.entries()
	if err != nil {
		return 0, &store.StorageError{Op: "list", Path: f.dir, Err: err}
	}
	return len(seq), nil
}

func (f *File) Drain(ctx context.Context, send func(context.Context, []byte) error) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seq, err := f.entries()
	if err != nil {
		return 0, &store.StorageError{Op: "list", Path: f.dir, Err: err}
	}

	sent := 0
	for _, n := range seq {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		path := f.path(n)
		raw, err := os.ReadFile(path)
		if err != nil {
			return sent, &store.StorageError{Op: "read", Path: path, Err: err}
		}
		if err := send(ctx, raw); err != nil {
			return sent, fmt.Errorf("resend %s: %w", filepath.Base(path), err)
		}
		if err := os.Remove(path); err != nil {
			return sent, &store.StorageError{Op: "remove", Path: path, Err: err}
		}
		sent++
	}
	return sent, nil
}
