// Package store owns on-disk writes: atomic replacement for snapshots,
// reports and config, and locked appends for JSONL ledgers.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileMode = 0o644

// Writers in this process serialize per path; other processes are not
// coordinated.
var locks sync.Map // clean path -> *sync.Mutex

func lock(path string) func() {
	mu, _ := locks.LoadOrStore(path, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// WriteFile atomically replaces a file's contents.
func WriteFile(path string, data []byte) error {
	return WriteFileFunc(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFileFunc writes through a temp file in the target directory and
// renames it over path only after write and fsync succeed.
func WriteFileFunc(path string, write func(w io.Writer) error) error {
	if write == nil {
		return errors.New("write func is required")
	}
	path, err := clean(path)
	if err != nil {
		return err
	}
	defer lock(path)()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", path, err)
	}

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		return fmt.Errorf("chmod %q: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace file %q: %w", path, err)
	}
	committed = true
	return nil
}

// WriteFileIfMissing writes data only when nothing exists at path yet and
// reports whether it created the file.
func WriteFileIfMissing(path string, data []byte) (bool, error) {
	path, err := clean(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	if err := WriteFile(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// AppendFile appends data to path, creating the file and its directory.
func AppendFile(path string, data []byte) error {
	path, err := clean(path)
	if err != nil {
		return err
	}
	defer lock(path)()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %q: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("append %q: %w", path, err)
	}
	return f.Close()
}

func clean(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	return filepath.Clean(path), nil
}
