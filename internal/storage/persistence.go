package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/ytget/dlcore/internal/command/errs"
)

// docLock serializes writes to a single document path so concurrent
// mutating commands never produce a torn file.
type docLock struct {
	mu sync.Map // path -> *sync.Mutex
}

func (d *docLock) lockFor(path string) *sync.Mutex {
	m, _ := d.mu.LoadOrStore(path, &sync.Mutex{})
	return m.(*sync.Mutex)
}

var writeLocks docLock

// writeJSONAtomic serializes v to path by writing a temp file in the same
// directory and renaming it into place, so readers never observe a
// partially written document.
func writeJSONAtomic(path string, v interface{}) error {
	lock := writeLocks.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Newf(errs.PersistenceError, "failed to encode %s: %v", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Newf(errs.PersistenceError, "failed to create %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errs.Newf(errs.PersistenceError, "failed to create temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Newf(errs.PersistenceError, "failed to write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Newf(errs.PersistenceError, "failed to close temp file: %v", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.Newf(errs.PersistenceError, "failed to rename into place: %v", err)
	}
	return nil
}

// readJSON decodes path into v. A missing file is not an error: the
// caller's zero value (or pre-populated default) is left untouched and
// readJSON returns nil.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Newf(errs.PersistenceError, "failed to read %s: %v", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Newf(errs.PersistenceError, "failed to decode %s: %v", filepath.Base(path), err)
	}
	return nil
}
