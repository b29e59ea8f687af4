// Package jsonfile persists JSON documents with atomic replacement and
// lock-guarded read-merge-write updates.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockSuffix = ".lock"

// WriteAtomic encodes v as indented JSON and replaces path with it. Readers
// see either the old file or the new one, never a partial write.
func WriteAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("cannot chmod %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("cannot replace %s: %w", path, err)
	}
	return nil
}

// Read decodes the JSON document at path into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cannot decode %s: %w", path, err)
	}
	return nil
}

// Merge overlays the top-level keys of patch onto the JSON object stored at
// path and writes the result back. A missing file counts as an empty
// object. Concurrent Merge calls on the same path are serialized through an
// advisory lock file next to it (path + ".lock"). The lock file is never
// removed; removing it while another process waits on it breaks exclusion.
func Merge(path string, patch map[string]any) (map[string]any, error) {
	lock := flock.New(path + lockSuffix)
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("cannot lock %s: %w", path, err)
	}
	defer lock.Unlock()

	doc := make(map[string]any)
	if err := Read(path, &doc); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if doc == nil {
		doc = make(map[string]any)
	}

	for k, v := range patch {
		doc[k] = v
	}

	if err := WriteAtomic(path, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
