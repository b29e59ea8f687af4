// Package catalog holds the fixed size-to-file table served by the file
// server and the helpers that inspect or produce those files on disk.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/wesleyorama2/htmlbench/internal/common"
	"github.com/wesleyorama2/htmlbench/internal/util"
)

const (
	KB = 1024
	MB = 1024 * KB
)

// Size is one entry of the size table.
type Size struct {
	Key      string
	Filename string
	Label    string
	Bytes    int64
}

// Endpoint returns the download path for the size.
func (s Size) Endpoint() string {
	return "/api/html/" + s.Key
}

var sizes = [...]Size{
	{Key: "small", Filename: "small_10kb.html", Label: "Small (10KB)", Bytes: 10 * KB},
	{Key: "medium", Filename: "medium_100kb.html", Label: "Medium (100KB)", Bytes: 100 * KB},
	{Key: "large", Filename: "large_1mb.html", Label: "Large (1MB)", Bytes: 1 * MB},
	{Key: "xlarge", Filename: "xlarge_5mb.html", Label: "XLarge (5MB)", Bytes: 5 * MB},
	{Key: "xxlarge", Filename: "xxlarge_10mb.html", Label: "XXLarge (10MB)", Bytes: 10 * MB},
}

// All returns the size table in declaration order.
func All() []Size {
	out := make([]Size, len(sizes))
	copy(out, sizes[:])
	return out
}

// Keys returns the five size keywords in table order.
func Keys() []string {
	keys := make([]string, 0, len(sizes))
	for _, s := range sizes {
		keys = append(keys, s.Key)
	}
	return keys
}

// Lookup resolves a size keyword. Matching is exact.
func Lookup(key string) (Size, bool) {
	for _, s := range sizes {
		if s.Key == key {
			return s, true
		}
	}
	return Size{}, false
}

// Resolve is Lookup with an error suitable for wrapping.
func Resolve(key string) (Size, error) {
	s, ok := Lookup(key)
	if !ok {
		return Size{}, fmt.Errorf("%w: %q", common.ErrUnknownSize, key)
	}
	return s, nil
}

// Path joins the storage directory and the size's filename.
func Path(dir string, s Size) string {
	return filepath.Join(dir, s.Filename)
}

// Stat returns the file info for a size's backing file. A missing file, or
// a directory sitting where the file should be, yields ErrFileNotFound.
func Stat(fs afero.Fs, dir string, s Size) (os.FileInfo, error) {
	fi, err := fs.Stat(Path(dir, s))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrFileNotFound, s.Filename)
		}
		return nil, fmt.Errorf("cannot stat %s: %w", s.Filename, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", common.ErrFileNotFound, s.Filename)
	}
	return fi, nil
}

// FileInfo describes one size's backing file. Size fields are only set when
// the file exists.
type FileInfo struct {
	Filename  string   `json:"filename"`
	SizeBytes *int64   `json:"size_bytes,omitempty"`
	SizeKB    *float64 `json:"size_kb,omitempty"`
	SizeMB    *float64 `json:"size_mb,omitempty"`
	Exists    bool     `json:"exists"`
	Endpoint  string   `json:"endpoint"`
}

// Inventory aggregates FileInfo over the whole table.
type Inventory struct {
	Files          map[string]FileInfo `json:"files"`
	TotalFiles     int                 `json:"total_files"`
	TotalSizeBytes int64               `json:"total_size_bytes"`
	TotalSizeMB    float64             `json:"total_size_mb"`
}

// TakeInventory stats every file in the table. It never fails: files that
// cannot be stat'ed count as absent.
func TakeInventory(fs afero.Fs, dir string) Inventory {
	inv := Inventory{Files: make(map[string]FileInfo, len(sizes))}

	for _, s := range sizes {
		info := FileInfo{
			Filename: s.Filename,
			Endpoint: s.Endpoint(),
		}

		if fi, err := Stat(fs, dir, s); err == nil {
			n := fi.Size()
			kb := util.Round2(float64(n) / KB)
			mb := util.Round2(float64(n) / MB)

			info.Exists = true
			info.SizeBytes = &n
			info.SizeKB = &kb
			info.SizeMB = &mb

			inv.TotalFiles++
			inv.TotalSizeBytes += n
		}

		inv.Files[s.Key] = info
	}

	inv.TotalSizeMB = util.Round2(float64(inv.TotalSizeBytes) / MB)
	return inv
}
