// Package cache persists fetched-imagery bookkeeping between runs so
// repeated requests for the same region skip the network. The analysis
// engine itself never reads or writes this cache.
package cache

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flood-guardian/flood-guardian-engine/internal/properties"
)

type entry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
	Checksum string    `json:"checksum"`
}

// FileStore is a JSON-on-disk key/value store under
// $ROOT_PATH/data/<subDir>. Entries carry a checksum so a torn write
// reads as a miss, never as corrupt data.
type FileStore[T any] struct {
	dir string
}

func NewFileStore[T any](subDir string) *FileStore[T] {
	return &FileStore[T]{dir: filepath.Join(properties.RootPath(), "data", subDir)}
}

// Key derives a stable cache key from the request parameters.
func (s *FileStore[T]) Key(parts ...any) string {
	h := sha1.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v|", part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *FileStore[T]) Get(key string) (T, bool) {
	var zero T
	data, err := os.ReadFile(filepath.Join(s.dir, key+".json"))
	if err != nil {
		return zero, false
	}
	var e entry[T]
	if err := json.Unmarshal(data, &e); err != nil {
		return zero, false
	}
	if e.Checksum != checksum(e.Value) {
		return zero, false
	}
	return e.Value, true
}

func (s *FileStore[T]) Put(key string, value T) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.Marshal(entry[T]{
		Value:    value,
		StoredAt: time.Now(),
		Checksum: checksum(value),
	})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	target := filepath.Join(s.dir, key+".json")
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}

func checksum[T any](value T) string {
	data, _ := json.Marshal(value)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
