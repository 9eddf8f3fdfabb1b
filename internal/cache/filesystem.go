package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FilesystemCache stores one file per key under a root directory. Writes
// are atomic (write-to-temp + rename); reads tolerate missing or corrupt
// files by reporting a cache miss rather than an error, matching the
// write-temp-then-rename discipline used for execution-state persistence
// elsewhere in this stack.
type FilesystemCache struct {
	root string
}

// NewFilesystemCache creates a filesystem cache rooted at dir, creating it
// if necessary.
func NewFilesystemCache(dir string) (*FilesystemCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create result cache dir: %w", err)
	}
	return &FilesystemCache{root: dir}, nil
}

func init() {
	gob.Register([]int{})
	gob.Register([]string{})
	gob.Register([]any{})
	gob.Register(map[string]string{})
	gob.Register(map[string]any{})
}

type filePayload struct {
	StoredAt time.Time
	Value    any
}

func (c *FilesystemCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.root, hex.EncodeToString(sum[:])+".cache")
}

func (c *FilesystemCache) Get(key string, ttl time.Duration) (any, bool, error) {
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false, nil // missing file: cache miss, not an error
	}

	var p filePayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, false, nil // corrupt file: tolerate as a miss
	}

	if ttl > 0 && time.Since(p.StoredAt) > ttl {
		return nil, false, nil
	}
	return p.Value, true, nil
}

func (c *FilesystemCache) Set(key string, value any) error {
	p := filePayload{StoredAt: time.Now(), Value: value}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	target := c.pathFor(key)
	tempFile := target + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}
	return nil
}
