// Package cache stores per-file match results between runs.
//
// An entry is reused only when the file content hash, the asset-set
// fingerprint and the TTL all still hold.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/panbanda/orphan/internal/filelock"
)

// Cache provides file-based caching keyed by source path.
type Cache struct {
	dir         string
	ttl         time.Duration
	fingerprint string
	now         func() time.Time
}

// Entry represents a cached result.
type Entry struct {
	Hash        string          `json:"hash"`
	Fingerprint string          `json:"fingerprint"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

// New creates a cache in dir. Entries older than ttl are ignored; a zero
// ttl never expires. fingerprint identifies the inputs other than file
// content that a result depends on.
func New(dir string, ttl time.Duration, fingerprint string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{
		dir:         dir,
		ttl:         ttl,
		fingerprint: fingerprint,
		now:         time.Now,
	}, nil
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprint hashes the asset set and matching mode so a result computed
// for one set of assets is never reused for another.
func Fingerprint(assetPaths []string, strict bool) string {
	sorted := append([]string(nil), assetPaths...)
	sort.Strings(sorted)

	h := xxhash.New()
	for _, p := range sorted {
		_, _ = h.WriteString(filepath.ToSlash(p))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.WriteString(strconv.FormatBool(strict))
	return strconv.FormatUint(h.Sum64(), 16)
}

// Get returns the cached data for key if it was stored for identical
// content under the same fingerprint and has not expired.
func (c *Cache) Get(key string, content []byte) ([]byte, bool) {
	path := c.keyPath(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if entry.Fingerprint != c.fingerprint || entry.Hash != HashBytes(content) {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.Timestamp) > c.ttl {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Data, true
}

// Set stores data for key and content. Concurrent writers from other
// processes are serialized through a lock file in the cache directory.
func (c *Cache) Set(key string, content, data []byte) error {
	entry := Entry{
		Hash:        HashBytes(content),
		Fingerprint: c.fingerprint,
		Timestamp:   c.now(),
		Data:        data,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return filelock.WithLock(filepath.Join(c.dir, ".lock"), func() error {
		return filelock.AtomicWrite(c.keyPath(key), raw, 0o600)
	})
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	return os.RemoveAll(c.dir)
}

// keyPath maps a key to a file name that is safe on every platform.
func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:16])+".json")
}
