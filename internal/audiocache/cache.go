// Package audiocache maps synthesized text to previously generated audio
// artifacts so identical requests never hit the remote TTS service twice.
package audiocache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// Entry is one cached synthesis result. The key is the MD5 of the text, so
// the same text across different requests shares one artifact.
type Entry struct {
	Text      string `json:"text"`
	FilePath  string `json:"file_path"`
	Timestamp int64  `json:"timestamp"`
}

// Cache is the process-wide content-hash index. The whole index is loaded
// into memory at startup and rewritten wholesale to disk on every insert;
// a single mutex serializes the read-modify-write so concurrent inserts
// cannot lose entries. Entries are never evicted; the janitor sweep is
// what keeps the artifact directories bounded.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]Entry
	indexPath string
}

// Key returns the content hash for text. MD5 is fine here; the hash only
// deduplicates requests, it carries no security weight.
func Key(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Load reads the cache index at indexPath, tolerating a missing or corrupt
// file by starting empty.
func Load(indexPath string) *Cache {
	c := &Cache{
		entries:   make(map[string]Entry),
		indexPath: indexPath,
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("Failed to read audio cache index %s: %v", indexPath, err)
		}
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Error("Audio cache index %s is corrupt, starting empty: %v", indexPath, err)
		c.entries = make(map[string]Entry)
	}
	return c
}

// Lookup returns the entry for key if it exists and its artifact is still
// on disk. The index and the filesystem can diverge when artifacts are
// deleted externally; a missing file is treated as a soft miss.
func (c *Cache) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return Entry{}, false
	}

	info, err := os.Stat(entry.FilePath)
	if err != nil || info.Size() == 0 {
		log.Warn("Cached artifact %s is gone, treating %s as a miss", entry.FilePath, key)
		return Entry{}, false
	}
	return entry, true
}

// Insert records a synthesis result under key and flushes the full index to
// disk before returning.
func (c *Cache) Insert(key, text, filePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Text:      text,
		FilePath:  filePath,
		Timestamp: time.Now().Unix(),
	}
	return c.flushLocked()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) flushLocked() error {
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("marshal cache index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.indexPath), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(c.indexPath, data, 0o644); err != nil {
		return fmt.Errorf("write cache index: %w", err)
	}
	return nil
}
