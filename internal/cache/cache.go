// Package cache provides a durable, fingerprint-keyed store for generation
// results so repeated runs never repeat a model call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Outcome classifies the result of a cache lookup
type Outcome int

// Lookup outcomes. Callers must treat Corrupt identically to Miss: recompute
// the value and re-Put it.
const (
	Miss Outcome = iota
	Hit
	Corrupt
)

// Key is a deterministic fingerprint of a generation request's semantic inputs
type Key string

// Entry is one stored generation result
type Entry struct {
	Key       Key       `json:"key"`
	Text      string    `json:"text"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Fingerprint derives a Key from the exact prompt, the model identifier and
// the generation options. Any difference in any input produces a different key.
func Fingerprint(prompt, model string, temperature float32, maxTokens int) Key {
	payload, _ := json.Marshal(struct {
		Prompt      string  `json:"prompt"`
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}{prompt, model, temperature, maxTokens})

	sum := sha256.Sum256(payload)
	return Key(hex.EncodeToString(sum[:]))
}

// Store is a disk-backed key→entry cache. One file per key; writes go through
// a temp file and rename so concurrent writers racing on the same key leave a
// whole entry behind (last writer wins).
type Store struct {
	dir string
}

// Open prepares a cache directory, creating it if needed
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Get looks up a key. A missing file is a Miss; an unreadable or unparsable
// file is Corrupt, never an error.
func (s *Store) Get(key Key) (Entry, Outcome) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, Miss
		}
		return Entry{}, Corrupt
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, Corrupt
	}
	if entry.Key != key {
		return Entry{}, Corrupt
	}
	return entry, Hit
}

// Put stores a value under key, overwriting any previous entry
func (s *Store) Put(key Key, text, model string) error {
	entry := Entry{
		Key:       key,
		Text:      text,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the entry for key, if any
func (s *Store) Invalidate(key Key) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	return nil
}

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, string(key)+".json")
}
