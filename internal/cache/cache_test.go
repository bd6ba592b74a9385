package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("prompt", "qwen-plus", 0.2, 4000)
	b := Fingerprint("prompt", "qwen-plus", 0.2, 4000)
	assert.Equal(t, a, b)
}

func TestFingerprint_SensitiveToEveryInput(t *testing.T) {
	base := Fingerprint("prompt", "qwen-plus", 0.2, 4000)

	assert.NotEqual(t, base, Fingerprint("other prompt", "qwen-plus", 0.2, 4000))
	assert.NotEqual(t, base, Fingerprint("prompt", "qwen-turbo", 0.2, 4000))
	assert.NotEqual(t, base, Fingerprint("prompt", "qwen-plus", 0.7, 4000))
	assert.NotEqual(t, base, Fingerprint("prompt", "qwen-plus", 0.2, 2000))
}

func TestStore_PutThenGet(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	key := Fingerprint("prompt", "qwen-plus", 0.2, 4000)
	require.NoError(t, store.Put(key, "generated text", "qwen-plus"))

	entry, outcome := store.Get(key)
	assert.Equal(t, Hit, outcome)
	assert.Equal(t, "generated text", entry.Text)
	assert.Equal(t, "qwen-plus", entry.Model)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestStore_MissingKeyIsMiss(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	_, outcome := store.Get(Key("deadbeef"))
	assert.Equal(t, Miss, outcome)
}

func TestStore_CorruptEntryIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	key := Fingerprint("prompt", "qwen-plus", 0.2, 4000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(key)+".json"), []byte("{not json"), 0o644))

	_, outcome := store.Get(key)
	assert.Equal(t, Corrupt, outcome)
}

func TestStore_PutOverwrites(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	key := Fingerprint("prompt", "qwen-plus", 0.2, 4000)
	require.NoError(t, store.Put(key, "first", "qwen-plus"))
	require.NoError(t, store.Put(key, "second", "qwen-plus"))

	entry, outcome := store.Get(key)
	assert.Equal(t, Hit, outcome)
	assert.Equal(t, "second", entry.Text)
}

func TestStore_Invalidate(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	key := Fingerprint("prompt", "qwen-plus", 0.2, 4000)
	require.NoError(t, store.Put(key, "text", "qwen-plus"))
	require.NoError(t, store.Invalidate(key))

	_, outcome := store.Get(key)
	assert.Equal(t, Miss, outcome)

	// Invalidating an absent key is not an error.
	require.NoError(t, store.Invalidate(key))
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir)
	require.NoError(t, err)
	key := Fingerprint("prompt", "qwen-plus", 0.2, 4000)
	require.NoError(t, first.Put(key, "durable", "qwen-plus"))

	second, err := Open(dir)
	require.NoError(t, err)
	entry, outcome := second.Get(key)
	assert.Equal(t, Hit, outcome)
	assert.Equal(t, "durable", entry.Text)
}
