package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craterdog-bali/go-hsm-proxy/internal/store"
)

func TestLoad_AbsentReturnsFalse(t *testing.T) {
	s := store.New(t.TempDir(), nil)

	rec, present, err := s.Load()
	require.NoError(t, err)
	assert.False(t, present)
	assert.Nil(t, rec)
}

func TestStoreThenLoad_RoundTrips(t *testing.T) {
	s := store.New(t.TempDir(), nil)

	want := &store.Record{
		Tag:              uuid.New(),
		State:            store.StateTwoKeys,
		ProxyKey:         []byte("current-key-bytes-2345678901234"),
		PreviousProxyKey: []byte("previous-key-bytes-345678901234"),
	}
	require.NoError(t, s.Store(want))

	got, present, err := s.Load()
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, want.Tag, got.Tag)
	assert.Equal(t, want.State, got.State)
	assert.Equal(t, want.ProxyKey, got.ProxyKey)
	assert.Equal(t, want.PreviousProxyKey, got.PreviousProxyKey)
}

func TestStore_NoPartialFileLeftOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, nil)

	require.NoError(t, s.Store(&store.Record{Tag: uuid.New(), State: store.StateKeyless}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.FileName, entries[0].Name())
}

func TestDelete_RemovesFile(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, nil)
	require.NoError(t, s.Store(&store.Record{Tag: uuid.New(), State: store.StateKeyless}))

	require.NoError(t, s.Delete())

	_, err := os.Stat(filepath.Join(dir, store.FileName))
	assert.True(t, os.IsNotExist(err))

	// Deleting again is not an error.
	assert.NoError(t, s.Delete())
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	rec := &store.Record{Tag: uuid.New(), State: store.StateLoneKey, ProxyKey: []byte{1, 2, 3}}
	clone := rec.Clone()
	clone.ProxyKey[0] = 0xFF

	assert.Equal(t, byte(1), rec.ProxyKey[0])
	assert.Equal(t, byte(0xFF), clone.ProxyKey[0])
}
