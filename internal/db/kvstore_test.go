package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *KVStore {
	database, err := InitDatabase(filepath.Join(t.TempDir(), "nested", "deck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewKVStore(database)
}

func TestKVStore_ReadWrite(t *testing.T) {
	store := setupTestDB(t)

	key := "powerslide:v1"

	// Read non-existent key
	val, err := store.Read(key)
	require.NoError(t, err)
	require.Nil(t, val)

	err = store.Write(key, []byte(`{"title":"one"}`))
	require.NoError(t, err)

	val, err = store.Read(key)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"title":"one"}`), val)

	// Upsert replaces the value
	err = store.Write(key, []byte(`{"title":"two"}`))
	require.NoError(t, err)

	val, err = store.Read(key)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"title":"two"}`), val)
}

func TestKVStore_KeysAreIndependent(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.Write("a", []byte("1")))
	require.NoError(t, store.Write("b", []byte("2")))

	val, err := store.Read("a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), val)

	val, err = store.Read("b")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), val)
}
