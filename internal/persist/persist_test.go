package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testReadWrite(t *testing.T, store KVStore) {
	key := "powerslide:v1"

	val, err := store.Read(key)
	require.NoError(t, err)
	require.Nil(t, val)

	require.NoError(t, store.Write(key, []byte(`{"title":"a"}`)))
	val, err = store.Read(key)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"title":"a"}`), val)

	require.NoError(t, store.Write(key, []byte(`{"title":"b"}`)))
	val, err = store.Read(key)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"title":"b"}`), val)
}

func TestMemoryKV_ReadWrite(t *testing.T) {
	testReadWrite(t, NewMemoryKV())
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	store := NewMemoryKV()
	data := []byte("abc")
	require.NoError(t, store.Write("k", data))
	data[0] = 'x'

	val, err := store.Read("k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), val)
}

func TestFileKV_ReadWrite(t *testing.T) {
	store, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	testReadWrite(t, store)
}

func TestFileKV_NoTempFileLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, store.Write("deck:v1", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ".json", filepath.Ext(entries[0].Name()))
}
