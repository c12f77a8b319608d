package sim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemMountFailsUntilFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	fs := NewFilesystem(dir)

	assert.Error(t, fs.Mount())
	require.NoError(t, fs.Format())
	assert.NoError(t, fs.Mount())
}

func TestOpenFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	fs := NewFilesystem(dir)
	open := fs.Open("params.bin")

	f, err := open()
	require.NoError(t, err)
	_, err = f.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, f.Flush())

	f, err = open()
	require.NoError(t, err)
	size, err := f.Size()
	require.NoError(t, err)
	buf := make([]byte, size)
	_, err = f.Read(buf)
	require.NoError(t, err)
	require.NoError(t, f.Flush())
	assert.Equal(t, "hello world", string(buf))
}

// A shorter second write must not leave the first write's tail on disk,
// since paramstore.FilePersister.Save writes once with no explicit seek or
// truncate of its own.
func TestOpenFileShorterWriteTruncatesStaleTail(t *testing.T) {
	dir := t.TempDir()
	fs := NewFilesystem(dir)
	open := fs.Open("aop.bin")

	f, err := open()
	require.NoError(t, err)
	_, err = f.Write([]byte("a long first record"))
	require.NoError(t, err)
	require.NoError(t, f.Flush())

	f, err = open()
	require.NoError(t, err)
	_, err = f.Write([]byte("short"))
	require.NoError(t, err)
	require.NoError(t, f.Flush())

	f, err = open()
	require.NoError(t, err)
	size, err := f.Size()
	require.NoError(t, err)
	buf := make([]byte, size)
	_, err = f.Read(buf)
	require.NoError(t, err)
	require.NoError(t, f.Flush())
	assert.Equal(t, "short", string(buf))
}
