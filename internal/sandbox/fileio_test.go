package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	e := newTestExecutor(t)

	write := e.WriteFile("data/out.txt", "hello world")
	require.True(t, write.Success)
	assert.Equal(t, 11, write.Bytes)

	read := e.ReadFile("data/out.txt", 0)
	assert.Empty(t, read.Error)
	assert.Equal(t, "hello world", read.Content)
	assert.False(t, read.Truncated)
}

func TestWriteFile_CreatesParents(t *testing.T) {
	e := newTestExecutor(t)

	res := e.WriteFile("a/b/c/deep.txt", "x")
	require.True(t, res.Success)

	_, err := os.Stat(filepath.Join(e.Root(), "a", "b", "c", "deep.txt"))
	assert.NoError(t, err)
}

func TestWriteFile_Escape(t *testing.T) {
	e := newTestExecutor(t)

	res := e.WriteFile("../escape.txt", "x")
	assert.False(t, res.Success)
	assert.Equal(t, "path must be inside workspace", res.Error)
}

func TestReadFile_NotFound(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ReadFile("missing.txt", 0)
	assert.Equal(t, "not_found", res.Error)
}

func TestReadFile_NotAFile(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, os.MkdirAll(filepath.Join(e.Root(), "dir"), 0o755))

	res := e.ReadFile("dir", 0)
	assert.Equal(t, "not_a_file", res.Error)
}

func TestReadFile_Escape(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ReadFile("/etc/passwd", 0)
	assert.Equal(t, "path must be inside workspace", res.Error)
}

func TestReadFile_Truncation(t *testing.T) {
	e := newTestExecutor(t)
	require.True(t, e.WriteFile("big.txt", strings.Repeat("a", 100)).Success)

	res := e.ReadFile("big.txt", 10)
	assert.Empty(t, res.Error)
	assert.Len(t, res.Content, 10)
	assert.True(t, res.Truncated)
}

func TestReadFile_InvalidUTF8Replaced(t *testing.T) {
	e := newTestExecutor(t)
	path := filepath.Join(e.Root(), "binary.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 'o', 'k'}, 0o644))

	res := e.ReadFile("binary.bin", 0)
	assert.Empty(t, res.Error)
	assert.Contains(t, res.Content, "ok")
	assert.Contains(t, res.Content, "�")
}
