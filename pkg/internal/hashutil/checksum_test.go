package hashutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	sum := Checksum([]byte("Hello, World!\nThis is a test file.\n"))

	assert.Contains(t, sum, "sha256:")
	assert.Len(t, sum, 71) // "sha256:" + 64 hex chars
	assert.Equal(t, sum, Checksum([]byte("Hello, World!\nThis is a test file.\n")))
	assert.NotEqual(t, sum, Checksum([]byte("something else")))
}

func TestChecksumOfEmptyInput(t *testing.T) {
	expectedEmptyFileHash := "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	assert.Equal(t, expectedEmptyFileHash, Checksum(nil))
	assert.Equal(t, expectedEmptyFileHash, Checksum([]byte{}))
}

func TestCalculateFileChecksum(t *testing.T) {
	fs := filesystem.NewOS()
	path := filepath.Join(t.TempDir(), "architect.md")
	content := []byte("# Architect\n")
	require.NoError(t, fs.WriteFile(path, content, 0644))

	sum, err := CalculateFileChecksum(fs, path)
	require.NoError(t, err)
	assert.Equal(t, Checksum(content), sum)
}

func TestCalculateFileChecksumMissingFile(t *testing.T) {
	fs := filesystem.NewMemoryFS()

	_, err := CalculateFileChecksum(fs, "/non/existent/file")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
}
