package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/zcc/pkg/filesystem"
	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixed locations of an Env.
const (
	ProjectRoot  = "/project"
	GlobalDir    = "/home/user/.local/share/zcc"
	TemplatesDir = "/opt/zcc/templates"
)

// Env is an isolated in-memory zcc installation.
type Env struct {
	FS    types.FS
	Paths *paths.Paths
}

// NewEnv creates an empty project in a fresh in-memory filesystem.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	fs := filesystem.NewMemoryFS()
	require.NoError(t, fs.MkdirAll(ProjectRoot, 0755))
	return &Env{
		FS:    fs,
		Paths: paths.WithDirs(ProjectRoot, GlobalDir, TemplatesDir),
	}
}

// BuiltinPacksDir is where built-in packs live in the Env.
func (e *Env) BuiltinPacksDir() string {
	return e.Paths.BuiltinPacksDir()
}

// AddBuiltinPack writes a pack into the built-in pack directory.
func (e *Env) AddBuiltinPack(t *testing.T, b *PackBuilder) string {
	t.Helper()
	return b.WriteTo(t, e.FS, e.BuiltinPacksDir())
}

// ProjectFile returns an absolute path inside the project.
func (e *Env) ProjectFile(rel string) string {
	return filepath.Join(ProjectRoot, rel)
}

// WriteFile creates parents and writes content.
func WriteFile(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}

// AssertFileContent checks a file exists with exactly content.
func AssertFileContent(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	data, err := fs.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	assert.Equal(t, content, string(data), "content of %s", path)
}

// AssertExists checks a path exists.
func AssertExists(t *testing.T, fs types.FS, path string) {
	t.Helper()
	assert.True(t, fs.Exists(path), "expected %s to exist", path)
}

// AssertNotExists checks a path does not exist.
func AssertNotExists(t *testing.T, fs types.FS, path string) {
	t.Helper()
	assert.False(t, fs.Exists(path), "expected %s to be absent", path)
}
