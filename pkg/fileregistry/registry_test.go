// pkg/fileregistry/registry_test.go
// TEST TYPE: Unit Tests
// DEPENDENCIES: In-memory filesystem
// PURPOSE: Test file ownership, conflicts, modification tracking and recovery

package fileregistry

import (
	"testing"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/filesystem"
	"github.com/arthur-debert/zcc/pkg/internal/hashutil"
	"github.com/arthur-debert/zcc/pkg/state"
	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	registryPath = "/project/.zcc/file-registry.json"
	ledgerPath   = "/project/.zcc/packs.json"
)

func setup(t *testing.T) (types.FS, *Registry) {
	t.Helper()
	fs := filesystem.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/project/.zcc/modes", 0755))
	return fs, New(fs, registryPath, state.NewLedger(fs, ledgerPath))
}

func write(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}

func TestRegisterFile_RecordsChecksum(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/engineer.md", "# Engineer")

	require.NoError(t, reg.RegisterPack("essentials", "1.0.0"))
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/engineer.md", "essentials", "modes/engineer.md"))

	info := reg.FileInfo("/project/.zcc/modes/engineer.md")
	require.NotNil(t, info)
	assert.Equal(t, "essentials", info.Pack)
	assert.Equal(t, "modes/engineer.md", info.OriginalPath)
	assert.Equal(t, hashutil.Checksum([]byte("# Engineer")), info.Checksum)
	assert.False(t, info.Modified)
	assert.Equal(t, []string{"/project/.zcc/modes/engineer.md"}, reg.PackFiles("essentials"))

	reloaded := New(fs, registryPath, nil)
	assert.Equal(t, info.Checksum, reloaded.FileInfo("/project/.zcc/modes/engineer.md").Checksum)
	assert.True(t, fs.Exists(registryPath+".backup"))
}

func TestSave_BackupHoldsPreviousPrimary(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/a.md", "a")

	require.NoError(t, reg.RegisterPack("p", "1.0.0"))
	assert.False(t, fs.Exists(registryPath+".backup"), "first save has nothing to back up")
	first, err := fs.ReadFile(registryPath)
	require.NoError(t, err)

	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/a.md", "p", "modes/a.md"))
	backup, err := fs.ReadFile(registryPath + ".backup")
	require.NoError(t, err)
	assert.Equal(t, string(first), string(backup))

	// A corrupt primary is not copied over the last good backup.
	write(t, fs, registryPath, "{corrupt")
	require.NoError(t, reg.UnregisterFile("/project/.zcc/modes/a.md"))
	backup, err = fs.ReadFile(registryPath + ".backup")
	require.NoError(t, err)
	assert.Equal(t, string(first), string(backup))
}

func TestRegisterPack_ReinstallKeepsOwnedFiles(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/a.md", "a")
	write(t, fs, "/project/.zcc/modes/b.md", "b")
	write(t, fs, "/project/.zcc/modes/other.md", "other")
	require.NoError(t, reg.RegisterPack("p", "1.0.0"))
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/a.md", "p", "modes/a.md"))
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/b.md", "p", "modes/b.md"))
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/other.md", "q", "modes/other.md"))

	require.NoError(t, reg.RegisterPack("p", "2.0.0"))
	assert.Equal(t, "2.0.0", reg.Packs()["p"].Version)
	assert.Equal(t, []string{"/project/.zcc/modes/a.md", "/project/.zcc/modes/b.md"}, reg.PackFiles("p"))

	require.NoError(t, reg.UnregisterPack("p"))
	assert.Nil(t, reg.FileInfo("/project/.zcc/modes/b.md"))
	assert.Equal(t, "q", reg.FileInfo("/project/.zcc/modes/other.md").Pack)
}

func TestRegisterFile_MissingFileWritesNothing(t *testing.T) {
	_, reg := setup(t)

	err := reg.RegisterFile("/project/.zcc/modes/ghost.md", "essentials", "modes/ghost.md")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
	assert.Nil(t, reg.FileInfo("/project/.zcc/modes/ghost.md"))
	assert.False(t, reg.HasPack("essentials"))
}

func TestRegisterFile_CreatesPackEntry(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/a.md", "a")

	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/a.md", "implicit", "modes/a.md"))
	assert.True(t, reg.HasPack("implicit"))
	assert.Equal(t, []string{"/project/.zcc/modes/a.md"}, reg.PackFiles("implicit"))
}

func TestRegisterFile_TransfersOwnership(t *testing.T) {
	fs, reg := setup(t)
	shared := "/project/.zcc/modes/shared.md"
	write(t, fs, shared, "from p1")

	require.NoError(t, reg.RegisterPack("p1", "1.0.0"))
	require.NoError(t, reg.RegisterFile(shared, "p1", "modes/shared.md"))

	write(t, fs, shared, "from p2")
	require.NoError(t, reg.RegisterPack("p2", "1.0.0"))
	require.NoError(t, reg.RegisterFile(shared, "p2", "modes/shared.md"))

	assert.Equal(t, "p2", reg.FileInfo(shared).Pack)
	assert.Empty(t, reg.PackFiles("p1"))
	assert.Equal(t, []string{shared}, reg.PackFiles("p2"))
}

func TestRegisterUnregisterPackRoundTrip(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/x.md", "x")
	write(t, fs, "/project/.zcc/modes/y.md", "y")

	require.NoError(t, reg.RegisterPack("x", "1.0.0"))
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/x.md", "x", "modes/x.md"))
	require.NoError(t, reg.RegisterPack("y", "1.0.0"))
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/y.md", "y", "modes/y.md"))

	require.NoError(t, reg.UnregisterPack("x"))

	data := New(fs, registryPath, nil).Load()
	_, ok := data.Packs["x"]
	assert.False(t, ok)
	for path, entry := range data.Files {
		assert.NotEqual(t, "x", entry.Pack, path)
	}
	assert.Contains(t, data.Files, "/project/.zcc/modes/y.md")
}

func TestUnregisterFile(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/a.md", "a")
	write(t, fs, "/project/.zcc/modes/b.md", "b")
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/a.md", "p", "modes/a.md"))
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/b.md", "p", "modes/b.md"))

	require.NoError(t, reg.UnregisterFile("/project/.zcc/modes/a.md"))
	require.NoError(t, reg.UnregisterFile("/project/.zcc/modes/unknown.md"))

	assert.Nil(t, reg.FileInfo("/project/.zcc/modes/a.md"))
	assert.Equal(t, []string{"/project/.zcc/modes/b.md"}, reg.PackFiles("p"))
}

func TestCheckConflicts(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/a.md", "a")
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/a.md", "p1", "modes/a.md"))

	candidates := []string{"/project/.zcc/modes/a.md", "/project/.zcc/modes/new.md"}
	assert.Equal(t, []Conflict{{Path: "/project/.zcc/modes/a.md", ExistingPack: "p1"}},
		reg.CheckConflicts(candidates, "p2"))
	assert.Empty(t, reg.CheckConflicts(candidates, "p1"))
}

func TestIsFileModified(t *testing.T) {
	fs, reg := setup(t)
	path := "/project/.zcc/modes/a.md"
	write(t, fs, path, "original")
	require.NoError(t, reg.RegisterFile(path, "p", "modes/a.md"))

	assert.False(t, reg.IsFileModified(path))
	assert.False(t, reg.IsFileModified("/not/registered"))

	write(t, fs, path, "edited")
	assert.True(t, reg.IsFileModified(path))
	assert.True(t, New(fs, registryPath, nil).FileInfo(path).Modified, "flag is persisted")

	write(t, fs, path, "original")
	assert.False(t, reg.IsFileModified(path))

	require.NoError(t, fs.Remove(path))
	assert.True(t, reg.IsFileModified(path), "missing files cannot be verified")
}

func TestDetectModificationsAndStats(t *testing.T) {
	fs, reg := setup(t)
	for _, name := range []string{"a", "b", "c"} {
		path := "/project/.zcc/modes/" + name + ".md"
		write(t, fs, path, name)
		require.NoError(t, reg.RegisterFile(path, "p", "modes/"+name+".md"))
	}
	require.NoError(t, reg.RegisterPack("empty", "0.1.0"))

	write(t, fs, "/project/.zcc/modes/c.md", "changed")
	require.NoError(t, fs.Remove("/project/.zcc/modes/a.md"))

	assert.Equal(t, []string{"/project/.zcc/modes/a.md", "/project/.zcc/modes/c.md"}, reg.DetectModifications())
	assert.Equal(t, Stats{TotalFiles: 3, TotalPacks: 2, ModifiedFiles: 2}, reg.Stats())
}

func TestLookupsOnUnknownEntries(t *testing.T) {
	_, reg := setup(t)

	assert.Nil(t, reg.FileInfo("/nope"))
	assert.NotNil(t, reg.PackFiles("nope"))
	assert.Empty(t, reg.PackFiles("nope"))
	assert.Empty(t, reg.Packs())
}

func TestLoad_RecoveryChain(t *testing.T) {
	t.Run("missing files yield an empty registry", func(t *testing.T) {
		_, reg := setup(t)
		data := reg.Load()
		assert.Equal(t, FormatVersion, data.Version)
		assert.Empty(t, data.Files)
		assert.Empty(t, data.Packs)
	})

	t.Run("corrupt primary falls back to backup", func(t *testing.T) {
		fs, reg := setup(t)
		write(t, fs, "/project/.zcc/modes/a.md", "a")
		write(t, fs, "/project/.zcc/modes/b.md", "b")
		require.NoError(t, reg.RegisterPack("p", "1.0.0"))
		require.NoError(t, reg.RegisterFile("/project/.zcc/modes/a.md", "p", "modes/a.md"))
		require.NoError(t, reg.RegisterFile("/project/.zcc/modes/b.md", "p", "modes/b.md"))

		write(t, fs, registryPath, "{corrupt")

		// The backup is the primary as it was before the last save.
		data := New(fs, registryPath, nil).Load()
		require.Contains(t, data.Packs, "p")
		assert.Equal(t, "1.0.0", data.Packs["p"].Version)
		assert.Equal(t, "p", data.Files["/project/.zcc/modes/a.md"].Pack)
		assert.NotContains(t, data.Files, "/project/.zcc/modes/b.md")
	})

	t.Run("unusable registry is rebuilt from the ledger", func(t *testing.T) {
		fs, _ := setup(t)
		ledger := state.NewLedger(fs, ledgerPath)
		require.NoError(t, ledger.Add("essentials", state.InstalledPack{Version: "2.1.0", InstalledAt: time.Now()}))
		write(t, fs, registryPath, "garbage")
		write(t, fs, registryPath+".backup", "garbage")

		data := New(fs, registryPath, ledger).Load()
		require.Contains(t, data.Packs, "essentials")
		assert.Equal(t, "2.1.0", data.Packs["essentials"].Version)
		assert.Empty(t, data.Packs["essentials"].Files)
		assert.Empty(t, data.Files)
	})

	t.Run("corrupt everything without ledger yields empty", func(t *testing.T) {
		fs, _ := setup(t)
		write(t, fs, registryPath, "garbage")

		data := New(fs, registryPath, nil).Load()
		assert.Empty(t, data.Packs)
		assert.Empty(t, data.Files)
	})
}

func TestRebuild(t *testing.T) {
	fs, reg := setup(t)
	write(t, fs, "/project/.zcc/modes/a.md", "a")
	require.NoError(t, reg.RegisterFile("/project/.zcc/modes/a.md", "stale", "modes/a.md"))

	ledger := state.NewLedger(fs, ledgerPath)
	require.NoError(t, ledger.Add("alpha", state.InstalledPack{Version: "1.0.0"}))

	data := reg.Rebuild()
	assert.Equal(t, []string{"alpha"}, keys(data.Packs))
	assert.Empty(t, data.Files)

	persisted := New(fs, registryPath, nil).Load()
	assert.Equal(t, []string{"alpha"}, keys(persisted.Packs))
}

func keys(m map[string]*PackEntry) []string {
	out := []string{}
	for k := range m {
		out = append(out, k)
	}
	return out
}
