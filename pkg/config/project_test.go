package config

import (
	"testing"

	"github.com/arthur-debert/zcc/pkg/filesystem"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectConfigPath = "/project/.zcc/config.yaml"

func TestProjectConfigStore_LoadMissingIsEmpty(t *testing.T) {
	store := NewProjectConfigStore(filesystem.NewMemoryFS(), projectConfigPath)
	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DefaultMode)
	assert.Empty(t, cfg.CustomCommands)
}

func TestProjectConfigStore_PreservesUnknownKeys(t *testing.T) {
	fs := filesystem.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/project/.zcc", 0755))
	require.NoError(t, fs.WriteFile(projectConfigPath, []byte("defaultMode: architect\nteam: platform\n"), 0644))

	store := NewProjectConfigStore(fs, projectConfigPath)
	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "architect", cfg.DefaultMode)
	assert.Equal(t, "platform", cfg.Extra["team"])

	require.NoError(t, store.Save(cfg))
	data, err := fs.ReadFile(projectConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "team: platform")
}

func TestProjectConfigStore_ApplyAndRevert(t *testing.T) {
	store := NewProjectConfigStore(filesystem.NewMemoryFS(), projectConfigPath)

	applied, err := store.Apply(&manifest.Configuration{
		DefaultMode:    "engineer",
		CustomCommands: map[string]string{"review": "zcc workflow review", "ship": "zcc workflow ship"},
		ProjectSettings: map[string]interface{}{
			"strict":  true,
			"retries": 3,
			"lint":    map[string]interface{}{"level": "high"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "engineer", applied.Values[KeyDefaultMode])
	assert.Equal(t, "zcc workflow review", applied.Values["customCommands.review"])
	assert.Equal(t, true, applied.Values["projectSettings.strict"])
	assert.Empty(t, applied.Previous)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "engineer", cfg.DefaultMode)
	assert.Equal(t, 3, cfg.ProjectSettings["retries"])

	// The user takes over one command after install.
	cfg.CustomCommands["ship"] = "make ship"
	require.NoError(t, store.Save(cfg))

	// Recorded values may come back from JSON with other numeric types.
	applied.Values["projectSettings.retries"] = float64(3)

	reverted, err := store.Revert(applied)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"customCommands.review",
		"defaultMode",
		"projectSettings.lint",
		"projectSettings.retries",
		"projectSettings.strict",
	}, reverted)

	cfg, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DefaultMode)
	assert.Equal(t, map[string]string{"ship": "make ship"}, cfg.CustomCommands)
	assert.Empty(t, cfg.ProjectSettings)
}

func TestProjectConfigStore_ApplyEmptyConfiguration(t *testing.T) {
	fs := filesystem.NewMemoryFS()
	store := NewProjectConfigStore(fs, projectConfigPath)

	applied, err := store.Apply(nil)
	require.NoError(t, err)
	assert.Empty(t, applied.Values)
	assert.False(t, fs.Exists(projectConfigPath))

	reverted, err := store.Revert(nil)
	require.NoError(t, err)
	assert.Empty(t, reverted)
}

func TestProjectConfigStore_RevertLeavesOtherPacksValues(t *testing.T) {
	store := NewProjectConfigStore(filesystem.NewMemoryFS(), projectConfigPath)

	first, err := store.Apply(&manifest.Configuration{DefaultMode: "architect"})
	require.NoError(t, err)
	_, err = store.Apply(&manifest.Configuration{DefaultMode: "engineer"})
	require.NoError(t, err)

	reverted, err := store.Revert(first)
	require.NoError(t, err)
	assert.Empty(t, reverted)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "engineer", cfg.DefaultMode)
}

func TestProjectConfigStore_RevertRestoresReplacedValues(t *testing.T) {
	fs := filesystem.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/project/.zcc", 0755))
	require.NoError(t, fs.WriteFile(projectConfigPath, []byte(
		"defaultMode: researcher\ncustomCommands:\n  review: make review\nprojectSettings:\n  retries: 1\n"), 0644))
	store := NewProjectConfigStore(fs, projectConfigPath)

	applied, err := store.Apply(&manifest.Configuration{
		DefaultMode:     "engineer",
		CustomCommands:  map[string]string{"review": "zcc workflow review", "ship": "zcc workflow ship"},
		ProjectSettings: map[string]interface{}{"retries": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"defaultMode":             "researcher",
		"customCommands.review":   "make review",
		"projectSettings.retries": 1,
	}, applied.Previous)

	reverted, err := store.Revert(applied)
	require.NoError(t, err)
	assert.Len(t, reverted, 4)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "researcher", cfg.DefaultMode)
	assert.Equal(t, map[string]string{"review": "make review"}, cfg.CustomCommands)
	assert.Equal(t, 1, cfg.ProjectSettings["retries"])
}

func TestApplied_RebaseKeepsOriginalValue(t *testing.T) {
	fs := filesystem.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/project/.zcc", 0755))
	require.NoError(t, fs.WriteFile(projectConfigPath, []byte("defaultMode: researcher\n"), 0644))
	store := NewProjectConfigStore(fs, projectConfigPath)
	c := &manifest.Configuration{DefaultMode: "engineer", CustomCommands: map[string]string{"ship": "zcc ship"}}

	first, err := store.Apply(c)
	require.NoError(t, err)
	second, err := store.Apply(c)
	require.NoError(t, err)
	assert.Equal(t, "engineer", second.Previous[KeyDefaultMode])

	second.Rebase(first)
	assert.Equal(t, map[string]interface{}{KeyDefaultMode: "researcher"}, second.Previous)

	_, err = store.Revert(second)
	require.NoError(t, err)
	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "researcher", cfg.DefaultMode)
	assert.Empty(t, cfg.CustomCommands)
}
