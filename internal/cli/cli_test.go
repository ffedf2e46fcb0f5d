// internal/cli/cli_test.go
// TEST TYPE: Integration Tests
// DEPENDENCIES: Real filesystem under t.TempDir
// PURPOSE: Test the zcc commands end to end against a temporary project

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/filesystem"
	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	project   string
	templates string
	global    string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	env := &cliEnv{
		project:   filepath.Join(base, "project"),
		templates: filepath.Join(base, "templates"),
		global:    filepath.Join(base, "global"),
	}
	require.NoError(t, os.MkdirAll(env.project, 0755))

	t.Setenv(paths.EnvProjectRoot, env.project)
	t.Setenv(paths.EnvTemplatesDir, env.templates)
	t.Setenv(paths.EnvGlobalDir, env.global)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))
	t.Setenv("NO_COLOR", "1")
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	fs := filesystem.NewOS()
	packsDir := filepath.Join(env.templates, paths.PacksDirName)
	testutil.NewPack("essentials").
		Category("core").
		Modes("architect", "engineer").
		Workflows("review").
		PostInstall("Try the architect mode.").
		WriteTo(t, fs, packsDir)
	testutil.NewPack("frontend").Deps("essentials").Agents("designer").CompatibleWith("react").WriteTo(t, fs, packsDir)
	return env
}

// run executes zcc with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, v interface{}, args ...string) {
	t.Helper()
	out, err := run(t, append(args, "--format", "json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestPacksInstallUninstall(t *testing.T) {
	env := setupCLI(t)
	architect := filepath.Join(env.project, ".zcc", "modes", "architect.md")
	engineer := filepath.Join(env.project, ".zcc", "modes", "engineer.md")
	designer := filepath.Join(env.project, ".zcc", "agents", "designer.md")

	var installed struct {
		Success bool     `json:"success"`
		Skipped []string `json:"skipped"`
		Results []struct {
			Pack string `json:"pack"`
		} `json:"results"`
		PostInstallMessage string `json:"postInstallMessage"`
	}
	runJSON(t, &installed, "packs", "install", "frontend")
	assert.True(t, installed.Success)
	require.Len(t, installed.Results, 2)
	assert.Equal(t, "essentials", installed.Results[0].Pack)
	assert.FileExists(t, architect)
	assert.FileExists(t, designer)

	var ledger []struct {
		Name string `json:"name"`
	}
	runJSON(t, &ledger, "packs", "installed")
	require.Len(t, ledger, 2)

	require.NoError(t, os.WriteFile(engineer, []byte("my notes"), 0644))
	var modified []string
	runJSON(t, &modified, "files", "verify")
	assert.Equal(t, []string{engineer}, modified)

	var uninstalled struct {
		Success   bool     `json:"success"`
		Preserved []string `json:"preserved"`
	}
	runJSON(t, &uninstalled, "packs", "uninstall", "essentials", "--yes")
	assert.True(t, uninstalled.Success)
	assert.Equal(t, []string{engineer}, uninstalled.Preserved)
	assert.NoFileExists(t, architect)
	assert.FileExists(t, engineer)
	assert.FileExists(t, designer)
}

func TestPacksInstall_Errors(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "packs", "install", "ghost")
	assert.True(t, errors.IsNotFound(err))

	_, err = run(t, "packs", "install")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "no terminal to choose a pack")
}

func TestPacksList(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "packs", "list", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "essentials")
	assert.Contains(t, out, "frontend")

	var rows []packRow
	runJSON(t, &rows, "packs", "recommend", "react")
	require.Len(t, rows, 1)
	assert.Equal(t, "frontend", rows[0].Name)

	runJSON(t, &rows, "packs", "search", "--category", "core")
	require.Len(t, rows, 1)
	assert.Equal(t, "essentials", rows[0].Name)
}

func TestPacksInfoAndValidate(t *testing.T) {
	setupCLI(t)

	var info struct {
		Source   string `json:"source"`
		Manifest struct {
			Dependencies []string `json:"dependencies"`
		} `json:"manifest"`
	}
	runJSON(t, &info, "packs", "info", "frontend")
	assert.Equal(t, "builtin", info.Source)
	assert.Equal(t, []string{"essentials"}, info.Manifest.Dependencies)

	out, err := run(t, "packs", "validate", "frontend")
	require.NoError(t, err)
	assert.Contains(t, out, "resolve")
}

func TestComponentsCommands(t *testing.T) {
	env := setupCLI(t)
	testutil.WriteFile(t, filesystem.NewOS(), filepath.Join(env.templates, "modes", "architect.md"), "---\ndescription: builtin architect\n---\n")
	testutil.WriteFile(t, filesystem.NewOS(), filepath.Join(env.project, ".zcc", "modes", "architect.md"), "---\ndescription: project architect\n---\n")

	var rows []componentRow
	runJSON(t, &rows, "components", "find", "arch")
	require.Len(t, rows, 1)
	assert.Equal(t, "project", rows[0].Scope)
	assert.Equal(t, 80, rows[0].Score)

	var conflicts []struct {
		Name   string   `json:"Name"`
		Scopes []string `json:"Scopes"`
	}
	runJSON(t, &conflicts, "components", "conflicts")
	require.Len(t, conflicts, 1)
	assert.Equal(t, []string{"project", "builtin"}, conflicts[0].Scopes)

	out, err := run(t, "components", "find", "archietct", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Did you mean: architect?")

	_, err = run(t, "components", "list", "widgets")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "zcc version")
}
