// Package paths provides centralized path handling for zcc.
// It implements XDG Base Directory specification compliance for the
// user-global directories and owns the layout of the per-project state
// directory.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/zcc/pkg/errors"
)

// Environment variable names
const (
	// EnvProjectRoot overrides the project directory (default: cwd)
	EnvProjectRoot = "ZCC_PROJECT_ROOT"

	// EnvGlobalDir overrides the user-global component directory
	EnvGlobalDir = "ZCC_GLOBAL_DIR"

	// EnvTemplatesDir overrides the built-in templates directory
	EnvTemplatesDir = "ZCC_TEMPLATES_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Layout of the project state directory. These names are part of the on-disk
// contract with existing installations and are not user-configurable.
const (
	// AppName is the directory name used under XDG base directories
	AppName = "zcc"

	// StateDirName is the per-project state directory
	StateDirName = ".zcc"

	// FileRegistryFile records every installed file
	FileRegistryFile = "file-registry.json"

	// BackupSuffix is appended to the file registry for its backup copy
	BackupSuffix = ".backup"

	// PacksLedgerFile maps installed pack names to version and install time
	PacksLedgerFile = "packs.json"

	// SnapshotDirName holds one manifest snapshot per installed pack
	SnapshotDirName = "packs"

	// SnapshotSuffix is the file suffix of manifest snapshots
	SnapshotSuffix = ".manifest.json"

	// ProjectConfigFile is the project configuration written by pack side effects
	ProjectConfigFile = "config.yaml"

	// PacksDirName is the directory of built-in packs inside the templates dir
	PacksDirName = "packs"
)

// Paths resolves every location zcc reads or writes for one project.
type Paths struct {
	projectRoot  string
	globalDir    string
	templatesDir string
	configDir    string
}

// New creates a Paths instance for projectRoot. An empty projectRoot falls
// back to $ZCC_PROJECT_ROOT and then to the current directory.
func New(projectRoot string) (*Paths, error) {
	if projectRoot == "" {
		projectRoot = os.Getenv(EnvProjectRoot)
	}
	if projectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPermissionOrIO, "failed to get current directory")
		}
		projectRoot = cwd
	}

	abs, err := filepath.Abs(expandHome(projectRoot))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPermissionOrIO, "failed to get absolute path for project root")
	}

	p := &Paths{
		projectRoot: abs,
		configDir:   filepath.Join(xdg.ConfigHome, AppName),
	}

	if dir := os.Getenv(EnvGlobalDir); dir != "" {
		p.globalDir = expandHome(dir)
	} else {
		p.globalDir = filepath.Join(xdg.DataHome, AppName)
	}

	p.templatesDir = findTemplatesDir()

	return p, nil
}

// WithDirs returns a Paths with explicit global and templates directories.
// Used by tests and by callers embedding zcc.
func WithDirs(projectRoot, globalDir, templatesDir string) *Paths {
	return &Paths{
		projectRoot:  projectRoot,
		globalDir:    globalDir,
		templatesDir: templatesDir,
		configDir:    filepath.Join(globalDir, "config"),
	}
}

// findTemplatesDir locates the built-in templates: $ZCC_TEMPLATES_DIR first,
// then zcc/templates under any XDG data dir.
func findTemplatesDir() string {
	if dir := os.Getenv(EnvTemplatesDir); dir != "" {
		return expandHome(dir)
	}
	for _, base := range append([]string{xdg.DataHome}, xdg.DataDirs...) {
		candidate := filepath.Join(base, AppName, "templates")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ProjectRoot returns the project directory.
func (p *Paths) ProjectRoot() string {
	return p.projectRoot
}

// StateDir returns <project>/.zcc
func (p *Paths) StateDir() string {
	return filepath.Join(p.projectRoot, StateDirName)
}

// FileRegistryPath returns the persisted file registry location.
func (p *Paths) FileRegistryPath() string {
	return filepath.Join(p.StateDir(), FileRegistryFile)
}

// FileRegistryBackupPath returns the file registry backup location.
func (p *Paths) FileRegistryBackupPath() string {
	return p.FileRegistryPath() + BackupSuffix
}

// PacksLedgerPath returns <project>/.zcc/packs.json
func (p *Paths) PacksLedgerPath() string {
	return filepath.Join(p.StateDir(), PacksLedgerFile)
}

// SnapshotDir returns <project>/.zcc/packs
func (p *Paths) SnapshotDir() string {
	return filepath.Join(p.StateDir(), SnapshotDirName)
}

// SnapshotPath returns the manifest snapshot path for a pack.
func (p *Paths) SnapshotPath(packName string) string {
	return filepath.Join(p.SnapshotDir(), packName+SnapshotSuffix)
}

// ProjectConfigPath returns <project>/.zcc/config.yaml
func (p *Paths) ProjectConfigPath() string {
	return filepath.Join(p.StateDir(), ProjectConfigFile)
}

// ComponentDir returns the project directory for a component subdirectory
// such as "modes".
func (p *Paths) ComponentDir(typeDir string) string {
	return filepath.Join(p.StateDir(), typeDir)
}

// GlobalDir returns the user-global component directory.
func (p *Paths) GlobalDir() string {
	return p.globalDir
}

// TemplatesDir returns the built-in templates directory, or "" when none is
// installed.
func (p *Paths) TemplatesDir() string {
	return p.templatesDir
}

// BuiltinPacksDir returns the directory of packs shipped with zcc.
func (p *Paths) BuiltinPacksDir() string {
	if p.templatesDir == "" {
		return ""
	}
	return filepath.Join(p.templatesDir, PacksDirName)
}

// ConfigDir returns the user configuration directory.
func (p *Paths) ConfigDir() string {
	return p.configDir
}

// ExpandHome expands a leading ~ to the home directory.
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}
