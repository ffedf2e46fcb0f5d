// Package manager is the entry point for installing and uninstalling
// starter packs in a project. It ties the pack registry, the installer, the
// file registry, the installed packs ledger and project configuration
// together.
//
// A dependency chain is installed in order and stops at the first failure.
// Packs installed earlier in the chain stay installed.
package manager

import (
	"context"
	"strings"
	"time"

	"github.com/arthur-debert/zcc/pkg/config"
	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/fileregistry"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"github.com/arthur-debert/zcc/pkg/packs/installer"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/packs/registry"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/state"
	"github.com/arthur-debert/zcc/pkg/types"
)

// Options configure a Manager.
type Options struct {
	Paths    *paths.Paths
	FS       types.FS
	Registry *registry.Registry
	// Logger receives user-facing progress. Defaults to the zerolog adapter.
	Logger  types.Logger
	Metrics *metrics.Metrics
}

// Manager manages the packs of one project.
type Manager struct {
	paths     *paths.Paths
	fs        types.FS
	registry  *registry.Registry
	files     *fileregistry.Registry
	ledger    *state.Ledger
	snapshots *state.SnapshotStore
	project   *config.ProjectConfigStore
	installer *installer.Installer
	logger    types.Logger
	now       func() time.Time
}

// New creates a Manager.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewZerologLogger("manager")
	}

	ledger := state.NewLedger(opts.FS, opts.Paths.PacksLedgerPath())
	files := fileregistry.New(opts.FS, opts.Paths.FileRegistryPath(), ledger)
	snapshots := state.NewSnapshotStore(opts.FS, opts.Paths.SnapshotPath)

	return &Manager{
		paths:     opts.Paths,
		fs:        opts.FS,
		registry:  opts.Registry,
		files:     files,
		ledger:    ledger,
		snapshots: snapshots,
		project:   config.NewProjectConfigStore(opts.FS, opts.Paths.ProjectConfigPath()),
		installer: installer.New(opts.FS, opts.Paths, files, snapshots, ledger, opts.Metrics),
		logger:    logger,
		now:       time.Now,
	}
}

// Registry returns the pack registry.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Files returns the project's file registry.
func (m *Manager) Files() *fileregistry.Registry {
	return m.files
}

// ProjectConfig returns the project configuration store.
func (m *Manager) ProjectConfig() *config.ProjectConfigStore {
	return m.project
}

// InstallOptions tune InstallPack.
type InstallOptions struct {
	Force bool
	// Source, when set, is tried first for the requested pack.
	Source string
}

// InstallResult describes a pack install including its dependencies.
type InstallResult struct {
	Pack    string `json:"pack"`
	Success bool   `json:"success"`
	// Results holds one installer result per pack installed, dependencies
	// first.
	Results []*installer.Result `json:"results"`
	// Skipped lists dependencies that were already installed.
	Skipped            []string               `json:"skipped"`
	Errors             []string               `json:"errors"`
	Warnings           []string               `json:"warnings,omitempty"`
	AppliedConfig      map[string]interface{} `json:"appliedConfig,omitempty"`
	PostInstallMessage string                 `json:"postInstallMessage,omitempty"`
}

// Installed returns the result for the requested pack, or nil when the
// chain stopped before it.
func (r *InstallResult) Installed() *installer.Result {
	for _, res := range r.Results {
		if res.Pack == r.Pack {
			return res
		}
	}
	return nil
}

// InstallPack installs name after every dependency not yet installed.
// Unresolvable dependencies fail with ErrMissingDependency or
// ErrCircularDependency and an unsuccessful result; nothing is written in
// that case.
func (m *Manager) InstallPack(ctx context.Context, name string, opts InstallOptions) (*InstallResult, error) {
	result := &InstallResult{Pack: name, Errors: []string{}, Skipped: []string{}}

	root, err := m.registry.LoadPack(ctx, name, opts.Source)
	if err != nil {
		return nil, err
	}

	resolution := m.registry.ResolveDependencies(ctx, name)
	if len(resolution.Missing) > 0 {
		result.Errors = append(result.Errors, "missing dependencies: "+strings.Join(resolution.Missing, ", "))
		return result, errors.Newf(errors.ErrMissingDependency, "pack %q has missing dependencies: %s", name, strings.Join(resolution.Missing, ", ")).
			WithDetail("missing", resolution.Missing)
	}
	if len(resolution.Circular) > 0 {
		result.Errors = append(result.Errors, "circular dependencies: "+strings.Join(resolution.Circular, ", "))
		return result, errors.Newf(errors.ErrCircularDependency, "pack %q has circular dependencies: %s", name, strings.Join(resolution.Circular, ", ")).
			WithDetail("circular", resolution.Circular)
	}

	for _, dep := range resolution.Resolved {
		if m.IsInstalled(dep) {
			result.Skipped = append(result.Skipped, dep)
			continue
		}
		loaded, err := m.registry.LoadPack(ctx, dep, "")
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			return result, nil
		}
		m.logger.Info("Installing dependency %s@%s", dep, loaded.Structure.Manifest.Version)
		if !m.installOne(ctx, loaded, opts.Force, false, result) {
			return result, nil
		}
	}

	m.logger.Info("Installing %s@%s from %s", name, root.Structure.Manifest.Version, root.SourceName)
	if !m.installOne(ctx, root, opts.Force, true, result) {
		return result, nil
	}

	result.Success = true
	result.PostInstallMessage = root.Structure.Manifest.PostInstallMessage()
	m.logger.Success("Installed %s", name)
	return result, nil
}

// installOne installs a single pack and records it. Configuration is applied
// only for the requested pack.
func (m *Manager) installOne(ctx context.Context, loaded *registry.Loaded, force, requested bool, result *InstallResult) bool {
	mf := loaded.Structure.Manifest
	res := m.installer.Install(ctx, loaded.Structure, loaded.Source, installer.Options{Force: force})
	result.Results = append(result.Results, res)
	if !res.Success {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, mf.Name+": "+e)
		}
		m.logger.Error("Failed to install %s", mf.Name)
		return false
	}

	now := m.now()
	snapshot := &state.Snapshot{
		Manifest:    mf,
		Source:      loaded.SourceName,
		InstalledAt: now,
	}
	if requested && !mf.Configuration.IsEmpty() {
		applied, err := m.project.Apply(mf.Configuration)
		if err != nil {
			result.Warnings = append(result.Warnings, "configuration not applied: "+err.Error())
		} else {
			if earlier := m.snapshots.Load(mf.Name); earlier != nil {
				applied.Rebase(&config.Applied{Values: earlier.AppliedConfig, Previous: earlier.PreviousConfig})
			}
			result.AppliedConfig = applied.Values
			snapshot.AppliedConfig = applied.Values
			snapshot.PreviousConfig = applied.Previous
		}
	}

	if err := m.snapshots.Save(snapshot); err != nil {
		result.Warnings = append(result.Warnings, "manifest snapshot not written: "+err.Error())
	}
	if err := m.ledger.Add(mf.Name, state.InstalledPack{
		Version:     mf.Version,
		InstalledAt: now,
		Source:      loaded.SourceName,
	}); err != nil {
		result.Warnings = append(result.Warnings, "installed packs ledger not updated: "+err.Error())
	}
	return true
}

// UninstallResult describes an uninstall.
type UninstallResult struct {
	*installer.Result
	RevertedConfig []string `json:"revertedConfig"`
	// Dependents are installed packs that declare a dependency on the
	// uninstalled pack.
	Dependents []string `json:"dependents,omitempty"`
}

// UninstallPack removes a pack's files, reverses the configuration it set
// and forgets it. Packs that are not installed fail with ErrNotInstalled.
func (m *Manager) UninstallPack(ctx context.Context, name string) (*UninstallResult, error) {
	snapshot := m.snapshots.Load(name)

	res, err := m.installer.Uninstall(ctx, name, m.originalSource(ctx, name, snapshot))
	if err != nil {
		return nil, err
	}
	result := &UninstallResult{Result: res, RevertedConfig: []string{}, Dependents: m.Dependents(name)}

	if snapshot != nil && len(snapshot.AppliedConfig) > 0 {
		reverted, err := m.project.Revert(&config.Applied{
			Values:   snapshot.AppliedConfig,
			Previous: snapshot.PreviousConfig,
		})
		if err != nil {
			res.Errors = append(res.Errors, "configuration not reverted: "+err.Error())
		} else {
			result.RevertedConfig = reverted
		}
	}

	if err := m.snapshots.Remove(name); err != nil {
		res.Errors = append(res.Errors, err.Error())
	}
	if err := m.ledger.Remove(name); err != nil {
		res.Errors = append(res.Errors, err.Error())
	}
	res.Success = len(res.Errors) == 0

	for _, path := range res.Preserved {
		m.logger.Warn("Kept modified file %s", path)
	}
	if len(result.Dependents) > 0 {
		m.logger.Warn("Installed packs depend on %s: %s", name, strings.Join(result.Dependents, ", "))
	}
	m.logger.Success("Uninstalled %s", name)
	return result, nil
}

// originalSource finds the source a pack was installed from: the one
// recorded in its snapshot or ledger entry, else whichever source has it now.
func (m *Manager) originalSource(ctx context.Context, name string, snapshot *state.Snapshot) sources.Source {
	recorded := ""
	if snapshot != nil {
		recorded = snapshot.Source
	}
	if recorded == "" {
		if entry, ok := m.ledger.Get(name); ok {
			recorded = entry.Source
		}
	}
	if recorded != "" {
		if src, ok := m.registry.Source(recorded); ok {
			return src
		}
	}
	if loaded, err := m.registry.LoadPack(ctx, name, ""); err == nil {
		return loaded.Source
	}
	return nil
}

// Dependents lists installed packs whose snapshot declares a dependency on
// name.
func (m *Manager) Dependents(name string) []string {
	var deps []string
	for _, installed := range m.ledger.List() {
		if installed.Name == name {
			continue
		}
		snap := m.snapshots.Load(installed.Name)
		if snap == nil {
			continue
		}
		for _, dep := range snap.Manifest.Dependencies {
			if dep == name {
				deps = append(deps, installed.Name)
				break
			}
		}
	}
	return deps
}

// ListPacks returns every available pack with its source.
func (m *Manager) ListPacks(ctx context.Context) []*registry.Loaded {
	return m.registry.Available(ctx)
}

// HasPack reports whether any source offers name.
func (m *Manager) HasPack(ctx context.Context, name string) bool {
	return m.registry.HasPack(ctx, name)
}

// InstalledPacks returns the ledger, sorted by name.
func (m *Manager) InstalledPacks() []state.Installed {
	return m.ledger.List()
}

// IsInstalled reports whether the ledger lists name.
func (m *Manager) IsInstalled(name string) bool {
	_, ok := m.ledger.Get(name)
	return ok
}

// PackInfo describes a pack and its state in the project.
type PackInfo struct {
	Manifest   *manifest.Manifest `json:"manifest"`
	SourceName string             `json:"source"`
	// Path is where the source serves the pack from; empty when only the
	// snapshot knows the pack.
	Path      string               `json:"path,omitempty"`
	Installed *state.InstalledPack `json:"installed,omitempty"`
	Files     []string             `json:"files"`
	Modified  []string             `json:"modified"`
}

// PackInfo describes name, falling back to its snapshot when no source
// offers it anymore.
func (m *Manager) PackInfo(ctx context.Context, name string) (*PackInfo, error) {
	info := &PackInfo{Files: m.files.PackFiles(name), Modified: []string{}}
	if entry, ok := m.ledger.Get(name); ok {
		info.Installed = &entry
	}
	for _, path := range info.Files {
		if m.files.IsFileModified(path) {
			info.Modified = append(info.Modified, path)
		}
	}

	loaded, err := m.registry.LoadPack(ctx, name, "")
	if err == nil {
		info.Manifest = loaded.Structure.Manifest
		info.SourceName = loaded.SourceName
		info.Path = loaded.Structure.Path
		return info, nil
	}

	if snap := m.snapshots.Load(name); snap != nil {
		info.Manifest = snap.Manifest
		info.SourceName = snap.Source
		return info, nil
	}
	return nil, err
}

// Search filters available packs.
func (m *Manager) Search(ctx context.Context, filter registry.Filter) []*manifest.Structure {
	return m.registry.SearchPacks(ctx, filter)
}

// Recommend lists packs compatible with a project type.
func (m *Manager) Recommend(ctx context.Context, projectType string) []*manifest.Structure {
	return m.registry.RecommendedPacks(ctx, projectType)
}

// Validate checks that a pack's dependencies resolve.
func (m *Manager) Validate(ctx context.Context, name string) registry.Validation {
	return m.registry.ValidateDependencies(ctx, name)
}
