package fileregistry

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/internal/hashutil"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/state"
	"github.com/arthur-debert/zcc/pkg/types"
)

// Registry is the persisted file ownership map of one project.
type Registry struct {
	fs         types.FS
	path       string
	backupPath string
	ledger     *state.Ledger
	data       *Data
	now        func() time.Time
}

// New creates a registry persisted at path. ledger, when non-nil, is the
// last-resort source for rebuilding pack entries.
func New(fs types.FS, path string, ledger *state.Ledger) *Registry {
	return &Registry{
		fs:         fs,
		path:       path,
		backupPath: path + paths.BackupSuffix,
		ledger:     ledger,
		now:        time.Now,
	}
}

// Path returns the primary registry file.
func (r *Registry) Path() string {
	return r.path
}

func (r *Registry) current() *Data {
	if r.data == nil {
		return r.Load()
	}
	return r.data
}

// save copies the current primary file to the backup, then writes the
// primary. A primary that does not parse is not copied, so the backup keeps
// the last good version.
func (r *Registry) save() error {
	raw, err := json.MarshalIndent(r.current(), "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode file registry")
	}
	raw = append(raw, '\n')

	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot create %s", filepath.Dir(r.path))
	}
	if previous, ok := r.readValid(r.path); ok {
		if err := r.fs.WriteFile(r.backupPath, previous, 0644); err != nil {
			return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot write %s", r.backupPath)
		}
	}
	if err := r.fs.WriteFile(r.path, raw, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot write %s", r.path)
	}
	return nil
}

// readValid returns the bytes of path when they decode as registry data.
func (r *Registry) readValid(path string) ([]byte, bool) {
	raw, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false
	}
	return raw, true
}

// RegisterPack creates or refreshes the entry of a pack. Files the pack
// already owns stay attributed to it, so a reinstall that drops a component
// still removes the old file on uninstall.
func (r *Registry) RegisterPack(name, version string) error {
	data := r.current()
	owned := []string{}
	for _, path := range r.sortedPaths() {
		if data.Files[path].Pack == name {
			owned = append(owned, path)
		}
	}
	data.Packs[name] = &PackEntry{Version: version, InstalledAt: r.now(), Files: owned}
	return r.save()
}

// RegisterFile records path as owned by pack with its current checksum.
// A path owned by another pack changes owner. Fails with ErrFileNotFound,
// writing nothing, when path does not exist.
func (r *Registry) RegisterFile(path, pack, originalPath string) error {
	checksum, err := hashutil.CalculateFileChecksum(r.fs, path)
	if err != nil {
		return err
	}

	data := r.current()
	if previous, ok := data.Files[path]; ok && previous.Pack != pack {
		if owner, ok := data.Packs[previous.Pack]; ok {
			owner.Files = without(owner.Files, path)
		}
		logger := logging.GetLogger("fileregistry")
		logger.Info().
			Str("path", path).
			Str("from", previous.Pack).
			Str("to", pack).
			Msg("file ownership transferred")
	}

	data.Files[path] = &FileEntry{
		Pack:         pack,
		OriginalPath: originalPath,
		Checksum:     checksum,
		InstalledAt:  r.now(),
	}

	entry, ok := data.Packs[pack]
	if !ok {
		entry = &PackEntry{InstalledAt: r.now(), Files: []string{}}
		data.Packs[pack] = entry
	}
	if !containsPath(entry.Files, path) {
		entry.Files = append(entry.Files, path)
	}
	return r.save()
}

// UnregisterPack removes a pack and every file entry it owns.
func (r *Registry) UnregisterPack(name string) error {
	data := r.current()
	delete(data.Packs, name)
	for path, entry := range data.Files {
		if entry.Pack == name {
			delete(data.Files, path)
		}
	}
	return r.save()
}

// UnregisterFile removes one file entry and its reference from the owning
// pack.
func (r *Registry) UnregisterFile(path string) error {
	data := r.current()
	entry, ok := data.Files[path]
	if !ok {
		return nil
	}
	delete(data.Files, path)
	if owner, ok := data.Packs[entry.Pack]; ok {
		owner.Files = without(owner.Files, path)
	}
	return r.save()
}

// CheckConflicts returns candidate paths already owned by a pack other than
// installingPack. Unregistered paths never conflict.
func (r *Registry) CheckConflicts(candidates []string, installingPack string) []Conflict {
	data := r.current()
	var conflicts []Conflict
	for _, path := range candidates {
		if entry, ok := data.Files[path]; ok && entry.Pack != installingPack {
			conflicts = append(conflicts, Conflict{Path: path, ExistingPack: entry.Pack})
		}
	}
	return conflicts
}

// IsFileModified compares the live checksum of path with the recorded one.
// A missing file counts as modified; an unregistered path does not. The
// resulting flag is persisted.
func (r *Registry) IsFileModified(path string) bool {
	data := r.current()
	entry, ok := data.Files[path]
	if !ok {
		return false
	}

	modified := true
	if checksum, err := hashutil.CalculateFileChecksum(r.fs, path); err == nil {
		modified = checksum != entry.Checksum
	}

	if entry.Modified != modified {
		entry.Modified = modified
		if err := r.save(); err != nil {
			logger := logging.GetLogger("fileregistry")
			logger.Warn().Err(err).Str("path", path).Msg("cannot persist modification flag")
		}
	}
	return modified
}

// DetectModifications returns every registered path whose content changed,
// sorted.
func (r *Registry) DetectModifications() []string {
	modified := []string{}
	for _, path := range r.sortedPaths() {
		if r.IsFileModified(path) {
			modified = append(modified, path)
		}
	}
	return modified
}

// FileInfo returns a copy of the entry of path, or nil.
func (r *Registry) FileInfo(path string) *FileEntry {
	entry, ok := r.current().Files[path]
	if !ok {
		return nil
	}
	clone := *entry
	return &clone
}

// PackFiles returns the paths a pack owns, never nil.
func (r *Registry) PackFiles(pack string) []string {
	entry, ok := r.current().Packs[pack]
	if !ok {
		return []string{}
	}
	return append([]string{}, entry.Files...)
}

// HasPack reports whether pack has an entry.
func (r *Registry) HasPack(pack string) bool {
	_, ok := r.current().Packs[pack]
	return ok
}

// Packs returns a copy of every pack entry.
func (r *Registry) Packs() map[string]PackEntry {
	packs := make(map[string]PackEntry)
	for name, entry := range r.current().Packs {
		clone := *entry
		clone.Files = append([]string{}, entry.Files...)
		packs[name] = clone
	}
	return packs
}

// Stats counts files, packs and modified files after a modification sweep.
func (r *Registry) Stats() Stats {
	modified := r.DetectModifications()
	data := r.current()
	return Stats{
		TotalFiles:    len(data.Files),
		TotalPacks:    len(data.Packs),
		ModifiedFiles: len(modified),
	}
}

func (r *Registry) sortedPaths() []string {
	data := r.current()
	list := make([]string, 0, len(data.Files))
	for path := range data.Files {
		list = append(list, path)
	}
	sort.Strings(list)
	return list
}

func without(list []string, path string) []string {
	out := list[:0]
	for _, p := range list {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

func containsPath(list []string, path string) bool {
	for _, p := range list {
		if p == path {
			return true
		}
	}
	return false
}
