package installer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
)

// ownedFile is a file attributed to a pack being uninstalled.
type ownedFile struct {
	path          string
	componentType manifest.ComponentType
	name          string
	// registered files are checked against the file registry; the others
	// were reconstructed from a manifest.
	registered bool
}

// ownershipStrategy produces the files a pack owns, or false when it has no
// answer.
type ownershipStrategy struct {
	name  string
	owned func(ctx context.Context) ([]ownedFile, bool)
}

// Uninstall removes the files of pack name. Owned files come from the file
// registry, else from the manifest snapshot, else from the manifest in
// original. Modified files stay on disk. A pack known to neither the file
// registry, a snapshot nor the ledger fails with ErrNotInstalled.
func (in *Installer) Uninstall(ctx context.Context, name string, original sources.Source) (*Result, error) {
	logger := logging.GetLogger("packs.installer").With().Str("pack", name).Logger()

	snapshot := in.snapshots.Load(name)
	_, inLedger := in.ledger.Get(name)
	if !in.files.HasPack(name) && snapshot == nil && !inLedger {
		return nil, errors.Newf(errors.ErrNotInstalled, "pack %q is not installed", name).
			WithDetail("pack", name)
	}

	strategies := []ownershipStrategy{
		{name: "file registry", owned: func(context.Context) ([]ownedFile, bool) {
			return in.registeredFiles(name)
		}},
		{name: "manifest snapshot", owned: func(context.Context) ([]ownedFile, bool) {
			if snapshot == nil {
				return nil, false
			}
			return in.manifestFiles(name, snapshot.Manifest), true
		}},
		{name: "pack source", owned: func(ctx context.Context) ([]ownedFile, bool) {
			if original == nil {
				return nil, false
			}
			structure, err := original.LoadPack(ctx, name)
			if err != nil {
				logger.Debug().Err(err).Msg("original source cannot provide the manifest")
				return nil, false
			}
			return in.manifestFiles(name, structure.Manifest), true
		}},
	}

	var owned []ownedFile
	for _, s := range strategies {
		files, ok := s.owned(ctx)
		if !ok {
			continue
		}
		logger.Debug().Str("strategy", s.name).Int("files", len(files)).Msg("resolved owned files")
		owned = files
		break
	}

	result := newResult(name)
	for _, f := range owned {
		in.removeFile(ctx, name, f, original, result)
	}

	if err := in.files.UnregisterPack(name); err != nil {
		result.fail("cannot update file registry: %v", err)
	}

	result.finish()
	in.metrics.PackUninstalled()
	logger.Info().
		Int("removed", result.Installed.Total()).
		Int("preserved", len(result.Preserved)).
		Msg("uninstall finished")
	return result, nil
}

// registeredFiles lists the registry's files for name. A pack entry without
// files, as rebuilt from the ledger, is no answer.
func (in *Installer) registeredFiles(name string) ([]ownedFile, bool) {
	paths := in.files.PackFiles(name)
	if len(paths) == 0 {
		return nil, false
	}
	owned := make([]ownedFile, 0, len(paths))
	for _, p := range paths {
		t, component := componentFromPath(p)
		owned = append(owned, ownedFile{path: p, componentType: t, name: component, registered: true})
	}
	return owned, true
}

// manifestFiles reconstructs the expected files of pack from m. Files
// missing on disk and files registered to another pack are skipped.
func (in *Installer) manifestFiles(pack string, m *manifest.Manifest) []ownedFile {
	var owned []ownedFile
	for _, entry := range m.AllComponents() {
		target := in.TargetPath(entry.Type, entry.Ref.Name)
		info := in.files.FileInfo(target)
		if info != nil && info.Pack != pack {
			continue
		}
		registered := info != nil
		if !registered && !in.fs.Exists(target) {
			continue
		}
		owned = append(owned, ownedFile{
			path:          target,
			componentType: entry.Type,
			name:          entry.Ref.Name,
			registered:    registered,
		})
	}
	return owned
}

func (in *Installer) removeFile(ctx context.Context, pack string, f ownedFile, original sources.Source, result *Result) {
	logger := logging.GetLogger("packs.installer")

	if !in.fs.Exists(f.path) {
		_ = in.files.UnregisterFile(f.path)
		return
	}

	var unmodified bool
	if f.registered {
		unmodified = !in.files.IsFileModified(f.path)
	} else {
		unmodified = in.matchesSource(ctx, pack, f, original)
	}

	if !unmodified {
		logger.Info().Str("path", f.path).Msg("preserving modified file")
		result.Preserved = append(result.Preserved, f.path)
		_ = in.files.UnregisterFile(f.path)
		return
	}

	if err := in.fs.Remove(f.path); err != nil && !os.IsNotExist(err) {
		result.fail("cannot remove %s: %v", f.path, err)
		return
	}
	_ = in.files.UnregisterFile(f.path)
	result.Installed.add(f.componentType, f.name)
}

// matchesSource reports whether an unregistered file is byte-identical to
// what the source serves. Without a source nothing can be proven and the
// file is treated as modified.
func (in *Installer) matchesSource(ctx context.Context, pack string, f ownedFile, original sources.Source) bool {
	if original == nil || f.componentType == "" {
		return false
	}
	expected, err := original.ComponentContent(ctx, pack, f.componentType, f.name)
	if err != nil {
		return false
	}
	actual, err := in.fs.ReadFile(f.path)
	if err != nil {
		return false
	}
	return bytes.Equal(expected, actual)
}

// componentFromPath recovers type and name from .../<type-dir>/<name><ext>.
func componentFromPath(path string) (manifest.ComponentType, string) {
	t, err := manifest.ParseComponentType(filepath.Base(filepath.Dir(path)))
	if err != nil {
		return "", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, strings.TrimSuffix(filepath.Base(path), t.Ext())
}
