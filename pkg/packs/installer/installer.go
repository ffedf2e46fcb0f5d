// Package installer materializes a pack's components into a project and
// removes them again.
//
// Installs are all-or-nothing with respect to conflicts: if any target path
// is owned by another pack and force is not set, nothing is written. Past
// that check files are written and registered one by one, so the file
// registry always reflects exactly what is on disk even when an install
// stops part way.
package installer

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/fileregistry"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/state"
	"github.com/arthur-debert/zcc/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/arthur-debert/zcc/pkg/packs/installer")

// Options tune an install.
type Options struct {
	// Force overwrites files owned by other packs and takes ownership.
	Force bool
}

// Installer writes pack components into one project.
type Installer struct {
	fs        types.FS
	paths     *paths.Paths
	files     *fileregistry.Registry
	snapshots *state.SnapshotStore
	ledger    *state.Ledger
	metrics   *metrics.Metrics
}

// New creates an installer. m may be nil.
func New(fs types.FS, p *paths.Paths, files *fileregistry.Registry, snapshots *state.SnapshotStore, ledger *state.Ledger, m *metrics.Metrics) *Installer {
	return &Installer{
		fs:        fs,
		paths:     p,
		files:     files,
		snapshots: snapshots,
		ledger:    ledger,
		metrics:   m,
	}
}

// TargetPath returns where a component is installed:
// <project>/.zcc/<type-dir>/<name><ext>.
func (in *Installer) TargetPath(t manifest.ComponentType, name string) string {
	return filepath.Join(in.paths.ComponentDir(t.Dir()), t.FileName(name))
}

type plannedFile struct {
	entry  manifest.ComponentEntry
	target string
}

func (in *Installer) plan(m *manifest.Manifest) []plannedFile {
	var planned []plannedFile
	for _, entry := range m.AllComponents() {
		planned = append(planned, plannedFile{entry: entry, target: in.TargetPath(entry.Type, entry.Ref.Name)})
	}
	return planned
}

// Install writes every component of structure, fetched from src.
func (in *Installer) Install(ctx context.Context, structure *manifest.Structure, src sources.Source, opts Options) *Result {
	m := structure.Manifest
	result := newResult(m.Name)
	logger := logging.GetLogger("packs.installer").With().Str("pack", m.Name).Logger()

	ctx, span := tracer.Start(ctx, "installer.install", trace.WithAttributes(
		attribute.String("zcc.pack", m.Name),
		attribute.String("zcc.pack.version", m.Version),
		attribute.Bool("zcc.force", opts.Force),
	))
	defer func() {
		if !result.Success {
			span.SetStatus(codes.Error, "install failed")
		}
		span.SetAttributes(attribute.Int("zcc.components", result.Installed.Total()))
		span.End()
	}()

	planned := in.plan(m)
	targets := make([]string, len(planned))
	for i, p := range planned {
		targets[i] = p.target
	}

	conflicts := in.files.CheckConflicts(targets, m.Name)
	if len(conflicts) > 0 {
		in.metrics.Conflicts(len(conflicts))
		if !opts.Force {
			result.Conflicts = conflicts
			for _, c := range conflicts {
				result.fail("conflict: %s", FormatConflict(c))
			}
			logger.Warn().Int("conflicts", len(conflicts)).Msg("install aborted on conflicts")
			in.metrics.PackInstalled(false)
			return result.finish()
		}
		for _, c := range conflicts {
			logger.Info().Str("path", c.Path).Str("owner", c.ExistingPack).Msg("forcing over file owned by another pack")
		}
	}

	if err := in.files.RegisterPack(m.Name, m.Version); err != nil {
		result.fail("cannot register pack: %v", err)
		in.metrics.PackInstalled(false)
		return result.finish()
	}

	for _, p := range planned {
		if err := ctx.Err(); err != nil {
			result.fail("install cancelled: %v", err)
			break
		}

		written, err := in.installFile(ctx, m.Name, p, src)
		if err != nil {
			result.fail("%s %s: %v", p.entry.Type, p.entry.Ref.Name, err)
			logger.Error().Err(err).Str("component", p.entry.Ref.Name).Msg("install stopped")
			break
		}
		if written {
			result.Installed.add(p.entry.Type, p.entry.Ref.Name)
		}
	}

	result.finish()
	in.metrics.PackInstalled(result.Success)
	logger.Info().
		Bool("success", result.Success).
		Int("components", result.Installed.Total()).
		Msg("install finished")
	return result
}

// installFile fetches, writes and registers one component. Optional
// components the source does not have are skipped.
func (in *Installer) installFile(ctx context.Context, pack string, p plannedFile, src sources.Source) (bool, error) {
	content, err := src.ComponentContent(ctx, pack, p.entry.Type, p.entry.Ref.Name)
	if err != nil {
		if errors.IsNotFound(err) && !p.entry.Ref.Required {
			logger := logging.GetLogger("packs.installer")
			logger.Warn().
				Str("pack", pack).
				Str("component", p.entry.Ref.Name).
				Msg("optional component not provided by source, skipping")
			return false, nil
		}
		return false, err
	}

	if err := in.fs.MkdirAll(filepath.Dir(p.target), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot create %s", filepath.Dir(p.target))
	}
	if err := in.fs.WriteFile(p.target, content, 0644); err != nil {
		return false, errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot write %s", p.target)
	}
	if err := in.files.RegisterFile(p.target, pack, src.ComponentPath(pack, p.entry.Type, p.entry.Ref.Name)); err != nil {
		return false, err
	}
	in.metrics.FileRegistered()
	return true, nil
}
