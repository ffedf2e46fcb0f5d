package sources

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/types"
)

// Local serves packs from a directory on a filesystem. A directory directly
// under the root is a pack iff it contains a manifest.json.
type Local struct {
	fs    types.FS
	root  string
	cache *Cache
}

// NewLocal creates a source rooted at root. Loaded structures are cached
// until ClearCache.
func NewLocal(fs types.FS, root string) *Local {
	return &Local{fs: fs, root: root, cache: NewCache(0)}
}

// Root returns the directory the source reads from.
func (l *Local) Root() string {
	return l.root
}

// ListPacks returns pack directory names sorted. A missing root yields an
// empty list.
func (l *Local) ListPacks(_ context.Context) ([]string, error) {
	logger := logging.GetLogger("sources.local")

	if l.root == "" || !l.fs.Exists(l.root) {
		logger.Debug().Str("root", l.root).Msg("pack root does not exist")
		return []string{}, nil
	}

	entries, err := l.fs.ReadDir(l.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot read pack root %s", l.root)
	}

	names := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if l.fs.Exists(filepath.Join(l.root, entry.Name(), manifest.FileName)) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadPack reads and validates <root>/<name>/manifest.json.
func (l *Local) LoadPack(_ context.Context, name string) (*manifest.Structure, error) {
	if name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "pack name is required")
	}

	v, _, err := l.cache.GetOrFetch(name, func() (interface{}, error) {
		return l.load(name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*manifest.Structure), nil
}

func (l *Local) load(name string) (*manifest.Structure, error) {
	packDir := filepath.Join(l.root, name)
	manifestPath := filepath.Join(packDir, manifest.FileName)

	data, err := l.fs.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "pack %q not found", name).
				WithDetail("path", manifestPath)
		}
		return nil, errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot read %s", manifestPath)
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "pack %q has an invalid manifest", name).
			WithDetail("path", manifestPath)
	}
	if m.Name != name {
		return nil, errors.Newf(errors.ErrInvalidManifest,
			"manifest name %q does not match pack directory %q", m.Name, name).
			WithDetail("path", manifestPath)
	}

	return &manifest.Structure{
		Manifest:       m,
		Path:           packDir,
		ComponentsPath: filepath.Join(packDir, "components"),
	}, nil
}

// HasPack reports whether <root>/<name>/manifest.json exists.
func (l *Local) HasPack(_ context.Context, name string) bool {
	if name == "" || l.root == "" {
		return false
	}
	return l.fs.Exists(filepath.Join(l.root, name, manifest.FileName))
}

// HasComponent reports whether the component file exists.
func (l *Local) HasComponent(_ context.Context, pack string, componentType manifest.ComponentType, name string) bool {
	return l.fs.Exists(l.ComponentPath(pack, componentType, name))
}

// ComponentPath returns <root>/<pack>/components/<dir>/<name><ext>.
func (l *Local) ComponentPath(pack string, componentType manifest.ComponentType, name string) string {
	return filepath.Join(l.root, pack, filepath.FromSlash(componentRelPath(componentType, name)))
}

// ComponentContent reads the component file.
func (l *Local) ComponentContent(_ context.Context, pack string, componentType manifest.ComponentType, name string) ([]byte, error) {
	path := l.ComponentPath(pack, componentType, name)
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "component %s/%s not found in pack %q", componentType.Dir(), name, pack).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot read %s", path)
	}
	return data, nil
}

// ClearCache drops every loaded structure.
func (l *Local) ClearCache() {
	l.cache.Clear()
}
