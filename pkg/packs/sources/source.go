// Package sources provides uniform read-only access to starter packs
// regardless of where they physically live: a local directory, an HTTP
// endpoint, a GitHub repository or an S3 bucket.
//
// Every implementation owns its caching, authentication and error mapping.
// Errors carry pkg/errors codes: ErrNotFound for absent packs and
// components, ErrInvalidJSON / ErrInvalidManifest for malformed manifests,
// ErrFetch / ErrRateLimited for transport failures.
package sources

import (
	"context"

	"github.com/arthur-debert/zcc/pkg/packs/manifest"
)

// Source is where pack definitions come from.
type Source interface {
	// ListPacks returns the names of every pack the source offers.
	ListPacks(ctx context.Context) ([]string, error)

	// LoadPack loads and validates a pack manifest. Absent packs fail with
	// ErrNotFound.
	LoadPack(ctx context.Context, name string) (*manifest.Structure, error)

	// HasPack reports whether the source offers name. Failures read as false.
	HasPack(ctx context.Context, name string) bool

	// HasComponent reports whether a pack ships the given component.
	HasComponent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) bool

	// ComponentPath returns a locator for a component: a filesystem path,
	// an URL or an object key depending on the source.
	ComponentPath(pack string, componentType manifest.ComponentType, name string) string

	// ComponentContent returns the bytes of a component.
	ComponentContent(ctx context.Context, pack string, componentType manifest.ComponentType, name string) ([]byte, error)
}

// Clearable is implemented by sources that cache what they fetch.
type Clearable interface {
	ClearCache()
}

// componentRelPath returns "components/<dir>/<name><ext>" relative to a pack.
func componentRelPath(componentType manifest.ComponentType, name string) string {
	return "components/" + componentType.Dir() + "/" + componentType.FileName(name)
}
