// Package registry aggregates pack sources into one ordered view.
//
// Sources are consulted in registration order; the first source offering a
// pack name wins. Source failures are folded into "not present" answers for
// listing and existence checks, and propagate as typed errors only when a
// specific pack is requested.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
)

// DefaultSourceName is the name of the local source every registry starts
// with.
const DefaultSourceName = "builtin"

// Loaded is a pack structure together with the source it came from.
type Loaded struct {
	Structure  *manifest.Structure
	SourceName string
	Source     sources.Source
}

type namedSource struct {
	name   string
	source sources.Source
}

// Registry is an ordered set of named pack sources.
type Registry struct {
	mu      sync.RWMutex
	sources []namedSource
	loaded  map[string]*Loaded
}

// New creates a registry whose first source is builtin.
func New(builtin sources.Source) *Registry {
	r := &Registry{loaded: make(map[string]*Loaded)}
	r.RegisterSource(DefaultSourceName, builtin)
	return r
}

// RegisterSource appends a source. Registering an existing name replaces
// that source without changing its position.
func (r *Registry) RegisterSource(name string, src sources.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.sources {
		if r.sources[i].name == name {
			r.sources[i].source = src
			r.dropLoadedFrom(name)
			return
		}
	}
	r.sources = append(r.sources, namedSource{name: name, source: src})
}

func (r *Registry) dropLoadedFrom(sourceName string) {
	for name, l := range r.loaded {
		if l.SourceName == sourceName {
			delete(r.loaded, name)
		}
	}
}

// Sources returns source names in precedence order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.name
	}
	return names
}

// Source returns a registered source by name.
func (r *Registry) Source(name string) (sources.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sources {
		if s.name == name {
			return s.source, true
		}
	}
	return nil, false
}

func (r *Registry) snapshot() []namedSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]namedSource(nil), r.sources...)
}

// Available lists every pack across sources, merged by name with the first
// source's copy kept, sorted by name. Failing sources and packs are skipped.
func (r *Registry) Available(ctx context.Context) []*Loaded {
	logger := logging.GetLogger("packs.registry")

	seen := make(map[string]bool)
	var result []*Loaded

	for _, s := range r.snapshot() {
		names, err := s.source.ListPacks(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("source", s.name).Msg("skipping source that failed to list packs")
			continue
		}
		for _, name := range names {
			if seen[name] {
				continue
			}
			structure, err := s.source.LoadPack(ctx, name)
			if err != nil {
				logger.Warn().Err(err).Str("source", s.name).Str("pack", name).Msg("skipping pack that failed to load")
				continue
			}
			seen[name] = true
			result = append(result, &Loaded{Structure: structure, SourceName: s.name, Source: s.source})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Structure.Name() < result[j].Structure.Name()
	})
	return result
}

// ListAvailablePacks returns the structures of Available.
func (r *Registry) ListAvailablePacks(ctx context.Context) []*manifest.Structure {
	available := r.Available(ctx)
	structures := make([]*manifest.Structure, len(available))
	for i, l := range available {
		structures[i] = l.Structure
	}
	return structures
}

// LoadPack loads name from preferredSource when given, then from every
// other source in order. Results are cached per name. When no source has
// the pack the first non-absence failure is returned, or ErrNotFound.
func (r *Registry) LoadPack(ctx context.Context, name, preferredSource string) (*Loaded, error) {
	if name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "pack name is required")
	}

	r.mu.RLock()
	cached, ok := r.loaded[name]
	r.mu.RUnlock()
	if ok && (preferredSource == "" || cached.SourceName == preferredSource) {
		return cached, nil
	}

	candidates := r.snapshot()
	if preferredSource != "" {
		ordered := make([]namedSource, 0, len(candidates))
		found := false
		for _, s := range candidates {
			if s.name == preferredSource {
				ordered = append([]namedSource{s}, ordered...)
				found = true
				continue
			}
			ordered = append(ordered, s)
		}
		if !found {
			return nil, errors.Newf(errors.ErrNotFound, "unknown source %q", preferredSource).
				WithDetail("sources", r.Sources())
		}
		candidates = ordered
	}

	logger := logging.GetLogger("packs.registry")
	var firstErr error
	for _, s := range candidates {
		structure, err := s.source.LoadPack(ctx, name)
		if err != nil {
			if !errors.IsNotFound(err) && firstErr == nil {
				firstErr = err
			}
			logger.Debug().Err(err).Str("source", s.name).Str("pack", name).Msg("source could not load pack")
			continue
		}

		loaded := &Loaded{Structure: structure, SourceName: s.name, Source: s.source}
		r.mu.Lock()
		r.loaded[name] = loaded
		r.mu.Unlock()
		return loaded, nil
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, errors.Newf(errors.ErrNotFound, "pack %q not found in any source", name).
		WithDetail("pack", name)
}

// HasPack reports whether any source offers name.
func (r *Registry) HasPack(ctx context.Context, name string) bool {
	r.mu.RLock()
	_, ok := r.loaded[name]
	r.mu.RUnlock()
	if ok {
		return true
	}

	for _, s := range r.snapshot() {
		if s.source.HasPack(ctx, name) {
			return true
		}
	}
	return false
}

// ClearCache drops loaded packs. Source caches are left alone.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = make(map[string]*Loaded)
}

// ClearSourceCaches clears the caches of every source that has one.
func (r *Registry) ClearSourceCaches() {
	for _, s := range r.snapshot() {
		if c, ok := s.source.(sources.Clearable); ok {
			c.ClearCache()
		}
	}
}

// Filter selects packs in SearchPacks. Empty fields match everything.
type Filter struct {
	Category       string
	Tags           []string
	CompatibleWith []string
	Author         string
}

// Matches reports whether m satisfies every criterion of f.
func (f Filter) Matches(m *manifest.Manifest) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, m.Category) {
		return false
	}
	if f.Author != "" && !strings.EqualFold(f.Author, m.Author) {
		return false
	}
	for _, tag := range f.Tags {
		if !m.HasTag(tag) {
			return false
		}
	}
	for _, projectType := range f.CompatibleWith {
		if !m.IsCompatibleWith(projectType) {
			return false
		}
	}
	return true
}

// SearchPacks returns available packs matching filter.
func (r *Registry) SearchPacks(ctx context.Context, filter Filter) []*manifest.Structure {
	var matches []*manifest.Structure
	for _, s := range r.ListAvailablePacks(ctx) {
		if filter.Matches(s.Manifest) {
			matches = append(matches, s)
		}
	}
	return matches
}

// RecommendedPacks returns packs compatible with projectType, sorted by
// name.
func (r *Registry) RecommendedPacks(ctx context.Context, projectType string) []*manifest.Structure {
	return r.SearchPacks(ctx, Filter{CompatibleWith: []string{projectType}})
}

// Stats summarises what the registry offers.
type Stats struct {
	TotalPacks int
	Sources    int
	ByCategory map[string]int
	ByAuthor   map[string]int
}

// UncategorizedLabel is used in Stats for packs without a category.
const UncategorizedLabel = "uncategorized"

// Stats derives counts over every available pack.
func (r *Registry) Stats(ctx context.Context) Stats {
	available := r.ListAvailablePacks(ctx)
	stats := Stats{
		TotalPacks: len(available),
		Sources:    len(r.Sources()),
		ByCategory: make(map[string]int),
		ByAuthor:   make(map[string]int),
	}
	for _, s := range available {
		category := s.Manifest.Category
		if category == "" {
			category = UncategorizedLabel
		}
		stats.ByCategory[category]++
		stats.ByAuthor[s.Manifest.Author]++
	}
	return stats
}
