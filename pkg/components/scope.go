package components

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/types"
)

// Scope discovers the components under one root directory. Results are
// cached per type until ClearCache.
type Scope struct {
	name string
	root string
	fs   types.FS

	mu    sync.Mutex
	cache map[Type][]*Info
}

// NewScope creates a scope named name rooted at root. An empty root is a
// scope with no components.
func NewScope(fs types.FS, name, root string) *Scope {
	return &Scope{name: name, root: root, fs: fs, cache: make(map[Type][]*Info)}
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.name
}

// Root returns the scope directory.
func (s *Scope) Root() string {
	return s.root
}

// Components returns the components of type t sorted by name.
func (s *Scope) Components(t Type) []*Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[t]; ok {
		return cached
	}
	found := s.discover(t)
	s.cache[t] = found
	return found
}

// AllComponents returns every component, grouped by type in AllTypes order.
func (s *Scope) AllComponents() []*Info {
	var all []*Info
	for _, t := range AllTypes() {
		all = append(all, s.Components(t)...)
	}
	return all
}

// Component finds a component by type and name.
func (s *Scope) Component(t Type, name string) (*Info, bool) {
	for _, info := range s.Components(t) {
		if info.Name == name {
			return info, true
		}
	}
	return nil, false
}

// ClearCache forgets discovered components.
func (s *Scope) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[Type][]*Info)
}

func (s *Scope) discover(t Type) []*Info {
	found := []*Info{}
	if s.root == "" {
		return found
	}

	logger := logging.GetLogger("components.scope")
	dir := filepath.Join(s.root, t.Dir())
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("scope", s.name).Str("dir", dir).Msg("cannot read component directory")
		}
		return found
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := s.fs.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable component")
			continue
		}
		stat, _ := s.fs.Stat(path)
		found = append(found, &Info{
			Name:     componentName(entry.Name()),
			Type:     t,
			Path:     path,
			Scope:    s.name,
			Metadata: ParseMetadata(path, data, stat),
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	logger.Debug().Str("scope", s.name).Str("type", string(t)).Int("count", len(found)).Msg("discovered components")
	return found
}
