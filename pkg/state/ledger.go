package state

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/types"
)

// InstalledPack is one packs.json entry.
type InstalledPack struct {
	Version     string    `json:"version"`
	InstalledAt time.Time `json:"installedAt"`
	Source      string    `json:"source,omitempty"`
}

// Installed pairs a pack name with its ledger entry.
type Installed struct {
	Name string `json:"name"`
	InstalledPack
}

// Ledger records which packs are installed in a project.
type Ledger struct {
	fs   types.FS
	path string
}

// NewLedger creates a ledger persisted at path.
func NewLedger(fs types.FS, path string) *Ledger {
	return &Ledger{fs: fs, path: path}
}

// Path returns where the ledger is persisted.
func (l *Ledger) Path() string {
	return l.path
}

// Exists reports whether the ledger file is present.
func (l *Ledger) Exists() bool {
	return l.fs.Exists(l.path)
}

// Load reads the ledger. A missing or corrupt file yields an empty map.
func (l *Ledger) Load() map[string]InstalledPack {
	packs := make(map[string]InstalledPack)

	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		return packs
	}
	if err := json.Unmarshal(data, &packs); err != nil {
		logger := logging.GetLogger("state.ledger")
		logger.Warn().
			Err(err).
			Str("path", l.path).
			Msg("installed packs ledger is corrupt, treating as empty")
		return make(map[string]InstalledPack)
	}
	return packs
}

// Get returns the entry for name.
func (l *Ledger) Get(name string) (InstalledPack, bool) {
	entry, ok := l.Load()[name]
	return entry, ok
}

// List returns installed packs sorted by name.
func (l *Ledger) List() []Installed {
	packs := l.Load()
	list := make([]Installed, 0, len(packs))
	for name, entry := range packs {
		list = append(list, Installed{Name: name, InstalledPack: entry})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Add creates or replaces the entry for name.
func (l *Ledger) Add(name string, entry InstalledPack) error {
	packs := l.Load()
	packs[name] = entry
	return l.save(packs)
}

// Remove drops name. Removing an absent pack is a no-op.
func (l *Ledger) Remove(name string) error {
	packs := l.Load()
	if _, ok := packs[name]; !ok {
		return nil
	}
	delete(packs, name)
	return l.save(packs)
}

func (l *Ledger) save(packs map[string]InstalledPack) error {
	data, err := json.MarshalIndent(packs, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode installed packs ledger")
	}
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot create %s", filepath.Dir(l.path))
	}
	if err := l.fs.WriteFile(l.path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot write %s", l.path)
	}
	return nil
}
