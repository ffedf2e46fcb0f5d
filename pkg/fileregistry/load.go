package fileregistry

import (
	"encoding/json"

	"github.com/arthur-debert/zcc/pkg/logging"
)

// recoveryStrategy produces registry data, or false when it cannot.
type recoveryStrategy struct {
	name string
	load func() (*Data, bool)
}

// strategies lists the ways of obtaining registry data, tried in order.
func (r *Registry) strategies() []recoveryStrategy {
	return []recoveryStrategy{
		{name: "primary", load: func() (*Data, bool) { return r.readFile(r.path) }},
		{name: "backup", load: func() (*Data, bool) { return r.readFile(r.backupPath) }},
		{name: "ledger", load: r.fromLedger},
		{name: "empty", load: func() (*Data, bool) { return NewData(), true }},
	}
}

// Load reads the registry from disk, recovering from corruption. It never
// fails; every fallback past the primary file is logged as a warning.
func (r *Registry) Load() *Data {
	logger := logging.GetLogger("fileregistry")

	for _, s := range r.strategies() {
		data, ok := s.load()
		if !ok {
			continue
		}
		switch {
		case s.name == "backup" || s.name == "ledger":
			logger.Warn().
				Str("path", r.path).
				Str("recovered_from", s.name).
				Msg("file registry is missing or unreadable, recovered")
		case s.name == "empty" && r.fs.Exists(r.path):
			logger.Warn().
				Str("path", r.path).
				Msg("file registry is unreadable, starting empty")
		}
		r.data = data
		return data
	}
	// The empty strategy always succeeds.
	r.data = NewData()
	return r.data
}

func (r *Registry) readFile(path string) (*Data, bool) {
	raw, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		logger := logging.GetLogger("fileregistry")
		logger.Debug().Err(err).Str("path", path).Msg("cannot parse registry file")
		return nil, false
	}
	return data.normalize(), true
}

func (r *Registry) fromLedger() (*Data, bool) {
	if r.ledger == nil || !r.ledger.Exists() {
		return nil, false
	}
	data := NewData()
	for name, entry := range r.ledger.Load() {
		data.Packs[name] = &PackEntry{
			Version:     entry.Version,
			InstalledAt: entry.InstalledAt,
			Files:       []string{},
		}
	}
	return data, true
}

// Rebuild replaces the registry with pack entries reconstructed from the
// installed packs ledger. File associations are lost.
func (r *Registry) Rebuild() *Data {
	data, ok := r.fromLedger()
	if !ok {
		data = NewData()
	}
	r.data = data
	if err := r.save(); err != nil {
		logger := logging.GetLogger("fileregistry")
		logger.Warn().Err(err).Msg("cannot persist rebuilt file registry")
	}
	return data
}
