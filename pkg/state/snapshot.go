package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/types"
)

// Snapshot is what was installed for a pack: the manifest as it was at
// install time, plus the configuration values the install set.
type Snapshot struct {
	Manifest    *manifest.Manifest `json:"manifest"`
	Source      string             `json:"source,omitempty"`
	InstalledAt time.Time          `json:"installedAt"`
	// AppliedConfig maps configuration keys such as "defaultMode" or
	// "customCommands.review" to the value the pack set.
	AppliedConfig map[string]interface{} `json:"appliedConfig,omitempty"`
	// PreviousConfig holds the values those keys had before the install.
	PreviousConfig map[string]interface{} `json:"previousConfig,omitempty"`
}

// SnapshotStore keeps one snapshot file per installed pack.
type SnapshotStore struct {
	fs   types.FS
	path func(pack string) string
}

// NewSnapshotStore creates a store; pathFor maps a pack name to its file.
func NewSnapshotStore(fs types.FS, pathFor func(pack string) string) *SnapshotStore {
	return &SnapshotStore{fs: fs, path: pathFor}
}

// Path returns the snapshot file of pack.
func (s *SnapshotStore) Path(pack string) string {
	return s.path(pack)
}

// Save writes the snapshot of its manifest's pack.
func (s *SnapshotStore) Save(snap *Snapshot) error {
	if snap == nil || snap.Manifest == nil {
		return errors.New(errors.ErrInvalidInput, "snapshot needs a manifest")
	}
	path := s.path(snap.Manifest.Name)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode manifest snapshot")
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot create snapshot directory for %s", path)
	}
	if err := s.fs.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot write %s", path)
	}
	return nil
}

// Load returns the snapshot of pack, or nil when absent or unreadable.
func (s *SnapshotStore) Load(pack string) *Snapshot {
	path := s.path(pack)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.Manifest == nil {
		logger := logging.GetLogger("state.snapshot")
		logger.Warn().
			Str("pack", pack).
			Str("path", path).
			Msg("ignoring unreadable manifest snapshot")
		return nil
	}
	return &snap
}

// Remove deletes the snapshot of pack if present.
func (s *SnapshotStore) Remove(pack string) error {
	path := s.path(pack)
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot remove %s", path)
	}
	return nil
}
