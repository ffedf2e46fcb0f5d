package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/types"
	"gopkg.in/yaml.v3"
)

// Key prefixes used when recording applied configuration.
const (
	KeyDefaultMode     = "defaultMode"
	KeyCustomCommands  = "customCommands"
	KeyProjectSettings = "projectSettings"
)

// ProjectConfig is <project>/.zcc/config.yaml. Unknown top-level keys are
// kept in Extra and written back unchanged.
type ProjectConfig struct {
	DefaultMode     string                 `yaml:"defaultMode,omitempty"`
	CustomCommands  map[string]string      `yaml:"customCommands,omitempty"`
	ProjectSettings map[string]interface{} `yaml:"projectSettings,omitempty"`
	Extra           map[string]interface{} `yaml:",inline"`
}

// ProjectConfigStore reads and writes the project configuration file.
type ProjectConfigStore struct {
	fs   types.FS
	path string
}

// NewProjectConfigStore creates a store for path.
func NewProjectConfigStore(fs types.FS, path string) *ProjectConfigStore {
	return &ProjectConfigStore{fs: fs, path: path}
}

// Path returns the configuration file location.
func (s *ProjectConfigStore) Path() string {
	return s.path
}

// Load reads the project configuration. A missing file is an empty config.
func (s *ProjectConfigStore) Load() (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", s.path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid project configuration %s", s.path)
	}
	return cfg, nil
}

// Save writes the project configuration.
func (s *ProjectConfigStore) Save(cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode project configuration")
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot create %s", filepath.Dir(s.path))
	}
	if err := s.fs.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot write %s", s.path)
	}
	return nil
}

// Applied records a pack's configuration side effects. Values maps keys
// such as "defaultMode", "customCommands.<name>" and "projectSettings.<key>"
// to what the pack set; Previous holds the value a key had before, for keys
// that existed.
type Applied struct {
	Values   map[string]interface{}
	Previous map[string]interface{}
}

func newApplied() *Applied {
	return &Applied{Values: map[string]interface{}{}, Previous: map[string]interface{}{}}
}

// Rebase carries over what an earlier install of the same pack replaced.
// Reinstalling finds the pack's own values in place; the value to restore
// on uninstall is still the one from before the first install.
func (a *Applied) Rebase(earlier *Applied) {
	if earlier == nil {
		return
	}
	for key := range a.Values {
		own, ok := earlier.Values[key]
		if !ok {
			continue
		}
		if current, replaced := a.Previous[key]; !replaced || !sameValue(current, own) {
			continue
		}
		if original, had := earlier.Previous[key]; had {
			a.Previous[key] = original
		} else {
			delete(a.Previous, key)
		}
	}
}

// Apply merges a pack's configuration block into the project configuration
// and returns what it set and what it replaced.
func (s *ProjectConfigStore) Apply(c *manifest.Configuration) (*Applied, error) {
	applied := newApplied()
	if c.IsEmpty() {
		return applied, nil
	}

	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}

	if c.DefaultMode != "" {
		if cfg.DefaultMode != "" {
			applied.Previous[KeyDefaultMode] = cfg.DefaultMode
		}
		cfg.DefaultMode = c.DefaultMode
		applied.Values[KeyDefaultMode] = c.DefaultMode
	}
	for name, command := range c.CustomCommands {
		if cfg.CustomCommands == nil {
			cfg.CustomCommands = make(map[string]string)
		}
		key := KeyCustomCommands + "." + name
		if old, ok := cfg.CustomCommands[name]; ok {
			applied.Previous[key] = old
		}
		cfg.CustomCommands[name] = command
		applied.Values[key] = command
	}
	for name, value := range c.ProjectSettings {
		if cfg.ProjectSettings == nil {
			cfg.ProjectSettings = make(map[string]interface{})
		}
		key := KeyProjectSettings + "." + name
		if old, ok := cfg.ProjectSettings[name]; ok {
			applied.Previous[key] = old
		}
		cfg.ProjectSettings[name] = value
		applied.Values[key] = value
	}

	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return applied, nil
}

// Revert undoes values recorded by Apply that still hold what was set: a
// key with a previous value gets it back, the others are removed. Keys
// changed since are left alone. It returns the reverted keys, sorted.
func (s *ProjectConfigStore) Revert(applied *Applied) ([]string, error) {
	reverted := []string{}
	if applied == nil || len(applied.Values) == 0 {
		return reverted, nil
	}

	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}

	for key, value := range applied.Values {
		previous, hadPrevious := applied.Previous[key]
		section, name, _ := strings.Cut(key, ".")
		switch section {
		case KeyDefaultMode:
			if cfg.DefaultMode == "" || !sameValue(cfg.DefaultMode, value) {
				continue
			}
			cfg.DefaultMode = ""
			if hadPrevious {
				cfg.DefaultMode = fmt.Sprint(previous)
			}
		case KeyCustomCommands:
			current, ok := cfg.CustomCommands[name]
			if !ok || !sameValue(current, value) {
				continue
			}
			delete(cfg.CustomCommands, name)
			if hadPrevious {
				cfg.CustomCommands[name] = fmt.Sprint(previous)
			}
		case KeyProjectSettings:
			current, ok := cfg.ProjectSettings[name]
			if !ok || !sameValue(current, value) {
				continue
			}
			delete(cfg.ProjectSettings, name)
			if hadPrevious {
				cfg.ProjectSettings[name] = previous
			}
		default:
			continue
		}
		reverted = append(reverted, key)
	}

	if len(reverted) == 0 {
		return reverted, nil
	}
	sort.Strings(reverted)
	return reverted, s.Save(cfg)
}

// sameValue compares values that may have crossed JSON or YAML encoding,
// where numbers and nested maps change their Go types.
func sameValue(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}
