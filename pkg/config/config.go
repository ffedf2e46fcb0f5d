package config

import (
	"strings"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
)

// Source types.
const (
	SourceLocal  = "local"
	SourceHTTP   = "http"
	SourceGitHub = "github"
	SourceS3     = "s3"
)

// ReservedSourceName is the built-in pack source, which cannot be
// redefined.
const ReservedSourceName = "builtin"

// Config holds user preferences.
type Config struct {
	Sources []SourceConfig `koanf:"sources"`
	Network Network        `koanf:"network"`
	Output  Output         `koanf:"output"`
	Metrics Metrics        `koanf:"metrics"`
}

// SourceConfig declares one additional pack source. Which fields apply
// depends on Type.
type SourceConfig struct {
	Name string `koanf:"name"`
	Type string `koanf:"type"`

	// local
	Path string `koanf:"path"`
	// http
	URL string `koanf:"url"`
	// github
	Owner  string `koanf:"owner"`
	Repo   string `koanf:"repo"`
	Branch string `koanf:"branch"`
	// s3; Path may hold an s3:// URL instead of Bucket and Prefix
	Bucket string `koanf:"bucket"`
	Prefix string `koanf:"prefix"`
	Region string `koanf:"region"`

	Token    string        `koanf:"token"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// Network tunes remote sources.
type Network struct {
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// Output tunes terminal output.
type Output struct {
	Color   bool `koanf:"color"`
	Verbose int  `koanf:"verbose"`
}

// Metrics controls the Prometheus registry. When enabled, the pack server
// exposes it on /metrics.
type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

// Validate checks source declarations.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, s := range c.Sources {
		if s.Name == "" {
			return errors.Newf(errors.ErrConfigParse, "source #%d has no name", i+1)
		}
		if s.Name == ReservedSourceName {
			return errors.Newf(errors.ErrConfigParse, "source name %q is reserved", s.Name)
		}
		if seen[s.Name] {
			return errors.Newf(errors.ErrConfigParse, "duplicate source name %q", s.Name)
		}
		seen[s.Name] = true

		if err := s.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s SourceConfig) validate() error {
	missing := func(field string) error {
		return errors.Newf(errors.ErrConfigParse, "source %q of type %s needs %s", s.Name, s.Type, field).
			WithDetail("source", s.Name)
	}

	switch strings.ToLower(s.Type) {
	case SourceLocal:
		if s.Path == "" {
			return missing("path")
		}
	case SourceHTTP:
		if s.URL == "" {
			return missing("url")
		}
	case SourceGitHub:
		if s.Owner == "" || s.Repo == "" {
			return missing("owner and repo")
		}
	case SourceS3:
		if s.Bucket == "" && !strings.HasPrefix(s.Path, "s3://") {
			return missing("bucket or an s3:// path")
		}
	default:
		return errors.Newf(errors.ErrConfigParse, "source %q has unknown type %q", s.Name, s.Type).
			WithDetail("types", []string{SourceLocal, SourceHTTP, SourceGitHub, SourceS3})
	}
	return nil
}

// Source returns the source declared as name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
