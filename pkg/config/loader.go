package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "ZCC_"

// DotEnvFile is loaded from the project root before the environment layer.
const DotEnvFile = ".env"

var (
	userRCNames    = []string{"config.yaml", "config.yml", "config.json", "config.toml"}
	projectRCNames = []string{".zccrc.yaml", ".zccrc.yml", ".zccrc.json", ".zccrc.toml"}

	// envSections are the configuration sections settable from ZCC_ variables.
	envSections = map[string]bool{"network": true, "output": true, "metrics": true}
)

// LoadOptions locate the configuration layers.
type LoadOptions struct {
	// ProjectRoot holds .zccrc.* and .env. Empty skips both.
	ProjectRoot string
	// ConfigDir holds the user rc file. Empty skips it.
	ConfigDir string
	// Overrides are applied last, keyed like "output.verbose".
	Overrides map[string]interface{}
}

// Load builds the configuration from every layer.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	if path := firstExisting(opts.ConfigDir, userRCNames); path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", path).Msg("loaded user configuration")
	}

	if path := firstExisting(opts.ProjectRoot, projectRCNames); path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", path).Msg("loaded project configuration")
	}

	if opts.ProjectRoot != "" {
		loadDotEnv(filepath.Join(opts.ProjectRoot, DotEnvFile))
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	applySourceTokens(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps ZCC_NETWORK_CACHE_TTL to network.cache_ttl. Variables outside
// the known sections, such as the path variables, are ignored.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" || !envSections[section] {
		return ""
	}
	return section + "." + rest
}

// SourceTokenEnv returns the variable holding the token of a source:
// ZCC_SOURCE_<NAME>_TOKEN with the name upper-cased and dashes turned into
// underscores.
func SourceTokenEnv(name string) string {
	return EnvPrefix + "SOURCE_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_TOKEN"
}

// applySourceTokens fills empty source tokens from the environment. GitHub
// sources also fall back to GITHUB_TOKEN.
func applySourceTokens(cfg *Config) {
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if s.Token != "" {
			continue
		}
		if token := os.Getenv(SourceTokenEnv(s.Name)); token != "" {
			s.Token = token
			continue
		}
		if strings.EqualFold(s.Type, SourceGitHub) {
			s.Token = os.Getenv("GITHUB_TOKEN")
		}
	}
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger := logging.GetLogger("config")
		logger.Warn().Err(err).Str("path", path).Msg("cannot read .env file")
	}
}

func firstExisting(dir string, names []string) string {
	if dir == "" {
		return ""
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser = yaml.Parser()
	if filepath.Ext(path) == ".toml" {
		parser = toml.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to load configuration from %s", path).
			WithDetail("path", path)
	}
	return nil
}
