package cli

import (
	"io"
	"os"

	"github.com/arthur-debert/zcc/pkg/components"
	"github.com/arthur-debert/zcc/pkg/config"
	"github.com/arthur-debert/zcc/pkg/filesystem"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/metrics"
	"github.com/arthur-debert/zcc/pkg/packs/manager"
	"github.com/arthur-debert/zcc/pkg/packs/registry"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
	"github.com/arthur-debert/zcc/pkg/paths"
	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/arthur-debert/zcc/pkg/ui"
	"github.com/prometheus/client_golang/prometheus"
)

// globalOptions are the persistent root flags.
type globalOptions struct {
	verbosity  int
	projectDir string
	format     string
	noColor    bool
}

// app is everything a command needs, built once per invocation.
type app struct {
	paths    *paths.Paths
	fs       types.FS
	config   *config.Config
	gatherer prometheus.Gatherer
	registry *registry.Registry
	manager  *manager.Manager
	renderer ui.Renderer
	logger   types.Logger
	prompter types.Prompter
	out      io.Writer
}

func newApp(opts *globalOptions, out, errOut io.Writer) (*app, error) {
	logger := logging.GetLogger("cli")

	p, err := paths.New(opts.projectDir)
	if err != nil {
		return nil, err
	}

	overrides := map[string]interface{}{}
	if opts.noColor {
		overrides["output.color"] = false
	}
	cfg, err := config.Load(config.LoadOptions{
		ProjectRoot: p.ProjectRoot(),
		ConfigDir:   p.ConfigDir(),
		Overrides:   overrides,
	})
	if err != nil {
		return nil, err
	}

	format, err := ui.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		gatherer = reg
	}

	fs := filesystem.NewOS()
	reg := registry.New(sources.NewLocal(fs, p.BuiltinPacksDir()))
	for _, sc := range cfg.Sources {
		src, err := buildSource(fs, sc, cfg.Network, m)
		if err != nil {
			return nil, err
		}
		reg.RegisterSource(sc.Name, src)
		logger.Debug().Str("source", sc.Name).Str("type", sc.Type).Msg("registered pack source")
	}

	verbose := opts.verbosity > 0 || cfg.Output.Verbose > 0
	userLogger := ui.NewConsoleLogger(errOut, verbose)

	return &app{
		paths:    p,
		fs:       fs,
		config:   cfg,
		gatherer: gatherer,
		registry: reg,
		manager: manager.New(manager.Options{
			Paths:    p,
			FS:       fs,
			Registry: reg,
			Logger:   userLogger,
			Metrics:  m,
		}),
		renderer: ui.NewRenderer(format, out, cfg.Output.Color),
		logger:   userLogger,
		prompter: ui.NewConsolePrompter(ui.IsTerminal(os.Stdin) && ui.IsTerminal(out)),
		out:      out,
	}, nil
}

// components builds the component view of the project.
func (a *app) components() *components.Core {
	return components.NewCoreForPaths(a.fs, a.paths)
}
