package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/zcc/pkg/components"
	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/packs/installer"
	"github.com/arthur-debert/zcc/pkg/packs/manager"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/packs/registry"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
	"github.com/arthur-debert/zcc/pkg/packserver"
	"github.com/arthur-debert/zcc/pkg/ui"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newPacksCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packs",
		Aliases: []string{"pack"},
		Short:   MsgPacksShort,
	}
	cmd.AddCommand(
		newPacksListCmd(opts),
		newPacksSearchCmd(opts),
		newPacksInfoCmd(opts),
		newPacksInstallCmd(opts),
		newPacksUninstallCmd(opts),
		newPacksInstalledCmd(opts),
		newPacksValidateCmd(opts),
		newPacksRecommendCmd(opts),
		newPacksStatsCmd(opts),
		newPacksServeCmd(opts),
	)
	return cmd
}

// packRow is how packs are listed everywhere.
type packRow struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Source      string `json:"source,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
	Installed   bool   `json:"installed"`
}

func packTable(rows []packRow) *ui.Table {
	t := &ui.Table{Headers: []string{"Name", "Version", "Source", "Category", "Installed", "Description"}}
	for _, r := range rows {
		installed := ""
		if r.Installed {
			installed = "yes"
		}
		t.Rows = append(t.Rows, []string{r.Name, r.Version, r.Source, r.Category, installed, r.Description})
	}
	return t
}

func renderPacks(a *app, title string, rows []packRow) error {
	if len(rows) == 0 {
		return a.renderer.RenderResult(&ui.Result{Notes: []string{MsgNoPacks}, Data: rows})
	}
	return a.renderer.RenderResult(&ui.Result{
		Title: title,
		Table: packTable(rows),
		Notes: []string{fmt.Sprintf("%d packs", len(rows))},
		Data:  rows,
	})
}

func structureRows(a *app, structures []*manifest.Structure) []packRow {
	rows := []packRow{}
	for _, s := range structures {
		m := s.Manifest
		rows = append(rows, packRow{
			Name:        m.Name,
			Version:     m.Version,
			Category:    m.Category,
			Description: m.Description,
			Installed:   a.manager.IsInstalled(m.Name),
		})
	}
	return rows
}

func newPacksListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgPacksListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			rows := []packRow{}
			for _, loaded := range a.manager.ListPacks(cmd.Context()) {
				m := loaded.Structure.Manifest
				rows = append(rows, packRow{
					Name:        m.Name,
					Version:     m.Version,
					Source:      loaded.SourceName,
					Category:    m.Category,
					Description: m.Description,
					Installed:   a.manager.IsInstalled(m.Name),
				})
			}
			return renderPacks(a, "Available packs", rows)
		},
	}
}

func newPacksSearchCmd(opts *globalOptions) *cobra.Command {
	var filter registry.Filter
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: MsgPacksSearch,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			found := a.manager.Search(cmd.Context(), filter)
			if len(args) == 1 {
				query := strings.ToLower(args[0])
				matching := found[:0]
				for _, s := range found {
					if strings.Contains(strings.ToLower(s.Manifest.Name), query) ||
						strings.Contains(strings.ToLower(s.Manifest.Description), query) {
						matching = append(matching, s)
					}
				}
				found = matching
			}
			return renderPacks(a, "Matching packs", structureRows(a, found))
		},
	}
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only packs in this category")
	cmd.Flags().StringVar(&filter.Author, "author", "", "Only packs by this author")
	cmd.Flags().StringSliceVar(&filter.Tags, "tag", nil, "Only packs carrying every tag")
	cmd.Flags().StringSliceVar(&filter.CompatibleWith, "compatible", nil, "Only packs compatible with every project type")
	return cmd
}

func newPacksRecommendCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <project-type>",
		Short: MsgPacksRecommend,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Packs for %s projects", args[0])
			return renderPacks(a, title, structureRows(a, a.manager.Recommend(cmd.Context(), args[0])))
		},
	}
}

func newPacksInfoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <pack>",
		Short: MsgPacksInfo,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			info, err := a.manager.PackInfo(cmd.Context(), args[0])
			if err != nil {
				return a.withSuggestions(cmd, err, args[0])
			}

			m := info.Manifest
			title := cases.Title(language.English)
			t := &ui.Table{Headers: []string{"Field", "Value"}}
			add := func(field, value string) {
				if value != "" {
					t.Rows = append(t.Rows, []string{field, value})
				}
			}
			add("Name", m.Name)
			add("Version", m.Version)
			add("Author", m.Author)
			add("Category", m.Category)
			add("Tags", strings.Join(m.Tags, ", "))
			add("Compatible with", strings.Join(m.CompatibleWith, ", "))
			add("Dependencies", strings.Join(m.Dependencies, ", "))
			add("Source", info.SourceName)
			add("Location", info.Path)
			for _, ct := range manifest.AllComponentTypes() {
				var names []string
				for _, ref := range m.Components.Of(ct) {
					name := ref.Name
					if !ref.Required {
						name += " (optional)"
					}
					names = append(names, name)
				}
				add(title.String(ct.Dir()), strings.Join(names, ", "))
			}
			if info.Installed != nil {
				add("Installed", fmt.Sprintf("%s on %s", info.Installed.Version, info.Installed.InstalledAt.Format(time.RFC3339)))
				if cmp := manifest.CompareVersions(m.Version, info.Installed.Version); cmp > 0 {
					add("Update", fmt.Sprintf("%s available", m.Version))
				}
				add("Files", strconv.Itoa(len(info.Files)))
				add("Modified", strings.Join(a.relPaths(info.Modified), ", "))
			}

			return a.renderer.RenderResult(&ui.Result{
				Title:    m.Name,
				Table:    t,
				Markdown: m.Description,
				Data:     info,
			})
		},
	}
}

func newPacksInstallCmd(opts *globalOptions) *cobra.Command {
	var install manager.InstallOptions
	cmd := &cobra.Command{
		Use:   "install [pack]",
		Short: MsgPacksInstall,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				var names []string
				for _, loaded := range a.manager.ListPacks(cmd.Context()) {
					if !a.manager.IsInstalled(loaded.Structure.Name()) {
						names = append(names, loaded.Structure.Name())
					}
				}
				if name, err = a.prompter.Select(MsgSelectPack, names, ""); err != nil {
					return err
				}
			}

			result, err := a.manager.InstallPack(cmd.Context(), name, install)
			if err != nil {
				if errors.IsNotFound(err) {
					return a.withSuggestions(cmd, err, name)
				}
				return err
			}
			if rerr := renderInstall(a, result); rerr != nil {
				return rerr
			}
			if !result.Success {
				return errors.Newf(installErrorCode(result), MsgInstallFailed, name).
					WithDetail("errors", result.Errors)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&install.Force, "force", "f", false, MsgFlagForce)
	cmd.Flags().StringVar(&install.Source, "source", "", MsgFlagSource)
	return cmd
}

// installErrorCode classifies a failed install.
func installErrorCode(result *manager.InstallResult) errors.ErrorCode {
	for _, r := range result.Results {
		if len(r.Conflicts) > 0 {
			return errors.ErrConflict
		}
	}
	return errors.ErrUnknown
}

func renderInstall(a *app, result *manager.InstallResult) error {
	t := &ui.Table{Headers: []string{"Pack", "Status", "Modes", "Workflows", "Agents", "Hooks"}}
	for _, skipped := range result.Skipped {
		t.Rows = append(t.Rows, []string{skipped, "already installed", "", "", "", ""})
	}
	for _, r := range result.Results {
		status := "installed"
		if !r.Success {
			status = "failed"
		}
		t.Rows = append(t.Rows, []string{
			r.Pack, status,
			strings.Join(r.Installed.Modes, ", "),
			strings.Join(r.Installed.Workflows, ", "),
			strings.Join(r.Installed.Agents, ", "),
			strings.Join(r.Installed.Hooks, ", "),
		})
	}

	var notes []string
	for _, r := range result.Results {
		for _, c := range r.Conflicts {
			notes = append(notes, "conflict: "+installer.FormatConflict(c))
		}
	}
	for _, e := range result.Errors {
		notes = append(notes, "error: "+e)
	}
	for _, w := range result.Warnings {
		notes = append(notes, "warning: "+w)
	}
	keys := make([]string, 0, len(result.AppliedConfig))
	for k := range result.AppliedConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		notes = append(notes, fmt.Sprintf("configured %s = %v", k, result.AppliedConfig[k]))
	}

	return a.renderer.RenderResult(&ui.Result{
		Title:    "Install " + result.Pack,
		Table:    t,
		Markdown: result.PostInstallMessage,
		Notes:    notes,
		Data:     result,
	})
}

func newPacksUninstallCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "uninstall <pack>",
		Short: MsgPacksUninstall,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			name := args[0]

			if !yes {
				if dependents := a.manager.Dependents(name); len(dependents) > 0 {
					ok, err := a.prompter.Confirm(fmt.Sprintf(MsgConfirmUninstall, strings.Join(dependents, ", "), name), false)
					if err != nil {
						return err
					}
					if !ok {
						return a.renderer.RenderMessage(MsgUninstallDeclined)
					}
				}
			}

			result, err := a.manager.UninstallPack(cmd.Context(), name)
			if err != nil {
				return err
			}

			t := &ui.Table{Headers: []string{"Type", "Removed"}}
			removed := result.Installed
			for _, row := range [][]string{
				{"modes", strings.Join(removed.Modes, ", ")},
				{"workflows", strings.Join(removed.Workflows, ", ")},
				{"agents", strings.Join(removed.Agents, ", ")},
				{"hooks", strings.Join(removed.Hooks, ", ")},
			} {
				if row[1] != "" {
					t.Rows = append(t.Rows, row)
				}
			}
			var notes []string
			for _, p := range a.relPaths(result.Preserved) {
				notes = append(notes, "kept modified file "+p)
			}
			for _, k := range result.RevertedConfig {
				notes = append(notes, "reverted "+k)
			}
			for _, e := range result.Errors {
				notes = append(notes, "error: "+e)
			}
			return a.renderer.RenderResult(&ui.Result{
				Title: "Uninstall " + name,
				Table: t,
				Notes: notes,
				Data:  result,
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, MsgFlagYes)
	return cmd
}

func newPacksInstalledCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "installed",
		Short: MsgPacksInstalled,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			installed := a.manager.InstalledPacks()
			if len(installed) == 0 {
				return a.renderer.RenderResult(&ui.Result{Notes: []string{MsgNoInstalled}, Data: installed})
			}
			t := &ui.Table{Headers: []string{"Name", "Version", "Source", "Installed", "Files"}}
			for _, p := range installed {
				t.Rows = append(t.Rows, []string{
					p.Name, p.Version, p.Source,
					p.InstalledAt.Format(time.RFC3339),
					strconv.Itoa(len(a.manager.Files().PackFiles(p.Name))),
				})
			}
			return a.renderer.RenderResult(&ui.Result{Title: "Installed packs", Table: t, Data: installed})
		},
	}
}

func newPacksValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pack>",
		Short: MsgPacksValidate,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			v := a.manager.Validate(cmd.Context(), args[0])
			if v.Valid {
				return a.renderer.RenderMessage(fmt.Sprintf(MsgPackValid, args[0]))
			}
			if err := a.renderer.RenderResult(&ui.Result{Title: "Problems with " + args[0], Notes: v.Issues, Data: v}); err != nil {
				return err
			}
			return errors.Newf(errors.ErrInvalidManifest, "pack %q does not validate", args[0]).
				WithDetail("issues", v.Issues)
		},
	}
}

func newPacksStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: MsgPacksStats,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			stats := a.registry.Stats(cmd.Context())
			files := a.manager.Files().Stats()

			t := &ui.Table{Headers: []string{"Metric", "Value"}}
			t.Rows = append(t.Rows,
				[]string{"sources", strconv.Itoa(stats.Sources)},
				[]string{"available packs", strconv.Itoa(stats.TotalPacks)},
				[]string{"installed packs", strconv.Itoa(len(a.manager.InstalledPacks()))},
				[]string{"installed files", strconv.Itoa(files.TotalFiles)},
				[]string{"modified files", strconv.Itoa(files.ModifiedFiles)},
			)
			for _, k := range sortedKeys(stats.ByCategory) {
				t.Rows = append(t.Rows, []string{"category " + k, strconv.Itoa(stats.ByCategory[k])})
			}
			for _, k := range sortedKeys(stats.ByAuthor) {
				t.Rows = append(t.Rows, []string{"author " + k, strconv.Itoa(stats.ByAuthor[k])})
			}
			return a.renderer.RenderResult(&ui.Result{
				Title: "Pack statistics",
				Table: t,
				Data:  map[string]interface{}{"registry": stats, "files": files},
			})
		},
	}
}

func newPacksServeCmd(opts *globalOptions) *cobra.Command {
	var addr, root, token string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: MsgPacksServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			if root == "" {
				root = a.paths.BuiltinPacksDir()
			}
			if root == "" {
				return errors.New(errors.ErrInvalidInput, "no pack directory: pass --root or install the built-in templates")
			}
			root, err = filepath.Abs(root)
			if err != nil {
				return errors.Wrap(err, errors.ErrInvalidInput, "invalid --root")
			}

			server := packserver.New(sources.NewLocal(a.fs, root), packserver.Options{
				Token:    token,
				Gatherer: a.gatherer,
			})
			a.logger.Info(MsgServing, root, addr)
			return server.Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringVar(&root, "root", "", "Pack directory (default: built-in packs)")
	cmd.Flags().StringVar(&token, "token", "", "Require this bearer token")
	return cmd
}

// withSuggestions adds "did you mean" hints to a pack lookup failure.
func (a *app) withSuggestions(cmd *cobra.Command, err error, name string) error {
	var names []string
	for _, loaded := range a.manager.ListPacks(cmd.Context()) {
		names = append(names, loaded.Structure.Name())
	}
	if hints := components.Suggest(name, names); len(hints) > 0 {
		a.logger.Info(MsgDidYouMean, strings.Join(hints, ", "))
	}
	return err
}

// relPaths shortens paths inside the project.
func (a *app) relPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, err := filepath.Rel(a.paths.ProjectRoot(), p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
		out = append(out, p)
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
