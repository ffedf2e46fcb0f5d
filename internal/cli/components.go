package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arthur-debert/zcc/pkg/components"
	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/ui"
	"github.com/spf13/cobra"
)

func newComponentsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "components",
		Aliases: []string{"component", "c"},
		Short:   MsgComponentsShort,
	}
	cmd.AddCommand(
		newComponentsListCmd(opts),
		newComponentsFindCmd(opts),
		newComponentsShowCmd(opts),
		newComponentsConflictsCmd(opts),
	)
	return cmd
}

// parseTypeArg reads an optional component type; "" means every type.
func parseTypeArg(args []string) (components.Type, error) {
	if len(args) == 0 || args[0] == "" {
		return "", nil
	}
	return components.ParseType(args[0])
}

type componentRow struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Scope       string `json:"scope"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Score       int    `json:"score,omitempty"`
}

func componentTable(rows []componentRow, withScore bool) *ui.Table {
	t := &ui.Table{Headers: []string{"Name", "Type", "Scope", "Description"}}
	if withScore {
		t.Headers = append(t.Headers, "Score")
	}
	for _, r := range rows {
		row := []string{r.Name, r.Type, r.Scope, r.Description}
		if withScore {
			row = append(row, strconv.Itoa(r.Score))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func toRow(info *components.Info) componentRow {
	return componentRow{
		Name:        info.Name,
		Type:        string(info.Type),
		Scope:       info.Scope,
		Path:        info.Path,
		Description: info.Description(),
	}
}

func newComponentsListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [type]",
		Short: MsgComponentsList,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTypeArg(args)
			if err != nil {
				return err
			}
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			core := a.components()
			infos := core.AllComponents()
			if t != "" {
				infos = core.Components(t)
			}
			if len(infos) == 0 {
				return a.renderer.RenderResult(&ui.Result{Notes: []string{MsgNoComponents}, Data: []componentRow{}})
			}
			rows := make([]componentRow, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, toRow(info))
			}
			return a.renderer.RenderResult(&ui.Result{
				Title: "Components",
				Table: componentTable(rows, false),
				Data:  rows,
			})
		},
	}
}

func newComponentsFindCmd(opts *globalOptions) *cobra.Command {
	var (
		typeName string
		find     components.FindOptions
	)
	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: MsgComponentsFind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTypeArg([]string{typeName})
			if err != nil {
				return err
			}
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			core := a.components()
			matches := core.FindComponents(args[0], t, find)
			if len(matches) == 0 {
				notes := []string{MsgNoComponents}
				if hints := core.GenerateSuggestions(args[0], t); len(hints) > 0 {
					notes = append(notes, fmt.Sprintf(MsgDidYouMean, strings.Join(hints, ", ")))
				}
				return a.renderer.RenderResult(&ui.Result{Notes: notes, Data: []componentRow{}})
			}
			rows := make([]componentRow, 0, len(matches))
			for _, m := range matches {
				row := toRow(m.Info)
				row.Score = m.Score
				rows = append(rows, row)
			}
			return a.renderer.RenderResult(&ui.Result{
				Title: fmt.Sprintf("Components matching %q", args[0]),
				Table: componentTable(rows, true),
				Data:  rows,
			})
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Only components of this type")
	cmd.Flags().IntVarP(&find.MaxResults, "max", "n", 20, "Maximum results (0 for all)")
	cmd.Flags().IntVar(&find.MinScore, "min-score", 0, "Minimum score (fuzzy 1-50, substring 60, prefix 80, exact 100)")
	return cmd
}

func newComponentsShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> <name>",
		Short: MsgComponentsShow,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := components.ParseType(args[0])
			if err != nil {
				return err
			}
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			core := a.components()
			info, ok := core.Component(t, args[1])
			if !ok {
				if hints := core.GenerateSuggestions(args[1], t); len(hints) > 0 {
					a.logger.Info(MsgDidYouMean, strings.Join(hints, ", "))
				}
				return errors.Newf(errors.ErrNotFound, "%s %q not found", t, args[1])
			}
			content, err := a.fs.ReadFile(info.Path)
			if err != nil {
				return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot read %s", info.Path)
			}
			body := string(content)
			if strings.HasSuffix(info.Path, ".json") {
				body = "```json\n" + body + "\n```\n"
			}
			return a.renderer.RenderResult(&ui.Result{
				Title:    fmt.Sprintf("%s %s (%s)", t, info.Name, info.Scope),
				Markdown: body,
				Notes:    []string{info.Path},
				Data:     map[string]interface{}{"component": toRow(info), "metadata": info.Metadata, "content": string(content)},
			})
		},
	}
}

func newComponentsConflictsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: MsgComponentsConf,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			conflicts := a.components().ComponentConflicts()
			if len(conflicts) == 0 {
				return a.renderer.RenderResult(&ui.Result{Notes: []string{MsgNoConflicts}, Data: conflicts})
			}
			t := &ui.Table{Headers: []string{"Name", "Type", "In effect", "Shadowed"}}
			for _, c := range conflicts {
				t.Rows = append(t.Rows, []string{c.Name, string(c.Type), c.Winner(), strings.Join(c.Scopes[1:], ", ")})
			}
			return a.renderer.RenderResult(&ui.Result{Title: "Shadowed components", Table: t, Data: conflicts})
		},
	}
}
