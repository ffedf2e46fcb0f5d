package cli

import (
	"github.com/arthur-debert/zcc/pkg/ui"
	"github.com/spf13/cobra"
)

func newFilesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: MsgFilesShort,
	}
	cmd.AddCommand(newFilesStatusCmd(opts), newFilesVerifyCmd(opts))
	return cmd
}

type fileRow struct {
	Path     string `json:"path"`
	Pack     string `json:"pack"`
	Source   string `json:"source"`
	Modified bool   `json:"modified"`
}

func newFilesStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: MsgFilesStatus,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			files := a.manager.Files()
			modified := make(map[string]bool)
			for _, p := range files.DetectModifications() {
				modified[p] = true
			}

			rows := []fileRow{}
			t := &ui.Table{Headers: []string{"Path", "Pack", "Status"}}
			for _, pack := range a.manager.InstalledPacks() {
				for _, path := range files.PackFiles(pack.Name) {
					entry := files.FileInfo(path)
					if entry == nil {
						continue
					}
					rows = append(rows, fileRow{Path: path, Pack: entry.Pack, Source: entry.OriginalPath, Modified: modified[path]})
					status := "ok"
					if modified[path] {
						status = "modified"
					}
					t.Rows = append(t.Rows, []string{a.relPaths([]string{path})[0], entry.Pack, status})
				}
			}
			if len(rows) == 0 {
				return a.renderer.RenderResult(&ui.Result{Notes: []string{MsgNoFiles}, Data: rows})
			}
			return a.renderer.RenderResult(&ui.Result{Title: "Installed files", Table: t, Data: rows})
		},
	}
}

func newFilesVerifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: MsgFilesVerify,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			modified := a.manager.Files().DetectModifications()
			if len(modified) == 0 {
				return a.renderer.RenderResult(&ui.Result{Notes: []string{MsgNoModifications}, Data: modified})
			}
			t := &ui.Table{Headers: []string{"Path", "Pack"}}
			for _, p := range modified {
				pack := ""
				if entry := a.manager.Files().FileInfo(p); entry != nil {
					pack = entry.Pack
				}
				t.Rows = append(t.Rows, []string{a.relPaths([]string{p})[0], pack})
			}
			return a.renderer.RenderResult(&ui.Result{
				Title: "Modified files",
				Table: t,
				Notes: []string{"Modified files are kept when their pack is uninstalled."},
				Data:  modified,
			})
		},
	}
}
