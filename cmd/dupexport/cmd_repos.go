package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dupexport/internal/ui/views"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List the repositories the export service knows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(a.commandContext(cmd.Context(), "repos"), a.cfg.RequestTimeout.Duration)
		defer cancel()

		repos, err := a.workspace().FetchRepositories(ctx)
		if err != nil {
			return err
		}
		if len(repos) == 0 {
			fmt.Println("No repositories available.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, r := range repos {
			fmt.Fprintf(w, "%s\t%s\n", r.ID, r.DisplayName)
		}
		return w.Flush()
	},
}

var (
	classesFilter string
	classesPage   int
)

var classesCmd = &cobra.Command{
	Use:   "classes <repoId>",
	Short: "Print one page of a repository's classes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(a.commandContext(cmd.Context(), "classes", "repo_id", args[0]), a.cfg.RequestTimeout.Duration)
		defer cancel()

		ws := a.workspace()
		if err := ws.Open(ctx, args[0]); err != nil {
			return err
		}

		v := ws.View()
		v.ApplyFilter(classesFilter)
		page := v.Page(classesPage - 1)
		info := v.PageInfo()
		if info.Filtered == 0 {
			if total := len(ws.Catalog()); total > 0 {
				fmt.Printf("No classes match %q (%d in catalog).\n", classesFilter, total)
			} else {
				fmt.Println("No classes found.")
			}
			return nil
		}

		fmt.Printf("Classes %d-%d of %d (page %d/%d)\n", info.Start, info.End, info.Filtered, info.Index+1, info.Total)
		for _, name := range page {
			fields := v.FieldsFor(name)
			names := make([]string, len(fields))
			for i, f := range fields {
				names[i] = f.Name
			}
			fmt.Printf("  %s (%d fields)\n", views.DisplayName(name), len(fields))
			if len(names) > 0 {
				fmt.Printf("      %s\n", strings.Join(names, ", "))
			}
		}
		return nil
	},
}

func init() {
	classesCmd.Flags().StringVar(&classesFilter, "filter", "", "only show classes whose name contains this text")
	classesCmd.Flags().IntVar(&classesPage, "page", 1, "page number, starting at 1")
}
