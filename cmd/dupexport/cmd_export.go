package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"dupexport/internal/export"
	"dupexport/internal/selection"
	"dupexport/internal/submit"
)

var (
	exportName    string
	exportPrefix  string
	exportSelects []string
	exportAll     []string
	exportDryRun  bool
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export <repoId>",
	Short: "Export a selection without the terminal UI",
	Long: `Export selected classes and fields of a repository.

Fields are chosen with --select Class=field1,field2 (repeatable) and whole
classes with --all Class. --dry-run prints the request instead of sending it.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportName, "name", "", "external repository name (prompted when omitted)")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "optional id prefix")
	exportCmd.Flags().StringArrayVar(&exportSelects, "select", nil, "Class=field1,field2 to export")
	exportCmd.Flags().StringArrayVar(&exportAll, "all", nil, "class to export with all of its fields")
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "print the request body instead of sending it")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "directory for the artifact (default: download_dir)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	base := a.commandContext(cmd.Context(), "export", "repo_id", args[0])
	ws := a.workspace()
	loadCtx, cancel := context.WithTimeout(base, a.cfg.RequestTimeout.Duration)
	err = ws.Open(loadCtx, args[0])
	cancel()
	if err != nil {
		return err
	}

	if err := applySelections(ws.Store(), exportSelects, exportAll); err != nil {
		return err
	}

	name := exportName
	if strings.TrimSpace(name) == "" && term.IsTerminal(os.Stdin.Fd()) {
		input := huh.NewInput().
			Title("External repository name").
			Placeholder("e.g. Customer Data").
			Value(&name)
		if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
			return fmt.Errorf("prompt cancelled: %w", err)
		}
	}

	if exportDryRun {
		req, err := ws.BuildRequest(name, exportPrefix)
		if err != nil {
			return err
		}
		payload, err := export.Encode(req)
		if err != nil {
			return err
		}
		fmt.Println(string(export.Indent(payload)))
		return nil
	}

	ctx, cancel := context.WithTimeout(base, a.cfg.ExportTimeout.Duration)
	defer cancel()

	res, err := a.controller().Submit(ctx, ws.Input(name, exportPrefix), ws.Store())
	if err != nil {
		return err
	}

	dir := exportOut
	if dir == "" {
		dir = a.cfg.DownloadDir
	}
	path, err := submit.SaveArtifact(dir, res.Artifact)
	if err != nil {
		return err
	}
	fmt.Printf("Export generated successfully! Saved as %s (%d bytes)\n", path, len(res.Artifact.Data))
	return nil
}

// applySelections applies --select and --all values to the store. Unknown
// classes and fields are reported instead of silently ignored.
func applySelections(store *selection.Store, selects, all []string) error {
	for _, class := range all {
		class = strings.TrimSpace(class)
		if !store.HasRecord(class) {
			return fmt.Errorf("unknown class %q", class)
		}
		store.SelectAllFields(class)
	}

	for _, sel := range selects {
		class, list, ok := strings.Cut(sel, "=")
		class = strings.TrimSpace(class)
		if !ok || class == "" {
			return fmt.Errorf("invalid --select %q: want Class=field1,field2", sel)
		}
		if !store.HasRecord(class) {
			return fmt.Errorf("unknown class %q", class)
		}
		for _, field := range strings.Split(list, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			store.ToggleField(class, field, true)
			if !store.IsSelected(class, field) {
				return fmt.Errorf("class %q has no field %q", class, field)
			}
		}
	}

	if !store.HasAnySelection() {
		return errors.New("nothing selected: use --select Class=field1,field2 or --all Class")
	}
	return nil
}
