package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Check every enum of the project against its pattern",
	Long: `Finds sumshape.yaml in dir (default: the current directory) or one of its
parents, checks every enum and prints the diagnostics. Exits with status 1
when any enum fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := openProject(cmd, args)
	if err != nil {
		return err
	}
	defer p.Close()

	reports, err := p.Check(cmd.Context())
	if err != nil {
		return err
	}
	if printReports(cmd.OutOrStdout(), reports) {
		return errFailed
	}
	return nil
}

// openProject opens the project found from args[0] or the working
// directory.
func openProject(cmd *cobra.Command, args []string) (*project.Project, error) {
	path, err := projectPath(args)
	if err != nil {
		return nil, err
	}
	return project.Open(cmd.Context(), path, currentLogger())
}

func projectPath(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path, err := project.FindConfig(dir)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("no sumshape.yaml found in %s or its parents", dir)
	}
	return path, nil
}

// printReports prints every finding and a summary. It reports whether any
// enum failed.
func printReports(w io.Writer, reports []*project.Report) bool {
	printer := diagnostics.NewPrinter(w, colorMode)
	all := project.Diagnostics(reports)
	printer.PrintSet(all)
	failed := all.HasErrors()
	for _, r := range reports {
		if r.Err != nil {
			printer.PrintError(r.Err)
			failed = true
		}
	}
	printer.Summary(len(reports), all)
	return failed
}
