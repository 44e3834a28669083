package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/project"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-run check whenever the project or its sources change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", project.DefaultDebounce, "quiet period before re-checking")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := projectPath(args)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "watching %s (Ctrl-C to stop)\n", path)

	watcher := project.NewWatcher(path, currentLogger(), watchDebounce)
	return watcher.Run(cmd.Context(), func(p *project.Project, err error) {
		fmt.Fprintf(w, "\n[%s]\n", time.Now().Format(time.TimeOnly))
		if err != nil {
			diagnostics.NewPrinter(w, colorMode).PrintError(err)
			return
		}
		reports, err := p.Check(cmd.Context())
		if err != nil {
			diagnostics.NewPrinter(w, colorMode).PrintError(err)
			return
		}
		printReports(w, reports)
	})
}
