package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var genOut string

var genCmd = &cobra.Command{
	Use:   "gen [dir]",
	Short: "Check the project and render the generated impls",
	Long: `Checks every enum like 'check' and, when all of them conform, renders
their impls and derivations in the project's output dialect. Nothing is
written when any enum fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGen,
}

func runGen(cmd *cobra.Command, args []string) error {
	p, err := openProject(cmd, args)
	if err != nil {
		return err
	}
	defer p.Close()

	reports, err := p.Check(cmd.Context())
	if err != nil {
		return err
	}
	if printReports(cmd.ErrOrStderr(), reports) {
		return errFailed
	}
	src, err := p.Generate(reports)
	if err != nil {
		return err
	}

	out := genOut
	if out == "" && p.Config.Output.File != "" {
		out = filepath.Join(p.Dir, p.Config.Output.File)
	}
	if out == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), src)
		return err
	}
	if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	currentLogger().Info("generated", zap.String("file", out), zap.Int("enums", len(reports)))
	return nil
}
