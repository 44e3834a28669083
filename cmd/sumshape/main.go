// Command sumshape checks sum types against shape patterns and generates
// the trait impls the patterns dispatch.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/sumshape/internal/diagnostics"
)

var (
	// Global flags
	verbose   bool
	colorMode string

	logger *zap.Logger
)

// errFailed signals a check that found errors. They have been printed
// already, so main only sets the exit code.
var errFailed = errors.New("check failed")

var rootCmd = &cobra.Command{
	Use:   "sumshape",
	Short: "Check enums against shape patterns and generate dispatch impls",
	Long: `sumshape reads a sumshape.yaml project, checks every sum type it declares
or points at (Go interfaces, Rust enums, protobuf oneofs) against its shape
pattern, and renders the trait impls the pattern asks for.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch colorMode {
		case diagnostics.ColorAuto, diagnostics.ColorAlways, diagnostics.ColorNever:
		default:
			return fmt.Errorf("--color must be auto, always or never, got %q", colorMode)
		}

		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", diagnostics.ColorAuto, "colored diagnostics: auto, always or never")

	genCmd.Flags().StringVarP(&genOut, "out", "o", "", "output file (default: output.file from the project, else stdout)")

	rootCmd.AddCommand(checkCmd, genCmd, traitsCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "sumshape:", err)
		}
		os.Exit(1)
	}
}

func currentLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
