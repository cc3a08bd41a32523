package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Amr-9/SeedHunter/internal/logger"
)

var (
	// Version information (injected at build time)
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// updateRate is the refresh period of the console progress bar.
const updateRate = 33 * time.Millisecond

type rootFlags struct {
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "seedhunter",
		Short: "Solana create_with_seed vanity address grinder",
		Long: `SeedHunter searches for 16-character seeds whose create_with_seed address,
base58(sha256(base || seed || owner)), starts or ends with a chosen pattern.
Run it once from the terminal with "grind" or as an HTTP service with "serve".`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (json, console)")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newGrindCmd(flags),
		newDeriveCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seedhunter version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", buildTime)
		},
	}
}

// newLogger builds the process logger. Flag values win over the given
// defaults when set.
func newLogger(flags *rootFlags, level, format string, outputs ...string) (*zap.Logger, error) {
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if flags.logFormat != "" {
		format = flags.logFormat
	}
	return logger.NewWithConfig(&logger.Config{
		Level:         level,
		Encoding:      format,
		OutputPaths:   outputs,
		InitialFields: map[string]interface{}{"version": version},
	})
}
