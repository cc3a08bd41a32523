package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Amr-9/SeedHunter/internal/config"
	"github.com/Amr-9/SeedHunter/internal/logger"
	"github.com/Amr-9/SeedHunter/pkg/api"
)

type serveFlags struct {
	configFile string
	envFile    string
	port       int
}

func newServeCmd(root *rootFlags) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP grinding service",
		Long: `Serve GET /grind, GET /grind/stream, GET /health and GET /metrics.
Default search parameters come from VANITY_* environment variables, an optional
.env file and an optional YAML config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Path to configuration file (YAML)")
	cmd.Flags().StringVar(&flags.envFile, "env-file", ".env", "Environment file to load before reading VANITY_* variables")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Listen port (overrides VANITY_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, root *rootFlags, flags *serveFlags) error {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil {
			// A missing default .env is fine; a missing explicit one is not.
			if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
				return fmt.Errorf("failed to load env file: %w", err)
			}
		}
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = flags.port
	}
	if root.logLevel != "" {
		cfg.Log.Level = root.logLevel
	}
	if root.logFormat != "" {
		cfg.Log.Format = root.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(root, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("configuration loaded",
		zap.String("base", cfg.Grind.Base),
		zap.String("owner", cfg.Grind.Owner),
		zap.String("prefix", cfg.Grind.Prefix),
		zap.String("suffix", cfg.Grind.Suffix),
		zap.Bool("case_insensitive", cfg.Grind.CaseInsensitive),
		zap.Int("cpus", cfg.Grind.CPUs),
		zap.Duration("timeout", cfg.Grind.Timeout),
	)

	srv, err := api.NewServerWithOptions(cfg, logger.WithComponent(log, "api"), &api.ServerOptions{
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	return srv.Stop(context.Background())
}
