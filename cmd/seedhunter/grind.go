package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Amr-9/SeedHunter/internal/config"
	"github.com/Amr-9/SeedHunter/internal/ui"
	"github.com/Amr-9/SeedHunter/pkg/api"
	"github.com/Amr-9/SeedHunter/pkg/generator"
	"github.com/Amr-9/SeedHunter/pkg/grind"
)

type grindFlags struct {
	base            string
	owner           string
	prefix          string
	suffix          string
	caseInsensitive bool
	workers         int
	timeout         time.Duration
	output          string
	interactive     bool
	keepPriority    bool
}

func newGrindCmd(root *rootFlags) *cobra.Command {
	flags := &grindFlags{}

	cmd := &cobra.Command{
		Use:   "grind",
		Short: "Search for a vanity address from the terminal",
		Example: `  seedhunter grind --prefix abc
  seedhunter grind --suffix pump --case-insensitive --timeout 10m --output result.yaml
  seedhunter grind --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrind(cmd, root, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.base, "base", "b", config.DefaultBase, "Base account (base58)")
	cmd.Flags().StringVarP(&flags.owner, "owner", "o", config.DefaultOwner, "Owner program (base58)")
	cmd.Flags().StringVarP(&flags.prefix, "prefix", "P", "", "Address prefix to match")
	cmd.Flags().StringVarP(&flags.suffix, "suffix", "s", "", "Address suffix to match")
	cmd.Flags().BoolVarP(&flags.caseInsensitive, "case-insensitive", "i", false, "Ignore letter case when matching")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Number of worker goroutines (0 = all CPUs)")
	cmd.Flags().DurationVarP(&flags.timeout, "timeout", "t", 0, "Give up after this long (0 = never)")
	cmd.Flags().StringVar(&flags.output, "output", "", "Write the result to this YAML file")
	cmd.Flags().BoolVar(&flags.interactive, "interactive", false, "Prompt for patterns and keep searching until told to stop")
	cmd.Flags().BoolVar(&flags.keepPriority, "keep-priority", false, "Do not raise the process priority")

	return cmd
}

func runGrind(cmd *cobra.Command, root *rootFlags, flags *grindFlags) error {
	// Console output owns stdout, so logs go to stderr.
	log, err := newLogger(root, "warn", "console", "stderr")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if !flags.keepPriority {
		if err := raisePriority(); err != nil {
			log.Debug("process priority unchanged", zap.Error(err))
		}
	}

	console := ui.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
	if flags.interactive {
		console.ClearScreen()
	}
	console.PrintWelcomeBanner(version)

	for {
		req := grind.Request{
			Base:            flags.base,
			Owner:           flags.owner,
			Prefix:          flags.prefix,
			Suffix:          flags.suffix,
			CaseInsensitive: flags.caseInsensitive,
			Workers:         flags.workers,
			Timeout:         flags.timeout,
		}

		if flags.interactive {
			target := console.PromptTarget()
			if target.Prefix == "" && target.Suffix == "" {
				console.PrintError(errors.New("must specify prefix or suffix"))
				continue
			}
			req.Prefix, req.Suffix, req.CaseInsensitive = target.Prefix, target.Suffix, target.CaseInsensitive
		}

		result, err := search(cmd.Context(), console, req)
		switch {
		case errors.Is(err, context.Canceled):
			console.PrintError(errors.New("cancelled"))
			err = nil
		case err != nil:
			console.PrintError(err)
			log.Warn("grind failed", zap.Error(err))
		default:
			console.PrintSuccess(result, flags.output)
			if flags.output != "" {
				if werr := writeResult(flags.output, result); werr != nil {
					console.PrintError(werr)
					err = werr
				}
			}
		}

		if !flags.interactive {
			return err
		}
		if !console.AskToContinue() {
			return nil
		}
	}
}

// search runs one session while drawing progress. An interrupt cancels only
// this search.
func search(ctx context.Context, console *ui.Console, req grind.Request) (*generator.Result, error) {
	sess, err := grind.NewSession(req)
	if err != nil {
		return nil, err
	}

	criteria := sess.Criteria()
	console.PrintSearchInfo(criteria, sess.Workers(), sess.Backend())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	type outcome struct {
		result *generator.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := sess.Run(ctx)
		done <- outcome{result, err}
	}()

	ticker := time.NewTicker(updateRate)
	defer ticker.Stop()

	difficulty := criteria.Difficulty()
	for frame := 0; ; frame++ {
		select {
		case out := <-done:
			console.ClearLine()
			return out.result, out.err
		case <-ticker.C:
			console.PrintProgress(sess.Stats(), difficulty, frame)
		}
	}
}

type savedResult struct {
	api.GrindResponse `yaml:",inline"`
	Generated         string `yaml:"generated"`
}

// writeResult saves result as YAML, readable only by the owner.
func writeResult(path string, result *generator.Result) error {
	data, err := yaml.Marshal(savedResult{
		GrindResponse: api.NewGrindResponse(result),
		Generated:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}
