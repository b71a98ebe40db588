package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/kifdiff/cmd/kifdiff/opts"
	"github.com/walteh/kifdiff/pkg/config"
	"github.com/walteh/kifdiff/pkg/log"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile  string
	debug       bool
	dryRun      bool
	interactive bool
	noBackup    bool
	verbose     bool
	async       bool
	backupDir   string
	reportFile  string
)

// newRootOpts creates a new rootOpts with initialized dependencies
func newRootOpts(ctx context.Context) (*opts.RootOpts, error) {
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	// Flags override file-level settings.
	if backupDir != "" {
		cfg.BackupDir = backupDir
	}
	if reportFile != "" {
		cfg.ReportFile = reportFile
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return &opts.RootOpts{
		Config:      cfg,
		Logger:      log.New(os.Stdout, level),
		DryRun:      dryRun,
		Interactive: interactive,
		NoBackup:    noBackup,
		Verbose:     verbose,
		Async:       async,
	}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".kifdiff.yaml", "config file path")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&backupDir, "backup-dir", "", "backup root directory (overrides config)")
	cmd.PersistentFlags().StringVar(&reportFile, "report-file", "", "write the run report to this file instead of stdout")
	cmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "report what would change without touching the filesystem")
	cmd.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "confirm each destructive directive before applying it")
	cmd.PersistentFlags().BoolVar(&noBackup, "no-backup", false, "skip pre-image backups")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose execution logging")
	cmd.PersistentFlags().BoolVar(&async, "async", false, "apply multiple documents concurrently")
}

// setupLogging configures zerolog based on flags
func setupLogging() zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
}
