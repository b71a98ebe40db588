package commands

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/walteh/kifdiff/cmd/kifdiff/opts"
	"github.com/walteh/kifdiff/pkg/backup"
	"github.com/walteh/kifdiff/pkg/engine"
	"github.com/walteh/kifdiff/pkg/policy"
	"github.com/walteh/kifdiff/pkg/report"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// NewApplyCmd creates a new apply command
func NewApplyCmd(rootOpts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <document> [document...]",
		Short: "Apply one or more directive documents to the filesystem",
		Long: `Apply parses each document and executes its directives in order.
A parse error discards the whole document; execution errors are counted
and reported but do not stop the run. With --async, multiple documents
run concurrently, each against its own backup session.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), rootOpts, args)
		},
	}

	return cmd
}

func runApply(ctx context.Context, rootOpts *opts.RootOpts, documents []string) error {
	checker, err := policy.NewChecker(*rootOpts.Config.Command)
	if err != nil {
		return errors.Errorf("building command policy: %w", err)
	}

	var failed int
	var mu sync.Mutex
	combined := report.NewBuffer()

	apply := func(ctx context.Context, document string) error {
		execOpts := engine.Options{
			DryRun:         rootOpts.DryRun,
			Interactive:    rootOpts.Interactive && !rootOpts.Async,
			NoBackup:       rootOpts.NoBackup,
			Verbose:        rootOpts.Verbose,
			Policy:         checker,
			Logger:         rootOpts.Logger,
			DefaultTimeout: time.Duration(rootOpts.Config.Command.DefaultTimeout) * time.Second,
			MaxTimeout:     time.Duration(rootOpts.Config.Command.MaxTimeout) * time.Second,
		}

		backupDesc := ""
		if !rootOpts.NoBackup && !rootOpts.DryRun {
			session := backup.NewSession(rootOpts.Config.BackupDir, time.Now())
			execOpts.Backup = session
			execOpts.BackupDir = session.Dir()
			backupDesc = session.Dir()
		}

		rootOpts.Logger.Header(document, backupDesc)

		stats, buf, err := engine.Apply(ctx, document, execOpts)
		if err != nil {
			return err
		}

		mu.Lock()
		if !buf.Empty() {
			combined.Append(buf.String())
		}
		if !stats.Clean() {
			failed++
		}
		mu.Unlock()

		fmt.Println(stats.Summary())
		return nil
	}

	if rootOpts.Async && len(documents) > 1 {
		// Interactive prompts cannot interleave across goroutines, so async
		// runs force non-interactive mode.
		group, groupCtx := errgroup.WithContext(ctx)
		for _, document := range documents {
			document := document
			group.Go(func() error {
				return apply(groupCtx, document)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	} else {
		for _, document := range documents {
			if err := apply(ctx, document); err != nil {
				return err
			}
		}
	}

	if err := writeReport(rootOpts, combined); err != nil {
		return err
	}

	if failed > 0 {
		return errors.Errorf("%d document(s) finished with failed directives", failed)
	}
	return nil
}

// writeReport sends the collected READ/TREE/RUN output to the configured
// report file, or to stdout when none is set.
func writeReport(rootOpts *opts.RootOpts, buf *report.Buffer) error {
	if buf.Empty() {
		return nil
	}
	if rootOpts.Config.ReportFile == "" {
		fmt.Print(buf.String())
		return nil
	}
	if err := os.WriteFile(rootOpts.Config.ReportFile, []byte(buf.String()), 0644); err != nil {
		return errors.Errorf("writing report file: %w", err)
	}
	rootOpts.Logger.Successf("Report written to %s", rootOpts.Config.ReportFile)
	return nil
}
