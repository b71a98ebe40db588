package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/kifdiff/cmd/kifdiff/commands"
	"github.com/walteh/kifdiff/cmd/kifdiff/opts"
)

func main() {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "kifdiff",
		Short: "A tool for applying directive documents to the filesystem",
		Long: `kifdiff reads a plain-text directive document and applies it to the
local filesystem: creating, deleting, moving, and rewriting files, with
pre-image backups and a searchable run report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags are only bound after cobra parses them, so the shared
			// options are built here rather than in main.
			built, err := newRootOpts(cmd.Context())
			if err != nil {
				return err
			}
			*rootOpts = *built
			return nil
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewApplyCmd(rootOpts),
		commands.NewRollbackCmd(rootOpts),
		commands.NewSessionsCmd(rootOpts),
	)

	zlog := setupLogging()
	ctx := zlog.WithContext(context.Background())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "kifdiff: %v\n", err)
		os.Exit(1)
	}
}
