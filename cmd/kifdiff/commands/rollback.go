package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/kifdiff/cmd/kifdiff/opts"
	"github.com/walteh/kifdiff/pkg/backup"
	"gitlab.com/tozd/go/errors"
)

// NewRollbackCmd creates a new rollback command
func NewRollbackCmd(rootOpts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback [session]",
		Short: "Restore files from a backup session",
		Long: `Rollback restores every file captured in the named backup session
to its pre-image. With no argument, the most recent session is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			result, err := backup.Rollback(cmd.Context(), rootOpts.Config.BackupDir, name)
			if err != nil {
				return errors.Errorf("rolling back: %w", err)
			}

			rootOpts.Logger.Successf("Restored %d file(s) from %s", result.Restored, result.Session)
			if result.Failed > 0 {
				return errors.Errorf("%d file(s) could not be restored", result.Failed)
			}
			return nil
		},
	}

	return cmd
}
