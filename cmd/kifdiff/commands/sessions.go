package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/kifdiff/cmd/kifdiff/opts"
	"github.com/walteh/kifdiff/pkg/backup"
	"gitlab.com/tozd/go/errors"
)

// NewSessionsCmd creates a new sessions command
func NewSessionsCmd(rootOpts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded backup sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := backup.ListSessions(rootOpts.Config.BackupDir)
			if err != nil {
				return errors.Errorf("listing sessions: %w", err)
			}

			if len(sessions) == 0 {
				rootOpts.Logger.Info("No backup sessions found.")
				return nil
			}

			rows := pterm.TableData{{"Session", "Files", "Path"}}
			for _, s := range sessions {
				rows = append(rows, []string{s.Name, pterm.Sprintf("%d", s.Files), s.Path})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}

	return cmd
}
