package commands

import (
	"github.com/spf13/cobra"

	"github.com/moxforge/shellpack/internal/backup"
)

func newBackupCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up the shell environment to a Git repository",
		Long: `Run the backup wizard.

The wizard asks for the repository URL, a backup name, the backup type and
which shells to include, then stages the backup in a temporary directory,
writes its manifest and pushes it to backups/<name> in the repository.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			_, err := backup.New(st.session(c)).Run(c.Context())
			return err
		},
	}
}
