package commands

import (
	"github.com/spf13/cobra"

	"github.com/moxforge/shellpack/internal/restore"
	"github.com/moxforge/shellpack/internal/wizard"
)

func newRestoreCmd(st *cliState) *cobra.Command {
	var fuzzy bool

	c := &cobra.Command{
		Use:   "restore",
		Short: "Restore the shell environment from a Git repository",
		Long: `Run the restore wizard.

The wizard clones the repository, lets you pick a backup, and restores SSH
keys, shells, Starship, Git configuration, Conda environments, history and
cloud credentials. Missing shells are installed with the system package
manager.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			s := st.session(c, wizard.WithFuzzy(fuzzy))
			_, err := restore.New(s).Run(c.Context())
			return err
		},
	}
	c.Flags().BoolVar(&fuzzy, "fuzzy", false, "pick the backup with a fuzzy finder")
	return c
}
