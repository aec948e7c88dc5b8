package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/moxforge/shellpack/cmd"
	"github.com/moxforge/shellpack/internal/errors"
)

// newGenDocCmd renders man pages for the whole command tree. It is hidden and
// used by packaging.
func newGenDocCmd() *cobra.Command {
	var dir string

	c := &cobra.Command{
		Use:    "gen-doc",
		Short:  "Generate man pages for the CLI",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if dir == "" {
				return errors.NewUserError(errors.New("output directory is required"), "pass --dir")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(err, "creating output directory")
			}

			header := &doc.GenManHeader{
				Title:   "SHELLPACK",
				Section: "1",
				Source:  "shellpack " + cmd.Version,
			}
			if err := doc.GenManTree(c.Root(), header, dir); err != nil {
				return errors.Wrap(err, "generating man pages")
			}

			fmt.Fprintf(c.OutOrStdout(), "Man pages generated in %s\n", dir)
			return nil
		},
	}
	c.Flags().StringVarP(&dir, "dir", "d", "", "output directory for man pages")
	return c
}
