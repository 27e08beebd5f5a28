package main

import (
	"fmt"
	"io"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeManPage(cmd.OutOrStdout())
	},
}

func writeManPage(w io.Writer) error {
	manPage, err := mcobra.NewManPage(1, rootCmd)
	if err != nil {
		return err
	}

	manPage = manPage.
		WithSection("Workflow", "Pick a soundscape with calmstep sounds, "+
			"settle in with calmstep breathe, then work with calmstep focus. "+
			"Each step can also be started on its own.").
		WithSection("Files", "calmstep.yml in the user config directory holds the settings; "+
			"run calmstep config to edit it. state.yml in the user data directory "+
			"remembers the selected soundscape and the last focus durations.")

	_, err = fmt.Fprintln(w, manPage.Build(roff.NewDocument()))
	return err
}
