package cmd

import (
	"github.com/spf13/cobra"

	"github.com/netbirdio/selfupdate/version"
)

var restart bool

var launchCmd = &cobra.Command{
	Use:   "launch <version> [-- restart args...]",
	Short: "starts the updater for a prepared version and exits",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := version.Parse(args[0])
		if err != nil {
			return err
		}

		m, err := newManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		if err := m.LaunchUpdater(v, restart, args[1:]); err != nil {
			return err
		}
		cmd.Printf("updater launched for %s\n", v)
		return nil
	},
}

func init() {
	launchCmd.Flags().BoolVar(&restart, "restart", true, "restart the application once the update is applied")
}
