package cmd

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "lists available versions and whether an update is possible",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		result, err := m.CheckForUpdates(cmd.Context())
		if err != nil {
			return err
		}

		for _, v := range result.Versions {
			cmd.Println(v)
		}
		if result.LastVersion == nil {
			cmd.Println("no versions available")
			return nil
		}
		cmd.Printf("latest: %s, can update: %t\n", result.LastVersion, result.CanUpdate)
		return nil
	},
}
