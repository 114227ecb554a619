package cmd

import (
	"github.com/spf13/cobra"
)

var preparedCmd = &cobra.Command{
	Use:   "prepared",
	Short: "lists the versions staged and ready to launch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		versions, err := m.PreparedUpdates()
		if err != nil {
			return err
		}
		for _, v := range versions {
			cmd.Println(v)
		}
		return nil
	},
}
