package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/netbirdio/selfupdate/progress"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [version]",
	Short: "downloads and stages a version, the latest one when omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		v, err := resolveVersion(cmd.Context(), m, args)
		if err != nil {
			return err
		}

		throttle := rate.Sometimes{Interval: 200 * time.Millisecond}
		reporter := progress.ReporterFunc(func(fraction float64) {
			throttle.Do(func() {
				cmd.Printf("\rpreparing %s: %3d%%", v, int(fraction*100))
			})
		})

		if err := m.PrepareUpdate(cmd.Context(), v, reporter); err != nil {
			cmd.Println()
			return err
		}
		cmd.Printf("\rpreparing %s: 100%%\nupdate %s prepared in %s\n", v, v, m.StorageDir())
		return nil
	},
}
