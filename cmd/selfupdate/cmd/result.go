package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/netbirdio/selfupdate/updater"
)

var (
	watchResult  bool
	watchTimeout time.Duration
	clearResult  bool
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "shows the outcome of the last updater run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		var result *updater.Result
		if watchResult {
			ctx, cancel := context.WithTimeout(cmd.Context(), watchTimeout)
			defer cancel()

			r, err := m.WatchResult(ctx)
			if err != nil {
				return err
			}
			result = &r
		} else {
			result, err = m.LastResult()
			if err != nil {
				return err
			}
		}

		if result == nil {
			cmd.Println("no update result recorded")
			return nil
		}

		if result.Success {
			cmd.Printf("update to %s succeeded at %s\n", result.Version, result.ExecutedAt.Format(time.RFC3339))
		} else {
			cmd.Printf("update to %s failed at %s: %s\n", result.Version, result.ExecutedAt.Format(time.RFC3339), result.Error)
		}

		if clearResult {
			return m.CleanupResult()
		}
		return nil
	},
}

func init() {
	resultCmd.Flags().BoolVarP(&watchResult, "watch", "w", false, "wait for the updater to record its outcome")
	resultCmd.Flags().DurationVar(&watchTimeout, "timeout", 5*time.Minute, "how long --watch waits")
	resultCmd.Flags().BoolVar(&clearResult, "clear", false, "remove the recorded outcome after printing it")
}
