package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netbirdio/selfupdate/updater"
	"github.com/netbirdio/selfupdate/util"
)

var rootCmd = &cobra.Command{
	Use:          "updater <updatee> <content-dir> <restart> <routed-args>",
	Short:        "replaces the files of an exited application with a prepared update",
	Args:         cobra.ExactArgs(4),
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, argv []string) (err error) {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("get executable path: %w", err)
	}
	dir := filepath.Dir(exe)

	cfg, cfgErr := updater.LoadConfig(updater.ConfigPath(exe))

	if err := util.InitLog(cfg.LogLevel, filepath.Join(dir, updater.LogFileName)); err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logger := util.SourceLogger(util.UpdaterSource)

	if cfgErr != nil {
		logger.Warnf("using default config: %v", cfgErr)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("updater panicked: %v", r)
			err = fmt.Errorf("updater panicked: %v", r)
		}
	}()

	args, err := updater.ParseArgs(argv)
	if err != nil {
		logger.Errorf("invalid arguments: %v", err)
		return err
	}

	logger.Infof("updater started for %s (restart: %t)", args.UpdateePath, args.Restart)
	if err := updater.New(args, cfg, dir).Run(ctx); err != nil {
		logger.Errorf("update finished with errors: %v", err)
		return err
	}

	logger.Infof("update finished")
	return nil
}
