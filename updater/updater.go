package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/util"
	"github.com/netbirdio/selfupdate/version"
)

var (
	// ErrWaitTimeout is returned when the updatee did not exit in time.
	ErrWaitTimeout = errors.New("timed out waiting for the application to exit")
	// ErrFileLocked is returned when a destination file stayed locked.
	ErrFileLocked = errors.New("destination file is locked")

	errStillLocked = errors.New("still locked")
)

// Updater replaces the files of an exited application with the content of a
// prepared package and optionally restarts it.
type Updater struct {
	args    Args
	cfg     Config
	results *ResultHandler
	logger  *log.Entry

	// test hooks
	startProcess func(cmd *exec.Cmd) error
	openFile     func(target string) error
}

// New creates an updater. The outcome of Run is written into resultDir.
func New(args Args, cfg Config, resultDir string) *Updater {
	return &Updater{
		args:         args,
		cfg:          cfg.withDefaults(),
		results:      NewResultHandler(resultDir),
		logger:       util.SourceLogger(util.UpdaterSource),
		startProcess: util.StartDetached,
		openFile:     openWithSystem,
	}
}

// Run performs the update in strict order: wait for the updatee to exit,
// copy the package content over its directory, delete the content directory
// and restart the updatee when requested. The result file is written before
// the restart so the new instance can pick it up.
func (u *Updater) Run(ctx context.Context) error {
	u.logger.Infof("updating %s from %s", u.args.UpdateePath, u.args.ContentDir)

	err := u.update(ctx)

	result := Result{
		Success:    err == nil,
		Version:    u.packageVersion(),
		ExecutedAt: time.Now(),
	}
	if err != nil {
		u.logger.Errorf("update failed: %v", err)
		result.Error = err.Error()
	}

	var merr *multierror.Error
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	if writeErr := u.results.Write(result); writeErr != nil {
		u.logger.Errorf("failed to write update result: %v", writeErr)
		merr = multierror.Append(merr, fmt.Errorf("write result: %w", writeErr))
	}

	if err == nil && u.args.Restart {
		if restartErr := u.restart(); restartErr != nil {
			u.logger.Errorf("failed to restart %s: %v", u.args.UpdateePath, restartErr)
			merr = multierror.Append(merr, fmt.Errorf("restart: %w", restartErr))
		}
	}

	return merr.ErrorOrNil()
}

func (u *Updater) update(ctx context.Context) error {
	u.logger.Infof("waiting for %s to exit", u.args.UpdateePath)
	if err := u.waitForExit(ctx); err != nil {
		return err
	}

	u.logger.Infof("copying package content to %s", filepath.Dir(u.args.UpdateePath))
	if err := u.apply(ctx); err != nil {
		return err
	}

	u.cleanup()
	return nil
}

func (u *Updater) waitForExit(ctx context.Context) error {
	err := u.poll(ctx, u.cfg.ExitPollInterval, u.cfg.ExitPollAttempts, u.args.UpdateePath)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s", ErrWaitTimeout, u.args.UpdateePath)
}

func (u *Updater) apply(ctx context.Context) error {
	hostDir := filepath.Dir(u.args.UpdateePath)

	return util.CopyDir(u.args.ContentDir, hostDir, func(dst string) error {
		if err := u.poll(ctx, u.cfg.FileUnlockInterval, u.cfg.FileUnlockAttempts, dst); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s", ErrFileLocked, dst)
		}
		return nil
	})
}

func (u *Updater) cleanup() {
	if err := os.RemoveAll(u.args.ContentDir); err != nil {
		u.logger.Warnf("failed to remove package content %s: %v", u.args.ContentDir, err)
		return
	}
	u.logger.Debugf("removed package content %s", u.args.ContentDir)
}

// packageVersion is derived from the content directory, which the manager
// names after the version it holds.
func (u *Updater) packageVersion() string {
	v, err := version.Parse(filepath.Base(u.args.ContentDir))
	if err != nil {
		return ""
	}
	return v.String()
}

// poll retries until path can be opened for write, at a fixed interval and
// a bounded number of attempts.
func (u *Updater) poll(ctx context.Context, interval Duration, attempts int, path string) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Duration(interval)), uint64(attempts)),
		ctx,
	)

	return backoff.Retry(func() error {
		if util.CanOpenForWrite(path) {
			return nil
		}
		u.logger.Debugf("%s is not writable yet", path)
		return errStillLocked
	}, b)
}
