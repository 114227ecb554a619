package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/util"
)

// Result is the outcome of one updater run, left behind for the relaunched
// host since the updater cannot report to the process that started it.
type Result struct {
	Success    bool
	Error      string
	Version    string
	ExecutedAt time.Time
}

// ResultHandler handles reading and writing update results
type ResultHandler struct {
	resultFile string
}

// NewResultHandler creates a handler for the result file inside dir.
func NewResultHandler(dir string) *ResultHandler {
	return &ResultHandler{
		resultFile: filepath.Join(dir, ResultFileName),
	}
}

func (rh *ResultHandler) Path() string {
	return rh.resultFile
}

// Watch blocks until a result file appears or ctx is done.
func (rh *ResultHandler) Watch(ctx context.Context) (Result, error) {
	log.Infof("start watching result: %s", rh.resultFile)

	// Check if file already exists (updater finished before we started watching)
	if result, err := rh.Read(); err == nil {
		return result, nil
	}

	dir := filepath.Dir(rh.resultFile)

	// Wait for directory to exist (with timeout from context)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

DirectoryReady:
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			break DirectoryReady
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warnf("failed to close watcher: %v", err)
		}
	}()

	// Watch the directory (not the file, since it doesn't exist yet)
	if err := watcher.Add(dir); err != nil {
		return Result{}, fmt.Errorf("failed to watch directory: %v", err)
	}

	// the file may have been renamed into place between Read and Add
	if result, err := rh.Read(); err == nil {
		return result, nil
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}

			if filepath.Clean(event.Name) != filepath.Clean(rh.resultFile) {
				continue
			}

			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				result, err := rh.Read()
				if err != nil {
					log.Debugf("error while reading result: %v", err)
					continue
				}
				return result, nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}
			return Result{}, fmt.Errorf("watcher error: %w", err)
		}
	}
}

// Write writes the update result atomically.
func (rh *ResultHandler) Write(result Result) error {
	log.Infof("write out update result to: %s", rh.resultFile)
	dir := filepath.Dir(rh.resultFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Write to a temporary file first, then rename for atomic operation
	tmpPath := rh.resultFile + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, rh.resultFile); err != nil {
		if cleanupErr := os.Remove(tmpPath); cleanupErr != nil {
			log.Warnf("Failed to remove temp result file: %v", cleanupErr)
		}
		return err
	}

	return nil
}

// Cleanup removes the result file if it exists
func (rh *ResultHandler) Cleanup() error {
	return util.RemoveJson(rh.resultFile)
}

// Read reads and validates the result file.
func (rh *ResultHandler) Read() (Result, error) {
	data, err := os.ReadFile(rh.resultFile)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("invalid result format: %w", err)
	}

	return result, nil
}
