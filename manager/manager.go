package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/extractor"
	"github.com/netbirdio/selfupdate/lockfile"
	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/source"
	"github.com/netbirdio/selfupdate/updater"
	"github.com/netbirdio/selfupdate/util"
	"github.com/netbirdio/selfupdate/version"
)

const (
	downloadWeight = 0.9
	extractWeight  = 0.1
)

// CheckResult is the outcome of CheckForUpdates.
type CheckResult struct {
	// Versions available from the source, ascending.
	Versions []version.Version
	// LastVersion is the highest available version, nil when there is none.
	LastVersion *version.Version
	// CanUpdate is set when LastVersion is newer than the running version.
	CanUpdate bool
}

// LaunchFunc starts the staged updater at path with args without waiting for
// it. elevate is set when the application directory is not writable by the
// current user.
type LaunchFunc func(path string, args []string, elevate bool) error

type Option func(*Manager)

// WithStorageDir overrides the per-user storage directory.
func WithStorageDir(dir string) Option {
	return func(m *Manager) {
		m.storage.root = dir
	}
}

// WithUpdaterSource sets the updater executable that is staged into the
// storage area. Defaults to <AppName>.Updater beside the application.
func WithUpdaterSource(path string) Option {
	return func(m *Manager) {
		m.updaterSource = path
	}
}

// WithUpdaterConfig sets the config written next to the staged updater.
func WithUpdaterConfig(cfg updater.Config) Option {
	return func(m *Manager) {
		m.updaterConfig = cfg
	}
}

// WithLauncher replaces the way the updater process is spawned.
func WithLauncher(launch LaunchFunc) Option {
	return func(m *Manager) {
		m.launch = launch
	}
}

// Manager checks for, prepares and launches updates of one application.
// Calls on one Manager must not overlap; separate processes sharing a
// storage area are serialized by its lock file.
type Manager struct {
	app       AppInfo
	source    source.Source
	extractor extractor.Extractor
	storage   storage

	updaterSource string
	updaterConfig updater.Config
	launch        LaunchFunc
	logger        *log.Entry

	mu     sync.Mutex
	lock   *lockfile.Lock
	closed bool
}

func New(app AppInfo, src source.Source, ext extractor.Extractor, opts ...Option) (*Manager, error) {
	if app.Name == "" {
		return nil, errors.New("application name is required")
	}
	if app.ExecutablePath == "" {
		return nil, errors.New("application executable path is required")
	}
	if src == nil || ext == nil {
		return nil, errors.New("package source and extractor are required")
	}

	m := &Manager{
		app:           app,
		source:        src,
		extractor:     ext,
		storage:       storage{appName: app.Name},
		updaterSource: filepath.Join(filepath.Dir(app.ExecutablePath), updater.BinaryName(app.Name)),
		updaterConfig: updater.DefaultConfig(),
		launch:        spawnUpdater,
		logger:        util.SourceLogger(util.ManagerSource),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.storage.root == "" {
		dir, err := defaultStorageDir(app.Name)
		if err != nil {
			return nil, err
		}
		m.storage.root = dir
	}

	return m, nil
}

// StorageDir is the directory holding staged updates.
func (m *Manager) StorageDir() string {
	return m.storage.root
}

// CheckForUpdates queries the source. It does not touch the storage area.
func (m *Manager) CheckForUpdates(ctx context.Context) (*CheckResult, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	versions, err := m.source.ListVersions(ctx)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Versions: versions.Sorted()}
	if last, ok := versions.Max(); ok {
		result.LastVersion = &last
		result.CanUpdate = last.GreaterThan(m.app.Version)
	}

	m.logger.Debugf("found %d versions, can update: %t", len(result.Versions), result.CanUpdate)
	return result, nil
}

// IsUpdatePrepared reports whether v is staged and ready to launch. It
// always reports false once the manager is closed.
func (m *Manager) IsUpdatePrepared(v version.Version) bool {
	if m.checkOpen() != nil {
		return false
	}
	return m.storage.isPrepared(v)
}

// PreparedUpdates lists the prepared versions in ascending order.
func (m *Manager) PreparedUpdates() ([]version.Version, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	return m.storage.prepared()
}

// PrepareUpdate downloads and extracts the package for v and stages the
// updater. A failed call leaves v unprepared and may simply be repeated.
func (m *Manager) PrepareUpdate(ctx context.Context, v version.Version, reporter progress.Reporter) error {
	if err := m.ensureLock(); err != nil {
		return err
	}
	if err := m.ensureUpdaterNotLaunched(); err != nil {
		return err
	}

	if err := os.MkdirAll(m.storage.root, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	muxer := progress.NewMuxer(reporter)
	downloadProgress := muxer.Split(downloadWeight)
	extractProgress := muxer.Split(extractWeight)

	artifact := m.storage.artifactPath(v)
	m.logger.Infof("downloading package %s to %s", v, artifact)
	if err := m.source.Download(ctx, v, artifact, downloadProgress); err != nil {
		return err
	}

	contentDir, err := m.storage.resetContentDir(v)
	if err != nil {
		return err
	}

	m.logger.Infof("extracting package %s to %s", v, contentDir)
	if err := m.extractor.Extract(ctx, artifact, contentDir, extractProgress); err != nil {
		return err
	}

	if err := os.Remove(artifact); err != nil {
		return fmt.Errorf("remove package artifact: %w", err)
	}

	if err := m.stageUpdater(ctx); err != nil {
		return err
	}

	m.logger.Infof("update %s prepared", v)
	return nil
}

// LaunchUpdater starts the staged updater for a prepared version and
// returns without waiting. The caller is expected to exit right after so
// that the updater can replace its files.
func (m *Manager) LaunchUpdater(v version.Version, restart bool, restartArgs []string) error {
	if err := m.ensureLock(); err != nil {
		return err
	}
	if err := m.ensureUpdaterNotLaunched(); err != nil {
		return err
	}
	if !m.storage.isPrepared(v) {
		return &UpdateNotPreparedError{Version: v}
	}

	results := updater.NewResultHandler(m.storage.root)
	if err := results.Cleanup(); err != nil {
		m.logger.Warnf("failed to remove previous update result: %v", err)
	}

	args := updater.Args{
		UpdateePath: m.app.ExecutablePath,
		ContentDir:  m.storage.contentDir(v),
		Restart:     restart,
		RoutedArgs:  restartArgs,
	}

	elevate := !util.IsDirWritable(filepath.Dir(m.app.ExecutablePath))
	if elevate {
		m.logger.Infof("%s is not writable, launching the updater elevated", filepath.Dir(m.app.ExecutablePath))
	}

	updaterPath := m.storage.updaterPath()
	m.logger.Infof("launching updater %s for version %s", updaterPath, v)
	if err := m.launch(updaterPath, args.CommandLine(), elevate); err != nil {
		return fmt.Errorf("launch updater: %w", err)
	}
	return nil
}

// LastResult returns the outcome of the last updater run, or nil when none
// has been recorded.
func (m *Manager) LastResult() (*updater.Result, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	result, err := updater.NewResultHandler(m.storage.root).Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// WatchResult blocks until the updater records its outcome or ctx is done.
func (m *Manager) WatchResult(ctx context.Context) (updater.Result, error) {
	if err := m.checkOpen(); err != nil {
		return updater.Result{}, err
	}
	return updater.NewResultHandler(m.storage.root).Watch(ctx)
}

// CleanupResult removes the recorded updater outcome.
func (m *Manager) CleanupResult() error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	return updater.NewResultHandler(m.storage.root).Cleanup()
}

// Close releases the storage lock. Every later call except Close fails
// with ErrDisposed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.lock == nil {
		return nil
	}
	err := m.lock.Release()
	m.lock = nil
	return err
}

func (m *Manager) checkOpen() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrDisposed
	}
	return nil
}

func (m *Manager) ensureLock() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrDisposed
	}
	if m.lock != nil {
		return nil
	}

	if err := os.MkdirAll(m.storage.root, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	lock, err := lockfile.TryAcquire(m.storage.lockPath())
	if err != nil {
		return err
	}
	if lock == nil {
		return ErrLockNotAcquired
	}

	m.logger.Debugf("acquired update lock %s", lock.Path())
	m.lock = lock
	return nil
}

func (m *Manager) ensureUpdaterNotLaunched() error {
	if !util.CanOpenForWrite(m.storage.updaterPath()) {
		return ErrUpdaterAlreadyLaunched
	}
	return nil
}

// stageUpdater copies the updater executable into the storage area and
// writes its config, replacing any earlier copy.
func (m *Manager) stageUpdater(ctx context.Context) error {
	dst := m.storage.updaterPath()

	if err := util.CopyFileContents(m.updaterSource, dst); err != nil {
		return fmt.Errorf("failed to copy updater binary: %w", err)
	}

	if err := os.Chmod(dst, 0o755); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	cfg := m.updaterConfig
	cfg.AppName = m.app.Name
	if err := cfg.Save(ctx, m.storage.updaterConfigPath()); err != nil {
		return fmt.Errorf("write updater config: %w", err)
	}
	return nil
}
