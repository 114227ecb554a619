package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netbirdio/selfupdate/extractor"
	"github.com/netbirdio/selfupdate/manager"
	"github.com/netbirdio/selfupdate/source"
	"github.com/netbirdio/selfupdate/updater"
	"github.com/netbirdio/selfupdate/util"
	"github.com/netbirdio/selfupdate/version"
)

const (
	localDirFlag     = "local-dir"
	manifestURLFlag  = "manifest-url"
	githubRepoFlag   = "github-repo"
	feedIDFlag       = "feed-id"
	archiveFlag      = "archive"
	archiveRootFlag  = "archive-root"
	executableFlag   = "executable"
	updaterPathFlag  = "updater-path"
	httpTimeoutFlag  = "http-timeout"
	updaterLevelFlag = "updater-log-level"
)

var (
	logLevel        string
	logFile         string
	appName         string
	appVersion      string
	executablePath  string
	storageDir      string
	localDir        string
	packagePattern  string
	manifestURL     string
	githubRepo      string
	assetPattern    string
	githubToken     string
	feedID          string
	feedIndex       string
	archiveFormat   string
	archiveRoot     string
	updaterPath     string
	updaterLogLevel string
	httpTimeout     time.Duration
	rootCmd         = &cobra.Command{
		Use:          "selfupdate",
		Short:        "checks, prepares and applies application updates",
		Long:         "",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			util.SetFlagsFromEnvVars(cmd.Root())
			return util.InitLog(logLevel, logFile)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "sets log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "console", "sets log path. If console is specified the log will be output to stderr")
	rootCmd.PersistentFlags().StringVarP(&appName, "app-name", "n", "", "name of the application, used for the storage directory")
	rootCmd.PersistentFlags().StringVar(&appVersion, "app-version", "", "currently installed version of the application")
	rootCmd.PersistentFlags().StringVar(&executablePath, executableFlag, "", "path of the application executable that gets replaced")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "overrides the per-user storage directory")
	rootCmd.PersistentFlags().StringVar(&updaterPath, updaterPathFlag, "", "updater executable to stage (default <app-name>.Updater beside the executable)")
	rootCmd.PersistentFlags().StringVar(&updaterLogLevel, updaterLevelFlag, "info", "log level written into the staged updater config")

	rootCmd.PersistentFlags().StringVar(&localDir, localDirFlag, "", "directory holding <version>.onv packages")
	rootCmd.PersistentFlags().StringVar(&packagePattern, "package-pattern", "*.onv", "glob matching package files in --local-dir")
	rootCmd.PersistentFlags().StringVar(&manifestURL, manifestURLFlag, "", "URL of a manifest listing '<version> <url>' lines")
	rootCmd.PersistentFlags().StringVar(&githubRepo, githubRepoFlag, "", "GitHub repository <owner>/<repo> publishing packages as release assets")
	rootCmd.PersistentFlags().StringVar(&assetPattern, "asset-pattern", "*", "glob selecting the release asset")
	rootCmd.PersistentFlags().StringVar(&githubToken, "github-token", "", "GitHub token for private repositories")
	rootCmd.PersistentFlags().StringVar(&feedID, feedIDFlag, "", "package id on a NuGet v3 feed")
	rootCmd.PersistentFlags().StringVar(&feedIndex, "feed-index", source.DefaultFeedIndex, "service index of the feed")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, httpTimeoutFlag, 10*time.Minute, "timeout of HTTP requests made by package sources")

	rootCmd.PersistentFlags().StringVar(&archiveFormat, archiveFlag, "zip", "package archive format [zip|tar]")
	rootCmd.PersistentFlags().StringVar(&archiveRoot, archiveRootFlag, "", "only extract entries below this archive directory")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(preparedCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(resultCmd)
}

// newSource combines every configured package source.
func newSource() (source.Source, error) {
	client := &http.Client{Timeout: httpTimeout}
	var sources []source.Source

	if localDir != "" {
		local, err := source.NewLocal(localDir, packagePattern)
		if err != nil {
			return nil, err
		}
		sources = append(sources, local)
	}

	if manifestURL != "" {
		sources = append(sources, source.NewManifest(manifestURL, client))
	}

	if githubRepo != "" {
		owner, repo, ok := strings.Cut(githubRepo, "/")
		if !ok || owner == "" || repo == "" {
			return nil, fmt.Errorf("invalid --%s %q, expected <owner>/<repo>", githubRepoFlag, githubRepo)
		}
		var opts []source.GitHubOption
		if githubToken != "" {
			opts = append(opts, source.WithGitHubToken(githubToken))
		}
		gh, err := source.NewGitHub(owner, repo, assetPattern, client, opts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, gh)
	}

	if feedID != "" {
		sources = append(sources, source.NewFeed(feedIndex, feedID, client))
	}

	switch len(sources) {
	case 0:
		return nil, fmt.Errorf("no package source configured, use one of --%s, --%s, --%s or --%s",
			localDirFlag, manifestURLFlag, githubRepoFlag, feedIDFlag)
	case 1:
		return sources[0], nil
	default:
		return source.NewAggregate(sources...), nil
	}
}

func newExtractor() (extractor.Extractor, error) {
	switch archiveFormat {
	case "zip":
		return extractor.NewSubPath(archiveRoot), nil
	case "tar":
		return extractor.NewTar(archiveRoot), nil
	default:
		return nil, fmt.Errorf("unsupported --%s %q", archiveFlag, archiveFormat)
	}
}

func newManager() (*manager.Manager, error) {
	if appName == "" {
		return nil, errors.New("--app-name is required")
	}

	current := version.Version{}
	if appVersion != "" {
		v, err := version.Parse(appVersion)
		if err != nil {
			return nil, err
		}
		current = v
	}

	app := manager.AppInfo{Name: appName, Version: current, ExecutablePath: executablePath}
	if app.ExecutablePath == "" {
		detected, err := manager.DetectAppInfo(appName, current)
		if err != nil {
			return nil, err
		}
		app = detected
	}

	src, err := newSource()
	if err != nil {
		return nil, err
	}
	ext, err := newExtractor()
	if err != nil {
		return nil, err
	}

	cfg := updater.DefaultConfig()
	cfg.LogLevel = updaterLogLevel

	opts := []manager.Option{manager.WithUpdaterConfig(cfg)}
	if storageDir != "" {
		opts = append(opts, manager.WithStorageDir(storageDir))
	}
	if updaterPath != "" {
		opts = append(opts, manager.WithUpdaterSource(updaterPath))
	}

	return manager.New(app, src, ext, opts...)
}

// resolveVersion parses args[0] or falls back to the newest available version.
func resolveVersion(ctx context.Context, m *manager.Manager, args []string) (version.Version, error) {
	if len(args) > 0 {
		return version.Parse(args[0])
	}

	result, err := m.CheckForUpdates(ctx)
	if err != nil {
		return version.Version{}, err
	}
	if result.LastVersion == nil {
		return version.Version{}, errors.New("no versions available")
	}
	log.Debugf("resolved latest version %s", result.LastVersion)
	return *result.LastVersion, nil
}

func closeManager(m *manager.Manager) {
	if err := m.Close(); err != nil {
		log.Warnf("failed to release update lock: %v", err)
	}
}
