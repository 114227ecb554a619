package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/netbirdio/selfupdate/util"
)

const (
	LogFileName    = "Log.txt"
	ResultFileName = "result.json"
)

// Duration is a time.Duration stored as its string form ("250ms") in JSON.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config tunes the updater. The manager writes it next to the staged updater
// binary; the updater reads it on start and falls back to defaults.
type Config struct {
	AppName  string `json:"appName"`
	LogLevel string `json:"logLevel"`

	// polling the updatee executable until it can be opened for write
	ExitPollInterval Duration `json:"exitPollInterval"`
	ExitPollAttempts int      `json:"exitPollAttempts"`

	// polling each destination file that is still locked during the copy
	FileUnlockInterval Duration `json:"fileUnlockInterval"`
	FileUnlockAttempts int      `json:"fileUnlockAttempts"`

	// Launcher runs the updatee when it is neither executable itself nor has
	// a launcher stub beside it, e.g. ["dotnet"] or ["java", "-jar"].
	Launcher []string `json:"launcher,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:           "info",
		ExitPollInterval:   Duration(250 * time.Millisecond),
		ExitPollAttempts:   1200,
		FileUnlockInterval: Duration(100 * time.Millisecond),
		FileUnlockAttempts: 100,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ExitPollInterval <= 0 {
		c.ExitPollInterval = d.ExitPollInterval
	}
	if c.ExitPollAttempts <= 0 {
		c.ExitPollAttempts = d.ExitPollAttempts
	}
	if c.FileUnlockInterval <= 0 {
		c.FileUnlockInterval = d.FileUnlockInterval
	}
	if c.FileUnlockAttempts <= 0 {
		c.FileUnlockAttempts = d.FileUnlockAttempts
	}
	return c
}

// LoadConfig reads the config file at path. A missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := util.ReadJson(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("read updater config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

// Save writes the config to path atomically.
func (c Config) Save(ctx context.Context, path string) error {
	return util.WriteJson(ctx, path, c)
}

// BinaryName is the file name of the staged updater for appName.
func BinaryName(appName string) string {
	name := appName + ".Updater"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name
}

// ConfigPath is the companion config file of the updater binary at exePath.
func ConfigPath(exePath string) string {
	return strings.TrimSuffix(exePath, ".exe") + ".json"
}
