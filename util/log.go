package util

import (
	"context"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogSource string

const (
	ManagerSource LogSource = "MANAGER"
	UpdaterSource LogSource = "UPDATER"
	SourceKey     LogSource = "source"
)

// InitLog parses and sets log-level input. logPath "console" or empty keeps
// stderr; anything else is a rotated file.
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Errorf("Failed parsing log-level %s: %s", logLevel, err)
		return err
	}

	if logPath != "" && logPath != "console" {
		log.SetOutput(io.Writer(NewRotatedLog(logPath)))
	} else {
		log.SetOutput(os.Stderr)
	}

	log.SetFormatter(&CustomFormatter{TextFormatter: log.TextFormatter{
		FullTimestamp: true,
		DisableColors: logPath != "" && logPath != "console",
	}})
	log.SetLevel(level)
	return nil
}

// SourceLogger returns an entry whose lines the CustomFormatter tags with src.
func SourceLogger(src LogSource) *log.Entry {
	return log.WithContext(context.WithValue(context.Background(), SourceKey, src))
}

// NewRotatedLog returns an appending, size rotated writer for logPath.
func NewRotatedLog(logPath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		// Log file absolute path, os agnostic
		Filename:   filepath.ToSlash(logPath),
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   false,
	}
}

// CustomFormatter tags entries with the component that produced them when
// the entry context carries a LogSource.
type CustomFormatter struct {
	log.TextFormatter
}

func (f *CustomFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Context == nil {
		return f.TextFormatter.Format(entry)
	}

	if src, ok := entry.Context.Value(SourceKey).(LogSource); ok {
		entry.Data["source"] = string(src)
	}
	return f.TextFormatter.Format(entry)
}
