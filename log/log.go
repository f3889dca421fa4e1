// Package log builds the root logrus.Logger every other package gets
// its *logrus.Entry from, matching babble's CLI log setup
// (cmd/babble/commands/run.go, config.Config.Logger): a prefixed
// console formatter, plus an optional file sink.
package log

import (
	"path/filepath"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// NewRoot returns a logrus.Logger at the given level, formatted with
// logrus-prefixed-formatter for console output. If dir is non-empty, an
// lfshook.NewHook sink is attached that additionally appends
// machine-readable entries to dagsync.log under dir.
func NewRoot(level, dir string) *logrus.Logger {
	logger := logrus.New()
	logger.Level = Level(level)
	logger.Formatter = &prefixed.TextFormatter{
		FullTimestamp: true,
	}

	if dir != "" {
		path := filepath.Join(dir, "dagsync.log")
		hook := lfshook.NewHook(lfshook.PathMap{
			logrus.DebugLevel: path,
			logrus.InfoLevel:  path,
			logrus.WarnLevel:  path,
			logrus.ErrorLevel: path,
			logrus.FatalLevel: path,
			logrus.PanicLevel: path,
		}, &logrus.JSONFormatter{})
		logger.Hooks.Add(hook)
	}

	return logger
}

// Level parses a string into a logrus.Level, defaulting to Debug for
// anything unrecognized.
func Level(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
