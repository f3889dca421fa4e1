package log

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLevel(t *testing.T) {
	for _, c := range []struct {
		in  string
		out logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"fatal", logrus.FatalLevel},
		{"panic", logrus.PanicLevel},
		{"nonsense", logrus.DebugLevel},
		{"", logrus.DebugLevel},
	} {
		if got := Level(c.in); got != c.out {
			t.Errorf("Level(%q) = %v, want %v", c.in, got, c.out)
		}
	}
}

func TestNewRootWithoutDir(t *testing.T) {
	logger := NewRoot("warn", "")
	if logger.Level != logrus.WarnLevel {
		t.Fatalf("Level = %v, want %v", logger.Level, logrus.WarnLevel)
	}
	if len(logger.Hooks[logrus.InfoLevel]) != 0 {
		t.Fatalf("no hooks should be attached when dir is empty")
	}
}

func TestNewRootWritesLogFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "dagsync-log")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	logger := NewRoot("info", dir)
	logger.Info("hello")

	if _, err := os.Stat(filepath.Join(dir, "dagsync.log")); err != nil {
		t.Fatalf("expected dagsync.log to exist: %v", err)
	}
}
