package config

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// runIDHook stamps every log entry with the id of the current invocation
type runIDHook struct {
	runID string
}

func (h *runIDHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *runIDHook) Fire(entry *logrus.Entry) error {
	if _, exists := entry.Data["run_id"]; !exists {
		entry.Data["run_id"] = h.runID
	}
	return nil
}

// SetupLogging configures the global logrus logger and returns the run id.
// Logs go to stderr so stdout only ever carries command output.
func SetupLogging(cfg *Config) string {
	logrus.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL %q, using warn", cfg.LogLevel)
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	runID := uuid.NewString()
	logrus.AddHook(&runIDHook{runID: runID})
	return runID
}
