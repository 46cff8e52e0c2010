package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/config"
)

// Setup configures the standard logrus logger from config.
func Setup(cfg config.LogConfig) {
	logrus.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.WithField("level", cfg.Level).Warn("unknown LOG_LEVEL, falling back to info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
