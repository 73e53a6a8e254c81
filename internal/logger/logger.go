package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger initializes the structured logger. level and format fall back to
// LOG_LEVEL and LOG_FORMAT when empty.
func InitLogger(level, format string) *logrus.Logger {
	log := logrus.New()

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}

	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(os.Stdout)

	Logger = log
	return log
}

// GetLogger returns the global logger, creating a default one if needed
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("", "")
	}
	return Logger
}

// WithComponent creates a logger entry tagged with the component name
func WithComponent(name string) *logrus.Entry {
	return GetLogger().WithField("component", name)
}

// WithMatch creates a logger entry for work on a single match
func WithMatch(component, matchID string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"component": component,
		"match_id":  matchID,
	})
}

// Discard returns an entry that drops everything. Used by tests.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}
