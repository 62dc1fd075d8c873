package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel)
)

func newLogger(out *os.File, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(level)
	return l
}

// InitLogger applies the configured level to the info logger. format "json"
// switches both loggers to JSON output.
func InitLogger(level, format string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		InfoLogger.SetLevel(lvl)
	} else if level != "" {
		ErrorLogger.Errorf("Unknown LOG_LEVEL %q, keeping %s", level, InfoLogger.GetLevel())
	}

	if format == "json" {
		InfoLogger.SetFormatter(&logrus.JSONFormatter{})
		ErrorLogger.SetFormatter(&logrus.JSONFormatter{})
	}
}
