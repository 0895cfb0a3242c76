package internal

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger sets the level and optional file output.
func InitLogger(logfile, level string) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:   logfile == "",
		FullTimestamp: true,
		DisableQuote:  true,
		PadLevelText:  true,
	})
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("log-level: %w", err)
		}
		logrus.SetLevel(lvl)
	}
	if logfile != "" {
		file, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			logrus.SetOutput(file)
		} else {
			logrus.Warn("Failed to open log file, logging to stderr")
		}
	}
	return nil
}
