package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global logger to write to stderr and to the
// given log file. The log file's directory is created if needed; failure
// to do so is returned to the caller and is fatal at startup.
func InitLogger(debug bool, logFile string) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("error creating log directory %s: %w", logDir, err)
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening log file %s: %w", logFile, err)
	}
	fileOutput := zerolog.ConsoleWriter{
		Out:        file,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, fileOutput)).With().Timestamp().Logger()
	return nil
}

func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
