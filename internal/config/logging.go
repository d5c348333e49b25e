package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// LogWriter is shared by the standard logger and the GORM logger.
var LogWriter io.Writer = os.Stdout

// InitLogging tees the standard logger into path. The returned file is nil
// when the log file could not be opened; output then stays on stdout.
func InitLogging(path string) *os.File {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		LogWriter = os.Stdout
		log.SetOutput(LogWriter)
		return nil
	}

	LogWriter = io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(LogWriter)
	return logFile
}
