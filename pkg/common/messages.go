package common

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Global variable to control debug output
var VerboseMode bool = false

// Logger is the shared logger behind the Log* helpers
var Logger = newLogger()

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}
}

// Error messages
const (
	ErrFailedToOpenImage        = "failed to open CD image"
	ErrFailedToReadVolume       = "failed to read volume descriptor"
	ErrFailedToReadPathTable    = "failed to read path table"
	ErrFailedToLoadDirectory    = "failed to load directory"
	ErrFailedToResolvePath      = "failed to resolve path"
	ErrFailedToExtractFile      = "failed to extract file"
	ErrFailedToCreateOutputFile = "failed to create output file"
	ErrFailedToWriteManifest    = "failed to write manifest"
	ErrNotAFile                 = "path is a directory, not a file"
	ErrNotADirectory            = "path is a file, not a directory"
)

// Info messages
const (
	InfoImageOpened      = "Opened CD image %s (layout: %s, sectors: %d)"
	InfoFileExtracted    = "Extracted %s (%d bytes) -> %s"
	InfoDumpComplete     = "Extracted %d files in %d directories to %s"
	InfoManifestExported = "Exported manifest with %d entries"
)

// Debug messages
const (
	DebugLayoutDetected  = "Using %s layout (%d sectors)"
	DebugDirectoryLoaded = "Loaded directory %q (LBA: %d, Size: %d): %d entries"
	DebugFileEntry       = "[%04X] %s LBA=%d MSF=%s Size=%d %s"
)

// Warning messages
const (
	WarnDirectoryLoop   = "Skipping %s: directory at LBA %d was already walked"
	WarnInvalidFileName = "Skipping %s: not a valid host file name"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		Logger.Infof(message, args...)
	} else {
		Logger.Info(message)
	}
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		Logger.Warnf(message, args...)
	} else {
		Logger.Warn(message)
	}
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		Logger.Errorf(message, args...)
	} else {
		Logger.Error(message)
	}
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	if len(args) > 0 {
		Logger.Debugf(message, args...)
	} else {
		Logger.Debug(message)
	}
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
