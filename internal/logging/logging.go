package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogFilePath builds a per-session log file path inside logsDir.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// OpenLogFile creates logsDir if needed and opens a fresh session log file
// for appending.
func OpenLogFile(logsDir, appName string, sessionStart time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := LogFilePath(logsDir, appName, sessionStart)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
