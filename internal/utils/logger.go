package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogsDir is where run logs are written.
const LogsDir = "logs"

// RunLogger writes the log of one crawl or generation run to stdout and to its own
// file under logs/<run>/.
type RunLogger struct {
	file       *os.File
	logger     *log.Logger
	multiWrite io.Writer
	path       string
}

func NewRunLogger(runName string) (*RunLogger, error) {
	return NewRunLoggerIn(LogsDir, runName, os.Stdout)
}

// NewRunLoggerIn creates the run log under logsDir, mirroring it to out when out is
// not nil.
func NewRunLoggerIn(logsDir, runName string, out io.Writer) (*RunLogger, error) {
	// Sanitize run name for file system
	sanitized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(runName)), " ", "_")
	sanitized = strings.ReplaceAll(sanitized, string(filepath.Separator), "_")
	if sanitized == "" {
		sanitized = "run"
	}

	runDir := filepath.Join(logsDir, sanitized)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create log file with timestamp
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(runDir, fmt.Sprintf("%s_%s.log", sanitized, timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	var multiWrite io.Writer = file
	if out != nil {
		multiWrite = io.MultiWriter(out, file)
	}
	logger := log.New(multiWrite, "", log.Ldate|log.Ltime|log.Lmicroseconds)

	return &RunLogger{
		file:       file,
		logger:     logger,
		multiWrite: multiWrite,
		path:       logPath,
	}, nil
}

func (rl *RunLogger) LogInfo(format string, v ...interface{}) {
	rl.log("INFO", format, v...)
}

func (rl *RunLogger) LogError(format string, v ...interface{}) {
	rl.log("ERROR", format, v...)
}

func (rl *RunLogger) LogDebug(format string, v ...interface{}) {
	rl.log("DEBUG", format, v...)
}

func (rl *RunLogger) log(level string, format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	rl.logger.Printf("[%s] %s", level, message)
}

// Path returns the log file path.
func (rl *RunLogger) Path() string {
	return rl.path
}

func (rl *RunLogger) Close() error {
	return rl.file.Close()
}
