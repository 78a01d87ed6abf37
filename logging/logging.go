// ABOUTME: logrus setup shared by every command
// ABOUTME: Sends logs to a file while the full-screen UI owns the terminal
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger for CLI use: text on stderr.
func Setup(level log.Level) {
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
}

// ToFile redirects logging to path as JSON lines. The returned closer
// restores stderr output.
func ToFile(path string, level log.Level) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(f)
	log.SetFormatter(&log.JSONFormatter{})
	return closerFunc(func() error {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
		return f.Close()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
