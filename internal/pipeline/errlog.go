// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// ErrorLog appends one text line per failure to a shared file. The file is
// opened for each entry so nothing is created until something fails.
type ErrorLog struct {
	path string
	mu   sync.Mutex
}

// NewErrorLog returns a log appending to path. An empty path discards entries.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

// Record appends msg with the given slog key/value pairs.
func (l *ErrorLog) Record(msg string, args ...any) error {
	if l == nil || l.path == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening error log %s: %w", l.path, err)
	}
	slog.New(slog.NewTextHandler(f, nil)).Error(msg, args...)
	return f.Close()
}
