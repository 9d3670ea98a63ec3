package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TranscriptLogger appends a session's exchanges to <dir>/sessions/<id>.log.
// A nil *TranscriptLogger discards everything.
type TranscriptLogger struct {
	mu   sync.Mutex
	path string
}

func NewTranscriptLogger(baseDir, sessionID string) (*TranscriptLogger, error) {
	logsDir := filepath.Join(baseDir, "sessions")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	p := filepath.Join(logsDir, fmt.Sprintf("%s.log", sessionID))
	return &TranscriptLogger{path: p}, nil
}

func (l *TranscriptLogger) Log(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	ts := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(f, "[%s] %s\n", ts, fmt.Sprintf(format, args...))
}

func (l *TranscriptLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
