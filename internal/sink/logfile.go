package sink

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/ALEYI17/InfraSight_bench/internal/report"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
)

// LogFile appends the human-readable run log entry to a shared file.
type LogFile struct {
	path string
	mu   sync.Mutex
}

func NewLogFile(path string) *LogFile {
	return &LogFile{path: path}
}

func (l *LogFile) Name() string { return "log_file" }

func (l *LogFile) Send(_ context.Context, rep *types.Report) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(report.LogLine(rep)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *LogFile) Close() error { return nil }
