package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ALEYI17/InfraSight_bench/internal/report"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// File writes one report file per run and format into a directory.
type File struct {
	dir     string
	formats []string
}

func NewFile(dir string, formats []string) *File {
	if len(formats) == 0 {
		formats = []string{report.FormatJSON}
	}
	return &File{dir: dir, formats: formats}
}

func (f *File) Name() string { return "file" }

// FileName is <task>_<label>_<run id><ext>, with unsafe characters replaced.
func FileName(rep *types.Report, format string) string {
	name := rep.TaskType
	if rep.Label != "" {
		name += "_" + rep.Label
	}
	name += "_" + rep.RunID
	return unsafeName.ReplaceAllString(name, "-") + report.Extension(format)
}

func (f *File) Send(_ context.Context, rep *types.Report) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	for _, format := range f.formats {
		data, err := report.Encode(rep, format)
		if err != nil {
			return err
		}
		path := filepath.Join(f.dir, FileName(rep, format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func (f *File) Close() error { return nil }
