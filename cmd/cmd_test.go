package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	content := `
jobs:
  - label: team-a
    task_type: bfs
    binary: ./builds/team-a/bfs
    input: graph.txt
    output: out-a.txt
    timeout: 30s
  - label: team-b
    compile_error: "bfs.cpp:12: error: expected ';'"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Jobs, 2)
	assert.Equal(t, "team-a", m.Jobs[0].Label)
	assert.Equal(t, 30*time.Second, m.Jobs[0].Timeout)
	assert.Equal(t, "graph.txt", m.Jobs[0].Input)
	assert.Equal(t, "bfs", m.Jobs[1].TaskType)
	assert.NotEmpty(t, m.Jobs[1].CompileError)
}

func TestLoadManifestRejectsJobWithoutBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  - label: x\n"), 0o600))

	_, err := loadManifest(path)
	assert.Error(t, err)
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "batch", "hw", "history"})
}

func TestHistoryWithoutPath(t *testing.T) {
	t.Setenv("INFRASIGHT_BENCH_HISTORY_PATH", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"history", "list"})

	err := root.Execute()
	assert.ErrorIs(t, err, errNoHistory)
}

func TestBatchCompileErrorsOnly(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("jobs:\n  - label: team-b\n    compile_error: boom\n"), 0o600))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"batch", manifest, "--out-dir", filepath.Join(dir, "results"), "--no-perf", "--no-gpu"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "| team-b | bfs | failed-to-compile |")
	assert.Contains(t, out.String(), "0/1 candidates succeeded")

	entries, err := os.ReadDir(filepath.Join(dir, "results"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
