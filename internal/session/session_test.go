package session

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/hostagent/internal/config"
	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	provider "github.com/Cyclone1070/hostagent/internal/provider/model"
	"github.com/Cyclone1070/hostagent/internal/sandbox"
)

func TestSession_Counters(t *testing.T) {
	s := New("build a report", "gemini-2.0-flash", "abc1234", 10)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "abc1234", s.CodeVersion)

	s.RecordUsage(provider.ResponseMetadata{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, EstimatedCost: 0.001})
	s.RecordUsage(provider.ResponseMetadata{PromptTokens: 200, CompletionTokens: 100, TotalTokens: 300, EstimatedCost: 0.002})

	assert.Equal(t, 2, s.APICalls)
	assert.Equal(t, 300, s.PromptTokens)
	assert.Equal(t, 150, s.CompletionTokens)
	assert.Equal(t, 450, s.TotalTokens)
	assert.InDelta(t, 0.003, s.EstimatedCost, 1e-9)

	s.RecordCommand(true)
	s.RecordCommand(false)
	assert.Equal(t, 2, s.TotalCommands)
	assert.Equal(t, 1, s.FailedCommands)
}

func TestSession_FinishOnce(t *testing.T) {
	s := New("task", "m", "unknown", 5)

	s.Finish(model.StatusComplete)
	first := s.EndTime
	require.Equal(t, model.StatusComplete, s.Status)

	// A second Finish must not overwrite the terminal state.
	s.Finish(model.StatusError)
	assert.Equal(t, model.StatusComplete, s.Status)
	assert.Equal(t, first, s.EndTime)
}

func TestSession_UniqueIDs(t *testing.T) {
	a := New("t", "m", "v", 1)
	b := New("t", "m", "v", 1)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRecorder_SessionFiles(t *testing.T) {
	logsDir := t.TempDir()
	s := New("list the files", "gemini-2.0-flash", "unknown", 10)

	r, err := NewRecorder(logsDir, s.ID, nil)
	require.NoError(t, err)

	require.NoError(t, r.WriteInput("list the files"))
	require.NoError(t, r.AppendEvent(Event{Type: "session_start"}))
	require.NoError(t, r.AppendEvent(Event{Type: "iteration_start", Iteration: 1}))

	r.LogIteration(1, "checking the directory", []string{"ls -la"}, []sandbox.Result{
		{Command: "ls -la", ExitCode: 0, Stdout: "total 0\n"},
	})

	s.Iterations = 1
	s.Finish(model.StatusComplete)
	require.NoError(t, r.Finalize(s))

	dir := r.Dir()
	input, err := os.ReadFile(filepath.Join(dir, "input.txt"))
	require.NoError(t, err)
	assert.Equal(t, "list the files", string(input))

	for _, name := range []string{
		"iterations/001_reasoning.txt",
		"iterations/001_commands.sh",
		"iterations/001_output.txt",
		"session.json",
		"REPORT.md",
		"transcript.jsonl",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "missing %s", name)
	}

	output, err := os.ReadFile(filepath.Join(dir, "iterations", "001_output.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(output), "=== Command 1: ls -la ===")
	assert.Contains(t, string(output), "Exit Code: 0")
	assert.Contains(t, string(output), "total 0")

	var loaded Session
	data, err := os.ReadFile(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, model.StatusComplete, loaded.Status)
}

func TestRecorder_TranscriptAppendOnly(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), "test-session", nil)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, r.AppendEvent(Event{Type: "iteration_start", Iteration: i}))
	}

	f, err := os.Open(filepath.Join(r.Dir(), "transcript.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var iterations []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		assert.False(t, event.Time.IsZero())
		iterations = append(iterations, event.Iteration)
	}
	assert.Equal(t, []int{1, 2, 3}, iterations)
}

func TestRenderReport(t *testing.T) {
	s := New("write a csv", "gemini-2.0-flash", "abc1234", 10)
	s.Iterations = 2
	s.Deliverables = []string{"data/out.csv", "notes.md"}
	s.FinalAnswer = "Done. Wrote data/out.csv."
	s.Finish(model.StatusComplete)

	report := RenderReport(s)
	assert.Contains(t, report, "# Session Report")
	assert.Contains(t, report, "`abc1234`")
	assert.Contains(t, report, "Created 2 file(s)")
	assert.Contains(t, report, "- `data/out.csv`")
	assert.Contains(t, report, "Done. Wrote data/out.csv.")
	assert.Contains(t, report, "- **Iterations**: 2/10")
}

func TestRenderReport_NoDeliverables(t *testing.T) {
	s := New("task", "m", "unknown", 5)
	s.Finish(model.StatusMaxIterations)

	report := RenderReport(s)
	assert.Contains(t, report, "No files created in workspace.")
	assert.Contains(t, report, "max_iterations")
}

func TestScanArtifacts(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"report.md":        "x",
		"data/out.csv":     "x",
		"data/raw.json":    "x",
		"script.py":        "x",
		"snippet.py":       "x", // excluded scratch file
		"image.png":        "x", // extension not in allowlist
		"sub/.gitkeep":     "",  // excluded name
		"nested/deep.txt":  "x",
		".git/config.json": "x", // .git is skipped entirely
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.DefaultConfig().Session
	artifacts, err := ScanArtifacts(root, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"data/out.csv",
		"data/raw.json",
		"nested/deep.txt",
		"report.md",
		"script.py",
	}, artifacts)
}

func TestScanArtifacts_SortedDeterministic(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	cfg := config.DefaultConfig().Session
	artifacts, err := ScanArtifacts(root, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, artifacts)
}

func TestCodeVersion_NotARepo(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "unknown", CodeVersion(dir))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs"), expandHome("~/logs"))
	assert.Equal(t, "/absolute/path", expandHome("/absolute/path"))
	assert.True(t, strings.HasPrefix(expandHome("~"), home))
}
