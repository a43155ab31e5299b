package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Cyclone1070/hostagent/internal/sandbox"
)

// Event is one line of the append-only transcript.
type Event struct {
	Time      time.Time `json:"time"`
	Type      string    `json:"type"`
	Iteration int       `json:"iteration,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Recorder persists a session to its log directory:
//
//	<logs_dir>/<session_id>/
//	    input.txt
//	    transcript.jsonl
//	    iterations/NNN_reasoning.txt
//	    iterations/NNN_commands.sh
//	    iterations/NNN_output.txt
//	    session.json
//	    REPORT.md
//
// transcript.jsonl is append-only; every write flushes before returning so a
// crashed run still leaves a usable log.
type Recorder struct {
	dir        string
	transcript *os.File
	logger     *zap.Logger
}

// NewRecorder creates the session directory tree and opens the transcript.
func NewRecorder(logsDir, sessionID string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Join(expandHome(logsDir), sessionID)
	if err := os.MkdirAll(filepath.Join(dir, "iterations"), 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	transcript, err := os.OpenFile(
		filepath.Join(dir, "transcript.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0o644,
	)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}

	return &Recorder{dir: dir, transcript: transcript, logger: logger}, nil
}

// Dir returns the session's log directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// WriteInput stores the original task text.
func (r *Recorder) WriteInput(task string) error {
	return os.WriteFile(filepath.Join(r.dir, "input.txt"), []byte(task), 0o644)
}

// AppendEvent writes one transcript line and syncs it to disk.
func (r *Recorder) AppendEvent(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := r.transcript.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return r.transcript.Sync()
}

// LogIteration writes the per-iteration reasoning, command, and output files.
// Failures are logged but not returned; losing an iteration file must not
// abort the run.
func (r *Recorder) LogIteration(n int, reasoning string, commands []string, results []sandbox.Result) {
	prefix := filepath.Join(r.dir, "iterations", fmt.Sprintf("%03d", n))

	if err := os.WriteFile(prefix+"_reasoning.txt", []byte(reasoning), 0o644); err != nil {
		r.logger.Warn("failed to write reasoning file", zap.Int("iteration", n), zap.Error(err))
	}

	cmdText := "(no commands)"
	if len(commands) > 0 {
		cmdText = strings.Join(commands, "\n")
	}
	if err := os.WriteFile(prefix+"_commands.sh", []byte(cmdText), 0o644); err != nil {
		r.logger.Warn("failed to write commands file", zap.Int("iteration", n), zap.Error(err))
	}

	if err := os.WriteFile(prefix+"_output.txt", []byte(formatOutputs(results)), 0o644); err != nil {
		r.logger.Warn("failed to write output file", zap.Int("iteration", n), zap.Error(err))
	}
}

// Finalize writes session.json and REPORT.md and closes the transcript.
func (r *Recorder) Finalize(s *Session) error {
	meta, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, "session.json"), meta, 0o644); err != nil {
		return fmt.Errorf("writing session.json: %w", err)
	}

	if err := os.WriteFile(filepath.Join(r.dir, "REPORT.md"), []byte(RenderReport(s)), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return r.transcript.Close()
}

func formatOutputs(results []sandbox.Result) string {
	if len(results) == 0 {
		return "(no output)"
	}
	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "=== Command %d: %s ===\n", i+1, result.Command)
		fmt.Fprintf(&b, "Exit Code: %d\n", result.ExitCode)
		if result.Stdout != "" {
			fmt.Fprintf(&b, "\n--- STDOUT ---\n%s\n", result.Stdout)
		}
		if result.Stderr != "" {
			fmt.Fprintf(&b, "\n--- STDERR ---\n%s\n", result.Stderr)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
