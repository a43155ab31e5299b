package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// RunPython writes the snippet to a workspace-relative file and executes it
// with the configured interpreter. Timeout and truncation semantics match
// RunShell. The snippet file stays in the workspace afterwards; the
// deliverable scanner excludes the default scratch name.
func (e *Executor) RunPython(ctx context.Context, req PythonRequest) Result {
	filename := req.Filename
	if filename == "" {
		filename = e.cfg.PythonScratchFile
	}

	abs, _, err := Resolve(e.root, filename)
	if err != nil {
		return Result{
			Kind:     KindPathEscape,
			ExitCode: 1,
			Stderr:   "filename must be inside workspace",
			File:     filename,
		}
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Result{
			Kind:     KindExecError,
			ExitCode: exitCodeSpawn,
			Stderr:   fmt.Sprintf("Execution error: %v", err),
			File:     abs,
		}
	}
	if err := os.WriteFile(abs, []byte(req.Code), 0o644); err != nil {
		return Result{
			Kind:     KindExecError,
			ExitCode: exitCodeSpawn,
			Stderr:   fmt.Sprintf("Execution error: %v", err),
			File:     abs,
		}
	}

	cmd := exec.Command(e.cfg.PythonBinary, abs)
	cmd.Dir = e.root
	cmd.Env = os.Environ()

	res := e.execute(ctx, cmd, e.clampTimeout(req.TimeoutSeconds))
	res.File = abs
	return res
}
