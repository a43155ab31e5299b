// Package sandbox runs shell commands, python snippets, and file operations
// confined to a single workspace root.
//
// Confinement is path-based: every resolved path must be the workspace root or
// a descendant of it, and violations fail closed. There is no namespace or
// seccomp isolation; combined with the safety validator this bounds accidents,
// not adversaries.
//
// An Executor is built for exactly one workspace root. Concurrent sessions
// must each use their own root: nothing here locks the workspace, and two
// sessions sharing one root can race on file writes.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Cyclone1070/hostagent/internal/config"
	"github.com/Cyclone1070/hostagent/internal/safety"
	"go.uber.org/zap"
)

// Executor dispatches validated commands and file operations inside the
// workspace root.
type Executor struct {
	root      string
	validator *safety.Validator
	cfg       config.SandboxConfig
	logger    *zap.Logger
}

// New creates an Executor for the given canonical workspace root.
func New(root string, validator *safety.Validator, cfg config.SandboxConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{root: root, validator: validator, cfg: cfg, logger: logger}
}

// Root returns the canonical workspace root.
func (e *Executor) Root() string {
	return e.root
}

// RunShell validates and executes a shell command. Commands containing shell
// metacharacters run through the shell interpreter with a restricted
// environment; plain commands are split into an argument vector and executed
// directly without a shell.
func (e *Executor) RunShell(ctx context.Context, req ShellRequest) Result {
	verdict := e.validator.Classify(req.Command)
	if !verdict.Allowed {
		e.logger.Warn("command blocked",
			zap.String("command", req.Command),
			zap.String("reason", verdict.Reason))
		return Result{
			Kind:      KindBlocked,
			Command:   req.Command,
			Cwd:       e.root,
			ExitCode:  exitCodeBlocked,
			Stderr:    "BLOCKED: " + verdict.Reason,
			ShellMode: verdict.ShellMode,
		}
	}

	cwd := req.Cwd
	if cwd == "" {
		cwd = "."
	}
	absCwd, _, err := Resolve(e.root, cwd)
	if err != nil {
		return Result{
			Kind:     KindPathEscape,
			Command:  req.Command,
			Cwd:      e.root,
			ExitCode: 1,
			Stderr:   "cwd must be inside workspace",
		}
	}

	var cmd *exec.Cmd
	if verdict.ShellMode {
		cmd = exec.Command(e.cfg.ShellBinary, "-c", req.Command)
		cmd.Env = []string{
			"PATH=" + e.cfg.RestrictedPath,
			"HOME=" + e.root,
			"PWD=" + absCwd,
		}
	} else {
		args := safety.SplitWords(req.Command)
		if len(args) == 0 {
			return Result{
				Kind:     KindExecError,
				Command:  req.Command,
				Cwd:      absCwd,
				ExitCode: 1,
				Stderr:   "empty command",
			}
		}
		cmd = exec.Command(args[0], args[1:]...)
		cmd.Env = os.Environ()
	}
	cmd.Dir = absCwd

	res := e.execute(ctx, cmd, e.clampTimeout(req.TimeoutSeconds))
	res.Command = req.Command
	res.Cwd = absCwd
	res.ShellMode = verdict.ShellMode
	return res
}

// clampTimeout applies the default and the [1, max] bound.
func (e *Executor) clampTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = e.cfg.DefaultTimeoutSeconds
	}
	if seconds < 1 {
		seconds = 1
	}
	if seconds > e.cfg.MaxTimeoutSeconds {
		seconds = e.cfg.MaxTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// execute starts the prepared command in its own process group, enforces the
// timeout, and collects tail-truncated output. On expiry the whole process
// group is terminated before the call returns; no child may outlive it.
func (e *Executor) execute(ctx context.Context, cmd *exec.Cmd, timeout time.Duration) Result {
	stdout := NewCollector(e.cfg.OutputTailBytes)
	stderr := NewCollector(e.cfg.OutputTailBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Own process group so timeout termination reaches children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{
			Kind:     KindExecError,
			ExitCode: exitCodeSpawn,
			Stderr:   fmt.Sprintf("Execution error: %v", err),
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		e.killGroup(cmd)
		<-done
		return e.buildResult(stdout, stderr, KindExecError, 1,
			fmt.Sprintf("Execution error: %v", ctx.Err()))
	case <-time.After(timeout):
		timedOut = true
		e.terminateGroup(cmd, done)
	}

	if timedOut {
		e.logger.Warn("command timed out",
			zap.Duration("timeout", timeout),
			zap.Duration("elapsed", time.Since(start)))
		return e.buildResult(stdout, stderr, KindTimeout, exitCodeTimeout,
			fmt.Sprintf("Command timed out after %ds", int(timeout.Seconds())))
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return e.buildResult(stdout, stderr, KindExecError, exitCodeSpawn,
				fmt.Sprintf("Execution error: %v", waitErr))
		}
	}

	outTail, outTrunc := stdout.Tail()
	errTail, errTrunc := stderr.Tail()
	return Result{
		Kind:      KindOK,
		ExitCode:  exitCode,
		Stdout:    outTail,
		Stderr:    errTail,
		Truncated: outTrunc || errTrunc,
	}
}

// buildResult assembles a failure result, keeping whatever output was
// captured before the failure and overriding stderr with the failure message.
func (e *Executor) buildResult(stdout, stderr *Collector, kind ResultKind, exitCode int, message string) Result {
	outTail, outTrunc := stdout.Tail()
	_, errTrunc := stderr.Tail()
	return Result{
		Kind:      kind,
		ExitCode:  exitCode,
		Stdout:    outTail,
		Stderr:    message,
		Truncated: outTrunc || errTrunc,
	}
}

// terminateGroup tries a graceful SIGTERM to the process group, then SIGKILL
// after the configured grace period, and waits for Wait to return so stdout
// and stderr are fully drained.
func (e *Executor) terminateGroup(cmd *exec.Cmd, done <-chan error) {
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)

	grace := time.Duration(e.cfg.GracefulShutdownMs) * time.Millisecond
	select {
	case <-done:
		return
	case <-time.After(grace):
		e.killGroup(cmd)
		<-done
	}
}

// killGroup forcibly kills the whole process group.
func (e *Executor) killGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
