package sandbox

import "errors"

// Sentinel errors for sandbox failures. Callers use errors.Is; the executor
// methods themselves never return these for command-local failures — those are
// folded into a structured Result instead.
var (
	// ErrPathEscape means a resolved path left the workspace root. The
	// operation fails closed: nothing is executed, read, or written.
	ErrPathEscape = errors.New("path escapes workspace root")

	// ErrTimeout means the process exceeded its deadline and was terminated.
	ErrTimeout = errors.New("command timed out")

	// ErrBlocked means the validator rejected the command before execution.
	ErrBlocked = errors.New("command blocked by validator")
)

// ResultKind classifies an execution result for the error taxonomy.
type ResultKind string

const (
	KindOK         ResultKind = "ok"          // process ran; exit code is the process's own
	KindBlocked    ResultKind = "blocked"     // validator rejected, nothing spawned
	KindPathEscape ResultKind = "path_escape" // cwd or target path left the workspace
	KindTimeout    ResultKind = "timeout"     // deadline hit, process tree terminated
	KindExecError  ResultKind = "exec_error"  // spawn or IO failure
)

// Reserved exit codes for synthesized results.
const (
	exitCodeBlocked = 126
	exitCodeTimeout = 124
	exitCodeSpawn   = 127
)
