package sandbox

// ShellRequest describes one shell command execution.
type ShellRequest struct {
	Command string `json:"command" mapstructure:"command"`
	// Cwd is resolved relative to the workspace root. Empty means the root.
	Cwd string `json:"cwd,omitempty" mapstructure:"cwd"`
	// TimeoutSeconds is clamped to [1, max]; zero selects the default.
	TimeoutSeconds int `json:"timeout,omitempty" mapstructure:"timeout"`
}

// PythonRequest describes one python snippet execution. The code is written
// to a workspace-relative file before being run.
type PythonRequest struct {
	Code           string `json:"code" mapstructure:"code"`
	Filename       string `json:"filename,omitempty" mapstructure:"filename"`
	TimeoutSeconds int    `json:"timeout,omitempty" mapstructure:"timeout"`
}

// Result is the structured outcome of a command execution. It is serialized
// verbatim into transcript records and into the feedback message sent back to
// the reasoning engine, so the field names are part of the engine-facing
// contract.
type Result struct {
	Kind      ResultKind `json:"kind"`
	Command   string     `json:"command,omitempty"`
	Cwd       string     `json:"cwd,omitempty"`
	ExitCode  int        `json:"returncode"`
	Stdout    string     `json:"stdout"`
	Stderr    string     `json:"stderr"`
	ShellMode bool       `json:"shell_mode,omitempty"`
	File      string     `json:"file,omitempty"`      // run_python: the snippet path
	Truncated bool       `json:"truncated,omitempty"` // stdout or stderr was tail-truncated
}

// Success reports whether the process ran and exited zero.
func (r Result) Success() bool {
	return r.Kind == KindOK && r.ExitCode == 0
}

// FileReadResult is the outcome of a workspace file read. Missing or
// non-regular files are reported through Error, not as a failure of the call.
type FileReadResult struct {
	Path      string `json:"path"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"` // "not_found", "not_a_file", or a message
	Truncated bool   `json:"truncated,omitempty"`
}

// FileWriteResult is the outcome of a workspace file write.
type FileWriteResult struct {
	Path    string `json:"path"`
	Bytes   int    `json:"bytes,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
