package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	provider "github.com/Cyclone1070/hostagent/internal/provider/model"
	"github.com/Cyclone1070/hostagent/internal/sandbox"
)

// Tool names exposed to the reasoning engine. The catalog is closed; an
// unknown name in a tool call is reported back as an error result rather than
// failing the run.
const (
	ToolRunShell  = "run_shell"
	ToolRunPython = "run_python"
	ToolReadFile  = "read_file"
	ToolWriteFile = "write_file"
)

// ReadFileRequest describes one workspace file read.
type ReadFileRequest struct {
	Path     string `json:"path" mapstructure:"path"`
	MaxBytes int64  `json:"max_bytes,omitempty" mapstructure:"max_bytes"`
}

// WriteFileRequest describes one workspace file write.
type WriteFileRequest struct {
	Path    string `json:"path" mapstructure:"path"`
	Content string `json:"content" mapstructure:"content"`
}

// ToolCatalog returns the definitions advertised to the engine under the
// tool-call protocol.
func ToolCatalog() []provider.ToolDefinition {
	return []provider.ToolDefinition{
		{
			Name:        ToolRunShell,
			Description: "Execute a shell command inside the workspace. Output is truncated to the trailing bytes for long streams.",
			Parameters: &provider.ParameterSchema{
				Type: "object",
				Properties: map[string]provider.PropertySchema{
					"command": {Type: "string", Description: "The command to execute"},
					"cwd":     {Type: "string", Description: "Working directory relative to the workspace root"},
					"timeout": {Type: "integer", Description: "Timeout in seconds, clamped to the configured maximum"},
				},
				Required: []string{"command"},
			},
		},
		{
			Name:        ToolRunPython,
			Description: "Write a python snippet to a workspace file and execute it with the configured interpreter.",
			Parameters: &provider.ParameterSchema{
				Type: "object",
				Properties: map[string]provider.PropertySchema{
					"code":     {Type: "string", Description: "Python source to run"},
					"filename": {Type: "string", Description: "Workspace-relative file to write the snippet to"},
					"timeout":  {Type: "integer", Description: "Timeout in seconds"},
				},
				Required: []string{"code"},
			},
		},
		{
			Name:        ToolReadFile,
			Description: "Read a workspace file. Content larger than the byte budget is truncated.",
			Parameters: &provider.ParameterSchema{
				Type: "object",
				Properties: map[string]provider.PropertySchema{
					"path": {Type: "string", Description: "Workspace-relative path to read"},
				},
				Required: []string{"path"},
			},
		},
		{
			Name:        ToolWriteFile,
			Description: "Write content to a workspace file, creating parent directories as needed.",
			Parameters: &provider.ParameterSchema{
				Type: "object",
				Properties: map[string]provider.PropertySchema{
					"path":    {Type: "string", Description: "Workspace-relative path to write"},
					"content": {Type: "string", Description: "File content"},
				},
				Required: []string{"path", "content"},
			},
		},
	}
}

// dispatch executes one tool call and returns its result. Execution errors
// and malformed arguments are carried in the result's Error field so the
// engine sees them as feedback instead of the run aborting.
func (o *Orchestrator) dispatch(ctx context.Context, call model.ToolCall) model.ToolResult {
	result := model.ToolResult{ID: call.ID, Name: call.Name}

	switch call.Name {
	case ToolRunShell:
		var req sandbox.ShellRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			result.Error = err.Error()
			return result
		}
		res := o.executor.RunShell(ctx, req)
		o.session.RecordCommand(res.Success())
		o.lastResults = append(o.lastResults, res)
		result.Content = marshalResult(res)

	case ToolRunPython:
		var req sandbox.PythonRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			result.Error = err.Error()
			return result
		}
		res := o.executor.RunPython(ctx, req)
		o.session.RecordCommand(res.Success())
		o.lastResults = append(o.lastResults, res)
		result.Content = marshalResult(res)

	case ToolReadFile:
		var req ReadFileRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			result.Error = err.Error()
			return result
		}
		maxBytes := req.MaxBytes
		if maxBytes <= 0 {
			maxBytes = o.sandboxCfg.ReadMaxBytes
		}
		result.Content = marshalResult(o.executor.ReadFile(req.Path, maxBytes))

	case ToolWriteFile:
		var req WriteFileRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			result.Error = err.Error()
			return result
		}
		result.Content = marshalResult(o.executor.WriteFile(req.Path, req.Content))

	default:
		result.Error = fmt.Sprintf("unknown tool: %s", call.Name)
	}

	return result
}

// describeToolCall renders the salient argument of a tool call for the
// per-iteration command log. Shell commands appear verbatim so the log reads
// as a script; other tools are logged as comments naming what they touched.
func describeToolCall(call model.ToolCall) string {
	arg := func(key string) string {
		s, _ := call.Args[key].(string)
		return s
	}

	switch call.Name {
	case ToolRunShell:
		if cmd := arg("command"); cmd != "" {
			return cmd
		}
	case ToolRunPython:
		if filename := arg("filename"); filename != "" {
			return fmt.Sprintf("# %s %s", ToolRunPython, filename)
		}
	case ToolReadFile:
		if path := arg("path"); path != "" {
			return fmt.Sprintf("# %s %s", ToolReadFile, path)
		}
	case ToolWriteFile:
		if path := arg("path"); path != "" {
			return fmt.Sprintf("# %s %s", ToolWriteFile, path)
		}
	}
	return "# " + call.Name
}

// decodeArgs maps loosely-typed tool arguments onto a request struct. Numeric
// JSON values arrive as float64, so decoding is weakly typed.
func decodeArgs(args map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("building argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func marshalResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to serialize result: %s"}`, err)
	}
	return string(data)
}
