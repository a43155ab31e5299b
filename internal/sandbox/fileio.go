package sandbox

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile reads a workspace file, truncated to maxBytes (the configured
// default when maxBytes <= 0). Missing and non-regular files are reported via
// the Error field rather than a hard failure so the reasoning engine can react
// to them.
func (e *Executor) ReadFile(path string, maxBytes int64) FileReadResult {
	abs, _, err := Resolve(e.root, path)
	if err != nil {
		return FileReadResult{Path: path, Error: "path must be inside workspace"}
	}

	if maxBytes <= 0 {
		maxBytes = e.cfg.ReadMaxBytes
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return FileReadResult{Path: abs, Error: "not_found"}
	}
	if err != nil {
		return FileReadResult{Path: abs, Error: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return FileReadResult{Path: abs, Error: "not_a_file"}
	}

	f, err := os.Open(abs)
	if err != nil {
		return FileReadResult{Path: abs, Error: err.Error()}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return FileReadResult{Path: abs, Error: err.Error()}
	}

	return FileReadResult{
		Path:      abs,
		Content:   strings.ToValidUTF8(string(data), "�"),
		Truncated: info.Size() > maxBytes,
	}
}

// WriteFile writes content to a workspace file, creating missing parent
// directories. Existing files are overwritten.
func (e *Executor) WriteFile(path, content string) FileWriteResult {
	abs, _, err := Resolve(e.root, path)
	if err != nil {
		return FileWriteResult{Path: path, Error: "path must be inside workspace"}
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return FileWriteResult{Path: abs, Error: err.Error()}
	}

	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return FileWriteResult{Path: abs, Error: err.Error()}
	}

	return FileWriteResult{Path: abs, Bytes: len(content), Success: true}
}
