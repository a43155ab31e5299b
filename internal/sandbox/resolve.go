package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CanonicaliseRoot canonicalises a workspace root path by making it absolute
// and resolving symlinks. Returns an error if the path doesn't exist or isn't
// a directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root symlinks: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("workspace root does not exist: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace root is not a directory: %s", resolved)
	}
	return resolved, nil
}

// Resolve normalises a path against the workspace root and ensures the result
// stays inside it. Relative paths are joined to the root; absolute paths must
// already be under it. Symlinks on the existing portion of the path are
// resolved so a link inside the workspace cannot point outside it.
// Violation is a hard failure (ErrPathEscape), never silently corrected.
// Returns the absolute path and the path relative to the root ("" for the
// root itself).
func Resolve(root, path string) (abs string, rel string, err error) {
	if root == "" {
		return "", "", fmt.Errorf("workspace root not set")
	}

	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Join(root, path)
	}

	rel, err = relInside(root, abs)
	if err != nil {
		return "", "", err
	}

	// Re-check after symlink resolution of the existing portion.
	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", "", err
	}
	rel, err = relInside(root, resolved)
	if err != nil {
		return "", "", err
	}

	return resolved, rel, nil
}

// relInside computes abs relative to root and rejects traversal outside it.
func relInside(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", ErrPathEscape
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	if rel == "." {
		rel = ""
	}
	return filepath.ToSlash(rel), nil
}

// resolveExisting resolves symlinks on the longest existing ancestor of abs
// and rejoins the non-existent remainder. Missing components are fine: write
// operations create parent directories after confinement is established.
func resolveExisting(abs string) (string, error) {
	existing := abs
	var remainder []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat path: %w", err)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		remainder = append([]string{filepath.Base(existing)}, remainder...)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlinks: %w", err)
	}

	return filepath.Join(append([]string{resolved}, remainder...)...), nil
}
