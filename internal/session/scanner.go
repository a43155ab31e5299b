package session

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cyclone1070/hostagent/internal/config"
)

// ScanArtifacts walks the workspace and returns the relative paths of files
// the run produced that count as deliverables. Filtering is by extension with
// a small exclude list for scratch files. Paths are sorted for deterministic
// reports.
func ScanArtifacts(root string, cfg config.SessionConfig) ([]string, error) {
	extensions := make(map[string]bool, len(cfg.ArtifactExtensions))
	for _, ext := range cfg.ArtifactExtensions {
		extensions[strings.ToLower(ext)] = true
	}
	excluded := make(map[string]bool, len(cfg.ExcludeNames))
	for _, name := range cfg.ExcludeNames {
		excluded[name] = true
	}

	var artifacts []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if excluded[d.Name()] {
			return nil
		}
		if !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		artifacts = append(artifacts, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(artifacts)
	return artifacts, nil
}
