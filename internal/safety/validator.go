// Package safety statically classifies command strings before any process is
// spawned.
//
// The validator is a best-effort textual filter: it blocks unsophisticated
// destructive commands (rm -rf /, mkfs, writes into /dev) but it is NOT an
// isolation boundary. There are no namespaces, no seccomp, and the pattern
// matching can be bypassed with shell quoting or encoding tricks. Treat it as
// a seatbelt, not a sandbox wall.
package safety

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Cyclone1070/hostagent/internal/config"
)

// Verdict is the result of classifying a command string.
type Verdict struct {
	Allowed bool
	Reason  string // non-empty when blocked
	// ShellMode reports whether the command contains shell metacharacters and
	// must be run through a shell interpreter. Plain commands are executed as
	// an argument vector without a shell, which is strictly safer.
	ShellMode bool
}

// shellMetacharacters trigger shell-interpreted execution. The single-character
// entries subsume their doubled forms (">>", "&&", "||", "<<").
var shellMetacharacters = []string{"|", ">", "<", "&", ";", "$(", "`"}

// envAssignmentPrefix matches leading KEY=value environment assignments.
var envAssignmentPrefix = regexp.MustCompile(`^(\w+=\S+\s+)+`)

// absolutePathToken matches absolute paths referenced anywhere in the command.
var absolutePathToken = regexp.MustCompile(`(?:^|\s)(/[^\s]+)`)

// Validator classifies commands against a blocklist, dangerous textual
// patterns, and an absolute-path allowlist. It holds no mutable state and is
// safe for concurrent use.
type Validator struct {
	blocked         map[string]struct{}
	patterns        []dangerousPattern
	allowedPrefixes []string
	workspaceRoot   string
}

type dangerousPattern struct {
	re     *regexp.Regexp
	reason string
}

// patternReasons gives human-readable block reasons for the default patterns.
// Unknown (user-supplied) patterns fall back to the pattern text itself.
var patternReasons = map[string]string{
	`/dev/(sd|hd|nvme|vd)[a-z]`:    "direct disk device access",
	`rm\s+(-[rf]*\s+)*/`:           "recursive delete from root",
	`:\(\)\s*\{`:                   "fork bomb",
	`mkfs`:                         "filesystem creation",
	`>\s*/dev/`:                    "writing to device files",
	`/etc/(passwd|shadow|sudoers)`: "modifying critical system files",
}

// NewValidator builds a Validator from config. workspaceRoot must be the
// canonical absolute workspace path; absolute paths under it are always
// allowed.
func NewValidator(cfg config.SafetyConfig, workspaceRoot string) (*Validator, error) {
	blocked := make(map[string]struct{}, len(cfg.BlockedBinaries))
	for _, b := range cfg.BlockedBinaries {
		blocked[b] = struct{}{}
	}

	patterns := make([]dangerousPattern, 0, len(cfg.DangerousPatterns))
	for _, p := range cfg.DangerousPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid dangerous pattern %q: %w", p, err)
		}
		reason := patternReasons[p]
		if reason == "" {
			reason = fmt.Sprintf("matched pattern %q", p)
		}
		patterns = append(patterns, dangerousPattern{re: re, reason: reason})
	}

	return &Validator{
		blocked:         blocked,
		patterns:        patterns,
		allowedPrefixes: cfg.AllowedPathPrefixes,
		workspaceRoot:   workspaceRoot,
	}, nil
}

// Classify validates a command string and determines its execution mode.
// It must be called before any process creation; a blocked verdict
// short-circuits execution entirely.
func (v *Validator) Classify(command string) Verdict {
	shellMode := HasShellSyntax(command)

	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return Verdict{Allowed: false, Reason: "empty command", ShellMode: shellMode}
	}

	// 1. Primary binary blocklist (basename only, env assignments stripped).
	binary := extractBinary(trimmed, shellMode)
	if _, hit := v.blocked[binary]; hit {
		return Verdict{Allowed: false, Reason: fmt.Sprintf("blocked binary: %s", binary), ShellMode: shellMode}
	}

	// 2. Dangerous textual patterns, regardless of binary.
	for _, p := range v.patterns {
		if p.re.MatchString(command) {
			return Verdict{Allowed: false, Reason: p.reason, ShellMode: shellMode}
		}
	}

	// 3. Absolute paths outside the workspace and the executable allowlist.
	for _, m := range absolutePathToken.FindAllStringSubmatch(command, -1) {
		path := m[1]
		if v.pathAllowed(path) {
			continue
		}
		return Verdict{Allowed: false, Reason: fmt.Sprintf("absolute path outside workspace: %s", path), ShellMode: shellMode}
	}

	return Verdict{Allowed: true, ShellMode: shellMode}
}

// pathAllowed reports whether an absolute path referenced in a command is
// acceptable: inside the workspace root or under an allowlisted executable
// search directory.
func (v *Validator) pathAllowed(path string) bool {
	if v.workspaceRoot != "" {
		if path == v.workspaceRoot || strings.HasPrefix(path, v.workspaceRoot+string(filepath.Separator)) {
			return true
		}
	}
	for _, prefix := range v.allowedPrefixes {
		dir := strings.TrimSuffix(prefix, "/")
		if path == dir || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}
	return false
}

// HasShellSyntax reports whether the command contains shell metacharacters
// (pipes, redirects, separators, substitution) and therefore requires a shell
// interpreter to execute.
func HasShellSyntax(command string) bool {
	for _, meta := range shellMetacharacters {
		if strings.Contains(command, meta) {
			return true
		}
	}
	return false
}

// extractBinary returns the basename of the primary binary in a command,
// after stripping leading KEY=value environment assignments.
func extractBinary(command string, shellMode bool) string {
	cmd := envAssignmentPrefix.ReplaceAllString(command, "")

	var parts []string
	if shellMode {
		parts = strings.Fields(cmd)
	} else {
		parts = SplitWords(cmd)
	}
	if len(parts) == 0 {
		return ""
	}
	return filepath.Base(parts[0])
}

// SplitWords splits a command string into an argument vector, honouring
// single and double quotes. It is deliberately simpler than a full shell
// lexer: commands containing metacharacters never reach it (they run through
// a real shell instead).
func SplitWords(command string) []string {
	var words []string
	var current strings.Builder
	inWord := false
	var quote rune

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		words = append(words, current.String())
	}
	return words
}
