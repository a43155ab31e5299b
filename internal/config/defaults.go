package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
//
// Components receive the sub-config they need at construction; nothing reads
// configuration from package-level state.
type Config struct {
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Sandbox      SandboxConfig      `json:"sandbox"`
	Safety       SafetyConfig       `json:"safety"`
	Provider     ProviderConfig     `json:"provider"`
	Session      SessionConfig      `json:"session"`
}

// OrchestratorConfig controls the conversation loop.
type OrchestratorConfig struct {
	MaxIterations        int    `json:"max_iterations"`          // Default: 10
	MaxContinuations     int    `json:"max_continuations"`       // Default: 5
	Protocol             string `json:"protocol"`                // "tool_call" or "json_action"
	EngineRetries        int    `json:"engine_retries"`          // Default: 1
	EngineRetryBackoffMs int    `json:"engine_retry_backoff_ms"` // Default: 2000
	SystemPrompt         string `json:"system_prompt"`           // empty selects the embedded default
}

// SandboxConfig controls command execution and file IO inside the workspace.
type SandboxConfig struct {
	OutputTailBytes       int    `json:"output_tail_bytes"`       // Default: 8000
	ReadMaxBytes          int64  `json:"read_max_bytes"`          // Default: 200000
	DefaultTimeoutSeconds int    `json:"default_timeout_seconds"` // Default: 60
	MaxTimeoutSeconds     int    `json:"max_timeout_seconds"`     // Default: 600
	PythonBinary          string `json:"python_binary"`           // Default: "python3"
	PythonScratchFile     string `json:"python_scratch_file"`     // Default: "snippet.py"
	RestrictedPath        string `json:"restricted_path"`         // PATH for shell-interpreted commands
	ShellBinary           string `json:"shell_binary"`            // Default: "/bin/bash"
	GracefulShutdownMs    int    `json:"graceful_shutdown_ms"`    // Default: 2000
}

// SafetyConfig controls the command validator.
// The lists replace the defaults entirely when set in the dotfile.
type SafetyConfig struct {
	BlockedBinaries     []string `json:"blocked_binaries"`
	DangerousPatterns   []string `json:"dangerous_patterns"`
	AllowedPathPrefixes []string `json:"allowed_path_prefixes"`
}

// ProviderConfig controls the reasoning-engine boundary.
type ProviderConfig struct {
	Model                   string `json:"model"`                      // Default: "gemini-2.0-flash"
	EnvFile                 string `json:"env_file"`                   // optional dotenv file holding GEMINI_API_KEY
	FallbackMaxOutputTokens int    `json:"fallback_max_output_tokens"` // Default: 8192
}

// SessionConfig controls transcript persistence and deliverable scanning.
type SessionConfig struct {
	LogsDir            string   `json:"logs_dir"` // Default: "~/.local/share/hostagent/sessions"
	ArtifactExtensions []string `json:"artifact_extensions"`
	ExcludeNames       []string `json:"exclude_names"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			MaxIterations:        10,
			MaxContinuations:     5,
			Protocol:             "tool_call",
			EngineRetries:        1,
			EngineRetryBackoffMs: 2000,
		},
		Sandbox: SandboxConfig{
			OutputTailBytes:       8000,
			ReadMaxBytes:          200_000,
			DefaultTimeoutSeconds: 60,
			MaxTimeoutSeconds:     600,
			PythonBinary:          "python3",
			PythonScratchFile:     "snippet.py",
			RestrictedPath:        "/usr/bin:/bin:/usr/local/bin",
			ShellBinary:           "/bin/bash",
			GracefulShutdownMs:    2000,
		},
		Safety: SafetyConfig{
			BlockedBinaries:     DefaultBlockedBinaries(),
			DangerousPatterns:   DefaultDangerousPatterns(),
			AllowedPathPrefixes: []string{"/usr/", "/bin/", "/lib/"},
		},
		Provider: ProviderConfig{
			Model:                   "gemini-2.0-flash",
			FallbackMaxOutputTokens: 8192,
		},
		Session: SessionConfig{
			LogsDir:            "~/.local/share/hostagent/sessions",
			ArtifactExtensions: []string{".txt", ".json", ".csv", ".html", ".md", ".py", ".sh", ".log"},
			ExcludeNames:       []string{"snippet.py", ".gitkeep"},
		},
	}
}

// DefaultBlockedBinaries returns the built-in command blocklist: destructive
// filesystem operations, power control, firewall and account mutation, service
// control, privilege escalation, and raw network tools.
func DefaultBlockedBinaries() []string {
	return []string{
		"rm", "rmdir", "dd", "mkfs", "fdisk", "parted",
		"shutdown", "reboot", "poweroff", "halt",
		"iptables", "ip6tables", "ufw", "firewall-cmd",
		"passwd", "useradd", "userdel", "usermod", "groupadd",
		"chmod", "chown", "chgrp", "chattr",
		"mount", "umount", "systemctl", "service",
		"crontab", "at", "batch",
		"sudo", "su", "doas",
		"nc", "netcat", "socat", "telnet",
	}
}

// DefaultDangerousPatterns returns regular expressions matched case-insensitively
// against the whole command text regardless of the primary binary.
func DefaultDangerousPatterns() []string {
	return []string{
		`/dev/(sd|hd|nvme|vd)[a-z]`, // direct disk device access
		`rm\s+(-[rf]*\s+)*/`,        // recursive delete rooted at /
		`:\(\)\s*\{`,                // fork bomb
		`mkfs`,                      // filesystem creation
		`>\s*/dev/`,                 // writes redirected into device files
		`/etc/(passwd|shadow|sudoers)`,
	}
}
