package config

import (
	"fmt"
	"regexp"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Orchestrator validation
	if c.Orchestrator.MaxIterations < 1 {
		errs = append(errs, "orchestrator.max_iterations must be >= 1")
	}
	if c.Orchestrator.MaxContinuations < 1 {
		errs = append(errs, "orchestrator.max_continuations must be >= 1")
	}
	if c.Orchestrator.Protocol != "tool_call" && c.Orchestrator.Protocol != "json_action" {
		errs = append(errs, "orchestrator.protocol must be \"tool_call\" or \"json_action\"")
	}
	if c.Orchestrator.EngineRetries < 0 {
		errs = append(errs, "orchestrator.engine_retries must be >= 0")
	}
	if c.Orchestrator.EngineRetryBackoffMs < 0 {
		errs = append(errs, "orchestrator.engine_retry_backoff_ms must be >= 0")
	}

	// Sandbox validation
	if c.Sandbox.OutputTailBytes < 1 {
		errs = append(errs, "sandbox.output_tail_bytes must be >= 1")
	}
	if c.Sandbox.ReadMaxBytes < 1 {
		errs = append(errs, "sandbox.read_max_bytes must be >= 1")
	}
	if c.Sandbox.DefaultTimeoutSeconds < 1 {
		errs = append(errs, "sandbox.default_timeout_seconds must be >= 1")
	}
	if c.Sandbox.MaxTimeoutSeconds < 1 || c.Sandbox.MaxTimeoutSeconds > 600 {
		errs = append(errs, "sandbox.max_timeout_seconds must be in [1,600]")
	}
	if c.Sandbox.DefaultTimeoutSeconds > c.Sandbox.MaxTimeoutSeconds {
		errs = append(errs, "sandbox.default_timeout_seconds must be <= sandbox.max_timeout_seconds")
	}
	if c.Sandbox.PythonBinary == "" {
		errs = append(errs, "sandbox.python_binary must not be empty")
	}
	if c.Sandbox.PythonScratchFile == "" {
		errs = append(errs, "sandbox.python_scratch_file must not be empty")
	}
	if c.Sandbox.ShellBinary == "" {
		errs = append(errs, "sandbox.shell_binary must not be empty")
	}
	if c.Sandbox.GracefulShutdownMs < 0 {
		errs = append(errs, "sandbox.graceful_shutdown_ms must be >= 0")
	}

	// Safety validation: patterns must compile up front so a bad dotfile
	// fails at startup, not on the first command.
	for _, p := range c.Safety.DangerousPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Sprintf("safety.dangerous_patterns: invalid regexp %q: %v", p, err))
		}
	}

	// Provider validation
	if c.Provider.Model == "" {
		errs = append(errs, "provider.model must not be empty")
	}
	if c.Provider.FallbackMaxOutputTokens < 1 {
		errs = append(errs, "provider.fallback_max_output_tokens must be >= 1")
	}

	// Session validation
	if c.Session.LogsDir == "" {
		errs = append(errs, "session.logs_dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
