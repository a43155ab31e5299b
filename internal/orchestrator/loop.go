// Package orchestrator drives the iterative conversation between the
// reasoning engine and the sandboxed executor until the task reaches a
// terminal state.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Cyclone1070/hostagent/internal/config"
	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	provider "github.com/Cyclone1070/hostagent/internal/provider/model"
	"github.com/Cyclone1070/hostagent/internal/sandbox"
	"github.com/Cyclone1070/hostagent/internal/session"
)

// Reporter receives progress updates during a run. Implementations must not
// block; the loop calls them inline.
type Reporter interface {
	Info(format string, args ...any)
	CommandResult(res sandbox.Result)
	Summary(s *session.Session, logDir string)
}

// NopReporter discards all updates.
type NopReporter struct{}

func (NopReporter) Info(string, ...any)              {}
func (NopReporter) CommandResult(sandbox.Result)     {}
func (NopReporter) Summary(*session.Session, string) {}

// Options configures an Orchestrator.
type Options struct {
	Engine      provider.Provider
	Executor    *sandbox.Executor
	Reporter    Reporter
	Config      config.OrchestratorConfig
	SandboxCfg  config.SandboxConfig
	SessionCfg  config.SessionConfig
	CodeVersion string
	Logger      *zap.Logger
}

// Orchestrator owns one run at a time. It is not safe for concurrent use.
type Orchestrator struct {
	engine      provider.Provider
	executor    *sandbox.Executor
	reporter    Reporter
	cfg         config.OrchestratorConfig
	sandboxCfg  config.SandboxConfig
	sessionCfg  config.SessionConfig
	codeVersion string
	logger      *zap.Logger

	protocol model.Protocol
	session  *session.Session
	recorder *session.Recorder
	history  []model.Message

	// lastResults collects execution results within one iteration for the
	// per-iteration log files.
	lastResults []sandbox.Result

	// nudged marks that the one-shot invalid-JSON retry has been spent. It
	// resets whenever a response parses cleanly.
	nudged bool
}

// New creates an Orchestrator from the given options.
func New(opts Options) *Orchestrator {
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{
		engine:      opts.Engine,
		executor:    opts.Executor,
		reporter:    opts.Reporter,
		cfg:         opts.Config,
		sandboxCfg:  opts.SandboxCfg,
		sessionCfg:  opts.SessionCfg,
		codeVersion: opts.CodeVersion,
		logger:      opts.Logger,
		protocol:    model.Protocol(opts.Config.Protocol),
	}
}

// Run executes the task to a terminal state and returns the finalized
// session. The session is finalized exactly once on every exit path,
// including engine failures and context cancellation.
func (o *Orchestrator) Run(ctx context.Context, task string) (*session.Session, error) {
	o.session = session.New(task, o.engine.GetModel(), o.codeVersion, o.cfg.MaxIterations)

	recorder, err := session.NewRecorder(o.sessionCfg.LogsDir, o.session.ID, o.logger)
	if err != nil {
		return nil, err
	}
	o.recorder = recorder

	if err := recorder.WriteInput(task); err != nil {
		o.logger.Warn("failed to persist task input", zap.Error(err))
	}
	_ = recorder.AppendEvent(session.Event{Type: "session_start", Detail: task})

	o.history = []model.Message{{Role: "user", Content: task}}

	status := o.iterate(ctx)
	return o.finalize(status)
}

// iterate runs the conversation loop and returns the terminal status.
func (o *Orchestrator) iterate(ctx context.Context) model.Status {
	for i := 1; i <= o.cfg.MaxIterations; i++ {
		o.session.Iterations = i
		o.lastResults = nil
		o.reporter.Info("Iteration %d/%d", i, o.cfg.MaxIterations)
		_ = o.recorder.AppendEvent(session.Event{Type: "iteration_start", Iteration: i})

		resp, err := o.generateComplete(ctx)
		if err != nil {
			o.logger.Error("engine call failed", zap.Int("iteration", i), zap.Error(err))
			_ = o.recorder.AppendEvent(session.Event{Type: "engine_error", Iteration: i, Detail: err.Error()})
			return model.StatusError
		}

		var status model.Status
		var done bool
		if o.protocol == model.ProtocolJSONAction {
			status, done = o.handleJSONAction(ctx, i, resp)
		} else {
			status, done = o.handleToolCall(ctx, i, resp)
		}
		if done {
			return status
		}
	}
	return model.StatusMaxIterations
}

// handleToolCall processes one engine turn under the tool-call protocol. A
// turn with no tool calls is the final answer.
func (o *Orchestrator) handleToolCall(ctx context.Context, iteration int, resp *provider.GenerateResponse) (model.Status, bool) {
	switch resp.Content.Type {
	case provider.ResponseTypeRefusal:
		o.session.FinalAnswer = resp.Content.RefusalReason
		o.recorder.LogIteration(iteration, resp.Content.RefusalReason, nil, nil)
		return model.StatusBlocked, true

	case provider.ResponseTypeToolCall:
		o.history = append(o.history, model.Message{
			Role:      "assistant",
			Content:   resp.Content.Text,
			ToolCalls: resp.Content.ToolCalls,
		})

		results := make([]model.ToolResult, 0, len(resp.Content.ToolCalls))
		commands := make([]string, 0, len(resp.Content.ToolCalls))
		for _, call := range resp.Content.ToolCalls {
			commands = append(commands, describeToolCall(call))
			result := o.dispatch(ctx, call)
			results = append(results, result)
		}
		for _, res := range o.lastResults {
			o.reporter.CommandResult(res)
		}
		o.history = append(o.history, model.Message{Role: "function", ToolResults: results})
		o.recorder.LogIteration(iteration, resp.Content.Text, commands, o.lastResults)
		return "", false

	default:
		o.session.FinalAnswer = resp.Content.Text
		o.recorder.LogIteration(iteration, resp.Content.Text, nil, nil)
		return model.StatusComplete, true
	}
}

// handleJSONAction processes one engine turn under the single-JSON-action
// protocol. The first unparseable response earns one retry nudge; the second
// ends the run with an error status.
func (o *Orchestrator) handleJSONAction(ctx context.Context, iteration int, resp *provider.GenerateResponse) (model.Status, bool) {
	if resp.Content.Type == provider.ResponseTypeRefusal {
		o.session.FinalAnswer = resp.Content.RefusalReason
		return model.StatusBlocked, true
	}

	action, err := ParseAction(resp.Content.Text)
	if err != nil {
		_ = o.recorder.AppendEvent(session.Event{Type: "protocol_error", Iteration: iteration, Detail: err.Error()})
		if !o.nudged {
			o.nudged = true
			o.logger.Warn("invalid action response, nudging once", zap.Error(err))
			o.history = append(o.history,
				model.Message{Role: "assistant", Content: resp.Content.Text},
				model.Message{Role: "user", Content: retryNudge},
			)
			return "", false
		}
		o.logger.Error("invalid action response after retry", zap.Error(err))
		return model.StatusError, true
	}

	o.nudged = false
	o.history = append(o.history, model.Message{Role: "assistant", Content: resp.Content.Text})

	switch action.Status {
	case model.ActionComplete:
		o.session.FinalAnswer = action.Reasoning
		o.recorder.LogIteration(iteration, action.Reasoning, nil, nil)
		return model.StatusComplete, true

	case model.ActionBlocked:
		o.session.FinalAnswer = action.Reasoning
		o.recorder.LogIteration(iteration, action.Reasoning, nil, nil)
		return model.StatusBlocked, true

	default:
		results := make([]sandbox.Result, 0, len(action.Commands))
		for _, command := range action.Commands {
			res := o.executor.RunShell(ctx, sandbox.ShellRequest{Command: command})
			o.session.RecordCommand(res.Success())
			o.reporter.CommandResult(res)
			results = append(results, res)
		}
		o.lastResults = results
		o.recorder.LogIteration(iteration, action.Reasoning, action.Commands, results)
		o.history = append(o.history, model.Message{Role: "user", Content: formatFeedback(results)})
		return "", false
	}
}

// generateComplete calls the engine, transparently stitching truncated text
// responses back together with continuation requests. The continuation
// messages are transient; only the merged response enters the history.
func (o *Orchestrator) generateComplete(ctx context.Context) (*provider.GenerateResponse, error) {
	req := &provider.GenerateRequest{
		System:  systemPrompt(o.protocol, o.cfg.SystemPrompt),
		History: o.history,
	}
	if o.protocol == model.ProtocolToolCall {
		req.Tools = ToolCatalog()
	}

	var accumulated strings.Builder
	for attempt := 0; attempt <= o.cfg.MaxContinuations; attempt++ {
		resp, err := o.callEngine(ctx, req)
		if err != nil {
			return nil, err
		}
		o.session.RecordUsage(resp.Metadata)

		if resp.Truncated && resp.Content.Type == provider.ResponseTypeText && attempt < o.cfg.MaxContinuations {
			accumulated.WriteString(resp.Content.Text)
			req.History = append(req.History,
				model.Message{Role: "assistant", Content: resp.Content.Text},
				model.Message{Role: "user", Content: "Continue."},
			)
			o.logger.Debug("response truncated, requesting continuation", zap.Int("attempt", attempt+1))
			continue
		}

		if accumulated.Len() > 0 && resp.Content.Type == provider.ResponseTypeText {
			resp.Content.Text = accumulated.String() + resp.Content.Text
			resp.Truncated = false
		}
		return resp, nil
	}
	return nil, fmt.Errorf("continuation limit of %d exceeded", o.cfg.MaxContinuations)
}

// callEngine makes one generation call with bounded retries on retryable
// provider errors.
func (o *Orchestrator) callEngine(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.EngineRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(o.cfg.EngineRetryBackoffMs) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			o.logger.Warn("retrying engine call", zap.Int("attempt", attempt), zap.Error(lastErr))
		}
		resp, err := o.engine.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !provider.IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// finalize scans deliverables, stamps the terminal state, and writes the
// session record and report.
func (o *Orchestrator) finalize(status model.Status) (*session.Session, error) {
	deliverables, err := session.ScanArtifacts(o.executor.Root(), o.sessionCfg)
	if err != nil {
		o.logger.Warn("deliverable scan failed", zap.Error(err))
	} else {
		o.session.Deliverables = deliverables
	}

	if (status == model.StatusComplete || status == model.StatusMaxIterations) && len(o.session.Deliverables) > 0 {
		o.session.FinalAnswer += deliverablesAppendix(o.session.Deliverables)
	}

	o.session.Finish(status)
	_ = o.recorder.AppendEvent(session.Event{Type: "session_end", Detail: string(status)})

	if err := o.recorder.Finalize(o.session); err != nil {
		o.logger.Error("failed to finalize session record", zap.Error(err))
	}

	o.reporter.Summary(o.session, o.recorder.Dir())
	return o.session, nil
}

// deliverablesAppendix lists produced files after the final answer, capped so
// a sprawling workspace cannot drown the summary.
func deliverablesAppendix(deliverables []string) string {
	const maxListed = 20

	var b strings.Builder
	b.WriteString("\n\nDELIVERABLES:\n")
	for i, d := range deliverables {
		if i == maxListed {
			fmt.Fprintf(&b, "... and %d more\n", len(deliverables)-maxListed)
			break
		}
		fmt.Fprintf(&b, "- %s\n", d)
	}
	return b.String()
}

// formatFeedback renders execution results into the feedback message sent
// back to the engine under the json_action protocol.
func formatFeedback(results []sandbox.Result) string {
	var b strings.Builder
	b.WriteString("Command results:\n")
	for i, res := range results {
		fmt.Fprintf(&b, "\n=== Command %d: %s ===\nExit Code: %d\n", i+1, res.Command, res.ExitCode)
		if res.Stdout != "" {
			fmt.Fprintf(&b, "STDOUT:\n%s\n", res.Stdout)
		}
		if res.Stderr != "" {
			fmt.Fprintf(&b, "STDERR:\n%s\n", res.Stderr)
		}
	}
	return b.String()
}
