package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/hostagent/internal/config"
	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	provider "github.com/Cyclone1070/hostagent/internal/provider/model"
)

func jsonActionConfig(c *config.Config) {
	c.Orchestrator.Protocol = "json_action"
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *model.Action
	}{
		{
			"plain object",
			`{"status": "continue", "reasoning": "checking", "commands": ["ls"]}`,
			&model.Action{Status: "continue", Reasoning: "checking", Commands: []string{"ls"}},
		},
		{
			"fenced json",
			"```json\n{\"status\": \"complete\", \"reasoning\": \"done\", \"commands\": []}\n```",
			&model.Action{Status: "complete", Reasoning: "done", Commands: []string{}},
		},
		{
			"fenced without language",
			"```\n{\"status\": \"blocked\", \"reasoning\": \"no access\", \"commands\": []}\n```",
			&model.Action{Status: "blocked", Reasoning: "no access", Commands: []string{}},
		},
		{
			"surrounding whitespace",
			"  \n{\"status\": \"continue\", \"reasoning\": \"r\", \"commands\": []}\n ",
			&model.Action{Status: "continue", Reasoning: "r", Commands: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestParseAction_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"prose", "Sure! Here is what I will do next."},
		{"empty", ""},
		{"bad status", `{"status": "pondering", "reasoning": "", "commands": []}`},
		{"truncated json", `{"status": "continue", "reasoning": "cut of`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAction(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestJSONAction_ContinueThenComplete(t *testing.T) {
	var feedback string
	engine := &mockEngine{}
	engine.generateFunc = func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
		if engine.calls == 1 {
			return textResponse(`{"status": "continue", "reasoning": "saying hi", "commands": ["echo hi"]}`), nil
		}
		feedback = req.History[len(req.History)-1].Content
		return textResponse(`{"status": "complete", "reasoning": "said hi", "commands": []}`), nil
	}
	o := newTestOrchestrator(t, engine, jsonActionConfig)

	sess, err := o.Run(context.Background(), "say hi")
	require.NoError(t, err)

	assert.Equal(t, model.StatusComplete, sess.Status)
	assert.Equal(t, "said hi", sess.FinalAnswer)
	assert.Equal(t, 1, sess.TotalCommands)
	assert.Equal(t, 0, sess.FailedCommands)

	assert.Contains(t, feedback, "=== Command 1: echo hi ===")
	assert.Contains(t, feedback, "Exit Code: 0")
	assert.Contains(t, feedback, "hi")
}

func TestJSONAction_BlockedCommandFeedback(t *testing.T) {
	var feedback string
	engine := &mockEngine{}
	engine.generateFunc = func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
		if engine.calls == 1 {
			return textResponse(`{"status": "continue", "reasoning": "cleanup", "commands": ["rm -rf /tmp/x"]}`), nil
		}
		feedback = req.History[len(req.History)-1].Content
		return textResponse(`{"status": "complete", "reasoning": "stopping", "commands": []}`), nil
	}
	o := newTestOrchestrator(t, engine, jsonActionConfig)

	sess, err := o.Run(context.Background(), "cleanup")
	require.NoError(t, err)

	// The blocked command is synthesized as a failed result, not executed.
	assert.Equal(t, model.StatusComplete, sess.Status)
	assert.Equal(t, 1, sess.TotalCommands)
	assert.Equal(t, 1, sess.FailedCommands)
	assert.Contains(t, feedback, "Exit Code: 126")
	assert.Contains(t, feedback, "BLOCKED: blocked binary: rm")
}

func TestJSONAction_InvalidJSONRetryOnce(t *testing.T) {
	var nudge string
	engine := &mockEngine{}
	engine.generateFunc = func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
		if engine.calls == 1 {
			return textResponse("I think I should list the files first."), nil
		}
		nudge = req.History[len(req.History)-1].Content
		return textResponse(`{"status": "complete", "reasoning": "ok", "commands": []}`), nil
	}
	o := newTestOrchestrator(t, engine, jsonActionConfig)

	sess, err := o.Run(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, model.StatusComplete, sess.Status)
	assert.Equal(t, 2, engine.calls)
	assert.Equal(t, retryNudge, nudge)
}

func TestJSONAction_RetryAllowanceResetsAfterValidResponse(t *testing.T) {
	engine := &mockEngine{}
	engine.generateFunc = func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
		switch engine.calls {
		case 1:
			return textResponse("let me think about this"), nil
		case 2:
			return textResponse(`{"status": "continue", "reasoning": "ok", "commands": ["echo hi"]}`), nil
		case 3:
			return textResponse("hmm, one more thought"), nil
		default:
			return textResponse(`{"status": "complete", "reasoning": "done", "commands": []}`), nil
		}
	}
	o := newTestOrchestrator(t, engine, jsonActionConfig)

	sess, err := o.Run(context.Background(), "task")
	require.NoError(t, err)

	// Each valid response restores the single retry, so a later invalid
	// response earns its own nudge instead of ending the run.
	assert.Equal(t, model.StatusComplete, sess.Status)
	assert.Equal(t, "done", sess.FinalAnswer)
	assert.Equal(t, 4, engine.calls)
}

func TestJSONAction_InvalidJSONTwiceErrors(t *testing.T) {
	engine := &mockEngine{
		generateFunc: func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
			return textResponse("still not json"), nil
		},
	}
	o := newTestOrchestrator(t, engine, jsonActionConfig)

	sess, err := o.Run(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, model.StatusError, sess.Status)
	assert.Equal(t, 2, engine.calls)
}

func TestJSONAction_Blocked(t *testing.T) {
	engine := &mockEngine{
		generateFunc: func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
			return textResponse(`{"status": "blocked", "reasoning": "needs credentials I do not have", "commands": []}`), nil
		},
	}
	o := newTestOrchestrator(t, engine, jsonActionConfig)

	sess, err := o.Run(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, model.StatusBlocked, sess.Status)
	assert.Contains(t, sess.FinalAnswer, "credentials")
}

func TestJSONAction_CommandsRunSequentially(t *testing.T) {
	var feedback string
	engine := &mockEngine{}
	engine.generateFunc = func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
		if engine.calls == 1 {
			return textResponse(`{"status": "continue", "reasoning": "two steps", "commands": ["echo first", "echo second"]}`), nil
		}
		feedback = req.History[len(req.History)-1].Content
		return textResponse(`{"status": "complete", "reasoning": "done", "commands": []}`), nil
	}
	o := newTestOrchestrator(t, engine, jsonActionConfig)

	sess, err := o.Run(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, 2, sess.TotalCommands)
	first := "=== Command 1: echo first ==="
	second := "=== Command 2: echo second ==="
	assert.Contains(t, feedback, first)
	assert.Contains(t, feedback, second)
	assert.Less(t, strings.Index(feedback, first), strings.Index(feedback, second))
}
