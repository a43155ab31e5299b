package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	"github.com/Cyclone1070/hostagent/internal/sandbox"
	"github.com/Cyclone1070/hostagent/internal/session"
)

func TestConsoleReporter_Info(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.Info("Iteration %d/%d", 1, 10)
	assert.Contains(t, buf.String(), "Iteration 1/10")
}

func TestConsoleReporter_CommandResult(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.CommandResult(sandbox.Result{Kind: sandbox.KindOK, Command: "echo hi", ExitCode: 0})
	r.CommandResult(sandbox.Result{Kind: sandbox.KindOK, Command: "false", ExitCode: 1})
	r.CommandResult(sandbox.Result{Kind: sandbox.KindBlocked, Command: "rm -rf /", ExitCode: 126})

	out := buf.String()
	assert.Contains(t, out, "ok echo hi")
	assert.Contains(t, out, "fail false (exit 1)")
	assert.Contains(t, out, "BLOCKED rm -rf /")
}

func TestConsoleReporter_Summary(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	s := session.New("task", "gemini-2.0-flash", "abc1234", 10)
	s.Finish(model.StatusComplete)

	r.Summary(s, "/tmp/logs/"+s.ID)

	out := buf.String()
	assert.Contains(t, out, "Session log: /tmp/logs/"+s.ID)
	assert.Contains(t, out, "Session Report")
}