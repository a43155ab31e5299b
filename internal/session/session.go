// Package session records everything a run produces: the transcript, the
// per-iteration artifacts, usage counters, and the final markdown report.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	provider "github.com/Cyclone1070/hostagent/internal/provider/model"
)

// Session accumulates metadata and counters for a single run. It is not safe
// for concurrent use; the loop owns it for the lifetime of the run.
type Session struct {
	ID            string       `json:"session_id"`
	Task          string       `json:"task"`
	Model         string       `json:"model"`
	CodeVersion   string       `json:"code_version"`
	StartTime     time.Time    `json:"start_time"`
	EndTime       time.Time    `json:"end_time"`
	Duration      float64      `json:"duration_seconds"`
	Status        model.Status `json:"status"`
	Iterations    int          `json:"iterations"`
	MaxIterations int          `json:"max_iterations"`

	APICalls         int     `json:"api_calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost_usd"`

	TotalCommands  int `json:"total_commands"`
	FailedCommands int `json:"failed_commands"`

	Deliverables []string `json:"deliverables"`
	FinalAnswer  string   `json:"final_answer,omitempty"`
}

// New creates a Session with a fresh ID. The ID combines a timestamp with a
// short random suffix so that concurrent runs cannot collide on a directory.
func New(task, modelName, codeVersion string, maxIterations int) *Session {
	now := time.Now()
	id := fmt.Sprintf("%s_%s", now.Format("2006-01-02_15-04-05"), uuid.NewString()[:8])
	return &Session{
		ID:            id,
		Task:          task,
		Model:         modelName,
		CodeVersion:   codeVersion,
		StartTime:     now,
		MaxIterations: maxIterations,
		Deliverables:  []string{},
	}
}

// RecordUsage adds one API call's token and cost counters.
func (s *Session) RecordUsage(meta provider.ResponseMetadata) {
	s.APICalls++
	s.PromptTokens += meta.PromptTokens
	s.CompletionTokens += meta.CompletionTokens
	s.TotalTokens += meta.TotalTokens
	s.EstimatedCost += meta.EstimatedCost
}

// RecordCommand counts one executed command.
func (s *Session) RecordCommand(success bool) {
	s.TotalCommands++
	if !success {
		s.FailedCommands++
	}
}

// Finish stamps the terminal status and end time. Calling it again is a no-op
// so finalization happens exactly once regardless of the exit path.
func (s *Session) Finish(status model.Status) {
	if s.Status != "" {
		return
	}
	s.Status = status
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime).Seconds()
}
