package session

import (
	"fmt"
	"strings"
)

// RenderReport produces the human-readable markdown summary written alongside
// session.json.
func RenderReport(s *Session) string {
	var b strings.Builder

	b.WriteString("# Session Report\n\n")
	b.WriteString("## Session Information\n\n")
	fmt.Fprintf(&b, "- **Session ID**: `%s`\n", s.ID)
	fmt.Fprintf(&b, "- **Task**: %s\n", s.Task)
	fmt.Fprintf(&b, "- **Model**: %s\n", s.Model)
	fmt.Fprintf(&b, "- **Code Version**: `%s`\n", s.CodeVersion)
	fmt.Fprintf(&b, "- **Start Time**: %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
	if !s.EndTime.IsZero() {
		fmt.Fprintf(&b, "- **End Time**: %s\n", s.EndTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "- **Duration**: %.1fs\n", s.Duration)
	fmt.Fprintf(&b, "- **Status**: %s\n", s.Status)
	fmt.Fprintf(&b, "- **Iterations**: %d/%d\n", s.Iterations, s.MaxIterations)

	b.WriteString("\n## Deliverables\n\n")
	if len(s.Deliverables) > 0 {
		fmt.Fprintf(&b, "Created %d file(s):\n\n", len(s.Deliverables))
		for _, d := range s.Deliverables {
			fmt.Fprintf(&b, "- `%s`\n", d)
		}
	} else {
		b.WriteString("No files created in workspace.\n")
	}

	if s.FinalAnswer != "" {
		b.WriteString("\n## Final Answer\n\n")
		b.WriteString(s.FinalAnswer)
		b.WriteString("\n")
	}

	b.WriteString("\n## Session Statistics\n\n")
	fmt.Fprintf(&b, "- API Calls: %d\n", s.APICalls)
	fmt.Fprintf(&b, "- Tokens: %d (prompt %d, completion %d)\n", s.TotalTokens, s.PromptTokens, s.CompletionTokens)
	fmt.Fprintf(&b, "- Estimated Cost: $%.5f\n", s.EstimatedCost)
	fmt.Fprintf(&b, "- Total Commands: %d\n", s.TotalCommands)
	fmt.Fprintf(&b, "- Failed Commands: %d\n", s.FailedCommands)

	return b.String()
}
