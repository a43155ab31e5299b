// Package ui renders run progress and the final report to the terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Cyclone1070/hostagent/internal/sandbox"
	"github.com/Cyclone1070/hostagent/internal/session"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ConsoleReporter writes styled progress lines to a terminal.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a reporter writing to out.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Info prints a status line.
func (r *ConsoleReporter) Info(format string, args ...any) {
	fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf(format, args...)))
}

// CommandResult prints one execution result.
func (r *ConsoleReporter) CommandResult(res sandbox.Result) {
	switch {
	case res.Kind == sandbox.KindBlocked:
		fmt.Fprintf(r.out, "  %s %s\n", blockedStyle.Render("BLOCKED"), res.Command)
	case res.Success():
		fmt.Fprintf(r.out, "  %s %s\n", successStyle.Render("ok"), res.Command)
	default:
		fmt.Fprintf(r.out, "  %s %s (exit %d)\n", failStyle.Render("fail"), res.Command, res.ExitCode)
	}
}

// Summary renders the final session report as formatted markdown, falling
// back to the raw text when the terminal renderer is unavailable.
func (r *ConsoleReporter) Summary(s *session.Session, logDir string) {
	report := session.RenderReport(s)

	rendered, err := glamour.Render(report, "auto")
	if err != nil {
		fmt.Fprintln(r.out, report)
	} else {
		fmt.Fprint(r.out, rendered)
	}

	fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("Session log: %s", logDir)))
}
