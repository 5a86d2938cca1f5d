package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lindia/preflight/internal/check"
	"github.com/lindia/preflight/internal/engine"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	safeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	holdStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func statusStyle(s check.Status) lipgloss.Style {
	switch s {
	case check.StatusPass:
		return passStyle
	case check.StatusFail:
		return failStyle
	case check.StatusError:
		return errorStyle
	default:
		return skipStyle
	}
}

// Summary renders a styled terminal summary of the run, used when the gate
// reports inline at push time. File artifacts stay unstyled; see Text.
func Summary(record *engine.RunRecord) string {
	var b strings.Builder

	fmt.Fprintln(&b, headerStyle.Render("Pre-deployment verification"))
	short := record.Revision
	if len(short) > 12 {
		short = short[:12]
	}
	fmt.Fprintln(&b, dimStyle.Render(fmt.Sprintf("revision %s · %s",
		short, record.Timestamp.Format("2006-01-02 15:04:05"))))
	fmt.Fprintln(&b)

	for _, res := range record.Results {
		fmt.Fprintf(&b, "  %s %-12s %s\n",
			statusStyle(res.Status).Render(fmt.Sprintf("%-7s", res.Status)),
			res.Name,
			dimStyle.Render(firstLine(res.Detail)))
	}
	if len(record.Results) == 0 {
		fmt.Fprintln(&b, dimStyle.Render("  (no checks registered)"))
	}
	fmt.Fprintln(&b)

	for _, w := range record.Warnings {
		fmt.Fprintln(&b, skipStyle.Render("warning: "+w))
	}

	switch record.Decision {
	case engine.DecisionSafe:
		fmt.Fprintln(&b, safeStyle.Render("SAFE_TO_PROCEED"))
	default:
		fmt.Fprintln(&b, holdStyle.Render("HOLD_FOR_REVIEW"))
		if failed := record.Failed(); len(failed) > 0 {
			fmt.Fprintf(&b, "%s\n", dimStyle.Render("blocking: "+strings.Join(failed, ", ")))
		}
	}
	return b.String()
}
