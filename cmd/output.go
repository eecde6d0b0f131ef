// ABOUTME: Output rendering for CLI commands
// ABOUTME: Emits JSON or YAML for pipelines and lipgloss-styled text for people

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/markalston/migration-planner/models"
)

var (
	cyan  = lipgloss.Color("#06B6D4") // Cyan-500 - primary
	gray  = lipgloss.Color("#9CA3AF") // Gray-400 - muted
	green = lipgloss.Color("#4ADE80") // Green-400 - ok
	amber = lipgloss.Color("#FBBF24") // Amber-400 - warnings
	red   = lipgloss.Color("#F87171") // Red-400 - errors

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(cyan)
	mutedStyle = lipgloss.NewStyle().Foreground(gray)
	okStyle    = lipgloss.NewStyle().Foreground(green)
	warnStyle  = lipgloss.NewStyle().Foreground(amber)
	badStyle   = lipgloss.NewStyle().Foreground(red).Bold(true)

	colorEnabled = true
)

func disableColor() {
	colorEnabled = false
}

func paint(style lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return style.Render(text)
}

// render writes v as JSON or YAML, or calls human for text output
func render(w io.Writer, mode string, v any, human func(io.Writer)) error {
	switch mode {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		human(w)
		return nil
	}
}

func heading(w io.Writer, title string) {
	fmt.Fprintln(w, paint(titleStyle, title))
}

func readinessLabel(r models.Readiness) string {
	switch r {
	case models.ReadinessReady:
		return paint(okStyle, string(r))
	case models.ReadinessWithIssues:
		return paint(warnStyle, string(r))
	default:
		return paint(badStyle, string(r))
	}
}

func writeIssues(w io.Writer, indent string, issues []models.Issue) {
	for _, issue := range issues {
		label := fmt.Sprintf("[%s]", issue.Severity)
		switch issue.Severity {
		case models.SeverityHigh:
			label = paint(badStyle, label)
		case models.SeverityMedium:
			label = paint(warnStyle, label)
		default:
			label = paint(mutedStyle, label)
		}
		fmt.Fprintf(w, "%s%s %s\n", indent, label, issue.Message)
	}
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}
