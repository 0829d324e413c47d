package output

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the renderer.
type Styles struct {
	Header    lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Key       lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Info      lipgloss.Style
	Reasoning lipgloss.Style
	Tool      lipgloss.Style
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Bold:      lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Key:       lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Info:      lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Reasoning: lipgloss.NewStyle().Faint(true).Italic(true),
		Tool:      lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{
		Header: s, Bold: s, Muted: s, Key: s, Success: s,
		Error: s, Warning: s, Info: s, Reasoning: s, Tool: s,
	}
}
