package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the terminal UI.
type Styles struct {
	Title      lipgloss.Style
	Href       lipgloss.Style
	Count      lipgloss.Style
	Suggestion lipgloss.Style
	CardTitle  lipgloss.Style
	Selected   lipgloss.Style
	Meta       lipgloss.Style
	Body       lipgloss.Style
	Help       lipgloss.Style
	Error      lipgloss.Style
}

// NewStyles returns the default styles.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Href:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Count:      lipgloss.NewStyle().Foreground(lipgloss.Color("78")), // green
		Suggestion: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		CardTitle:  lipgloss.NewStyle().Bold(true),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")).
			Background(lipgloss.Color("238")),
		Meta:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Body:  lipgloss.NewStyle().PaddingLeft(2),
		Help:  lipgloss.NewStyle().Faint(true).MarginTop(1),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
	}
}
