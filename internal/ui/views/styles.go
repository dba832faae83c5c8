package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Confirm       lipgloss.Style
	Dim           lipgloss.Style
	Filter        lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	Panel         lipgloss.Style
	PanelFocused  lipgloss.Style
	PanelTitle    lipgloss.Style
	Highlight     lipgloss.Style
	HighlightBg   lipgloss.Style
	Selected      lipgloss.Style
	Count         lipgloss.Style
	Label         lipgloss.Style
	Badge         lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Confirm: lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Faint(true),
		Filter:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Help:    lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		PanelFocused: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		PanelTitle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		HighlightBg:   lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Selected:      lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Count:         lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Label:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true),
		Badge:         lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}
