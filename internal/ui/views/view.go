package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusKind selects the color of the status line
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
)

// RepoRow is one entry of the repository picker
type RepoRow struct {
	ID     string
	Name   string
	Active bool
}

// ClassRow is one entry of the class list
type ClassRow struct {
	Name     string
	Selected int
	Active   bool
}

// FieldRow is one entry of the field list
type FieldRow struct {
	Name     string
	Range    string
	Selected bool
}

// SummaryRow is one badge of the selection summary
type SummaryRow struct {
	Class  string
	Fields int
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	ChoosingRepo bool
	Repos        []RepoRow
	RepoCursor   int
	RepoName     string

	Classes      []ClassRow
	ClassCursor  int
	ClassesFocus bool
	PageLabel    string // "31-60 of 75"
	PageDots     string
	FilterQuery  string
	SearchInput  string // rendered text input while searching, "" otherwise

	ActiveClass string
	Fields      []FieldRow
	FieldCursor int
	FieldsFocus bool

	NameInput   string
	PrefixInput string
	Summary     []SummaryRow

	Loading      string // non-empty while a fetch is running
	Submitting   bool
	Spinner      string
	ConfirmReset bool

	Status     string
	StatusKind StatusKind
	Help       string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderTitle(state))
	content.WriteString("\n\n")

	if state.ChoosingRepo {
		content.WriteString(r.renderRepos(state))
	} else {
		content.WriteString(r.renderEditor(state))
	}
	content.WriteString("\n")

	if state.ConfirmReset {
		content.WriteString(r.styles.Confirm.Render("Reset the form? All selections will be lost. (y/n)"))
		content.WriteString("\n")
	}
	if state.Status != "" {
		content.WriteString(r.statusStyle(state.StatusKind).Render(state.Status))
		content.WriteString("\n")
	}

	if state.Help != "" {
		current := strings.Count(content.String(), "\n") + 1
		helpLines := strings.Count(state.Help, "\n") + 1
		available := state.Height - 2
		if available <= 0 {
			available = 22
		}
		if pad := available - current - helpLines; pad > 0 {
			content.WriteString(strings.Repeat("\n", pad))
		}
		content.WriteString(r.styles.Help.Render(state.Help))
	}

	return r.styles.Main.Render(content.String())
}

func (r *Renderer) renderTitle(state ViewState) string {
	logo := r.styles.Title.Render("dupexport")
	if state.RepoName != "" && !state.ChoosingRepo {
		logo += r.styles.Dim.Render("  " + state.RepoName)
	}

	var right []string
	if state.Loading != "" {
		right = append(right, r.styles.StatusLoading.Render(fmt.Sprintf("%s %s", state.Spinner, state.Loading)))
	}
	if state.Submitting {
		right = append(right, r.styles.StatusWarning.Render(fmt.Sprintf("%s Exporting", state.Spinner)))
	}
	if state.FilterQuery != "" && state.SearchInput == "" {
		right = append(right, r.styles.Filter.Render(fmt.Sprintf("[Filter: %s]", state.FilterQuery)))
	}
	if len(right) == 0 {
		return logo
	}

	rightContent := strings.Join(right, "  ")
	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	padding := termWidth - 4 - lipgloss.Width(logo) - lipgloss.Width(rightContent)
	if padding < 2 {
		padding = 2
	}
	return logo + strings.Repeat(" ", padding) + rightContent
}

func (r *Renderer) renderRepos(state ViewState) string {
	var b strings.Builder
	b.WriteString(r.styles.PanelTitle.Render("Select a repository"))
	b.WriteString("\n\n")

	if len(state.Repos) == 0 {
		if state.Loading != "" {
			b.WriteString(r.styles.Dim.Render("Loading repositories..."))
		} else {
			b.WriteString(r.styles.Dim.Render("No repositories available. Press r to retry."))
		}
		return b.String()
	}

	for i, repo := range state.Repos {
		line := fmt.Sprintf("%s %s", repo.Name, r.styles.Dim.Render("("+repo.ID+")"))
		if repo.Active {
			line += " " + r.styles.Selected.Render("●")
		}
		if i == state.RepoCursor {
			line = r.styles.HighlightBg.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) renderEditor(state ViewState) string {
	width := state.Width - 4
	if width <= 0 {
		width = 76
	}
	leftWidth := width*2/5 - 4
	rightWidth := width - leftWidth - 8
	if leftWidth < 20 {
		leftWidth = 20
	}
	if rightWidth < 20 {
		rightWidth = 20
	}

	left := r.panel(state.ClassesFocus, leftWidth).Render(r.renderClasses(state))
	right := r.panel(state.FieldsFocus, rightWidth).Render(r.renderFields(state))

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")
	b.WriteString(r.renderForm(state))
	b.WriteString("\n")
	b.WriteString(r.renderSummary(state))
	return b.String()
}

func (r *Renderer) panel(focused bool, width int) lipgloss.Style {
	if focused {
		return r.styles.PanelFocused.Width(width)
	}
	return r.styles.Panel.Width(width)
}

func (r *Renderer) renderClasses(state ViewState) string {
	var b strings.Builder
	b.WriteString(r.styles.PanelTitle.Render("Classes"))
	if state.PageLabel != "" {
		b.WriteString(r.styles.Dim.Render("  " + state.PageLabel))
	}
	b.WriteString("\n")
	if state.SearchInput != "" {
		b.WriteString(state.SearchInput)
		b.WriteString("\n")
	}

	if len(state.Classes) == 0 {
		if state.Loading != "" {
			b.WriteString(r.styles.Dim.Render("Loading classes..."))
		} else {
			b.WriteString(r.styles.Dim.Render("No classes found"))
		}
		return b.String()
	}

	for i, c := range state.Classes {
		line := DisplayName(c.Name)
		if c.Selected > 0 {
			line = r.styles.Selected.Render(line) + " " + r.styles.Count.Render(fmt.Sprintf("%d selected", c.Selected))
		}
		prefix := "  "
		if c.Active {
			prefix = "▸ "
		}
		line = prefix + line
		if state.ClassesFocus && i == state.ClassCursor {
			line = r.styles.HighlightBg.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if state.PageDots != "" {
		b.WriteString("\n")
		b.WriteString(state.PageDots)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) renderFields(state ViewState) string {
	var b strings.Builder
	if state.ActiveClass == "" {
		b.WriteString(r.styles.PanelTitle.Render("Fields"))
		b.WriteString("\n")
		b.WriteString(r.styles.Dim.Render("Press enter on a class to view and select its fields"))
		return b.String()
	}

	b.WriteString(r.styles.PanelTitle.Render(DisplayName(state.ActiveClass)))
	b.WriteString(r.styles.Dim.Render(fmt.Sprintf("  %d field(s) available", len(state.Fields))))
	b.WriteString("\n")

	if len(state.Fields) == 0 {
		b.WriteString(r.styles.Dim.Render("No fields available for this class"))
		return b.String()
	}

	for i, f := range state.Fields {
		box := "[ ]"
		name := DisplayName(f.Name)
		if f.Selected {
			box = r.styles.Selected.Render("[x]")
			name = r.styles.Selected.Render(name)
		}
		line := fmt.Sprintf("%s %s", box, name)
		if f.Range != "" {
			line += r.styles.Dim.Render(" : " + f.Range)
		}
		if state.FieldsFocus && i == state.FieldCursor {
			line = r.styles.HighlightBg.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) renderForm(state ViewState) string {
	return fmt.Sprintf("%s %s    %s %s",
		r.styles.Label.Render("External name:"), state.NameInput,
		r.styles.Label.Render("ID prefix:"), state.PrefixInput)
}

func (r *Renderer) renderSummary(state ViewState) string {
	label := r.styles.Label.Render("Selected:")
	if len(state.Summary) == 0 {
		return label + " " + r.styles.Dim.Render("No classes selected yet")
	}

	badges := make([]string, 0, len(state.Summary))
	for _, s := range state.Summary {
		unit := "fields"
		if s.Fields == 1 {
			unit = "field"
		}
		badges = append(badges, fmt.Sprintf("%s %s", DisplayName(s.Class), r.styles.Badge.Render(fmt.Sprintf("%d %s", s.Fields, unit))))
	}
	return label + " " + strings.Join(badges, r.styles.Dim.Render(" · "))
}

func (r *Renderer) statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return r.styles.StatusSuccess
	case StatusWarning:
		return r.styles.StatusWarning
	case StatusError:
		return r.styles.StatusError
	}
	return r.styles.StatusLoading
}

// DisplayName renders an identifier for people: underscores become spaces
func DisplayName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
