package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dupexport/internal/catalog"
	"dupexport/internal/config"
	"dupexport/internal/domain"
	"dupexport/internal/export"
	"dupexport/internal/submit"
	"dupexport/internal/ui/views"
	"dupexport/internal/workspace"
)

// Mode represents an input mode
type Mode int

const (
	ModeRepos Mode = iota
	ModeClasses
	ModeFields
	ModeSearch
	ModeName
	ModePrefix
	ModeConfirmReset
)

const successStatusTTL = 5 * time.Second

// Model represents the UI state
type Model struct {
	ws   *workspace.Workspace
	ctrl *submit.Controller
	cfg  *config.Config
	ctx  context.Context // parent of every fetch and export

	width  int
	height int
	mode   Mode

	repoCursor  int
	classCursor int // index within the current page
	fieldCursor int

	search textinput.Model
	name   textinput.Model
	prefix textinput.Model
	saved  string // input value before editing started

	spinner   spinner.Model
	paginator paginator.Model
	help      help.Model
	keys      keyMap

	loadingRepos   bool
	loadingCatalog bool
	spinning       bool
	awaitingAck    bool // a submission resolved and its result is on screen

	status     string
	statusKind views.StatusKind
	statusSeq  int

	renderer    *views.Renderer
	pager       *PagerOps
	program     *tea.Program
	inPagerMode bool
}

// NewModel creates a new UI model
func NewModel(ws *workspace.Workspace, ctrl *submit.Controller, cfg *config.Config) *Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search classes"

	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "required"
	name.CharLimit = 200

	prefix := textinput.New()
	prefix.Prompt = ""
	prefix.Placeholder = "optional"
	prefix.CharLimit = 50

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))))

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.ActiveDot = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render("•")
	pg.InactiveDot = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("•")

	return &Model{
		ws:        ws,
		ctrl:      ctrl,
		cfg:       cfg,
		ctx:       context.Background(),
		mode:      ModeRepos,
		search:    search,
		name:      name,
		prefix:    prefix,
		spinner:   sp,
		paginator: pg,
		help:      help.New(),
		keys:      defaultKeyMap(),
		renderer:  views.NewRenderer(),
	}
}

// SetContext sets the parent context of the model's commands. Loggers stored
// with logging.NewContext reach the remote calls through it.
func (m *Model) SetContext(ctx context.Context) {
	m.ctx = ctx
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager = NewPagerOps(p)
}

// Mode returns the current input mode
func (m *Model) Mode() Mode { return m.mode }

// Status returns the status line text
func (m *Model) Status() string { return m.status }

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadRepositories(), m.startSpinner())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m.handleNonKeyboardMsg(msg)
	}
}

func (m *Model) handleNonKeyboardMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		if ev, ok := msg.Event.(domain.ErrorEvent); ok && m.status == "" {
			m.setStatus(views.StatusError, fmt.Sprintf("%s: %v", ev.Message, ev.Err))
		}
		return m, nil

	case repositoriesMsg:
		m.loadingRepos = false
		if msg.err != nil {
			slog.Error("loading repositories failed", "error", msg.err)
			m.setStatus(views.StatusError, fmt.Sprintf("Error loading repositories: %v (press r to retry)", msg.err))
			return m, nil
		}
		m.ws.SetRepositories(msg.repos)
		m.repoCursor = min(m.repoCursor, max(len(msg.repos)-1, 0))
		if len(msg.repos) == 1 && m.ws.ActiveRepository() == "" {
			return m, m.selectRepository(msg.repos[0].ID)
		}
		return m, nil

	case catalogMsg:
		if errors.Is(msg.err, catalog.ErrSuperseded) || msg.repoID != m.ws.ActiveRepository() {
			return m, nil
		}
		m.loadingCatalog = false
		if msg.err != nil {
			m.setStatus(views.StatusError, fmt.Sprintf("Error loading classes: %v (press r to retry)", msg.err))
			return m, nil
		}
		if m.ws.ApplyCatalog(msg.repoID, msg.catalog) {
			m.classCursor, m.fieldCursor = 0, 0
			m.search.SetValue("")
			m.setStatus(views.StatusInfo, fmt.Sprintf("Loaded %d classes", len(msg.catalog)))
		}
		return m, nil

	case exportMsg:
		m.awaitingAck = true
		if msg.err != nil {
			m.setStatus(views.StatusError, fmt.Sprintf("Error generating export: %v (press any key)", msg.err))
			return m, nil
		}
		m.setStatus(views.StatusSuccess, fmt.Sprintf("Export generated successfully! Saved as %s", msg.path))
		return m, m.clearStatusAfter(successStatusTTL)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			if m.awaitingAck {
				m.acknowledge()
			}
			m.status = ""
		}
		return m, nil

	case previewPagerMsg:
		if msg.err != nil {
			slog.Warn("preview pager failed", "error", msg.err)
			m.setStatus(views.StatusError, fmt.Sprintf("Preview failed: %v", msg.err))
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.awaitingAck && !m.ctrl.Busy() {
		m.acknowledge()
		return m, nil
	}

	switch m.mode {
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeName, ModePrefix:
		return m.handleTextKey(msg)
	case ModeConfirmReset:
		return m.handleConfirmKey(msg)
	case ModeRepos:
		return m.handleRepoKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handleRepoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	repos := m.ws.Repositories()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.repoCursor > 0 {
			m.repoCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.repoCursor < len(repos)-1 {
			m.repoCursor++
		}
	case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Toggle):
		if len(repos) == 0 {
			return m, nil
		}
		id := repos[m.repoCursor].ID
		if id == m.ws.ActiveRepository() && (m.ws.Loaded() || m.loadingCatalog) {
			m.mode = ModeClasses
			return m, nil
		}
		return m, m.selectRepository(id)
	case key.Matches(msg, m.keys.Reload):
		return m, tea.Batch(m.loadRepositories(), m.startSpinner())
	case key.Matches(msg, m.keys.Back):
		if m.ws.ActiveRepository() != "" {
			m.mode = ModeClasses
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.ws.View()
	store := m.ws.Store()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.saved = m.search.Value()
		m.mode = ModeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Name):
		m.saved = m.name.Value()
		m.mode = ModeName
		return m, m.name.Focus()
	case key.Matches(msg, m.keys.Prefix):
		m.saved = m.prefix.Value()
		m.mode = ModePrefix
		return m, m.prefix.Focus()
	case key.Matches(msg, m.keys.Export):
		return m, m.submit()
	case key.Matches(msg, m.keys.Preview):
		return m, m.preview()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Reset):
		m.mode = ModeConfirmReset
		return m, nil
	case key.Matches(msg, m.keys.Repos):
		m.mode = ModeRepos
		m.repoCursor = m.activeRepoIndex()
		return m, nil
	case key.Matches(msg, m.keys.PrevPage):
		v.PrevPage()
		m.classCursor = 0
		return m, nil
	case key.Matches(msg, m.keys.NextPage):
		v.NextPage()
		m.classCursor = 0
		return m, nil
	case key.Matches(msg, m.keys.FirstPage):
		v.FirstPage()
		m.classCursor = 0
		return m, nil
	case key.Matches(msg, m.keys.LastPage):
		v.LastPage()
		m.classCursor = 0
		return m, nil
	}

	if m.mode == ModeFields {
		active := v.ActiveClass()
		fields := v.FieldsFor(active)
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.fieldCursor > 0 {
				m.fieldCursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.fieldCursor < len(fields)-1 {
				m.fieldCursor++
			}
		case key.Matches(msg, m.keys.Toggle), msg.String() == "enter":
			if m.fieldCursor < len(fields) {
				f := fields[m.fieldCursor].Name
				store.ToggleField(active, f, !store.IsSelected(active, f))
			}
		case key.Matches(msg, m.keys.SelectAll):
			store.SelectAllFields(active)
		case key.Matches(msg, m.keys.DeselectAll):
			store.DeselectAllFields(active)
		case key.Matches(msg, m.keys.ClearClass):
			store.ClearClass(active)
		case key.Matches(msg, m.keys.Back), msg.String() == "tab":
			m.mode = ModeClasses
		}
		return m, nil
	}

	page := v.Current()
	current := ""
	if m.classCursor < len(page) {
		current = page[m.classCursor]
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.classCursor > 0 {
			m.classCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.classCursor < len(page)-1 {
			m.classCursor++
		}
	case key.Matches(msg, m.keys.Open):
		if current != "" {
			v.SetActiveClass(current)
			m.fieldCursor = 0
			m.mode = ModeFields
		}
	case key.Matches(msg, m.keys.Toggle):
		if current == "" {
			break
		}
		if store.FieldCount(current) > 0 {
			store.ClearClass(current)
		} else {
			store.SelectAllFields(current)
		}
	case key.Matches(msg, m.keys.SelectAll):
		store.SelectAllFields(current)
	case key.Matches(msg, m.keys.DeselectAll):
		store.DeselectAllFields(current)
	case key.Matches(msg, m.keys.ClearClass):
		store.ClearClass(current)
	case key.Matches(msg, m.keys.Back):
		if v.State().SearchTerm != "" {
			m.search.SetValue("")
			m.applyFilter("")
		}
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue(m.saved)
		m.applyFilter(m.saved)
		m.search.Blur()
		m.mode = ModeClasses
		return m, nil
	case "enter", "tab":
		m.search.Blur()
		m.mode = ModeClasses
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.applyFilter(m.search.Value())
	}
	return m, cmd
}

func (m *Model) handleTextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	input := &m.name
	if m.mode == ModePrefix {
		input = &m.prefix
	}

	switch msg.String() {
	case "esc":
		input.SetValue(m.saved)
		input.Blur()
		m.mode = ModeClasses
		return m, nil
	case "enter", "tab":
		input.Blur()
		m.mode = ModeClasses
		return m, nil
	}

	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeClasses
	if strings.ToLower(msg.String()) != "y" {
		return m, nil
	}

	m.ws.Reset()
	m.name.SetValue("")
	m.search.SetValue("")
	m.classCursor, m.fieldCursor = 0, 0
	m.setStatus(views.StatusInfo, "Form reset")
	return m, m.clearStatusAfter(successStatusTTL)
}

func (m *Model) applyFilter(term string) {
	m.ws.View().ApplyFilter(term)
	m.classCursor = 0
}

func (m *Model) activeRepoIndex() int {
	for i, r := range m.ws.Repositories() {
		if r.ID == m.ws.ActiveRepository() {
			return i
		}
	}
	return 0
}

func (m *Model) busy() bool {
	return m.loadingRepos || m.loadingCatalog || m.ctrl.Busy()
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) setStatus(kind views.StatusKind, text string) {
	m.statusSeq++
	m.status = text
	m.statusKind = kind
}

func (m *Model) clearStatusAfter(d time.Duration) tea.Cmd {
	seq := m.statusSeq
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (m *Model) acknowledge() {
	m.ctrl.Acknowledge()
	m.awaitingAck = false
	m.status = ""
}

// loadRepositories returns a command that fetches the repository list
func (m *Model) loadRepositories() tea.Cmd {
	m.loadingRepos = true
	ws, parent := m.ws, m.ctx
	timeout := m.cfg.RequestTimeout.Duration
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		repos, err := ws.FetchRepositories(ctx)
		return repositoriesMsg{repos: repos, err: err}
	}
}

// selectRepository switches the workspace and returns a command that loads
// the new catalog. The ticket is taken here so that the last selection wins.
func (m *Model) selectRepository(id string) tea.Cmd {
	ticket, ok := m.ws.SelectRepository(id)
	if !ok {
		return nil
	}
	return m.startCatalogLoad(ticket, id)
}

// reload refetches the active repository's catalog. Selections are discarded.
func (m *Model) reload() tea.Cmd {
	ticket, ok := m.ws.Reload()
	if !ok {
		return nil
	}
	return m.startCatalogLoad(ticket, m.ws.ActiveRepository())
}

func (m *Model) startCatalogLoad(ticket catalog.Ticket, id string) tea.Cmd {
	m.mode = ModeClasses
	m.loadingCatalog = true
	m.classCursor, m.fieldCursor = 0, 0
	m.search.SetValue("")
	m.status = ""
	return tea.Batch(m.fetchCatalog(ticket, id), m.startSpinner())
}

func (m *Model) fetchCatalog(ticket catalog.Ticket, repoID string) tea.Cmd {
	ws, parent := m.ws, m.ctx
	timeout := m.cfg.RequestTimeout.Duration
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		c, err := ws.FetchCatalog(ctx, ticket, repoID)
		return catalogMsg{repoID: repoID, catalog: c, err: err}
	}
}

// submit assembles the request on the update loop and returns a command that
// sends it and saves the artifact.
func (m *Model) submit() tea.Cmd {
	pending, err := m.ctrl.Prepare(m.ws.Input(m.name.Value(), m.prefix.Value()), m.ws.Store())
	if err != nil {
		if errors.Is(err, submit.ErrAlreadyInProgress) {
			m.setStatus(views.StatusWarning, "An export is already in progress")
			return nil
		}
		m.setStatus(views.StatusError, fmt.Sprintf("Cannot export: %v", err))
		return nil
	}

	m.setStatus(views.StatusInfo, fmt.Sprintf("Generating %s...", pending.Filename))
	ctrl, parent := m.ctrl, m.ctx
	dir := m.cfg.DownloadDir
	timeout := m.cfg.ExportTimeout.Duration
	run := func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		res, err := ctrl.Execute(ctx, pending)
		if err != nil {
			return exportMsg{err: err}
		}
		path, err := submit.SaveArtifact(dir, res.Artifact)
		return exportMsg{result: res, path: path, err: err}
	}
	return tea.Batch(run, m.startSpinner())
}

// preview returns a command that shows the encoded request in the pager
func (m *Model) preview() tea.Cmd {
	req, err := m.ws.BuildRequest(m.name.Value(), m.prefix.Value())
	if err != nil {
		m.setStatus(views.StatusError, fmt.Sprintf("Cannot preview: %v", err))
		return nil
	}
	payload, err := export.Encode(req)
	if err != nil {
		m.setStatus(views.StatusError, fmt.Sprintf("Cannot preview: %v", err))
		return nil
	}
	if m.program == nil {
		m.setStatus(views.StatusWarning, "Preview is not available")
		return nil
	}

	content := export.Indent(payload)
	program, pager := m.program, m.pager
	return func() tea.Msg {
		program.Send(pauseRenderingMsg{})
		err := pager.Show(content)
		program.Send(resumeRenderingMsg{})
		return previewPagerMsg{err: err}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.inPagerMode {
		return ""
	}
	return m.renderer.Render(m.buildViewState())
}

func (m *Model) buildViewState() views.ViewState {
	v := m.ws.View()
	store := m.ws.Store()
	active := m.ws.ActiveRepository()

	state := views.ViewState{
		Width:        m.width,
		Height:       m.height,
		ChoosingRepo: m.mode == ModeRepos,
		RepoCursor:   m.repoCursor,
		ClassCursor:  m.classCursor,
		ClassesFocus: m.mode == ModeClasses || m.mode == ModeSearch,
		FilterQuery:  strings.TrimSpace(v.State().SearchTerm),
		ActiveClass:  v.ActiveClass(),
		FieldCursor:  m.fieldCursor,
		FieldsFocus:  m.mode == ModeFields,
		NameInput:    m.name.View(),
		PrefixInput:  m.prefix.View(),
		Submitting:   m.ctrl.Busy(),
		Spinner:      m.spinner.View(),
		ConfirmReset: m.mode == ModeConfirmReset,
		Status:       m.status,
		StatusKind:   m.statusKind,
	}

	for _, r := range m.ws.Repositories() {
		name := r.DisplayName
		if name == "" {
			name = r.ID
		}
		state.Repos = append(state.Repos, views.RepoRow{ID: r.ID, Name: name, Active: r.ID == active})
		if r.ID == active {
			state.RepoName = name
		}
	}
	if state.RepoName == "" {
		state.RepoName = active
	}

	switch {
	case m.loadingRepos:
		state.Loading = "Loading repositories"
	case m.loadingCatalog:
		state.Loading = "Loading classes"
	}

	for _, name := range v.Current() {
		state.Classes = append(state.Classes, views.ClassRow{
			Name:     name,
			Selected: store.FieldCount(name),
			Active:   name == state.ActiveClass,
		})
	}

	info := v.PageInfo()
	if info.Filtered > 0 {
		state.PageLabel = fmt.Sprintf("%d-%d of %d", info.Start, info.End, info.Filtered)
	}
	if info.Total > 1 {
		m.paginator.PerPage = v.PageSize()
		m.paginator.SetTotalPages(info.Filtered)
		m.paginator.Page = info.Index
		state.PageDots = m.paginator.View()
	}
	if m.mode == ModeSearch {
		state.SearchInput = m.search.View()
	}

	for _, f := range v.FieldsFor(state.ActiveClass) {
		state.Fields = append(state.Fields, views.FieldRow{
			Name:     f.Name,
			Range:    attributeString(f.Attributes, "range"),
			Selected: store.IsSelected(state.ActiveClass, f.Name),
		})
	}

	for _, s := range store.SelectedSummary() {
		state.Summary = append(state.Summary, views.SummaryRow{Class: s.ClassName, Fields: s.FieldCount})
	}

	switch m.mode {
	case ModeSearch, ModeName, ModePrefix:
		state.Help = "enter confirm • esc cancel"
	case ModeConfirmReset:
		state.Help = "y confirm • any other key cancels"
	default:
		state.Help = m.help.View(m.keys)
	}
	return state
}

func attributeString(attrs map[string]any, name string) string {
	if s, ok := attrs[name].(string); ok {
		return s
	}
	return ""
}
