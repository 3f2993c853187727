// Package dashboard provides the Bubble Tea election dashboard.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/boothdesk/internal/bulk"
	"github.com/verte-zerg/boothdesk/internal/logging"
	"github.com/verte-zerg/boothdesk/internal/model"
	"github.com/verte-zerg/boothdesk/internal/stats"
)

const (
	tabBooths = iota
	tabWards
	tabResults
	tabAlliances
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
	modePicker
)

const pageSize = 10

// Options sets the view the dashboard opens with.
type Options struct {
	Kind       model.Kind
	District   int64
	Scope      int64
	SearchMode string
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	backend Backend
	coord   *bulk.Coordinator
	log     logrus.FieldLogger

	tabs      []string
	activeTab int
	lists     map[model.Kind]*listView

	district  int64
	districts []model.Option
	scopes    map[model.Kind][]model.Option
	targets   map[model.Kind][]model.Option

	reportKind    model.Kind
	report        stats.Report
	reportOK      bool
	loadingReport bool
	results       table.Model
	alliances     viewport.Model

	mode   inputMode
	search textinput.Model
	picker *picker

	status string
	errMsg string

	width  int
	height int

	initCmds []tea.Cmd
}

// NewModel constructs a dashboard model. A nil log discards log output.
func NewModel(backend Backend, opts Options, log logrus.FieldLogger) *Model {
	if log == nil {
		log = logging.Discard()
	}
	kind := opts.Kind
	if kind != model.KindWard {
		kind = model.KindBooth
	}
	m := &Model{
		backend:    backend,
		coord:      bulk.New(backend),
		log:        log,
		tabs:       []string{"Booths", "Wards", "Results", "Alliances"},
		lists:      map[model.Kind]*listView{},
		district:   opts.District,
		scopes:     map[model.Kind][]model.Option{},
		targets:    map[model.Kind][]model.Option{},
		reportKind: kind,
		search:     newInput("Search: "),
		alliances:  viewport.New(0, 0),
		results:    buildResultsTable(stats.Report{}, 0, 1),
	}
	for _, k := range []model.Kind{model.KindBooth, model.KindWard} {
		m.lists[k] = newListView(k, opts.SearchMode)
	}
	if kind == model.KindWard {
		m.activeTab = tabWards
	}

	m.initCmds = append(m.initCmds, fetchDistricts(backend))
	if m.district > 0 {
		m.initCmds = append(m.initCmds, m.fetchAllOptions())
	}
	if opts.Scope > 0 {
		list := m.lists[kind]
		list.scope = model.Option{ID: opts.Scope, Name: fmt.Sprintf("#%d", opts.Scope)}
		m.initCmds = append(m.initCmds, fetchEntities(backend, kind, opts.Scope))
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.initCmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case districtsMsg:
		return m, m.handleDistricts(msg)
	case optionsMsg:
		m.handleOptions(msg)
		return m, nil
	case entitiesMsg:
		m.handleEntities(msg)
		return m, nil
	case reportMsg:
		m.handleReport(msg)
		return m, nil
	case submitMsg:
		return m, m.handleSubmit(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m, m.updateSearch(msg)
		case modePicker:
			return m, m.updatePicker(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.mode == modePicker && m.picker != nil {
		return fitLines(m.picker.view(m.width, m.height), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) fetchAllOptions() tea.Cmd {
	return tea.Batch(
		fetchOptions(m.backend, model.KindBooth, m.district),
		fetchOptions(m.backend, model.KindWard, m.district),
	)
}

func (m *Model) handleDistricts(msg districtsMsg) tea.Cmd {
	if msg.err != nil {
		m.log.WithError(msg.err).Warn("failed to load districts")
		m.setError(fmt.Sprintf("failed to load districts: %v", msg.err))
		return nil
	}
	m.districts = msg.options
	if m.district == 0 && len(msg.options) > 0 {
		m.district = msg.options[0].ID
		return m.fetchAllOptions()
	}
	return nil
}

func (m *Model) handleOptions(msg optionsMsg) {
	if msg.district != m.district {
		return
	}
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("kind", msg.kind).Warn("failed to load options")
		m.setError(fmt.Sprintf("failed to load %s choices: %v", msg.kind.ScopeName(), msg.err))
		return
	}
	m.scopes[msg.kind] = msg.scopes
	m.targets[msg.kind] = msg.targets
	list := m.lists[msg.kind]
	for _, o := range msg.scopes {
		if o.ID == list.scope.ID {
			list.scope = o
		}
	}
}

// handleEntities applies whichever response arrives, even when the scope
// changed after the request was sent.
func (m *Model) handleEntities(msg entitiesMsg) {
	list := m.lists[msg.kind]
	if list == nil {
		return
	}
	if msg.err != nil {
		m.log.WithError(msg.err).WithFields(logrus.Fields{"kind": msg.kind, "scope": msg.scopeID}).Warn("failed to load entities")
		m.setError(fmt.Sprintf("failed to load %ss: %v", msg.kind, msg.err))
		return
	}
	list.setEntities(msg.entities)
	m.log.WithFields(logrus.Fields{"kind": msg.kind, "scope": msg.scopeID, "count": len(msg.entities)}).Debug("entities loaded")
}

func (m *Model) handleReport(msg reportMsg) {
	m.loadingReport = false
	if msg.err != nil {
		m.log.WithError(msg.err).Warn("failed to build report")
		m.setError(msg.err.Error())
		return
	}
	m.report = msg.report
	m.reportOK = true
	m.rebuildReportViews()
}

func (m *Model) handleSubmit(msg submitMsg) tea.Cmd {
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("kind", msg.kind).Warn("bulk update failed")
		m.setError(msg.err.Error())
		return nil
	}
	m.setStatus(msg.outcome.Message)
	m.log.WithField("kind", msg.kind).Info(msg.outcome.Message)
	if !msg.outcome.Reload {
		return nil
	}
	if m.reportKind == msg.kind {
		m.reportOK = false
	}
	list := m.lists[msg.kind]
	return fetchEntities(m.backend, msg.kind, list.scope.ID)
}

func (m *Model) setError(msg string) {
	m.errMsg = msg
	m.status = ""
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.errMsg = ""
}

func (m *Model) activeList() (*listView, bool) {
	switch m.activeTab {
	case tabBooths:
		return m.lists[model.KindBooth], true
	case tabWards:
		return m.lists[model.KindWard], true
	default:
		return nil, false
	}
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h", "shift+tab":
		return m, tea.Batch(tea.ClearScreen, m.moveTab(-1))
	case "right", "l", "tab":
		return m, tea.Batch(tea.ClearScreen, m.moveTab(1))
	case "d":
		if len(m.districts) == 0 {
			m.setError("no districts loaded")
			return m, nil
		}
		m.openPicker(newPicker(pickDistrict, "", "Choose district", m.districts))
		return m, nil
	}
	if list, ok := m.activeList(); ok {
		return m, m.updateList(list, msg)
	}
	return m, m.updateReportTab(msg)
}

// moveTab switches tabs. The report tabs follow the last list tab that has
// a scope chosen.
func (m *Model) moveTab(delta int) tea.Cmd {
	if list, ok := m.activeList(); ok && list.scope.ID != 0 {
		m.reportKind = list.kind
	}
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if next != tabResults && next != tabAlliances {
		return nil
	}
	list := m.lists[m.reportKind]
	if m.reportOK && m.report.Kind == m.reportKind && m.report.ScopeID == list.scope.ID {
		return nil
	}
	return m.loadReport()
}

func (m *Model) loadReport() tea.Cmd {
	list := m.lists[m.reportKind]
	if list.scope.ID == 0 {
		m.reportOK = false
		m.setError(fmt.Sprintf("choose a %s on the %ss tab first", list.kind.ScopeName(), list.kind))
		return nil
	}
	m.loadingReport = true
	return fetchReport(m.backend, list.kind, list.scope.ID, m.log)
}

func (m *Model) updateList(list *listView, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up":
		list.move(-1)
	case "down":
		list.move(1)
	case "pgup":
		list.move(-pageSize)
	case "pgdown":
		list.move(pageSize)
	case "g", "home":
		list.move(-list.cursor)
	case "G", "end":
		list.move(list.items.Len())
	case " ":
		list.toggle()
	case "shift+up":
		list.extend(-1)
	case "shift+down":
		list.extend(1)
	case "x":
		list.extendToCursor()
	case "a":
		list.selectAll()
	case "n":
		list.selectNone()
	case "/":
		m.mode = modeSearch
		m.search.SetValue(list.query)
		m.search.CursorEnd()
		return m.search.Focus()
	case "f":
		list.toggleMode()
	case "t":
		list.cycleType()
	case "s":
		scopes := m.scopes[list.kind]
		if len(scopes) == 0 {
			m.setError(fmt.Sprintf("no %s choices loaded; press d to choose a district", list.kind.ScopeName()))
			return nil
		}
		m.openPicker(newPicker(pickScope, list.kind, "Choose "+list.kind.ScopeName(), scopes))
	case "enter":
		ids := list.selectedIDs()
		if len(ids) == 0 {
			m.setError(bulk.ErrEmptySelection.Error())
			return nil
		}
		targets := m.targets[list.kind]
		if len(targets) == 0 {
			m.setError(fmt.Sprintf("no %s choices loaded", list.kind.TargetName()))
			return nil
		}
		title := fmt.Sprintf("Assign %d %ss to %s", len(ids), list.kind, list.kind.TargetName())
		m.openPicker(newPicker(pickTarget, list.kind, title, targets))
	case "u":
		return m.submitSelection(list, nil)
	case "r":
		if list.scope.ID == 0 {
			m.setError(fmt.Sprintf("choose a %s first", list.kind.ScopeName()))
			return nil
		}
		m.setStatus(fmt.Sprintf("Reloading %ss...", list.kind))
		return fetchEntities(m.backend, list.kind, list.scope.ID)
	}
	return nil
}

func (m *Model) updateReportTab(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "r" {
		return m.loadReport()
	}
	var cmd tea.Cmd
	if m.activeTab == tabResults {
		m.results, cmd = m.results.Update(msg)
		return cmd
	}
	m.alliances, cmd = m.alliances.Update(msg)
	return cmd
}

// submitSelection sends the whole selection of list, including rows hidden
// by the current filters. A nil target clears the assignment.
func (m *Model) submitSelection(list *listView, target *int64) tea.Cmd {
	ids := list.selectedIDs()
	if len(ids) == 0 {
		m.setError(bulk.ErrEmptySelection.Error())
		return nil
	}
	if m.coord.InFlight() {
		m.setError(bulk.ErrInFlight.Error())
		return nil
	}
	op := bulk.OpFor(list.kind, target == nil)
	m.setStatus(fmt.Sprintf("Submitting %d %ss...", len(ids), list.kind))
	return submit(m.coord, list.kind, op, ids, target)
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	list, ok := m.activeList()
	if !ok {
		m.mode = modeNormal
		return nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.search.Blur()
		list.setQuery("")
		return nil
	case tea.KeyEnter:
		m.mode = modeNormal
		m.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	list.setQuery(m.search.Value())
	return cmd
}

func (m *Model) openPicker(p *picker) {
	m.picker = p
	m.mode = modePicker
}

func (m *Model) closePicker() {
	m.picker = nil
	m.mode = modeNormal
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePicker()
		return nil
	case tea.KeyEnter:
		p := m.picker
		opt, ok := p.current()
		m.closePicker()
		if !ok {
			return nil
		}
		return m.choose(p, opt)
	}
	return m.picker.update(msg)
}

func (m *Model) choose(p *picker, opt model.Option) tea.Cmd {
	switch p.purpose {
	case pickDistrict:
		m.district = opt.ID
		m.scopes = map[model.Kind][]model.Option{}
		m.targets = map[model.Kind][]model.Option{}
		m.setStatus("District: " + opt.Name)
		return m.fetchAllOptions()
	case pickScope:
		list := m.lists[p.kind]
		list.scope = opt
		m.reportKind = p.kind
		m.setStatus(fmt.Sprintf("Loading %ss for %s...", p.kind, optionLabel(opt)))
		return fetchEntities(m.backend, p.kind, opt.ID)
	case pickTarget:
		target := opt.ID
		return m.submitSelection(m.lists[p.kind], &target)
	}
	return nil
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.status != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.alliances.Width = m.width
	m.alliances.Height = bodyHeight
	m.search.Width = maxInt(10, m.width-lipgloss.Width(m.search.Prompt)-2)
	m.rebuildReportViews()
}

func (m *Model) rebuildReportViews() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.results = buildResultsTable(m.report, width, bodyHeight)
	if m.reportOK {
		m.alliances.SetContent(renderAlliances(m.report, width))
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	var summary string
	if list, ok := m.activeList(); ok {
		summary = list.summary()
	} else {
		list := m.lists[m.reportKind]
		scope := "none"
		if list.scope.ID != 0 {
			scope = list.scope.Name
		}
		summary = fmt.Sprintf("Results for %ss in %s %s", m.reportKind, list.kind.ScopeName(), scope)
	}
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody(height int) string {
	if list, ok := m.activeList(); ok {
		if m.mode == modeSearch {
			return m.search.View() + "\n" + list.render(m.width, height-1)
		}
		return list.render(m.width, height)
	}
	switch {
	case m.loadingReport:
		return "Loading results..."
	case !m.reportOK:
		return "Press r to load results."
	case m.activeTab == tabResults && len(m.report.Ranked) == 0:
		return "No results found."
	case m.activeTab == tabResults:
		return tableMutedStyle.Render(m.results.View())
	default:
		return m.alliances.View()
	}
}

func (m *Model) renderHelp() string {
	var help string
	switch {
	case m.mode == modeSearch:
		help = "Type to filter  enter: keep  esc: clear"
	case m.activeTab == tabBooths || m.activeTab == tabWards:
		help = "Nav: left/right  Move: up/down  Select: space shift+up/down x  All/None: a/n  Search: / f  Type: t  Scope: s  District: d  Assign: enter  Unassign: u  Reload: r  Quit: q"
	default:
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Reload: r  District: d  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	help := m.renderHelp()
	switch {
	case m.errMsg != "":
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.status != "":
		return help + "\n" + statusStyle.Render(truncateLine(m.status, m.width))
	default:
		return help
	}
}
