package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tariff-dashboard/internal/aggregator"
	cliapi "tariff-dashboard/internal/cli"
	"tariff-dashboard/internal/tariff"
)

// KeyMap represents the key bindings for the interactive table
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Reload  key.Binding
	Delete  key.Binding
	Help    key.Binding
	Quit    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

type viewMode int

const (
	viewGroups viewMode = iota
	viewTariffs
)

// browserGroup is one selectable dashboard row
type browserGroup struct {
	Section string
	Summary aggregator.GroupSummary
}

// InteractiveTable browses dashboard groups and the tariffs behind them
type InteractiveTable struct {
	table             table.Model
	mode              viewMode
	groups            []browserGroup
	hasGroups         bool
	tariffs           []tariff.Record
	filter            tariff.Filter
	filterLabel       string
	client            *cliapi.Client
	fields            []string
	keys              KeyMap
	loading           bool
	spinner           spinner.Model
	err               error
	message           string
	showHelp          bool
	quitting          bool
	useColor          bool
	showDeleteConfirm bool
	deleteTarget      int64
}

func newInteractiveTable(client *cliapi.Client, fieldsFlag string, useColor bool) (*InteractiveTable, error) {
	fields := parseFields(fieldsFlag)
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if useColor {
		ts := table.DefaultStyles()
		ts.Header = ts.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(false)
		ts.Selected = ts.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
		t.SetStyles(ts)
	}

	return &InteractiveTable{
		table:    t,
		client:   client,
		fields:   fields,
		keys:     DefaultKeyMap(),
		spinner:  s,
		useColor: useColor,
	}, nil
}

// NewTariffBrowser opens directly on a list of tariffs
func NewTariffBrowser(records []tariff.Record, filter tariff.Filter, client *cliapi.Client, fieldsFlag string, useColor bool) (*InteractiveTable, error) {
	m, err := newInteractiveTable(client, fieldsFlag, useColor)
	if err != nil {
		return nil, err
	}
	m.showTariffs(records, filter, filterDescription(filter))
	return m, nil
}

// NewDashboardBrowser opens on the dashboard groups; enter drills into the
// tariffs of the selected group
func NewDashboardBrowser(snap *aggregator.Snapshot, client *cliapi.Client, fieldsFlag string, useColor bool) (*InteractiveTable, error) {
	m, err := newInteractiveTable(client, fieldsFlag, useColor)
	if err != nil {
		return nil, err
	}
	m.hasGroups = true
	m.showGroups(groupsFromSnapshot(snap))
	return m, nil
}

// groupsFromSnapshot flattens every ranking of a snapshot into one list
func groupsFromSnapshot(snap *aggregator.Snapshot) []browserGroup {
	sections := []struct {
		name   string
		groups []aggregator.GroupSummary
	}{
		{"Equipment", snap.ByEquipment},
		{"Forwarder", snap.TopForwarders},
		{"Carrier", snap.TopCarriers},
		{"Route", snap.TopRoutes},
		{"Country", snap.TopCountries},
		{"Month", snap.MonthlyTrend},
	}

	var out []browserGroup
	for _, section := range sections {
		for _, g := range section.groups {
			out = append(out, browserGroup{Section: section.name, Summary: g})
		}
	}
	return out
}

// filterDescription renders a filter for the title line
func filterDescription(f tariff.Filter) string {
	if f.IsZero() {
		return "all tariffs"
	}
	return f.Values().Encode()
}

// setTable replaces columns and rows. Rows are cleared first so the table
// never renders rows against a narrower column set.
func (m *InteractiveTable) setTable(columns []table.Column, rows []table.Row) {
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m *InteractiveTable) showGroups(groups []browserGroup) {
	m.mode = viewGroups
	m.groups = groups

	columns := []table.Column{
		{Title: "SECTION", Width: 10},
		{Title: "GROUP", Width: 32},
		{Title: "COUNT", Width: 7},
		{Title: "AVG ALL-IN", Width: 12},
	}
	rows := make([]table.Row, len(groups))
	for i, g := range groups {
		rows[i] = table.Row{
			g.Section,
			truncateString(g.Summary.Label, 32),
			strconv.Itoa(g.Summary.Count),
			g.Summary.AvgAllIn.StringFixed(2),
		}
	}
	m.setTable(columns, rows)
}

func (m *InteractiveTable) showTariffs(records []tariff.Record, filter tariff.Filter, label string) {
	m.mode = viewTariffs
	m.tariffs = records
	m.filter = filter
	m.filterLabel = label

	columns := make([]table.Column, len(m.fields))
	for i, field := range m.fields {
		columns[i] = table.Column{
			Title: getFieldDisplayName(field),
			Width: calculateColumnWidth(field, records),
		}
	}
	m.setTable(columns, m.tariffRows())
}

func (m *InteractiveTable) tariffRows() []table.Row {
	rows := make([]table.Row, len(m.tariffs))
	for i, r := range m.tariffs {
		rows[i] = tariffToRow(r, m.fields)
	}
	return rows
}

// Init initializes the interactive table
func (m InteractiveTable) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m InteractiveTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showDeleteConfirm {
			switch {
			case key.Matches(msg, m.keys.Confirm):
				return m.confirmDelete()
			case key.Matches(msg, m.keys.Cancel):
				m.showDeleteConfirm = false
				m.deleteTarget = 0
				m.message = "Delete cancelled"
				return m, nil
			}
			return m, nil
		}

		if m.loading && !key.Matches(msg, m.keys.Quit) {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd

		case key.Matches(msg, m.keys.Open):
			if m.mode == viewGroups {
				return m.handleOpenGroup()
			}
			return m.handleDetails()

		case key.Matches(msg, m.keys.Back):
			if m.mode == viewTariffs && m.hasGroups {
				m.showGroups(m.groups)
				m.message = ""
				m.err = nil
			}
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			return m.handleReload()

		case key.Matches(msg, m.keys.Delete):
			if m.mode == viewTariffs {
				return m.handleDelete()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		return m, nil

	case tariffsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.message = fmt.Sprintf("Error loading tariffs: %v", msg.err)
			return m, nil
		}
		m.err = nil
		m.message = fmt.Sprintf("%d tariffs", len(msg.records))
		m.showTariffs(msg.records, msg.filter, msg.label)
		return m, nil

	case groupsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.message = fmt.Sprintf("Error reloading dashboard: %v", msg.err)
			return m, nil
		}
		m.err = nil
		m.message = "Dashboard reloaded"
		m.showGroups(msg.groups)
		return m, nil

	case deleteCompleteMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.message = fmt.Sprintf("Error deleting tariff: %v", msg.err)
		} else {
			m = m.removeTariffFromTable(msg.tariffID)
			m.message = "Tariff deleted successfully"
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the interactive table
func (m InteractiveTable) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.render(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")), m.title()))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.helpView())
		b.WriteString("\n")
	}

	if m.loading {
		b.WriteString(fmt.Sprintf("%s Loading...\n", m.spinner.View()))
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.showDeleteConfirm {
		confirmMsg := fmt.Sprintf("Delete tariff ID %d? (y/N): ", m.deleteTarget)
		b.WriteString(m.render(lipgloss.NewStyle().Foreground(lipgloss.Color("208")), confirmMsg))
		b.WriteString("\n")
	}

	if m.message != "" {
		color := lipgloss.Color("82")
		if m.err != nil {
			color = lipgloss.Color("196")
		}
		b.WriteString(m.render(lipgloss.NewStyle().Foreground(color), m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())

	return b.String()
}

func (m InteractiveTable) render(style lipgloss.Style, s string) string {
	if m.useColor {
		return style.Render(s)
	}
	return s
}

func (m InteractiveTable) title() string {
	if m.mode == viewGroups {
		return "Dashboard groups"
	}
	return "Tariffs: " + m.filterLabel
}

// helpView returns the help view
func (m InteractiveTable) helpView() string {
	help := strings.Builder{}
	help.WriteString("Help:\n")
	help.WriteString("  ↑/k         - Move up\n")
	help.WriteString("  ↓/j         - Move down\n")
	if m.mode == viewGroups {
		help.WriteString("  enter       - List tariffs of the group\n")
		help.WriteString("  r           - Rebuild the dashboard\n")
	} else {
		help.WriteString("  enter       - View details\n")
		help.WriteString("  r           - Reload tariffs\n")
		help.WriteString("  d           - Delete tariff\n")
		if m.hasGroups {
			help.WriteString("  esc         - Back to dashboard groups\n")
		}
	}
	help.WriteString("  ?           - Toggle help\n")
	help.WriteString("  q/ctrl+c    - Quit\n")
	return help.String()
}

// statusLine returns the status line
func (m InteractiveTable) statusLine() string {
	total := len(m.tariffs)
	noun := "Tariff"
	if m.mode == viewGroups {
		total = len(m.groups)
		noun = "Group"
	}
	if total == 0 {
		return fmt.Sprintf("No %ss | Press ? for help", strings.ToLower(noun))
	}
	return fmt.Sprintf("%s %d of %d | Press ? for help", noun, m.table.Cursor()+1, total)
}

// calculateColumnWidth calculates the width for a column based on its content
func calculateColumnWidth(field string, records []tariff.Record) int {
	width := len(getFieldDisplayName(field))

	samples := len(records)
	if samples > 10 {
		samples = 10
	}

	for i := 0; i < samples; i++ {
		if n := len([]rune(getFieldValue(records[i], field))); n > width {
			width = n
		}
	}

	if width < 6 {
		width = 6
	}
	if width > 40 {
		width = 40
	}

	return width
}

// tariffToRow converts a tariff to a table row
func tariffToRow(r tariff.Record, fields []string) table.Row {
	row := make(table.Row, len(fields))
	for i, field := range fields {
		row[i] = getFieldValue(r, field)
	}
	return row
}

// tariffsLoadedMsg is sent when a filtered listing completes
type tariffsLoadedMsg struct {
	filter  tariff.Filter
	label   string
	records []tariff.Record
	err     error
}

// groupsLoadedMsg is sent when the dashboard has been rebuilt
type groupsLoadedMsg struct {
	groups []browserGroup
	err    error
}

// deleteCompleteMsg is sent when a delete operation completes
type deleteCompleteMsg struct {
	tariffID int64
	err      error
}

// selectedGroup returns the group under the cursor
func (m InteractiveTable) selectedGroup() (browserGroup, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.groups) {
		return browserGroup{}, false
	}
	return m.groups[i], true
}

// selectedTariff returns the tariff under the cursor
func (m InteractiveTable) selectedTariff() (tariff.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.tariffs) {
		return tariff.Record{}, false
	}
	return m.tariffs[i], true
}

// handleOpenGroup lists the tariffs behind the selected group
func (m InteractiveTable) handleOpenGroup() (InteractiveTable, tea.Cmd) {
	g, ok := m.selectedGroup()
	if !ok {
		m.message = "No group selected"
		return m, nil
	}

	m.loading = true
	m.message = ""
	m.err = nil
	label := g.Section + " " + g.Summary.Label

	return m, tea.Batch(
		m.spinner.Tick,
		m.fetchTariffs(g.Summary.Key, label),
	)
}

// fetchTariffs lists tariffs matching filter
func (m InteractiveTable) fetchTariffs(filter tariff.Filter, label string) tea.Cmd {
	return func() tea.Msg {
		records, err := m.client.ListTariffs(filter)
		return tariffsLoadedMsg{filter: filter, label: label, records: records, err: err}
	}
}

// handleReload refetches whatever the current view shows
func (m InteractiveTable) handleReload() (InteractiveTable, tea.Cmd) {
	m.loading = true
	m.message = ""
	m.err = nil

	if m.mode == viewGroups {
		client := m.client
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			snap, err := client.GetDashboard(true)
			if err != nil {
				return groupsLoadedMsg{err: err}
			}
			return groupsLoadedMsg{groups: groupsFromSnapshot(snap)}
		})
	}

	return m, tea.Batch(m.spinner.Tick, m.fetchTariffs(m.filter, m.filterLabel))
}

// handleDetails shows the selected tariff
func (m InteractiveTable) handleDetails() (InteractiveTable, tea.Cmd) {
	r, ok := m.selectedTariff()
	if !ok {
		m.message = "No tariffs to view"
		return m, nil
	}

	m.err = nil
	m.message = fmt.Sprintf(`
%s
Forwarder: %s  Carrier: %s
Route: %s  Country: %s  Equipment: %s
Ocean freight: %s  AMS/IMO: %s  Release/insurance: %s  All-in: %s
Transit days: %s  Free days: %s
Tariff date: %s  Valid until: %s  State: %s
`,
		r.Name,
		r.ForwarderName, orDash(r.NavieraName),
		r.Route(), orDash(r.CountryID), r.Equipo.Label(),
		cliapi.FormatAmount(r.OceanFreight), cliapi.FormatAmount(r.AmsImo),
		cliapi.FormatAmount(r.LibSeguro), cliapi.FormatAmount(r.AllIn),
		cliapi.FormatAmount(r.TransitTime), cliapi.FormatAmount(r.Demoras),
		cliapi.FormatDate(r.FechaTarifa), cliapi.FormatDate(r.VigenciaFin), r.State,
	)
	return m, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// handleDelete asks for confirmation before deleting the selected tariff
func (m InteractiveTable) handleDelete() (InteractiveTable, tea.Cmd) {
	r, ok := m.selectedTariff()
	if !ok {
		m.message = "No tariffs to delete"
		return m, nil
	}

	m.showDeleteConfirm = true
	m.deleteTarget = r.ID
	m.message = ""
	m.err = nil

	return m, nil
}

// confirmDelete executes the delete operation after confirmation
func (m InteractiveTable) confirmDelete() (InteractiveTable, tea.Cmd) {
	m.showDeleteConfirm = false
	m.loading = true
	m.message = ""
	m.err = nil

	client := m.client
	id := m.deleteTarget
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return deleteCompleteMsg{tariffID: id, err: client.DeleteTariff(id)}
		},
	)
}

// removeTariffFromTable drops a deleted tariff from the current listing
func (m InteractiveTable) removeTariffFromTable(id int64) InteractiveTable {
	kept := make([]tariff.Record, 0, len(m.tariffs))
	for _, r := range m.tariffs {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	m.tariffs = kept

	cursor := m.table.Cursor()
	m.table.SetRows(m.tariffRows())
	if cursor >= len(kept) && len(kept) > 0 {
		m.table.SetCursor(len(kept) - 1)
	}

	return m
}

// truncateString truncates a string to the specified length with ellipsis
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// runTariffBrowser runs the interactive table over a tariff listing
func runTariffBrowser(records []tariff.Record, filter tariff.Filter, client *cliapi.Client, fieldsFlag string, cfg *cliapi.Config) error {
	m, err := NewTariffBrowser(records, filter, client, fieldsFlag, interactiveColor(cfg))
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(*m, tea.WithAltScreen()).Run()
	return err
}

// runDashboardBrowser runs the interactive table over dashboard groups
func runDashboardBrowser(snap *aggregator.Snapshot, client *cliapi.Client, fieldsFlag string, cfg *cliapi.Config) error {
	m, err := NewDashboardBrowser(snap, client, fieldsFlag, interactiveColor(cfg))
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(*m, tea.WithAltScreen()).Run()
	return err
}

func interactiveColor(cfg *cliapi.Config) bool {
	return !cfg.NoColor && isTerminalFunc()
}
