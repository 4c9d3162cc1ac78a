// Package application is the terminal plug checker: a bubbletea program that
// walks the user through picking a home and a destination country and shows
// the verdict.
package application

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/krazybird78/travel-plug-checker/internal/affiliate"
	"github.com/krazybird78/travel-plug-checker/internal/core"
)

type stage int

const (
	stageMenu stage = iota
	stagePickHome
	stagePickDest
	stageVerdict
)

// Model is the bubbletea model for the terminal checker.
type Model struct {
	catalog *core.Catalog
	links   *affiliate.Table
	asin    string
	region  affiliate.Region

	stage  stage
	menu   *Menu
	cursor int
	picker picker

	home, dest core.Profile
	result     core.CompatibilityResult
	advisory   core.Advisory

	status string
	width  int
	height int
}

// NewModel builds the checker over catalog. Links point at region's
// storefront until the user picks another one.
func NewModel(catalog *core.Catalog, links *affiliate.Table, region affiliate.Region, asin string) *Model {
	m := &Model{
		catalog: catalog,
		links:   links,
		asin:    asin,
		region:  region,
		status:  fmt.Sprintf("%d countries loaded", catalog.Len()),
	}
	m.menu = buildMenuTree(m)
	return m
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case startCheckMsg:
		m.startPicking(stagePickHome)
		return m, nil

	case regionMsg:
		m.region = affiliate.Region(msg)
		m.status = "Storefront: " + m.links.Storefront(m.region).Domain
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.stage {
		case stageMenu:
			return m.updateMenu(msg)
		case stagePickHome, stagePickDest:
			return m.updatePicker(msg)
		case stageVerdict:
			return m.updateVerdict(msg)
		}
	}

	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}
	case "enter":
		item := m.menu.Items[m.cursor]
		if item.Submenu != nil {
			m.menu = item.Submenu
			m.cursor = 0
			return m, nil
		}
		if item.Action != nil {
			return m, item.Action()
		}
	}
	return m, nil
}

// updatePicker handles keys while choosing a country. Printable keys go to
// the filter, so q does not quit here.
func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyRunes:
		m.picker.typeRunes(msg.Runes)
	case tea.KeySpace:
		m.picker.typeRunes([]rune{' '})
	case tea.KeyBackspace:
		m.picker.backspace()
	case tea.KeyUp:
		m.picker.move(-1)
	case tea.KeyDown:
		m.picker.move(1)
	case tea.KeyEsc:
		if m.stage == stagePickDest {
			m.startPicking(stagePickHome)
		} else {
			m.stage = stageMenu
		}
	case tea.KeyEnter:
		name, ok := m.picker.selected()
		if !ok {
			return m, nil
		}
		m.choose(name)
	}
	return m, nil
}

func (m *Model) updateVerdict(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n":
		m.startPicking(stagePickHome)
	case "d":
		m.startPicking(stagePickDest)
	case "esc", "m":
		m.stage = stageMenu
	}
	return m, nil
}

func (m *Model) startPicking(s stage) {
	m.stage = s
	title := "Where are you from?"
	if s == stagePickDest {
		title = "Where are you going?"
	}
	m.picker = newPicker(title, m.catalog.Names())
}

// choose records a picked country and moves to the next stage.
func (m *Model) choose(name string) {
	p, ok := m.catalog.Find(name)
	if !ok {
		return
	}

	if m.stage == stagePickHome {
		m.home = p
		m.startPicking(stagePickDest)
		return
	}

	m.dest = p
	m.result = core.Evaluate(m.home, m.dest)
	m.advisory = core.Advise(m.result, m.dest)
	m.stage = stageVerdict

	slog.Info("check",
		"home", m.home.Name,
		"dest", m.dest.Name,
		"needs_adapter", m.result.NeedsAdapter,
		"needs_converter", m.result.NeedsConverter,
	)
}

/* ----------------------------------------
	VIEW
---------------------------------------- */

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

func (m *Model) View() string {
	width := viewWidth(m.width)

	var body string
	switch m.stage {
	case stageMenu:
		body = m.viewMenu(width)
	case stagePickHome, stagePickDest:
		body = m.viewPicker(width)
	case stageVerdict:
		body = m.viewVerdict(width)
	}

	status := helpStyle.Render(m.status)
	return lipgloss.NewStyle().Padding(0, 1).Render(body + "\n" + status)
}

func (m *Model) viewMenu(width int) string {
	lines := make([]string, 0, len(m.menu.Items)+1)
	for i, item := range m.menu.Items {
		lines = append(lines, cursorLine(i == m.cursor, item.Label))
	}
	lines = append(lines, "", helpStyle.Render("enter: select  esc: back  q: quit"))
	return renderPanel(m.menu.Title, lines, width, "63")
}

func (m *Model) viewPicker(width int) string {
	lines := []string{"Filter: " + m.picker.filter + "_", ""}

	visible, offset := m.picker.window(pickerRows(m.height))
	if len(visible) == 0 {
		lines = append(lines, helpStyle.Render("(no match)"))
	}
	for i, name := range visible {
		lines = append(lines, cursorLine(offset+i == m.picker.cursor, name))
	}

	if m.stage == stagePickDest {
		lines = append(lines, "", "From: "+m.home.Name)
	}
	lines = append(lines, "", helpStyle.Render("type to filter  arrows: move  enter: select  esc: back"))
	return renderPanel(m.picker.title, lines, width, "45")
}

func (m *Model) viewVerdict(width int) string {
	border := "46"
	if !m.advisory.OK {
		border = "214"
	}

	link := m.links.Link(m.region, m.asin)
	lines := []string{
		titleStyle.Render(m.advisory.Headline),
		m.home.Name + " -> " + m.dest.Name,
		"",
		m.advisory.Message,
		"",
		"Plug adapter:      " + required(m.result.NeedsAdapter),
		"Voltage converter: " + required(m.result.NeedsConverter),
		"",
		"Plug types: " + joinOrDash(m.dest.Plugs),
		"Voltage:    " + joinOrDash(m.dest.Voltages),
		"Frequency:  " + joinOrDash(m.dest.Frequencies),
		"",
		m.advisory.Recommendation,
		link,
		"",
		helpStyle.Render("n: new check  d: change destination  m: menu  q: quit"),
	}
	return renderPanel("Verdict", lines, width, border)
}

func renderPanel(title string, lines []string, width int, borderColor string) string {
	content := titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Render(content)
}

func cursorLine(active bool, label string) string {
	if active {
		return cursorStyle.Render("> " + label)
	}
	return "  " + label
}

func viewWidth(w int) int {
	if w <= 0 {
		w = 80
	}
	w -= 4
	if w > 96 {
		w = 96
	}
	if w < 40 {
		w = 40
	}
	return w
}

func pickerRows(h int) int {
	if h <= 0 {
		return 12
	}
	rows := h - 12
	if rows < 3 {
		rows = 3
	}
	return rows
}

func required(v bool) string {
	if v {
		return "required"
	}
	return "not needed"
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
