package application

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazybird78/travel-plug-checker/internal/affiliate"
	"github.com/krazybird78/travel-plug-checker/internal/core"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	links, err := affiliate.Default()
	require.NoError(t, err)

	catalog := core.NewCatalog([]core.Profile{
		{Name: "United States", Code: "US", Frequencies: []string{"60 Hz"}, Plugs: []string{"A", "B"}, Voltages: []string{"120 V"}},
		{Name: "Germany", Code: "DE", Frequencies: []string{"50 Hz"}, Plugs: []string{"C", "F"}, Voltages: []string{"230 V"}},
		{Name: "United Kingdom", Code: "GB", Frequencies: []string{"50 Hz"}, Plugs: []string{"G"}, Voltages: []string{"230 V"}},
		{Name: "Canada", Code: "CA", Frequencies: []string{"60 Hz"}, Plugs: []string{"A", "B"}, Voltages: []string{"120 V"}},
	})

	return NewModel(catalog, links, "US", "B0DHVNW1CN")
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// send feeds msg to m and, if a command comes back, feeds its message too.
func send(m *Model, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	if _, quit := out.(tea.QuitMsg); quit {
		return out
	}
	return send(m, out)
}

func TestFullCheck(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, stageMenu, m.stage)

	send(m, key(tea.KeyEnter)) // "Check a trip"
	require.Equal(t, stagePickHome, m.stage)

	send(m, runes("states"))
	name, ok := m.picker.selected()
	require.True(t, ok)
	assert.Equal(t, "United States", name)
	send(m, key(tea.KeyEnter))
	require.Equal(t, stagePickDest, m.stage)
	assert.Equal(t, "United States", m.home.Name)

	send(m, runes("united"))
	assert.Equal(t, []string{"United Kingdom", "United States"}, m.picker.matches)
	send(m, key(tea.KeyEnter))

	require.Equal(t, stageVerdict, m.stage)
	assert.Equal(t, core.CompatibilityResult{NeedsAdapter: true, NeedsConverter: true}, m.result)

	view := m.View()
	assert.Contains(t, view, "Adapter Required")
	assert.Contains(t, view, "amazon.com/dp/B0DHVNW1CN")
}

func TestPicker_EscGoesBack(t *testing.T) {
	m := newTestModel(t)
	send(m, startCheckMsg{})
	send(m, runes("canada"))
	send(m, key(tea.KeyEnter))
	require.Equal(t, stagePickDest, m.stage)

	send(m, key(tea.KeyEsc))
	assert.Equal(t, stagePickHome, m.stage)
	send(m, key(tea.KeyEsc))
	assert.Equal(t, stageMenu, m.stage)
}

func TestPicker_QIsFilterText(t *testing.T) {
	m := newTestModel(t)
	send(m, startCheckMsg{})

	got := send(m, runes("q"))
	assert.Nil(t, got)
	assert.Equal(t, "q", m.picker.filter)
	assert.Empty(t, m.picker.matches)

	// Enter with no match does nothing.
	send(m, key(tea.KeyEnter))
	assert.Equal(t, stagePickHome, m.stage)

	send(m, key(tea.KeyBackspace))
	assert.Len(t, m.picker.matches, 4)
}

func TestPicker_ArrowsWrap(t *testing.T) {
	p := newPicker("t", []string{"a", "b", "c"})
	p.move(-1)
	name, _ := p.selected()
	assert.Equal(t, "c", name)
	p.move(1)
	name, _ = p.selected()
	assert.Equal(t, "a", name)
}

func TestPicker_Window(t *testing.T) {
	p := newPicker("t", []string{"a", "b", "c", "d", "e", "f"})
	p.cursor = 5

	visible, offset := p.window(3)
	assert.Equal(t, []string{"d", "e", "f"}, visible)
	assert.Equal(t, 3, offset)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	assert.IsType(t, tea.QuitMsg{}, send(m, runes("q")))

	m = newTestModel(t)
	send(m, startCheckMsg{})
	assert.IsType(t, tea.QuitMsg{}, send(m, key(tea.KeyCtrlC)))
}

func TestStorefrontMenu(t *testing.T) {
	m := newTestModel(t)

	send(m, key(tea.KeyDown))
	send(m, key(tea.KeyEnter))
	require.Equal(t, "Storefront", m.menu.Title)

	// Regions are sorted: CA, DE, FR, UK, US.
	send(m, key(tea.KeyEnter))
	assert.Equal(t, affiliate.Region("CA"), m.region)
	assert.Equal(t, "Travel Plug Checker", m.menu.Title)
	assert.Contains(t, m.status, "amazon.ca")
}

func TestStorefrontRegions(t *testing.T) {
	links, err := affiliate.Default()
	require.NoError(t, err)

	assert.Equal(t, []affiliate.Region{"CA", "DE", "FR", "UK", "US"}, storefrontRegions(links))
}

func TestMenuBackItem(t *testing.T) {
	m := newTestModel(t)
	send(m, key(tea.KeyDown))
	send(m, key(tea.KeyEnter))
	require.Equal(t, "Storefront", m.menu.Title)

	m.cursor = len(m.menu.Items) - 1
	send(m, key(tea.KeyEnter))
	assert.Equal(t, "Travel Plug Checker", m.menu.Title)
}
