package application

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/krazybird78/travel-plug-checker/internal/affiliate"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

// startCheckMsg opens the home country picker.
type startCheckMsg struct{}

// regionMsg switches the storefront used for the adapter link.
type regionMsg affiliate.Region

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	root := &Menu{
		Title: "Travel Plug Checker",
		Items: []MenuItem{
			{Label: "Check a trip", Action: func() tea.Cmd {
				return func() tea.Msg { return startCheckMsg{} }
			}},
			{Label: "Storefront ->", Submenu: loadStorefrontMenu(m)},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadStorefrontMenu(m *Model) *Menu {
	regions := storefrontRegions(m.links)

	items := make([]MenuItem, 0, len(regions)+1)
	for _, region := range regions {
		items = append(items, MenuItem{
			Label: fmt.Sprintf("%-3s %s", region, m.links.Storefront(region).Domain),
			Action: func() tea.Cmd {
				return func() tea.Msg { return regionMsg(region) }
			},
		})
	}
	items = append(items, MenuItem{Label: "Back"})

	return &Menu{Title: "Storefront", Items: items}
}

// storefrontRegions lists the default region and every configured region,
// sorted.
func storefrontRegions(t *affiliate.Table) []affiliate.Region {
	seen := map[affiliate.Region]bool{t.DefaultRegion: true}
	out := []affiliate.Region{t.DefaultRegion}
	for region := range t.Regions {
		if !seen[region] {
			seen[region] = true
			out = append(out, region)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
