package application

import "strings"

// picker is a filterable single-choice list of country names.
type picker struct {
	title   string
	all     []string
	filter  string
	matches []string
	cursor  int
}

func newPicker(title string, names []string) picker {
	p := picker{title: title, all: names}
	p.refilter()
	return p
}

// typeRunes appends to the filter.
func (p *picker) typeRunes(r []rune) {
	p.filter += string(r)
	p.refilter()
}

// backspace drops the last filter rune. It reports false when the filter was
// already empty.
func (p *picker) backspace() bool {
	if p.filter == "" {
		return false
	}
	r := []rune(p.filter)
	p.filter = string(r[:len(r)-1])
	p.refilter()
	return true
}

func (p *picker) move(delta int) {
	if len(p.matches) == 0 {
		return
	}
	p.cursor = (p.cursor + delta + len(p.matches)) % len(p.matches)
}

// selected returns the highlighted name, if any name matches.
func (p *picker) selected() (string, bool) {
	if len(p.matches) == 0 {
		return "", false
	}
	return p.matches[p.cursor], true
}

func (p *picker) refilter() {
	q := strings.ToLower(strings.TrimSpace(p.filter))
	matches := make([]string, 0, len(p.all))
	for _, name := range p.all {
		if q == "" || strings.Contains(strings.ToLower(name), q) {
			matches = append(matches, name)
		}
	}
	p.matches = matches
	p.cursor = 0
}

// window returns the slice of matches to draw, keeping the cursor visible,
// and the offset of its first entry.
func (p *picker) window(size int) ([]string, int) {
	if size <= 0 || len(p.matches) <= size {
		return p.matches, 0
	}
	start := p.cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > len(p.matches) {
		start = len(p.matches) - size
	}
	return p.matches[start : start+size], start
}
