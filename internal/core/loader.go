package core

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column positions in the world-plugs dataset:
// [ignored, country_code, frequency, name, plug_type, voltage]
const (
	colCode      = 1
	colFrequency = 2
	colName      = 3
	colPlug      = 4
	colVoltage   = 5
)

const plugPrefix = "Type "

// Load parses the raw world-plugs CSV text into one profile per country,
// sorted by name.
//
// The first non-blank line is a header and is skipped. Rows without a country
// name are dropped without error: this is a best-effort import, not a
// validating parser.
func Load(raw string) []Profile {
	lines := nonBlankLines(raw)
	if len(lines) < 2 {
		return []Profile{}
	}

	type accumulator struct {
		code        string
		frequencies *orderedSet
		plugs       *orderedSet
		voltages    *orderedSet
	}

	byName := make(map[string]*accumulator)
	var order []string

	for _, line := range lines[1:] {
		cells := splitCells(line)

		name := cell(cells, colName)
		if name == "" {
			continue
		}

		acc, ok := byName[name]
		if !ok {
			acc = &accumulator{
				code:        cell(cells, colCode),
				frequencies: newOrderedSet(),
				plugs:       newOrderedSet(),
				voltages:    newOrderedSet(),
			}
			byName[name] = acc
			order = append(order, name)
		}

		acc.frequencies.add(cell(cells, colFrequency))
		acc.plugs.add(strings.TrimPrefix(cell(cells, colPlug), plugPrefix))
		acc.voltages.add(cell(cells, colVoltage))
	}

	profiles := make([]Profile, 0, len(order))
	for _, name := range order {
		acc := byName[name]
		profiles = append(profiles, Profile{
			Name:        name,
			Code:        acc.code,
			Frequencies: acc.frequencies.slice(),
			Plugs:       acc.plugs.slice(),
			Voltages:    acc.voltages.slice(),
		})
	}

	sortByName(profiles)
	return profiles
}

// LoadReader reads the whole dataset from r and parses it with Load.
// A UTF-8 byte order mark is dropped and invalid UTF-8 is replaced with
// U+FFFD before parsing. Only read errors are returned.
func LoadReader(r io.Reader) ([]Profile, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	raw, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	return Load(string(raw)), nil
}

// nonBlankLines splits on '\n' and drops lines that are empty after trimming.
func nonBlankLines(raw string) []string {
	parts := strings.Split(raw, "\n")
	lines := parts[:0]
	for _, line := range parts {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitCells tokenizes one line on commas, except commas inside a pair of
// double quotes. Quote characters are dropped and every cell is trimmed, so
// `a,"110 V, 220 V"` yields ["a", "110 V, 220 V"].
func splitCells(line string) []string {
	var (
		cells    []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	cells = append(cells, strings.TrimSpace(current.String()))

	return cells
}

// cell returns cells[i], or "" when the row is too short.
func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}
