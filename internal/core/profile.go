package core

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Profile is the normalized electrical record for one country.
//
// Frequencies, Plugs and Voltages hold distinct values in the order they were
// first seen in the source data.
type Profile struct {
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Frequencies []string `json:"frequencies"`
	Plugs       []string `json:"plugs"`
	Voltages    []string `json:"voltages"`
}

// clone returns a deep copy so callers can't reach into catalog storage.
func (p Profile) clone() Profile {
	return Profile{
		Name:        p.Name,
		Code:        p.Code,
		Frequencies: cloneStrings(p.Frequencies),
		Plugs:       cloneStrings(p.Plugs),
		Voltages:    cloneStrings(p.Voltages),
	}
}

// HasPlug reports whether the profile lists the given plug type.
func (p Profile) HasPlug(plug string) bool {
	for _, v := range p.Plugs {
		if v == plug {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// orderedSet collects distinct strings, remembering first-seen order.
type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

// add ignores empty and already-present values.
func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

func (s *orderedSet) slice() []string {
	return cloneStrings(s.values)
}

// sortByName orders profiles by name using English collation, so accented
// names sort next to their unaccented neighbours.
func sortByName(profiles []Profile) {
	c := collate.New(language.English)
	sort.SliceStable(profiles, func(i, j int) bool {
		return c.CompareString(profiles[i].Name, profiles[j].Name) < 0
	})
}
