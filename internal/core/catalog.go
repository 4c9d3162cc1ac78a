package core

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Catalog is the read-only reference collection of country profiles.
//
// A Catalog never changes after NewCatalog returns, so it is safe to share
// between any number of goroutines without locking.
type Catalog struct {
	profiles []Profile
	byName   map[string]int
}

// NewCatalog builds a catalog from profiles. Profiles with an empty name are
// dropped, and when a name repeats only the first profile is kept. The input
// slice is copied and the result is sorted by name.
func NewCatalog(profiles []Profile) *Catalog {
	kept := make([]Profile, 0, len(profiles))
	seen := make(map[string]struct{}, len(profiles))

	for _, p := range profiles {
		if p.Name == "" {
			continue
		}
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}
		kept = append(kept, p.clone())
	}

	sortByName(kept)

	byName := make(map[string]int, len(kept))
	for i, p := range kept {
		byName[p.Name] = i
	}

	return &Catalog{profiles: kept, byName: byName}
}

// LazyCatalog returns a function that builds the catalog on first call and
// returns the same catalog on every later call. A failed build is not
// remembered: the next call tries again, so a dataset fixed after startup is
// picked up without a restart.
func LazyCatalog(load func() ([]Profile, error)) func() (*Catalog, error) {
	var (
		mu    sync.Mutex
		built atomic.Pointer[Catalog]
	)

	return func() (*Catalog, error) {
		if c := built.Load(); c != nil {
			return c, nil
		}

		mu.Lock()
		defer mu.Unlock()

		if c := built.Load(); c != nil {
			return c, nil
		}

		profiles, err := load()
		if err != nil {
			return nil, err
		}

		c := NewCatalog(profiles)
		built.Store(c)
		return c, nil
	}
}

// Len returns the number of countries.
func (c *Catalog) Len() int {
	return len(c.profiles)
}

// Profiles returns a copy of every profile, sorted by name.
func (c *Catalog) Profiles() []Profile {
	out := make([]Profile, len(c.profiles))
	for i, p := range c.profiles {
		out[i] = p.clone()
	}
	return out
}

// Names returns all country names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.profiles))
	for i, p := range c.profiles {
		names[i] = p.Name
	}
	return names
}

// Find looks a profile up by exact name.
func (c *Catalog) Find(name string) (Profile, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Profile{}, false
	}
	return c.profiles[i].clone(), true
}

// Search returns the profiles whose name contains query, ignoring case.
// An empty query matches everything.
func (c *Catalog) Search(query string) []Profile {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Profiles()
	}

	var out []Profile
	for _, p := range c.profiles {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p.clone())
		}
	}
	return out
}

// Check resolves both names and evaluates them. ok is false when either name
// is not in the catalog; that is an incomplete selection, not an error.
func (c *Catalog) Check(home, dest string) (result CompatibilityResult, ok bool) {
	h, ok := c.Find(home)
	if !ok {
		return CompatibilityResult{}, false
	}
	d, ok := c.Find(dest)
	if !ok {
		return CompatibilityResult{}, false
	}
	return Evaluate(h, d), true
}
