// Package affiliate builds the purchase link shown under an advisory.
//
// It guesses a shopper's region from their IANA time zone and picks the
// matching storefront domain and affiliate tag. None of this feeds back into
// the compatibility decision.
package affiliate

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var defaultTable []byte

// Region is a short storefront region code such as "US" or "UK".
type Region string

// Storefront is where links for a region point.
type Storefront struct {
	Domain string `yaml:"domain"`
	Tag    string `yaml:"tag"`
}

// TimezoneRule maps time zones containing Match to Region.
type TimezoneRule struct {
	Match  string `yaml:"match"`
	Region Region `yaml:"region"`
}

// Table is the storefront configuration. It is read-only after loading.
type Table struct {
	DefaultRegion Region                `yaml:"default_region"`
	Default       Storefront            `yaml:"default"`
	Regions       map[Region]Storefront `yaml:"regions"`
	Timezones     []TimezoneRule        `yaml:"timezones"`
}

// Default returns the built-in table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// LoadFile reads a table from a YAML file. An empty path returns Default.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read affiliate table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode affiliate table: %w", err)
	}

	if t.Default.Domain == "" || t.Default.Tag == "" {
		return nil, fmt.Errorf("affiliate table: default domain and tag are required")
	}
	if t.DefaultRegion == "" {
		t.DefaultRegion = "US"
	}
	for i, rule := range t.Timezones {
		if rule.Match == "" || rule.Region == "" {
			return nil, fmt.Errorf("affiliate table: timezone rule %d needs match and region", i)
		}
	}

	return &t, nil
}

// WithDefaultRegion returns a copy of t whose fallback region is r.
// An empty r leaves the table unchanged.
func (t *Table) WithDefaultRegion(r Region) *Table {
	if r == "" {
		return t
	}
	cp := *t
	cp.DefaultRegion = Region(strings.ToUpper(string(r)))
	return &cp
}

// DetectRegion guesses the region for an IANA time zone such as
// "America/Toronto". Unknown zones fall back to DefaultRegion.
func (t *Table) DetectRegion(timezone string) Region {
	for _, rule := range t.Timezones {
		if strings.Contains(timezone, rule.Match) {
			return rule.Region
		}
	}
	return t.DefaultRegion
}

// Storefront returns the storefront for region. Fields missing for the region
// are filled from the default storefront.
func (t *Table) Storefront(region Region) Storefront {
	sf := t.Default
	if r, ok := t.Regions[Region(strings.ToUpper(string(region)))]; ok {
		if r.Domain != "" {
			sf.Domain = r.Domain
		}
		if r.Tag != "" {
			sf.Tag = r.Tag
		}
	}
	return sf
}

// Link returns the product link for asin in region's storefront.
func (t *Table) Link(region Region, asin string) string {
	sf := t.Storefront(region)
	return fmt.Sprintf("https://www.%s/dp/%s?tag=%s",
		sf.Domain, url.PathEscape(asin), url.QueryEscape(sf.Tag))
}
