package core

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func testProfiles() []Profile {
	return []Profile{
		{Name: "United States", Code: "US", Frequencies: []string{"60 Hz"}, Plugs: []string{"A", "B"}, Voltages: []string{"120 V"}},
		{Name: "Germany", Code: "DE", Frequencies: []string{"50 Hz"}, Plugs: []string{"C", "F"}, Voltages: []string{"230 V"}},
		{Name: "United Kingdom", Code: "GB", Frequencies: []string{"50 Hz"}, Plugs: []string{"G"}, Voltages: []string{"230 V"}},
		{Name: "Canada", Code: "CA", Frequencies: []string{"60 Hz"}, Plugs: []string{"A", "B"}, Voltages: []string{"120 V"}},
	}
}

func TestNewCatalog_SortsAndDedupes(t *testing.T) {
	in := append(testProfiles(),
		Profile{Name: ""},
		Profile{Name: "Germany", Code: "XX"},
	)

	c := NewCatalog(in)

	want := []string{"Canada", "Germany", "United Kingdom", "United States"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %q, want %q", got, want)
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}

	de, ok := c.Find("Germany")
	if !ok {
		t.Fatal("Find(Germany) not found")
	}
	if de.Code != "DE" {
		t.Errorf("first Germany should win, got code %q", de.Code)
	}
}

func TestCatalog_IsolatedFromCallers(t *testing.T) {
	in := testProfiles()
	c := NewCatalog(in)

	in[0].Plugs[0] = "Z"
	got, _ := c.Find("United States")
	if got.Plugs[0] != "A" {
		t.Errorf("catalog changed through input slice: %q", got.Plugs)
	}

	got.Plugs[0] = "Z"
	again, _ := c.Find("United States")
	if again.Plugs[0] != "A" {
		t.Errorf("catalog changed through Find result: %q", again.Plugs)
	}

	all := c.Profiles()
	all[0].Name = "Mutated"
	if c.Names()[0] != "Canada" {
		t.Errorf("catalog changed through Profiles result")
	}
}

func TestCatalog_Find(t *testing.T) {
	c := NewCatalog(testProfiles())

	if _, ok := c.Find("germany"); ok {
		t.Error("Find should be an exact, case-sensitive match")
	}
	if _, ok := c.Find("Atlantis"); ok {
		t.Error("Find(Atlantis) should not resolve")
	}
	if p, ok := c.Find("Canada"); !ok || p.Code != "CA" {
		t.Errorf("Find(Canada) = %+v, %v", p, ok)
	}
}

func TestCatalog_Search(t *testing.T) {
	c := NewCatalog(testProfiles())

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"Canada", "Germany", "United Kingdom", "United States"}},
		{query: "united", want: []string{"United Kingdom", "United States"}},
		{query: "  KING ", want: []string{"United Kingdom"}},
		{query: "zzz", want: nil},
	}

	for _, tt := range tests {
		var got []string
		for _, p := range c.Search(tt.query) {
			got = append(got, p.Name)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Search(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestCatalog_Check(t *testing.T) {
	c := NewCatalog(testProfiles())

	got, ok := c.Check("United States", "United Kingdom")
	if !ok {
		t.Fatal("Check should resolve both names")
	}
	want := CompatibilityResult{PlugCompatible: false, NeedsAdapter: true, NeedsConverter: true}
	if got != want {
		t.Errorf("Check(US, UK) = %+v, want %+v", got, want)
	}

	got, ok = c.Check("United States", "Canada")
	if !ok || got != (CompatibilityResult{PlugCompatible: true}) {
		t.Errorf("Check(US, CA) = %+v, %v", got, ok)
	}

	for _, pair := range [][2]string{{"", "Canada"}, {"Canada", ""}, {"Atlantis", "Canada"}} {
		if _, ok := c.Check(pair[0], pair[1]); ok {
			t.Errorf("Check(%q, %q) should be unresolved", pair[0], pair[1])
		}
	}
}

func TestLazyCatalog_BuildsOnce(t *testing.T) {
	calls := 0
	get := LazyCatalog(func() ([]Profile, error) {
		calls++
		return testProfiles(), nil
	})

	if calls != 0 {
		t.Fatalf("loader ran before first use")
	}

	var wg sync.WaitGroup
	results := make([]*Catalog, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := get()
			if err != nil {
				t.Errorf("get() error = %v", err)
			}
			results[i] = c
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Errorf("result %d is a different catalog", i)
		}
	}
}

func TestLazyCatalog_RetriesAfterError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	get := LazyCatalog(func() ([]Profile, error) {
		calls++
		if calls < 3 {
			return nil, boom
		}
		return testProfiles(), nil
	})

	for i := 0; i < 2; i++ {
		if _, err := get(); !errors.Is(err, boom) {
			t.Errorf("get() error = %v, want %v", err, boom)
		}
	}

	first, err := get()
	if err != nil {
		t.Fatalf("get() after recovery error = %v", err)
	}
	if first.Len() != 4 {
		t.Errorf("Len() = %d, want 4", first.Len())
	}

	again, _ := get()
	if again != first {
		t.Error("successful build should be reused")
	}
	if calls != 3 {
		t.Errorf("loader called %d times, want 3", calls)
	}
}
