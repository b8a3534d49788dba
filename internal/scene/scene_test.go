package scene

import "testing"

var hostKeys = []string{"Tutorial", "BoxShow", "BoxShowCustom", "FlowWorms", "RhythmRally", "Molecano", "MolecanoMixtape", "MeatGrinderCustom"}

func TestToKeyOrInvalid(t *testing.T) {
	c := NewCatalog(hostKeys...)
	cases := []struct {
		in   string
		want Key
	}{
		{"BoxShow", "BoxShow"},
		{"boxshow", "BoxShow"},
		{"boxshowcustom", "BoxShowCustom"},
		{"MeatGrinder", "MeatGrinderCustom"},
		{" flowworms ", "FlowWorms"},
		{"Nope", Invalid},
		{"", Invalid},
	}
	for _, tc := range cases {
		if got := c.ToKeyOrInvalid(tc.in); got != tc.want {
			t.Errorf("ToKeyOrInvalid(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromKeyOrInvalid(t *testing.T) {
	cases := map[Key]string{
		"BoxShowCustom":   "BoxShow",
		"MolecanoMixtape": "Molecano",
		"Tutorial":        "Tutorial",
		Invalid:           "Invalid",
	}
	for k, want := range cases {
		if got := FromKeyOrInvalid(k); got != want {
			t.Errorf("FromKeyOrInvalid(%q) = %q, want %q", k, got, want)
		}
	}
}

// Keys that only exist in their suffixed form must survive the trip
// through their display name. Keys with a bare sibling ("BoxShow" next to
// "BoxShowCustom") are not discovered by display name and are excluded.
func TestKeyRoundTrip(t *testing.T) {
	c := NewCatalog("Tutorial", "FlowWorms", "MeatGrinderCustom", "MolecanoMixtape", "RhythmRally")
	for _, k := range c.Keys() {
		if got := c.ToKeyOrInvalid(FromKeyOrInvalid(k)); got != k {
			t.Errorf("round trip of %q gave %q", k, got)
		}
	}
}

func TestSuggest(t *testing.T) {
	c := NewCatalog(hostKeys...)
	if got, ok := c.Suggest("FlowWorm"); !ok || got != "FlowWorms" {
		t.Fatalf("Suggest(FlowWorm) = %q, %v", got, ok)
	}
	if _, ok := c.Suggest("Completely Different"); ok {
		t.Fatal("expected no suggestion for distant name")
	}
}

func TestNewCatalogSkipsDuplicates(t *testing.T) {
	c := NewCatalog("A", "a", "", "B")
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}
