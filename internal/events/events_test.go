package events

import (
	"errors"
	"testing"

	"customtex/internal/host"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"customtex/set texture variant", SetTextureVariant, true},
		{"customTex/Apply Scene Mod", ApplySceneMod, true},
		{"CUSTOMTEX/clear scene mod override", ClearSceneModOverride, true},
		{"customtex/bogus", Unknown, false},
		{"other/set texture variant", Unknown, false},
		{"custom", Unknown, false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKindsRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		if got, ok := Parse(k.DataModel()); !ok || got != k {
			t.Errorf("%v did not round-trip", k)
		}
	}
	if len(Kinds()) != len(Templates()) {
		t.Fatalf("%d kinds, %d templates", len(Kinds()), len(Templates()))
	}
}

func TestDisplayName(t *testing.T) {
	if got := SetSceneModOverride.DisplayName(); got != "Set Scene Mod Override" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayName("  TOGGLE custom TEXTURES "); got != "Toggle Custom Textures" {
		t.Fatalf("got %q", got)
	}
}

func TestDecode(t *testing.T) {
	ev, err := Decode(host.Entity{
		Beat:       4,
		DataModel:  "customTex/toggle custom textures",
		Properties: map[string]any{"enabled": "false"},
	})
	if err != nil || ev.Kind != ToggleCustomTextures || ev.Enabled || ev.Beat != 4 {
		t.Fatalf("toggle = %+v, %v", ev, err)
	}

	ev, err = Decode(host.Entity{
		DataModel:  "customtex/set texture override",
		Properties: map[string]any{"qualifiedPath": "BoxShow/Cube", "path": "alt/cube.png"},
	})
	if err != nil || ev.QualifiedPath != "BoxShow/Cube" || ev.Path != "alt/cube.png" {
		t.Fatalf("override = %+v, %v", ev, err)
	}

	_, err = Decode(host.Entity{
		DataModel:  "customtex/set texture override",
		Properties: map[string]any{"qualifiedPath": "BoxShow/Cube", "path": "  "},
	})
	if !errors.Is(err, ErrMissingProperty) {
		t.Fatalf("blank path err = %v", err)
	}

	if _, err := Decode(host.Entity{DataModel: "customtex/nope"}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("unknown err = %v", err)
	}
}

func TestRegistryInsertIndex(t *testing.T) {
	base := []Category{{Name: "accessibility"}, {Name: "BoxShow"}, {Name: "FlowWorms"}}
	tests := []struct {
		index int
		want  int
	}{
		{1, 0},
		{2, 1},
		{4, 3},
		{0, 3},
		{99, 3},
	}
	for _, tt := range tests {
		r := NewRegistry(base, tt.index)
		if !r.Insert() {
			t.Fatalf("index %d: not inserted", tt.index)
		}
		if r.Insert() {
			t.Fatalf("index %d: inserted twice", tt.index)
		}
		cats := r.Categories()
		if len(cats) != 4 || cats[tt.want].Name != CategoryName {
			t.Errorf("index %d: got %v", tt.index, names(cats))
		}
		if !r.Remove() || r.Installed() || len(r.Categories()) != 3 {
			t.Errorf("index %d: remove failed", tt.index)
		}
	}
}

func TestRegistrySync(t *testing.T) {
	r := NewRegistry(nil, 4)
	r.Sync(DisplayWhenActive, false)
	if r.Installed() {
		t.Fatal("inactive mixtape shows category")
	}
	r.Sync(DisplayWhenActive, true)
	if !r.Installed() {
		t.Fatal("active mixtape hides category")
	}
	r.Sync(DisplayNever, true)
	if r.Installed() {
		t.Fatal("never still shows category")
	}
	r.Sync(DisplayAlways, false)
	if !r.Installed() {
		t.Fatal("always hides category")
	}
}

func TestSceneChoices(t *testing.T) {
	r := NewRegistry(nil, 1)
	r.Insert()
	r.SetSceneChoices([]string{"BoxShow", "FlowWorms"}, nil)

	tpl, ok := r.Lookup("customTex/apply scene mod")
	if !ok {
		t.Fatal("template missing")
	}
	p, _ := tpl.Property("scene")
	if p.Type != PropChoice || len(p.Choices) != 2 || p.Default != "BoxShow" {
		t.Fatalf("scene property = %+v", p)
	}
	installed := r.Categories()[0].Templates
	for _, it := range installed {
		if it.Kind != ApplySceneMod {
			continue
		}
		if ip, _ := it.Property("scene"); ip.Type != PropChoice {
			t.Fatal("installed category not refreshed")
		}
	}

	tpl, _ = r.Lookup(AddTextureVariant.DataModel())
	if p, _ := tpl.Property("scene"); p.Type != PropString {
		t.Fatalf("texture scene property = %+v", p)
	}

	r.SetSceneChoices(nil, nil)
	tpl, _ = r.Lookup(ApplySceneMod.DataModel())
	if p, _ := tpl.Property("scene"); p.Type != PropString || p.Default != "" {
		t.Fatalf("reset scene property = %+v", p)
	}
	if tpl.Length != DefaultLength {
		t.Fatalf("length = %v", tpl.Length)
	}
}

func names(cats []Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}
