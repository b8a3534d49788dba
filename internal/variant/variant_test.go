package variant

import (
	"errors"
	"testing"

	"customtex/internal/scene"
)

func newRegistry() *Registry {
	return NewRegistry(scene.NewCatalog("BoxShow", "FlowWorms", "MeatGrinderCustom"))
}

func TestGetOrAddMonotonic(t *testing.T) {
	r := newRegistry()
	if id := r.GetOrAdd("BoxShow", ""); id != Base {
		t.Fatalf("empty name = %d, want Base", id)
	}
	foo := r.GetOrAdd("BoxShow", "Foo")
	if again := r.GetOrAdd("BoxShow", "Foo"); again != foo {
		t.Fatalf("Foo reassigned: %d then %d", foo, again)
	}
	bar := r.GetOrAdd("BoxShow", "Bar")
	if bar != foo+1 {
		t.Fatalf("Bar = %d, want %d", bar, foo+1)
	}
	if other := r.GetOrAdd("FlowWorms", "Bar"); other != 1 {
		t.Fatalf("ids are not per scene: %d", other)
	}
	if r.Name("BoxShow", bar) != "Bar" || r.Name("BoxShow", 0) != "" {
		t.Fatal("reverse lookup failed")
	}
}

func TestTryGet(t *testing.T) {
	r := newRegistry()
	night := r.GetOrAdd("BoxShow", "Night")
	r.GetOrAdd("MeatGrinderCustom", "Night")

	ref, err := r.TryGet("BoxShow", "Night")
	if err != nil || ref != (Ref{Scene: "BoxShow", ID: night}) {
		t.Fatalf("TryGet = %+v, %v", ref, err)
	}

	ref, err = r.TryGet("BoxShow", "MeatGrinder Night")
	if err != nil || ref.Scene != "MeatGrinderCustom" {
		t.Fatalf("qualified TryGet = %+v, %v", ref, err)
	}

	ref, err = r.TryGet("BoxShow", `"MeatGrinder/Night"`)
	if err != nil || ref.Scene != "MeatGrinderCustom" {
		t.Fatalf("slash qualified TryGet = %+v, %v", ref, err)
	}

	cases := []struct {
		raw  string
		want error
	}{
		{"", ErrInvalidSyntax},
		{"a b c", ErrInvalidSyntax},
		{"Nowhere Night", ErrUnknownScene},
		{"Day", ErrUnknownVariant},
	}
	for _, tc := range cases {
		_, err := r.TryGet("BoxShow", tc.raw)
		if !errors.Is(err, tc.want) {
			t.Errorf("TryGet(%q) err = %v, want %v", tc.raw, err, tc.want)
		}
	}
}

func TestTryGetList(t *testing.T) {
	r := newRegistry()
	a := r.GetOrAdd("BoxShow", "A")
	b := r.GetOrAdd("BoxShow", "B")

	refs, skipped, err := r.TryGetList("BoxShow", "A, missing, B, A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 2 || refs[0].ID != a || refs[1].ID != b {
		t.Fatalf("refs = %+v", refs)
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped = %v", skipped)
	}
	if !errors.Is(skipped[1], ErrDuplicate) {
		t.Fatalf("second skip = %v, want duplicate", skipped[1])
	}

	if _, _, err := r.TryGetList("BoxShow", "missing"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("single bad token err = %v", err)
	}
}

func TestTryGetAllAcrossScenes(t *testing.T) {
	r := newRegistry()
	r.GetOrAdd("BoxShow", "Night")
	r.GetOrAdd("FlowWorms", "Other")
	r.GetOrAdd("FlowWorms", "Night")

	refs, err := r.TryGetAll("Night")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 || refs[0] != (Ref{"BoxShow", 1}) || refs[1] != (Ref{"FlowWorms", 2}) {
		t.Fatalf("refs = %+v", refs)
	}

	refs, _, err = r.TryGetList(scene.Invalid, "Night")
	if err != nil || len(refs) != 2 {
		t.Fatalf("TryGetList across scenes = %+v, %v", refs, err)
	}
}

func TestResolveReferencePolicy(t *testing.T) {
	r := newRegistry()
	if _, err := r.ResolveReference("BoxShow", "Ghost"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("default policy err = %v", err)
	}
	r.Policy = PolicyLowPriority
	ref, err := r.ResolveReference("BoxShow", "Ghost")
	if err != nil || ref.ID != 1 {
		t.Fatalf("low priority = %+v, %v", ref, err)
	}
	if id, ok := r.Lookup("BoxShow", "Ghost"); !ok || id != ref.ID {
		t.Fatal("low priority reference was not registered")
	}
}
