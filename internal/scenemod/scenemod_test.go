package scenemod

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"customtex/internal/host"
	"customtex/internal/host/memhost"
	"customtex/internal/scene"
	"customtex/internal/schedule"
	"customtex/internal/variant"
)

const boxShow scene.Key = "BoxShow"

type fixture struct {
	gfx      *memhost.Graphics
	catalog  *scene.Catalog
	variants *variant.Registry
	parser   *Parser
	engine   *Engine
}

func newFixture() *fixture {
	f := &fixture{gfx: memhost.NewGraphics(), catalog: scene.NewCatalog("BoxShow", "FlowWorms")}
	f.variants = variant.NewRegistry(f.catalog)
	f.parser = NewParser(nil, f.gfx, f.variants)
	f.engine = NewEngine(nil, f.gfx, f.catalog, f.variants)
	return f
}

func (f *fixture) parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := f.parser.ParseDocument([]byte(src), boxShow, 2)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func apply(doc *Document, root host.Object) {
	env := &Env{Scene: boxShow}
	Resolve(env, doc.Init, root).Apply(env)
}

func TestHexColor(t *testing.T) {
	v := values{log: newFixture().parser.log}
	c := v.hexColor("#FF8000")
	if c[0] != 1 || math.Abs(float64(c[1])-128.0/255) > 1e-6 || c[2] != 0 {
		t.Fatalf("rgb = %v", c)
	}
	if !isUnset(c[3]) {
		t.Fatalf("alpha = %v, want unset", c[3])
	}

	c = v.hexColor("#FF800040")
	if math.Abs(float64(c[3])-64.0/255) > 1e-6 {
		t.Fatalf("alpha = %v", c[3])
	}

	for _, bad := range []string{"#GG0000", "", "#", "#1234567890"} {
		c := v.hexColor(bad)
		for i := range c {
			if !isUnset(c[i]) {
				t.Fatalf("%q channel %d = %v, want unset", bad, i, c[i])
			}
		}
	}
}

func TestUnsetFieldsLeftAlone(t *testing.T) {
	f := newFixture()
	root := memhost.NewObject("root")
	tr := root.LocalTransform()
	tr.SetLocalEulerAngles(mgl32.Vec3{0, 90, 0})
	tr.SetLocalScale(mgl32.Vec3{2, 3, 4})
	rot, scale := tr.Rotation, tr.Scale

	apply(f.parse(t, `{"!Transform": {"LocalPosition": {"y": 5}}}`), root)

	if tr.Position != (mgl32.Vec3{0, 5, 0}) {
		t.Fatalf("position = %v", tr.Position)
	}
	if tr.Rotation != rot || tr.Scale != scale {
		t.Fatalf("rotation/scale changed: %v %v", tr.Rotation, tr.Scale)
	}
}

func TestColorChannels(t *testing.T) {
	f := newFixture()
	root := memhost.NewObject("root")
	r := root.AddSpriteRenderer(nil)
	r.SetColor(mgl32.Vec4{0.1, 0.2, 0.3, 0.4})

	apply(f.parse(t, `{"!SpriteRenderer": {"Color": {"r": 255, "b": 0.5}, "FlipX": true}}`), root)

	want := mgl32.Vec4{1, 0.2, 0.5, 0.4}
	if r.Color() != want {
		t.Fatalf("color = %v, want %v", r.Color(), want)
	}
	if !r.FlipX() || r.FlipY() {
		t.Fatalf("flip = %v %v", r.FlipX(), r.FlipY())
	}
}

func TestEulerShorthand(t *testing.T) {
	f := newFixture()
	root := memhost.NewObject("root")
	apply(f.parse(t, `{"!Transform": {"LocalEulerAngles": 90}}`), root)
	e := root.LocalTransform().LocalEulerAngles()
	if math.Abs(float64(e.Y())-90) > 1e-3 || math.Abs(float64(e.X())) > 1e-3 {
		t.Fatalf("euler = %v", e)
	}
}

func TestWildcardFanOut(t *testing.T) {
	f := newFixture()
	root := memhost.NewObject("root")
	group := root.AddChild("Group")
	leaf1, leaf2, other := group.AddChild("Leaf1"), group.AddChild("Leaf2"), group.AddChild("Other")

	apply(f.parse(t, `{"Group/Leaf*": {"!Active": false}}`), root)

	if leaf1.Active() || leaf2.Active() {
		t.Fatal("Leaf objects should be inactive")
	}
	if !other.Active() {
		t.Fatal("Other should be untouched")
	}
	if got := len(FindInChildren(root, `Group\Leaf?`)); got != 2 {
		t.Fatalf("backslash path matched %d", got)
	}
	if got := len(FindInChildren(root, "Group/Leaf.")); got != 0 {
		t.Fatalf("dot must be literal, matched %d", got)
	}
}

func TestDeferredChildrenSearchedAtApply(t *testing.T) {
	f := newFixture()
	doc := f.parse(t, `{"Stage": {"~Late": {"!Active": false, "Inner": {"!Active": false}}}}`)
	stage := doc.Init.Children[0]
	if len(stage.Deferred) != 1 || len(stage.Deferred[0].Deferred) != 1 {
		t.Fatalf("deferral did not propagate: %+v", stage.Deferred)
	}

	root := memhost.NewObject("root")
	st := root.AddChild("Stage")
	env := &Env{Scene: boxShow}
	r := Resolve(env, doc.Init, root)

	late := st.AddChild("Late")
	inner := late.AddChild("Inner")
	r.Apply(env)
	if late.Active() || inner.Active() {
		t.Fatal("objects created after resolution should be found on apply")
	}
}

func TestMissingComponentSkipped(t *testing.T) {
	f := newFixture()
	root := memhost.NewObject("root")
	apply(f.parse(t, `{"!Camera": {"Aspect": 2}, "!Transform": {"LocalScale": [2, 2]}, "!Bogus": {}}`), root)
	if got := root.LocalTransform().Scale; got != (mgl32.Vec3{2, 2, 1}) {
		t.Fatalf("scale = %v", got)
	}
}

func TestMaterialMutationClones(t *testing.T) {
	f := newFixture()
	f.gfx.AddShader("Sprites/Additive")
	shared := f.gfx.AddMaterial("Glow", "Sprites/Default")

	root := memhost.NewObject("root")
	r := root.AddSpriteRenderer(nil)
	r.SetMaterial(shared)
	img := root.AddImage(shared)

	apply(f.parse(t, `{
		"!SpriteRenderer": {"Material": {"Shader": "Sprites/Additive", "Floats": {"_Glow": 0.5}, "EnableKeywords": ["OUTLINE"]}},
		"!Image": {"Shader": "Sprites/Additive"}
	}`), root)

	got, ok := r.Material().(*memhost.Material)
	if !ok || got == shared || got.Source != shared {
		t.Fatalf("renderer material = %+v", r.Material())
	}
	if got.Floats["_Glow"] != 0.5 || !got.Keywords["OUTLINE"] || got.Shader().Name() != "Sprites/Additive" {
		t.Fatalf("clone = %+v", got)
	}
	if len(shared.Floats) != 0 {
		t.Fatal("shared material was modified")
	}
	if img.Material().Shader().Name() != "Sprites/Additive" {
		t.Fatalf("image material = %v", img.Material().Name())
	}
}

func TestMaterialLookupCachesMisses(t *testing.T) {
	f := newFixture()
	f.parse(t, `{"A": {"!Image": {"Material": "Nope"}}, "B": {"!Image": {"Material": "Nope"}}}`)
	if f.gfx.MaterialLookups != 1 {
		t.Fatalf("lookups = %d", f.gfx.MaterialLookups)
	}
}

func TestSimpleSchemaBeforeRelease2(t *testing.T) {
	f := newFixture()
	doc, err := f.parser.ParseDocument([]byte(`{"init": {"!Active": false}}`), boxShow, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Init.Children) != 1 || doc.Init.Children[0].Name != "init" {
		t.Fatalf("release 1 should treat init as a child: %+v", doc.Init)
	}

	doc = f.parse(t, `{"init": {"!Active": false}, "events": {"b": {}, "a": {}}}`)
	if doc.Init.Active == nil || *doc.Init.Active {
		t.Fatalf("init = %+v", doc.Init)
	}
	if len(doc.Order) != 2 || doc.Order[0] != "b" {
		t.Fatalf("order = %v", doc.Order)
	}
}

func TestNonObjectInitFallsBackToWholeDocument(t *testing.T) {
	f := newFixture()
	doc := f.parse(t, `{"init": 5, "Cube": {"!Active": false}}`)
	if doc.Init == nil || len(doc.Init.Children) != 1 || doc.Init.Children[0].Name != "Cube" {
		t.Fatalf("init = %+v", doc.Init)
	}
	if len(doc.Events) != 0 {
		t.Fatalf("events = %v", doc.Order)
	}

	doc = f.parse(t, `{"init": [], "events": {"hide": {"!Active": false}}}`)
	if doc.Init != nil {
		t.Fatalf("events object should keep the split schema, init = %+v", doc.Init)
	}
	if len(doc.Order) != 1 || doc.Order[0] != "hide" {
		t.Fatalf("order = %v", doc.Order)
	}
}

func TestParseErrors(t *testing.T) {
	f := newFixture()
	for _, src := range []string{`{`, `[1, 2]`, `"x"`} {
		if _, err := f.parser.ParseDocument([]byte(src), boxShow, 2); !errors.Is(err, ErrParse) {
			t.Fatalf("%s: err = %v", src, err)
		}
	}
}

type fakeSwapper struct {
	enabled *bool
	list    []variant.ID
	indexed map[int]variant.ID
}

func (s *fakeSwapper) SetEnabled(v bool)                       { s.enabled = &v }
func (s *fakeSwapper) SetVariants(ids []variant.ID)            { s.list = ids }
func (s *fakeSwapper) SetIndexedVariants(m map[int]variant.ID) { s.indexed = m }

func TestSwapperVariants(t *testing.T) {
	f := newFixture()
	night := f.variants.GetOrAdd(boxShow, "Night")
	doc := f.parse(t, `{
		"A": {"!CustomSpriteSwapper": {"Variants": ["Night", 0, "Missing"], "Enabled": true}},
		"B": {"!CustomSpriteSwapper": {"Variants": {"1": "Night", "x": 3}}}
	}`)

	root := memhost.NewObject("root")
	root.AddChild("A")
	root.AddChild("B")
	swappers := map[string]*fakeSwapper{}
	env := &Env{Scene: boxShow, Swappers: func(_ scene.Key, obj host.Object) (Swapper, bool) {
		s := &fakeSwapper{}
		swappers[obj.Name()] = s
		return s, true
	}}
	Resolve(env, doc.Init, root).Apply(env)

	a := swappers["A"]
	if a == nil || len(a.list) != 2 || a.list[0] != night || a.list[1] != variant.Base || a.enabled == nil || !*a.enabled {
		t.Fatalf("A = %+v", a)
	}
	b := swappers["B"]
	if b == nil || len(b.indexed) != 1 || b.indexed[1] != night {
		t.Fatalf("B = %+v", b)
	}
}

func TestJSONCComments(t *testing.T) {
	dir := t.TempDir()
	src := "{\n  // note\n  \"Cube\": {\"!Active\": false /* block */, },\n  \"Stage//Cube\": {},\n}"
	path := filepath.Join(dir, "BoxShow.jsonc")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	f := newFixture()
	f.engine.Release = 1
	if !f.engine.LoadFile(boxShow, path) {
		t.Fatal("jsonc scene mod not loaded")
	}
	doc, ok := f.engine.Document(boxShow)
	if !ok || doc.Init == nil || len(doc.Init.Children) != 2 {
		t.Fatalf("init = %+v", doc)
	}
	cube := doc.Init.Children[0]
	if cube.Name != "Cube" || cube.Active == nil || *cube.Active {
		t.Fatalf("cube = %+v", cube)
	}
	if doc.Init.Children[1].Name != "Stage//Cube" {
		t.Fatalf("comment marker inside a string was stripped: %q", doc.Init.Children[1].Name)
	}
}

func TestEngineLocateAndEvents(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("BoxShow.json", `{"init": {"Cube": {"!Active": false}}, "events": {"show": {"Cube": {"!Active": true}}}}`)
	write("boxshow.jsonc", `{"events": {"hide": {/* x */ "Cube": {"!Active": false}}}}`)
	write("Nowhere.json", `{}`)
	write("readme.txt", "x")

	f := newFixture()
	if n := f.engine.Locate(dir); n != 2 {
		t.Fatalf("loaded %d", n)
	}
	if keys := f.engine.EventKeys(boxShow); len(keys) != 1 {
		t.Fatalf("later duplicate should win, keys = %v", keys)
	}

	f.engine.LoadFile(boxShow, filepath.Join(dir, "BoxShow.json"))
	scenes := memhost.NewScenes()
	root := scenes.AddRoot(boxShow)
	cube := root.AddChild("Cube")
	if n := f.engine.InitScene(boxShow, root); n != 2 || cube.Active() {
		t.Fatalf("init touched %d, cube active %v", n, cube.Active())
	}

	s := schedule.NewSession(scenes.Sched, "scenemod")
	if err := f.engine.ScheduleEvent(s, 4, boxShow, "show", root); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.ScheduleEvent(s, 4, boxShow, "nope", root); err == nil {
		t.Fatal("unknown key should fail")
	}
	scenes.Sched.RunUntil(3)
	if cube.Active() {
		t.Fatal("event fired early")
	}
	scenes.Sched.RunUntil(4)
	if !cube.Active() {
		t.Fatal("event did not fire")
	}

	f.engine.Unload()
	if f.engine.HasScene(boxShow) || len(f.engine.Scenes()) != 0 {
		t.Fatal("unload kept documents")
	}
}
