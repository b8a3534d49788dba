// Package texture indexes replacement images from packs, synthesises sprites
// that stand in for the host's originals and swaps them onto live renderers
// according to per-scene variant stacks.
package texture

import (
	"path/filepath"
	"sort"

	"customtex/internal/host"
	"customtex/internal/logging"
	"customtex/internal/pathclass"
	"customtex/internal/scene"
	"customtex/internal/variant"
)

type atlasSlot struct {
	scene scene.Key
	index int
}

type namedSlot struct {
	scene scene.Key
	name  string
}

type spriteKey struct {
	texture host.Texture
	name    string
}

type sceneState struct {
	stack      *Stack
	seen       map[host.Sprite]bool
	reported   bool
	swappers   []*Swapper
	byRenderer map[host.SpriteRenderer]*Swapper
}

// Engine owns the replacement textures and synthesised sprites of one
// mixtape session.
type Engine struct {
	log      *logging.Logger
	gfx      host.Graphics
	catalog  *scene.Catalog
	variants *variant.Registry
	Anchor   Anchor

	atlas  map[atlasSlot]map[variant.ID]host.Texture
	named  map[namedSlot]map[variant.ID]host.Texture
	counts map[scene.Key]int

	sources  *SourceCache
	overlays map[spriteKey]map[variant.ID]host.Sprite
	origin   map[host.Sprite]host.Sprite
	scenes   map[scene.Key]*sceneState
	disabled map[scene.Key]bool
	allOff   bool

	// local variant lists kept by Reload until the renderer is watched again
	carried map[host.SpriteRenderer][]variant.ID
}

func NewEngine(log *logging.Logger, gfx host.Graphics, catalog *scene.Catalog, variants *variant.Registry) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	e := &Engine{
		log:      log,
		gfx:      gfx,
		catalog:  catalog,
		variants: variants,
		sources:  NewSourceCache(catalog),
	}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.atlas = make(map[atlasSlot]map[variant.ID]host.Texture)
	e.named = make(map[namedSlot]map[variant.ID]host.Texture)
	e.counts = make(map[scene.Key]int)
	e.overlays = make(map[spriteKey]map[variant.ID]host.Sprite)
	e.origin = make(map[host.Sprite]host.Sprite)
	e.scenes = make(map[scene.Key]*sceneState)
	e.disabled = make(map[scene.Key]bool)
	e.allOff = false
	e.carried = nil
	e.sources.Reset()
}

// Locate indexes a texture directory, registering variant names.
func (e *Engine) Locate(texDir string) *Index {
	idx := BuildIndex(texDir, e.catalog, e.variants)
	for _, sk := range idx.Skipped {
		if sk.Hint != "" {
			e.log.Warn("skipping texture", "file", sk.Local, "reason", sk.Reason, "did_you_mean", sk.Hint)
			continue
		}
		e.log.Log(logging.FileLoading, "skipping texture", "file", sk.Local, "reason", sk.Reason)
	}
	return idx
}

// LoadIndex decodes every file of idx and returns how many were stored.
func (e *Engine) LoadIndex(idx *Index) int {
	n := 0
	for _, f := range idx.Files {
		if e.LoadFile(f) {
			n++
		}
	}
	return n
}

// LoadDirectory is Locate followed by LoadIndex.
func (e *Engine) LoadDirectory(texDir string) int {
	return e.LoadIndex(e.Locate(texDir))
}

// LoadFile decodes f and stores it. Failures are logged and reported as
// false.
func (e *Engine) LoadFile(f File) bool {
	img, err := Decode(f.Path)
	if err != nil {
		e.log.Error("failed to load texture", "file", f.Local, "err", err)
		return false
	}
	tex, err := e.gfx.NewTexture(filepath.ToSlash(f.Local), img)
	if err != nil {
		e.log.Error("failed to create texture", "file", f.Local, "err", err)
		return false
	}
	e.log.Log(logging.FileLoading, "loaded texture",
		"file", f.Local, "scene", f.Scene, "slot", f.Slot.String(), "variant", e.variants.Name(f.Scene, f.Variant))
	e.Store(f.Scene, f.Slot, f.Variant, tex)
	return true
}

// LoadOverride loads a single file into the base variant of a slot,
// replacing whatever was there.
func (e *Engine) LoadOverride(sc scene.Key, slot pathclass.Slot, path string) bool {
	return e.LoadFile(File{Path: path, Local: filepath.Base(path), Scene: sc, Variant: variant.Base, Slot: slot})
}

// Store records tex for a slot. A texture already stored for the same
// slot and variant is replaced and destroyed.
func (e *Engine) Store(sc scene.Key, slot pathclass.Slot, id variant.ID, tex host.Texture) {
	var table map[variant.ID]host.Texture
	switch slot.Kind {
	case pathclass.SlotAtlas:
		key := atlasSlot{sc, slot.Index}
		if table = e.atlas[key]; table == nil {
			table = make(map[variant.ID]host.Texture)
			e.atlas[key] = table
		}
	case pathclass.SlotNamed:
		key := namedSlot{sc, slot.Name}
		if table = e.named[key]; table == nil {
			table = make(map[variant.ID]host.Texture)
			e.named[key] = table
		}
	default:
		e.gfx.DestroyTexture(tex)
		return
	}

	if prev, ok := table[id]; ok {
		e.log.Warn("duplicate texture replaces earlier one",
			"scene", sc, "slot", slot.String(), "variant", e.variants.Name(sc, id), "previous", prev.Name(), "texture", tex.Name())
		e.dropSpritesOf(prev)
		e.gfx.DestroyTexture(prev)
	} else {
		e.counts[sc]++
	}
	table[id] = tex
}

// dropSpritesOf destroys sprites synthesised from tex and lets the next
// InitScene rebuild them.
func (e *Engine) dropSpritesOf(tex host.Texture) {
	for key, table := range e.overlays {
		for id, s := range table {
			if s.Texture() != tex {
				continue
			}
			e.gfx.DestroySprite(s)
			delete(e.origin, s)
			delete(table, id)
		}
		if len(table) == 0 {
			delete(e.overlays, key)
		}
	}
	for _, st := range e.scenes {
		st.seen = make(map[host.Sprite]bool)
	}
}

// HasScene reports whether any texture was loaded for sc.
func (e *Engine) HasScene(sc scene.Key) bool { return e.counts[sc] > 0 }

// Scenes lists scenes with loaded textures, sorted.
func (e *Engine) Scenes() []scene.Key {
	out := make([]scene.Key, 0, len(e.counts))
	for sc, n := range e.counts {
		if n > 0 {
			out = append(out, sc)
		}
	}
	scene.SortKeys(out)
	return out
}

// TextureCount is the number of stored textures for sc.
func (e *Engine) TextureCount(sc scene.Key) int { return e.counts[sc] }

func (e *Engine) state(sc scene.Key) *sceneState {
	st, ok := e.scenes[sc]
	if !ok {
		st = &sceneState{
			stack:      NewStack(),
			seen:       make(map[host.Sprite]bool),
			byRenderer: make(map[host.SpriteRenderer]*Swapper),
		}
		e.scenes[sc] = st
	}
	return st
}

// Stack returns the variant stack of sc.
func (e *Engine) Stack(sc scene.Key) *Stack { return e.state(sc).stack }

// ResetStacks puts every scene back on the base variant.
func (e *Engine) ResetStacks() {
	for _, st := range e.scenes {
		st.stack.Reset()
	}
}

// InitScene synthesises sprites for sc and starts watching every sprite
// renderer under root. Repeated calls only pick up new sprites and
// renderers. It returns the number of renderers newly watched.
func (e *Engine) InitScene(sc scene.Key, root host.Object) int {
	if !e.HasScene(sc) || root == nil {
		return 0
	}
	e.synthesize(sc)
	return e.watchTree(sc, root)
}

func (e *Engine) synthesize(sc scene.Key) {
	st := e.state(sc)
	matched := make(map[namedSlot]bool)
	var loose []host.Sprite

	for _, s := range e.gfx.AllSprites() {
		if s == nil || st.seen[s] {
			continue
		}
		if _, mine := e.origin[s]; mine {
			continue
		}
		if !s.Packed() {
			loose = append(loose, s)
			continue
		}
		st.seen[s] = true
		ref, ok := e.sources.Resolve(s.Texture())
		if !ok || ref.Scene != sc {
			continue
		}
		if table, ok := e.atlas[atlasSlot{sc, ref.Index}]; ok {
			for id, tex := range table {
				e.makeSprite(s, id, tex, true)
			}
		}
		slot := namedSlot{sc, s.Name()}
		if table, ok := e.named[slot]; ok {
			matched[slot] = true
			for id, tex := range table {
				e.makeSprite(s, id, tex, false)
			}
		}
	}

	// Loose sprites carry no atlas metadata; pair them by texture name.
	for _, s := range loose {
		if s.Texture() == nil {
			continue
		}
		slot := namedSlot{sc, s.Texture().Name()}
		table, ok := e.named[slot]
		if !ok {
			continue
		}
		matched[slot] = true
		st.seen[s] = true
		for id, tex := range table {
			e.makeSprite(s, id, tex, false)
		}
	}

	if st.reported {
		return
	}
	st.reported = true
	var orphans []string
	for slot := range e.named {
		if slot.scene == sc && !matched[slot] {
			orphans = append(orphans, slot.name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		e.log.Warn("texture matched no sprite", "scene", sc, "name", name)
	}
}

// makeSprite creates the stand-in of orig for one variant unless it already
// exists. A named stand-in replaces an atlas one for the same variant.
func (e *Engine) makeSprite(orig host.Sprite, id variant.ID, tex host.Texture, atlas bool) {
	key := spriteKey{orig.Texture(), orig.Name()}
	table := e.overlays[key]
	if table == nil {
		table = make(map[variant.ID]host.Sprite)
		e.overlays[key] = table
	}
	if prev, ok := table[id]; ok {
		if prev.Texture() == tex || atlas {
			return
		}
	}

	var (
		spec host.SpriteSpec
		err  error
		cat  = logging.AtlasTextureSprites
	)
	if atlas {
		spec = AtlasSpec(orig, tex)
	} else {
		cat = logging.SeparateTextureSprites
		spec, err = NamedSpec(orig, tex, e.Anchor)
		if err != nil {
			e.log.Warn("cannot build sprite", "sprite", orig.Name(), "err", err)
			return
		}
	}
	s, err := e.gfx.NewSprite(spec)
	if err != nil {
		e.log.Error("failed to create sprite", "sprite", orig.Name(), "err", err)
		return
	}
	if prev, ok := table[id]; ok {
		e.gfx.DestroySprite(prev)
		delete(e.origin, prev)
	}
	table[id] = s
	e.origin[s] = orig
	e.log.Log(cat, "created sprite", "sprite", orig.Name(), "texture", tex.Name(), "variant", int(id))
}

// Replace resolves orig through local, then through the scene stack, top
// first. It returns orig when nothing overrides it.
func (e *Engine) Replace(sc scene.Key, orig host.Sprite, local []variant.ID) host.Sprite {
	if orig == nil {
		return nil
	}
	if v, ok := e.origin[orig]; ok {
		orig = v
	}
	if !e.Enabled(sc) {
		return orig
	}
	table := e.overlays[spriteKey{orig.Texture(), orig.Name()}]
	if len(table) == 0 {
		return orig
	}
	for i := len(local) - 1; i >= 0; i-- {
		if s, ok := table[local[i]]; ok {
			return s
		}
	}
	if st, ok := e.scenes[sc]; ok {
		ids := st.stack.ids
		for i := len(ids) - 1; i >= 0; i-- {
			if s, ok := table[ids[i]]; ok {
				return s
			}
		}
	}
	return orig
}

// Enabled reports whether overlays are active for sc.
func (e *Engine) Enabled(sc scene.Key) bool {
	return !e.allOff && !e.disabled[sc]
}

// SetEnabled toggles overlays for sc, or for every scene when sc is
// Invalid, and refreshes the affected renderers.
func (e *Engine) SetEnabled(sc scene.Key, on bool) {
	if !sc.Valid() {
		e.allOff = !on
		if on {
			e.disabled = make(map[scene.Key]bool)
		}
		for k := range e.scenes {
			e.Refresh(k)
		}
		return
	}
	if on {
		delete(e.disabled, sc)
	} else {
		e.disabled[sc] = true
	}
	e.Refresh(sc)
}

func (e *Engine) watchTree(sc scene.Key, root host.Object) int {
	st := e.state(sc)
	n := 0
	var walk func(o host.Object)
	walk = func(o host.Object) {
		if o == nil || !o.Alive() {
			return
		}
		if r, ok := o.SpriteRenderer(); ok {
			if _, watched := st.byRenderer[r]; !watched {
				e.watch(st, sc, o, r)
				n++
			}
		}
		for _, c := range o.Children() {
			walk(c)
		}
	}
	walk(root)
	return n
}

// SwapperFor returns the watcher of obj's renderer, creating one when obj
// has a renderer that is not watched yet.
func (e *Engine) SwapperFor(sc scene.Key, obj host.Object) (*Swapper, bool) {
	r, ok := obj.SpriteRenderer()
	if !ok {
		return nil, false
	}
	st := e.state(sc)
	if sw, ok := st.byRenderer[r]; ok {
		return sw, true
	}
	return e.watch(st, sc, obj, r), true
}

func (e *Engine) watch(st *sceneState, sc scene.Key, obj host.Object, r host.SpriteRenderer) *Swapper {
	sw := &Swapper{engine: e, scene: sc, object: obj, renderer: r, enabled: true}
	if local, ok := e.carried[r]; ok {
		sw.local = local
		delete(e.carried, r)
	}
	st.byRenderer[r] = sw
	st.swappers = append(st.swappers, sw)
	sw.Reconcile()
	return sw
}

// Swappers returns the live watchers of sc.
func (e *Engine) Swappers(sc scene.Key) []*Swapper {
	st, ok := e.scenes[sc]
	if !ok {
		return nil
	}
	return append([]*Swapper(nil), st.swappers...)
}

// Reconcile polls every watcher of sc, dropping those whose object is gone.
// It returns how many sprites were rewritten.
func (e *Engine) Reconcile(sc scene.Key) int {
	st, ok := e.scenes[sc]
	if !ok {
		return 0
	}
	n := 0
	kept := st.swappers[:0]
	for _, sw := range st.swappers {
		if !sw.object.Alive() {
			delete(st.byRenderer, sw.renderer)
			continue
		}
		kept = append(kept, sw)
		if sw.Reconcile() {
			n++
		}
	}
	st.swappers = kept
	return n
}

// ReconcileAll polls every scene.
func (e *Engine) ReconcileAll() int {
	n := 0
	for sc := range e.scenes {
		n += e.Reconcile(sc)
	}
	return n
}

// Refresh re-resolves every watcher of sc against the current stacks.
func (e *Engine) Refresh(sc scene.Key) int {
	st, ok := e.scenes[sc]
	if !ok {
		return 0
	}
	n := 0
	for _, sw := range st.swappers {
		if sw.object.Alive() && sw.refresh() {
			n++
		}
	}
	return n
}

// ForgetScene drops the watchers of an unloaded scene.
func (e *Engine) ForgetScene(sc scene.Key) {
	st, ok := e.scenes[sc]
	if !ok {
		return
	}
	st.swappers = nil
	st.byRenderer = make(map[host.SpriteRenderer]*Swapper)
}

// Unload restores vanilla sprites on live renderers and frees every
// synthesised sprite and loaded texture exactly once.
func (e *Engine) Unload() {
	restored := 0
	for _, st := range e.scenes {
		for _, sw := range st.swappers {
			if sw.object.Alive() {
				sw.Disable()
				restored++
			}
		}
	}

	sprites := 0
	for s := range e.origin {
		e.gfx.DestroySprite(s)
		sprites++
	}

	textures := 0
	freed := make(map[host.Texture]bool)
	free := func(tex host.Texture) {
		if !freed[tex] {
			freed[tex] = true
			e.gfx.DestroyTexture(tex)
			textures++
		}
	}
	for _, table := range e.atlas {
		for _, tex := range table {
			free(tex)
		}
	}
	for _, table := range e.named {
		for _, tex := range table {
			free(tex)
		}
	}

	e.log.Log(logging.Unloading, "unloaded custom textures",
		"textures", textures, "sprites", sprites, "renderers_restored", restored)
	e.reset()
}

// SlotInfo summarises one stored slot for inspection.
type SlotInfo struct {
	Slot     pathclass.Slot
	Variants []variant.ID
	Width    int
	Height   int
}

// Slots lists the slots of sc, atlas slots first.
func (e *Engine) Slots(sc scene.Key) []SlotInfo {
	var out []SlotInfo
	add := func(slot pathclass.Slot, table map[variant.ID]host.Texture) {
		info := SlotInfo{Slot: slot}
		for id, tex := range table {
			info.Variants = append(info.Variants, id)
			if id == variant.Base || info.Width == 0 {
				info.Width, info.Height = tex.Width(), tex.Height()
			}
		}
		sort.Slice(info.Variants, func(i, j int) bool { return info.Variants[i] < info.Variants[j] })
		out = append(out, info)
	}
	for key, table := range e.atlas {
		if key.scene == sc {
			add(pathclass.Slot{Kind: pathclass.SlotAtlas, Index: key.index}, table)
		}
	}
	for key, table := range e.named {
		if key.scene == sc {
			add(pathclass.Slot{Kind: pathclass.SlotNamed, Name: key.name}, table)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Slot, out[j].Slot
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Kind == pathclass.SlotAtlas {
			return a.Index < b.Index
		}
		return a.Name < b.Name
	})
	return out
}

// Reload unloads every texture and runs load to read them again. Local
// variant lists of live watchers are handed to the watchers created for
// the same renderers afterwards.
func (e *Engine) Reload(load func() int) int {
	carried := make(map[host.SpriteRenderer][]variant.ID)
	for _, st := range e.scenes {
		for _, sw := range st.swappers {
			if len(sw.local) > 0 && sw.object.Alive() {
				carried[sw.renderer] = sw.Variants()
			}
		}
	}
	e.Unload()
	e.carried = carried
	return load()
}
