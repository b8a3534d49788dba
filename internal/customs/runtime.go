package customs

import (
	"path/filepath"
	"sort"
	"strings"

	"customtex/internal/events"
	"customtex/internal/host"
	"customtex/internal/pathclass"
	"customtex/internal/scene"
	"customtex/internal/schedule"
	"customtex/internal/texture"
	"customtex/internal/variant"
)

// runtimeState is what pack and override events have changed since the
// mixtape was read. Empty pack paths mean the directories found on read.
type runtimeState struct {
	texturePack      string
	textureOverrides map[string]string
	scenePack        string
	sceneOverrides   map[string]string
	dirty            bool
}

func newRuntimeState() runtimeState {
	return runtimeState{
		textureOverrides: make(map[string]string),
		sceneOverrides:   make(map[string]string),
	}
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// resolve maps a mixtape-relative path into the read root. Paths that
// leave the root are refused.
func (m *Manager) resolve(p string) (string, bool) {
	local := filepath.FromSlash(strings.ReplaceAll(strings.TrimSpace(p), `\`, "/"))
	if m.root == "" || !filepath.IsLocal(local) {
		m.log.Warn("ignoring path outside the mixtape", "path", p)
		return "", false
	}
	return filepath.Join(m.root, local), true
}

func (m *Manager) loadTextures() int {
	dirs := m.dirs.Textures
	if m.rt.texturePack != "" {
		dir, ok := m.resolve(m.rt.texturePack)
		if !ok {
			return 0
		}
		dirs = []string{dir}
	}
	n := 0
	for _, dir := range dirs {
		n += m.textures.LoadDirectory(dir)
	}
	for _, target := range sortedKeys(m.rt.textureOverrides) {
		if m.loadTextureOverride(target, m.rt.textureOverrides[target]) {
			n++
		}
	}
	return n
}

// loadTextureOverride loads one file into the slot named by target,
// "<Scene>/<Sprite>".
func (m *Manager) loadTextureOverride(target, path string) bool {
	tok, sprite, ok := strings.Cut(strings.ReplaceAll(target, `\`, "/"), "/")
	sc := m.catalog.ToKeyOrInvalid(tok)
	if !ok || !sc.Valid() || sprite == "" {
		m.log.Warn("texture override target must be <Scene>/<Sprite>", "target", target)
		return false
	}
	slot := pathclass.ClassifyTexture(sprite)
	if slot.Kind == pathclass.SlotNone {
		m.log.Warn("texture override target names no sprite", "target", target)
		return false
	}
	full, ok := m.resolve(path)
	if !ok {
		return false
	}
	return m.textures.LoadOverride(sc, slot, full)
}

func (m *Manager) loadSceneMods() int {
	dirs := m.dirs.Scenes
	if m.rt.scenePack != "" {
		dir, ok := m.resolve(m.rt.scenePack)
		if !ok {
			return 0
		}
		dirs = []string{dir}
	}
	n := 0
	for _, dir := range dirs {
		n += m.scenes.Locate(dir)
	}
	for _, tok := range sortedKeys(m.rt.sceneOverrides) {
		sc := m.catalog.ToKeyOrInvalid(tok)
		if !sc.Valid() {
			m.log.Warn("scene mod override names an unknown scene", "scene", tok)
			continue
		}
		full, ok := m.resolve(m.rt.sceneOverrides[tok])
		if !ok {
			continue
		}
		if m.scenes.LoadFile(sc, full) {
			n++
		}
	}
	return n
}

// rebuild reloads the engines whose inputs changed and re-initialises
// every live scene with them.
func (m *Manager) rebuild(access host.SceneAccess, textures, sceneMods bool) {
	if textures {
		m.textures.Reload(m.loadTextures)
	}
	if sceneMods {
		m.scenes.Unload()
		m.loadSceneMods()
	}
	for _, sc := range access.RootKeys() {
		root, ok := access.RootObject(sc)
		if !ok {
			continue
		}
		if sceneMods {
			m.scenes.InitScene(sc, root)
		}
		if textures {
			m.textures.InitScene(sc, root)
		}
		m.textures.Reconcile(sc)
		m.textures.Refresh(sc)
	}
	m.UpdateEventTemplates()
}

// Prepare runs once the host has built every scene of the mixtape: it
// puts pack state back to what was read, hooks textures onto all roots and
// schedules this system's mixtape events.
func (m *Manager) Prepare(access host.SceneAccess) {
	m.session.Cancel()
	if m.rt.dirty {
		m.rt = newRuntimeState()
		m.rebuild(access, true, true)
	}
	m.textures.ResetStacks()
	m.textures.SetEnabled(scene.Invalid, true)
	for _, sc := range access.RootKeys() {
		if root, ok := access.RootObject(sc); ok {
			m.textures.InitScene(sc, root)
		}
	}

	m.session = schedule.NewSession(access.Scheduler(), "customtex")
	n := 0
	for _, ent := range access.Entities() {
		if !events.HasNamespace(ent.DataModel) {
			continue
		}
		ev, err := events.Decode(ent)
		if err != nil {
			m.log.Warn("skipping mixtape event", "event", ent.DataModel, "beat", ent.Beat, "err", err)
			continue
		}
		if m.schedule(access, ev) {
			n++
		}
	}
	if n > 0 {
		m.log.Info("scheduled mixtape events", "count", n)
	}
}

// Session is the scheduling session of the last Prepare.
func (m *Manager) Session() *schedule.Session { return m.session }

// sceneOrAll resolves an optional scene property; empty means all scenes.
func (m *Manager) sceneOrAll(raw string) (scene.Key, bool) {
	if raw == "" {
		return scene.Invalid, true
	}
	sc := m.catalog.ToKeyOrInvalid(raw)
	if !sc.Valid() {
		m.log.Error("scene is not a valid scene key", "scene", raw)
		return scene.Invalid, false
	}
	return sc, true
}

var variantOps = map[events.Kind]texture.Op{
	events.SetTextureVariant:    texture.OpSet,
	events.AddTextureVariant:    texture.OpAdd,
	events.RemoveTextureVariant: texture.OpRemove,
}

func (m *Manager) schedule(access host.SceneAccess, ev events.Event) bool {
	switch ev.Kind {
	case events.ToggleCustomTextures:
		sc, ok := m.sceneOrAll(ev.Scene)
		if !ok {
			return false
		}
		m.textures.ScheduleToggle(m.session, ev.Beat, texture.Toggle{Scene: sc, Enabled: ev.Enabled})
		return true

	case events.SetTextureVariant, events.AddTextureVariant, events.RemoveTextureVariant:
		sc, ok := m.sceneOrAll(ev.Scene)
		if !ok {
			return false
		}
		refs, skipped, err := m.variants.TryGetList(sc, ev.Variants)
		for _, serr := range skipped {
			m.log.Warn("skipping variant", "event", ev.String(), "err", serr)
		}
		if err != nil {
			m.log.Error("cannot resolve variants", "event", ev.String(), "err", err)
			return false
		}
		var order []scene.Key
		byScene := make(map[scene.Key][]variant.ID)
		for _, ref := range refs {
			if _, seen := byScene[ref.Scene]; !seen {
				order = append(order, ref.Scene)
			}
			byScene[ref.Scene] = append(byScene[ref.Scene], ref.ID)
		}
		if ev.Kind == events.SetTextureVariant && sc.Valid() && len(order) == 0 {
			order = append(order, sc)
		}
		for _, target := range order {
			m.textures.ScheduleVariantChange(m.session, ev.Beat, texture.VariantChange{
				Scene: target,
				Op:    variantOps[ev.Kind],
				IDs:   byScene[target],
			})
		}
		return len(order) > 0

	case events.ApplySceneMod:
		sc := m.catalog.ToKeyOrInvalid(ev.Scene)
		if !sc.Valid() {
			m.log.Error("scene is not a valid scene key", "scene", ev.Scene)
			return false
		}
		if !m.scenes.HasScene(sc) {
			m.log.Error("cannot apply scene mod to vanilla scene", "scene", sc)
			return false
		}
		root, ok := access.RootObject(sc)
		if !ok {
			m.log.Error("cannot apply scene mod to missing scene", "scene", sc)
			return false
		}
		if err := m.scenes.ScheduleEvent(m.session, ev.Beat, sc, ev.Key, root); err != nil {
			m.log.Error("cannot schedule scene mod", "event", ev.String(), "err", err)
			return false
		}
		return true
	}

	schedule.Scheduled[events.Event]{
		Beat:   ev.Beat,
		Label:  ev.Kind.String(),
		Target: ev,
		Action: func(ev events.Event) { m.HandleEvent(access, ev) },
	}.On(m.session)
	return true
}

// HandleEvent applies a pack or override event. When the event changes
// nothing it is logged and skipped; otherwise the affected engine is
// rebuilt. It reports whether anything changed.
func (m *Manager) HandleEvent(access host.SceneAccess, ev events.Event) bool {
	switch ev.Kind {
	case events.SetTexturePack, events.SetTextureOverride, events.SetSceneModPack, events.SetSceneModOverride:
		if _, ok := m.resolve(ev.Path); !ok {
			return false
		}
	}
	rt := &m.rt
	changed := false
	textures, sceneMods := false, false
	switch ev.Kind {
	case events.SetTexturePack:
		changed = rt.texturePack != ev.Path
		rt.texturePack = ev.Path
		textures = changed
	case events.SetTextureOverride:
		cur, ok := rt.textureOverrides[ev.QualifiedPath]
		changed = !ok || cur != ev.Path
		rt.textureOverrides[ev.QualifiedPath] = ev.Path
		textures = changed
	case events.ClearTextureOverride:
		_, changed = rt.textureOverrides[ev.QualifiedPath]
		delete(rt.textureOverrides, ev.QualifiedPath)
		textures = changed
	case events.SetSceneModPack:
		changed = rt.scenePack != ev.Path
		rt.scenePack = ev.Path
		sceneMods = changed
	case events.SetSceneModOverride, events.ClearSceneModOverride:
		sc := m.catalog.ToKeyOrInvalid(ev.Scene)
		if !sc.Valid() {
			m.log.Error("scene is not a valid scene key", "event", ev.String(), "scene", ev.Scene)
			return false
		}
		key := string(sc)
		cur, ok := rt.sceneOverrides[key]
		if ev.Kind == events.SetSceneModOverride {
			changed = !ok || cur != ev.Path
			rt.sceneOverrides[key] = ev.Path
		} else {
			changed = ok
			delete(rt.sceneOverrides, key)
		}
		sceneMods = changed
	default:
		m.log.Warn("unknown mixtape event", "event", ev.String())
		return false
	}

	if !changed {
		m.log.Info("skipping mixtape event, no state change", "event", ev.String())
		return false
	}
	rt.dirty = true
	m.log.Info("applying mixtape event", "event", ev.String())
	m.rebuild(access, textures, sceneMods)
	return true
}
