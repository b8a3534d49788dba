// Package scenemod parses scene mod documents into mutation trees and
// applies them to live scene objects at scene initialisation or on
// scheduled beats.
package scenemod

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"customtex/internal/host"
	"customtex/internal/logging"
	"customtex/internal/pathclass"
	"customtex/internal/scene"
	"customtex/internal/schedule"
	"customtex/internal/variant"
)

type eventKey struct {
	scene scene.Key
	key   string
}

// Engine holds the scene mod documents of one mixtape session.
type Engine struct {
	log     *logging.Logger
	catalog *scene.Catalog
	parser  *Parser

	// Release selects the document schema; see ParseDocument.
	Release uint32
	// Swappers is handed to every apply through Env.
	Swappers func(sc scene.Key, obj host.Object) (Swapper, bool)

	docs     map[scene.Key]*Document
	files    map[scene.Key]string
	resolved map[eventKey]*Resolved
}

func NewEngine(log *logging.Logger, gfx host.Graphics, catalog *scene.Catalog, variants *variant.Registry) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{
		log:      log,
		catalog:  catalog,
		parser:   NewParser(log, gfx, variants),
		Release:  2,
		docs:     make(map[scene.Key]*Document),
		files:    make(map[scene.Key]string),
		resolved: make(map[eventKey]*Resolved),
	}
}

func (e *Engine) env(sc scene.Key) *Env {
	return &Env{Log: e.log, Scene: sc, Swappers: e.Swappers}
}

// Locate loads every scene mod file directly inside dir and returns how
// many were stored.
func (e *Engine) Locate(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		e.log.Error("failed to read scene mod directory", "dir", dir, "err", err)
		return 0
	}
	n := 0
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		stem, ok := pathclass.MatchSceneFile(ent.Name())
		if !ok {
			continue
		}
		sc := e.catalog.ToKeyOrInvalid(stem)
		if !sc.Valid() {
			if hint, ok := e.catalog.Suggest(stem); ok {
				e.log.Warn("skipping scene mod for unknown scene", "file", ent.Name(), "did_you_mean", hint)
			} else {
				e.log.Log(logging.FileLoading, "skipping scene mod for unknown scene", "file", ent.Name())
			}
			continue
		}
		if e.LoadFile(sc, filepath.Join(dir, ent.Name())) {
			n++
		}
	}
	return n
}

// LoadFile parses the document at path for sc. A document already loaded
// for sc is replaced.
func (e *Engine) LoadFile(sc scene.Key, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Error("failed to read scene mod", "file", path, "err", err)
		return false
	}
	if pathclass.IsJSONC(path) {
		data = jsonc.ToJSON(data)
	}
	doc, err := e.parser.ParseDocument(data, sc, e.Release)
	if err != nil {
		e.log.Error("failed to parse scene mod", "file", path, "err", err)
		return false
	}
	if prev, dup := e.files[sc]; dup {
		e.log.Warn("duplicate scene mod, keeping the later file", "scene", sc, "previous", prev, "file", path)
		e.dropResolved(sc)
	}
	e.docs[sc] = doc
	e.files[sc] = path
	e.log.Log(logging.FileLoading, "loaded scene mod", "scene", sc, "file", path, "events", len(doc.Order))
	return true
}

// Store installs an already parsed document.
func (e *Engine) Store(doc *Document) {
	e.dropResolved(doc.Scene)
	e.docs[doc.Scene] = doc
}

func (e *Engine) Document(sc scene.Key) (*Document, bool) {
	doc, ok := e.docs[sc]
	return doc, ok
}

func (e *Engine) HasScene(sc scene.Key) bool {
	_, ok := e.docs[sc]
	return ok
}

// Scenes lists scenes with a document in catalog order.
func (e *Engine) Scenes() []scene.Key {
	out := make([]scene.Key, 0, len(e.docs))
	for sc := range e.docs {
		out = append(out, sc)
	}
	scene.SortKeys(out)
	return out
}

// EventKeys lists the named events of sc in file order.
func (e *Engine) EventKeys(sc scene.Key) []string {
	doc, ok := e.docs[sc]
	if !ok {
		return nil
	}
	return append([]string(nil), doc.Order...)
}

// InitScene applies the init tree of sc to root and returns how many
// objects it touched.
func (e *Engine) InitScene(sc scene.Key, root host.Object) int {
	doc, ok := e.docs[sc]
	if !ok || doc.Init == nil || root == nil {
		return 0
	}
	e.log.Info("applying scene mod", "scene", sc)
	env := e.env(sc)
	r := Resolve(env, doc.Init, root)
	r.Apply(env)
	return r.Count()
}

// Prepare resolves the event key of sc against root. The result is kept
// until the scene is forgotten or the engine unloaded.
func (e *Engine) Prepare(sc scene.Key, key string, root host.Object) (*Resolved, error) {
	ek := eventKey{sc, key}
	if r, ok := e.resolved[ek]; ok && r.Object.Alive() {
		return r, nil
	}
	doc, ok := e.docs[sc]
	if !ok {
		return nil, fmt.Errorf("scenemod: no scene mod for %s", sc)
	}
	node := doc.Init
	if key != "" && key != InitKey {
		node = doc.Events[key]
	}
	if node == nil {
		return nil, fmt.Errorf("scenemod: %s has no scene mod named %q", sc, key)
	}
	if root == nil {
		return nil, fmt.Errorf("scenemod: scene %s is not loaded", sc)
	}
	r := Resolve(e.env(sc), node, root)
	e.resolved[ek] = r
	return r, nil
}

// ApplyEvent is a scheduled scene mod application.
type ApplyEvent struct {
	Scene    scene.Key
	Key      string
	Resolved *Resolved
}

// Apply runs a prepared event.
func (e *Engine) Apply(ev ApplyEvent) {
	e.log.Debug("applying scene mod event", "scene", ev.Scene, "key", ev.Key)
	ev.Resolved.Apply(e.env(ev.Scene))
}

// ScheduleEvent resolves the event now and applies it at beat.
func (e *Engine) ScheduleEvent(s *schedule.Session, beat float64, sc scene.Key, key string, root host.Object) error {
	r, err := e.Prepare(sc, key, root)
	if err != nil {
		return err
	}
	schedule.Scheduled[ApplyEvent]{
		Beat:   beat,
		Label:  "apply scene mod",
		Target: ApplyEvent{Scene: sc, Key: key, Resolved: r},
		Action: e.Apply,
	}.On(s)
	return nil
}

func (e *Engine) dropResolved(sc scene.Key) {
	for k := range e.resolved {
		if k.scene == sc {
			delete(e.resolved, k)
		}
	}
}

// ForgetScene drops resolutions held for sc, which is being unloaded.
func (e *Engine) ForgetScene(sc scene.Key) { e.dropResolved(sc) }

// Remove deletes the document of sc.
func (e *Engine) Remove(sc scene.Key) bool {
	if _, ok := e.docs[sc]; !ok {
		return false
	}
	e.dropResolved(sc)
	delete(e.docs, sc)
	delete(e.files, sc)
	return true
}

// Unload drops every document and cached lookup.
func (e *Engine) Unload() {
	if len(e.docs) > 0 {
		e.log.Log(logging.Unloading, "unloading scene mods", "count", len(e.docs))
	}
	clear(e.docs)
	clear(e.files)
	clear(e.resolved)
	e.parser.Reset()
}

// SortedEventKeys returns every "scene key" pair for display.
func (e *Engine) SortedEventKeys() []string {
	var out []string
	for _, sc := range e.Scenes() {
		for _, k := range e.docs[sc].Order {
			out = append(out, scene.FromKeyOrInvalid(sc)+" "+k)
		}
	}
	sort.Strings(out)
	return out
}
