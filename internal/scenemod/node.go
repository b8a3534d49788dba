package scenemod

import (
	"regexp"
	"strings"

	"customtex/internal/host"
	"customtex/internal/logging"
	"customtex/internal/scene"
)

// Env is what applying a node needs from the session.
type Env struct {
	Log   *logging.Logger
	Scene scene.Key
	// Swappers finds or creates the sprite watcher of obj.
	Swappers func(sc scene.Key, obj host.Object) (Swapper, bool)
}

func (env *Env) log() *logging.Logger {
	if env == nil || env.Log == nil {
		return logging.Discard()
	}
	return env.Log
}

// Node is the parsed, read-only mutation tree for one target path.
// Children are resolved when their parent is; Deferred children are
// searched for each time the parent is applied.
type Node struct {
	Name      string
	Active    *bool
	Mutations []Mutation
	Children  []*Node
	Deferred  []*Node

	pattern []*regexp.Regexp
}

func newNode(name string) *Node {
	return &Node{Name: name, pattern: compilePath(name)}
}

// Apply sets the active flag, runs every mutation on obj and then applies
// deferred children found under obj at this moment.
func (n *Node) Apply(env *Env, obj host.Object) {
	if n.Active != nil {
		obj.SetActive(*n.Active)
	}
	for _, m := range n.Mutations {
		if !m.apply(env, obj) {
			env.log().Warn("scene mod target lacks component",
				"scene", env.Scene, "object", obj.Name(), "component", m.Component())
		}
	}
	for _, child := range n.Deferred {
		matches := findIn(obj, child.pattern)
		if len(matches) == 0 {
			env.log().Warn("scene mod found no objects", "scene", env.Scene, "parent", obj.Name(), "path", child.Name)
			continue
		}
		for _, m := range matches {
			child.Apply(env, m)
		}
	}
}

// Empty reports whether the node changes nothing.
func (n *Node) Empty() bool {
	return n.Active == nil && len(n.Mutations) == 0 && len(n.Children) == 0 && len(n.Deferred) == 0
}

// Resolved pairs a node with one live object it matched, plus the
// resolved immediate children.
type Resolved struct {
	Node     *Node
	Object   host.Object
	Children []*Resolved
}

// Resolve matches n's immediate children against obj's hierarchy,
// recursively. Paths that match nothing are logged and dropped.
func Resolve(env *Env, n *Node, obj host.Object) *Resolved {
	r := &Resolved{Node: n, Object: obj}
	for _, child := range n.Children {
		matches := findIn(obj, child.pattern)
		if len(matches) == 0 {
			env.log().Warn("scene mod found no objects", "scene", env.Scene, "parent", obj.Name(), "path", child.Name)
			continue
		}
		for _, m := range matches {
			r.Children = append(r.Children, Resolve(env, child, m))
		}
	}
	return r
}

// Apply applies the node to its object, then its resolved children.
// Objects destroyed since resolution are skipped.
func (r *Resolved) Apply(env *Env) {
	if !r.Object.Alive() {
		env.log().Warn("scene mod target was destroyed", "scene", env.Scene, "path", r.Node.Name)
		return
	}
	r.Node.Apply(env, r.Object)
	for _, c := range r.Children {
		c.Apply(env)
	}
}

// Count returns how many objects the resolved tree touches.
func (r *Resolved) Count() int {
	n := 1
	for _, c := range r.Children {
		n += c.Count()
	}
	return n
}

// FindInChildren returns every descendant of obj matching path. Segments
// are split on '/' or '\' and may use '?' and '*' wildcards; each segment
// fans out over every matching child.
func FindInChildren(obj host.Object, path string) []host.Object {
	return findIn(obj, compilePath(path))
}

func findIn(obj host.Object, pattern []*regexp.Regexp) []host.Object {
	cur := []host.Object{obj}
	for _, re := range pattern {
		var next []host.Object
		for _, o := range cur {
			for _, c := range o.Children() {
				if c.Alive() && re.MatchString(c.Name()) {
					next = append(next, c)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		cur = next
	}
	return cur
}

func compilePath(path string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		out = append(out, compileGlob(seg))
	}
	return out
}

func compileGlob(seg string) *regexp.Regexp {
	expr := regexp.QuoteMeta(seg)
	expr = strings.ReplaceAll(expr, `\?`, ".")
	expr = strings.ReplaceAll(expr, `\*`, ".*")
	return regexp.MustCompile("^" + expr + "$")
}
