// Package variant assigns small integer ids to user-defined variant names,
// scoped per scene.
package variant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"customtex/internal/scene"
)

// ID is a per-scene variant index. Zero is the base art.
type ID int

// Base is the implicit variant every stack starts with.
const Base ID = 0

var (
	ErrInvalidSyntax  = errors.New("invalid variant syntax")
	ErrUnknownScene   = errors.New("unknown scene")
	ErrUnknownVariant = errors.New("unknown variant")
)

// LookupError carries the token that failed to resolve.
type LookupError struct {
	Scene scene.Key
	Token string
	Err   error
}

func (e *LookupError) Error() string {
	if e.Scene.Valid() {
		return fmt.Sprintf("variant: %q in %s: %v", e.Token, e.Scene, e.Err)
	}
	return fmt.Sprintf("variant: %q: %v", e.Token, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Policy decides what happens to a variant that is referenced by a scene
// mod but never registered by any texture.
type Policy int

const (
	// PolicyError drops the reference and reports ErrUnknownVariant.
	PolicyError Policy = iota
	// PolicyLowPriority registers the name so it resolves to an inert id.
	PolicyLowPriority
)

// ParsePolicy accepts "error" or "lowpriority".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return PolicyError, nil
	case "lowpriority", "low_priority", "low-priority":
		return PolicyLowPriority, nil
	}
	return PolicyError, fmt.Errorf("variant: unknown policy %q", s)
}

func (p Policy) String() string {
	if p == PolicyLowPriority {
		return "lowpriority"
	}
	return "error"
}

// Ref is a resolved variant together with the scene it belongs to.
type Ref struct {
	Scene scene.Key
	ID    ID
}

// An optional scene token, then the variant token, separated by anything
// that is not a word character or quote (usually a space or slash).
var tokenRe = regexp.MustCompile(`^\s*"?\s*(?:(\w+)[^\w"]+)?(\w+)\s*"?\s*$`)

// Registry maps variant names to ids per scene. One registry is shared by
// the texture and scene-mod engines of a session.
type Registry struct {
	catalog *scene.Catalog
	ids     map[scene.Key]map[string]ID
	names   map[scene.Key][]string
	order   []scene.Key
	Policy  Policy
}

// NewRegistry returns an empty registry resolving scene tokens via catalog.
func NewRegistry(catalog *scene.Catalog) *Registry {
	r := &Registry{catalog: catalog}
	r.Reset()
	return r
}

// Reset forgets every registered name.
func (r *Registry) Reset() {
	r.ids = make(map[scene.Key]map[string]ID)
	r.names = make(map[scene.Key][]string)
	r.order = nil
}

// GetOrAdd returns the id for name in sc, assigning count+1 on first sight.
// An empty name is the base variant.
func (r *Registry) GetOrAdd(sc scene.Key, name string) ID {
	if name == "" {
		return Base
	}
	m, ok := r.ids[sc]
	if !ok {
		m = make(map[string]ID)
		r.ids[sc] = m
		r.order = append(r.order, sc)
	}
	if id, ok := m[name]; ok {
		return id
	}
	id := ID(len(m) + 1)
	m[name] = id
	r.names[sc] = append(r.names[sc], name)
	return id
}

// Lookup returns the id of an exact name without parsing or registering.
func (r *Registry) Lookup(sc scene.Key, name string) (ID, bool) {
	id, ok := r.ids[sc][name]
	return id, ok
}

// Name reverses an id. Base and unknown ids give "".
func (r *Registry) Name(sc scene.Key, id ID) string {
	names := r.names[sc]
	if id <= 0 || int(id) > len(names) {
		return ""
	}
	return names[id-1]
}

// Names lists the names of sc in id order.
func (r *Registry) Names(sc scene.Key) []string {
	out := make([]string, len(r.names[sc]))
	copy(out, r.names[sc])
	return out
}

// Scenes lists scenes with at least one registered variant, in
// registration order.
func (r *Registry) Scenes() []scene.Key {
	out := make([]scene.Key, len(r.order))
	copy(out, r.order)
	return out
}

// parse splits raw into an optional scene override and the variant token.
func (r *Registry) parse(sc scene.Key, raw string) (scene.Key, string, error) {
	m := tokenRe.FindStringSubmatch(raw)
	if m == nil {
		return sc, "", &LookupError{Scene: sc, Token: raw, Err: ErrInvalidSyntax}
	}
	if m[1] != "" {
		qualified := r.catalog.ToKeyOrInvalid(m[1])
		if !qualified.Valid() {
			return sc, m[2], &LookupError{Token: m[1], Err: ErrUnknownScene}
		}
		sc = qualified
	}
	return sc, m[2], nil
}

// TryGet resolves raw ("[scene ]name") against sc.
func (r *Registry) TryGet(sc scene.Key, raw string) (Ref, error) {
	sc, name, err := r.parse(sc, raw)
	if err != nil {
		return Ref{}, err
	}
	id, ok := r.ids[sc][name]
	if !ok {
		return Ref{}, &LookupError{Scene: sc, Token: name, Err: ErrUnknownVariant}
	}
	return Ref{Scene: sc, ID: id}, nil
}

// TryGetAll resolves raw in every scene that registered the name. A scene
// qualifier in raw narrows the search to that scene.
func (r *Registry) TryGetAll(raw string) ([]Ref, error) {
	m := tokenRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, &LookupError{Token: raw, Err: ErrInvalidSyntax}
	}
	if m[1] != "" {
		ref, err := r.TryGet(scene.Invalid, raw)
		if err != nil {
			return nil, err
		}
		return []Ref{ref}, nil
	}
	var out []Ref
	for _, sc := range r.order {
		if id, ok := r.ids[sc][m[2]]; ok {
			out = append(out, Ref{Scene: sc, ID: id})
		}
	}
	if len(out) == 0 {
		return nil, &LookupError{Token: m[2], Err: ErrUnknownVariant}
	}
	return out, nil
}

// TryGetList resolves a comma separated list. With a single token any
// failure is returned as the error. With several tokens, failing tokens
// are reported in skipped and the rest are kept; a token repeated within
// the list is kept once.
// An invalid sc resolves each token across all scenes.
func (r *Registry) TryGetList(sc scene.Key, raw string) (refs []Ref, skipped []error, err error) {
	tokens := strings.Split(raw, ",")
	seen := make(map[Ref]bool)
	for _, tok := range tokens {
		var got []Ref
		var terr error
		if sc.Valid() {
			var ref Ref
			ref, terr = r.TryGet(sc, tok)
			got = []Ref{ref}
		} else {
			got, terr = r.TryGetAll(tok)
		}
		if terr != nil {
			if len(tokens) == 1 {
				return nil, nil, terr
			}
			skipped = append(skipped, terr)
			continue
		}
		for _, ref := range got {
			if seen[ref] {
				skipped = append(skipped, &LookupError{Scene: ref.Scene, Token: strings.TrimSpace(tok), Err: ErrDuplicate})
				continue
			}
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs, skipped, nil
}

// ErrDuplicate marks a token repeated within one list.
var ErrDuplicate = errors.New("duplicate variant")

// ResolveReference resolves a variant named by a scene mod, applying
// the registry policy when the name was never registered.
func (r *Registry) ResolveReference(sc scene.Key, raw string) (Ref, error) {
	ref, err := r.TryGet(sc, raw)
	if err == nil || r.Policy != PolicyLowPriority || !errors.Is(err, ErrUnknownVariant) {
		return ref, err
	}
	qsc, name, perr := r.parse(sc, raw)
	if perr != nil {
		return Ref{}, perr
	}
	return Ref{Scene: qsc, ID: r.GetOrAdd(qsc, name)}, nil
}
