// Package events defines the mixtape events this system answers to, the
// editor templates that author them and the registry that places those
// templates in the host's editor.
package events

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"customtex/internal/host"
)

// Namespace prefixes every data model owned by this system.
const Namespace = "customtex/"

// Kind is one event type.
type Kind int

const (
	Unknown Kind = iota
	ToggleCustomTextures
	SetTextureVariant
	AddTextureVariant
	RemoveTextureVariant
	ApplySceneMod
	SetTexturePack
	SetTextureOverride
	ClearTextureOverride
	SetSceneModPack
	SetSceneModOverride
	ClearSceneModOverride
)

var kindNames = [...]string{
	Unknown:               "",
	ToggleCustomTextures:  "toggle custom textures",
	SetTextureVariant:     "set texture variant",
	AddTextureVariant:     "add texture variant",
	RemoveTextureVariant:  "remove texture variant",
	ApplySceneMod:         "apply scene mod",
	SetTexturePack:        "set texture pack",
	SetTextureOverride:    "set texture override",
	ClearTextureOverride:  "clear texture override",
	SetSceneModPack:       "set scene mod pack",
	SetSceneModOverride:   "set scene mod override",
	ClearSceneModOverride: "clear scene mod override",
}

// Kinds lists every known kind in template order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames)-1)
	for k := ToggleCustomTextures; int(k) < len(kindNames); k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if k <= Unknown || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// DataModel is the namespaced name stored in mixtape entities.
func (k Kind) DataModel() string { return Namespace + k.String() }

// DisplayName is the title-cased name shown in the editor.
func (k Kind) DisplayName() string { return DisplayName(k.String()) }

// TexturePack reports whether k changes which texture files are loaded.
func (k Kind) TexturePack() bool {
	return k == SetTexturePack || k == SetTextureOverride || k == ClearTextureOverride
}

// SceneModPack reports whether k changes which scene-mod files are loaded.
func (k Kind) SceneModPack() bool {
	return k == SetSceneModPack || k == SetSceneModOverride || k == ClearSceneModOverride
}

// DisplayName title-cases name after lowering it.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ToLower(name))
}

// HasNamespace reports whether dataModel belongs to this system. The
// comparison ignores case so older "customTex/" entities still match.
func HasNamespace(dataModel string) bool {
	return len(dataModel) >= len(Namespace) && strings.EqualFold(dataModel[:len(Namespace)], Namespace)
}

// Parse maps a data model to its kind.
func Parse(dataModel string) (Kind, bool) {
	if !HasNamespace(dataModel) {
		return Unknown, false
	}
	name := strings.TrimSpace(dataModel[len(Namespace):])
	for k := ToggleCustomTextures; int(k) < len(kindNames); k++ {
		if strings.EqualFold(name, kindNames[k]) {
			return k, true
		}
	}
	return Unknown, false
}

var (
	ErrUnknownEvent    = errors.New("events: unknown event")
	ErrMissingProperty = errors.New("events: missing property")
)

// Event is a decoded mixtape entity. Only the fields of its kind are set.
type Event struct {
	Kind Kind
	Beat float64

	Scene         string
	Enabled       bool
	Variants      string
	Key           string
	Path          string
	QualifiedPath string
}

func (ev Event) String() string {
	return fmt.Sprintf("%s @ beat %g", ev.Kind.DataModel(), ev.Beat)
}

// Decode reads the properties of e according to its kind. Required
// properties that are missing or blank yield ErrMissingProperty.
func Decode(e host.Entity) (Event, error) {
	k, ok := Parse(e.DataModel)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, e.DataModel)
	}
	ev := Event{Kind: k, Beat: e.Beat}
	ev.Scene, _ = e.String("scene")
	ev.Scene = strings.TrimSpace(ev.Scene)

	need := func(key string, dst *string) error {
		s, ok := e.String(key)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %s requires string property %q", ErrMissingProperty, k, key)
		}
		*dst = s
		return nil
	}

	switch k {
	case ToggleCustomTextures:
		on, ok := e.Bool("enabled")
		if !ok {
			on, ok = e.Bool("toggle")
		}
		if !ok {
			return ev, fmt.Errorf("%w: %s requires boolean property \"enabled\"", ErrMissingProperty, k)
		}
		ev.Enabled = on
	case SetTextureVariant, AddTextureVariant, RemoveTextureVariant:
		if err := need("variant", &ev.Variants); err != nil {
			return ev, err
		}
	case ApplySceneMod:
		if err := need("scene", &ev.Scene); err != nil {
			return ev, err
		}
		if err := need("key", &ev.Key); err != nil {
			return ev, err
		}
	case SetTexturePack, SetSceneModPack:
		if err := need("path", &ev.Path); err != nil {
			return ev, err
		}
	case SetTextureOverride:
		if err := need("qualifiedPath", &ev.QualifiedPath); err != nil {
			return ev, err
		}
		if err := need("path", &ev.Path); err != nil {
			return ev, err
		}
	case ClearTextureOverride:
		if err := need("qualifiedPath", &ev.QualifiedPath); err != nil {
			return ev, err
		}
	case SetSceneModOverride:
		if err := need("scene", &ev.Scene); err != nil {
			return ev, err
		}
		if err := need("path", &ev.Path); err != nil {
			return ev, err
		}
	case ClearSceneModOverride:
		if err := need("scene", &ev.Scene); err != nil {
			return ev, err
		}
	}
	return ev, nil
}
