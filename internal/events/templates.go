package events

import (
	"fmt"
	"strings"
)

// PropertyType is the editor widget of a template property.
type PropertyType int

const (
	PropString PropertyType = iota
	PropBool
	PropChoice
)

func (t PropertyType) String() string {
	switch t {
	case PropString:
		return "string"
	case PropBool:
		return "bool"
	case PropChoice:
		return "choice"
	}
	return "unknown"
}

// Property is one typed field of a template.
type Property struct {
	Name    string
	Type    PropertyType
	Default any
	Choices []string
}

// Template describes an event for the editor.
type Template struct {
	Kind       Kind
	DataModel  string
	Display    string
	Length     float64
	Properties []Property
}

// Property returns the named property.
func (t *Template) Property(name string) (*Property, bool) {
	for i := range t.Properties {
		if t.Properties[i].Name == name {
			return &t.Properties[i], true
		}
	}
	return nil, false
}

// DefaultLength is the editor length of every template, in beats.
const DefaultLength = 0.5

func str(name, def string) Property { return Property{Name: name, Type: PropString, Default: def} }

func newTemplate(k Kind, props ...Property) Template {
	return Template{
		Kind:       k,
		DataModel:  k.DataModel(),
		Display:    k.DisplayName(),
		Length:     DefaultLength,
		Properties: props,
	}
}

// Templates returns fresh copies of every template.
func Templates() []Template {
	return []Template{
		newTemplate(ToggleCustomTextures, str("scene", ""), Property{Name: "enabled", Type: PropBool, Default: true}),
		newTemplate(SetTextureVariant, str("scene", ""), str("variant", "")),
		newTemplate(AddTextureVariant, str("scene", ""), str("variant", "")),
		newTemplate(RemoveTextureVariant, str("scene", ""), str("variant", "")),
		newTemplate(ApplySceneMod, str("scene", ""), str("key", "")),
		newTemplate(SetTexturePack, str("path", "textures")),
		newTemplate(SetTextureOverride, str("qualifiedPath", ""), str("path", "")),
		newTemplate(ClearTextureOverride, str("qualifiedPath", "")),
		newTemplate(SetSceneModPack, str("path", "levels")),
		newTemplate(SetSceneModOverride, str("scene", ""), str("path", "")),
		newTemplate(ClearSceneModOverride, str("scene", "")),
	}
}

// Display controls when the category is shown in the editor.
type Display int

const (
	DisplayNever Display = iota
	DisplayWhenActive
	DisplayAlways
)

func (d Display) String() string {
	switch d {
	case DisplayNever:
		return "Never"
	case DisplayWhenActive:
		return "WhenActive"
	case DisplayAlways:
		return "Always"
	}
	return "unknown"
}

// ParseDisplay accepts the names printed by String, ignoring case.
func ParseDisplay(s string) (Display, error) {
	for _, d := range []Display{DisplayNever, DisplayWhenActive, DisplayAlways} {
		if strings.EqualFold(strings.TrimSpace(s), d.String()) {
			return d, nil
		}
	}
	return DisplayWhenActive, fmt.Errorf("events: unknown display mode %q", s)
}

// Category is one group of templates in the editor list.
type Category struct {
	Name      string
	Display   string
	Templates []Template
}

// CategoryName is the editor category of this system.
const CategoryName = "customtex"

// Registry is the editor's ordered category list with this system's
// category inserted or removed on demand.
type Registry struct {
	categories []Category
	own        Category
	index      int
}

// NewRegistry wraps the host's categories. index is the 1-based position
// the own category is inserted at; values below 1 or past the end append.
func NewRegistry(host []Category, index int) *Registry {
	return &Registry{
		categories: append([]Category(nil), host...),
		own:        Category{Name: CategoryName, Display: "Custom Tex", Templates: Templates()},
		index:      index,
	}
}

// Categories returns the current list.
func (r *Registry) Categories() []Category {
	return append([]Category(nil), r.categories...)
}

func (r *Registry) position() int {
	for i, c := range r.categories {
		if strings.EqualFold(c.Name, CategoryName) {
			return i
		}
	}
	return -1
}

// Installed reports whether the own category is in the list.
func (r *Registry) Installed() bool { return r.position() >= 0 }

// Insert places the own category at the configured index. It reports
// false when it was already present.
func (r *Registry) Insert() bool {
	if r.Installed() {
		return false
	}
	at := r.index - 1
	if r.index < 1 || at > len(r.categories) {
		at = len(r.categories)
	}
	r.categories = append(r.categories, Category{})
	copy(r.categories[at+1:], r.categories[at:])
	r.categories[at] = r.own
	return true
}

// Remove takes the own category out of the list.
func (r *Registry) Remove() bool {
	i := r.position()
	if i < 0 {
		return false
	}
	r.categories = append(r.categories[:i], r.categories[i+1:]...)
	return true
}

// Sync inserts or removes the category according to d. active is whether
// the open mixtape carries any custom data.
func (r *Registry) Sync(d Display, active bool) {
	switch {
	case d == DisplayAlways, d == DisplayWhenActive && active:
		r.Insert()
	default:
		r.Remove()
	}
}

// Lookup finds a template by data model, ignoring case.
func (r *Registry) Lookup(dataModel string) (Template, bool) {
	k, ok := Parse(dataModel)
	if !ok {
		return Template{}, false
	}
	for _, t := range r.own.Templates {
		if t.Kind == k {
			return t, true
		}
	}
	return Template{}, false
}

// SetSceneChoices turns the scene property of the scene-mod template into
// a choice over sceneMods, and that of the texture variant templates into
// a choice over textures. An empty list resets the property to free text.
func (r *Registry) SetSceneChoices(sceneMods, textures []string) {
	for i := range r.own.Templates {
		t := &r.own.Templates[i]
		switch t.Kind {
		case ApplySceneMod:
			setChoices(t, sceneMods)
		case SetTextureVariant, AddTextureVariant, RemoveTextureVariant:
			setChoices(t, textures)
		}
	}
	if i := r.position(); i >= 0 {
		r.categories[i] = r.own
	}
}

func setChoices(t *Template, choices []string) {
	p, ok := t.Property("scene")
	if !ok {
		return
	}
	if len(choices) == 0 {
		*p = str("scene", "")
		return
	}
	p.Type = PropChoice
	p.Choices = append([]string(nil), choices...)
	p.Default = choices[0]
}
