package scenemod

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"customtex/internal/host"
	"customtex/internal/logging"
	"customtex/internal/scene"
	"customtex/internal/variant"
)

// ErrParse marks a document that is not a JSON object.
var ErrParse = errors.New("scenemod: malformed document")

// InitKey names the tree applied when a scene is initialised.
const InitKey = "init"

// Document is one parsed scene mod file.
type Document struct {
	Scene  scene.Key
	Init   *Node
	Events map[string]*Node
	// Order lists event keys as they appear in the file.
	Order []string
}

// Parser turns scene mod JSON into node trees. Material and shader lookups
// are cached for the parser's lifetime, misses included.
type Parser struct {
	log      *logging.Logger
	gfx      host.Graphics
	variants *variant.Registry
	v        values

	materials       map[string]host.Material
	shaderMaterials map[string]host.Material
	shaders         map[string]host.Shader
}

func NewParser(log *logging.Logger, gfx host.Graphics, variants *variant.Registry) *Parser {
	if log == nil {
		log = logging.Discard()
	}
	return &Parser{
		log:             log,
		gfx:             gfx,
		variants:        variants,
		v:               values{log: log},
		materials:       make(map[string]host.Material),
		shaderMaterials: make(map[string]host.Material),
		shaders:         make(map[string]host.Shader),
	}
}

// Reset drops the lookup caches.
func (p *Parser) Reset() {
	clear(p.materials)
	clear(p.shaderMaterials)
	clear(p.shaders)
}

// ParseDocument parses data for sc. From release 2 on, a top level "init"
// or "events" object selects the split schema; otherwise the whole
// document is the init tree.
func (p *Parser) ParseDocument(data []byte, sc scene.Key, release uint32) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrParse)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is %s, not an object", ErrParse, root.Type)
	}
	doc := &Document{Scene: sc, Events: make(map[string]*Node)}

	initTree, events := root.Get(InitKey), root.Get("events")
	if release >= 2 && initTree.Exists() && !initTree.IsObject() {
		p.log.Warn("scene mod init should be an object", "scene", sc, "type", initTree.Type.String())
	}
	if release < 2 || (!initTree.IsObject() && !events.IsObject()) {
		doc.Init = p.ParseNode(sc, "", root, false)
		return doc, nil
	}
	if initTree.IsObject() {
		doc.Init = p.ParseNode(sc, "", initTree, false)
	}
	if events.Exists() && !events.IsObject() {
		p.log.Warn("scene mod events should be an object", "scene", sc, "type", events.Type.String())
		return doc, nil
	}
	events.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if !v.IsObject() {
			p.log.Warn("scene mod event should be an object", "scene", sc, "event", key, "type", v.Type.String())
			return true
		}
		if _, dup := doc.Events[key]; !dup {
			doc.Order = append(doc.Order, key)
		}
		doc.Events[key] = p.ParseNode(sc, "", v, false)
		return true
	})
	return doc, nil
}

// ParseNode parses obj as the node for path name. Keys starting with '!'
// are the active flag or component blocks; other keys are child paths,
// deferred when prefixed with '~' or when the parent is deferred.
func (p *Parser) ParseNode(sc scene.Key, name string, obj gjson.Result, deferred bool) *Node {
	n := newNode(name)
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		switch {
		case key == "!Active":
			if !v.IsBool() {
				p.log.Warn("scene mod !Active should be a boolean", "scene", sc, "path", name, "type", v.Type.String())
				return true
			}
			b := v.Bool()
			n.Active = &b
		case strings.HasPrefix(key, "!"):
			if !v.IsObject() {
				p.log.Warn("scene mod component should be an object", "scene", sc, "component", key[1:], "type", v.Type.String())
				return true
			}
			if m := p.parseComponent(sc, key[1:], v); m != nil {
				n.Mutations = append(n.Mutations, m)
			}
		default:
			if !v.IsObject() {
				p.log.Warn("scene mod child should be an object", "scene", sc, "child", key, "type", v.Type.String())
				return true
			}
			childDeferred := deferred
			if strings.HasPrefix(key, "~") {
				childDeferred = true
				key = key[1:]
			}
			child := p.ParseNode(sc, key, v, childDeferred)
			if childDeferred {
				n.Deferred = append(n.Deferred, child)
			} else {
				n.Children = append(n.Children, child)
			}
		}
		return true
	})
	return n
}

func (p *Parser) parseComponent(sc scene.Key, kind string, obj gjson.Result) Mutation {
	switch kind {
	case "Transform":
		return p.parseTransform(obj)
	case "SpriteRenderer":
		return p.parseSpriteRenderer(obj)
	case "Image":
		return ImageMutation{Material: p.parseMaterialRef(obj)}
	case "Camera":
		return p.parseCamera(obj)
	case "ParallaxObjectScript":
		return p.parseParallax(obj)
	case "CustomSpriteSwapper":
		return p.parseSwapper(sc, obj)
	}
	p.log.Warn("scene mod component is unknown or unsupported", "scene", sc, "component", kind)
	return nil
}

func (p *Parser) parseTransform(obj gjson.Result) Mutation {
	var m TransformMutation
	m.LocalPosition, _ = p.v.vec3(obj, "LocalPosition")
	m.LocalRotation, _ = p.v.quat(obj, "LocalRotation")
	m.LocalEulerAngles, _ = p.v.euler(obj, "LocalEulerAngles")
	m.LocalScale, _ = p.v.vec3(obj, "LocalScale")
	return m
}

func (p *Parser) parseSpriteRenderer(obj gjson.Result) Mutation {
	var m SpriteRendererMutation
	m.Color, _ = p.v.color(obj, "Color")
	m.Size, _ = p.v.vec2(obj, "Size")
	m.FlipX, _ = p.v.bool(obj, "FlipX")
	m.FlipY, _ = p.v.bool(obj, "FlipY")
	m.Material = p.parseMaterialRef(obj)
	return m
}

func (p *Parser) parseCamera(obj gjson.Result) Mutation {
	var m CameraMutation
	m.Orthographic, _ = p.v.bool(obj, "Orthographic")
	m.OrthographicSize, _ = p.v.float(obj, "OrthographicSize")
	m.Aspect, _ = p.v.float(obj, "Aspect")
	m.BackgroundColor, _ = p.v.color(obj, "BackgroundColor")
	return m
}

func (p *Parser) parseParallax(obj gjson.Result) Mutation {
	var m ParallaxMutation
	m.Enabled, _ = p.v.bool(obj, "Enabled")
	m.ParallaxScale, _ = p.v.float(obj, "ParallaxScale")
	m.LoopDistance, _ = p.v.float(obj, "LoopDistance")
	return m
}

func (p *Parser) parseSwapper(sc scene.Key, obj gjson.Result) Mutation {
	var m SwapperMutation
	m.Enabled, _ = p.v.bool(obj, "Enabled")
	v := obj.Get("Variants")
	switch {
	case !v.Exists():
	case v.IsArray():
		m.Variants = []variant.ID{}
		for _, el := range v.Array() {
			if id, ok := p.variant(sc, el); ok {
				m.Variants = append(m.Variants, id)
			}
		}
	case v.IsObject():
		m.Indexed = make(map[int]variant.ID)
		v.ForEach(func(k, el gjson.Result) bool {
			idx, err := strconv.Atoi(k.String())
			if err != nil || idx < 0 {
				p.log.Warn("scene mod variant index should be a non-negative integer", "scene", sc, "key", k.String())
				return true
			}
			if id, ok := p.variant(sc, el); ok {
				m.Indexed[idx] = id
			}
			return true
		})
	case v.Type == gjson.String || v.Type == gjson.Number:
		if id, ok := p.variant(sc, v); ok {
			m.Variants = []variant.ID{id}
		}
	default:
		p.log.Warn("scene mod variants should be an array, object, string or integer", "scene", sc, "type", v.Type.String())
	}
	return m
}

// variant resolves a name through the registry policy or takes an integer
// as a raw id.
func (p *Parser) variant(sc scene.Key, v gjson.Result) (variant.ID, bool) {
	switch {
	case v.Type == gjson.String:
		if p.variants == nil {
			return 0, false
		}
		ref, err := p.variants.ResolveReference(sc, v.String())
		if err != nil {
			p.log.Warn("scene mod variant could not be resolved", "scene", sc, "variant", v.String(), "err", err)
			return 0, false
		}
		if ref.Scene != sc {
			p.log.Warn("scene mod variant belongs to another scene", "scene", sc, "variant", v.String(), "owner", ref.Scene)
			return 0, false
		}
		return ref.ID, true
	case isInteger(v):
		return variant.ID(v.Int()), true
	}
	p.log.Warn("scene mod variant should be a string or integer", "scene", sc, "type", v.Type.String())
	return 0, false
}

// parseMaterialRef reads "Material" (a name or a material mutation
// object) and, failing that, "Shader" (a name wrapped in a new material).
func (p *Parser) parseMaterialRef(obj gjson.Result) MaterialRef {
	if v := obj.Get("Material"); v.Exists() {
		switch {
		case v.Type == gjson.String:
			if mat, ok := p.material(v.String()); ok {
				return MaterialRef{Material: mat}
			}
		case v.IsObject():
			return MaterialRef{Edit: p.parseMaterialMutation(v)}
		default:
			p.log.Warn("scene mod material should be a string or object", "type", v.Type.String())
		}
	}
	if name, ok := p.v.str(obj, "Shader"); ok {
		if mat, ok := p.shaderMaterial(name); ok {
			return MaterialRef{Material: mat}
		}
	}
	return MaterialRef{}
}

func (p *Parser) parseMaterialMutation(obj gjson.Result) *MaterialMutation {
	mm := &MaterialMutation{}
	if name, ok := p.v.str(obj, "Shader"); ok {
		mm.Shader, _ = p.shader(name)
	}
	mm.Color, _ = p.v.color(obj, "Color")
	if f := obj.Get("Floats"); f.IsObject() {
		f.ForEach(func(k, v gjson.Result) bool {
			if v.Type != gjson.Number {
				p.log.Warn("scene mod material float should be a number", "name", k.String())
				return true
			}
			mm.Floats = append(mm.Floats, NamedFloat{Name: k.String(), Value: float32(v.Float())})
			return true
		})
	}
	if ints := obj.Get("Integers"); ints.IsObject() {
		ints.ForEach(func(k, v gjson.Result) bool {
			if !isInteger(v) {
				p.log.Warn("scene mod material integer should be an integer", "name", k.String())
				return true
			}
			mm.Integers = append(mm.Integers, NamedInt{Name: k.String(), Value: int(v.Int())})
			return true
		})
	}
	mm.EnableKeywords = p.v.strings(obj, "EnableKeywords")
	mm.DisableKeywords = p.v.strings(obj, "DisableKeywords")
	return mm
}

func (p *Parser) material(name string) (host.Material, bool) {
	mat, cached := p.materials[name]
	if !cached {
		var ok bool
		if p.gfx != nil {
			mat, ok = p.gfx.FindMaterial(name)
		}
		if !ok {
			p.log.Warn("scene mod material could not be found", "material", name)
			mat = nil
		}
		p.materials[name] = mat
	}
	return mat, mat != nil
}

func (p *Parser) shader(name string) (host.Shader, bool) {
	sh, cached := p.shaders[name]
	if !cached {
		var ok bool
		if p.gfx != nil {
			sh, ok = p.gfx.FindShader(name)
		}
		if !ok {
			p.log.Warn("scene mod shader could not be found", "shader", name)
			sh = nil
		}
		p.shaders[name] = sh
	}
	return sh, sh != nil
}

func (p *Parser) shaderMaterial(name string) (host.Material, bool) {
	mat, cached := p.shaderMaterials[name]
	if !cached {
		if sh, ok := p.shader(name); ok {
			mat = p.gfx.NewMaterial(sh)
		}
		p.shaderMaterials[name] = mat
	}
	return mat, mat != nil
}
