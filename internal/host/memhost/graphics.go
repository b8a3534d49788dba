package memhost

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"customtex/internal/host"
)

type Texture struct {
	name   string
	width  int
	height int
	Pixels *image.NRGBA
}

// NewTexture returns a texture without pixel data.
func NewTexture(name string, w, h int) *Texture {
	return &Texture{name: name, width: w, height: h}
}

func (t *Texture) Name() string { return t.name }
func (t *Texture) Width() int   { return t.width }
func (t *Texture) Height() int  { return t.height }

type Sprite struct {
	name     string
	texture  host.Texture
	packed   bool
	rect     host.Rect
	pivot    mgl32.Vec2
	ppu      float32
	border   mgl32.Vec4
	vertices []mgl32.Vec2
	uvs      []mgl32.Vec2
	indices  []uint16
	Mesh     host.MeshType
}

// NewAtlasSprite returns a packed sprite covering rect of tex, with a
// quad mesh centred on the pivot.
func NewAtlasSprite(name string, tex host.Texture, rect host.Rect, ppu float32) *Sprite {
	s := newSprite(name, tex, rect, ppu)
	s.packed = true
	return s
}

// NewLooseSprite returns an unpacked sprite covering the whole texture.
func NewLooseSprite(name string, tex host.Texture, ppu float32) *Sprite {
	return newSprite(name, tex, host.Rect{Width: float32(tex.Width()), Height: float32(tex.Height())}, ppu)
}

func newSprite(name string, tex host.Texture, rect host.Rect, ppu float32) *Sprite {
	hw, hh := rect.Width/2/ppu, rect.Height/2/ppu
	return &Sprite{
		name:    name,
		texture: tex,
		rect:    rect,
		pivot:   mgl32.Vec2{rect.Width / 2, rect.Height / 2},
		ppu:     ppu,
		vertices: []mgl32.Vec2{
			{-hw, hh}, {hw, hh}, {-hw, -hh}, {hw, -hh},
		},
		uvs:     []mgl32.Vec2{{0, 1}, {1, 1}, {0, 0}, {1, 0}},
		indices: []uint16{0, 1, 2, 2, 1, 3},
	}
}

func (s *Sprite) Name() string           { return s.name }
func (s *Sprite) Texture() host.Texture  { return s.texture }
func (s *Sprite) Packed() bool           { return s.packed }
func (s *Sprite) Rect() host.Rect        { return s.rect }
func (s *Sprite) Pivot() mgl32.Vec2      { return s.pivot }
func (s *Sprite) PixelsPerUnit() float32 { return s.ppu }
func (s *Sprite) Border() mgl32.Vec4     { return s.border }
func (s *Sprite) Vertices() []mgl32.Vec2 { return s.vertices }
func (s *Sprite) UVs() []mgl32.Vec2      { return s.uvs }
func (s *Sprite) Indices() []uint16      { return s.indices }

type Shader struct{ name string }

func (s *Shader) Name() string { return s.name }

type Material struct {
	name     string
	shader   host.Shader
	color    mgl32.Vec4
	Floats   map[string]float32
	Ints     map[string]int
	Keywords map[string]bool
	// Source is the material this one was cloned from.
	Source *Material
}

// NewMaterial returns a white material using shader.
func NewMaterial(name string, shader host.Shader) *Material {
	return &Material{
		name:     name,
		shader:   shader,
		color:    mgl32.Vec4{1, 1, 1, 1},
		Floats:   map[string]float32{},
		Ints:     map[string]int{},
		Keywords: map[string]bool{},
	}
}

func (m *Material) Name() string                 { return m.name }
func (m *Material) Shader() host.Shader          { return m.shader }
func (m *Material) SetShader(s host.Shader)      { m.shader = s }
func (m *Material) Color() mgl32.Vec4            { return m.color }
func (m *Material) SetColor(c mgl32.Vec4)        { m.color = c }
func (m *Material) SetFloat(k string, v float32) { m.Floats[k] = v }
func (m *Material) SetInt(k string, v int)       { m.Ints[k] = v }
func (m *Material) EnableKeyword(k string)       { m.Keywords[k] = true }
func (m *Material) DisableKeyword(k string)      { m.Keywords[k] = false }

func (m *Material) Clone() host.Material {
	c := NewMaterial(m.name+" (Clone)", m.shader)
	c.color = m.color
	for k, v := range m.Floats {
		c.Floats[k] = v
	}
	for k, v := range m.Ints {
		c.Ints[k] = v
	}
	for k, v := range m.Keywords {
		c.Keywords[k] = v
	}
	c.Source = m
	return c
}

// Graphics tracks every texture and sprite it creates. Destroy counts are
// kept per resource so tests can detect double frees.
type Graphics struct {
	sprites   []host.Sprite
	materials map[string]*Material
	shaders   map[string]*Shader

	Created   []*Texture
	Destroyed map[host.Texture]int
	Made      []*Sprite
	Freed     map[host.Sprite]int
	// MaterialLookups counts FindMaterial calls.
	MaterialLookups int
}

func NewGraphics() *Graphics {
	return &Graphics{
		materials: map[string]*Material{},
		shaders:   map[string]*Shader{},
		Destroyed: map[host.Texture]int{},
		Freed:     map[host.Sprite]int{},
	}
}

// AddSprite registers a vanilla sprite with the resource universe.
func (g *Graphics) AddSprite(s host.Sprite) { g.sprites = append(g.sprites, s) }

// AddShader registers a shader by name.
func (g *Graphics) AddShader(name string) *Shader {
	s := &Shader{name: name}
	g.shaders[name] = s
	return s
}

// AddMaterial registers a named material.
func (g *Graphics) AddMaterial(name, shader string) *Material {
	sh, ok := g.shaders[shader]
	if !ok {
		sh = g.AddShader(shader)
	}
	m := NewMaterial(name, sh)
	g.materials[name] = m
	return m
}

func (g *Graphics) NewTexture(name string, img *image.NRGBA) (host.Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("memhost: texture %s: no pixels", name)
	}
	b := img.Bounds()
	t := &Texture{name: name, width: b.Dx(), height: b.Dy(), Pixels: img}
	g.Created = append(g.Created, t)
	return t, nil
}

func (g *Graphics) DestroyTexture(t host.Texture) { g.Destroyed[t]++ }

func (g *Graphics) NewSprite(spec host.SpriteSpec) (host.Sprite, error) {
	if spec.Texture == nil {
		return nil, fmt.Errorf("memhost: sprite %s: no texture", spec.Name)
	}
	s := &Sprite{
		name:     spec.Name,
		texture:  spec.Texture,
		rect:     spec.Rect,
		pivot:    mgl32.Vec2{spec.Pivot.X() * spec.Rect.Width, spec.Pivot.Y() * spec.Rect.Height},
		ppu:      spec.PixelsPerUnit,
		border:   spec.Border,
		vertices: append([]mgl32.Vec2(nil), spec.Vertices...),
		uvs:      append([]mgl32.Vec2(nil), spec.UVs...),
		indices:  append([]uint16(nil), spec.Indices...),
		Mesh:     spec.Mesh,
	}
	g.Made = append(g.Made, s)
	return s, nil
}

func (g *Graphics) DestroySprite(s host.Sprite) { g.Freed[s]++ }

// AllSprites returns vanilla sprites followed by created ones that were
// not destroyed.
func (g *Graphics) AllSprites() []host.Sprite {
	out := make([]host.Sprite, 0, len(g.sprites)+len(g.Made))
	out = append(out, g.sprites...)
	for _, s := range g.Made {
		if g.Freed[s] == 0 {
			out = append(out, s)
		}
	}
	return out
}

func (g *Graphics) FindMaterial(name string) (host.Material, bool) {
	g.MaterialLookups++
	m, ok := g.materials[name]
	if !ok {
		return nil, false
	}
	return m, true
}

func (g *Graphics) FindShader(name string) (host.Shader, bool) {
	s, ok := g.shaders[name]
	if !ok {
		return nil, false
	}
	return s, true
}

func (g *Graphics) NewMaterial(s host.Shader) host.Material {
	return NewMaterial(s.Name(), s)
}
