package scenemod

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"customtex/internal/host"
	"customtex/internal/variant"
)

// Vector and colour components that a document leaves out are NaN and are
// never written to the target.
var unset = float32(math.NaN())

func isUnset(f float32) bool { return f != f }

func mergeVec2(src, dst mgl32.Vec2) mgl32.Vec2 {
	for i, v := range src {
		if !isUnset(v) {
			dst[i] = v
		}
	}
	return dst
}

func mergeVec3(src, dst mgl32.Vec3) mgl32.Vec3 {
	for i, v := range src {
		if !isUnset(v) {
			dst[i] = v
		}
	}
	return dst
}

func mergeVec4(src, dst mgl32.Vec4) mgl32.Vec4 {
	for i, v := range src {
		if !isUnset(v) {
			dst[i] = v
		}
	}
	return dst
}

func mergeQuat(src, dst mgl32.Quat) mgl32.Quat {
	if !isUnset(src.W) {
		dst.W = src.W
	}
	dst.V = mergeVec3(src.V, dst.V)
	return dst
}

// Swapper is the part of a sprite watcher a scene mod can drive.
type Swapper interface {
	SetEnabled(bool)
	SetVariants([]variant.ID)
	SetIndexedVariants(map[int]variant.ID)
}

// Mutation is one component block of a node. The set of implementations
// is closed: TransformMutation, SpriteRendererMutation, ImageMutation,
// CameraMutation, ParallaxMutation and SwapperMutation.
type Mutation interface {
	Component() string
	// apply reports false when obj lacks the component.
	apply(env *Env, obj host.Object) bool
}

type TransformMutation struct {
	LocalPosition    *mgl32.Vec3
	LocalRotation    *mgl32.Quat
	LocalEulerAngles *mgl32.Vec3
	LocalScale       *mgl32.Vec3
}

func (TransformMutation) Component() string { return "Transform" }

func (m TransformMutation) apply(_ *Env, obj host.Object) bool {
	t := obj.Transform()
	if t == nil {
		return false
	}
	if m.LocalPosition != nil {
		t.SetLocalPosition(mergeVec3(*m.LocalPosition, t.LocalPosition()))
	}
	if m.LocalRotation != nil {
		t.SetLocalRotation(mergeQuat(*m.LocalRotation, t.LocalRotation()))
	}
	if m.LocalEulerAngles != nil {
		t.SetLocalEulerAngles(mergeVec3(*m.LocalEulerAngles, t.LocalEulerAngles()))
	}
	if m.LocalScale != nil {
		t.SetLocalScale(mergeVec3(*m.LocalScale, t.LocalScale()))
	}
	return true
}

// MaterialRef replaces a material outright or edits a clone of the
// current one. The zero value leaves the material alone.
type MaterialRef struct {
	Material host.Material
	Edit     *MaterialMutation
}

func (r MaterialRef) IsSet() bool { return r.Material != nil || r.Edit != nil }

func (r MaterialRef) resolve(cur host.Material) host.Material {
	if r.Material != nil {
		cur = r.Material
	}
	if r.Edit != nil && cur != nil {
		cur = r.Edit.Apply(cur)
	}
	return cur
}

type NamedFloat struct {
	Name  string
	Value float32
}

type NamedInt struct {
	Name  string
	Value int
}

// MaterialMutation edits a clone of a material; the original shared
// material is never touched.
type MaterialMutation struct {
	Shader          host.Shader
	Color           *mgl32.Vec4
	Floats          []NamedFloat
	Integers        []NamedInt
	EnableKeywords  []string
	DisableKeywords []string
}

// Apply returns an edited clone of m.
func (mm *MaterialMutation) Apply(m host.Material) host.Material {
	c := m.Clone()
	if mm.Shader != nil {
		c.SetShader(mm.Shader)
	}
	if mm.Color != nil {
		c.SetColor(mergeVec4(*mm.Color, c.Color()))
	}
	for _, v := range mm.Integers {
		c.SetInt(v.Name, v.Value)
	}
	for _, v := range mm.Floats {
		c.SetFloat(v.Name, v.Value)
	}
	for _, k := range mm.EnableKeywords {
		c.EnableKeyword(k)
	}
	for _, k := range mm.DisableKeywords {
		c.DisableKeyword(k)
	}
	return c
}

type SpriteRendererMutation struct {
	Color    *mgl32.Vec4
	Size     *mgl32.Vec2
	FlipX    *bool
	FlipY    *bool
	Material MaterialRef
}

func (SpriteRendererMutation) Component() string { return "SpriteRenderer" }

func (m SpriteRendererMutation) apply(_ *Env, obj host.Object) bool {
	r, ok := obj.SpriteRenderer()
	if !ok {
		return false
	}
	if m.Color != nil {
		r.SetColor(mergeVec4(*m.Color, r.Color()))
	}
	if m.Size != nil {
		r.SetSize(mergeVec2(*m.Size, r.Size()))
	}
	if m.FlipX != nil {
		r.SetFlipX(*m.FlipX)
	}
	if m.FlipY != nil {
		r.SetFlipY(*m.FlipY)
	}
	if m.Material.IsSet() {
		r.SetMaterial(m.Material.resolve(r.Material()))
	}
	return true
}

type ImageMutation struct {
	Material MaterialRef
}

func (ImageMutation) Component() string { return "Image" }

func (m ImageMutation) apply(_ *Env, obj host.Object) bool {
	img, ok := obj.Image()
	if !ok {
		return false
	}
	if m.Material.IsSet() {
		img.SetMaterial(m.Material.resolve(img.Material()))
	}
	return true
}

type CameraMutation struct {
	Orthographic     *bool
	OrthographicSize *float32
	Aspect           *float32
	BackgroundColor  *mgl32.Vec4
}

func (CameraMutation) Component() string { return "Camera" }

func (m CameraMutation) apply(_ *Env, obj host.Object) bool {
	c, ok := obj.Camera()
	if !ok {
		return false
	}
	if m.Orthographic != nil {
		c.SetOrthographic(*m.Orthographic)
	}
	if m.OrthographicSize != nil {
		c.SetOrthographicSize(*m.OrthographicSize)
	}
	if m.Aspect != nil {
		c.SetAspect(*m.Aspect)
	}
	if m.BackgroundColor != nil {
		c.SetBackgroundColor(mergeVec4(*m.BackgroundColor, c.BackgroundColor()))
	}
	return true
}

type ParallaxMutation struct {
	Enabled       *bool
	ParallaxScale *float32
	LoopDistance  *float32
}

func (ParallaxMutation) Component() string { return "ParallaxObjectScript" }

func (m ParallaxMutation) apply(_ *Env, obj host.Object) bool {
	p, ok := obj.ParallaxScript()
	if !ok {
		return false
	}
	if m.Enabled != nil {
		p.SetEnabled(*m.Enabled)
	}
	if m.ParallaxScale != nil {
		p.SetParallaxScale(*m.ParallaxScale)
	}
	if m.LoopDistance != nil {
		p.SetLoopDistance(*m.LoopDistance)
	}
	return true
}

// SwapperMutation drives the sprite watcher of an object. Variants
// replaces its local list; Indexed assigns single positions.
type SwapperMutation struct {
	Enabled  *bool
	Variants []variant.ID
	Indexed  map[int]variant.ID
}

func (SwapperMutation) Component() string { return "CustomSpriteSwapper" }

func (m SwapperMutation) apply(env *Env, obj host.Object) bool {
	if env.Swappers == nil {
		return false
	}
	sw, ok := env.Swappers(env.Scene, obj)
	if !ok {
		return false
	}
	if m.Enabled != nil {
		sw.SetEnabled(*m.Enabled)
	}
	if m.Variants != nil {
		sw.SetVariants(m.Variants)
	} else if m.Indexed != nil {
		sw.SetIndexedVariants(m.Indexed)
	}
	return true
}
