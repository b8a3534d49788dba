// Package memhost is an in-memory host used by tests and the headless CLI
// tools.
package memhost

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"customtex/internal/host"
)

// Object is a scene-graph node.
type Object struct {
	name     string
	active   bool
	dead     bool
	parent   *Object
	children []*Object

	transform *Transform
	renderer  *SpriteRenderer
	camera    *Camera
	image     *Image
	parallax  *Parallax
}

// NewObject returns an active root object with an identity transform.
func NewObject(name string) *Object {
	return &Object{name: name, active: true, transform: NewTransform()}
}

// AddChild creates and attaches a child.
func (o *Object) AddChild(name string) *Object {
	c := NewObject(name)
	c.parent = o
	o.children = append(o.children, c)
	return c
}

// Child returns the first direct child called name.
func (o *Object) Child(name string) *Object {
	for _, c := range o.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Find follows a slash separated path of exact names.
func (o *Object) Find(path string) *Object {
	cur := o
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if cur = cur.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// Destroy marks the object and its subtree dead and detaches it.
func (o *Object) Destroy() {
	o.dead = true
	for _, c := range o.children {
		c.Destroy()
	}
	if o.parent != nil {
		kept := o.parent.children[:0]
		for _, c := range o.parent.children {
			if c != o {
				kept = append(kept, c)
			}
		}
		o.parent.children = kept
	}
}

func (o *Object) Name() string              { return o.name }
func (o *Object) Alive() bool               { return !o.dead }
func (o *Object) Active() bool              { return o.active }
func (o *Object) SetActive(v bool)          { o.active = v }
func (o *Object) Transform() host.Transform { return o.transform }

// LocalTransform returns the concrete transform for assertions.
func (o *Object) LocalTransform() *Transform { return o.transform }

func (o *Object) Children() []host.Object {
	out := make([]host.Object, 0, len(o.children))
	for _, c := range o.children {
		out = append(out, c)
	}
	return out
}

// AddSpriteRenderer attaches a renderer showing s.
func (o *Object) AddSpriteRenderer(s host.Sprite) *SpriteRenderer {
	o.renderer = &SpriteRenderer{sprite: s, color: mgl32.Vec4{1, 1, 1, 1}}
	return o.renderer
}

// Renderer returns the concrete renderer or nil.
func (o *Object) Renderer() *SpriteRenderer { return o.renderer }

func (o *Object) SpriteRenderer() (host.SpriteRenderer, bool) {
	if o.renderer == nil {
		return nil, false
	}
	return o.renderer, true
}

// AddCamera attaches an orthographic camera.
func (o *Object) AddCamera() *Camera {
	o.camera = &Camera{orthographic: true, size: 5, aspect: 16.0 / 9.0}
	return o.camera
}

func (o *Object) Camera() (host.Camera, bool) {
	if o.camera == nil {
		return nil, false
	}
	return o.camera, true
}

// AddImage attaches a UI image.
func (o *Object) AddImage(m host.Material) *Image {
	o.image = &Image{material: m}
	return o.image
}

func (o *Object) Image() (host.Image, bool) {
	if o.image == nil {
		return nil, false
	}
	return o.image, true
}

// AddParallax attaches a parallax script.
func (o *Object) AddParallax() *Parallax {
	o.parallax = &Parallax{enabled: true, scale: 1}
	return o.parallax
}

func (o *Object) ParallaxScript() (host.ParallaxScript, bool) {
	if o.parallax == nil {
		return nil, false
	}
	return o.parallax, true
}

// Transform keeps rotation as a quaternion and derives Euler angles using
// the Z, X, Y application order.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

func (t *Transform) LocalPosition() mgl32.Vec3     { return t.Position }
func (t *Transform) SetLocalPosition(v mgl32.Vec3) { t.Position = v }
func (t *Transform) LocalRotation() mgl32.Quat     { return t.Rotation }
func (t *Transform) SetLocalRotation(q mgl32.Quat) { t.Rotation = q.Normalize() }
func (t *Transform) LocalScale() mgl32.Vec3        { return t.Scale }
func (t *Transform) SetLocalScale(v mgl32.Vec3)    { t.Scale = v }

func (t *Transform) SetLocalEulerAngles(e mgl32.Vec3) {
	t.Rotation = mgl32.AnglesToQuat(
		mgl32.DegToRad(e.Y()), mgl32.DegToRad(e.X()), mgl32.DegToRad(e.Z()), mgl32.YXZ)
}

func (t *Transform) LocalEulerAngles() mgl32.Vec3 {
	m := t.Rotation.Mat4()
	sx := -m.At(1, 2)
	if sx > 1 {
		sx = 1
	} else if sx < -1 {
		sx = -1
	}
	x := math.Asin(float64(sx))
	y := math.Atan2(float64(m.At(0, 2)), float64(m.At(2, 2)))
	z := math.Atan2(float64(m.At(1, 0)), float64(m.At(1, 1)))
	return mgl32.Vec3{wrapDegrees(x), wrapDegrees(y), wrapDegrees(z)}
}

func wrapDegrees(rad float64) float32 {
	d := math.Mod(rad*180/math.Pi, 360)
	if d < 0 {
		d += 360
	}
	return float32(d)
}

type SpriteRenderer struct {
	sprite   host.Sprite
	color    mgl32.Vec4
	size     mgl32.Vec2
	flipX    bool
	flipY    bool
	material host.Material
	// Assignments counts SetSprite calls.
	Assignments int
}

func (r *SpriteRenderer) Sprite() host.Sprite { return r.sprite }
func (r *SpriteRenderer) SetSprite(s host.Sprite) {
	r.sprite = s
	r.Assignments++
}
func (r *SpriteRenderer) Color() mgl32.Vec4           { return r.color }
func (r *SpriteRenderer) SetColor(c mgl32.Vec4)       { r.color = c }
func (r *SpriteRenderer) Size() mgl32.Vec2            { return r.size }
func (r *SpriteRenderer) SetSize(s mgl32.Vec2)        { r.size = s }
func (r *SpriteRenderer) FlipX() bool                 { return r.flipX }
func (r *SpriteRenderer) SetFlipX(v bool)             { r.flipX = v }
func (r *SpriteRenderer) FlipY() bool                 { return r.flipY }
func (r *SpriteRenderer) SetFlipY(v bool)             { r.flipY = v }
func (r *SpriteRenderer) Material() host.Material     { return r.material }
func (r *SpriteRenderer) SetMaterial(m host.Material) { r.material = m }

type Camera struct {
	orthographic bool
	size         float32
	aspect       float32
	background   mgl32.Vec4
}

func (c *Camera) Orthographic() bool              { return c.orthographic }
func (c *Camera) SetOrthographic(v bool)          { c.orthographic = v }
func (c *Camera) OrthographicSize() float32       { return c.size }
func (c *Camera) SetOrthographicSize(v float32)   { c.size = v }
func (c *Camera) Aspect() float32                 { return c.aspect }
func (c *Camera) SetAspect(v float32)             { c.aspect = v }
func (c *Camera) BackgroundColor() mgl32.Vec4     { return c.background }
func (c *Camera) SetBackgroundColor(v mgl32.Vec4) { c.background = v }

type Image struct {
	material host.Material
}

func (i *Image) Material() host.Material     { return i.material }
func (i *Image) SetMaterial(m host.Material) { i.material = m }

type Parallax struct {
	enabled bool
	scale   float32
	loop    float32
}

func (p *Parallax) Enabled() bool              { return p.enabled }
func (p *Parallax) SetEnabled(v bool)          { p.enabled = v }
func (p *Parallax) ParallaxScale() float32     { return p.scale }
func (p *Parallax) SetParallaxScale(v float32) { p.scale = v }
func (p *Parallax) LoopDistance() float32      { return p.loop }
func (p *Parallax) SetLoopDistance(v float32)  { p.loop = v }
