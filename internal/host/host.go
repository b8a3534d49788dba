// Package host declares the narrow contract between the overlay engines and
// the game they patch. The real adapter lives with the plugin loader;
// memhost provides an in-memory implementation.
package host

import (
	"image"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"customtex/internal/scene"
)

// Object is a live scene-graph node.
type Object interface {
	Name() string
	// Alive is false once the host destroyed the object.
	Alive() bool
	Active() bool
	SetActive(bool)
	Children() []Object
	Transform() Transform
	SpriteRenderer() (SpriteRenderer, bool)
	Camera() (Camera, bool)
	Image() (Image, bool)
	ParallaxScript() (ParallaxScript, bool)
}

// Transform exposes local-space transform fields. Angles are in degrees.
type Transform interface {
	LocalPosition() mgl32.Vec3
	SetLocalPosition(mgl32.Vec3)
	LocalRotation() mgl32.Quat
	SetLocalRotation(mgl32.Quat)
	LocalEulerAngles() mgl32.Vec3
	SetLocalEulerAngles(mgl32.Vec3)
	LocalScale() mgl32.Vec3
	SetLocalScale(mgl32.Vec3)
}

type SpriteRenderer interface {
	Sprite() Sprite
	SetSprite(Sprite)
	Color() mgl32.Vec4
	SetColor(mgl32.Vec4)
	Size() mgl32.Vec2
	SetSize(mgl32.Vec2)
	FlipX() bool
	SetFlipX(bool)
	FlipY() bool
	SetFlipY(bool)
	Material() Material
	SetMaterial(Material)
}

type Camera interface {
	Orthographic() bool
	SetOrthographic(bool)
	OrthographicSize() float32
	SetOrthographicSize(float32)
	Aspect() float32
	SetAspect(float32)
	BackgroundColor() mgl32.Vec4
	SetBackgroundColor(mgl32.Vec4)
}

// Image is a UI image component.
type Image interface {
	Material() Material
	SetMaterial(Material)
}

// ParallaxScript is the host's parallax scrolling behaviour.
type ParallaxScript interface {
	Enabled() bool
	SetEnabled(bool)
	ParallaxScale() float32
	SetParallaxScale(float32)
	LoopDistance() float32
	SetLoopDistance(float32)
}

type Texture interface {
	Name() string
	Width() int
	Height() int
}

// Rect is a pixel rectangle inside a texture.
type Rect struct {
	X, Y, Width, Height float32
}

// Size returns the rectangle dimensions.
func (r Rect) Size() mgl32.Vec2 { return mgl32.Vec2{r.Width, r.Height} }

// Sprite is an immutable host sprite.
type Sprite interface {
	Name() string
	Texture() Texture
	// Packed is true for sprites cut out of an atlas.
	Packed() bool
	Rect() Rect
	// Pivot is in pixels relative to Rect.
	Pivot() mgl32.Vec2
	PixelsPerUnit() float32
	Border() mgl32.Vec4
	Vertices() []mgl32.Vec2
	UVs() []mgl32.Vec2
	Indices() []uint16
}

// MeshType picks how the host builds the sprite mesh.
type MeshType int

const (
	MeshTight MeshType = iota
	MeshFullRect
)

// SpriteSpec describes a sprite to create. Pivot is normalised to Rect.
// When Vertices is set the host overrides the generated geometry.
type SpriteSpec struct {
	Name          string
	Texture       Texture
	Rect          Rect
	Pivot         mgl32.Vec2
	PixelsPerUnit float32
	Border        mgl32.Vec4
	Mesh          MeshType
	Vertices      []mgl32.Vec2
	UVs           []mgl32.Vec2
	Indices       []uint16
}

type Shader interface {
	Name() string
}

type Material interface {
	Name() string
	Clone() Material
	Shader() Shader
	SetShader(Shader)
	Color() mgl32.Vec4
	SetColor(mgl32.Vec4)
	SetFloat(name string, v float32)
	SetInt(name string, v int)
	EnableKeyword(string)
	DisableKeyword(string)
}

// Graphics is the resource universe: texture and sprite lifetimes plus
// global lookups over every loaded asset.
type Graphics interface {
	NewTexture(name string, img *image.NRGBA) (Texture, error)
	DestroyTexture(Texture)
	NewSprite(SpriteSpec) (Sprite, error)
	DestroySprite(Sprite)
	AllSprites() []Sprite
	FindMaterial(name string) (Material, bool)
	FindShader(name string) (Shader, bool)
	NewMaterial(Shader) Material
}

// Handle identifies the owner of scheduled callbacks.
type Handle string

// Scheduler is the host's beat scheduler.
type Scheduler interface {
	Schedule(beat float64, fn func(), owner Handle)
	UnscheduleAll(owner Handle)
}

// SceneAccess reads the host's scene loader state.
type SceneAccess interface {
	RootObject(scene.Key) (Object, bool)
	RootKeys() []scene.Key
	LoadCancelled() bool
	Entities() []Entity
	Scheduler() Scheduler
}

// Entity is one mixtape event.
type Entity struct {
	Beat       float64
	DataModel  string
	Properties map[string]any
}

// String returns a string property.
func (e Entity) String(key string) (string, bool) {
	v, ok := e.Properties[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// Bool accepts a bool, an integer or a parseable string.
func (e Entity) Bool(key string) (bool, bool) {
	v, ok := e.Properties[key]
	if !ok || v == nil {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case int:
		return t != 0, true
	case int64:
		return t != 0, true
	case float64:
		return t != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}
