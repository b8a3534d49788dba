package texture

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"customtex/internal/host"
)

// Anchor picks where a resized named sprite sits within the original's
// bounds. Only centring is implemented.
type Anchor int

const (
	AnchorCenter Anchor = iota
)

var quadUVs = []mgl32.Vec2{{0, 1}, {1, 1}, {0, 0}, {1, 0}}

var quadIndices = []uint16{0, 1, 2, 2, 1, 3}

// BoundingBox returns the min and max corners of verts.
func BoundingBox(verts []mgl32.Vec2) (lo, hi mgl32.Vec2) {
	if len(verts) == 0 {
		return
	}
	lo = mgl32.Vec2{math.MaxFloat32, math.MaxFloat32}
	hi = mgl32.Vec2{-math.MaxFloat32, -math.MaxFloat32}
	for _, v := range verts {
		lo[0] = min(lo[0], v[0])
		lo[1] = min(lo[1], v[1])
		hi[0] = max(hi[0], v[0])
		hi[1] = max(hi[1], v[1])
	}
	return lo, hi
}

// quad returns the four corners of a w by h box placed against the
// centre of the original bounds, ordered top-left, top-right, bottom-left, bottom-right.
func quad(lo, hi mgl32.Vec2, w, h float32) []mgl32.Vec2 {
	c := lo.Add(hi).Mul(0.5)
	hw, hh := w/2, h/2
	return []mgl32.Vec2{
		{c[0] - hw, c[1] + hh},
		{c[0] + hw, c[1] + hh},
		{c[0] - hw, c[1] - hh},
		{c[0] + hw, c[1] - hh},
	}
}

func normalizedPivot(s host.Sprite) mgl32.Vec2 {
	r := s.Rect()
	if r.Width == 0 || r.Height == 0 {
		return mgl32.Vec2{0.5, 0.5}
	}
	p := s.Pivot()
	return mgl32.Vec2{p[0] / r.Width, p[1] / r.Height}
}

// AtlasSpec builds a sprite that reuses the original's atlas rectangle and
// exact mesh on the replacement texture.
func AtlasSpec(orig host.Sprite, tex host.Texture) host.SpriteSpec {
	return host.SpriteSpec{
		Name:          orig.Name(),
		Texture:       tex,
		Rect:          orig.Rect(),
		Pivot:         normalizedPivot(orig),
		PixelsPerUnit: orig.PixelsPerUnit(),
		Border:        orig.Border(),
		Mesh:          host.MeshTight,
		Vertices:      append([]mgl32.Vec2(nil), orig.Vertices()...),
		UVs:           append([]mgl32.Vec2(nil), orig.UVs()...),
		Indices:       append([]uint16(nil), orig.Indices()...),
	}
}

// NamedSpec builds a full-texture sprite whose quad is sized to tex and
// placed on the original's bounding box. a is accepted for future anchors;
// every value currently centres.
func NamedSpec(orig host.Sprite, tex host.Texture, a Anchor) (host.SpriteSpec, error) {
	ppu := orig.PixelsPerUnit()
	if ppu <= 0 {
		return host.SpriteSpec{}, fmt.Errorf("texture: sprite %s: pixels per unit %v", orig.Name(), ppu)
	}
	w, h := float32(tex.Width()), float32(tex.Height())
	lo, hi := BoundingBox(orig.Vertices())
	return host.SpriteSpec{
		Name:          orig.Name(),
		Texture:       tex,
		Rect:          host.Rect{Width: w, Height: h},
		Pivot:         normalizedPivot(orig),
		PixelsPerUnit: ppu,
		Border:        orig.Border(),
		Mesh:          host.MeshFullRect,
		Vertices:      quad(lo, hi, w/ppu, h/ppu),
		UVs:           append([]mgl32.Vec2(nil), quadUVs...),
		Indices:       append([]uint16(nil), quadIndices...),
	}, nil
}
