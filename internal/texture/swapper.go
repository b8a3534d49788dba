package texture

import (
	"customtex/internal/host"
	"customtex/internal/scene"
	"customtex/internal/variant"
)

// Swapper watches one sprite renderer. The host may reassign the sprite at
// any time, so Reconcile compares against the last value it wrote and
// re-resolves whenever they differ.
type Swapper struct {
	engine   *Engine
	scene    scene.Key
	object   host.Object
	renderer host.SpriteRenderer

	last    host.Sprite
	vanilla host.Sprite
	local   []variant.ID
	enabled bool
}

func (s *Swapper) Scene() scene.Key              { return s.scene }
func (s *Swapper) Object() host.Object           { return s.object }
func (s *Swapper) Renderer() host.SpriteRenderer { return s.renderer }
func (s *Swapper) Vanilla() host.Sprite          { return s.vanilla }
func (s *Swapper) Enabled() bool                 { return s.enabled }

// Variants returns the swapper's own variant list.
func (s *Swapper) Variants() []variant.ID {
	return append([]variant.ID(nil), s.local...)
}

// Reconcile re-resolves when the renderer's sprite was changed by someone
// else. It reports whether it wrote a sprite.
func (s *Swapper) Reconcile() bool {
	if !s.enabled {
		return false
	}
	cur := s.renderer.Sprite()
	if cur == s.last {
		return false
	}
	s.vanilla = cur
	return s.refresh()
}

// refresh resolves the current vanilla sprite again, after the variant
// stacks changed.
func (s *Swapper) refresh() bool {
	if !s.enabled {
		return false
	}
	next := s.engine.Replace(s.scene, s.vanilla, s.local)
	s.last = next
	if s.renderer.Sprite() == next {
		return false
	}
	s.renderer.SetSprite(next)
	return true
}

// Disable restores the vanilla sprite and stops watching.
func (s *Swapper) Disable() {
	if !s.enabled {
		return
	}
	s.enabled = false
	if s.renderer.Sprite() == s.last && s.last != s.vanilla {
		s.renderer.SetSprite(s.vanilla)
	}
	s.last = s.vanilla
}

// Enable resumes watching and resolves immediately.
func (s *Swapper) Enable() {
	if s.enabled {
		return
	}
	s.enabled = true
	s.vanilla = s.renderer.Sprite()
	s.refresh()
}

// SetEnabled calls Enable or Disable.
func (s *Swapper) SetEnabled(v bool) {
	if v {
		s.Enable()
	} else {
		s.Disable()
	}
}

// SetVariants replaces the local variant list.
func (s *Swapper) SetVariants(ids []variant.ID) {
	s.local = append(s.local[:0], ids...)
	s.refresh()
}

// SetIndexedVariants assigns entries of the local list by position,
// growing it with base entries as needed.
func (s *Swapper) SetIndexedVariants(byIndex map[int]variant.ID) {
	for i, id := range byIndex {
		if i < 0 {
			continue
		}
		for len(s.local) <= i {
			s.local = append(s.local, variant.Base)
		}
		s.local[i] = id
	}
	s.refresh()
}
