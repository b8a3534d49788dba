package texture

import (
	"customtex/internal/scene"
	"customtex/internal/schedule"
	"customtex/internal/variant"
)

// VariantChange edits the variant stack of one scene.
type VariantChange struct {
	Scene scene.Key
	Op    Op
	IDs   []variant.ID
}

// ChangeVariants applies c and re-resolves every watcher of the scene.
func (e *Engine) ChangeVariants(c VariantChange) {
	e.Stack(c.Scene).Apply(c.Op, c.IDs)
	e.Refresh(c.Scene)
}

// ScheduleVariantChange runs c at beat.
func (e *Engine) ScheduleVariantChange(s *schedule.Session, beat float64, c VariantChange) {
	schedule.Scheduled[VariantChange]{
		Beat:   beat,
		Label:  c.Op.String() + " texture variant",
		Target: c,
		Action: e.ChangeVariants,
	}.On(s)
}

// Toggle switches overlays on or off; an invalid Scene means all scenes.
type Toggle struct {
	Scene   scene.Key
	Enabled bool
}

// ScheduleToggle runs t at beat.
func (e *Engine) ScheduleToggle(s *schedule.Session, beat float64, t Toggle) {
	schedule.Scheduled[Toggle]{
		Beat:   beat,
		Label:  "toggle custom textures",
		Target: t,
		Action: func(t Toggle) { e.SetEnabled(t.Scene, t.Enabled) },
	}.On(s)
}
