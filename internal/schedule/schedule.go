// Package schedule wraps the host beat scheduler so every callback is owned
// by a session handle and can be cancelled in bulk.
package schedule

import (
	"github.com/google/uuid"

	"customtex/internal/host"
)

// Session owns a set of scheduled callbacks.
type Session struct {
	handle    host.Handle
	sched     host.Scheduler
	scheduled int
	fired     int
}

// NewSession returns a session with a fresh handle. label is kept as a
// readable prefix of the handle.
func NewSession(s host.Scheduler, label string) *Session {
	return &Session{
		handle: host.Handle(label + "/" + uuid.NewString()),
		sched:  s,
	}
}

func (s *Session) Handle() host.Handle { return s.handle }

// Cancel drops every callback this session registered that has not fired.
func (s *Session) Cancel() {
	if s == nil || s.sched == nil {
		return
	}
	s.sched.UnscheduleAll(s.handle)
	s.scheduled = s.fired
}

// Outstanding is the number of callbacks registered and not yet fired or
// cancelled.
func (s *Session) Outstanding() int { return s.scheduled - s.fired }

// Scheduled is an action bound to its target at a beat. The target is
// captured when the value is built, so what will run is visible before
// it is registered.
type Scheduled[T any] struct {
	Beat   float64
	Label  string
	Target T
	Action func(T)
}

// On registers the action with the session's scheduler.
func (sc Scheduled[T]) On(s *Session) {
	s.scheduled++
	s.sched.Schedule(sc.Beat, func() {
		s.fired++
		sc.Action(sc.Target)
	}, s.handle)
}
