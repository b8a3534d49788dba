package memhost

import (
	"sort"

	"customtex/internal/host"
	"customtex/internal/scene"
)

type task struct {
	beat  float64
	seq   int
	fn    func()
	owner host.Handle
}

// Scheduler fires callbacks when RunUntil passes their beat.
type Scheduler struct {
	tasks []task
	seq   int
}

func (s *Scheduler) Schedule(beat float64, fn func(), owner host.Handle) {
	s.seq++
	s.tasks = append(s.tasks, task{beat: beat, seq: s.seq, fn: fn, owner: owner})
}

func (s *Scheduler) UnscheduleAll(owner host.Handle) {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.owner != owner {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
}

// Pending counts callbacks registered by owner.
func (s *Scheduler) Pending(owner host.Handle) int {
	n := 0
	for _, t := range s.tasks {
		if t.owner == owner {
			n++
		}
	}
	return n
}

// RunUntil fires every callback at or before beat, in beat then
// registration order.
func (s *Scheduler) RunUntil(beat float64) int {
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].beat != s.tasks[j].beat {
			return s.tasks[i].beat < s.tasks[j].beat
		}
		return s.tasks[i].seq < s.tasks[j].seq
	})
	fired := 0
	for len(s.tasks) > 0 && s.tasks[0].beat <= beat {
		t := s.tasks[0]
		s.tasks = s.tasks[1:]
		t.fn()
		fired++
	}
	return fired
}

// Scenes is the scene loader state.
type Scenes struct {
	roots     map[scene.Key]*Object
	order     []scene.Key
	Cancelled bool
	Events    []host.Entity
	Sched     *Scheduler
}

func NewScenes() *Scenes {
	return &Scenes{roots: map[scene.Key]*Object{}, Sched: &Scheduler{}}
}

// AddRoot creates the root object for k.
func (s *Scenes) AddRoot(k scene.Key) *Object {
	o := NewObject(string(k))
	if _, ok := s.roots[k]; !ok {
		s.order = append(s.order, k)
	}
	s.roots[k] = o
	return o
}

// RemoveRoot unloads k.
func (s *Scenes) RemoveRoot(k scene.Key) {
	if o, ok := s.roots[k]; ok {
		o.Destroy()
		delete(s.roots, k)
	}
	kept := s.order[:0]
	for _, o := range s.order {
		if o != k {
			kept = append(kept, o)
		}
	}
	s.order = kept
}

func (s *Scenes) RootObject(k scene.Key) (host.Object, bool) {
	o, ok := s.roots[k]
	if !ok {
		return nil, false
	}
	return o, true
}

func (s *Scenes) RootKeys() []scene.Key {
	return append([]scene.Key(nil), s.order...)
}

func (s *Scenes) LoadCancelled() bool       { return s.Cancelled }
func (s *Scenes) Entities() []host.Entity   { return s.Events }
func (s *Scenes) Scheduler() host.Scheduler { return s.Sched }
