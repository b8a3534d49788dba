package memhost

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"customtex/internal/host"
)

func TestEulerRoundTrip(t *testing.T) {
	tr := NewTransform()
	want := mgl32.Vec3{30, 45, 60}
	tr.SetLocalEulerAngles(want)
	got := tr.LocalEulerAngles()
	for i := 0; i < 3; i++ {
		if math.Abs(float64(got[i]-want[i])) > 1e-3 {
			t.Fatalf("euler = %v, want %v", got, want)
		}
	}
}

func TestSchedulerOwnership(t *testing.T) {
	s := &Scheduler{}
	var fired []string
	s.Schedule(2, func() { fired = append(fired, "b") }, "mine")
	s.Schedule(1, func() { fired = append(fired, "a") }, "mine")
	s.Schedule(1, func() { fired = append(fired, "other") }, "theirs")

	s.UnscheduleAll("mine")
	if s.Pending("mine") != 0 || s.Pending("theirs") != 1 {
		t.Fatalf("pending mine=%d theirs=%d", s.Pending("mine"), s.Pending("theirs"))
	}
	s.Schedule(3, func() { fired = append(fired, "c") }, host.Handle("mine"))
	if n := s.RunUntil(10); n != 2 {
		t.Fatalf("fired %d", n)
	}
	if len(fired) != 2 || fired[0] != "other" || fired[1] != "c" {
		t.Fatalf("fired = %v", fired)
	}
}

func TestObjectTree(t *testing.T) {
	root := NewObject("Root")
	leaf := root.AddChild("A").AddChild("B")
	if root.Find("A/B") != leaf {
		t.Fatal("Find failed")
	}
	root.Child("A").Destroy()
	if leaf.Alive() || len(root.Children()) != 0 {
		t.Fatal("destroy did not detach subtree")
	}
	if _, ok := root.SpriteRenderer(); ok {
		t.Fatal("missing renderer reported present")
	}
}
