package schedule

import (
	"strings"
	"testing"

	"customtex/internal/host/memhost"
)

func TestScheduledRunsWithTarget(t *testing.T) {
	sched := &memhost.Scheduler{}
	s := NewSession(sched, "BoxShow")
	if !strings.HasPrefix(string(s.Handle()), "BoxShow/") {
		t.Fatalf("handle = %q", s.Handle())
	}

	var got []int
	for i := 1; i <= 3; i++ {
		Scheduled[int]{Beat: float64(i), Target: i * 10, Action: func(v int) { got = append(got, v) }}.On(s)
	}
	if s.Outstanding() != 3 {
		t.Fatalf("outstanding = %d", s.Outstanding())
	}
	sched.RunUntil(2)
	if len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Fatalf("got = %v", got)
	}
	s.Cancel()
	if s.Outstanding() != 0 || sched.Pending(s.Handle()) != 0 {
		t.Fatal("cancel left callbacks behind")
	}
	sched.RunUntil(10)
	if len(got) != 2 {
		t.Fatalf("cancelled callback fired: %v", got)
	}
}

func TestCancelLeavesOtherSessions(t *testing.T) {
	sched := &memhost.Scheduler{}
	a := NewSession(sched, "a")
	b := NewSession(sched, "b")
	fired := 0
	Scheduled[struct{}]{Beat: 1, Action: func(struct{}) { fired++ }}.On(a)
	Scheduled[struct{}]{Beat: 1, Action: func(struct{}) { fired++ }}.On(b)
	a.Cancel()
	sched.RunUntil(1)
	if fired != 1 {
		t.Fatalf("fired = %d", fired)
	}
}
