package draw

import (
	"testing"
	"time"

	"hrtool/internal/models"
	"hrtool/internal/roster"
)

// manualScheduler records the scheduled callback and fires it on demand.
type manualScheduler struct {
	fn        func()
	scheduled int
	cancelled int
}

type manualTask struct{ s *manualScheduler }

func (t *manualTask) Cancel() { t.s.cancelled++ }

func (s *manualScheduler) Every(_ time.Duration, fn func()) Task {
	s.fn = fn
	s.scheduled++
	return &manualTask{s: s}
}

func (s *manualScheduler) fire(n int) {
	for i := 0; i < n; i++ {
		s.fn()
	}
}

func newRoster(names ...string) *roster.Store {
	r := roster.NewStore()
	r.AddBatch(names)
	return r
}

func newEngine(r RosterReader, cycles int, repeatable bool) (*Engine, *manualScheduler) {
	sched := &manualScheduler{}
	e := NewEngine(r, Options{Cycles: cycles, Interval: time.Millisecond, Repeatable: repeatable}, sched, nil)
	return e, sched
}

func ids(ps []*models.Participant) map[string]bool {
	out := make(map[string]bool, len(ps))
	for _, p := range ps {
		out[p.ID] = true
	}
	return out
}

func TestEngine_StateMachine(t *testing.T) {
	e, sched := newEngine(newRoster("Alice", "Bob", "Charlie"), 3, false)

	if e.State() != models.DrawIdle {
		t.Fatalf("initial state = %s, want idle", e.State())
	}
	if !e.StartDraw() {
		t.Fatal("StartDraw returned false on a non-empty pool")
	}
	if e.State() != models.DrawDrawing {
		t.Fatalf("state = %s, want drawing", e.State())
	}
	if e.CanStart() {
		t.Error("CanStart() = true while drawing")
	}

	t.Run("second start while drawing is rejected", func(t *testing.T) {
		if e.StartDraw() {
			t.Error("StartDraw accepted while drawing")
		}
		if sched.scheduled != 1 {
			t.Errorf("scheduled = %d, want 1", sched.scheduled)
		}
	})

	t.Run("flicker shows a pool member", func(t *testing.T) {
		sched.fire(2)
		snap := e.Snapshot()
		if snap.Display == nil {
			t.Fatal("Display is nil while drawing")
		}
		if !ids(snap.Pool)[snap.Display.ID] {
			t.Errorf("Display %v not in pool", snap.Display)
		}
		if len(e.History()) != 0 {
			t.Error("history recorded before the cycle finished")
		}
	})

	t.Run("last tick settles", func(t *testing.T) {
		sched.fire(1)
		if e.State() != models.DrawSettled {
			t.Fatalf("state = %s, want settled", e.State())
		}
		if sched.cancelled != 1 {
			t.Errorf("cancelled = %d, want 1", sched.cancelled)
		}
		snap := e.Snapshot()
		if snap.Winner == nil {
			t.Fatal("Winner is nil after settling")
		}
		if snap.Display != nil {
			t.Error("Display not cleared after settling")
		}
		if len(snap.Pool) != 2 {
			t.Errorf("pool size = %d, want 2", len(snap.Pool))
		}
		if ids(snap.Pool)[snap.Winner.ID] {
			t.Error("winner still in pool in non-repeatable mode")
		}
	})

	t.Run("settled can start again", func(t *testing.T) {
		if !e.StartDraw() {
			t.Fatal("StartDraw rejected from settled")
		}
		if e.Winner() != nil {
			t.Error("Winner not cleared on new draw")
		}
	})
}

func TestEngine_NonRepeatableDrainsPool(t *testing.T) {
	e, _ := newEngine(newRoster("A", "B", "C"), 0, false)

	for i := 0; i < 3; i++ {
		before := len(e.Pool())
		if !e.StartDraw() {
			t.Fatalf("draw %d rejected", i+1)
		}
		if got := len(e.Pool()); got != before-1 {
			t.Errorf("draw %d: pool size = %d, want %d", i+1, got, before-1)
		}
	}

	history := e.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	seen := map[string]bool{}
	for _, w := range history {
		seen[w.Name] = true
	}
	for _, n := range []string{"A", "B", "C"} {
		if !seen[n] {
			t.Errorf("%s never drawn; history %v", n, seen)
		}
	}

	if e.StartDraw() {
		t.Error("fourth StartDraw accepted on an empty pool")
	}
	if len(e.History()) != 3 {
		t.Error("history changed on a rejected draw")
	}
	if e.CanStart() {
		t.Error("CanStart() = true with an empty pool")
	}
}

func TestEngine_HistoryMostRecentFirst(t *testing.T) {
	e, _ := newEngine(newRoster("A", "B"), 0, false)
	e.StartDraw()
	first := e.Winner()
	e.StartDraw()
	second := e.Winner()

	h := e.History()
	if h[0] != second || h[1] != first {
		t.Errorf("history = [%s %s], want [%s %s]", h[0].Name, h[1].Name, second.Name, first.Name)
	}
}

func TestEngine_Repeatable(t *testing.T) {
	r := newRoster("A", "B")
	e, _ := newEngine(r, 0, true)

	for i := 0; i < 3; i++ {
		if !e.StartDraw() {
			t.Fatalf("draw %d rejected", i+1)
		}
		if got := len(e.Pool()); got != 2 {
			t.Errorf("draw %d: pool size = %d, want 2", i+1, got)
		}
	}
	history := e.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	valid := ids(r.Participants())
	for _, w := range history {
		if !valid[w.ID] {
			t.Errorf("winner %v not from roster", w)
		}
	}
}

func TestEngine_RepeatableToggleIsNotRetroactive(t *testing.T) {
	e, _ := newEngine(newRoster("A", "B", "C"), 0, false)
	e.StartDraw()
	if len(e.Pool()) != 2 {
		t.Fatal("pool did not shrink")
	}

	e.SetRepeatable(true)
	if len(e.Pool()) != 2 {
		t.Error("toggling repeatable restored the pool")
	}
	e.StartDraw()
	if len(e.Pool()) != 2 {
		t.Error("pool shrank in repeatable mode")
	}
}

func TestEngine_EmptyPool(t *testing.T) {
	e, sched := newEngine(roster.NewStore(), 3, false)
	if e.StartDraw() {
		t.Error("StartDraw accepted on an empty roster")
	}
	if sched.scheduled != 0 {
		t.Error("task scheduled for an empty pool")
	}
	if e.State() != models.DrawIdle {
		t.Errorf("state = %s, want idle", e.State())
	}
}

func TestEngine_PoolFollowsRosterUntilFirstDraw(t *testing.T) {
	r := roster.NewStore()
	e, _ := newEngine(r, 0, false)

	if e.StartDraw() {
		t.Fatal("StartDraw accepted on an empty roster")
	}
	r.AddBatch([]string{"A", "B"})
	if len(e.Pool()) != 2 {
		t.Fatalf("pool size = %d, want 2", len(e.Pool()))
	}
	if !e.StartDraw() {
		t.Fatal("StartDraw rejected after names were added")
	}

	r.AddBatch([]string{"C"})
	if got := len(e.Pool()); got != 1 {
		t.Errorf("pool picked up roster change mid-session: size = %d, want 1", got)
	}
}

func TestEngine_Reset(t *testing.T) {
	r := newRoster("A", "B", "C")
	e, sched := newEngine(r, 5, false)

	t.Run("after settled draws", func(t *testing.T) {
		e.StartDraw()
		sched.fire(5)
		e.StartDraw()
		sched.fire(5)
		r.AddBatch([]string{"D"})

		e.Reset()
		snap := e.Snapshot()
		if snap.State != models.DrawIdle {
			t.Errorf("state = %s, want idle", snap.State)
		}
		if len(snap.History) != 0 || snap.Winner != nil {
			t.Error("history or winner not cleared")
		}
		if len(snap.Pool) != 4 {
			t.Errorf("pool size = %d, want 4 (live roster)", len(snap.Pool))
		}
	})

	t.Run("while drawing cancels the task", func(t *testing.T) {
		e.StartDraw()
		cancelled := sched.cancelled
		stale := sched.fn

		e.Reset()
		if sched.cancelled != cancelled+1 {
			t.Error("Reset did not cancel the running task")
		}
		for i := 0; i < 10; i++ {
			stale()
		}
		if e.State() != models.DrawIdle {
			t.Errorf("stale tick changed state to %s", e.State())
		}
		if len(e.History()) != 0 {
			t.Error("stale tick recorded a winner")
		}
	})
}

func TestEngine_Close(t *testing.T) {
	e, sched := newEngine(newRoster("A", "B"), 5, false)
	e.StartDraw()
	stale := sched.fn

	e.Close()
	if sched.cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", sched.cancelled)
	}
	stale()
	if e.State() != models.DrawIdle {
		t.Errorf("state = %s after Close, want idle", e.State())
	}
	if len(e.History()) != 0 {
		t.Error("tick after Close recorded a winner")
	}
}

func TestEngine_UniformSelection(t *testing.T) {
	r := newRoster("A", "B", "C", "D")
	e, _ := newEngine(r, 0, true)

	const draws = 40000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		e.StartDraw()
		counts[e.Winner().Name]++
	}
	for _, n := range []string{"A", "B", "C", "D"} {
		if c := counts[n]; c < 9000 || c > 11000 {
			t.Errorf("%s won %d times, want about %d", n, c, draws/4)
		}
	}
}

func TestEngine_TickerScheduler(t *testing.T) {
	r := newRoster("A", "B", "C")
	e := NewEngine(r, Options{Cycles: 3, Interval: time.Millisecond}, nil, nil)
	defer e.Close()

	if !e.StartDraw() {
		t.Fatal("StartDraw rejected")
	}
	deadline := time.Now().Add(2 * time.Second)
	for e.State() != models.DrawSettled {
		if time.Now().After(deadline) {
			t.Fatal("draw did not settle in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if len(e.History()) != 1 {
		t.Errorf("history length = %d, want 1", len(e.History()))
	}
}

func TestTickerScheduler_Cancel(t *testing.T) {
	fired := make(chan struct{}, 100)
	task := TickerScheduler{}.Every(time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}
	task.Cancel()
	task.Cancel()

	// Drain anything already queued, then make sure it stays quiet.
	time.Sleep(5 * time.Millisecond)
	for len(fired) > 0 {
		<-fired
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(fired); n > 1 {
		t.Errorf("task fired %d times after Cancel", n)
	}
}
