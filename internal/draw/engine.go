// Package draw implements the lucky draw: a pool of eligible participants,
// an animated selection cycle and the winner history.
package draw

import (
	"sync"
	"time"

	"hrtool/internal/models"
	"hrtool/internal/random"
)

// Defaults match the animation the HR tool has always shown: 30 flickers, 80ms apart.
const (
	DefaultCycles   = 30
	DefaultInterval = 80 * time.Millisecond
)

// RosterReader is the live roster the pool is copied from.
type RosterReader interface {
	Participants() []*models.Participant
}

// Options configures an Engine.
type Options struct {
	// Cycles is the number of flicker ticks before the winner is chosen.
	// Zero or less settles inside StartDraw without scheduling anything.
	Cycles     int
	Interval   time.Duration
	Repeatable bool
}

// DefaultOptions returns the standard animation settings with repeat wins disabled.
func DefaultOptions() Options {
	return Options{Cycles: DefaultCycles, Interval: DefaultInterval}
}

// Engine is the draw state machine: Idle -> Drawing -> Settled -> Drawing ...
//
// Until the first StartDraw after construction or Reset, the pool mirrors the
// live roster. StartDraw snapshots it and from then on the pool only shrinks.
type Engine struct {
	mu sync.Mutex

	roster RosterReader
	sched  Scheduler
	rng    random.Source

	cycles     int
	interval   time.Duration
	repeatable bool

	state   models.DrawState
	fresh   bool
	pool    []*models.Participant
	history []*models.Participant
	winner  *models.Participant
	display int

	ticks int
	task  Task
	gen   uint64
}

// NewEngine creates an idle engine over roster. A nil sched uses TickerScheduler
// and a nil rng uses random.Default.
func NewEngine(roster RosterReader, opts Options, sched Scheduler, rng random.Source) *Engine {
	if sched == nil {
		sched = TickerScheduler{}
	}
	if rng == nil {
		rng = random.Default
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Engine{
		roster:     roster,
		sched:      sched,
		rng:        rng,
		cycles:     opts.Cycles,
		interval:   opts.Interval,
		repeatable: opts.Repeatable,
		state:      models.DrawIdle,
		fresh:      true,
		display:    -1,
	}
}

// StartDraw begins a draw. It returns false, changing nothing, when a draw is
// already running or the pool is empty.
func (e *Engine) StartDraw() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.DrawDrawing {
		return false
	}
	pool := e.currentPool()
	if len(pool) == 0 {
		return false
	}
	e.pool = pool
	e.fresh = false

	e.state = models.DrawDrawing
	e.winner = nil
	e.ticks = 0
	e.display = e.rng.IntN(len(e.pool))

	if e.cycles <= 0 {
		e.settle()
		return true
	}

	e.gen++
	gen := e.gen
	e.task = e.sched.Every(e.interval, func() { e.tick(gen) })
	return true
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A tick from a cancelled task can still be in flight.
	if gen != e.gen || e.state != models.DrawDrawing {
		return
	}
	e.ticks++
	e.display = e.rng.IntN(len(e.pool))
	if e.ticks < e.cycles {
		return
	}
	e.stopTask()
	e.settle()
}

// settle picks the real winner uniformly from the pool. Caller holds mu.
func (e *Engine) settle() {
	w := e.pool[e.rng.IntN(len(e.pool))]

	e.history = append([]*models.Participant{w}, e.history...)
	if !e.repeatable {
		e.pool = withoutID(e.pool, w.ID)
	}
	e.winner = w
	e.display = -1
	e.state = models.DrawSettled
}

func withoutID(pool []*models.Participant, id string) []*models.Participant {
	out := make([]*models.Participant, 0, len(pool))
	for _, p := range pool {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) stopTask() {
	if e.task != nil {
		e.task.Cancel()
		e.task = nil
	}
}

func (e *Engine) currentPool() []*models.Participant {
	if e.fresh {
		return e.roster.Participants()
	}
	out := make([]*models.Participant, len(e.pool))
	copy(out, e.pool)
	return out
}

// Reset cancels any running draw, clears the winner history and refills the
// pool from the live roster.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTask()
	e.gen++
	e.state = models.DrawIdle
	e.fresh = true
	e.pool = nil
	e.history = nil
	e.winner = nil
	e.display = -1
	e.ticks = 0
}

// Close cancels any in-flight draw. The engine is left idle with its history intact.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTask()
	e.gen++
	if e.state == models.DrawDrawing {
		e.state = models.DrawIdle
		e.display = -1
	}
}

// SetRepeatable toggles whether winners stay in the pool. Only later draws are affected.
func (e *Engine) SetRepeatable(repeatable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeatable = repeatable
}

// Repeatable reports whether winners stay in the pool.
func (e *Engine) Repeatable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repeatable
}

// State returns the current phase.
func (e *Engine) State() models.DrawState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Winner returns the most recent winner, or nil while idle or drawing.
func (e *Engine) Winner() *models.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.winner
}

// Pool returns a copy of the participants still eligible to win.
func (e *Engine) Pool() []*models.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPool()
}

// History returns the winners, most recent first.
func (e *Engine) History() []*models.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.Participant, len(e.history))
	copy(out, e.history)
	return out
}

// CanStart reports poolNonEmpty && notCurrentlyDrawing.
func (e *Engine) CanStart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != models.DrawDrawing && len(e.currentPool()) > 0
}

// Snapshot returns everything a renderer needs in one consistent read.
func (e *Engine) Snapshot() models.DrawSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool := e.currentPool()
	history := make([]*models.Participant, len(e.history))
	copy(history, e.history)

	snap := models.DrawSnapshot{
		State:      e.state,
		Repeatable: e.repeatable,
		Winner:     e.winner,
		Pool:       pool,
		History:    history,
		CanStart:   e.state != models.DrawDrawing && len(pool) > 0,
	}
	if e.state == models.DrawDrawing && e.display >= 0 && e.display < len(e.pool) {
		snap.Display = e.pool[e.display]
	}
	return snap
}
