package services

import (
	"fmt"
	"io"
	"sync"
	"time"

	"hrtool/internal/draw"
	"hrtool/internal/grouping"
	"hrtool/internal/ingest"
	"hrtool/internal/models"
	"hrtool/internal/random"
	"hrtool/internal/roster"

	"github.com/google/logger"
)

// Session holds the roster and engines for a single user/tenant.
type Session struct {
	mu           sync.Mutex
	Roster       *roster.Store
	Draw         *draw.Engine
	Groups       *grouping.Grouper
	LastActivity time.Time
}

// Options configures the engines created for each session.
type Options struct {
	Draw      draw.Options
	Scheduler draw.Scheduler // nil uses draw.TickerScheduler
	Rand      random.Source  // nil uses random.Default
}

// HRService manages multiple HR sessions.
type HRService struct {
	mu       sync.RWMutex
	opts     Options
	sessions map[string]*Session // Key: tenantID
}

// NewHRService creates and initializes a new HRService.
func NewHRService(opts Options) *HRService {
	return &HRService{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

func (s *HRService) newSession() *Session {
	r := roster.NewStore()
	return &Session{
		Roster: r,
		Draw:   draw.NewEngine(r, s.opts.Draw, s.opts.Scheduler, s.opts.Rand),
		Groups: grouping.NewGrouper(s.opts.Rand),
	}
}

// getSession returns a session for a tenant, creating one if it doesn't exist.
func (s *HRService) getSession(tenantID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[tenantID]
	if !exists {
		session = s.newSession()
		s.sessions[tenantID] = session
	}
	session.LastActivity = time.Now()
	return session
}

// withSession runs fn while holding the tenant's session lock.
func (s *HRService) withSession(tenantID string, fn func(*Session)) {
	session := s.getSession(tenantID)
	session.mu.Lock()
	defer session.mu.Unlock()
	fn(session)
}

// AddNames appends one participant per non-blank name.
func (s *HRService) AddNames(tenantID string, names []string) []*models.Participant {
	var added []*models.Participant
	s.withSession(tenantID, func(sess *Session) {
		added = sess.Roster.AddBatch(names)
	})
	logger.Infof("tenant %s: added %d of %d names", tenantID, len(added), len(names))
	return added
}

// AddText splits pasted text into lines and adds each non-blank line.
func (s *HRService) AddText(tenantID, text string) []*models.Participant {
	return s.AddNames(tenantID, ingest.Lines(text))
}

// AddSample appends the demo roster, duplicates included.
func (s *HRService) AddSample(tenantID string) []*models.Participant {
	return s.AddNames(tenantID, ingest.SampleNames)
}

// ImportCSV adds every non-blank cell of a CSV file. A malformed file adds nothing.
func (s *HRService) ImportCSV(tenantID string, r io.Reader) ([]*models.Participant, error) {
	cells, err := ingest.CSVCells(r)
	if err != nil {
		logger.Warningf("tenant %s: rejected CSV upload: %v", tenantID, err)
		return nil, fmt.Errorf("import participants: %w", err)
	}
	return s.AddNames(tenantID, cells), nil
}

// RemoveParticipant deletes one participant. It reports false if the id was not present.
func (s *HRService) RemoveParticipant(tenantID, id string) bool {
	var removed bool
	s.withSession(tenantID, func(sess *Session) {
		removed = sess.Roster.Remove(id)
	})
	return removed
}

// RemoveDuplicates keeps the first participant of every name.
func (s *HRService) RemoveDuplicates(tenantID string) int {
	var n int
	s.withSession(tenantID, func(sess *Session) {
		n = sess.Roster.RemoveDuplicatesByName()
	})
	logger.Infof("tenant %s: removed %d duplicate names", tenantID, n)
	return n
}

// ClearParticipants empties the roster. The draw pool and last groups are kept
// until the next reset or grouping run.
func (s *HRService) ClearParticipants(tenantID string) {
	s.withSession(tenantID, func(sess *Session) {
		sess.Roster.Clear()
	})
}

// Roster returns the participants and the names that repeat.
func (s *HRService) Roster(tenantID string) models.RosterView {
	var view models.RosterView
	s.withSession(tenantID, func(sess *Session) {
		view = models.RosterView{
			Participants:   sess.Roster.Participants(),
			DuplicateNames: sess.Roster.DuplicateNames(),
			Count:          sess.Roster.Len(),
		}
	})
	return view
}

// StartDraw begins a draw. The bool is false when the draw was rejected
// because one is already running or the pool is empty.
func (s *HRService) StartDraw(tenantID string) (models.DrawSnapshot, bool) {
	var (
		snap    models.DrawSnapshot
		started bool
	)
	s.withSession(tenantID, func(sess *Session) {
		started = sess.Draw.StartDraw()
		snap = sess.Draw.Snapshot()
	})
	if started {
		logger.Infof("tenant %s: draw started, pool %d", tenantID, len(snap.Pool))
	}
	return snap, started
}

// ResetDraw refills the pool from the current roster and clears the winners.
func (s *HRService) ResetDraw(tenantID string) models.DrawSnapshot {
	var snap models.DrawSnapshot
	s.withSession(tenantID, func(sess *Session) {
		sess.Draw.Reset()
		snap = sess.Draw.Snapshot()
	})
	logger.Infof("tenant %s: draw reset, pool %d", tenantID, len(snap.Pool))
	return snap
}

// SetRepeatable toggles whether a winner can be drawn again.
func (s *HRService) SetRepeatable(tenantID string, repeatable bool) models.DrawSnapshot {
	var snap models.DrawSnapshot
	s.withSession(tenantID, func(sess *Session) {
		sess.Draw.SetRepeatable(repeatable)
		snap = sess.Draw.Snapshot()
	})
	return snap
}

// DrawSnapshot returns the current draw state.
func (s *HRService) DrawSnapshot(tenantID string) models.DrawSnapshot {
	var snap models.DrawSnapshot
	s.withSession(tenantID, func(sess *Session) {
		snap = sess.Draw.Snapshot()
	})
	return snap
}

// GenerateGroups shuffles the whole roster into groups of size, replacing the last result.
func (s *HRService) GenerateGroups(tenantID string, size int) ([]*models.Group, error) {
	var (
		groups []*models.Group
		err    error
	)
	s.withSession(tenantID, func(sess *Session) {
		groups, err = sess.Groups.Generate(sess.Roster.Participants(), size)
	})
	if err != nil {
		return nil, fmt.Errorf("generate groups: %w", err)
	}
	logger.Infof("tenant %s: generated %d groups of %d", tenantID, len(groups), size)
	return groups, nil
}

// Groups returns the last generated groups.
func (s *HRService) Groups(tenantID string) []*models.Group {
	var groups []*models.Group
	s.withSession(tenantID, func(sess *Session) {
		groups = sess.Groups.Groups()
	})
	return groups
}

// CleanUpInactiveSessions removes sessions that have been inactive for longer than ttl.
func (s *HRService) CleanUpInactiveSessions(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for tenantID, session := range s.sessions {
		if time.Since(session.LastActivity) > ttl {
			session.Draw.Close()
			delete(s.sessions, tenantID)
			removed++
			logger.Infof("Dropped inactive session for tenant: %s", tenantID)
		}
	}
	return removed
}

// ClearSession removes all data associated with a specific tenant.
func (s *HRService) ClearSession(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[tenantID]; ok {
		session.Draw.Close()
		delete(s.sessions, tenantID)
	}
	logger.Infof("Cleared session for tenant: %s", tenantID)
}

// SessionCount returns the number of live sessions.
func (s *HRService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops every in-flight draw.
func (s *HRService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		session.Draw.Close()
	}
}
