// Package roster holds the ordered list of participants for one session.
package roster

import (
	"strings"

	"hrtool/internal/models"

	"github.com/google/uuid"
)

// Entry is one raw ingestion record before it becomes a Participant.
type Entry struct {
	Name       string
	Department string
}

// Store is the canonical, insertion-ordered set of participants.
// It is not safe for concurrent use; the owning session serializes access.
type Store struct {
	participants []*models.Participant
	newID        func() string
}

// NewStore creates an empty roster.
func NewStore() *Store {
	return &Store{newID: uuid.NewString}
}

// NormalizeName trims surrounding whitespace. An empty result means the name is rejected.
func NormalizeName(raw string) string {
	return strings.TrimSpace(raw)
}

// AddBatch appends one participant per non-blank name, in input order.
func (s *Store) AddBatch(names []string) []*models.Participant {
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Name: n}
	}
	return s.AddEntries(entries)
}

// AddEntries appends one participant per entry whose trimmed name is non-blank
// and returns the participants that were added.
func (s *Store) AddEntries(entries []Entry) []*models.Participant {
	var added []*models.Participant
	for _, e := range entries {
		name := NormalizeName(e.Name)
		if name == "" {
			continue
		}
		p := &models.Participant{
			ID:         s.newID(),
			Name:       name,
			Department: strings.TrimSpace(e.Department),
		}
		s.participants = append(s.participants, p)
		added = append(added, p)
	}
	return added
}

// Remove deletes the participant with the given id. A missing id is a no-op.
func (s *Store) Remove(id string) bool {
	for i, p := range s.participants {
		if p.ID == id {
			s.participants = append(s.participants[:i:i], s.participants[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveDuplicatesByName keeps the first occurrence of every name and drops
// the rest. Names are compared exactly. It returns how many were dropped.
func (s *Store) RemoveDuplicatesByName() int {
	seen := make(map[string]bool, len(s.participants))
	kept := make([]*models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		kept = append(kept, p)
	}
	removed := len(s.participants) - len(kept)
	s.participants = kept
	return removed
}

// Clear empties the roster.
func (s *Store) Clear() {
	s.participants = nil
}

// DuplicateNames returns the names that occur more than once, in order of
// their first appearance.
func (s *Store) DuplicateNames() []string {
	counts := make(map[string]int, len(s.participants))
	for _, p := range s.participants {
		counts[p.Name]++
	}
	var dups []string
	for _, p := range s.participants {
		if counts[p.Name] > 1 {
			dups = append(dups, p.Name)
			counts[p.Name] = 0
		}
	}
	return dups
}

// Participants returns a copy of the roster in insertion order.
func (s *Store) Participants() []*models.Participant {
	out := make([]*models.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

// Get looks up a participant by id.
func (s *Store) Get(id string) (*models.Participant, bool) {
	for _, p := range s.participants {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of participants.
func (s *Store) Len() int {
	return len(s.participants)
}
