// Package grouping splits a roster into randomly shuffled groups of a fixed size.
package grouping

import (
	"errors"
	"fmt"
	"sync"

	"hrtool/internal/models"
	"hrtool/internal/random"
)

// Bounds of the group size offered to users.
const (
	MinSize     = 2
	MaxSize     = 20
	DefaultSize = 4
)

var (
	// ErrInvalidSize is returned for a group size below 1.
	ErrInvalidSize = errors.New("group size must be positive")
	// ErrSizeOutOfRange is returned by ValidateSize outside [MinSize, MaxSize].
	ErrSizeOutOfRange = fmt.Errorf("group size must be between %d and %d", MinSize, MaxSize)
)

// ValidateSize checks size against the range offered to users.
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("%w: got %d", ErrSizeOutOfRange, size)
	}
	return nil
}

// EstimatedGroups returns ceil(count/size), the number of groups Partition will produce.
func EstimatedGroups(count, size int) int {
	if size < 1 || count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// GroupName is the display name of the group at zero-based index i.
func GroupName(i int) string {
	return fmt.Sprintf("第 %d 組", i+1)
}

// Partition shuffles participants uniformly and cuts them into consecutive
// groups of size; the last group holds the remainder. The input slice is not modified.
func Partition(participants []*models.Participant, size int, src random.Source) ([]*models.Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if src == nil {
		src = random.Default
	}
	if len(participants) == 0 {
		return []*models.Group{}, nil
	}

	shuffled := make([]*models.Participant, len(participants))
	copy(shuffled, participants)
	random.Shuffle(src, shuffled)

	groups := make([]*models.Group, 0, EstimatedGroups(len(shuffled), size))
	for i := 0; i*size < len(shuffled); i++ {
		end := min((i+1)*size, len(shuffled))
		groups = append(groups, &models.Group{
			ID:      fmt.Sprintf("group-%d", i),
			Name:    GroupName(i),
			Members: shuffled[i*size : end : end],
		})
	}
	return groups, nil
}

// Grouper keeps the result of the most recent Partition.
type Grouper struct {
	mu     sync.RWMutex
	src    random.Source
	groups []*models.Group
}

// NewGrouper creates a Grouper. A nil src uses random.Default.
func NewGrouper(src random.Source) *Grouper {
	if src == nil {
		src = random.Default
	}
	return &Grouper{src: src}
}

// Generate partitions participants and replaces the previous result. On error
// the previous result is kept.
func (g *Grouper) Generate(participants []*models.Participant, size int) ([]*models.Group, error) {
	groups, err := Partition(participants, size, g.src)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.groups = groups
	g.mu.Unlock()
	return groups, nil
}

// Groups returns the last generated groups.
func (g *Grouper) Groups() []*models.Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*models.Group, len(g.groups))
	copy(out, g.groups)
	return out
}

// Clear drops the last result.
func (g *Grouper) Clear() {
	g.mu.Lock()
	g.groups = nil
	g.mu.Unlock()
}
