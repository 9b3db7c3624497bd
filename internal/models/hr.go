package models

// Participant represents one person on the roster.
// The ID is assigned once on ingestion and never reused; names may repeat.
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// Group is one partition produced by a single grouping run.
// Members are shared with the roster, not copied.
type Group struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Members []*Participant `json:"members"`
}

// DrawState is the phase of the draw engine.
type DrawState string

const (
	DrawIdle    DrawState = "idle"
	DrawDrawing DrawState = "drawing"
	DrawSettled DrawState = "settled"
)

// DrawSnapshot is a read-only view of the draw engine used for rendering.
type DrawSnapshot struct {
	State      DrawState      `json:"state"`
	Repeatable bool           `json:"repeatable"`
	Winner     *Participant   `json:"winner,omitempty"`
	Display    *Participant   `json:"display,omitempty"` // name flickering during a draw
	Pool       []*Participant `json:"pool"`
	History    []*Participant `json:"history"` // most recent first
	CanStart   bool           `json:"canStart"`
}

// RosterView is the roster plus the names that currently repeat.
type RosterView struct {
	Participants   []*Participant `json:"participants"`
	DuplicateNames []string       `json:"duplicateNames"`
	Count          int            `json:"count"`
}
