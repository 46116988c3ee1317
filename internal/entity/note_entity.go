package entity

import (
	"time"
)

// Note is a sticky note on the shared canvas.
type Note struct {
	Id        string
	X         float64
	Y         float64
	Content   string
	Color     string
	Timer     *float64 // lifetime in seconds; nil means the note never expires
	CreatedAt time.Time
}

// NotePatch holds the fields of a partial update. A nil field is left untouched.
type NotePatch struct {
	X       *float64
	Y       *float64
	Content *string
	Color   *string
	Timer   *float64
}

// HasTimer reports whether the note is eligible for expiry.
func (n *Note) HasTimer() bool {
	return n.Timer != nil
}

// Expired is true once more than window has elapsed since creation and the
// note carries a timer. Exactly window elapsed is not expired.
func (n *Note) Expired(now time.Time, window time.Duration) bool {
	if !n.HasTimer() {
		return false
	}
	return now.Sub(n.CreatedAt) > window
}

// Clone returns a deep copy so callers never share the timer pointer.
func (n *Note) Clone() *Note {
	c := *n
	if n.Timer != nil {
		t := *n.Timer
		c.Timer = &t
	}
	return &c
}

// Apply merges the patch into a copy of n. The id and creation time are kept.
func (p NotePatch) Apply(n *Note) *Note {
	merged := n.Clone()
	if p.X != nil {
		merged.X = *p.X
	}
	if p.Y != nil {
		merged.Y = *p.Y
	}
	if p.Content != nil {
		merged.Content = *p.Content
	}
	if p.Color != nil {
		merged.Color = *p.Color
	}
	if p.Timer != nil {
		t := *p.Timer
		merged.Timer = &t
	}
	return merged
}

// IsEmpty reports whether the patch would change nothing.
func (p NotePatch) IsEmpty() bool {
	return p.X == nil && p.Y == nil && p.Content == nil && p.Color == nil && p.Timer == nil
}

// MovesNote is true when the patch touches the position.
func (p NotePatch) MovesNote() bool {
	return p.X != nil || p.Y != nil
}
