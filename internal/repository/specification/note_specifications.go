package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByNoteID filters by the client-chosen note id.
type ByNoteID struct {
	Id string
}

func (s ByNoteID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.Id)
}

// ExpiredBefore matches notes with a timer created strictly before Cutoff.
type ExpiredBefore struct {
	Cutoff time.Time
}

func (s ExpiredBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("timer IS NOT NULL AND created_at < ?", s.Cutoff)
}

// CreationOrder sorts oldest first, ties broken by id.
type CreationOrder struct{}

func (s CreationOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
