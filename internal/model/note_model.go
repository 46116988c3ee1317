package model

import (
	"time"
)

// Note is the persisted record. The same struct is stored as a Postgres row
// (gorm tags) and as a MongoDB document (bson tags, camelCase like the wire format).
type Note struct {
	Id        string    `gorm:"type:varchar(128);primaryKey" bson:"id"`
	X         float64   `gorm:"not null" bson:"x"`
	Y         float64   `gorm:"not null" bson:"y"`
	Content   string    `gorm:"type:text;not null;default:''" bson:"content"`
	Color     string    `gorm:"type:varchar(64);not null" bson:"color"`
	Timer     *float64  `bson:"timer,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" bson:"createdAt"`
}

func (Note) TableName() string {
	return "notes"
}

// CollectionName is the MongoDB collection holding notes.
const CollectionName = "notes"
