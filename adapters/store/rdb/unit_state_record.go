package rdb

import "time"

// UnitStateRecord is the RDB persistence model for domain UnitState.
// Table name: unit_states
type UnitStateRecord struct {
	ID         string    `gorm:"primaryKey;type:text;not null"`
	UnitName   string    `gorm:"uniqueIndex;type:text;not null"`
	Charm      string    `gorm:"type:text;not null"`
	Namespace  string    `gorm:"type:text"`
	Started    bool      `gorm:"not null"`
	ConfigHash string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (UnitStateRecord) TableName() string { return "unit_states" }
