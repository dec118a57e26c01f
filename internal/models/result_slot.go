package models

import (
	"time"
)

// ResultSlot is one persisted slot of session state.
type ResultSlot struct {
	SessionID string    `gorm:"type:text;primaryKey" json:"session_id"`
	SlotKey   string    `gorm:"type:text;primaryKey" json:"slot_key"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ResultSlot) TableName() string {
	return "result_slots"
}
