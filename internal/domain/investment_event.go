package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvestmentEvent is an append-only audit row written in the same transaction as the change it records.
type InvestmentEvent struct {
	EventID      uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	InvestmentID uuid.UUID      `gorm:"column:investment_id;type:uuid;not null;index" json:"investment_id"`
	EventType    string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData    datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"event_data"`
	ActorID      *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	ActorRole    *string        `gorm:"column:actor_role;type:varchar(20)" json:"actor_role"`
	CreatedAt    time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (InvestmentEvent) TableName() string {
	return "InvestmentEvents"
}

func (e *InvestmentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
