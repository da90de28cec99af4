package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type HskLevel struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Description string         `gorm:"type:text;column:description" json:"description"`
	Level       int            `gorm:"not null;uniqueIndex;column:level" json:"level"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (HskLevel) TableName() string { return "hsk_level" }
