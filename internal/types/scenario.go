package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Scenario struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name                string         `gorm:"not null;column:name" json:"name"`
	Description         string         `gorm:"type:text;column:description" json:"description"`
	IsPredefined        bool           `gorm:"not null;default:false;column:is_predefined" json:"is_predefined"`
	SuggestedHskLevelID *uuid.UUID     `gorm:"type:uuid;index;column:suggested_hsk_level_id" json:"suggested_hsk_level_id,omitempty"`
	SuggestedHskLevel   *HskLevel      `gorm:"constraint:OnDelete:SET NULL;foreignKey:SuggestedHskLevelID;references:ID" json:"suggested_hsk_level,omitempty"`
	CreatedByUserID     *uuid.UUID     `gorm:"type:uuid;index;column:created_by_user_id" json:"created_by_user_id,omitempty"`
	CreatedByUser       *User          `gorm:"constraint:OnDelete:SET NULL;foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
	Metadata            datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	LastUsedAt          *time.Time     `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Scenario) TableName() string { return "scenario" }
