package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Conversation is one learning session. Completion, score and the saved flag
// only move forward: IsCompleted never flips back, CurrentScore never
// decreases, IsSaved never unsets. Scenario and level are fixed at creation.
type Conversation struct {
	ID                        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID                    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User                      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ScenarioID                uuid.UUID      `gorm:"type:uuid;not null;index" json:"scenario_id"`
	Scenario                  *Scenario      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ScenarioID;references:ID" json:"scenario,omitempty"`
	HskLevelID                uuid.UUID      `gorm:"type:uuid;not null;column:hsk_level_id" json:"hsk_level_id"`
	HskLevel                  *HskLevel      `gorm:"constraint:OnDelete:CASCADE;foreignKey:HskLevelID;references:ID" json:"hsk_level,omitempty"`
	IsCompleted               bool           `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
	CurrentScore              int            `gorm:"not null;default:0;column:current_score" json:"current_score"`
	InspirationConversationID *uuid.UUID     `gorm:"type:uuid;column:inspiration_conversation_id" json:"inspiration_conversation_id,omitempty"`
	IsSaved                   bool           `gorm:"not null;default:false;column:is_saved" json:"is_saved"`
	SavedName                 *string        `gorm:"column:saved_name" json:"saved_name,omitempty"`
	Metadata                  datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt                 time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt                 time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }
