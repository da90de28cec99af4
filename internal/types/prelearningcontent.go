package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PreLearningContent memoizes generated study material per (scenario, level).
// An entry is only served while expires_at is strictly in the future; expired
// rows are inert until the purge sweep removes them.
type PreLearningContent struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ScenarioID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_prelearning_key" json:"scenario_id"`
	Scenario          *Scenario      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ScenarioID;references:ID" json:"scenario,omitempty"`
	HskLevelID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_prelearning_key" json:"hsk_level_id"`
	HskLevel          *HskLevel      `gorm:"constraint:OnDelete:CASCADE;foreignKey:HskLevelID;references:ID" json:"hsk_level,omitempty"`
	GeneratedByUserID *uuid.UUID     `gorm:"type:uuid;index;column:generated_by_user_id" json:"generated_by_user_id,omitempty"`
	Content           datatypes.JSON `gorm:"type:jsonb;not null;column:content" json:"content"`
	GeneratedAt       time.Time      `gorm:"not null;default:now();column:generated_at" json:"generated_at"`
	ExpiresAt         time.Time      `gorm:"not null;index;column:expires_at" json:"expires_at"`
}

func (PreLearningContent) TableName() string { return "scenario_pre_learning_cache" }
