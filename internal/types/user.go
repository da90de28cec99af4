package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TierFree    = "free"
	TierPremium = "premium"
)

type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email            string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password         string         `gorm:"not null;column:password" json:"-"`
	DisplayName      string         `gorm:"column:display_name" json:"display_name"`
	EmailVerified    bool           `gorm:"not null;default:false;column:email_verified" json:"email_verified"`
	SubscriptionTier string         `gorm:"not null;default:'free';column:subscription_tier" json:"subscription_tier"`
	IsAdmin          bool           `gorm:"not null;default:false;column:is_admin" json:"is_admin"`
	Settings         datatypes.JSON `gorm:"type:jsonb;column:settings" json:"settings,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) IsPremium() bool {
	return u != nil && u.SubscriptionTier == TierPremium
}
