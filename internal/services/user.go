package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/apperr"
	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/repos"
	"github.com/huayu-app/huayu-backend/internal/requestdata"
	"github.com/huayu-app/huayu-backend/internal/types"
)

// UserPatch covers the profile fields a user may change about themselves.
// Identity and entitlement fields (id, email, tier, admin) are deliberately
// absent.
type UserPatch struct {
	DisplayName *string
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, patch UserPatch) (*types.User, error)
	// UpdateSettings merges the given keys into the stored settings blob.
	UpdateSettings(ctx context.Context, settings map[string]interface{}) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := baseLog.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apperr.NotFound("user")
	}
	return users[0], nil
}

func (us *userService) UpdateProfile(ctx context.Context, patch UserPatch) (*types.User, error) {
	user, err := us.GetMe(ctx)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if patch.DisplayName != nil {
		fields["display_name"] = *patch.DisplayName
		user.DisplayName = *patch.DisplayName
	}

	if err := us.userRepo.UpdateFields(ctx, nil, user.ID, fields); err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return user, nil
}

func (us *userService) UpdateSettings(ctx context.Context, settings map[string]interface{}) (*types.User, error) {
	user, err := us.GetMe(ctx)
	if err != nil {
		return nil, err
	}

	merged := map[string]interface{}{}
	if len(user.Settings) > 0 {
		if err := json.Unmarshal(user.Settings, &merged); err != nil {
			us.log.Warn("Stored settings unreadable, replacing", "error", err, "user_id", user.ID)
			merged = map[string]interface{}{}
		}
	}
	for k, v := range settings {
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	if err := us.userRepo.UpdateFields(ctx, nil, user.ID, map[string]interface{}{
		"settings":   datatypes.JSON(raw),
		"updated_at": time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("update user settings: %w", err)
	}
	user.Settings = datatypes.JSON(raw)
	return user, nil
}
