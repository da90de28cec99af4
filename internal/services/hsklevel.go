package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/apperr"
	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/repos"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type CreateHskLevelInput struct {
	Name        string
	Description string
	Level       int
	Metadata    datatypes.JSON
}

// HskLevelPatch applies optional fields one by one; nil means untouched.
type HskLevelPatch struct {
	Name        *string
	Description *string
	Level       *int
	Metadata    datatypes.JSON
}

type HskLevelService interface {
	List(ctx context.Context) ([]*types.HskLevel, error)
	Get(ctx context.Context, id uuid.UUID) (*types.HskLevel, error)
	Create(ctx context.Context, input CreateHskLevelInput) (*types.HskLevel, error)
	Update(ctx context.Context, id uuid.UUID, patch HskLevelPatch) (*types.HskLevel, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type hskLevelService struct {
	db           *gorm.DB
	log          *logger.Logger
	hskLevelRepo repos.HskLevelRepo
}

func NewHskLevelService(db *gorm.DB, baseLog *logger.Logger, hskLevelRepo repos.HskLevelRepo) HskLevelService {
	serviceLog := baseLog.With("service", "HskLevelService")
	return &hskLevelService{db: db, log: serviceLog, hskLevelRepo: hskLevelRepo}
}

func (hs *hskLevelService) List(ctx context.Context) ([]*types.HskLevel, error) {
	levels, err := hs.hskLevelRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list hsk levels: %w", err)
	}
	return levels, nil
}

func (hs *hskLevelService) Get(ctx context.Context, id uuid.UUID) (*types.HskLevel, error) {
	levels, err := hs.hskLevelRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load hsk level: %w", err)
	}
	if len(levels) == 0 {
		return nil, apperr.NotFound("hsk level")
	}
	return levels[0], nil
}

func (hs *hskLevelService) Create(ctx context.Context, input CreateHskLevelInput) (*types.HskLevel, error) {
	if input.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if input.Level <= 0 {
		return nil, apperr.Validation("level must be positive")
	}

	existing, err := hs.hskLevelRepo.GetByLevels(ctx, nil, []int{input.Level})
	if err != nil {
		return nil, fmt.Errorf("check level uniqueness: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperr.Conflict(fmt.Sprintf("hsk level %d already exists", input.Level))
	}

	now := time.Now()
	level := &types.HskLevel{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Level:       input.Level,
		Metadata:    input.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := hs.hskLevelRepo.Create(ctx, nil, []*types.HskLevel{level}); err != nil {
		hs.log.Error("Create hsk level failed", "error", err, "level", input.Level)
		return nil, fmt.Errorf("create hsk level: %w", err)
	}
	return level, nil
}

func (hs *hskLevelService) Update(ctx context.Context, id uuid.UUID, patch HskLevelPatch) (*types.HskLevel, error) {
	level, err := hs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Level != nil && *patch.Level != level.Level {
		existing, err := hs.hskLevelRepo.GetByLevels(ctx, nil, []int{*patch.Level})
		if err != nil {
			return nil, fmt.Errorf("check level uniqueness: %w", err)
		}
		if len(existing) > 0 {
			return nil, apperr.Conflict(fmt.Sprintf("hsk level %d already exists", *patch.Level))
		}
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if patch.Name != nil {
		fields["name"] = *patch.Name
		level.Name = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
		level.Description = *patch.Description
	}
	if patch.Level != nil {
		fields["level"] = *patch.Level
		level.Level = *patch.Level
	}
	if patch.Metadata != nil {
		fields["metadata"] = patch.Metadata
		level.Metadata = patch.Metadata
	}

	if err := hs.hskLevelRepo.UpdateFields(ctx, nil, id, fields); err != nil {
		return nil, fmt.Errorf("update hsk level: %w", err)
	}
	return level, nil
}

func (hs *hskLevelService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := hs.Get(ctx, id); err != nil {
		return err
	}
	if err := hs.hskLevelRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("delete hsk level: %w", err)
	}
	return nil
}
