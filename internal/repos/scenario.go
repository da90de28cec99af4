package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
)

const (
	ScenarioFilterAll        = "all"
	ScenarioFilterPredefined = "predefined"
	ScenarioFilterUser       = "user"
)

type ScenarioRepo interface {
	Create(ctx context.Context, tx *gorm.DB, scenarios []*types.Scenario) ([]*types.Scenario, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Scenario, error)
	GetAll(ctx context.Context, tx *gorm.DB, filter string) ([]*types.Scenario, error)
	GetByCreatedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Scenario, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	TouchLastUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, usedAt time.Time) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type scenarioRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScenarioRepo(db *gorm.DB, baseLog *logger.Logger) ScenarioRepo {
	repoLog := baseLog.With("repo", "ScenarioRepo")
	return &scenarioRepo{db: db, log: repoLog}
}

func (r *scenarioRepo) Create(ctx context.Context, tx *gorm.DB, scenarios []*types.Scenario) ([]*types.Scenario, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(scenarios) == 0 {
		return []*types.Scenario{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&scenarios).Error; err != nil {
		return nil, err
	}
	return scenarios, nil
}

func (r *scenarioRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Scenario, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Scenario
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("SuggestedHskLevel").
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scenarioRepo) GetAll(ctx context.Context, tx *gorm.DB, filter string) ([]*types.Scenario, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Preload("SuggestedHskLevel")
	switch filter {
	case ScenarioFilterPredefined:
		query = query.Where("is_predefined = ?", true)
	case ScenarioFilterUser:
		query = query.Where("is_predefined = ?", false)
	}

	var results []*types.Scenario
	if err := query.Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scenarioRepo) GetByCreatedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Scenario, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Scenario
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("SuggestedHskLevel").
		Where("created_by_user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scenarioRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Scenario{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

func (r *scenarioRepo) TouchLastUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, usedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Scenario{}).
		Where("id = ?", id).
		Update("last_used_at", usedAt).Error; err != nil {
		return err
	}
	return nil
}

func (r *scenarioRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Scenario{}).Error; err != nil {
		return err
	}
	return nil
}
