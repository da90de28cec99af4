package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type HskLevelRepo interface {
	Create(ctx context.Context, tx *gorm.DB, levels []*types.HskLevel) ([]*types.HskLevel, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.HskLevel, error)
	GetByLevels(ctx context.Context, tx *gorm.DB, levels []int) ([]*types.HskLevel, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.HskLevel, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type hskLevelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHskLevelRepo(db *gorm.DB, baseLog *logger.Logger) HskLevelRepo {
	repoLog := baseLog.With("repo", "HskLevelRepo")
	return &hskLevelRepo{db: db, log: repoLog}
}

func (r *hskLevelRepo) Create(ctx context.Context, tx *gorm.DB, levels []*types.HskLevel) ([]*types.HskLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(levels) == 0 {
		return []*types.HskLevel{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

func (r *hskLevelRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.HskLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.HskLevel
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *hskLevelRepo) GetByLevels(ctx context.Context, tx *gorm.DB, levels []int) ([]*types.HskLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.HskLevel
	if len(levels) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("level IN ?", levels).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *hskLevelRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.HskLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.HskLevel
	if err := transaction.WithContext(ctx).
		Order("level ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *hskLevelRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.HskLevel{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

func (r *hskLevelRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.HskLevel{}).Error; err != nil {
		return err
	}
	return nil
}
