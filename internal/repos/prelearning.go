package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type PreLearningRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.PreLearningContent) ([]*types.PreLearningContent, error)
	// GetValid returns the newest entry for the key whose expires_at is
	// strictly after now. An entry expiring exactly at now is already inert.
	GetValid(ctx context.Context, tx *gorm.DB, scenarioID, hskLevelID uuid.UUID, now time.Time) (*types.PreLearningContent, error)
	CountGeneratedByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error)
	DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type preLearningRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreLearningRepo(db *gorm.DB, baseLog *logger.Logger) PreLearningRepo {
	repoLog := baseLog.With("repo", "PreLearningRepo")
	return &preLearningRepo{db: db, log: repoLog}
}

func (r *preLearningRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.PreLearningContent) ([]*types.PreLearningContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.PreLearningContent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *preLearningRepo) GetValid(ctx context.Context, tx *gorm.DB, scenarioID, hskLevelID uuid.UUID, now time.Time) (*types.PreLearningContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if scenarioID == uuid.Nil || hskLevelID == uuid.Nil {
		return nil, nil
	}

	var results []*types.PreLearningContent
	if err := transaction.WithContext(ctx).
		Where("scenario_id = ? AND hsk_level_id = ? AND expires_at > ?", scenarioID, hskLevelID, now).
		Order("generated_at DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *preLearningRepo) CountGeneratedByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PreLearningContent{}).
		Where("generated_by_user_id = ? AND generated_at >= ?", userID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *preLearningRepo) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&types.PreLearningContent{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
