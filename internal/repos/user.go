package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]interface{}) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.User
	if len(userEmails) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) UpdateFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}
