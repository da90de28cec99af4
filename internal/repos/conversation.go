package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error)
	// GetByIDForUser scopes the lookup to the owner; a conversation that
	// exists but belongs to someone else comes back nil, same as a missing
	// one.
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error)
	GetSavedByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, onlySaved bool) ([]*types.Conversation, error)
	CountStartedSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error)
	CountSaved(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	repoLog := baseLog.With("repo", "ConversationRepo")
	return &conversationRepo{db: db, log: repoLog}
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(conversations) == 0 {
		return []*types.Conversation{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}

	var results []*types.Conversation
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *conversationRepo) GetSavedByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var results []*types.Conversation
	if err := transaction.WithContext(ctx).
		Where("id = ? AND is_saved = ?", id, true).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *conversationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, onlySaved bool) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Conversation
	if userID == uuid.Nil {
		return results, nil
	}

	query := transaction.WithContext(ctx).
		Preload("Scenario").
		Where("user_id = ?", userID)
	if onlySaved {
		query = query.Where("is_saved = ?", true)
	}

	if err := query.Order("updated_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conversationRepo) CountStartedSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *conversationRepo) CountSaved(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("user_id = ? AND is_saved = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *conversationRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}
