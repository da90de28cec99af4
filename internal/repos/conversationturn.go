package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type ConversationTurnRepo interface {
	Create(ctx context.Context, tx *gorm.DB, turns []*types.ConversationTurn) ([]*types.ConversationTurn, error)
	ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.ConversationTurn, error)
	MaxTurnNumber(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int, error)
	// CountUserTurnsSince counts user-speaker turns across all of the user's
	// conversations, which is what the daily turn quota is measured against.
	CountUserTurnsSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error)
}

type conversationTurnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationTurnRepo(db *gorm.DB, baseLog *logger.Logger) ConversationTurnRepo {
	repoLog := baseLog.With("repo", "ConversationTurnRepo")
	return &conversationTurnRepo{db: db, log: repoLog}
}

func (r *conversationTurnRepo) Create(ctx context.Context, tx *gorm.DB, turns []*types.ConversationTurn) ([]*types.ConversationTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(turns) == 0 {
		return []*types.ConversationTurn{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *conversationTurnRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.ConversationTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ConversationTurn
	if conversationID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("turn_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conversationTurnRepo) MaxTurnNumber(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if conversationID == uuid.Nil {
		return 0, nil
	}

	var max int
	if err := transaction.WithContext(ctx).
		Model(&types.ConversationTurn{}).
		Where("conversation_id = ?", conversationID).
		Select("COALESCE(MAX(turn_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func (r *conversationTurnRepo) CountUserTurnsSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ConversationTurn{}).
		Joins("JOIN conversation ON conversation.id = conversation_turn.conversation_id").
		Where("conversation.user_id = ?", userID).
		Where("conversation_turn.speaker = ?", types.SpeakerUser).
		Where("conversation_turn.created_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
