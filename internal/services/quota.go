package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/apperr"
	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/repos"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type QuotaAction string

const (
	QuotaActionStartConversation   QuotaAction = "startConversation"
	QuotaActionSubmitTurn          QuotaAction = "submitTurn"
	QuotaActionSaveConversation    QuotaAction = "saveConversation"
	QuotaActionGeneratePreLearning QuotaAction = "generatePreLearning"
)

// QuotaLimits carries the free-tier ceilings. Daily windows reset at midnight
// in Location; SavedConversations is an all-time cap, not a daily one.
type QuotaLimits struct {
	DailyConversations int
	DailyTurns         int
	SavedConversations int
	DailyPreLearning   int
	Location           *time.Location
}

func DefaultQuotaLimits() QuotaLimits {
	return QuotaLimits{
		DailyConversations: 5,
		DailyTurns:         30,
		SavedConversations: 5,
		DailyPreLearning:   5,
		Location:           time.UTC,
	}
}

// QuotaService decides whether a user may perform a counted action. It is a
// pure read-then-decide check: counts come from the conversation/turn/cache
// history, nothing is reserved, and the caller mutates only after a nil
// return. Two concurrent requests can both pass the same check before either
// commits; callers needing strictness must serialize at the storage layer.
type QuotaService interface {
	Check(ctx context.Context, tx *gorm.DB, userID uuid.UUID, tier string, action QuotaAction) error
}

type quotaService struct {
	db               *gorm.DB
	log              *logger.Logger
	conversationRepo repos.ConversationRepo
	turnRepo         repos.ConversationTurnRepo
	preLearningRepo  repos.PreLearningRepo
	limits           QuotaLimits
	now              func() time.Time
}

func NewQuotaService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conversationRepo repos.ConversationRepo,
	turnRepo repos.ConversationTurnRepo,
	preLearningRepo repos.PreLearningRepo,
	limits QuotaLimits,
) QuotaService {
	serviceLog := baseLog.With("service", "QuotaService")
	if limits.Location == nil {
		limits.Location = time.UTC
	}
	return &quotaService{
		db:               db,
		log:              serviceLog,
		conversationRepo: conversationRepo,
		turnRepo:         turnRepo,
		preLearningRepo:  preLearningRepo,
		limits:           limits,
		now:              time.Now,
	}
}

func (qs *quotaService) Check(ctx context.Context, tx *gorm.DB, userID uuid.UUID, tier string, action QuotaAction) error {
	if tier == types.TierPremium {
		return nil
	}

	dayStart := qs.startOfDay(qs.now())

	switch action {
	case QuotaActionStartConversation:
		count, err := qs.conversationRepo.CountStartedSince(ctx, tx, userID, dayStart)
		if err != nil {
			return fmt.Errorf("count conversations started today: %w", err)
		}
		return qs.decide(action, qs.limits.DailyConversations, count, userID)

	case QuotaActionSubmitTurn:
		count, err := qs.turnRepo.CountUserTurnsSince(ctx, tx, userID, dayStart)
		if err != nil {
			return fmt.Errorf("count user turns today: %w", err)
		}
		return qs.decide(action, qs.limits.DailyTurns, count, userID)

	case QuotaActionSaveConversation:
		count, err := qs.conversationRepo.CountSaved(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("count saved conversations: %w", err)
		}
		return qs.decide(action, qs.limits.SavedConversations, count, userID)

	case QuotaActionGeneratePreLearning:
		count, err := qs.preLearningRepo.CountGeneratedByUserSince(ctx, tx, userID, dayStart)
		if err != nil {
			return fmt.Errorf("count pre-learning generations today: %w", err)
		}
		return qs.decide(action, qs.limits.DailyPreLearning, count, userID)

	default:
		return fmt.Errorf("unknown quota action %q", action)
	}
}

func (qs *quotaService) decide(action QuotaAction, limit int, current int64, userID uuid.UUID) error {
	if current < int64(limit) {
		return nil
	}
	qs.log.Debug("Quota check denied", "action", string(action), "limit", limit, "current", current, "user_id", userID)
	return apperr.QuotaExceeded(string(action), limit, int(current))
}

func (qs *quotaService) startOfDay(now time.Time) time.Time {
	local := now.In(qs.limits.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, qs.limits.Location)
}
