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

type StartConversationInput struct {
	ScenarioID                uuid.UUID
	HskLevelID                uuid.UUID
	InspirationConversationID *uuid.UUID
}

type StartConversationResult struct {
	Conversation *types.Conversation     `json:"conversation"`
	OpeningTurn  *types.ConversationTurn `json:"opening_turn"`
}

type SubmitTurnInput struct {
	InputText string
	InputMode string
	AudioURL  string
}

type SubmitTurnResult struct {
	AITurn       *types.ConversationTurn `json:"ai_turn"`
	UpdatedScore int                     `json:"updated_score"`
}

// ConversationService owns the session state machine: a conversation is
// created active, accumulates alternating user/AI turns starting from the AI
// opening at turn 1, and moves one-way to completed. Turn numbers are
// assigned here as max+1; concurrent SubmitTurn calls on the same
// conversation are not serialized, the unique (conversation_id, turn_number)
// index rejects the loser.
type ConversationService interface {
	Start(ctx context.Context, input StartConversationInput) (*StartConversationResult, error)
	SubmitTurn(ctx context.Context, conversationID uuid.UUID, input SubmitTurnInput) (*SubmitTurnResult, error)
	End(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error)
	Save(ctx context.Context, conversationID uuid.UUID, name *string) (*types.Conversation, error)
	GetTurns(ctx context.Context, conversationID uuid.UUID) ([]*types.ConversationTurn, error)
	ListUserConversations(ctx context.Context, onlySaved bool) ([]*types.Conversation, error)
}

type conversationService struct {
	db               *gorm.DB
	log              *logger.Logger
	conversationRepo repos.ConversationRepo
	turnRepo         repos.ConversationTurnRepo
	scenarioRepo     repos.ScenarioRepo
	hskLevelRepo     repos.HskLevelRepo
	quotaService     QuotaService
	dialogueProvider DialogueProvider
	turnScorer       TurnScorer
}

func NewConversationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conversationRepo repos.ConversationRepo,
	turnRepo repos.ConversationTurnRepo,
	scenarioRepo repos.ScenarioRepo,
	hskLevelRepo repos.HskLevelRepo,
	quotaService QuotaService,
	dialogueProvider DialogueProvider,
	turnScorer TurnScorer,
) ConversationService {
	serviceLog := baseLog.With("service", "ConversationService")
	return &conversationService{
		db:               db,
		log:              serviceLog,
		conversationRepo: conversationRepo,
		turnRepo:         turnRepo,
		scenarioRepo:     scenarioRepo,
		hskLevelRepo:     hskLevelRepo,
		quotaService:     quotaService,
		dialogueProvider: dialogueProvider,
		turnScorer:       turnScorer,
	}
}

func (cs *conversationService) Start(ctx context.Context, input StartConversationInput) (*StartConversationResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	if input.ScenarioID == uuid.Nil {
		return nil, apperr.Validation("scenario id is required")
	}
	if input.HskLevelID == uuid.Nil {
		return nil, apperr.Validation("hsk level id is required")
	}

	scenarios, err := cs.scenarioRepo.GetByIDs(ctx, nil, []uuid.UUID{input.ScenarioID})
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, apperr.NotFound("scenario")
	}
	scenario := scenarios[0]

	levels, err := cs.hskLevelRepo.GetByIDs(ctx, nil, []uuid.UUID{input.HskLevelID})
	if err != nil {
		return nil, fmt.Errorf("load hsk level: %w", err)
	}
	if len(levels) == 0 {
		return nil, apperr.NotFound("hsk level")
	}
	level := levels[0]

	if input.InspirationConversationID != nil {
		inspiration, err := cs.conversationRepo.GetSavedByID(ctx, nil, *input.InspirationConversationID)
		if err != nil {
			return nil, fmt.Errorf("load inspiration conversation: %w", err)
		}
		if inspiration == nil {
			return nil, apperr.NotFound("saved conversation")
		}
	}

	if err := cs.quotaService.Check(ctx, nil, rd.UserID, rd.Tier, QuotaActionStartConversation); err != nil {
		return nil, err
	}

	openingText, err := cs.dialogueProvider.ProduceOpening(ctx, scenario, level)
	if err != nil {
		return nil, fmt.Errorf("produce opening turn: %w", err)
	}

	now := time.Now()
	conversation := &types.Conversation{
		ID:                        uuid.New(),
		UserID:                    rd.UserID,
		ScenarioID:                scenario.ID,
		HskLevelID:                level.ID,
		InspirationConversationID: input.InspirationConversationID,
		CurrentScore:              0,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	openingTurn := &types.ConversationTurn{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		TurnNumber:     1,
		Speaker:        types.SpeakerAI,
		AIResponseText: openingText,
		CreatedAt:      now,
	}

	// Conversation and opening turn land together; no reader sees one
	// without the other.
	if err := cs.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := cs.conversationRepo.Create(ctx, tx, []*types.Conversation{conversation}); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		if _, err := cs.turnRepo.Create(ctx, tx, []*types.ConversationTurn{openingTurn}); err != nil {
			return fmt.Errorf("create opening turn: %w", err)
		}
		if err := cs.scenarioRepo.TouchLastUsed(ctx, tx, scenario.ID, now); err != nil {
			return fmt.Errorf("touch scenario last used: %w", err)
		}
		return nil
	}); err != nil {
		cs.log.Error("Start conversation failed", "error", err, "user_id", rd.UserID, "scenario_id", scenario.ID)
		return nil, err
	}

	return &StartConversationResult{Conversation: conversation, OpeningTurn: openingTurn}, nil
}

func (cs *conversationService) SubmitTurn(ctx context.Context, conversationID uuid.UUID, input SubmitTurnInput) (*SubmitTurnResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	if input.InputText == "" {
		return nil, apperr.Validation("input text is required")
	}
	switch input.InputMode {
	case types.InputModeText, types.InputModeVoice:
	default:
		return nil, apperr.Validation("input mode must be text or voice")
	}

	conversation, err := cs.conversationRepo.GetByIDForUser(ctx, nil, conversationID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		return nil, apperr.NotFound("conversation")
	}
	if conversation.IsCompleted {
		return nil, apperr.InvalidState("conversation is already completed")
	}

	if err := cs.quotaService.Check(ctx, nil, rd.UserID, rd.Tier, QuotaActionSubmitTurn); err != nil {
		return nil, err
	}

	scenarios, err := cs.scenarioRepo.GetByIDs(ctx, nil, []uuid.UUID{conversation.ScenarioID})
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, apperr.NotFound("scenario")
	}
	levels, err := cs.hskLevelRepo.GetByIDs(ctx, nil, []uuid.UUID{conversation.HskLevelID})
	if err != nil {
		return nil, fmt.Errorf("load hsk level: %w", err)
	}
	if len(levels) == 0 {
		return nil, apperr.NotFound("hsk level")
	}

	history, err := cs.turnRepo.ListByConversation(ctx, nil, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}

	maxTurn, err := cs.turnRepo.MaxTurnNumber(ctx, nil, conversationID)
	if err != nil {
		return nil, fmt.Errorf("resolve next turn number: %w", err)
	}

	replyText, feedback, err := cs.dialogueProvider.ProduceReply(ctx, scenarios[0], levels[0], input.InputText, history)
	if err != nil {
		return nil, fmt.Errorf("produce ai reply: %w", err)
	}

	feedbackJSON, err := marshalFeedback(feedback)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	turnScore := cs.turnScorer.ComputeTurnScore(input.InputText, replyText, feedback)
	if turnScore < 0 {
		turnScore = 0
	}
	updatedScore := conversation.CurrentScore + turnScore

	now := time.Now()
	userTurn := &types.ConversationTurn{
		ID:             uuid.New(),
		ConversationID: conversationID,
		TurnNumber:     maxTurn + 1,
		Speaker:        types.SpeakerUser,
		UserInputText:  input.InputText,
		InputMode:      input.InputMode,
		UserAudioURL:   input.AudioURL,
		CreatedAt:      now,
	}
	aiTurn := &types.ConversationTurn{
		ID:             uuid.New(),
		ConversationID: conversationID,
		TurnNumber:     maxTurn + 2,
		Speaker:        types.SpeakerAI,
		AIResponseText: replyText,
		Feedback:       feedbackJSON,
		CreatedAt:      now,
	}

	// User turn, AI reply and score update commit as one unit: nobody reads
	// a user turn without its paired reply.
	if err := cs.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := cs.turnRepo.Create(ctx, tx, []*types.ConversationTurn{userTurn, aiTurn}); err != nil {
			return fmt.Errorf("append turns: %w", err)
		}
		if err := cs.conversationRepo.UpdateFields(ctx, tx, conversationID, map[string]interface{}{
			"current_score": updatedScore,
			"updated_at":    now,
		}); err != nil {
			return fmt.Errorf("update conversation score: %w", err)
		}
		return nil
	}); err != nil {
		cs.log.Error("SubmitTurn failed", "error", err, "conversation_id", conversationID, "user_id", rd.UserID)
		return nil, err
	}

	return &SubmitTurnResult{AITurn: aiTurn, UpdatedScore: updatedScore}, nil
}

func (cs *conversationService) End(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	conversation, err := cs.conversationRepo.GetByIDForUser(ctx, nil, conversationID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		return nil, apperr.NotFound("conversation")
	}

	// Ending twice is a no-op success; completion only moves forward.
	if conversation.IsCompleted {
		return conversation, nil
	}

	now := time.Now()
	if err := cs.conversationRepo.UpdateFields(ctx, nil, conversationID, map[string]interface{}{
		"is_completed": true,
		"updated_at":   now,
	}); err != nil {
		return nil, fmt.Errorf("mark conversation completed: %w", err)
	}
	conversation.IsCompleted = true
	conversation.UpdatedAt = now
	return conversation, nil
}

func (cs *conversationService) Save(ctx context.Context, conversationID uuid.UUID, name *string) (*types.Conversation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	conversation, err := cs.conversationRepo.GetByIDForUser(ctx, nil, conversationID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		return nil, apperr.NotFound("conversation")
	}

	// The saved cap only applies to the first save; a re-save just renames.
	if !conversation.IsSaved {
		if err := cs.quotaService.Check(ctx, nil, rd.UserID, rd.Tier, QuotaActionSaveConversation); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	fields := map[string]interface{}{
		"is_saved":   true,
		"updated_at": now,
	}
	if name != nil {
		fields["saved_name"] = *name
	}
	if err := cs.conversationRepo.UpdateFields(ctx, nil, conversationID, fields); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	conversation.IsSaved = true
	if name != nil {
		conversation.SavedName = name
	}
	conversation.UpdatedAt = now
	return conversation, nil
}

func (cs *conversationService) GetTurns(ctx context.Context, conversationID uuid.UUID) ([]*types.ConversationTurn, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	conversation, err := cs.conversationRepo.GetByIDForUser(ctx, nil, conversationID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		return nil, apperr.NotFound("conversation")
	}

	turns, err := cs.turnRepo.ListByConversation(ctx, nil, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	return turns, nil
}

func (cs *conversationService) ListUserConversations(ctx context.Context, onlySaved bool) ([]*types.Conversation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	conversations, err := cs.conversationRepo.ListByUser(ctx, nil, rd.UserID, onlySaved)
	if err != nil {
		cs.log.Error("ListUserConversations failed", "error", err, "user_id", rd.UserID)
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

func (cs *conversationService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if cs.db == nil {
		return fn(nil)
	}
	return cs.db.WithContext(ctx).Transaction(fn)
}

func marshalFeedback(feedback *Feedback) (datatypes.JSON, error) {
	if feedback == nil {
		return nil, nil
	}
	raw, err := json.Marshal(feedback)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
