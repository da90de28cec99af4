package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/requestdata"
	"github.com/huayu-app/huayu-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func ctxForUser(userID uuid.UUID, tier string) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: userID,
		Tier:   tier,
	})
}

type fakeConversationRepo struct {
	conversations []*types.Conversation
}

func (f *fakeConversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error) {
	f.conversations = append(f.conversations, conversations...)
	return conversations, nil
}

func (f *fakeConversationRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error) {
	for _, c := range f.conversations {
		if c.ID == id && c.UserID == userID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationRepo) GetSavedByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	for _, c := range f.conversations {
		if c.ID == id && c.IsSaved {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, onlySaved bool) ([]*types.Conversation, error) {
	var out []*types.Conversation
	for _, c := range f.conversations {
		if c.UserID != userID {
			continue
		}
		if onlySaved && !c.IsSaved {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeConversationRepo) CountStartedSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	for _, c := range f.conversations {
		if c.UserID == userID && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeConversationRepo) CountSaved(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range f.conversations {
		if c.UserID == userID && c.IsSaved {
			n++
		}
	}
	return n, nil
}

func (f *fakeConversationRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	for _, c := range f.conversations {
		if c.ID != id {
			continue
		}
		if v, ok := fields["current_score"]; ok {
			c.CurrentScore = v.(int)
		}
		if v, ok := fields["is_completed"]; ok {
			c.IsCompleted = v.(bool)
		}
		if v, ok := fields["is_saved"]; ok {
			c.IsSaved = v.(bool)
		}
		if v, ok := fields["saved_name"]; ok {
			name := v.(string)
			c.SavedName = &name
		}
		if v, ok := fields["updated_at"]; ok {
			c.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

type fakeTurnRepo struct {
	turns []*types.ConversationTurn
	// owners maps conversation id to user id so the daily turn count can
	// filter by user the way the SQL join does.
	owners map[uuid.UUID]uuid.UUID
}

func (f *fakeTurnRepo) Create(ctx context.Context, tx *gorm.DB, turns []*types.ConversationTurn) ([]*types.ConversationTurn, error) {
	f.turns = append(f.turns, turns...)
	return turns, nil
}

func (f *fakeTurnRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.ConversationTurn, error) {
	var out []*types.ConversationTurn
	for _, t := range f.turns {
		if t.ConversationID == conversationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnNumber < out[j].TurnNumber })
	return out, nil
}

func (f *fakeTurnRepo) MaxTurnNumber(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int, error) {
	max := 0
	for _, t := range f.turns {
		if t.ConversationID == conversationID && t.TurnNumber > max {
			max = t.TurnNumber
		}
	}
	return max, nil
}

func (f *fakeTurnRepo) CountUserTurnsSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	for _, t := range f.turns {
		if t.Speaker != types.SpeakerUser || t.CreatedAt.Before(since) {
			continue
		}
		if f.owners[t.ConversationID] == userID {
			n++
		}
	}
	return n, nil
}

type fakeScenarioRepo struct {
	scenarios []*types.Scenario
	touched   []uuid.UUID
}

func (f *fakeScenarioRepo) Create(ctx context.Context, tx *gorm.DB, scenarios []*types.Scenario) ([]*types.Scenario, error) {
	f.scenarios = append(f.scenarios, scenarios...)
	return scenarios, nil
}

func (f *fakeScenarioRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Scenario, error) {
	var out []*types.Scenario
	for _, id := range ids {
		for _, s := range f.scenarios {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (f *fakeScenarioRepo) GetAll(ctx context.Context, tx *gorm.DB, filter string) ([]*types.Scenario, error) {
	return f.scenarios, nil
}

func (f *fakeScenarioRepo) GetByCreatedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Scenario, error) {
	var out []*types.Scenario
	for _, s := range f.scenarios {
		if s.CreatedByUserID != nil && *s.CreatedByUserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScenarioRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (f *fakeScenarioRepo) TouchLastUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, usedAt time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeScenarioRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return nil
}

type fakeHskLevelRepo struct {
	levels []*types.HskLevel
}

func (f *fakeHskLevelRepo) Create(ctx context.Context, tx *gorm.DB, levels []*types.HskLevel) ([]*types.HskLevel, error) {
	f.levels = append(f.levels, levels...)
	return levels, nil
}

func (f *fakeHskLevelRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.HskLevel, error) {
	var out []*types.HskLevel
	for _, id := range ids {
		for _, l := range f.levels {
			if l.ID == id {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (f *fakeHskLevelRepo) GetByLevels(ctx context.Context, tx *gorm.DB, levels []int) ([]*types.HskLevel, error) {
	var out []*types.HskLevel
	for _, n := range levels {
		for _, l := range f.levels {
			if l.Level == n {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (f *fakeHskLevelRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.HskLevel, error) {
	return f.levels, nil
}

func (f *fakeHskLevelRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (f *fakeHskLevelRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return nil
}

type fakePreLearningRepo struct {
	entries []*types.PreLearningContent
}

func (f *fakePreLearningRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.PreLearningContent) ([]*types.PreLearningContent, error) {
	f.entries = append(f.entries, entries...)
	return entries, nil
}

func (f *fakePreLearningRepo) GetValid(ctx context.Context, tx *gorm.DB, scenarioID, hskLevelID uuid.UUID, now time.Time) (*types.PreLearningContent, error) {
	for _, e := range f.entries {
		if e.ScenarioID == scenarioID && e.HskLevelID == hskLevelID && e.ExpiresAt.After(now) {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakePreLearningRepo) CountGeneratedByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	for _, e := range f.entries {
		if e.GeneratedByUserID != nil && *e.GeneratedByUserID == userID && !e.GeneratedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakePreLearningRepo) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	var kept []*types.PreLearningContent
	var deleted int64
	for _, e := range f.entries {
		if e.ExpiresAt.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

type fakeDialogueProvider struct {
	opening  string
	reply    string
	feedback *Feedback
}

func (f *fakeDialogueProvider) ProduceOpening(ctx context.Context, scenario *types.Scenario, level *types.HskLevel) (string, error) {
	return f.opening, nil
}

func (f *fakeDialogueProvider) ProduceReply(ctx context.Context, scenario *types.Scenario, level *types.HskLevel, inputText string, history []*types.ConversationTurn) (string, *Feedback, error) {
	return f.reply, f.feedback, nil
}

type fixedScorer struct{ score int }

func (s fixedScorer) ComputeTurnScore(inputText, replyText string, feedback *Feedback) int {
	return s.score
}
