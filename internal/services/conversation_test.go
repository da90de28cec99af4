package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/huayu-app/huayu-backend/internal/apperr"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type conversationFixture struct {
	userID   uuid.UUID
	scenario *types.Scenario
	level    *types.HskLevel

	convRepo     *fakeConversationRepo
	turnRepo     *fakeTurnRepo
	scenarioRepo *fakeScenarioRepo
	levelRepo    *fakeHskLevelRepo
	provider     *fakeDialogueProvider
	service      ConversationService
}

func newConversationFixture(t *testing.T) *conversationFixture {
	t.Helper()
	f := &conversationFixture{
		userID: uuid.New(),
		scenario: &types.Scenario{
			ID: uuid.New(), Name: "At the Restaurant", IsPredefined: true,
		},
		level: &types.HskLevel{ID: uuid.New(), Name: "HSK Level 1", Level: 1},
	}
	f.convRepo = &fakeConversationRepo{}
	f.turnRepo = &fakeTurnRepo{owners: map[uuid.UUID]uuid.UUID{}}
	f.scenarioRepo = &fakeScenarioRepo{scenarios: []*types.Scenario{f.scenario}}
	f.levelRepo = &fakeHskLevelRepo{levels: []*types.HskLevel{f.level}}
	f.provider = &fakeDialogueProvider{opening: "你好！", reply: "很高兴认识你！"}

	quota := NewQuotaService(nil, testLogger(t), f.convRepo, f.turnRepo, &fakePreLearningRepo{}, DefaultQuotaLimits())
	f.service = NewConversationService(
		nil, testLogger(t),
		f.convRepo, f.turnRepo, f.scenarioRepo, f.levelRepo,
		quota, f.provider, fixedScorer{score: 7},
	)
	return f
}

func (f *conversationFixture) start(t *testing.T) *StartConversationResult {
	t.Helper()
	result, err := f.service.Start(ctxForUser(f.userID, types.TierFree), StartConversationInput{
		ScenarioID: f.scenario.ID,
		HskLevelID: f.level.ID,
	})
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	f.turnRepo.owners[result.Conversation.ID] = f.userID
	return result
}

func TestStartConversationCreatesOpeningTurn(t *testing.T) {
	f := newConversationFixture(t)
	result := f.start(t)

	if result.Conversation.IsCompleted {
		t.Error("new conversation must be active")
	}
	if result.Conversation.CurrentScore != 0 {
		t.Errorf("new conversation score = %d, want 0", result.Conversation.CurrentScore)
	}
	if result.OpeningTurn.TurnNumber != 1 {
		t.Errorf("opening turn number = %d, want 1", result.OpeningTurn.TurnNumber)
	}
	if result.OpeningTurn.Speaker != types.SpeakerAI {
		t.Errorf("opening speaker = %q, want %q", result.OpeningTurn.Speaker, types.SpeakerAI)
	}
	if result.OpeningTurn.AIResponseText != "你好！" {
		t.Errorf("opening text = %q", result.OpeningTurn.AIResponseText)
	}
	if len(f.scenarioRepo.touched) != 1 || f.scenarioRepo.touched[0] != f.scenario.ID {
		t.Error("starting must touch the scenario's last-used timestamp")
	}
}

func TestStartConversationUnknownScenario(t *testing.T) {
	f := newConversationFixture(t)
	_, err := f.service.Start(ctxForUser(f.userID, types.TierFree), StartConversationInput{
		ScenarioID: uuid.New(),
		HskLevelID: f.level.ID,
	})
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindNotFound {
		t.Fatalf("want not_found for unknown scenario, got %v", err)
	}
}

func TestStartConversationInspirationMustBeSaved(t *testing.T) {
	f := newConversationFixture(t)

	// An existing but unsaved conversation is not a valid inspiration.
	unsaved := f.start(t)
	_, err := f.service.Start(ctxForUser(f.userID, types.TierFree), StartConversationInput{
		ScenarioID:                f.scenario.ID,
		HskLevelID:                f.level.ID,
		InspirationConversationID: &unsaved.Conversation.ID,
	})
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindNotFound {
		t.Fatalf("want not_found for unsaved inspiration, got %v", err)
	}

	if _, err := f.service.Save(ctxForUser(f.userID, types.TierFree), unsaved.Conversation.ID, nil); err != nil {
		t.Fatalf("save conversation: %v", err)
	}
	if _, err := f.service.Start(ctxForUser(f.userID, types.TierFree), StartConversationInput{
		ScenarioID:                f.scenario.ID,
		HskLevelID:                f.level.ID,
		InspirationConversationID: &unsaved.Conversation.ID,
	}); err != nil {
		t.Fatalf("saved inspiration should be accepted, got %v", err)
	}
}

func TestSubmitTurnAppendsContiguousPair(t *testing.T) {
	f := newConversationFixture(t)
	started := f.start(t)
	ctx := ctxForUser(f.userID, types.TierFree)

	result, err := f.service.SubmitTurn(ctx, started.Conversation.ID, SubmitTurnInput{
		InputText: "你好，我叫李明。",
		InputMode: types.InputModeText,
	})
	if err != nil {
		t.Fatalf("submit turn: %v", err)
	}
	if result.AITurn.TurnNumber != 3 {
		t.Errorf("ai turn number = %d, want 3", result.AITurn.TurnNumber)
	}
	if result.UpdatedScore != 7 {
		t.Errorf("updated score = %d, want 7", result.UpdatedScore)
	}

	turns, err := f.service.GetTurns(ctx, started.Conversation.ID)
	if err != nil {
		t.Fatalf("get turns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("turn count = %d, want 3", len(turns))
	}
	for i, turn := range turns {
		if turn.TurnNumber != i+1 {
			t.Errorf("turn[%d].TurnNumber = %d, want %d", i, turn.TurnNumber, i+1)
		}
	}
	if turns[1].Speaker != types.SpeakerUser || turns[2].Speaker != types.SpeakerAI {
		t.Errorf("speakers = %q,%q, want user,ai", turns[1].Speaker, turns[2].Speaker)
	}

	// Score accumulates across turns and never resets.
	second, err := f.service.SubmitTurn(ctx, started.Conversation.ID, SubmitTurnInput{
		InputText: "我想吃面条。",
		InputMode: types.InputModeText,
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.UpdatedScore != 14 {
		t.Errorf("score after two turns = %d, want 14", second.UpdatedScore)
	}
	if second.AITurn.TurnNumber != 5 {
		t.Errorf("second ai turn number = %d, want 5", second.AITurn.TurnNumber)
	}
}

func TestSubmitTurnOnCompletedConversation(t *testing.T) {
	f := newConversationFixture(t)
	started := f.start(t)
	ctx := ctxForUser(f.userID, types.TierFree)

	if _, err := f.service.End(ctx, started.Conversation.ID); err != nil {
		t.Fatalf("end conversation: %v", err)
	}

	before := len(f.turnRepo.turns)
	_, err := f.service.SubmitTurn(ctx, started.Conversation.ID, SubmitTurnInput{
		InputText: "你好",
		InputMode: types.InputModeText,
	})
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindInvalidState {
		t.Fatalf("want invalid_state on completed conversation, got %v", err)
	}
	if len(f.turnRepo.turns) != before {
		t.Error("rejected turn must not write any rows")
	}
}

func TestSubmitTurnValidation(t *testing.T) {
	f := newConversationFixture(t)
	started := f.start(t)
	ctx := ctxForUser(f.userID, types.TierFree)

	cases := []struct {
		name  string
		input SubmitTurnInput
	}{
		{"empty text", SubmitTurnInput{InputText: "", InputMode: types.InputModeText}},
		{"bad mode", SubmitTurnInput{InputText: "你好", InputMode: "telepathy"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.SubmitTurn(ctx, started.Conversation.ID, tc.input)
			if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindValidation {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestConversationOwnershipIsOpaque(t *testing.T) {
	f := newConversationFixture(t)
	started := f.start(t)

	// Another user sees not_found, indistinguishable from a missing id.
	strangerCtx := ctxForUser(uuid.New(), types.TierFree)
	_, err := f.service.SubmitTurn(strangerCtx, started.Conversation.ID, SubmitTurnInput{
		InputText: "你好",
		InputMode: types.InputModeText,
	})
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindNotFound {
		t.Fatalf("want not_found for foreign conversation, got %v", err)
	}
	if _, err := f.service.GetTurns(strangerCtx, started.Conversation.ID); apperr.From(err) == nil {
		t.Fatalf("want not_found listing foreign turns, got %v", err)
	}
}

func TestEndConversationIsIdempotent(t *testing.T) {
	f := newConversationFixture(t)
	started := f.start(t)
	ctx := ctxForUser(f.userID, types.TierFree)

	first, err := f.service.End(ctx, started.Conversation.ID)
	if err != nil {
		t.Fatalf("first end: %v", err)
	}
	if !first.IsCompleted {
		t.Error("conversation not marked completed")
	}

	second, err := f.service.End(ctx, started.Conversation.ID)
	if err != nil {
		t.Fatalf("second end must succeed, got %v", err)
	}
	if !second.IsCompleted {
		t.Error("second end lost the completed flag")
	}
}

func TestSaveConversation(t *testing.T) {
	f := newConversationFixture(t)
	started := f.start(t)
	ctx := ctxForUser(f.userID, types.TierFree)

	name := "Ordering noodles"
	saved, err := f.service.Save(ctx, started.Conversation.ID, &name)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !saved.IsSaved || saved.SavedName == nil || *saved.SavedName != name {
		t.Errorf("saved = %v name = %v", saved.IsSaved, saved.SavedName)
	}

	// Renaming an already-saved conversation skips the quota check.
	for i := 0; i < 5; i++ {
		f.convRepo.conversations = append(f.convRepo.conversations, &types.Conversation{
			ID: uuid.New(), UserID: f.userID, IsSaved: true,
		})
	}
	rename := "New name"
	if _, err := f.service.Save(ctx, started.Conversation.ID, &rename); err != nil {
		t.Fatalf("rename of saved conversation must bypass quota, got %v", err)
	}

	// A fresh save at the cap is denied.
	fresh := f.start(t)
	_, err = f.service.Save(ctx, fresh.Conversation.ID, nil)
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindQuotaExceeded {
		t.Fatalf("want quota_exceeded for save past cap, got %v", err)
	}
}

func TestListUserConversationsSavedFilter(t *testing.T) {
	f := newConversationFixture(t)
	ctx := ctxForUser(f.userID, types.TierFree)

	first := f.start(t)
	f.start(t)
	if _, err := f.service.Save(ctx, first.Conversation.ID, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := f.service.ListUserConversations(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}

	saved, err := f.service.ListUserConversations(ctx, true)
	if err != nil {
		t.Fatalf("list saved: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != first.Conversation.ID {
		t.Errorf("saved filter returned %d rows", len(saved))
	}
}

func TestNegativeScoreIsClamped(t *testing.T) {
	f := newConversationFixture(t)
	quota := NewQuotaService(nil, testLogger(t), f.convRepo, f.turnRepo, &fakePreLearningRepo{}, DefaultQuotaLimits())
	f.service = NewConversationService(
		nil, testLogger(t),
		f.convRepo, f.turnRepo, f.scenarioRepo, f.levelRepo,
		quota, f.provider, fixedScorer{score: -3},
	)
	started := f.start(t)

	result, err := f.service.SubmitTurn(ctxForUser(f.userID, types.TierFree), started.Conversation.ID, SubmitTurnInput{
		InputText: "你好",
		InputMode: types.InputModeText,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.UpdatedScore != 0 {
		t.Errorf("score = %d, want 0 (never decreases)", result.UpdatedScore)
	}
}
