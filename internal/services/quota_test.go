package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/huayu-app/huayu-backend/internal/apperr"
	"github.com/huayu-app/huayu-backend/internal/types"
)

func newQuotaServiceForTest(t *testing.T, convRepo *fakeConversationRepo, turnRepo *fakeTurnRepo, plRepo *fakePreLearningRepo, now time.Time) QuotaService {
	t.Helper()
	qs := NewQuotaService(nil, testLogger(t), convRepo, turnRepo, plRepo, DefaultQuotaLimits()).(*quotaService)
	qs.now = func() time.Time { return now }
	return qs
}

func TestQuotaPremiumBypassesAllLimits(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	convRepo := &fakeConversationRepo{}
	turnRepo := &fakeTurnRepo{owners: map[uuid.UUID]uuid.UUID{}}
	// Saturate every counter well past the free limits.
	for i := 0; i < 50; i++ {
		convID := uuid.New()
		convRepo.conversations = append(convRepo.conversations, &types.Conversation{
			ID: convID, UserID: userID, IsSaved: true, CreatedAt: now,
		})
		turnRepo.owners[convID] = userID
		turnRepo.turns = append(turnRepo.turns, &types.ConversationTurn{
			ConversationID: convID, Speaker: types.SpeakerUser, CreatedAt: now,
		})
	}
	plRepo := &fakePreLearningRepo{}
	qs := newQuotaServiceForTest(t, convRepo, turnRepo, plRepo, now)

	actions := []QuotaAction{
		QuotaActionStartConversation,
		QuotaActionSubmitTurn,
		QuotaActionSaveConversation,
		QuotaActionGeneratePreLearning,
	}
	for _, action := range actions {
		if err := qs.Check(context.Background(), nil, userID, types.TierPremium, action); err != nil {
			t.Fatalf("premium user denied for %s: %v", action, err)
		}
	}
}

func TestQuotaConversationLimitBoundary(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	convRepo := &fakeConversationRepo{}
	qs := newQuotaServiceForTest(t, convRepo, &fakeTurnRepo{}, &fakePreLearningRepo{}, now)

	// 4 started today: the 5th is allowed.
	for i := 0; i < 4; i++ {
		convRepo.conversations = append(convRepo.conversations, &types.Conversation{
			ID: uuid.New(), UserID: userID, CreatedAt: dayStart.Add(time.Hour),
		})
	}
	if err := qs.Check(context.Background(), nil, userID, types.TierFree, QuotaActionStartConversation); err != nil {
		t.Fatalf("5th conversation should be allowed, got %v", err)
	}

	// 5 started today: the 6th is denied with full quota detail.
	convRepo.conversations = append(convRepo.conversations, &types.Conversation{
		ID: uuid.New(), UserID: userID, CreatedAt: dayStart.Add(2 * time.Hour),
	})
	err := qs.Check(context.Background(), nil, userID, types.TierFree, QuotaActionStartConversation)
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindQuotaExceeded {
		t.Fatalf("want quota_exceeded, got %v", err)
	}
	if ae.Action != string(QuotaActionStartConversation) {
		t.Errorf("action = %q, want %q", ae.Action, QuotaActionStartConversation)
	}
	if ae.Limit != 5 || ae.Current != 5 {
		t.Errorf("limit/current = %d/%d, want 5/5", ae.Limit, ae.Current)
	}
}

func TestQuotaCountsResetAtMidnight(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)

	convRepo := &fakeConversationRepo{}
	// All five from yesterday; none count against today.
	yesterday := now.Add(-2 * time.Hour)
	for i := 0; i < 5; i++ {
		convRepo.conversations = append(convRepo.conversations, &types.Conversation{
			ID: uuid.New(), UserID: userID, CreatedAt: yesterday,
		})
	}
	qs := newQuotaServiceForTest(t, convRepo, &fakeTurnRepo{}, &fakePreLearningRepo{}, now)

	if err := qs.Check(context.Background(), nil, userID, types.TierFree, QuotaActionStartConversation); err != nil {
		t.Fatalf("yesterday's conversations should not count today, got %v", err)
	}
}

func TestQuotaTurnLimitCountsOnlyUserTurns(t *testing.T) {
	userID := uuid.New()
	convID := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	turnRepo := &fakeTurnRepo{owners: map[uuid.UUID]uuid.UUID{convID: userID}}
	// 30 user turns plus 30 AI turns; only the user side counts.
	for i := 0; i < 30; i++ {
		turnRepo.turns = append(turnRepo.turns,
			&types.ConversationTurn{ConversationID: convID, Speaker: types.SpeakerUser, CreatedAt: now},
			&types.ConversationTurn{ConversationID: convID, Speaker: types.SpeakerAI, CreatedAt: now},
		)
	}
	qs := newQuotaServiceForTest(t, &fakeConversationRepo{}, turnRepo, &fakePreLearningRepo{}, now)

	err := qs.Check(context.Background(), nil, userID, types.TierFree, QuotaActionSubmitTurn)
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindQuotaExceeded {
		t.Fatalf("want quota_exceeded at 30 user turns, got %v", err)
	}
	if ae.Current != 30 {
		t.Errorf("current = %d, want 30 (AI turns must not count)", ae.Current)
	}
}

func TestQuotaSavedLimitIsAllTime(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	convRepo := &fakeConversationRepo{}
	// Five saves spread over months still fill the cap.
	for i := 0; i < 5; i++ {
		convRepo.conversations = append(convRepo.conversations, &types.Conversation{
			ID: uuid.New(), UserID: userID, IsSaved: true,
			CreatedAt: now.AddDate(0, -i, 0),
		})
	}
	qs := newQuotaServiceForTest(t, convRepo, &fakeTurnRepo{}, &fakePreLearningRepo{}, now)

	err := qs.Check(context.Background(), nil, userID, types.TierFree, QuotaActionSaveConversation)
	if !errors.Is(err, &apperr.Error{Kind: apperr.KindQuotaExceeded}) {
		t.Fatalf("want quota_exceeded for 6th save, got %v", err)
	}
}

func TestQuotaIgnoresOtherUsers(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	convRepo := &fakeConversationRepo{}
	for i := 0; i < 10; i++ {
		convRepo.conversations = append(convRepo.conversations, &types.Conversation{
			ID: uuid.New(), UserID: otherID, CreatedAt: now,
		})
	}
	qs := newQuotaServiceForTest(t, convRepo, &fakeTurnRepo{}, &fakePreLearningRepo{}, now)

	if err := qs.Check(context.Background(), nil, userID, types.TierFree, QuotaActionStartConversation); err != nil {
		t.Fatalf("other users' usage must not count, got %v", err)
	}
}
