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

const preLearningTTL = 7 * 24 * time.Hour

type VocabularyEntry struct {
	Characters  string `json:"characters"`
	Pinyin      string `json:"pinyin"`
	Translation string `json:"translation"`
}

type GrammarPoint struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
	Example     string `json:"example"`
}

type PreLearningPayload struct {
	Vocabulary    []VocabularyEntry `json:"vocabulary"`
	GrammarPoints []GrammarPoint    `json:"grammar_points"`
	Scenario      struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"scenario"`
	HskLevel struct {
		Name  string `json:"name"`
		Level int    `json:"level"`
	} `json:"hsk_level"`
	GeneratedAt string `json:"generated_at"`
}

// PreLearningService memoizes generated study material per (scenario, level).
// A cache hit short-circuits quota entirely; generation is what counts
// against the daily limit. The premium gate for custom scenarios applies
// before the cache is even consulted.
type PreLearningService interface {
	GetContent(ctx context.Context, scenarioID, hskLevelID uuid.UUID) (*types.PreLearningContent, error)
	// PurgeExpired is advisory cleanup; reads filter by expiry on their own,
	// so it is safe to run (or skip) at any time.
	PurgeExpired(ctx context.Context) (int64, error)
}

type preLearningService struct {
	db              *gorm.DB
	log             *logger.Logger
	preLearningRepo repos.PreLearningRepo
	scenarioRepo    repos.ScenarioRepo
	hskLevelRepo    repos.HskLevelRepo
	quotaService    QuotaService
	now             func() time.Time
}

func NewPreLearningService(
	db *gorm.DB,
	baseLog *logger.Logger,
	preLearningRepo repos.PreLearningRepo,
	scenarioRepo repos.ScenarioRepo,
	hskLevelRepo repos.HskLevelRepo,
	quotaService QuotaService,
) PreLearningService {
	serviceLog := baseLog.With("service", "PreLearningService")
	return &preLearningService{
		db:              db,
		log:             serviceLog,
		preLearningRepo: preLearningRepo,
		scenarioRepo:    scenarioRepo,
		hskLevelRepo:    hskLevelRepo,
		quotaService:    quotaService,
		now:             time.Now,
	}
}

func (ps *preLearningService) GetContent(ctx context.Context, scenarioID, hskLevelID uuid.UUID) (*types.PreLearningContent, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	scenarios, err := ps.scenarioRepo.GetByIDs(ctx, nil, []uuid.UUID{scenarioID})
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, apperr.NotFound("scenario")
	}
	scenario := scenarios[0]

	levels, err := ps.hskLevelRepo.GetByIDs(ctx, nil, []uuid.UUID{hskLevelID})
	if err != nil {
		return nil, fmt.Errorf("load hsk level: %w", err)
	}
	if len(levels) == 0 {
		return nil, apperr.NotFound("hsk level")
	}
	level := levels[0]

	// Custom-scenario pre-learning is premium-only, cache state or not.
	if !scenario.IsPredefined && rd.Tier != types.TierPremium {
		return nil, apperr.PremiumRequired("pre-learning content for custom scenarios")
	}

	cached, err := ps.preLearningRepo.GetValid(ctx, nil, scenarioID, hskLevelID, ps.now())
	if err != nil {
		return nil, fmt.Errorf("look up cached content: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	if err := ps.quotaService.Check(ctx, nil, rd.UserID, rd.Tier, QuotaActionGeneratePreLearning); err != nil {
		return nil, err
	}

	return ps.generate(ctx, scenario, level, rd.UserID)
}

func (ps *preLearningService) generate(ctx context.Context, scenario *types.Scenario, level *types.HskLevel, userID uuid.UUID) (*types.PreLearningContent, error) {
	now := ps.now()

	payload := PreLearningPayload{
		Vocabulary: []VocabularyEntry{
			{Characters: "你好", Pinyin: "nǐ hǎo", Translation: "hello"},
			{Characters: "谢谢", Pinyin: "xiè xiè", Translation: "thank you"},
			{Characters: "再见", Pinyin: "zài jiàn", Translation: "goodbye"},
		},
		GrammarPoints: []GrammarPoint{
			{
				Name:        "Basic Sentence Structure",
				Explanation: "Chinese sentences typically follow Subject-Verb-Object order",
				Example:     "我喜欢中文 (Wǒ xǐhuān Zhōngwén) - I like Chinese",
			},
			{
				Name:        "Question Particles",
				Explanation: "Add 吗 (ma) at the end of a statement to turn it into a yes/no question",
				Example:     "你喜欢中文吗？ (Nǐ xǐhuān Zhōngwén ma?) - Do you like Chinese?",
			},
		},
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
	payload.Scenario.Name = scenario.Name
	payload.Scenario.Description = scenario.Description
	payload.HskLevel.Name = level.Name
	payload.HskLevel.Level = level.Level

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode pre-learning payload: %w", err)
	}

	generatedBy := userID
	entry := &types.PreLearningContent{
		ID:                uuid.New(),
		ScenarioID:        scenario.ID,
		HskLevelID:        level.ID,
		GeneratedByUserID: &generatedBy,
		Content:           datatypes.JSON(raw),
		GeneratedAt:       now,
		ExpiresAt:         now.Add(preLearningTTL),
	}

	if _, err := ps.preLearningRepo.Create(ctx, nil, []*types.PreLearningContent{entry}); err != nil {
		ps.log.Error("Persist pre-learning content failed", "error", err, "scenario_id", scenario.ID, "hsk_level_id", level.ID)
		return nil, fmt.Errorf("persist pre-learning content: %w", err)
	}
	return entry, nil
}

func (ps *preLearningService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := ps.preLearningRepo.DeleteExpired(ctx, nil, ps.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired pre-learning content: %w", err)
	}
	if deleted > 0 {
		ps.log.Debug("Purged expired pre-learning content", "deleted", deleted)
	}
	return deleted, nil
}
