package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/repos"
	"github.com/huayu-app/huayu-backend/internal/types"
	"github.com/huayu-app/huayu-backend/internal/utils"
)

type seedHskLevel struct {
	name        string
	description string
	level       int
	metadata    map[string]interface{}
}

type seedScenario struct {
	name           string
	description    string
	suggestedLevel int
	metadata       map[string]interface{}
}

var seedHskLevels = []seedHskLevel{
	{"HSK Level 1", "Beginner level with 150 words and basic grammar", 1,
		map[string]interface{}{"wordCount": 150, "recommendedHours": 40}},
	{"HSK Level 2", "Elementary level with 300 words and basic grammar", 2,
		map[string]interface{}{"wordCount": 300, "recommendedHours": 80}},
	{"HSK Level 3", "Intermediate level with 600 words and more complex grammar", 3,
		map[string]interface{}{"wordCount": 600, "recommendedHours": 160}},
	{"HSK Level 4", "High intermediate level with 1200 words and complex grammar", 4,
		map[string]interface{}{"wordCount": 1200, "recommendedHours": 240}},
	{"HSK Level 5", "Advanced level with 2500 words and sophisticated grammar", 5,
		map[string]interface{}{"wordCount": 2500, "recommendedHours": 400}},
	{"HSK Level 6", "Proficient level with 5000 words and native-like grammar", 6,
		map[string]interface{}{"wordCount": 5000, "recommendedHours": 600}},
}

var seedScenarios = []seedScenario{
	{"At the Restaurant", "Practice ordering food and drinks at a Chinese restaurant", 1,
		map[string]interface{}{"category": "Food", "difficulty": "Beginner", "estimatedTime": 10}},
	{"Shopping", "Practice buying clothes and negotiating prices at a market", 2,
		map[string]interface{}{"category": "Shopping", "difficulty": "Beginner", "estimatedTime": 15}},
	{"Asking for Directions", "Practice asking for and giving directions in a city", 2,
		map[string]interface{}{"category": "Travel", "difficulty": "Beginner", "estimatedTime": 10}},
	{"At the Hotel", "Practice checking in, asking about facilities, and resolving issues at a hotel", 3,
		map[string]interface{}{"category": "Travel", "difficulty": "Intermediate", "estimatedTime": 15}},
	{"Job Interview", "Practice for a job interview in Chinese", 4,
		map[string]interface{}{"category": "Business", "difficulty": "Advanced", "estimatedTime": 20}},
	{"Discussing Current Events", "Practice discussing news and current events in Chinese", 5,
		map[string]interface{}{"category": "Current Events", "difficulty": "Advanced", "estimatedTime": 25}},
	{"Academic Discussion", "Practice discussing academic topics and presenting arguments", 6,
		map[string]interface{}{"category": "Academic", "difficulty": "Proficient", "estimatedTime": 30}},
}

type Seeder struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	hskLevelRepo repos.HskLevelRepo
	scenarioRepo repos.ScenarioRepo
}

func NewSeeder(baseLog *logger.Logger, userRepo repos.UserRepo, hskLevelRepo repos.HskLevelRepo, scenarioRepo repos.ScenarioRepo) *Seeder {
	return &Seeder{
		log:          baseLog.With("service", "Seeder"),
		userRepo:     userRepo,
		hskLevelRepo: hskLevelRepo,
		scenarioRepo: scenarioRepo,
	}
}

// Run inserts the admin user, the six HSK levels and the predefined
// scenarios. Every step skips rows that already exist, so it is safe to
// run on every boot.
func (s *Seeder) Run(ctx context.Context) error {
	admin, err := s.ensureAdmin(ctx)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	levelIDs, err := s.ensureHskLevels(ctx)
	if err != nil {
		return fmt.Errorf("seed hsk levels: %w", err)
	}
	if err := s.ensureScenarios(ctx, admin, levelIDs); err != nil {
		return fmt.Errorf("seed scenarios: %w", err)
	}
	s.log.Info("Seed completed")
	return nil
}

func (s *Seeder) ensureAdmin(ctx context.Context) (*types.User, error) {
	email := utils.GetEnv("SEED_ADMIN_EMAIL", "admin@chineseodyssey.com", s.log)
	existing, err := s.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	password := utils.GetEnv("SEED_ADMIN_PASSWORD", "admin123", s.log)
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	admin := &types.User{
		ID:               uuid.New(),
		Email:            email,
		Password:         string(hashed),
		DisplayName:      "Admin",
		EmailVerified:    true,
		SubscriptionTier: types.TierPremium,
		IsAdmin:          true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := s.userRepo.Create(ctx, nil, []*types.User{admin}); err != nil {
		return nil, err
	}
	s.log.Info("Admin user created")
	return admin, nil
}

func (s *Seeder) ensureHskLevels(ctx context.Context) (map[int]uuid.UUID, error) {
	levelIDs := make(map[int]uuid.UUID, len(seedHskLevels))
	for _, sl := range seedHskLevels {
		existing, err := s.hskLevelRepo.GetByLevels(ctx, nil, []int{sl.level})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			levelIDs[sl.level] = existing[0].ID
			continue
		}
		meta, err := json.Marshal(sl.metadata)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		level := &types.HskLevel{
			ID:          uuid.New(),
			Name:        sl.name,
			Description: sl.description,
			Level:       sl.level,
			Metadata:    datatypes.JSON(meta),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := s.hskLevelRepo.Create(ctx, nil, []*types.HskLevel{level}); err != nil {
			return nil, err
		}
		levelIDs[sl.level] = level.ID
		s.log.Info("HSK level created", "level", sl.level)
	}
	return levelIDs, nil
}

func (s *Seeder) ensureScenarios(ctx context.Context, admin *types.User, levelIDs map[int]uuid.UUID) error {
	existing, err := s.scenarioRepo.GetAll(ctx, nil, repos.ScenarioFilterPredefined)
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(existing))
	for _, sc := range existing {
		byName[sc.Name] = true
	}

	for _, ss := range seedScenarios {
		if byName[ss.name] {
			continue
		}
		meta, err := json.Marshal(ss.metadata)
		if err != nil {
			return err
		}
		var suggested *uuid.UUID
		if id, ok := levelIDs[ss.suggestedLevel]; ok {
			suggested = &id
		}
		now := time.Now()
		scenario := &types.Scenario{
			ID:                  uuid.New(),
			Name:                ss.name,
			Description:         ss.description,
			IsPredefined:        true,
			SuggestedHskLevelID: suggested,
			CreatedByUserID:     &admin.ID,
			Metadata:            datatypes.JSON(meta),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if _, err := s.scenarioRepo.Create(ctx, nil, []*types.Scenario{scenario}); err != nil {
			return err
		}
		s.log.Info("Scenario created", "name", ss.name)
	}
	return nil
}
