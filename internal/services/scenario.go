package services

import (
	"context"
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

type CreateScenarioInput struct {
	Name                string
	Description         string
	IsPredefined        bool
	SuggestedHskLevelID *uuid.UUID
	Metadata            datatypes.JSON
}

type ScenarioPatch struct {
	Name                *string
	Description         *string
	IsPredefined        *bool
	SuggestedHskLevelID *uuid.UUID
	Metadata            datatypes.JSON
}

type ScenarioService interface {
	List(ctx context.Context, filter string) ([]*types.Scenario, error)
	ListMine(ctx context.Context) ([]*types.Scenario, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Scenario, error)
	Create(ctx context.Context, input CreateScenarioInput) (*types.Scenario, error)
	Update(ctx context.Context, id uuid.UUID, patch ScenarioPatch) (*types.Scenario, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type scenarioService struct {
	db           *gorm.DB
	log          *logger.Logger
	scenarioRepo repos.ScenarioRepo
	hskLevelRepo repos.HskLevelRepo
}

func NewScenarioService(db *gorm.DB, baseLog *logger.Logger, scenarioRepo repos.ScenarioRepo, hskLevelRepo repos.HskLevelRepo) ScenarioService {
	serviceLog := baseLog.With("service", "ScenarioService")
	return &scenarioService{db: db, log: serviceLog, scenarioRepo: scenarioRepo, hskLevelRepo: hskLevelRepo}
}

func (ss *scenarioService) List(ctx context.Context, filter string) ([]*types.Scenario, error) {
	scenarios, err := ss.scenarioRepo.GetAll(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return scenarios, nil
}

func (ss *scenarioService) ListMine(ctx context.Context) ([]*types.Scenario, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	scenarios, err := ss.scenarioRepo.GetByCreatedByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list user scenarios: %w", err)
	}
	return scenarios, nil
}

func (ss *scenarioService) Get(ctx context.Context, id uuid.UUID) (*types.Scenario, error) {
	scenarios, err := ss.scenarioRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, apperr.NotFound("scenario")
	}
	return scenarios[0], nil
}

func (ss *scenarioService) Create(ctx context.Context, input CreateScenarioInput) (*types.Scenario, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	if input.Name == "" {
		return nil, apperr.Validation("name is required")
	}

	if input.SuggestedHskLevelID != nil {
		levels, err := ss.hskLevelRepo.GetByIDs(ctx, nil, []uuid.UUID{*input.SuggestedHskLevelID})
		if err != nil {
			return nil, fmt.Errorf("load suggested hsk level: %w", err)
		}
		if len(levels) == 0 {
			return nil, apperr.NotFound("hsk level")
		}
	}

	// Only admins publish predefined scenarios.
	isPredefined := input.IsPredefined && rd.IsAdmin

	now := time.Now()
	createdBy := rd.UserID
	scenario := &types.Scenario{
		ID:                  uuid.New(),
		Name:                input.Name,
		Description:         input.Description,
		IsPredefined:        isPredefined,
		SuggestedHskLevelID: input.SuggestedHskLevelID,
		CreatedByUserID:     &createdBy,
		Metadata:            input.Metadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := ss.scenarioRepo.Create(ctx, nil, []*types.Scenario{scenario}); err != nil {
		ss.log.Error("Create scenario failed", "error", err, "user_id", rd.UserID)
		return nil, fmt.Errorf("create scenario: %w", err)
	}
	return scenario, nil
}

func (ss *scenarioService) Update(ctx context.Context, id uuid.UUID, patch ScenarioPatch) (*types.Scenario, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	scenario, err := ss.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ss.canMutate(rd, scenario); err != nil {
		return nil, err
	}

	if patch.SuggestedHskLevelID != nil {
		levels, err := ss.hskLevelRepo.GetByIDs(ctx, nil, []uuid.UUID{*patch.SuggestedHskLevelID})
		if err != nil {
			return nil, fmt.Errorf("load suggested hsk level: %w", err)
		}
		if len(levels) == 0 {
			return nil, apperr.NotFound("hsk level")
		}
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if patch.Name != nil {
		fields["name"] = *patch.Name
		scenario.Name = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
		scenario.Description = *patch.Description
	}
	if patch.IsPredefined != nil && rd.IsAdmin {
		fields["is_predefined"] = *patch.IsPredefined
		scenario.IsPredefined = *patch.IsPredefined
	}
	if patch.SuggestedHskLevelID != nil {
		fields["suggested_hsk_level_id"] = *patch.SuggestedHskLevelID
		scenario.SuggestedHskLevelID = patch.SuggestedHskLevelID
	}
	if patch.Metadata != nil {
		fields["metadata"] = patch.Metadata
		scenario.Metadata = patch.Metadata
	}

	if err := ss.scenarioRepo.UpdateFields(ctx, nil, id, fields); err != nil {
		return nil, fmt.Errorf("update scenario: %w", err)
	}
	return scenario, nil
}

func (ss *scenarioService) Delete(ctx context.Context, id uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("request data not set in context")
	}

	scenario, err := ss.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ss.canMutate(rd, scenario); err != nil {
		return err
	}
	if scenario.IsPredefined && !rd.IsAdmin {
		return apperr.Forbidden("only admins can delete predefined scenarios")
	}

	if err := ss.scenarioRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return nil
}

func (ss *scenarioService) canMutate(rd *requestdata.RequestData, scenario *types.Scenario) error {
	if rd.IsAdmin {
		return nil
	}
	if scenario.IsPredefined {
		return apperr.Forbidden("only admins can modify predefined scenarios")
	}
	if scenario.CreatedByUserID == nil || *scenario.CreatedByUserID != rd.UserID {
		return apperr.Forbidden("you do not own this scenario")
	}
	return nil
}
