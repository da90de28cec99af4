package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/repos"
	"github.com/huayu-app/huayu-backend/internal/services"
)

type ScenarioHandler struct {
	log             *logger.Logger
	scenarioService services.ScenarioService
}

func NewScenarioHandler(baseLog *logger.Logger, scenarioService services.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{
		log:             baseLog.With("handler", "ScenarioHandler"),
		scenarioService: scenarioService,
	}
}

func (h *ScenarioHandler) List(c *gin.Context) {
	filter := c.DefaultQuery("filter", repos.ScenarioFilterAll)
	scenarios, err := h.scenarioService.List(c.Request.Context(), filter)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"scenarios": scenarios})
}

func (h *ScenarioHandler) ListMine(c *gin.Context) {
	scenarios, err := h.scenarioService.ListMine(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"scenarios": scenarios})
}

func (h *ScenarioHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	scenario, err := h.scenarioService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"scenario": scenario})
}

func (h *ScenarioHandler) Create(c *gin.Context) {
	var req struct {
		Name                string         `json:"name"`
		Description         string         `json:"description"`
		IsPredefined        bool           `json:"is_predefined"`
		SuggestedHskLevelID *uuid.UUID     `json:"suggested_hsk_level_id"`
		Metadata            datatypes.JSON `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	scenario, err := h.scenarioService.Create(c.Request.Context(), services.CreateScenarioInput{
		Name:                req.Name,
		Description:         req.Description,
		IsPredefined:        req.IsPredefined,
		SuggestedHskLevelID: req.SuggestedHskLevelID,
		Metadata:            req.Metadata,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scenario": scenario})
}

func (h *ScenarioHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Name                *string        `json:"name"`
		Description         *string        `json:"description"`
		IsPredefined        *bool          `json:"is_predefined"`
		SuggestedHskLevelID *uuid.UUID     `json:"suggested_hsk_level_id"`
		Metadata            datatypes.JSON `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	scenario, err := h.scenarioService.Update(c.Request.Context(), id, services.ScenarioPatch{
		Name:                req.Name,
		Description:         req.Description,
		IsPredefined:        req.IsPredefined,
		SuggestedHskLevelID: req.SuggestedHskLevelID,
		Metadata:            req.Metadata,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"scenario": scenario})
}

func (h *ScenarioHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.scenarioService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
