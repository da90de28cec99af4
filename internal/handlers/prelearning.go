package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/services"
)

type PreLearningHandler struct {
	log                *logger.Logger
	preLearningService services.PreLearningService
}

func NewPreLearningHandler(baseLog *logger.Logger, preLearningService services.PreLearningService) *PreLearningHandler {
	return &PreLearningHandler{
		log:                baseLog.With("handler", "PreLearningHandler"),
		preLearningService: preLearningService,
	}
}

func (h *PreLearningHandler) GetContent(c *gin.Context) {
	scenarioID, err := uuid.Parse(c.Param("scenarioId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_scenario_id", err)
		return
	}
	hskLevelID, err := uuid.Parse(c.Param("hskLevelId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_hsk_level_id", err)
		return
	}
	content, err := h.preLearningService.GetContent(c.Request.Context(), scenarioID, hskLevelID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"pre_learning": content})
}
