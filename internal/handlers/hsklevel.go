package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/services"
)

type HskLevelHandler struct {
	log             *logger.Logger
	hskLevelService services.HskLevelService
}

func NewHskLevelHandler(baseLog *logger.Logger, hskLevelService services.HskLevelService) *HskLevelHandler {
	return &HskLevelHandler{
		log:             baseLog.With("handler", "HskLevelHandler"),
		hskLevelService: hskLevelService,
	}
}

func (h *HskLevelHandler) List(c *gin.Context) {
	levels, err := h.hskLevelService.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"hsk_levels": levels})
}

func (h *HskLevelHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	level, err := h.hskLevelService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"hsk_level": level})
}

func (h *HskLevelHandler) Create(c *gin.Context) {
	var req struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Level       int            `json:"level"`
		Metadata    datatypes.JSON `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	level, err := h.hskLevelService.Create(c.Request.Context(), services.CreateHskLevelInput{
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		Metadata:    req.Metadata,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hsk_level": level})
}

func (h *HskLevelHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Name        *string        `json:"name"`
		Description *string        `json:"description"`
		Level       *int           `json:"level"`
		Metadata    datatypes.JSON `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	level, err := h.hskLevelService.Update(c.Request.Context(), id, services.HskLevelPatch{
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		Metadata:    req.Metadata,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"hsk_level": level})
}

func (h *HskLevelHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.hskLevelService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
