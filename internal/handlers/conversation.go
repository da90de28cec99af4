package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/services"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type ConversationHandler struct {
	log                 *logger.Logger
	conversationService services.ConversationService
}

func NewConversationHandler(baseLog *logger.Logger, conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		log:                 baseLog.With("handler", "ConversationHandler"),
		conversationService: conversationService,
	}
}

func (h *ConversationHandler) Start(c *gin.Context) {
	var req struct {
		ScenarioID                uuid.UUID  `json:"scenario_id"`
		HskLevelID                uuid.UUID  `json:"hsk_level_id"`
		InspirationConversationID *uuid.UUID `json:"inspiration_conversation_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.conversationService.Start(c.Request.Context(), services.StartConversationInput{
		ScenarioID:                req.ScenarioID,
		HskLevelID:                req.HskLevelID,
		InspirationConversationID: req.InspirationConversationID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ConversationHandler) SubmitTurn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		InputText string `json:"input_text"`
		InputMode string `json:"input_mode"`
		AudioURL  string `json:"audio_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.InputMode == "" {
		req.InputMode = types.InputModeText
	}
	result, err := h.conversationService.SubmitTurn(c.Request.Context(), id, services.SubmitTurnInput{
		InputText: req.InputText,
		InputMode: req.InputMode,
		AudioURL:  req.AudioURL,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func (h *ConversationHandler) End(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	conversation, err := h.conversationService.End(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conversation})
}

func (h *ConversationHandler) Save(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Name *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	conversation, err := h.conversationService.Save(c.Request.Context(), id, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conversation})
}

func (h *ConversationHandler) GetTurns(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	turns, err := h.conversationService.GetTurns(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"turns": turns})
}

func (h *ConversationHandler) List(c *gin.Context) {
	onlySaved := c.Query("saved") == "true"
	conversations, err := h.conversationService.ListUserConversations(c.Request.Context(), onlySaved)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversations": conversations})
}
