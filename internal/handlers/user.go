package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(baseLog *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{
		log:         baseLog.With("handler", "UserHandler"),
		userService: userService,
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetMe(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName *string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), services.UserPatch{
		DisplayName: req.DisplayName,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, err := h.userService.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}
