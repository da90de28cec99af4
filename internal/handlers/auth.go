package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/requestdata"
	"github.com/huayu-app/huayu-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(baseLog *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         baseLog.With("handler", "AuthHandler"),
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	pair, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Warn("Login failed", "email", req.Email)
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	RespondOK(c, pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
		RefreshToken: req.RefreshToken,
	})
	pair, err := h.authService.Refresh(ctx)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	RespondOK(c, pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context()); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
