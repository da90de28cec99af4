package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huayu-app/huayu-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`

	// Quota detail, present on quota_exceeded responses.
	Action  string `json:"action,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Current int    `json:"current,omitempty"`

	// Feature names the gated capability on premium_required responses.
	Feature string `json:"feature,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service-layer error to its transport status.
// Domain errors keep their kind as the error code; anything else is
// reported as a bare 500 so internals never leak to clients.
func RespondServiceError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	ae := apperr.From(err)
	if ae == nil {
		c.JSON(status, ErrorEnvelope{
			Error: APIError{Message: "internal server error", Code: "internal"},
		})
		return
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: ae.Error(),
			Code:    string(ae.Kind),
			Action:  ae.Action,
			Limit:   ae.Limit,
			Current: ae.Current,
			Feature: ae.Feature,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
