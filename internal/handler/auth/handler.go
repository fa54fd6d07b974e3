package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/service/auth"
	apperrors "github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/httputil"
	"github.com/carelink/telehealth-api/pkg/validator"
)

type Handler struct {
	svc       *auth.Service
	validator *validator.Validator
}

func NewHandler(svc *auth.Service, validator *validator.Validator) *Handler {
	return &Handler{svc: svc, validator: validator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, resp)
}
