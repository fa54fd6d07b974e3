package availability

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/telehealth-api/internal/middleware"
	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/service/availability"
	apperrors "github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/httputil"
	"github.com/carelink/telehealth-api/pkg/validator"
)

type Handler struct {
	svc       *availability.Service
	validator *validator.Validator
}

func NewHandler(svc *availability.Service, validator *validator.Validator) *Handler {
	return &Handler{svc: svc, validator: validator}
}

// RegisterRoutes wires the doctor-facing availability endpoints. The caller
// is expected to guard the group with authentication and the doctor role.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	availabilities := r.Group("/availabilities")
	{
		availabilities.GET("", h.List)
		availabilities.POST("", h.Create)
		availabilities.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("not authenticated")))
		return
	}

	availabilities, err := h.svc.List(c.Request.Context(), session.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, availabilities)
}

func (h *Handler) Create(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("not authenticated")))
		return
	}

	var req model.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	created, err := h.svc.Add(c.Request.Context(), session.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Delete(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("not authenticated")))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid availability ID", err))
		return
	}

	if err := h.svc.Remove(c.Request.Context(), session.UserID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}
