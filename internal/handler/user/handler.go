package user

import (
	"github.com/gin-gonic/gin"

	"github.com/carelink/telehealth-api/internal/service/user"
	"github.com/carelink/telehealth-api/pkg/httputil"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors", h.ListDoctors)
}

// ListDoctors is the directory a patient browses to pick a doctor before
// resolving slots.
func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.svc.ListDoctors(c.Request.Context(), c.Query("specialty"), c.Query("search"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}
