package appointment

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/telehealth-api/internal/middleware"
	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/service/appointment"
	apperrors "github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/httputil"
	"github.com/carelink/telehealth-api/pkg/validator"
)

type Handler struct {
	svc       *appointment.Service
	validator *validator.Validator
}

func NewHandler(svc *appointment.Service, validator *validator.Validator) *Handler {
	return &Handler{svc: svc, validator: validator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/slots", h.GetTimeSlots)

	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Book)
		appointments.GET("", h.ListGrouped)
		appointments.GET("/:id", h.Get)
		appointments.PATCH("/:id/status", h.UpdateStatus)
	}
}

// GetTimeSlots returns a doctor's bookable slots for a single date. Slots
// are always resolved fresh so that the booked markers reflect the current
// state of the schedule.
func (h *Handler) GetTimeSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid date, expected YYYY-MM-DD", err))
		return
	}

	slots, err := h.svc.GetTimeSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) Book(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("not authenticated")))
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	resp, err := h.svc.Book(c.Request.Context(), session.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.svc.GetAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

// ListGrouped returns the caller's appointments bucketed by date. Doctors
// see appointments where they are the doctor, patients where they are the
// patient.
func (h *Handler) ListGrouped(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("not authenticated")))
		return
	}

	filters := &model.AppointmentFilters{}
	if session.Role == model.UserRoleDoctor {
		filters.DoctorID = session.UserID
	} else {
		filters.PatientID = session.UserID
	}

	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
		if !s.Valid() {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid status filter", nil))
			return
		}
		filters.Status = s
	}

	if interval := c.Query("interval"); interval != "" {
		days, err := strconv.Atoi(interval)
		if err != nil || days < 0 {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid interval, expected days", err))
			return
		}
		filters.IntervalDays = days
	}

	groups, err := h.svc.ListGrouped(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, groups)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("not authenticated")))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), session.UserID, id, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.svc.GetAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}
