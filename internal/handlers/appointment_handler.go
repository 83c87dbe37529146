package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/httpresp"
	"github.com/NikolajSankovDev/zyron/internal/middleware"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/notify"
	"github.com/NikolajSankovDev/zyron/internal/usecase/appointment"
	"github.com/NikolajSankovDev/zyron/internal/usecase/availability"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	create       *appointment.CreateAppointment
	updateStatus *appointment.UpdateStatus
	cancelRange  *appointment.CancelByBarberAndDateRange
	timeOff      *appointment.CreateTimeOff
	listByDate   *appointment.ListAppointmentsByDate
	listByMonth  *appointment.ListAppointmentsByMonth
	calc         *availability.Calculator
	notifier     notify.Notifier
	loc          *time.Location
}

func NewAppointmentHandler(
	create *appointment.CreateAppointment,
	updateStatus *appointment.UpdateStatus,
	cancelRange *appointment.CancelByBarberAndDateRange,
	timeOff *appointment.CreateTimeOff,
	listByDate *appointment.ListAppointmentsByDate,
	listByMonth *appointment.ListAppointmentsByMonth,
	calc *availability.Calculator,
	notifier notify.Notifier,
	loc *time.Location,
) *AppointmentHandler {
	return &AppointmentHandler{
		create:       create,
		updateStatus: updateStatus,
		cancelRange:  cancelRange,
		timeOff:      timeOff,
		listByDate:   listByDate,
		listByMonth:  listByMonth,
		calc:         calc,
		notifier:     notifier,
		loc:          loc,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	BarberID   uint      `json:"barber_id" binding:"required"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	ServiceIDs []uint    `json:"service_ids" binding:"required,min=1,dive,gt=0"`
	Notes      string    `json:"notes" binding:"max=255"`

	// CustomerID lets staff book on behalf of a customer.
	CustomerID uint `json:"customer_id"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RangeRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

type TimeOffRequest struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Reason string    `json:"reason" binding:"max=255"`

	CancelOverlapping bool `json:"cancel_overlapping"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	customerID := middleware.UserID(c)
	if req.CustomerID != 0 && req.CustomerID != customerID {
		switch c.GetString(middleware.ContextUserRole) {
		case models.RoleAdmin, models.RoleBarber:
			customerID = req.CustomerID
		default:
			httperr.Forbidden(c, "forbidden", "Only staff can book for someone else.")
			return
		}
	}

	ap, err := h.create.Execute(c.Request.Context(), appointment.CreateAppointmentInput{
		CustomerID: customerID,
		BarberID:   req.BarberID,
		StartTime:  req.StartTime,
		ServiceIDs: req.ServiceIDs,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ap)
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	date, ok := dateQuery(c, "date", h.loc, false)
	if !ok {
		return
	}

	aps, err := h.listByDate.Execute(c.Request.Context(), barberID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.List(c, aps)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Year and month are required.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Invalid year.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Invalid month.")
		return
	}

	aps, err := h.listByMonth.Execute(c.Request.Context(), barberID, year, month)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": aps,
	})
}

// Calendar is the per-day status of one barber for the month of ?date=.
func (h *AppointmentHandler) Calendar(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	date, ok := dateQuery(c, "date", h.loc, true)
	if !ok {
		return
	}

	days, err := h.calc.BarberMonth(c.Request.Context(), barberID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barber_id": barberID,
		"month":     date.Format("2006-01"),
		"days":      days,
	})
}

// ======================================================
// LIFECYCLE
// ======================================================

func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ap, err := h.updateStatus.Execute(c.Request.Context(), appointment.UpdateStatusInput{
		AppointmentID: id,
		Status:        req.Status,
		ActorID:       actor(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) CancelRange(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.cancelRange.Execute(c.Request.Context(), appointment.CancelByRangeInput{
		BarberID: barberID,
		Start:    req.Start,
		End:      req.End,
		ActorID:  actor(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.notifyCancelled(c, res.Cancelled)

	c.JSON(http.StatusOK, res)
}

func (h *AppointmentHandler) CreateTimeOff(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req TimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()

	off, err := h.timeOff.Execute(ctx, appointment.CreateTimeOffInput{
		BarberID: barberID,
		Start:    req.Start,
		End:      req.End,
		Reason:   req.Reason,
		ActorID:  actor(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"time_off": off}

	// The time off is committed at this point. A failed cancellation is
	// reported next to it so the client retries cancel-range, not this call.
	if req.CancelOverlapping {
		// appointments starting strictly before the time off ends
		res, err := h.cancelRange.Execute(ctx, appointment.CancelByRangeInput{
			BarberID: barberID,
			Start:    req.Start,
			End:      req.End.Add(-time.Nanosecond),
			ActorID:  actor(c),
		})
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Uint("barber_id", barberID).
				Uint("time_off_id", off.ID).
				Msg("time off saved, cancelling overlapping appointments failed")

			code := httperr.Code(err)
			if code == "" {
				code = "internal_error"
			}
			resp["cancel_error"] = gin.H{
				"error_code": code,
				"retryable":  httperr.IsRetryable(err),
			}
		} else {
			h.notifyCancelled(c, res.Cancelled)
			resp["cancelled"] = res
		}
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AppointmentHandler) notifyCancelled(c *gin.Context, cancelled []models.Appointment) {
	for _, ap := range cancelled {
		err := h.notifier.Notify(c.Request.Context(), notify.Message{
			Kind:          notify.KindAppointmentCancelled,
			AppointmentID: ap.ID,
		})
		if err != nil {
			break
		}
	}
}
