package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/httpresp"
	"github.com/NikolajSankovDev/zyron/internal/usecase/availability"
	"github.com/NikolajSankovDev/zyron/internal/usecase/catalog"
)

// ======================================================
// HANDLER
// ======================================================

type PublicHandler struct {
	repo     domain.Repository
	services *catalog.ListServices
	calc     *availability.Calculator
	loc      *time.Location
}

func NewPublicHandler(
	repo domain.Repository,
	services *catalog.ListServices,
	calc *availability.Calculator,
	loc *time.Location,
) *PublicHandler {
	return &PublicHandler{
		repo:     repo,
		services: services,
		calc:     calc,
		loc:      loc,
	}
}

type publicBarber struct {
	ID          uint     `json:"id"`
	DisplayName string   `json:"display_name"`
	Languages   []string `json:"languages"`
	Bio         string   `json:"bio,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
}

// ======================================================
// CATALOG
// ======================================================

func (h *PublicHandler) ListServices(c *gin.Context) {
	locale := c.Query("locale")
	if locale == "" {
		locale = c.GetHeader("Accept-Language")
	}

	services, err := h.services.Execute(c.Request.Context(), locale)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.List(c, services)
}

func (h *PublicHandler) ListBarbers(c *gin.Context) {
	barbers, err := h.repo.ListActiveBarbers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]publicBarber, 0, len(barbers))
	for _, b := range barbers {
		out = append(out, publicBarber{
			ID:          b.ID,
			DisplayName: b.DisplayName,
			Languages:   b.Languages,
			Bio:         b.Bio,
			AvatarURL:   b.AvatarURL,
		})
	}

	httpresp.List(c, out)
}

// ======================================================
// AVAILABILITY
// ======================================================

// MonthAvailability answers GET /public/availability/month?service_id=&date=&duration=
func (h *PublicHandler) MonthAvailability(c *gin.Context) {
	serviceID, ok := uintQuery(c, "service_id")
	if !ok {
		return
	}
	if serviceID == 0 {
		httperr.BadRequest(c, "missing_service_id", "Parameter service_id is required.")
		return
	}

	date, ok := dateQuery(c, "date", h.loc, true)
	if !ok {
		return
	}

	duration, ok := intQuery(c, "duration", 0)
	if !ok {
		return
	}

	days, err := h.calc.MonthAvailability(c.Request.Context(), serviceID, date, duration)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service_id": serviceID,
		"month":      date.Format("2006-01"),
		"days":       days,
	})
}

// Slots answers GET /public/slots with either barber_id (duration required)
// or service_id (every active barber).
func (h *PublicHandler) Slots(c *gin.Context) {
	barberID, ok := uintQuery(c, "barber_id")
	if !ok {
		return
	}
	serviceID, ok := uintQuery(c, "service_id")
	if !ok {
		return
	}

	date, ok := dateQuery(c, "date", h.loc, false)
	if !ok {
		return
	}

	duration, ok := intQuery(c, "duration", 0)
	if !ok {
		return
	}
	interval, ok := intQuery(c, "interval", 0)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	switch {
	case barberID != 0:
		slots, err := h.calc.GenerateSlots(ctx, barberID, date, duration, interval)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"barber_id": barberID,
			"date":      date.Format("2006-01-02"),
			"slots":     slots,
		})

	case serviceID != 0:
		barbers, err := h.calc.GenerateSlotsForService(ctx, serviceID, date, duration, interval)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"service_id": serviceID,
			"date":       date.Format("2006-01-02"),
			"barbers":    barbers,
		})

	default:
		httperr.BadRequest(c, "missing_barber_or_service", "Pass barber_id or service_id.")
	}
}
