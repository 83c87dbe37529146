package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/usecase/appointment"
)

type WorkingHoursHandler struct {
	repo    domain.Repository
	replace *appointment.ReplaceWorkingHours
}

func NewWorkingHoursHandler(repo domain.Repository, replace *appointment.ReplaceWorkingHours) *WorkingHoursHandler {
	return &WorkingHoursHandler{repo: repo, replace: replace}
}

type WorkingDayConfig struct {
	Weekday    int    `json:"weekday" binding:"min=0,max=6"`
	Active     bool   `json:"active"`
	StartTime  string `json:"start_time" binding:"hhmm"`
	EndTime    string `json:"end_time" binding:"hhmm"`
	LunchStart string `json:"lunch_start" binding:"hhmm"`
	LunchEnd   string `json:"lunch_end" binding:"hhmm"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required,max=7,dive"`
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.repo.GetBarber(c.Request.Context(), barberID); err != nil {
		writeError(c, err)
		return
	}

	hours, err := h.repo.ListWorkingHours(c.Request.Context(), barberID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, hours)
}

func (h *WorkingHoursHandler) Update(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	days := make([]appointment.WorkingDay, 0, len(req.Days))
	for _, d := range req.Days {
		days = append(days, appointment.WorkingDay{
			Weekday:    d.Weekday,
			Active:     d.Active,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
		})
	}

	hours, err := h.replace.Execute(c.Request.Context(), barberID, days, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, hours)
}
