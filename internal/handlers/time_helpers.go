package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/middleware"
	"github.com/NikolajSankovDev/zyron/internal/timezone"
)

// dateQuery reads a "YYYY-MM-DD" query parameter as midnight in loc. Missing
// values fall back to today when allowToday is set.
func dateQuery(c *gin.Context, name string, loc *time.Location, allowToday bool) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		if allowToday {
			now := timezone.NowIn(loc)
			return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), true
		}
		httperr.BadRequest(c, "missing_"+name, "Parameter "+name+" is required.")
		return time.Time{}, false
	}

	d, err := timezone.ParseDate(raw, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_"+name, "Expected YYYY-MM-DD.")
		return time.Time{}, false
	}
	return d, true
}

// intQuery returns def when the parameter is absent.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		httperr.BadRequest(c, "invalid_"+name, "Expected an integer.")
		return 0, false
	}
	return n, true
}

func uintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		httperr.BadRequest(c, "invalid_"+name, "Expected a positive id.")
		return 0, false
	}
	return uint(n), true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		httperr.BadRequest(c, "invalid_"+name, "Expected a positive id.")
		return 0, false
	}
	return uint(n), true
}

// actor is the authenticated user for audit entries, nil when anonymous.
func actor(c *gin.Context) *uint {
	id := middleware.UserID(c)
	if id == 0 {
		return nil
	}
	return &id
}
