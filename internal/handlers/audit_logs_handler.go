package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	"github.com/NikolajSankovDev/zyron/internal/httpresp"
	"github.com/NikolajSankovDev/zyron/internal/timezone"
)

type AuditLogsHandler struct {
	logger *audit.Logger
	loc    *time.Location
}

func NewAuditLogsHandler(logger *audit.Logger, loc *time.Location) *AuditLogsHandler {
	return &AuditLogsHandler{logger: logger, loc: loc}
}

// List supports ?action=&entity=&from=&to=&page=&limit=; from/to are studio
// dates and to is inclusive.
func (h *AuditLogsHandler) List(c *gin.Context) {
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	if page <= 0 {
		page = 1
	}

	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	f := audit.Filter{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if raw := c.Query("from"); raw != "" {
		if from, err := timezone.ParseDate(raw, h.loc); err == nil {
			f.From = from
		}
	}

	if raw := c.Query("to"); raw != "" {
		if to, err := timezone.ParseDate(raw, h.loc); err == nil {
			f.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}

	logs, total, err := h.logger.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.Page(c, logs, total, page, limit)
}
