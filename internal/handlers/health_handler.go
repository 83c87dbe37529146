package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a dependency answers.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := gin.H{}

	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			log.Warn().Err(err).Str("check", name).Msg("health check failed")
			report[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	c.JSON(status, gin.H{"status": state, "checks": report})
}
