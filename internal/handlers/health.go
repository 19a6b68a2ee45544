package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	Environment string            `json:"environment"`
}

// Health pings every backing service; any failed check answers 503.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Checks:      make(map[string]string, len(h.checks)),
		Environment: h.cfg.Environment,
	}
	for _, hc := range h.checks {
		if err := hc.check(ctx); err != nil {
			h.log.Error().Err(err).Str("check", hc.name).Msg("health check failed")
			resp.Checks[hc.name] = "error"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[hc.name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
