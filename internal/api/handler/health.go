package handler

import (
	"net/http"
	"time"

	"github.com/mcoot/rpsgame/internal/api/response"
)

// Stats reports live counts for the health endpoint
type Stats interface {
	Connections() int
	Sessions() int
	Uptime() time.Duration
}

// HealthHandler serves the health check
type HealthHandler struct {
	stats Stats
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(stats Stats) *HealthHandler {
	return &HealthHandler{stats: stats}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{Status: "ok"}
	if h.stats != nil {
		resp.Connections = h.stats.Connections()
		resp.Sessions = h.stats.Sessions()
		resp.UptimeSeconds = int64(h.stats.Uptime() / time.Second)
	}
	response.JSON(w, http.StatusOK, resp)
}
