package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/assessment-backend/internal/http/response"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{db: db} }

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /readyz
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "database_unavailable", err)
		return
	}
	c.String(http.StatusOK, "ok")
}
