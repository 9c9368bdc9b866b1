package http

import (
	"net/http"

	"github.com/hayatoa/threads-auto-post-gs/usecase"

	"github.com/gin-gonic/gin"
)

type IStatusHandler interface {
	Healthz(c *gin.Context)
	Status(c *gin.Context)
}

type StatusHandler struct {
	Tracker *usecase.RunTracker
}

func NewStatusHandler(tracker *usecase.RunTracker) IStatusHandler {
	return &StatusHandler{Tracker: tracker}
}

// Healthz returns OK for health checks.
func (h *StatusHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status returns a snapshot of the run loop: mode, pending fire instants
// and posted/failed counters.
func (h *StatusHandler) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.Tracker.Snapshot())
}
