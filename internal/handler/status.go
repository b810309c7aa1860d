package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status reports the most recent cycle outcome, or 404 before the
// first cycle has finished.
func (h *Handler) Status(c *gin.Context) {
	if h.cycles == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cycle service unavailable"})
		return
	}
	out := h.cycles.LastOutcome()
	if out == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// TriggerCycle runs one publish cycle synchronously and returns its
// outcome. The scheduled job keeps its own interval regardless.
func (h *Handler) TriggerCycle(c *gin.Context) {
	if h.cycles == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cycle service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-cycle")
	defer span.End()

	out := h.cycles.RunCycle(ctx)
	c.JSON(http.StatusOK, out)
}
