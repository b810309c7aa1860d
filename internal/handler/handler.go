// Package handler exposes the operational HTTP surface: health,
// last-cycle status and a manual cycle trigger.
package handler

import (
	"context"

	"bitcoin-roller-coaster/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// CycleService is the slice of the orchestrator the API needs.
type CycleService interface {
	RunCycle(ctx context.Context) domain.CycleOutcome
	LastOutcome() *domain.CycleOutcome
}

type Handler struct {
	tracer trace.Tracer
	cycles CycleService
}

func New(tracer trace.Tracer, cycles CycleService) *Handler {
	return &Handler{tracer: tracer, cycles: cycles}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/status", h.Status)
	r.POST("/api/cycle/run", h.TriggerCycle)
}
