// Package job runs the publish cycle on a fixed interval.
package job

import (
	"context"
	"log"
	"time"

	"bitcoin-roller-coaster/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) domain.CycleOutcome
}

type CycleJob struct {
	tracer   trace.Tracer
	runner   CycleRunner
	interval time.Duration
}

func NewCycleJob(tracer trace.Tracer, runner CycleRunner, interval time.Duration) *CycleJob {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &CycleJob{tracer: tracer, runner: runner, interval: interval}
}

// Start runs one cycle immediately, then one per interval until the
// context is cancelled. A cycle's outcome never affects the schedule:
// skipped and failed cycles wait out the same interval as published
// ones.
func (j *CycleJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("Cycle job disabled: no runner")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *CycleJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "cycle-job.run-once")
	defer span.End()

	out := j.runner.RunCycle(ctx)
	switch {
	case out.Published:
		log.Printf("Cycle complete published=%t tweet=%s took=%s",
			out.Published, out.TweetID, out.FinishedAt.Sub(out.StartedAt).Round(time.Millisecond))
	case out.Err != "":
		log.Printf("Cycle failed: %s", out.Err)
	default:
		log.Printf("Cycle skipped missing=%v", out.Missing)
	}
}
