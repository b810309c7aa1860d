// Package service orchestrates one publish cycle: fetch every source,
// derive the metrics, render the animation, and either publish the
// complete result or skip the cycle entirely.
package service

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bitcoin-roller-coaster/internal/derive"
	"bitcoin-roller-coaster/internal/domain"
	"bitcoin-roller-coaster/internal/render"
)

const maxTweetRunes = 280

// SnapshotFetcher gathers one cycle's raw observations.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context) domain.Snapshot
}

// FrameRenderer produces the animation bytes for one cycle.
type FrameRenderer interface {
	Render(ctx context.Context, ov render.Overlay) ([]byte, error)
}

// Publisher posts the final animation and text, returning the post ID.
type Publisher interface {
	Publish(ctx context.Context, gifData []byte, text string) (string, error)
}

// Announcer mirrors a published result to a secondary channel. Mirror
// failures are logged and never affect the cycle outcome.
type Announcer interface {
	Announce(ctx context.Context, gifData []byte, caption string) error
}

// QuipWriter returns a short optional flourish for the tweet, or the
// empty string when none could be produced.
type QuipWriter interface {
	Quip(ctx context.Context, summary string) string
}

type CycleService struct {
	tracer    trace.Tracer
	fetcher   SnapshotFetcher
	renderer  FrameRenderer
	publisher Publisher
	announcer Announcer  // optional
	quips     QuipWriter // optional
	outPath   string     // optional local copy of the animation

	// runMu serializes cycles: the manual trigger and the scheduled
	// job must never render or publish concurrently.
	runMu sync.Mutex

	mu   sync.Mutex
	last *domain.CycleOutcome

	printer *message.Printer
}

func NewCycleService(tracer trace.Tracer, fetcher SnapshotFetcher, renderer FrameRenderer, publisher Publisher) *CycleService {
	return &CycleService{
		tracer:    tracer,
		fetcher:   fetcher,
		renderer:  renderer,
		publisher: publisher,
		printer:   message.NewPrinter(language.English),
	}
}

// WithAnnouncer adds a secondary mirror channel.
func (s *CycleService) WithAnnouncer(a Announcer) *CycleService {
	s.announcer = a
	return s
}

// WithQuips adds the optional tweet flourish source.
func (s *CycleService) WithQuips(q QuipWriter) *CycleService {
	s.quips = q
	return s
}

// WithOutputPath writes the final animation to a local file before
// publishing. A write failure is logged and does not block the cycle.
func (s *CycleService) WithOutputPath(path string) *CycleService {
	s.outPath = path
	return s
}

// LastOutcome returns the most recent cycle summary, or nil before the
// first run finishes.
func (s *CycleService) LastOutcome() *domain.CycleOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

// RunCycle performs one full fetch-derive-render-publish pass. Every
// cycle starts from a fresh snapshot; nothing carries over from the
// previous run. The cycle itself never returns an error: a failed or
// incomplete run is recorded as a skipped outcome and the next tick
// starts clean.
func (s *CycleService) RunCycle(ctx context.Context) domain.CycleOutcome {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "cycle.run")
	defer span.End()

	outcome := domain.CycleOutcome{StartedAt: time.Now()}

	snap := s.fetcher.Snapshot(ctx)
	res := domain.CycleResult{
		Snapshot: snap,
		Changes:  derive.PriceChanges(snap.SpotPrice, snap.Historical),
		Fee:      derive.FeeEstimate(snap.FastestFee, snap.FiatRate),
	}
	res.Angle = derive.RotationAngle(res.Changes[derive.RotationWindow])

	// The frame overlay needs the spot price; without it there is
	// nothing meaningful to stamp, so the render is skipped and the
	// gate reports the missing animation.
	if snap.SpotPrice.OK {
		gifData, err := s.renderer.Render(ctx, render.Overlay{
			Price:   snap.SpotPrice.Value,
			Angle:   res.Angle,
			Changes: orderedChanges(res.Changes),
		})
		if err != nil {
			log.Printf("cycle: render failed: %v", err)
		} else {
			res.GIF = gifData
		}
	} else {
		log.Printf("cycle: spot price unavailable, skipping render")
	}

	ok, missing := EvaluateGate(res)
	if !ok {
		log.Printf("cycle: skipping publish, missing: %s", strings.Join(missing, ", "))
		outcome.Missing = missing
		return s.record(outcome)
	}

	res.Text = s.composeText(ctx, res)

	if s.outPath != "" {
		if err := os.WriteFile(s.outPath, res.GIF, 0o644); err != nil {
			log.Printf("cycle: writing local animation copy: %v", err)
		}
	}

	id, err := s.publisher.Publish(ctx, res.GIF, res.Text)
	if err != nil {
		log.Printf("cycle: publish failed: %v", err)
		outcome.Err = err.Error()
		return s.record(outcome)
	}
	outcome.Published = true
	outcome.TweetID = id
	log.Printf("cycle: published tweet %s", id)

	if s.announcer != nil {
		if err := s.announcer.Announce(ctx, res.GIF, res.Text); err != nil {
			log.Printf("cycle: mirror announce failed: %v", err)
		}
	}

	return s.record(outcome)
}

func (s *CycleService) record(out domain.CycleOutcome) domain.CycleOutcome {
	out.FinishedAt = time.Now()
	s.mu.Lock()
	s.last = &out
	s.mu.Unlock()
	return out
}

// composeText builds the tweet body. All required fields were checked
// by the gate; the price is read from the snapshot and may legitimately
// be absent from the text only via the render path, never here.
func (s *CycleService) composeText(ctx context.Context, res domain.CycleResult) string {
	var b strings.Builder
	b.WriteString("The fastest #Bitcoin fee is currently ")
	b.WriteString(strconv.FormatFloat(res.Snapshot.FastestFee.Value, 'f', -1, 64))
	b.WriteString(" sat/vB. A simple transaction could have a fee of approximately ")
	b.WriteString(s.printer.Sprintf("%d", res.Fee.Sats))
	b.WriteString(" Satoshis (")
	b.WriteString(s.printer.Sprintf("$%.2f", res.Fee.USD))
	b.WriteString("). 🔍 Bitcoin price: ")
	b.WriteString(s.printer.Sprintf("$%.2f", res.Snapshot.FiatRate.Value))
	b.WriteString(". Google trend: ")
	b.WriteString(strconv.Itoa(int(res.Snapshot.TrendScore.Value)))
	b.WriteString("/100. Block height: ")
	b.WriteString(s.printer.Sprintf("%d", int64(res.Snapshot.ChainHeight.Value)))
	b.WriteString(".")

	text := b.String()
	if s.quips == nil {
		return text
	}
	quip := s.quips.Quip(ctx, text)
	if quip == "" {
		return text
	}
	withQuip := text + " " + quip
	if utf8.RuneCountInString(withQuip) > maxTweetRunes {
		return text
	}
	return withQuip
}

func orderedChanges(changes map[string]domain.PriceChange) []domain.PriceChange {
	out := make([]domain.PriceChange, 0, len(domain.Windows))
	for _, w := range domain.Windows {
		out = append(out, changes[w.Label])
	}
	return out
}
