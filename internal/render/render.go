// Package render produces the roller-coaster GIF for one cycle: each
// base frame is rotated by the derived angle, stamped with the price
// and per-window changes, and the sequence is encoded as a looping
// animation.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"log"

	"bitcoin-roller-coaster/internal/domain"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/font/basicfont"
)

const (
	frameDelayCS = 10 // per-frame display time in 1/100s
	textMargin   = 10.0
	lineStep     = 70.0
	fontPoints   = 70.0

	unavailableMarker = "Data Unavailable"
)

var (
	colorPrice = color.White
	colorUp    = color.RGBA{G: 0x80, A: 0xFF}
	colorDown  = color.RGBA{R: 0xFF, A: 0xFF}
)

// Overlay is the text content stamped identically onto every frame of
// one cycle's animation.
type Overlay struct {
	Price   float64
	Angle   float64
	Changes []domain.PriceChange // fixed window order
}

type Renderer struct {
	tracer     trace.Tracer
	framePaths []string
	fontPath   string
	fontWarned bool
}

func New(tracer trace.Tracer, framePaths []string, fontPath string) *Renderer {
	return &Renderer{
		tracer:     tracer,
		framePaths: framePaths,
		fontPath:   fontPath,
	}
}

// Render loads the base frames fresh, rotates and stamps each one,
// and encodes the looping GIF. A single missing or unreadable frame
// fails the whole render; no partial animation is ever produced.
func (r *Renderer) Render(ctx context.Context, ov Overlay) ([]byte, error) {
	_, span := r.tracer.Start(ctx, "render.frames")
	defer span.End()

	if len(r.framePaths) == 0 {
		return nil, fmt.Errorf("no base frames configured")
	}

	frames := make([]*image.Paletted, 0, len(r.framePaths))
	delays := make([]int, 0, len(r.framePaths))
	for _, path := range r.framePaths {
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open base frame %s: %w", path, err)
		}
		frames = append(frames, palettize(r.stamp(img, ov)))
		delays = append(delays, frameDelayCS)
	}

	var buf bytes.Buffer
	anim := &gif.GIF{Image: frames, Delay: delays, LoopCount: 0}
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

// stamp rotates one frame and draws the overlay text lines top-down.
func (r *Renderer) stamp(img image.Image, ov Overlay) image.Image {
	rotated := imaging.Rotate(img, ov.Angle, color.Transparent)

	dc := gg.NewContextForImage(rotated)
	r.setFont(dc)

	y := textMargin + fontPoints
	dc.SetColor(colorPrice)
	dc.DrawString(fmt.Sprintf("BTC: $%.2f", ov.Price), textMargin, y)

	for _, change := range ov.Changes {
		y += lineStep
		text := fmt.Sprintf("%s: %s", change.Window, unavailableMarker)
		if change.OK {
			text = fmt.Sprintf("%s: %+.2f%%", change.Window, change.Pct)
		}
		switch change.Sign() {
		case domain.SignPositive:
			dc.SetColor(colorUp)
		case domain.SignNonPositive:
			dc.SetColor(colorDown)
		}
		dc.DrawString(text, textMargin, y)
	}
	return dc.Image()
}

// setFont loads the preferred face, falling back to the built-in
// bitmap face when it cannot be loaded. Font trouble never aborts a
// render.
func (r *Renderer) setFont(dc *gg.Context) {
	if r.fontPath != "" {
		if err := dc.LoadFontFace(r.fontPath, fontPoints); err == nil {
			return
		} else if !r.fontWarned {
			log.Printf("font %s not loadable, using built-in face: %v", r.fontPath, err)
			r.fontWarned = true
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func palettize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}
