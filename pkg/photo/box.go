package photo

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // retail image hosts serve WebP

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/layout"
)

// Outcome reports what happened to a photo box on one card.
type Outcome int

const (
	// OutcomeSkipped means no source column or an empty URL.
	OutcomeSkipped Outcome = iota
	// OutcomePlaced means the photo was drawn.
	OutcomePlaced
	// OutcomeFailed means the card was left unmodified; see the error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomePlaced:
		return "placed"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Source returns the payload for a photo URL.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Placer draws the configured photo box onto cards.
type Placer struct {
	source Source
	logger *log.Logger
}

// NewPlacer creates a placer reading photos from src.
func NewPlacer(src Source, logger *log.Logger) *Placer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Placer{source: src, logger: logger}
}

// Place fetches the photo at url and draws it into box on canvas. It returns
// the resulting canvas, which is canvas itself unless the photo was placed.
// On failure the original canvas is returned with OutcomeFailed and the
// cause.
func (p *Placer) Place(ctx context.Context, canvas *image.NRGBA, box *config.ImageBox, url string) (*image.NRGBA, Outcome, error) {
	if box == nil || box.SourceColumn == "" || url == "" {
		return canvas, OutcomeSkipped, nil
	}

	data, err := p.source.Fetch(ctx, url)
	if err != nil {
		return canvas, OutcomeFailed, err
	}
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return canvas, OutcomeFailed, errors.Wrap(errors.ErrCodeDecode, err, "decode photo %s", url)
	}

	photo, hasAlpha := p.prepare(src, box)
	out, err := Compose(canvas, photo, hasAlpha, box)
	if err != nil {
		return canvas, OutcomeFailed, err
	}
	return out, OutcomePlaced, nil
}

// prepare applies background removal, falling back to an opaque copy.
func (p *Placer) prepare(src image.Image, box *config.ImageBox) (*image.NRGBA, bool) {
	if !box.RemoveBG {
		return Opaque(src), false
	}
	key, err := config.ParseColor(box.RemoveBGColor)
	if err == nil {
		var out *image.NRGBA
		if out, err = RemoveBackground(src, key, box.RemoveBGTolerance, box.AutoCrop); err == nil {
			return out, true
		}
	}
	p.logger.Debug("background removal failed, using opaque photo", "error", err)
	return Opaque(src), false
}

// Compose scales photo into box and draws it centered on canvas, blending
// through its alpha when hasAlpha is set. Fractional box values resolve
// against the canvas; a missing width or height uses the photo's own size.
func Compose(canvas, photo *image.NRGBA, hasAlpha bool, box *config.ImageBox) (*image.NRGBA, error) {
	pw, ph := photo.Bounds().Dx(), photo.Bounds().Dy()
	if pw <= 0 || ph <= 0 {
		return canvas, errors.New(errors.ErrCodeDecode, "photo has no pixels")
	}

	cw, ch := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	x := layout.ResolveCoord(box.X, cw)
	y := layout.ResolveCoord(box.Y, ch)
	bw := max(1, layout.ResolveCoord(valueOr(box.Width, pw), cw))
	bh := max(1, layout.ResolveCoord(valueOr(box.Height, ph), ch))

	sw := float64(bw) / float64(pw)
	sh := float64(bh) / float64(ph)
	scale := min(sw, sh)
	if box.IsCover() {
		scale = max(sw, sh)
	}
	nw := max(1, int(float64(pw)*scale))
	nh := max(1, int(float64(ph)*scale))

	resized := photo
	if nw != pw || nh != ph {
		resized = imaging.Resize(photo, nw, nh, imaging.CatmullRom)
	}
	at := image.Pt(x+layout.FloorDiv(bw-nw, 2), y+layout.FloorDiv(bh-nh, 2))

	if hasAlpha {
		return imaging.Overlay(canvas, resized, at, 1.0), nil
	}
	return imaging.Paste(canvas, resized, at), nil
}

func valueOr(v *layout.Value, fallback int) layout.Value {
	if v == nil {
		return layout.Value(fallback)
	}
	return *v
}
