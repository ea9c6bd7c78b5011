package text

import (
	"image"
	"image/color"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/layout"
)

// FaceSource provides a face per pixel size.
type FaceSource interface {
	Face(size int) font.Face
}

// Renderer draws text zones onto a canvas. It is not safe for concurrent
// use when its FaceSource is not.
type Renderer struct {
	faces  FaceSource
	logger *log.Logger
}

// NewRenderer creates a renderer drawing with faces from src.
func NewRenderer(src FaceSource, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Renderer{faces: src, logger: logger}
}

// DrawField draws a text field and returns the lines drawn.
func (r *Renderer) DrawField(canvas *image.NRGBA, f config.Field, value string) []Line {
	c := canvasOf(canvas)
	rect := layout.ResolveRect(f.X, f.Y, f.Width, f.Height, c)
	ts := r.typesetter(layout.ResolveFontSize(f.FontSize, f.FontRef, f.FontUnits, c))

	lines := LayoutField(ts, rect, f.Name, f.Anchor, value)
	r.draw(canvas, ts, r.color(f.Name, f.Color), lines)
	return lines
}

// DrawList draws a list field and returns its layout.
func (r *Renderer) DrawList(canvas *image.NRGBA, m config.MultilineField, value string) ListLayout {
	c := canvasOf(canvas)
	rect := layout.ResolveRect(m.X, m.Y, m.Width, m.Height, c)
	ts := r.typesetter(layout.ResolveFontSize(m.FontSize, m.FontRef, m.FontUnits, c))

	out := LayoutList(ts, rect, m, value)
	if rect.W > 0 {
		for _, l := range out.Lines {
			if w := ts.Width(l.Text); w > rect.W {
				r.logger.Debug("list line wider than zone", "field", m.Name, "line", l.Text, "width", w, "zone", rect.W)
			}
		}
	}
	r.draw(canvas, ts, r.color(m.Name, m.Color), out.Lines)
	return out
}

func (r *Renderer) typesetter(size int) Typesetter {
	return Typesetter{Face: r.faces.Face(size), Size: size}
}

func (r *Renderer) draw(canvas *image.NRGBA, ts Typesetter, col color.Color, lines []Line) {
	d := font.Drawer{Dst: canvas, Src: image.NewUniform(col), Face: ts.Face}
	for _, l := range lines {
		if l.Text == "" {
			continue
		}
		d.Dot = ts.Origin(l.Anchor, l.X, l.Y, l.Text)
		d.DrawString(l.Text)
	}
}

func (r *Renderer) color(field, hex string) color.Color {
	c, err := config.ParseColor(hex)
	if err != nil {
		r.logger.Debug("invalid text color, using black", "field", field, "color", hex)
		return color.Black
	}
	return c
}

func canvasOf(img *image.NRGBA) layout.Canvas {
	b := img.Bounds()
	return layout.Canvas{W: b.Dx(), H: b.Dy()}
}
