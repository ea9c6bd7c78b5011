// Package text lays out and draws the text zones of a card.
//
// Layout and drawing are split: [LayoutField] and [LayoutList] compute the
// lines of a zone and where each is anchored, using only a [Typesetter] for
// measurement; [Renderer] resolves the zone against a canvas, lays it out
// and draws the lines.
package text

import (
	"math"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// approxCharWidth is the per-rune width, as a fraction of the font size,
// used when a face cannot report glyph bounds.
const approxCharWidth = 0.55

// Typesetter measures text in one face at one pixel size.
type Typesetter struct {
	Face font.Face
	Size int
}

// Width is the distance from the origin to the right edge of the inked
// glyphs of s. Faces that report no bounds fall back to a rune-count
// estimate.
func (t Typesetter) Width(s string) int {
	if s == "" {
		return 0
	}
	if t.Face != nil {
		b, _ := font.BoundString(t.Face, s)
		if !b.Empty() {
			return b.Max.X.Ceil()
		}
	}
	return t.approx(s)
}

// Advance is how far the pen moves while drawing s.
func (t Typesetter) Advance(s string) int {
	if s == "" {
		return 0
	}
	if t.Face != nil {
		if a := font.MeasureString(t.Face, s); a > 0 {
			return a.Ceil()
		}
	}
	return t.approx(s)
}

// Metrics returns the face ascent and descent in whole pixels. ok is false
// when the face reports no vertical extent.
func (t Typesetter) Metrics() (ascent, descent int, ok bool) {
	if t.Face == nil {
		return 0, 0, false
	}
	m := t.Face.Metrics()
	ascent, descent = m.Ascent.Ceil(), m.Descent.Ceil()
	return ascent, descent, ascent+descent > 0
}

// Step is the distance between consecutive baselines for the given spacing
// factor.
func (t Typesetter) Step(spacing float64) int {
	if a, d, ok := t.Metrics(); ok {
		return int(math.Round(float64(a+d) * spacing))
	}
	return int(math.Round(float64(t.Size) * spacing))
}

// ink returns the vertical extent of the inked glyphs of s relative to the
// baseline; top is negative above it.
func (t Typesetter) ink(s string) (top, bottom int) {
	if t.Face != nil {
		if b, _ := font.BoundString(t.Face, s); !b.Empty() {
			return b.Min.Y.Floor(), b.Max.Y.Ceil()
		}
	}
	a, d, _ := t.Metrics()
	return -a, d
}

func (t Typesetter) approx(s string) int {
	return int(approxCharWidth * float64(t.Size) * float64(utf8.RuneCountInString(s)))
}

// Origin converts an anchor point into the baseline-left pen position for
// s. Anchors are two letters: horizontal l (left), m (middle) or r (right),
// then vertical a (ascender), t (top), m (middle), s (baseline),
// b (bottom) or d (descender). Unknown letters behave as "la".
func (t Typesetter) Origin(anchor string, x, y int, s string) fixed.Point26_6 {
	h, v := byte('l'), byte('a')
	if len(anchor) == 2 {
		h, v = anchor[0], anchor[1]
	}

	switch h {
	case 'm':
		x -= t.Advance(s) / 2
	case 'r':
		x -= t.Advance(s)
	}

	ascent, descent, _ := t.Metrics()
	switch v {
	case 't':
		top, _ := t.ink(s)
		y -= top
	case 'm':
		y += (ascent - descent) / 2
	case 's':
	case 'b':
		_, bottom := t.ink(s)
		y -= bottom
	case 'd':
		y -= descent
	default:
		y += ascent
	}
	return fixed.P(x, y)
}
