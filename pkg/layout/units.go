// Package layout resolves configured zone geometry into canvas pixels.
//
// Every x/y/width/height and font size in a layout configuration is a
// [Value]. Values in (0, 1] are fractions of a reference dimension; any
// other value is a literal pixel count truncated toward zero.
package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MinRelativeFontSize is the smallest font size a relative size resolves to.
const MinRelativeFontSize = 8

// Value is a configured coordinate or size: a fraction in (0, 1] or pixels.
// It decodes from JSON numbers and from numeric strings.
type Value float64

// UnmarshalJSON accepts 0.5, 120 and "0.5". Non-numeric strings are an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Value(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("layout value %s: expected number", data)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("layout value %q: expected number", s)
	}
	*v = Value(f)
	return nil
}

// IsRelative reports whether v is a fraction of a reference dimension.
func (v Value) IsRelative() bool {
	return v > 0 && v <= 1
}

// Axis selects the canvas dimension a relative font size scales with.
type Axis string

const (
	AxisWidth  Axis = "w"
	AxisHeight Axis = "h"
)

// Units selects how a font size value is read.
type Units string

const (
	UnitsRelative Units = "rel"
	UnitsPixels   Units = "px"
)

// Canvas is the pixel size that relative values resolve against.
type Canvas struct {
	W, H int
}

// ResolveCoord converts v to pixels: fractions scale total, anything else is
// truncated toward zero. 0 is a literal 0 and 1.0 is the full dimension.
func ResolveCoord(v Value, total int) int {
	if v.IsRelative() {
		return int(float64(v) * float64(total))
	}
	return int(v)
}

// ResolveFontSize converts a font size to pixels. With relative units a
// fraction scales the chosen canvas axis and never drops below
// MinRelativeFontSize; every other combination is a literal pixel size.
func ResolveFontSize(v Value, ref Axis, units Units, c Canvas) int {
	if normalizeUnits(units) == UnitsRelative && v.IsRelative() {
		base := c.W
		if normalizeAxis(ref) == AxisHeight {
			base = c.H
		}
		return max(MinRelativeFontSize, int(float64(v)*float64(base)))
	}
	return int(v)
}

// Rect is a resolved zone in canvas pixels.
type Rect struct {
	X, Y, W, H int
}

// IsBox reports whether the zone has a positive area.
func (r Rect) IsBox() bool {
	return r.W > 0 && r.H > 0
}

// ResolveRect resolves a zone against the canvas: x and width scale with the
// canvas width, y and height with its height.
func ResolveRect(x, y, w, h Value, c Canvas) Rect {
	return Rect{
		X: ResolveCoord(x, c.W),
		Y: ResolveCoord(y, c.H),
		W: ResolveCoord(w, c.W),
		H: ResolveCoord(h, c.H),
	}
}

func normalizeAxis(a Axis) Axis {
	if strings.ToLower(string(a)) == string(AxisHeight) {
		return AxisHeight
	}
	return AxisWidth
}

func normalizeUnits(u Units) Units {
	if strings.ToLower(string(u)) == string(UnitsPixels) {
		return UnitsPixels
	}
	return UnitsRelative
}

// FloorDiv divides rounding toward negative infinity, so centering offsets
// stay consistent when the content is larger than its box.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
