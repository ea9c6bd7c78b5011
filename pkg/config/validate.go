package config

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/layout"
)

// ParseColor parses "#rrggbb" or "#rgb"; the leading '#' is optional.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// Validate checks every zone and returns one INVALID_CONFIG error listing
// all problems found. Colors are not checked here: a bad text color renders
// black and a bad chroma key pastes the photo opaque, so neither stops a
// run. See Warnings.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.FilenamePattern) == "" {
		add("filename_pattern is empty")
	}

	for i, f := range c.Fields {
		where := fmt.Sprintf("fields[%d] %q", i, f.Name)
		checkFont(add, where, f.FontRef, f.FontUnits)
		checkAnchor(add, where, f.Anchor)
	}

	for i, m := range c.MultilineFields {
		where := fmt.Sprintf("multiline_fields[%d] %q", i, m.Name)
		checkFont(add, where, m.FontRef, m.FontUnits)
		checkAnchor(add, where, m.Anchor)
		if m.MaxLines < 0 {
			add("%s: max_lines %d is negative", where, m.MaxLines)
		}
		if m.Delimiter == "" {
			add("%s: delimiter is empty", where)
		}
		if m.LineSpacing <= 0 {
			add("%s: line_spacing %g must be positive", where, m.LineSpacing)
		}
	}

	if b := c.ImageBox; b != nil {
		switch normalize(b.Fit) {
		case "", FitContain, FitCover:
		default:
			add("image_box: fit %q (want contain or cover)", b.Fit)
		}
		if b.RemoveBGTolerance < 0 || b.RemoveBGTolerance > 255 {
			add("image_box: remove_bg_tolerance %d out of range 0..255", b.RemoveBGTolerance)
		}
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// Warnings lists settings that degrade the output without failing a row:
// colors that do not parse.
func (c *Config) Warnings() []string {
	var warnings []string
	add := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	for i, f := range c.Fields {
		checkColor(add, fmt.Sprintf("fields[%d] %q", i, f.Name), "color", f.Color, "text renders black")
	}
	for i, m := range c.MultilineFields {
		checkColor(add, fmt.Sprintf("multiline_fields[%d] %q", i, m.Name), "color", m.Color, "text renders black")
	}
	if b := c.ImageBox; b != nil && b.RemoveBG {
		checkColor(add, "image_box", "remove_bg_color", b.RemoveBGColor, "photos are pasted without background removal")
	}
	return warnings
}

func checkFont(add func(string, ...any), where string, ref layout.Axis, units layout.Units) {
	switch normalize(string(ref)) {
	case "", string(layout.AxisWidth), string(layout.AxisHeight):
	default:
		add("%s: font_ref %q (want w or h)", where, ref)
	}
	switch normalize(string(units)) {
	case "", string(layout.UnitsRelative), string(layout.UnitsPixels):
	default:
		add("%s: font_units %q (want rel or px)", where, units)
	}
}

func checkColor(add func(string, ...any), where, key, value, effect string) {
	if _, err := ParseColor(value); err != nil {
		add("%s: %s %q is not a hex color; %s", where, key, value, effect)
	}
}

func checkAnchor(add func(string, ...any), where, anchor string) {
	if anchor == "" {
		return
	}
	if len(anchor) != 2 || !strings.ContainsRune("lmr", rune(anchor[0])) || !strings.ContainsRune("atmsbd", rune(anchor[1])) {
		add("%s: anchor %q (want one of l,m,r followed by one of a,t,m,s,b,d)", where, anchor)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
