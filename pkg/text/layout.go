package text

import (
	"strings"

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/layout"
)

// FieldLineSpacing is the baseline spacing factor of wrapped fields.
const FieldLineSpacing = 1.1

// BoxAnchor is the anchor every wrapped line is drawn with.
const BoxAnchor = "la"

// articleNames are the column names treated as a product article number.
var articleNames = map[string]bool{
	"артикул":  true,
	"article":  true,
	"арт":      true,
	"артикуль": true,
}

// IsArticleField reports whether a field name denotes the article number,
// ignoring case and surrounding whitespace.
func IsArticleField(name string) bool {
	return articleNames[strings.ToLower(strings.TrimSpace(name))]
}

// Line is one line of a laid-out zone, anchored at (X, Y).
type Line struct {
	Text   string
	X, Y   int
	Anchor string
}

// LayoutField lays out a single-value zone. A rect without positive area is
// point mode: one line at (X, Y) with the given anchor. Otherwise words wrap
// greedily inside the rect; lines that would not fit below are dropped.
// Article fields center each line horizontally, and a lone line that never
// wrapped is also centered vertically.
func LayoutField(ts Typesetter, rect layout.Rect, name, anchor, value string) []Line {
	if !rect.IsBox() {
		if value == "" {
			return nil
		}
		if anchor == "" {
			anchor = config.DefaultAnchor
		}
		return []Line{{Text: value, X: rect.X, Y: rect.Y, Anchor: anchor}}
	}

	article := IsArticleField(name)
	step := ts.Step(FieldLineSpacing)
	limit := rect.Y + rect.H - step

	var lines []Line
	place := func(s string, y int) {
		x := rect.X
		if article {
			x = rect.X + layout.FloorDiv(rect.W-ts.Width(s), 2)
		}
		lines = append(lines, Line{Text: s, X: x, Y: y, Anchor: BoxAnchor})
	}

	cursor := rect.Y
	line := ""
	for _, word := range strings.Fields(value) {
		candidate := strings.TrimSpace(line + " " + word)
		if ts.Width(candidate) > rect.W && line != "" {
			place(line, cursor)
			cursor += step
			line = word
			if cursor > limit {
				break
			}
			continue
		}
		line = candidate
	}

	if line != "" && cursor <= limit {
		if article && cursor == rect.Y {
			cursor = rect.Y + layout.FloorDiv(rect.H-step, 2)
		}
		place(line, cursor)
	}
	return lines
}

// ListLayout is the result of laying out a list zone.
type ListLayout struct {
	Lines []Line
	// Entries is the number of cleaned entries, drawn or not.
	Entries int
	// Overflowed is set when there were more entries than max_lines.
	Overflowed bool
}

// LayoutList lays out a delimited list zone: the title, then up to
// MaxLines cleaned and truncated entries, then the overflow text when
// entries were left out. With a positive rect height, emission stops at the
// first line whose step would pass the bottom of the zone.
func LayoutList(ts Typesetter, rect layout.Rect, m config.MultilineField, value string) ListLayout {
	delim := m.Delimiter
	if delim == "" {
		delim = config.DefaultDelimiter
	}
	anchor := m.Anchor
	if anchor == "" {
		anchor = config.DefaultAnchor
	}

	entries := CleanTokens(SplitList(value, delim))
	for i, e := range entries {
		entries[i] = Truncate(e, m.MaxChars)
	}

	out := ListLayout{Entries: len(entries), Overflowed: len(entries) > m.MaxLines}

	step := ts.Step(m.LineSpacing)
	cursor := rect.Y
	emit := func(s string) bool {
		if rect.H > 0 && cursor+step > rect.Y+rect.H {
			return false
		}
		out.Lines = append(out.Lines, Line{Text: s, X: rect.X, Y: cursor, Anchor: anchor})
		cursor += step
		return true
	}

	if !emit(m.Title) {
		return out
	}
	shown := entries
	if len(shown) > m.MaxLines {
		shown = shown[:max(m.MaxLines, 0)]
	}
	for _, e := range shown {
		if !emit(e) {
			break
		}
	}
	if out.Overflowed && m.ShowOverflowText {
		emit(m.OverflowText)
	}
	return out
}
