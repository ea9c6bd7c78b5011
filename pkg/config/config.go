// Package config defines the layout configuration document.
//
// A document names the template image, the output directory and the zones
// drawn onto every card: single-line or wrapped text [Field] entries,
// delimited-list [MultilineField] entries and at most one photo [ImageBox].
// Documents are stored as JSON or TOML; see [Load] and [Config.Save].
//
// Keys this package does not know about are carried through decoding and
// written back unchanged, so documents produced by other tools survive a
// load/save round trip.
package config

import (
	"github.com/matzehuels/cardforge/pkg/layout"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultTemplate        = "template.jpg"
	DefaultOutputDir       = "output"
	DefaultFilenamePattern = "{article_clean}.jpg"

	DefaultFontSize  = 32
	DefaultColor     = "#000000"
	DefaultAnchor    = "la"
	DefaultDelimiter = "/"

	DefaultMaxLines     = 6
	DefaultMaxChars     = 20
	DefaultOverflowText = "и т.д."
	DefaultTitle        = "Применимость:"
	DefaultLineSpacing  = 1.2

	DefaultKeyColor  = "#FFFFFF"
	DefaultTolerance = 20
)

// Fit modes for the photo box.
const (
	FitContain = "contain"
	FitCover   = "cover"
)

// =============================================================================
// Document Types
// =============================================================================

// Config is a complete layout document.
type Config struct {
	Template        string           `json:"template"`
	OutputDir       string           `json:"output_dir"`
	Fields          []Field          `json:"fields"`
	MultilineFields []MultilineField `json:"multiline_fields"`
	ImageBox        *ImageBox        `json:"image_box"`
	Font            Font             `json:"font"`
	FilenamePattern string           `json:"filename_pattern"`

	// Extra holds top-level keys not declared above.
	Extra map[string]any `json:"-"`

	// path is the file the document was loaded from, if any.
	path string
}

// Field is a text zone drawn from one data column. A zone whose width or
// height resolves to zero is drawn as a single anchored line at (X, Y).
type Field struct {
	Name      string       `json:"name"`
	X         layout.Value `json:"x"`
	Y         layout.Value `json:"y"`
	Width     layout.Value `json:"width,omitempty"`
	Height    layout.Value `json:"height,omitempty"`
	FontSize  layout.Value `json:"font_size"`
	FontRef   layout.Axis  `json:"font_ref"`
	FontUnits layout.Units `json:"font_units"`
	Color     string       `json:"color"`
	Anchor    string       `json:"anchor"`

	Extra map[string]any `json:"-"`
}

// MultilineField draws a delimited list as a title line followed by cleaned
// entries and an optional overflow marker.
type MultilineField struct {
	Name             string       `json:"name"`
	X                layout.Value `json:"x"`
	Y                layout.Value `json:"y"`
	Width            layout.Value `json:"width,omitempty"`
	Height           layout.Value `json:"height,omitempty"`
	FontSize         layout.Value `json:"font_size"`
	FontRef          layout.Axis  `json:"font_ref"`
	FontUnits        layout.Units `json:"font_units"`
	Color            string       `json:"color"`
	Anchor           string       `json:"anchor"`
	Delimiter        string       `json:"delimiter"`
	MaxLines         int          `json:"max_lines"`
	OverflowText     string       `json:"overflow_text"`
	ShowOverflowText bool         `json:"show_overflow_text"`
	LineSpacing      float64      `json:"line_spacing"`
	Title            string       `json:"title"`
	MaxChars         int          `json:"max_chars"`

	Extra map[string]any `json:"-"`
}

// ImageBox places a photo fetched from the URL in SourceColumn. A nil Width
// or Height falls back to the photo's own size.
type ImageBox struct {
	SourceColumn      string        `json:"source_column"`
	X                 layout.Value  `json:"x"`
	Y                 layout.Value  `json:"y"`
	Width             *layout.Value `json:"width"`
	Height            *layout.Value `json:"height"`
	Fit               string        `json:"fit"`
	RemoveBG          bool          `json:"remove_bg"`
	RemoveBGColor     string        `json:"remove_bg_color"`
	RemoveBGTolerance int           `json:"remove_bg_tolerance"`
	AutoCrop          bool          `json:"auto_crop"`

	Extra map[string]any `json:"-"`
}

// Font selects a custom TrueType file. Empty means the platform fallback chain.
type Font struct {
	TTFPath string `json:"ttf_path"`

	Extra map[string]any `json:"-"`
}

// Path returns the file the document was loaded from, or "".
func (c *Config) Path() string { return c.path }

// IsCover reports whether the photo should fill its box.
func (b *ImageBox) IsCover() bool {
	return normalize(b.Fit) == FitCover
}

// =============================================================================
// Defaults
// =============================================================================

// Default returns the built-in document: an article field, an applicability
// list and a chroma-keyed photo box.
func Default() *Config {
	article := defaultField()
	article.Name = "Артикул"
	article.X, article.Y = 0.58, 0.12
	article.FontSize = 0.070

	applicability := defaultMultilineField()
	applicability.Name = "Применимость по КК"
	applicability.X, applicability.Y = 0.62, 0.42
	applicability.FontSize = 0.050
	applicability.LineSpacing = 1.25

	box := defaultImageBox()
	box.SourceColumn = "Ссылка на фото"
	box.X, box.Y = 0.05, 0.28
	width, height := layout.Value(0.58), layout.Value(0.52)
	box.Width, box.Height = &width, &height

	return &Config{
		Template:        DefaultTemplate,
		OutputDir:       DefaultOutputDir,
		Fields:          []Field{article},
		MultilineFields: []MultilineField{applicability},
		ImageBox:        &box,
		FilenamePattern: DefaultFilenamePattern,
	}
}

func defaultField() Field {
	return Field{
		FontSize:  DefaultFontSize,
		FontRef:   layout.AxisWidth,
		FontUnits: layout.UnitsRelative,
		Color:     DefaultColor,
		Anchor:    DefaultAnchor,
	}
}

func defaultMultilineField() MultilineField {
	return MultilineField{
		FontSize:         DefaultFontSize,
		FontRef:          layout.AxisWidth,
		FontUnits:        layout.UnitsRelative,
		Color:            DefaultColor,
		Anchor:           DefaultAnchor,
		Delimiter:        DefaultDelimiter,
		MaxLines:         DefaultMaxLines,
		OverflowText:     DefaultOverflowText,
		ShowOverflowText: true,
		LineSpacing:      DefaultLineSpacing,
		Title:            DefaultTitle,
		MaxChars:         DefaultMaxChars,
	}
}

func defaultImageBox() ImageBox {
	return ImageBox{
		Fit:               FitContain,
		RemoveBG:          true,
		RemoveBGColor:     DefaultKeyColor,
		RemoveBGTolerance: DefaultTolerance,
		AutoCrop:          true,
	}
}
