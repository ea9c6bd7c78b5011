// Package compose renders one card per data row.
//
// A [Compositor] holds everything that is shared across rows: the layout
// document, the decoded [Template], the photo placer and the typeface. Each
// call to [Compositor.Render] starts from a fresh copy of the template and
// draws, in order, the photo box, the text fields and the list fields.
// Rendering rows concurrently is safe.
package compose

import (
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/fonts"
	"github.com/matzehuels/cardforge/pkg/photo"
	"github.com/matzehuels/cardforge/pkg/table"
	"github.com/matzehuels/cardforge/pkg/text"
)

// JPEGQuality is the quality lossy outputs are saved with.
const JPEGQuality = 95

// Options configures a Compositor.
type Options struct {
	Config   *config.Config
	Template *Template
	// Photos provides photo payloads. Nil disables the photo box.
	Photos photo.Source
	// Fonts is the typeface used for every text zone. Nil resolves the
	// configured font chain.
	Fonts  *fonts.Library
	Logger *log.Logger
}

// Compositor renders cards from rows.
type Compositor struct {
	cfg      *config.Config
	template *Template
	placer   *photo.Placer
	faces    *fonts.Pool
	format   imaging.Format
	logger   *log.Logger
}

// New validates opts and creates a compositor.
func New(opts Options) (*Compositor, error) {
	if opts.Config == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no layout config")
	}
	if opts.Template == nil {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "no template")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	format, err := imaging.FormatFromFilename(opts.Config.FilenamePattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "filename_pattern %q", opts.Config.FilenamePattern)
	}
	lib := opts.Fonts
	if lib == nil {
		lib = fonts.Load(opts.Config.Font.TTFPath, opts.Logger)
	}

	c := &Compositor{
		cfg:      opts.Config,
		template: opts.Template,
		faces:    fonts.NewPool(lib),
		format:   format,
		logger:   opts.Logger,
	}
	if opts.Photos != nil {
		c.placer = photo.NewPlacer(opts.Photos, opts.Logger)
	}
	return c, nil
}

// Card is one rendered row.
type Card struct {
	Index int
	Name  string
	Image *image.NRGBA
	// Photo reports what happened to the photo box; PhotoErr holds the
	// cause when it failed.
	Photo    photo.Outcome
	PhotoErr error
}

// Render draws the card for the row at index. Photo failures are reported
// on the card, not returned; the error is only set when no output name can
// be derived.
func (c *Compositor) Render(ctx context.Context, index int, row table.Row) (*Card, error) {
	name, err := OutputName(c.cfg.FilenamePattern, row, index)
	if err != nil {
		return nil, err
	}
	card := &Card{Index: index, Name: name, Image: c.template.Canvas()}

	if box := c.cfg.ImageBox; box != nil && c.placer != nil {
		url := strings.TrimSpace(row.Get(box.SourceColumn))
		card.Image, card.Photo, card.PhotoErr = c.placer.Place(ctx, card.Image, box, url)
	}

	faces := c.faces.Get()
	defer c.faces.Put(faces)
	r := text.NewRenderer(faces, c.logger)

	for _, f := range c.cfg.Fields {
		r.DrawField(card.Image, f, row.Get(f.Name))
	}
	for _, m := range c.cfg.MultilineFields {
		r.DrawList(card.Image, m, row.Get(m.Name))
	}
	return card, nil
}

// Save writes card into dir and returns the file path.
func (c *Compositor) Save(card *Card, dir string) (string, error) {
	path := filepath.Join(dir, card.Name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOutput, err, "create %s", path)
	}
	if err := c.Encode(f, card); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeOutput, err, "write %s", path)
	}
	return path, nil
}

// Encode writes card in the format named by the filename pattern.
func (c *Compositor) Encode(w io.Writer, card *Card) error {
	if err := imaging.Encode(w, card.Image, c.format, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return errors.Wrap(errors.ErrCodeOutput, err, "encode %s", card.Name)
	}
	return nil
}

// Bytes encodes card into memory.
func (c *Compositor) Bytes(card *Card) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, card); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Format returns the output image format.
func (c *Compositor) Format() imaging.Format { return c.format }

// Config returns the layout document the compositor draws.
func (c *Compositor) Config() *config.Config { return c.cfg }

// FontSource reports which typeface link was resolved.
func (c *Compositor) FontSource() fonts.Source { return c.faces.Library().Source() }
