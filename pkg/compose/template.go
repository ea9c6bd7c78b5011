package compose

import (
	"image"
	"os"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/photo"
)

// Template is the decoded background every card starts from. It is never
// drawn on; each card gets its own copy from Canvas.
type Template struct {
	path string
	img  *image.NRGBA
}

// LoadTemplate decodes the image at path and drops its transparency.
func LoadTemplate(path string) (*Template, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplateNotFound, err, "template %s", path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplateInvalid, err, "decode template %s", path)
	}
	return NewTemplate(img, path), nil
}

// NewTemplate wraps an already decoded image.
func NewTemplate(img image.Image, path string) *Template {
	return &Template{path: path, img: photo.Opaque(img)}
}

// Canvas returns a fresh, independently owned copy of the template.
func (t *Template) Canvas() *image.NRGBA {
	return imaging.Clone(t.img)
}

// Size returns the template dimensions in pixels.
func (t *Template) Size() (w, h int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Path returns the file the template was loaded from.
func (t *Template) Path() string { return t.path }
