// Package fonts resolves the typeface used for text zones.
//
// A [Library] walks a fallback chain once: the configured font file, then
// platform fonts located on disk, then the bundled Go Regular typeface. If no
// TrueType data can be parsed the fixed 7x13 bitmap face is used for every
// size. Resolution never fails; the chosen source is reported by
// [Library.Source] so callers can log substitutions.
package fonts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/flopp/go-findfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DPI is the resolution faces are built at, so one point equals one pixel.
const DPI = 72

// PlatformCandidates are the font files searched for when no custom font is
// configured or it cannot be used.
var PlatformCandidates = []string{"arial.ttf", "segoeui.ttf", "DejaVuSans.ttf"}

// Source names where a library's typeface came from.
type Source string

const (
	SourceCustom   Source = "custom"
	SourcePlatform Source = "platform"
	SourceBundled  Source = "bundled"
	SourceBitmap   Source = "bitmap"
)

// Library holds one parsed typeface. It is safe for concurrent use; faces
// are not, so each goroutine draws through its own [Faces].
type Library struct {
	font   *opentype.Font
	source Source
	path   string
}

// Load resolves the fallback chain starting at customPath, which may be empty.
func Load(customPath string, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if customPath != "" {
		f, err := parseFile(customPath)
		if err == nil {
			return &Library{font: f, source: SourceCustom, path: customPath}
		}
		logger.Warn("custom font unusable, falling back", "path", customPath, "error", err)
	}

	for _, path := range platformPaths() {
		if f, err := parseFile(path); err == nil {
			logger.Debug("using platform font", "path", path)
			return &Library{font: f, source: SourcePlatform, path: path}
		}
	}

	if f, err := opentype.Parse(goregular.TTF); err == nil {
		logger.Debug("using bundled font")
		return &Library{font: f, source: SourceBundled}
	}

	logger.Warn("no scalable font available, using bitmap face")
	return &Library{source: SourceBitmap}
}

// Source reports which link of the fallback chain was used.
func (l *Library) Source() Source { return l.source }

// Path is the font file in use, empty for the bundled and bitmap faces.
func (l *Library) Path() string { return l.path }

// Faces returns a new, empty face cache drawing from l.
func (l *Library) Faces() *Faces {
	return &Faces{lib: l, faces: make(map[int]font.Face)}
}

// Faces caches one face per pixel size. It is not safe for concurrent use.
type Faces struct {
	lib   *Library
	faces map[int]font.Face
}

// Face returns the face for size pixels. Sizes below 1 are clamped to 1.
func (f *Faces) Face(size int) font.Face {
	size = max(size, 1)
	if face, ok := f.faces[size]; ok {
		return face
	}
	face := f.lib.newFace(size)
	f.faces[size] = face
	return face
}

// Close releases every cached face.
func (f *Faces) Close() error {
	for size, face := range f.faces {
		_ = face.Close()
		delete(f.faces, size)
	}
	return nil
}

func (l *Library) newFace(size int) font.Face {
	if l.font == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(l.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Pool hands out per-goroutine face caches backed by one library.
type Pool struct {
	lib  *Library
	pool sync.Pool
}

// NewPool creates a face cache pool for lib.
func NewPool(lib *Library) *Pool {
	p := &Pool{lib: lib}
	p.pool.New = func() any { return lib.Faces() }
	return p
}

// Get borrows a face cache. Return it with Put once drawing is done.
func (p *Pool) Get() *Faces { return p.pool.Get().(*Faces) }

// Put returns a face cache to the pool.
func (p *Pool) Put(f *Faces) { p.pool.Put(f) }

// Library returns the typeface the pool draws from.
func (p *Pool) Library() *Library { return p.lib }

func parseFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

func platformPaths() []string {
	var paths []string
	windir := os.Getenv("WINDIR")
	for _, name := range PlatformCandidates {
		if path, err := findfont.Find(name); err == nil {
			paths = append(paths, path)
		}
		if windir != "" {
			paths = append(paths, filepath.Join(windir, "Fonts", name))
		}
	}
	return paths
}
