// File: internal/vision/templates.go
// Description: Loading and validation of template image assets. Templates
// are decoded to grayscale once at load and immutable afterwards.
package vision

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

// Template is one named reference image, optionally anchored to a corner.
type Template struct {
	Name   string
	Corner schemas.Corner
	Gray   *image.Gray
}

// Width returns the template width in pixels.
func (t *Template) Width() int { return t.Gray.Bounds().Dx() }

// Height returns the template height in pixels.
func (t *Template) Height() int { return t.Gray.Bounds().Dy() }

// TemplateStore resolves template names to decoded images. Invalid files
// (missing, unreadable, zero-size, undecodable) fail loading with a
// descriptive error rather than degrading silently.
type TemplateStore struct {
	dir       string
	log       *zap.Logger
	templates map[string]*Template
}

// NewTemplateStore creates a store rooted at dir. Nothing is loaded yet;
// Load pulls individual assets in.
func NewTemplateStore(dir string, logger *zap.Logger) *TemplateStore {
	return &TemplateStore{
		dir:       dir,
		log:       logger.Named("templates"),
		templates: make(map[string]*Template),
	}
}

// Load reads, validates and decodes one template file, tagging it with the
// given corner. Loading the same name twice returns the cached copy.
func (s *TemplateStore) Load(name string, corner schemas.Corner) (*Template, error) {
	if cached, ok := s.templates[name]; ok {
		return cached, nil
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, schemas.TemplateMissingError(name, path, err)
	}
	if info.Size() == 0 {
		return nil, schemas.TemplateMissingError(name, path, fmt.Errorf("file is empty"))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, schemas.TemplateMissingError(name, path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, schemas.TemplateMissingError(name, path, fmt.Errorf("decode failed: %w", err))
	}

	tpl := &Template{Name: name, Corner: corner, Gray: ToGray(img)}
	s.templates[name] = tpl

	s.log.Debug("Template loaded",
		zap.String("name", name),
		zap.String("format", format),
		zap.String("corner", string(corner)),
		zap.Int("width", tpl.Width()),
		zap.Int("height", tpl.Height()))
	return tpl, nil
}

// Get returns an already loaded template by name.
func (s *TemplateStore) Get(name string) (*Template, bool) {
	tpl, ok := s.templates[name]
	return tpl, ok
}

// ToGray converts any image to 8-bit grayscale. Matching operates on
// luminance only; template assets and screenshots go through the same
// conversion so their pixel values are comparable.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return gray
}
