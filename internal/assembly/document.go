// Package assembly binds normalized images into a single PDF document with one
// page per image, each page sized to its image's pixel dimensions.
package assembly

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/JaimeStill/folio/internal/files"
	"github.com/JaimeStill/folio/internal/images"
)

// ContentType is the MIME type of a finalized document.
const ContentType = "application/pdf"

// Page describes one embedded image page. Width and Height are in PDF points,
// one point per image pixel.
type Page struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`

	image images.Image
}

// Document is an in-progress PDF. Pages are appended by Embed in call order;
// Finalize serializes them.
type Document struct {
	mu    sync.Mutex
	pages []Page
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// Embed appends a page for img. The page matches the image dimensions and the
// image is drawn at the origin scaled by min(pageW/imgW, pageH/imgH, 1).
func (d *Document) Embed(img images.Image) error {
	if err := verify(img); err != nil {
		return fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}

	pageWidth := float64(img.Width)
	pageHeight := float64(img.Height)
	scale := min(pageWidth/float64(img.Width), pageHeight/float64(img.Height), 1)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pages = append(d.pages, Page{
		Width:  pageWidth,
		Height: pageHeight,
		Scale:  scale,
		image:  img,
	})
	return nil
}

// PageCount returns the number of embedded pages.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pages)
}

// Pages returns a copy of the embedded page layout.
func (d *Document) Pages() []Page {
	d.mu.Lock()
	defer d.mu.Unlock()

	pages := make([]Page, len(d.pages))
	copy(pages, d.pages)
	return pages
}

// Finalize serializes the document to PDF bytes and validates the output.
func (d *Document) Finalize() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	readers := make([]io.Reader, len(d.pages))
	for i, p := range d.pages {
		readers[i] = bytes.NewReader(p.image.Data)
	}

	conf := model.NewDefaultConfiguration()

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, readers, imp, conf); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %w", ErrAssemblyFailed, err)
	}

	if err := api.Validate(bytes.NewReader(buf.Bytes()), conf); err != nil {
		return nil, fmt.Errorf("%w: validate pdf: %w", ErrAssemblyFailed, err)
	}

	return buf.Bytes(), nil
}

func verify(img images.Image) error {
	var (
		cfg image.Config
		err error
	)

	switch img.ContentType {
	case files.PNG:
		cfg, err = png.DecodeConfig(bytes.NewReader(img.Data))
	case files.JPEG:
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(img.Data))
	default:
		return fmt.Errorf("%w: %s", ErrNotEmbeddable, img.ContentType)
	}

	if err != nil {
		return fmt.Errorf("read image header: %w", err)
	}

	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", img.Width, img.Height)
	}

	if cfg.Width != img.Width || cfg.Height != img.Height {
		return fmt.Errorf(
			"image header %dx%d does not match declared %dx%d",
			cfg.Width, cfg.Height, img.Width, img.Height,
		)
	}

	return nil
}
