// Package images normalizes user-selected raster images before they are bound
// into a document: bounded downscale, reduced-quality re-encode, and WebP to
// PNG transcoding so every output is directly embeddable.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/JaimeStill/folio/internal/files"
)

// Image is a normalized, embeddable image.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Config bounds normalization.
type Config struct {
	MaxFileSize  int64
	MaxDimension int
	Quality      float64
}

// Normalizer decodes, downsizes, and re-encodes input images.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Normalizer with the given bounds.
func New(cfg Config, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		cfg:    cfg,
		logger: logger.With("system", "images"),
	}
}

// Normalize converts f into an embeddable image. The size gate runs before
// the file content is acquired.
func (n *Normalizer) Normalize(ctx context.Context, f files.File) (Image, error) {
	if f.Size > n.cfg.MaxFileSize {
		return Image{}, fmt.Errorf(
			"%w: file %s exceeds the max size of %d bytes",
			ErrOversizedInput, f.Name, n.cfg.MaxFileSize,
		)
	}

	if !files.Supported(f.ContentType) {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedType, f.ContentType)
	}

	if err := ctx.Err(); err != nil {
		return Image{}, err
	}

	src, err := decodeFile(f)
	if err != nil {
		return Image{}, err
	}

	b := src.Bounds()
	width, height := Fit(b.Dx(), b.Dy(), n.cfg.MaxDimension)

	img := src
	if width != b.Dx() || height != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	contentType := embeddableType(f.ContentType)
	data, err := encode(img, contentType, n.cfg.Quality)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %w", ErrEncodeFailed, f.Name, err)
	}

	n.logger.DebugContext(
		ctx, "image normalized",
		"name", f.Name,
		"source_type", f.ContentType,
		"content_type", contentType,
		"width", width,
		"height", height,
		"bytes", len(data),
	)

	return Image{
		Data:        data,
		ContentType: contentType,
		Width:       width,
		Height:      height,
	}, nil
}

// Fit scales width and height so the longer side is at most bound, keeping
// the aspect ratio. Images already within the bound are returned unchanged.
func Fit(width, height, bound int) (int, int) {
	if width > height {
		if width > bound {
			height = int(math.Round(float64(height) * float64(bound) / float64(width)))
			width = bound
		}
	} else if height > bound {
		width = int(math.Round(float64(width) * float64(bound) / float64(height)))
		height = bound
	}
	return max(width, 1), max(height, 1)
}

func decodeFile(f files.File) (image.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDecodeFailed, f.Name, err)
	}
	defer rc.Close()

	img, err := decode(rc, f.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, f.Name, err)
	}
	return img, nil
}

func decode(r io.Reader, contentType string) (image.Image, error) {
	switch contentType {
	case files.PNG:
		return png.Decode(r)
	case files.JPEG:
		return jpeg.Decode(r)
	case files.WebP:
		return webp.Decode(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
}

// WebP has no embeddable form; it is transcoded to PNG.
func embeddableType(contentType string) string {
	if contentType == files.WebP {
		return files.PNG
	}
	return contentType
}

func encode(img image.Image, contentType string, quality float64) ([]byte, error) {
	var buf bytes.Buffer

	switch contentType {
	case files.JPEG:
		q := int(math.Round(quality * 100))
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: max(q, 1)}); err != nil {
			return nil, err
		}
	case files.PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return buf.Bytes(), nil
}
