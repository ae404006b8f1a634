package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 90

// ErrNoPages reports a document that opened cleanly but contains no pages.
var ErrNoPages = errors.New("document has no pages")

// Image is a rendered preview of the first page of a document.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Converter renders the first page of a paginated document into a raster
// image.
type Converter interface {
	Convert(ctx context.Context, document []byte) (Image, error)
}

// PDFConverter implements Converter with MuPDF via go-fitz. Rendering is
// deterministic for identical input bytes and only the first page is ever
// rendered.
type PDFConverter struct {
	Quality int
}

// NewPDFConverter returns a converter with the default JPEG quality.
func NewPDFConverter() *PDFConverter {
	return &PDFConverter{Quality: DefaultQuality}
}

// Convert renders page one as a JPEG. Corrupt and zero-page documents are
// reported as errors rather than panics so the caller can fold every
// conversion problem into a single failure kind.
func (c *PDFConverter) Convert(ctx context.Context, document []byte) (img Image, err error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	if len(document) == 0 {
		return Image{}, errors.New("empty document")
	}

	// go-fitz calls into MuPDF through cgo; keep any fault it raises inside
	// the conversion boundary.
	defer func() {
		if rec := recover(); rec != nil {
			img = Image{}
			err = fmt.Errorf("render fault: %v", rec)
		}
	}()

	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		return Image{}, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return Image{}, ErrNoPages
	}

	page, err := doc.Image(0)
	if err != nil {
		return Image{}, fmt.Errorf("render first page: %w", err)
	}

	quality := c.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, page, &jpeg.Options{Quality: quality}); err != nil {
		return Image{}, fmt.Errorf("encode jpeg: %w", err)
	}

	bounds := page.Bounds()
	return Image{
		Data:     buf.Bytes(),
		MimeType: "image/jpeg",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}
