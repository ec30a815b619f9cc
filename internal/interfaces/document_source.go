package interfaces

import (
	"context"
	"image"
)

// Rasterizer renders every page of a PDF to an image, in page order
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error)
}

// OCREngine recognises text in an encoded image
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}
