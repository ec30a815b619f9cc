package documents

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/services/imaging"
)

// blankPageSize is used for pages without any decodable embedded image (A4 at 150 DPI)
var blankPageSize = image.Pt(1240, 1754)

// EmbeddedImageRasterizer approximates pages with their largest embedded image.
// Works without external binaries and suits scanned exam papers, where every
// page is one full-page scan.
type EmbeddedImageRasterizer struct {
	logger arbor.ILogger
}

func NewEmbeddedImageRasterizer(logger arbor.ILogger) *EmbeddedImageRasterizer {
	return &EmbeddedImageRasterizer{logger: logger}
}

func (r *EmbeddedImageRasterizer) Name() string {
	return RasterizerEmbedded
}

// Rasterize returns one image per page. Pages without a usable image become blank.
func (r *EmbeddedImageRasterizer) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if pdfCtx.PageCount == 0 {
		return nil, ErrNoPages
	}

	largest := make(map[int]image.Image)
	digest := func(img model.Image, singleImgPerPage bool, maxPageDigits int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return nil
		}
		decoded, _, err := imaging.Decode(data)
		if err != nil {
			r.logger.Debug().
				Int("page", img.PageNr).
				Str("type", img.FileType).
				Msg("Skipping undecodable embedded image")
			return nil
		}
		if cur, ok := largest[img.PageNr]; !ok || area(decoded) > area(cur) {
			largest[img.PageNr] = decoded
		}
		return nil
	}

	if err := api.ExtractImages(bytes.NewReader(pdf), nil, digest, conf); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to extract embedded images: %w", err)
	}

	pages := make([]image.Image, pdfCtx.PageCount)
	for i := range pages {
		if img, ok := largest[i+1]; ok {
			pages[i] = img
			continue
		}
		r.logger.Warn().Int("page", i+1).Msg("No embedded image on page, using blank page")
		pages[i] = blankPage()
	}
	return pages, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

func blankPage() image.Image {
	img := image.NewRGBA(image.Rectangle{Max: blankPageSize})
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}
