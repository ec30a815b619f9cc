package documents

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
)

const (
	RasterizerPoppler  = "pdftoppm"
	RasterizerEmbedded = "embedded"
)

// NewRasterizer selects the PDF backend named in configuration.
// An unusable backend is reported as ErrRasterizerUnavailable.
func NewRasterizer(config *common.ExtractionConfig, logger arbor.ILogger) (interfaces.Rasterizer, error) {
	switch config.Rasterizer {
	case "", RasterizerPoppler:
		return NewPopplerRasterizer(config.PdftoppmPath, config.DPI, logger)
	case RasterizerEmbedded:
		return NewEmbeddedImageRasterizer(logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown rasterizer %q", ErrRasterizerUnavailable, config.Rasterizer)
	}
}
