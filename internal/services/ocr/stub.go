//go:build !ocr

package ocr

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
)

// Client is a placeholder in builds without Tesseract
type Client struct{}

// New always fails with ErrOCRNotEnabled
func New(config *common.OCRConfig, logger arbor.ILogger) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

func (c *Client) Close() error {
	return nil
}
