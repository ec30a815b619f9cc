//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
)

// Client wraps a Tesseract handle; calls are serialised because the handle is not reentrant
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger arbor.ILogger
}

// New creates a Tesseract client for the configured languages. Close it when done.
func New(config *common.OCRConfig, logger arbor.ILogger) (*Client, error) {
	client := gosseract.NewClient()
	if len(config.Languages) > 0 {
		if err := client.SetLanguage(config.Languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR languages %v: %w", config.Languages, err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	logger.Debug().Strs("languages", config.Languages).Msg("Tesseract OCR client ready")
	return &Client{client: client, logger: logger}, nil
}

// Recognize runs OCR over encoded image bytes (PNG, JPEG, TIFF)
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}
