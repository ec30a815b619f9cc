package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/interfaces"
)

// Chain tries an ordered list of models and returns the first success
type Chain struct {
	models []interfaces.VisionModel
	logger arbor.ILogger
}

// NewChain creates a fallback chain in priority order
func NewChain(logger arbor.ILogger, models ...interfaces.VisionModel) *Chain {
	return &Chain{
		models: models,
		logger: logger,
	}
}

// Name lists the chained model names
func (c *Chain) Name() string {
	names := make([]string, len(c.models))
	for i, m := range c.models {
		names[i] = m.Name()
	}
	return strings.Join(names, ",")
}

// Generate implements interfaces.VisionModel
func (c *Chain) Generate(ctx context.Context, req *interfaces.VisionRequest) (string, error) {
	text, _, err := c.GenerateWithModel(ctx, req)
	return text, err
}

// GenerateWithModel also reports which model answered
func (c *Chain) GenerateWithModel(ctx context.Context, req *interfaces.VisionRequest) (string, string, error) {
	if len(c.models) == 0 {
		return "", "", ErrNoModels
	}

	var lastErr error
	for _, m := range c.models {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		text, err := m.Generate(ctx, req)
		if err == nil {
			return text, m.Name(), nil
		}
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}

		c.logger.Warn().
			Str("model", m.Name()).
			Err(err).
			Msg("Model failed, trying next")
		lastErr = err
	}

	return "", "", fmt.Errorf("%w (%d tried): %w", ErrAllModelsFailed, len(c.models), lastErr)
}
