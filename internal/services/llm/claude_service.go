package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
)

// jsonOnlyInstruction replaces Gemini's JSON MIME type, which Claude lacks
const jsonOnlyInstruction = "\n\nRespond with the JSON only, without any surrounding prose."

// ClaudeModel sends multimodal prompts to an Anthropic Claude model
type ClaudeModel struct {
	client    anthropic.Client
	model     string
	maxTokens int
	retry     *RetryConfig
	logger    arbor.ILogger
}

// NewClaudeModel creates a Claude model bound to apiKey
func NewClaudeModel(apiKey string, config *common.ClaudeConfig, retries int, logger arbor.ILogger) (*ClaudeModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &ClaudeModel{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     config.Model,
		maxTokens: maxTokens,
		retry:     NewRetryConfig(retries),
		logger:    logger,
	}, nil
}

func (m *ClaudeModel) Name() string {
	return m.model
}

// Generate sends the images followed by the prompt in one user message
func (m *ClaudeModel) Generate(ctx context.Context, req *interfaces.VisionRequest) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Images)+1)
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			img.MIMEType,
			base64.StdEncoding.EncodeToString(img.Data),
		))
	}
	prompt := req.Prompt
	if req.JSON {
		prompt += jsonOnlyInstruction
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: int64(m.maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}

	m.logger.Debug().
		Str("model", m.model).
		Int("images", len(req.Images)).
		Msg("Calling Claude")

	var resp *anthropic.Message
	err := withRateLimitRetry(ctx, m.retry, m.logger, m.model, func(ctx context.Context) error {
		var callErr error
		resp, callErr = m.client.Messages.New(ctx, params)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("claude %s: %w", m.model, err)
	}

	if string(resp.StopReason) == "refusal" {
		return "", ErrBlocked
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}
