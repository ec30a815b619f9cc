package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
)

// GeminiModel sends multimodal prompts to one Gemini model
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	retry       *RetryConfig
	logger      arbor.ILogger
}

// NewGeminiClient creates a Gemini API client for apiKey
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiModel binds a client to one model name
func NewGeminiModel(client *genai.Client, model string, config *common.GeminiConfig, logger arbor.ILogger) *GeminiModel {
	timeout, err := parseTimeout(config.Timeout)
	if err != nil {
		logger.Warn().Err(err).Str("timeout", config.Timeout).Msg("Invalid Gemini timeout, calls will not time out")
	}
	return &GeminiModel{
		client:      client,
		model:       model,
		temperature: config.Temperature,
		timeout:     timeout,
		retry:       NewRetryConfig(config.MaxRetries),
		logger:      logger,
	}
}

func (m *GeminiModel) Name() string {
	return m.model
}

// Generate sends the prompt followed by the images in one user turn
func (m *GeminiModel) Generate(ctx context.Context, req *interfaces.VisionRequest) (string, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(m.temperature),
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	m.logger.Debug().
		Str("model", m.model).
		Int("images", len(req.Images)).
		Msg("Calling Gemini")

	var resp *genai.GenerateContentResponse
	err := withRateLimitRetry(ctx, m.retry, m.logger, m.model, func(ctx context.Context) error {
		callCtx, cancel := withOptionalTimeout(ctx, m.timeout)
		defer cancel()

		var callErr error
		resp, callErr = m.client.Models.GenerateContent(callCtx, m.model, contents, config)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", m.model, err)
	}

	return geminiText(resp)
}

// geminiText extracts the answer, distinguishing safety blocks from empty output
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", ErrBlocked
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
