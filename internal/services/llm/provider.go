package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ProviderFactory builds the vision model chain from configuration
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	logger       arbor.ILogger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(geminiConfig *common.GeminiConfig, claudeConfig *common.ClaudeConfig, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		geminiConfig: geminiConfig,
		claudeConfig: claudeConfig,
		logger:       logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "gemini-2.5-flash" or "gemini/gemini-2.5-flash" -> Gemini
// - "claude-sonnet-4-5" or "claude/claude-sonnet-4-5" -> Claude
// Anything else is treated as a Gemini model name.
func DetectProvider(model string) ProviderType {
	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") || strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	return ProviderGemini
}

// NormalizeModel removes provider prefix from model name if present
func NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// VisionModel builds the fallback chain for one extraction call.
// Gemini models use geminiAPIKey; Claude entries, and the configured Claude
// fallback appended last, use the Claude key and are skipped without one.
func (f *ProviderFactory) VisionModel(ctx context.Context, geminiAPIKey string) (interfaces.VisionModel, error) {
	var models []interfaces.VisionModel
	var geminiClient *genai.Client
	seen := make(map[string]bool)

	names := append([]string(nil), f.geminiConfig.Models...)
	if f.claudeConfig.Model != "" && f.claudeConfig.APIKey != "" {
		names = append(names, "claude/"+f.claudeConfig.Model)
	}

	for _, name := range names {
		model := NormalizeModel(strings.TrimSpace(name))
		if model == "" || seen[model] {
			continue
		}

		switch DetectProvider(name) {
		case ProviderClaude:
			if f.claudeConfig.APIKey == "" {
				f.logger.Warn().Str("model", model).Msg("Skipping Claude model, no Anthropic API key configured")
				continue
			}
			cfg := *f.claudeConfig
			cfg.Model = model
			m, err := NewClaudeModel(f.claudeConfig.APIKey, &cfg, f.geminiConfig.MaxRetries, f.logger)
			if err != nil {
				return nil, err
			}
			models = append(models, m)
		default:
			if geminiAPIKey == "" {
				continue
			}
			if geminiClient == nil {
				client, err := NewGeminiClient(ctx, geminiAPIKey)
				if err != nil {
					return nil, err
				}
				geminiClient = client
			}
			models = append(models, NewGeminiModel(geminiClient, model, f.geminiConfig, f.logger))
		}
		seen[model] = true
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("%w: check gemini.models and API keys", ErrNoModels)
	}

	f.logger.Debug().Int("models", len(models)).Msg("Vision model chain ready")
	return NewChain(f.logger, models...), nil
}
