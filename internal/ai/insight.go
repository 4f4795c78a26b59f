package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/openai/openai-go"
	"github.com/teampulse/teampulse/internal/ai/client"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/setup/config"
	"github.com/teampulse/teampulse/pkg/utils"
	"go.uber.org/zap"
)

// ChannelSummary is the per-channel context handed to the insight model.
type ChannelSummary struct {
	ChannelID   string               `json:"channelId"`
	DisplayName string               `json:"displayName"`
	Risk        types.RiskLevel      `json:"risk"`
	Metrics     *types.WeeklyMetrics `json:"metrics"`
	Trend       types.Trend          `json:"trend"`
}

// InsightRequest is the full weekly context for insight generation.
type InsightRequest struct {
	WindowStart time.Time         `json:"windowStart"`
	WindowEnd   time.Time         `json:"windowEnd"`
	OverallRisk types.RiskLevel   `json:"overallRisk"`
	Channels    []*ChannelSummary `json:"channels"`
}

// InsightReport is the parsed recommendation set from the model.
type InsightReport struct {
	GlobalInsights  []string            `json:"globalInsights"`
	ChannelInsights map[string][]string `json:"channelInsights"`
}

// InsightAnalyzer generates AI-authored weekly recommendations.
type InsightAnalyzer struct {
	chat   client.ChatCompletions
	logger *zap.Logger
	model  string
}

// NewInsightAnalyzer creates a new insight analyzer.
func NewInsightAnalyzer(chat client.ChatCompletions, cfg *config.OpenAI, logger *zap.Logger) *InsightAnalyzer {
	return &InsightAnalyzer{
		chat:   chat,
		logger: logger.Named("ai_insight"),
		model:  cfg.InsightModel,
	}
}

// GenerateInsights asks the model for recommendations over the weekly
// context. Callers must treat any error as a signal to use the rule-based
// fallback; an open breaker surfaces here without a request being made.
func (a *InsightAnalyzer) GenerateInsights(ctx context.Context, request *InsightRequest) (*InsightReport, error) {
	// Convert context to JSON
	requestJSON, err := sonic.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrJSONProcessing, err)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(InsightSystemPrompt),
			openai.UserMessage(fmt.Sprintf(InsightRequestPrompt, requestJSON)),
		},
		Model:               a.model,
		Temperature:         openai.Float(0.4),
		TopP:                openai.Float(0.9),
		MaxCompletionTokens: openai.Int(2048),
	}

	var report *InsightReport

	err = a.chat.NewWithRetry(ctx, params, func(resp *openai.ChatCompletion, err error) error {
		// Handle API error
		if err != nil {
			return fmt.Errorf("insight API error: %w", err)
		}

		// The model replies in loosely structured text; the parser tries the
		// strict form first and falls back to extraction strategies.
		parsed, parseErr := ParseInsightReport(resp.Choices[0].Message.Content)
		if parseErr != nil {
			return parseErr
		}

		report = parsed

		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Generated AI insights",
		zap.Int("global", len(report.GlobalInsights)),
		zap.Int("channels", len(report.ChannelInsights)))

	return report, nil
}
