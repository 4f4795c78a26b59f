package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/openai/openai-go"
	"github.com/teampulse/teampulse/internal/ai/client"
	"github.com/teampulse/teampulse/internal/setup/config"
	"github.com/teampulse/teampulse/pkg/utils"
	"go.uber.org/zap"
)

// MaxClassifierBatch is the most messages one classifier call may carry.
const MaxClassifierBatch = 25

// MessageContent represents one message submitted for classification.
type MessageContent struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreResult is the raw classifier output for one message, pre-validation.
type ScoreResult struct {
	MessageID  string  `json:"messageId"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
}

// BatchOutcome carries one result per submitted message plus a degradation
// tag. Degraded means every result in the batch is a neutral fallback.
type BatchOutcome struct {
	Results  []*ScoreResult
	Degraded bool
	Reason   string
}

// scoredMessage mirrors one record of the classifier reply.
type scoredMessage struct {
	MessageID  string  `json:"messageId"  jsonschema:"required,minLength=1,description=ID of the scored message"`
	Score      float64 `json:"score"      jsonschema:"required,minimum=-1,maximum=1,description=Sentiment score from -1 (negative) to 1 (positive)"`
	Confidence float64 `json:"confidence" jsonschema:"required,minimum=0,maximum=1,description=Confidence in the score"`
}

// sentimentReply is the full classifier reply.
type sentimentReply struct {
	Results []scoredMessage `json:"results" jsonschema:"required,description=One entry per submitted message"`
}

// SentimentAnalysisSchema is the JSON schema for the classifier response.
var SentimentAnalysisSchema = utils.GenerateSchema[sentimentReply]()

// SentimentAnalyzer scores message batches through the shared AI client.
type SentimentAnalyzer struct {
	chat   client.ChatCompletions
	logger *zap.Logger
	model  string
}

// NewSentimentAnalyzer creates a new sentiment analyzer.
func NewSentimentAnalyzer(chat client.ChatCompletions, cfg *config.OpenAI, logger *zap.Logger) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		chat:   chat,
		logger: logger.Named("ai_sentiment"),
		model:  cfg.SentimentModel,
	}
}

// ScoreBatch classifies up to MaxClassifierBatch messages and returns
// exactly one result per input. It never fails outward: an open breaker,
// exhausted retries, or a malformed reply all degrade to neutral fallbacks
// tagged with the reason, and individual records missing from an otherwise
// valid reply degrade individually.
func (a *SentimentAnalyzer) ScoreBatch(ctx context.Context, batch []*MessageContent) *BatchOutcome {
	if len(batch) == 0 {
		return &BatchOutcome{}
	}

	if len(batch) > MaxClassifierBatch {
		batch = batch[:MaxClassifierBatch]
	}

	reply, err := a.callClassifier(ctx, batch)
	if err != nil {
		reason := "classifier call failed"
		if client.IsBreakerOpen(err) {
			reason = "circuit breaker open"
		}

		a.logger.Warn("Degrading batch to neutral fallback",
			zap.String("reason", reason),
			zap.Int("batchSize", len(batch)),
			zap.Error(err))

		return &BatchOutcome{
			Results:  fallbackResults(batch, reason),
			Degraded: true,
			Reason:   reason,
		}
	}

	return a.mergeReply(batch, reply)
}

// callClassifier makes the classifier request with retries.
func (a *SentimentAnalyzer) callClassifier(ctx context.Context, batch []*MessageContent) (*sentimentReply, error) {
	// Convert batch to JSON
	batchJSON, err := sonic.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrJSONProcessing, err)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SentimentSystemPrompt),
			openai.UserMessage(fmt.Sprintf(SentimentRequestPrompt, batchJSON)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "sentimentAnalysis",
					Description: openai.String("Sentiment scores for chat messages"),
					Schema:      SentimentAnalysisSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
		Model:               a.model,
		Temperature:         openai.Float(0.0),
		TopP:                openai.Float(0.95),
		MaxCompletionTokens: openai.Int(4096),
	}

	var reply sentimentReply

	err = a.chat.NewWithRetry(ctx, params, func(resp *openai.ChatCompletion, err error) error {
		// Handle API error
		if err != nil {
			return fmt.Errorf("classifier API error: %w", err)
		}

		// Parse response
		if err := sonic.Unmarshal([]byte(resp.Choices[0].Message.Content), &reply); err != nil {
			return fmt.Errorf("%w: %w", utils.ErrJSONProcessing, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &reply, nil
}

// mergeReply aligns reply records to the submitted batch. Records for
// unknown message IDs are dropped; inputs without a record get a tagged
// fallback so the batch always comes back complete.
func (a *SentimentAnalyzer) mergeReply(batch []*MessageContent, reply *sentimentReply) *BatchOutcome {
	byID := make(map[string]*scoredMessage, len(reply.Results))

	for i := range reply.Results {
		record := &reply.Results[i]
		if record.MessageID != "" {
			byID[record.MessageID] = record
		}
	}

	outcome := &BatchOutcome{Results: make([]*ScoreResult, 0, len(batch))}
	missing := 0

	for _, msg := range batch {
		record, ok := byID[msg.ID]
		if !ok {
			missing++

			outcome.Results = append(outcome.Results, &ScoreResult{
				MessageID: msg.ID,
				Note:      "missing from classifier reply",
			})

			continue
		}

		outcome.Results = append(outcome.Results, &ScoreResult{
			MessageID:  record.MessageID,
			Score:      record.Score,
			Confidence: record.Confidence,
		})
	}

	if missing > 0 {
		a.logger.Warn("Classifier reply missing records",
			zap.Int("missing", missing),
			zap.Int("batchSize", len(batch)))
	}

	return outcome
}

// fallbackResults builds a neutral result per message tagged with reason.
func fallbackResults(batch []*MessageContent, reason string) []*ScoreResult {
	results := make([]*ScoreResult, 0, len(batch))
	for _, msg := range batch {
		results = append(results, &ScoreResult{
			MessageID: msg.ID,
			Note:      reason,
		})
	}

	return results
}
