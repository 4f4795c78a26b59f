package scorer

import (
	"fmt"
	"math"

	"github.com/teampulse/teampulse/internal/ai"
)

// Fallback values applied when a classifier result violates its contract.
const (
	fallbackScore      = 0.0
	fallbackConfidence = 0.1
	defaultConfidence  = 0.5
)

// ValidatedScore is one sanitized classifier result. Scores are always in
// [-1, 1] and confidences in [0, 1] after validation.
type ValidatedScore struct {
	MessageID  string
	Score      float64
	Confidence float64
	// Invalid marks results that violated the contract and were replaced
	// with the explicit fallback.
	Invalid bool
	// Sanitized marks results that were clamped or defaulted but kept.
	Sanitized bool
	Reasons   []string
}

// BatchValidation summarizes validating one batch. Results carries exactly
// one entry per input result; nothing is dropped.
type BatchValidation struct {
	Results        []*ValidatedScore
	ValidCount     int
	InvalidCount   int
	SanitizedCount int
	Errors         []string
}

// ValidateScore sanitizes a raw sentiment score. Non-finite values (the Go
// shape of an absent or corrupt number) are invalid and become 0; finite
// values outside [-1, 1] are clamped.
func ValidateScore(raw float64) (float64, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, false
	}

	return clamp(raw, -1, 1), true
}

// ValidateConfidence sanitizes a raw confidence. Non-finite values default
// to 0.5; finite values outside [0, 1] are clamped.
func ValidateConfidence(raw float64) (float64, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return defaultConfidence, false
	}

	return clamp(raw, 0, 1), true
}

// ValidateResult sanitizes a single classifier result. A missing message ID
// or a non-finite score replaces the result with the explicit fallback,
// tagged with the reasons. It never panics and never drops a result.
func ValidateResult(result *ai.ScoreResult) *ValidatedScore {
	if result == nil {
		return &ValidatedScore{
			Score:      fallbackScore,
			Confidence: fallbackConfidence,
			Invalid:    true,
			Reasons:    []string{"nil result"},
		}
	}

	validated := &ValidatedScore{MessageID: result.MessageID}

	if result.Note != "" {
		validated.Reasons = append(validated.Reasons, result.Note)
	}

	if result.MessageID == "" {
		validated.Score = fallbackScore
		validated.Confidence = fallbackConfidence
		validated.Invalid = true
		validated.Reasons = append(validated.Reasons, "missing message id")

		return validated
	}

	score, scoreOK := ValidateScore(result.Score)
	if !scoreOK {
		validated.Score = fallbackScore
		validated.Confidence = fallbackConfidence
		validated.Invalid = true
		validated.Reasons = append(validated.Reasons, "non-finite score")

		return validated
	}

	confidence, confidenceOK := ValidateConfidence(result.Confidence)

	validated.Score = score
	validated.Confidence = confidence

	if score != result.Score {
		validated.Sanitized = true
		validated.Reasons = append(validated.Reasons, "score clamped")
	}

	if !confidenceOK {
		validated.Sanitized = true
		validated.Reasons = append(validated.Reasons, "confidence defaulted")
	} else if confidence != result.Confidence {
		validated.Sanitized = true
		validated.Reasons = append(validated.Reasons, "confidence clamped")
	}

	return validated
}

// ValidateBatch sanitizes every result in a batch and returns exactly one
// validated entry per input plus counts and collected error strings.
func ValidateBatch(results []*ai.ScoreResult) *BatchValidation {
	validation := &BatchValidation{
		Results: make([]*ValidatedScore, 0, len(results)),
	}

	for i, result := range results {
		validated := ValidateResult(result)
		validation.Results = append(validation.Results, validated)

		switch {
		case validated.Invalid:
			validation.InvalidCount++
		case validated.Sanitized:
			validation.SanitizedCount++
		default:
			validation.ValidCount++
		}

		if validated.Invalid || validated.Sanitized {
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("result %d (%s): %s", i, validated.MessageID, joinReasons(validated.Reasons)))
		}
	}

	return validation
}

func clamp(value, low, high float64) float64 {
	return math.Min(math.Max(value, low), high)
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "unknown"
	}

	joined := reasons[0]
	for _, reason := range reasons[1:] {
		joined += "; " + reason
	}

	return joined
}
