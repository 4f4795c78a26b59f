package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrUnparseableReply is returned when no extraction strategy yields a
// usable insight report. Callers route this to the rule-based fallback.
var ErrUnparseableReply = errors.New("unparseable insight reply")

// ParseInsightReport extracts an InsightReport from a model reply. Models
// frequently wrap the JSON object in prose or code fences, so parsing tries
// progressively looser strategies:
//
//  1. the whole reply as a JSON object
//  2. the contents of the first fenced code block
//  3. the first balanced JSON object found in the text
func ParseInsightReport(content string) (*InsightReport, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrUnparseableReply)
	}

	candidates := []string{content}

	if fenced := extractFencedBlock(content); fenced != "" {
		candidates = append(candidates, fenced)
	}

	if object := extractBalancedObject(content); object != "" {
		candidates = append(candidates, object)
	}

	for _, candidate := range candidates {
		report, err := decodeReport(candidate)
		if err == nil {
			return report, nil
		}
	}

	return nil, fmt.Errorf("%w: no strategy matched", ErrUnparseableReply)
}

// decodeReport unmarshals one candidate and rejects empty reports.
func decodeReport(candidate string) (*InsightReport, error) {
	var report InsightReport

	if err := sonic.Unmarshal([]byte(candidate), &report); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableReply, err)
	}

	if len(report.GlobalInsights) == 0 && len(report.ChannelInsights) == 0 {
		return nil, fmt.Errorf("%w: report carries no insights", ErrUnparseableReply)
	}

	if report.ChannelInsights == nil {
		report.ChannelInsights = make(map[string][]string)
	}

	return &report, nil
}

// extractFencedBlock returns the body of the first ``` fenced block.
func extractFencedBlock(content string) string {
	start := strings.Index(content, "```")
	if start == -1 {
		return ""
	}

	body := content[start+3:]

	// Skip an optional language tag on the fence line
	if newline := strings.IndexByte(body, '\n'); newline != -1 {
		firstLine := strings.TrimSpace(body[:newline])
		if firstLine == "json" || firstLine == "" {
			body = body[newline+1:]
		}
	}

	end := strings.Index(body, "```")
	if end == -1 {
		return ""
	}

	return strings.TrimSpace(body[:end])
}

// extractBalancedObject returns the first balanced top-level {...} in the
// text, tracking strings and escapes so braces inside values don't count.
func extractBalancedObject(content string) string {
	start := strings.IndexByte(content, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		c := content[i]

		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	return ""
}
