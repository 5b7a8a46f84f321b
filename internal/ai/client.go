// Package ai holds the Claude-backed agents: drafting mention replies,
// extracting action items from transcripts, and summarizing tracker
// activity into the daily and weekly briefs.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// Completer is the single LLM call the agents need. Tests substitute a
// canned implementation.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (string, error)
}

// Client wraps the Anthropic SDK as a Completer.
type Client struct {
	api   *anthropic.Client
	model string
	log   *zap.Logger
}

// NewClient creates a Claude completion client.
func NewClient(apiKey, model string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		api:   &client,
		model: model,
		log:   log,
	}
}

// Complete sends a single-turn user prompt and returns the concatenated
// text blocks of the response.
func (c *Client) Complete(
	ctx context.Context,
	prompt string,
	maxTokens int64,
) (string, error) {
	start := time.Now()

	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.log.Debug("completion finished",
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return text.String(), nil
}

// stripFences removes a surrounding markdown code fence, with or without
// a json language tag, from a model response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

// truncate shortens s to at most n bytes for inclusion in a prompt.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
