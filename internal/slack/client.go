// Package slack delivers briefs to a Slack channel over the Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// AuthError indicates the bot token was rejected.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("slack auth error: %s", e.Code)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Message is one outgoing channel message: plain-text fallback plus
// optional Block Kit blocks.
type Message struct {
	Text   string
	Blocks []Block
}

type postMessageRequest struct {
	Channel     string  `json:"channel"`
	Text        string  `json:"text"`
	Blocks      []Block `json:"blocks,omitempty"`
	UnfurlLinks bool    `json:"unfurl_links"`
	UnfurlMedia bool    `json:"unfurl_media"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Client posts messages to a single Slack channel.
type Client struct {
	baseURL    string
	token      string
	channelID  string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a Slack Web API client bound to one channel.
func NewClient(baseURL, token, channelID string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:   baseURL,
		token:     token,
		channelID: channelID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// PostMessage sends one message to the configured channel via
// chat.postMessage. Link and media unfurling are disabled; briefs are
// dense enough already.
func (c *Client) PostMessage(ctx context.Context, msg Message) error {
	payload := postMessageRequest{
		Channel: c.channelID,
		Text:    msg.Text,
		Blocks:  msg.Blocks,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/chat.postMessage",
		bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	if !parsed.OK {
		switch parsed.Error {
		case "invalid_auth", "not_authed", "token_revoked", "account_inactive":
			return &AuthError{Code: parsed.Error}
		}
		return fmt.Errorf("slack API error: %s", parsed.Error)
	}

	c.log.Debug("message sent", zap.String("channel", c.channelID))
	return nil
}

// PostAll sends a sequence of messages in order, stopping at the first
// failure.
func (c *Client) PostAll(ctx context.Context, msgs []Message) error {
	for i, msg := range msgs {
		if err := c.PostMessage(ctx, msg); err != nil {
			return fmt.Errorf("sending message %d of %d: %w", i+1, len(msgs), err)
		}
	}
	return nil
}

// ValidateConnection checks the token with auth.test.
func (c *Client) ValidateConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/auth.test", nil,
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("validating Slack connection: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	if !parsed.OK {
		return &AuthError{Code: parsed.Error}
	}
	return nil
}
