// Package ai converts natural-language prompts into segment rules and
// campaign message suggestions via a chat-completions API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/minicrm/internal/config"
	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/pkg/httpretry"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("ai features are not configured")

// Client talks to an OpenAI-compatible chat-completions endpoint.
// Transient upstream failures (429, 5xx) are retried with backoff.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient httpretry.HTTPDoer
}

// NewClient creates an AI client from configuration.
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 2),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const rulesSystemPrompt = `You translate plain-English audience descriptions into JSON filter rules for a CRM.
Respond with ONLY a JSON array. Each element is {"field": ..., "operator": ..., "value": ...}.
Allowed fields: totalSpend (number), visits (number), lastActive (days since last activity, as a number), email, name.
Allowed operators: ">", "<", "=", "!=".
Values are always strings. Example: [{"field":"totalSpend","operator":">","value":"5000"}]`

// GenerateRules converts a natural-language audience description into
// segment rules.
func (c *Client) GenerateRules(ctx context.Context, prompt string) ([]domain.Rule, error) {
	raw, err := c.complete(ctx, rulesSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	var rules []domain.Rule
	if err := json.Unmarshal([]byte(stripFences(raw)), &rules); err != nil {
		return nil, fmt.Errorf("parse generated rules: %w (raw: %s)", err, raw)
	}
	return rules, nil
}

const messagesSystemPrompt = `You write short marketing messages for a CRM campaign tool.
Given a campaign objective, respond with ONLY a JSON array of 3 message strings.
Each message may use the literal token {name} where the customer's name should appear.
Example: ["Hi {name}, here's 10% off your next order!"]`

// GenerateMessages suggests campaign message variants for an objective.
func (c *Client) GenerateMessages(ctx context.Context, objective string) ([]string, error) {
	raw, err := c.complete(ctx, messagesSystemPrompt, objective)
	if err != nil {
		return nil, err
	}
	var messages []string
	if err := json.Unmarshal([]byte(stripFences(raw)), &messages); err != nil {
		return nil, fmt.Errorf("parse generated messages: %w (raw: %s)", err, raw)
	}
	return messages, nil
}

// complete sends a single system+user exchange and returns the model's
// text reply.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", ErrDisabled
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat completion failed: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// stripFences removes a surrounding markdown code fence, which models
// often add despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
