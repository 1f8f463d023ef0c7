package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/scenario-search/internal/domain/nlq"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
	"github.com/bryanwahyu/scenario-search/internal/infra/nlq/prompt"
)

const maxTokens = 512

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithBaseURL untuk endpoint OpenAI-compatible (proxy, fake di test).
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Interpret implementasi nlq.Interpreter via chat completion JSON mode.
func (c *Client) Interpret(ctx context.Context, query string, now time.Time) (scenarios.Filter, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(query, now)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429:
			return scenarios.Filter{}, fmt.Errorf("interpret %q: %w", query, nlq.ErrQuotaExceeded)
		case errors.Is(err, context.DeadlineExceeded):
			return scenarios.Filter{}, fmt.Errorf("interpret %q: %w", query, scenarios.ErrUpstreamTimeout)
		default:
			return scenarios.Filter{}, fmt.Errorf("interpret %q: %w: %v", query, nlq.ErrUnavailable, err)
		}
	}
	if len(resp.Choices) == 0 {
		return scenarios.Filter{}, fmt.Errorf("interpret %q: empty completion: %w", query, nlq.ErrUnintelligible)
	}

	return ParseFilter(resp.Choices[0].Message.Content)
}

// ParseFilter decode output model jadi Filter domain. Output yang menyimpang
// dari schema dihitung unintelligible, bukan internal error.
func ParseFilter(content string) (scenarios.Filter, error) {
	var spec struct {
		prompt.FilterSpec
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(content), &spec); err != nil {
		return scenarios.Filter{}, fmt.Errorf("malformed filter JSON: %w", nlq.ErrUnintelligible)
	}
	if spec.Error != "" {
		return scenarios.Filter{}, fmt.Errorf("model declined: %w", nlq.ErrUnintelligible)
	}

	var f scenarios.Filter
	switch strings.ToLower(strings.TrimSpace(spec.Status)) {
	case "":
	case "passed":
		f.Status = scenarios.StatusPassed
	case "failed":
		f.Status = scenarios.StatusFailed
	default:
		return scenarios.Filter{}, fmt.Errorf("unknown status %q: %w", spec.Status, nlq.ErrUnintelligible)
	}

	var err error
	if f.From, err = parseRFC3339(spec.From); err != nil {
		return scenarios.Filter{}, err
	}
	if f.To, err = parseRFC3339(spec.To); err != nil {
		return scenarios.Filter{}, err
	}
	// tukar kalau model kasih window kebalik
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		f.From, f.To = f.To, f.From
	}

	for _, m := range spec.Match {
		if m = strings.TrimSpace(m); m != "" {
			f.Match = append(f.Match, m)
		}
	}
	if spec.Limit > 0 {
		f.Limit = spec.Limit
	}
	return f, nil
}

func parseRFC3339(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, nlq.ErrUnintelligible)
	}
	return t.UTC(), nil
}
