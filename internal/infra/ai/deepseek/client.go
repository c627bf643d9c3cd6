package deepseek

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sashabaranov/go-openai"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/ai"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"

	maxTokens   = 8000
	temperature = 0.7
)

// Client talks to the DeepSeek chat-completions API. DeepSeek speaks the
// OpenAI wire format, so the request is role-tagged system/user messages
// and the answer is a single text field.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = defaultBaseURL
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

func (c *Client) Name() string { return "deepseek" }

func (c *Client) Invoke(ctx context.Context, prompt, systemPrompt string) (string, error) {
	model := c.model
	if model == "" {
		model = defaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		// Streaming off for stability; the whole report comes back in one body.
		Stream: false,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: deepseek returned no choices", domain.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK errors onto the provider error taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return byStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return byStatus(reqErr.HTTPStatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	return fmt.Errorf("deepseek request failed: %w", err)
}

func byStatus(status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: %v", domain.ErrAuth, err)
	case status == 429:
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %v", domain.ErrUpstream, status, err)
	default:
		return fmt.Errorf("deepseek rejected request (status %d): %w", status, err)
	}
}
