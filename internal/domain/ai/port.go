package ai

import "context"

// Provider is the uniform invocation contract over one LLM backend.
// The backend is selected once via Config; callers never branch on the
// provider name anywhere else.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Config selects the active backend. Global configuration, not per-request.
type Config struct {
	Provider string `json:"provider" yaml:"provider"` // "deepseek" | "gemini"
	Model    string `json:"model" yaml:"model"`
	APIKey   string `json:"apiKey" yaml:"apiKey"`
}
