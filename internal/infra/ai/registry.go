package ai

import (
	"fmt"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/ai"
	"github.com/bryanwahyu/chat-insight/internal/infra/ai/deepseek"
	"github.com/bryanwahyu/chat-insight/internal/infra/ai/gemini"
)

// New builds the provider adapter for a config. This is the only place the
// provider name is branched on.
func New(cfg domain.Config) (domain.Provider, error) {
	switch cfg.Provider {
	case "deepseek", "":
		return deepseek.NewClient(cfg.APIKey, cfg.Model), nil
	case "gemini":
		return gemini.NewClient(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
