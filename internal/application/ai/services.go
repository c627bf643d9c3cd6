package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bryanwahyu/chat-insight/internal/domain/ai"
	"github.com/bryanwahyu/chat-insight/internal/resilience"
)

const (
	baseTimeout = 120 * time.Second
	longTimeout = 240 * time.Second
	// Prompts carry the full transcript, so big groups legitimately need
	// more time from the provider.
	longPromptChars = 50000

	probeTimeout = 15 * time.Second
)

// Service wraps the active provider with size-scaled timeouts and
// classified retry/backoff. The provider can be swapped at runtime when the
// model settings document changes.
type Service struct {
	mu       sync.RWMutex
	provider ai.Provider
	policy   resilience.Policy
}

func NewService(provider ai.Provider) *Service {
	policy := resilience.DefaultPolicy()
	policy.Retryable = Transient
	return &Service{provider: provider, policy: policy}
}

// SetProvider replaces the active backend (model settings hot reload).
func (s *Service) SetProvider(p ai.Provider) {
	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
}

// ProviderName reports the active backend for status endpoints.
func (s *Service) ProviderName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// Invoke runs one provider call with retries. Transient failures (timeout,
// connection reset, 5xx, rate limit) are retried with exponential backoff;
// permanent ones (auth, validation) fail immediately.
func (s *Service) Invoke(ctx context.Context, prompt, systemPrompt string) (string, error) {
	s.mu.RLock()
	provider := s.provider
	policy := s.policy
	s.mu.RUnlock()

	if provider == nil {
		return "", fmt.Errorf("no AI provider configured")
	}

	deadline := Timeout(len(prompt))

	var out string
	err := resilience.Do(ctx, policy, func() error {
		callCtx, cancel := context.WithTimeout(ctx, deadline)
		defer cancel()

		text, err := provider.Invoke(callCtx, prompt, systemPrompt)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				err = fmt.Errorf("%w after %s: %v", ai.ErrTimeout, deadline, err)
			}
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// Probe runs a single short no-retry call against a candidate provider, used
// by the model settings "test connection" action.
func (s *Service) Probe(ctx context.Context, p ai.Provider) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return p.Invoke(ctx, `Reply with the single word "ok".`, "You are a connectivity probe.")
}

// Timeout picks the per-call deadline from the prompt size.
func Timeout(promptLen int) time.Duration {
	if promptLen >= longPromptChars {
		return longTimeout
	}
	return baseTimeout
}

// Transient reports whether the error class is worth retrying.
func Transient(err error) bool {
	return errors.Is(err, ai.ErrTimeout) ||
		errors.Is(err, ai.ErrConnection) ||
		errors.Is(err, ai.ErrUpstream) ||
		errors.Is(err, ai.ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Suggestion maps an invocation error to a human-actionable hint.
func Suggestion(err error) string {
	switch {
	case errors.Is(err, ai.ErrAuth):
		return "credential invalid; update the API key in model settings"
	case errors.Is(err, ai.ErrRateLimited):
		return "provider rate limited; wait a few minutes or switch to the alternate provider"
	case errors.Is(err, ai.ErrUpstream):
		return "provider overloaded; try the alternate provider"
	case errors.Is(err, ai.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "analysis timed out; narrow the time range or retry later"
	case errors.Is(err, ai.ErrConnection):
		return "provider unreachable; check network connectivity and the endpoint URL"
	default:
		return ""
	}
}
