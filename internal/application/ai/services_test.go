package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/ai"
)

type fakeProvider struct {
	name  string
	calls int
	errs  []error
	out   string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Invoke(ctx context.Context, prompt, systemPrompt string) (string, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return f.out, nil
}

// newTestService removes the real backoff so tests run instantly.
func newTestService(p domain.Provider) *Service {
	s := NewService(p)
	s.policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return s
}

func TestInvokeSuccess(t *testing.T) {
	p := &fakeProvider{name: "deepseek", out: "<html>report</html>"}
	s := newTestService(p)

	got, err := s.Invoke(context.Background(), "prompt", "system")
	require.NoError(t, err)
	assert.Equal(t, "<html>report</html>", got)
	assert.Equal(t, 1, p.calls)
}

func TestInvokeRetriesTransient(t *testing.T) {
	p := &fakeProvider{
		out:  "ok",
		errs: []error{fmt.Errorf("503: %w", domain.ErrUpstream), nil},
	}
	s := newTestService(p)

	got, err := s.Invoke(context.Background(), "prompt", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, p.calls)
}

func TestInvokeAuthErrorNotRetried(t *testing.T) {
	authErr := fmt.Errorf("401: %w", domain.ErrAuth)
	p := &fakeProvider{errs: []error{authErr, authErr, authErr}}
	s := newTestService(p)

	_, err := s.Invoke(context.Background(), "prompt", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, 1, p.calls)
}

func TestInvokeExhaustsAttempts(t *testing.T) {
	rl := fmt.Errorf("429: %w", domain.ErrRateLimited)
	p := &fakeProvider{errs: []error{rl, rl, rl}}
	s := newTestService(p)

	_, err := s.Invoke(context.Background(), "prompt", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, p.calls)
}

func TestInvokeNoProvider(t *testing.T) {
	s := newTestService(nil)
	_, err := s.Invoke(context.Background(), "prompt", "")
	assert.Error(t, err)
}

func TestSetProviderSwapsBackend(t *testing.T) {
	a := &fakeProvider{name: "deepseek", out: "a"}
	b := &fakeProvider{name: "gemini", out: "b"}
	s := newTestService(a)
	assert.Equal(t, "deepseek", s.ProviderName())

	s.SetProvider(b)
	assert.Equal(t, "gemini", s.ProviderName())

	got, err := s.Invoke(context.Background(), "p", "")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	assert.Zero(t, a.calls)
}

func TestTimeoutScalesWithPromptSize(t *testing.T) {
	assert.Equal(t, 120*time.Second, Timeout(0))
	assert.Equal(t, 120*time.Second, Timeout(longPromptChars-1))
	assert.Equal(t, 240*time.Second, Timeout(longPromptChars))
	assert.Equal(t, 240*time.Second, Timeout(200000))
}

func TestTransientClassification(t *testing.T) {
	assert.True(t, Transient(domain.ErrTimeout))
	assert.True(t, Transient(domain.ErrConnection))
	assert.True(t, Transient(domain.ErrUpstream))
	assert.True(t, Transient(domain.ErrRateLimited))
	assert.True(t, Transient(context.DeadlineExceeded))

	assert.False(t, Transient(domain.ErrAuth))
	assert.False(t, Transient(errors.New("parse error")))
}

func TestSuggestionCoversKnownClasses(t *testing.T) {
	for _, err := range []error{
		domain.ErrAuth,
		domain.ErrRateLimited,
		domain.ErrUpstream,
		domain.ErrTimeout,
		domain.ErrConnection,
	} {
		assert.NotEmpty(t, Suggestion(err), "no suggestion for %v", err)
	}
	assert.Empty(t, Suggestion(errors.New("unknown")))
}
