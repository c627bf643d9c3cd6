package deepseek

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/ai"
)

func TestClassifyAPIErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{401, domain.ErrAuth},
		{403, domain.ErrAuth},
		{429, domain.ErrRateLimited},
		{500, domain.ErrUpstream},
		{502, domain.ErrUpstream},
	}
	for _, tc := range cases {
		err := classify(&openai.APIError{HTTPStatusCode: tc.status, Message: "x"})
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestClassifyRequestError(t *testing.T) {
	err := classify(&openai.RequestError{HTTPStatusCode: 503, Err: errors.New("bad gateway")})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClassifyClientRejection(t *testing.T) {
	// 4xx outside auth/limit is a permanent request problem, not retryable
	err := classify(&openai.APIError{HTTPStatusCode: 400, Message: "bad request"})
	assert.NotErrorIs(t, err, domain.ErrAuth)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
}

func TestClassifyDeadline(t *testing.T) {
	assert.ErrorIs(t, classify(context.DeadlineExceeded), domain.ErrTimeout)
}

func TestClassifyUnknownError(t *testing.T) {
	boom := errors.New("boom")
	err := classify(boom)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrConnection)
}

func TestNameAndDefaults(t *testing.T) {
	c := NewClient("key", "")
	assert.Equal(t, "deepseek", c.Name())
	assert.Empty(t, c.model, "model defaulted per request, not at construction")
}
