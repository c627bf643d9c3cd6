package ai

import "errors"

// ErrRateLimited indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrRateLimited = errors.New("ai rate limited")

// ErrAuth indicates the credential was rejected (HTTP 401/403). Permanent, never retried.
var ErrAuth = errors.New("ai credential rejected")

// ErrTimeout indicates the provider call exceeded its deadline.
var ErrTimeout = errors.New("ai request timed out")

// ErrConnection indicates the provider endpoint was unreachable.
var ErrConnection = errors.New("ai provider unreachable")

// ErrUpstream indicates a provider-side failure (HTTP 5xx).
var ErrUpstream = errors.New("ai provider error")
