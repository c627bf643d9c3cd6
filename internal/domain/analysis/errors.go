package analysis

import "errors"

// ErrNoData indicates the conversation had no activity in the window.
// Treated as a skip, never as a failure.
var ErrNoData = errors.New("no chat data in time range")

// ErrNotFound indicates the requested history record does not exist.
var ErrNotFound = errors.New("analysis record not found")

// ErrConnection indicates the chatlog service is unreachable or timed out.
var ErrConnection = errors.New("chatlog service unreachable")

// ErrValidation indicates a malformed request (missing profile field, bad cron).
var ErrValidation = errors.New("validation failed")

// ErrBatchRunning is returned by Start while a batch is already in flight.
var ErrBatchRunning = errors.New("batch analysis already running")

// ErrBatchEmpty is returned by Start when no profiles are queued.
var ErrBatchEmpty = errors.New("no analysis profiles to run")
