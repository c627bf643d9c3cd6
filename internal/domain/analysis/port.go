package analysis

import "context"

// ChatGateway port (interface for the chatlog HTTP service)
type ChatGateway interface {
	// Fetch returns the messages for a conversation and time range in
	// chronological order. An empty slice with a nil error means the
	// conversation had no activity in the window.
	Fetch(ctx context.Context, conversationID, timeRange string) ([]ChatMessage, error)
	Ping(ctx context.Context) error
}

// HistoryRepository port (interface for persistence)
type HistoryRepository interface {
	// Save inserts a new record. Records are immutable; saving an
	// existing id is an error, never an overwrite.
	Save(ctx context.Context, rec *HistoryRecord) error
	// List returns record metadata (no content) sorted newest-first.
	List(ctx context.Context) ([]*HistoryRecord, error)
	Get(ctx context.Context, id HistoryID) (*HistoryRecord, error)
	Delete(ctx context.Context, id HistoryID) error
}

// PromptBuilder port (turns fetched messages into the provider payload)
type PromptBuilder interface {
	Build(analysisType string, messages []ChatMessage, customPrompt string) string
	System() string
	Title(analysisType string) string
}

// ProfileSource port: the live set of configured profiles, re-read on every
// call (the scheduler must never act on a stale snapshot).
type ProfileSource interface {
	Profiles() []Profile
}

// ReportMirror port (optional object-storage copy of generated reports)
type ReportMirror interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
