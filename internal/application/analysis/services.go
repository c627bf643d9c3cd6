package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	appai "github.com/bryanwahyu/chat-insight/internal/application/ai"
	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

// defaultTimeRange is used when a profile leaves the window open.
const defaultTimeRange = "2024-01-01~2025-12-31"

// Clock abstraction so the pipeline is testable
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service implements the single-profile analysis pipeline:
// fetch chat data, build the prompt, invoke the provider, persist the
// result as immutable history.
type Service struct {
	Gateway domain.ChatGateway
	Prompts domain.PromptBuilder
	Invoker *appai.Service
	History domain.HistoryRepository
	Mirror  domain.ReportMirror // optional; nil disables mirroring
	Clock   Clock
}

// Result of one successful pipeline run.
type Result struct {
	HistoryID    string `json:"historyId"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
}

// Run executes the full pipeline for one request.
// An empty fetch result returns domain.ErrNoData: a skip, not a failure.
func (s *Service) Run(ctx context.Context, req domain.Request) (*Result, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return nil, fmt.Errorf("%w: conversationId is required", domain.ErrValidation)
	}
	timeRange := req.TimeRange
	if strings.TrimSpace(timeRange) == "" {
		timeRange = defaultTimeRange
	}
	displayName := req.DisplayName
	if strings.TrimSpace(displayName) == "" {
		displayName = req.ConversationID
	}

	messages, err := s.Gateway.Fetch(ctx, req.ConversationID, timeRange)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNoData, req.ConversationID, timeRange)
	}

	prompt := s.Prompts.Build(req.AnalysisType, messages, req.CustomPrompt)
	content, err := s.Invoker.Invoke(ctx, prompt, s.Prompts.System())
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	rec := &domain.HistoryRecord{
		ID:             domain.NewHistoryID(displayName, timeRange, now),
		Title:          domain.RecordTitle(displayName, timeRange, req.IsScheduled),
		ConversationID: req.ConversationID,
		TimeRange:      timeRange,
		AnalysisType:   req.AnalysisType,
		MessageCount:   len(messages),
		Content:        content,
		CreatedAt:      now,
		IsScheduled:    req.IsScheduled,
	}

	// Mirror first so the stored record can carry the artifact URL.
	// Mirroring is best-effort; the database row is the source of truth.
	if s.Mirror != nil {
		key := fmt.Sprintf("reports/%s.html", rec.ID)
		if url, merr := s.Mirror.Put(ctx, key, "text/html; charset=utf-8", []byte(content)); merr != nil {
			log.Printf("report mirror upload failed for %s: %v", rec.ID, merr)
		} else {
			rec.ArtifactURL = url
		}
	}

	if err := s.History.Save(ctx, rec); err != nil {
		return nil, err
	}

	return &Result{
		HistoryID:    string(rec.ID),
		Title:        rec.Title,
		MessageCount: rec.MessageCount,
	}, nil
}

// RunUntilDone executes the pipeline detached from the caller's context so a
// closed HTTP connection cannot abort an analysis mid-flight.
func (s *Service) RunUntilDone(req domain.Request) (*Result, error) {
	return s.Run(context.Background(), req)
}

// List returns the history metadata, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.HistoryRecord, error) {
	return s.History.List(ctx)
}

// Get returns one full record.
func (s *Service) Get(ctx context.Context, id domain.HistoryID) (*domain.HistoryRecord, error) {
	return s.History.Get(ctx, id)
}

// Delete removes a record permanently.
func (s *Service) Delete(ctx context.Context, id domain.HistoryID) error {
	return s.History.Delete(ctx, id)
}
