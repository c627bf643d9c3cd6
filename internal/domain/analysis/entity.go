package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// HistoryID identifier type
type HistoryID string

// MessageKind enum
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindMedia MessageKind = "media"
	KindOther MessageKind = "other"
)

// ChatMessage is one message fetched from the chatlog service.
// Ephemeral: lives only for the duration of a pipeline run.
type ChatMessage struct {
	Time       time.Time   `json:"time"`
	SenderName string      `json:"senderName"`
	TalkerName string      `json:"talkerName,omitempty"`
	Content    string      `json:"content"`
	Kind       MessageKind `json:"kind"`
}

// Profile is a named analysis configuration. Owned by the settings UI;
// the core only reads it.
type Profile struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	ConversationID string `json:"conversationId"`
	TimeRange      string `json:"timeRange"` // "YYYY-MM-DD~YYYY-MM-DD" or a named range
	AnalysisType   string `json:"analysisType"`
	PromptTemplate string `json:"promptTemplate,omitempty"`
	IsDynamic      bool   `json:"isDynamic,omitempty"`
}

// Request is built per invocation from a Profile; never persisted.
type Request struct {
	ConversationID string
	DisplayName    string
	TimeRange      string
	AnalysisType   string
	CustomPrompt   string
	IsScheduled    bool
}

// Aggregate Root: HistoryRecord. Immutable once created; deleted only by
// explicit operator action.
type HistoryRecord struct {
	ID             HistoryID `json:"id"`
	Title          string    `json:"title"`
	ConversationID string    `json:"conversationId"`
	TimeRange      string    `json:"timeRange"`
	AnalysisType   string    `json:"analysisType"`
	MessageCount   int       `json:"messageCount"`
	Content        string    `json:"content,omitempty"`
	ArtifactURL    string    `json:"artifact_url,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	IsScheduled    bool      `json:"isScheduled"`
}

var (
	nameSafe  = regexp.MustCompile(`[^a-zA-Z0-9\p{Han}]`)
	rangeSafe = regexp.MustCompile(`[^0-9\-]`)
)

// NewHistoryID derives a filesystem-safe unique id from the profile display
// name, the resolved time range and the creation instant.
func NewHistoryID(displayName, timeRange string, createdAt time.Time) HistoryID {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(createdAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	name := nameSafe.ReplaceAllString(displayName, "_")
	tr := rangeSafe.ReplaceAllString(timeRange, "_")
	return HistoryID(fmt.Sprintf("%s_%s_%s", name, tr, stamp))
}

// RecordTitle formats the display title for a history record.
// Scheduled runs carry a marker so they are distinguishable in listings.
func RecordTitle(displayName, timeRange string, scheduled bool) string {
	title := fmt.Sprintf("%s - %s", displayName, timeRange)
	if scheduled {
		title = "[scheduled] " + title
	}
	return title
}
