package chatlog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

// fetchLimit caps one chatlog query; plenty for a day of group chat.
const fetchLimit = 500

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the chatlog HTTP service (default port 5030).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// wireMessage matches the chatlog /chatlog JSON response.
type wireMessage struct {
	Time       string `json:"time"`
	SenderName string `json:"senderName"`
	TalkerName string `json:"talkerName"`
	Content    string `json:"content"`
	Type       int    `json:"type"`
}

// Fetch implements analysis.ChatGateway. Messages come back in
// chronological order; an empty window is an empty slice, not an error.
func (c *Client) Fetch(ctx context.Context, conversationID, timeRange string) ([]domain.ChatMessage, error) {
	q := url.Values{}
	q.Set("time", timeRange)
	q.Set("talker", conversationID)
	q.Set("limit", fmt.Sprintf("%d", fetchLimit))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/chatlog?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: chatlog returned %d", domain.ErrConnection, resp.StatusCode)
	}

	var raw []wireMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode chatlog response: %w", err)
	}

	out := make([]domain.ChatMessage, 0, len(raw))
	for _, m := range raw {
		out = append(out, domain.ChatMessage{
			Time:       parseTime(m.Time),
			SenderName: m.SenderName,
			TalkerName: m.TalkerName,
			Content:    m.Content,
			Kind:       kindOf(m.Type),
		})
	}
	return out, nil
}

// Ping probes the chatlog service for the status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/session", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: chatlog returned %d", domain.ErrConnection, resp.StatusCode)
	}
	return nil
}

// kindOf maps WeChat message type codes onto the coarse kinds the prompt
// builder cares about.
func kindOf(t int) domain.MessageKind {
	switch t {
	case 1:
		return domain.KindText
	case 3, 34, 43, 47:
		return domain.KindMedia
	default:
		return domain.KindOther
	}
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
