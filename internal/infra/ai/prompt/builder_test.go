package prompt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

func msg(at time.Time, sender, content string) domain.ChatMessage {
	return domain.ChatMessage{
		Time:       at,
		SenderName: sender,
		TalkerName: "G1",
		Content:    content,
		Kind:       domain.KindText,
	}
}

func sampleMessages() []domain.ChatMessage {
	base := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	return []domain.ChatMessage{
		msg(base, "alice", "morning"),
		msg(base.Add(time.Minute), "bob", "hey"),
		msg(base.Add(2*time.Minute), "alice", "anyone tried go 1.24?"),
		msg(base.Add(3*time.Minute), "carol", ""),
		msg(base.Add(4*time.Minute), "bob", "not yet"),
	}
}

func TestBuildStatsHeader(t *testing.T) {
	out := NewBuilder().Build("", sampleMessages(), "")

	assert.Contains(t, out, "- Conversation: G1\n")
	assert.Contains(t, out, "- Total messages: 5 (valid text messages: 4)\n")
	assert.Contains(t, out, "- Time range: 2025-06-15 09:00:00 to 2025-06-15 09:04:00\n")
	assert.Contains(t, out, "- Active senders: 2\n")
	assert.Contains(t, out, "- Top senders: alice(2), bob(2)\n")
}

func TestBuildTranscriptIsComplete(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := make([]domain.ChatMessage, 0, 800)
	for i := 0; i < 800; i++ {
		messages = append(messages, msg(base.Add(time.Duration(i)*time.Second), "alice", fmt.Sprintf("line %d", i)))
	}

	out := NewBuilder().Build("", messages, "")
	// untruncated: every message appears, oversized prompts included
	assert.Contains(t, out, "line 0")
	assert.Contains(t, out, "line 799")
	assert.Equal(t, 800, strings.Count(out, "[alice]:"))
}

func TestBuildSkipsEmptyContentInTranscript(t *testing.T) {
	out := NewBuilder().Build("", sampleMessages(), "")
	assert.NotContains(t, out, "[carol]:")
}

func TestBuildDeterministic(t *testing.T) {
	messages := sampleMessages()
	a := NewBuilder().Build("programming", messages, "")
	b := NewBuilder().Build("programming", messages, "")
	assert.Equal(t, a, b)
}

func TestBuildCustomPromptVerbatim(t *testing.T) {
	custom := "Summarize only the jokes.\nRank them."
	out := NewBuilder().Build("custom", sampleMessages(), custom)
	assert.True(t, strings.HasSuffix(out, custom))
	assert.NotContains(t, out, "Analyze the chat data above.")
}

func TestBuildInstructionsByType(t *testing.T) {
	out := NewBuilder().Build("programming", sampleMessages(), "")
	assert.Contains(t, out, "programming and technology topics")

	out = NewBuilder().Build("anything-else", sampleMessages(), "")
	assert.True(t, strings.HasSuffix(out, "Analyze the chat data above."))
}

func TestBuildEmptyInput(t *testing.T) {
	out := NewBuilder().Build("", nil, "")
	assert.Contains(t, out, "- Conversation: unknown\n")
	assert.Contains(t, out, "- Total messages: 0 (valid text messages: 0)\n")
}

func TestRankSendersTopFiveWithTies(t *testing.T) {
	counts := map[string]int{
		"alice": 10, "bob": 8, "carol": 8, "dave": 3, "erin": 3, "frank": 1,
	}
	got := rankSenders(counts)
	require.Equal(t, "alice(10), bob(8), carol(8), dave(3), erin(3)", got)
}

func TestTitle(t *testing.T) {
	b := NewBuilder()
	assert.Equal(t, "Programming Topics Analysis", b.Title("programming"))
	assert.Equal(t, "Science Learning Analysis", b.Title("science"))
	assert.Equal(t, "Reading Discussion Analysis", b.Title("reading"))
	assert.Equal(t, "Custom Analysis", b.Title("custom"))
	assert.Equal(t, "Chat Data Analysis", b.Title(""))
}

func TestSystemPromptDemandsFullHTMLDocument(t *testing.T) {
	sys := NewBuilder().System()
	assert.Contains(t, sys, "HTML")
	assert.Contains(t, sys, "DOCTYPE")
}
