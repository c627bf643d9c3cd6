package chatlog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

func TestFetchQueryAndDecode(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/chatlog", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"time":   q.Get("time"),
			"talker": q.Get("talker"),
			"limit":  q.Get("limit"),
			"format": q.Get("format"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"time":"2025-06-15T09:00:00Z","senderName":"alice","talkerName":"G1","content":"hello","type":1},
			{"time":"2025-06-15 09:01:00","senderName":"bob","talkerName":"G1","content":"[photo]","type":3},
			{"time":"2025-06-15T09:02:00Z","senderName":"carol","talkerName":"G1","content":"sure","type":49}
		]`))
	}))
	defer srv.Close()

	msgs, err := New(srv.URL).Fetch(context.Background(), "wxid_g1", "2025-06-15~2025-06-15")
	require.NoError(t, err)

	assert.Equal(t, "2025-06-15~2025-06-15", gotQuery["time"])
	assert.Equal(t, "wxid_g1", gotQuery["talker"])
	assert.Equal(t, "500", gotQuery["limit"])
	assert.Equal(t, "json", gotQuery["format"])

	require.Len(t, msgs, 3)
	assert.Equal(t, "alice", msgs[0].SenderName)
	assert.Equal(t, domain.KindText, msgs[0].Kind)
	assert.Equal(t, domain.KindMedia, msgs[1].Kind)
	assert.Equal(t, domain.KindOther, msgs[2].Kind)
	assert.Equal(t, 2025, msgs[0].Time.Year())
	assert.False(t, msgs[1].Time.IsZero(), "space-separated timestamps parse too")
}

func TestFetchEmptyWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	msgs, err := New(srv.URL).Fetch(context.Background(), "wxid_g1", "2025-06-15~2025-06-15")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), "wxid_g1", "2025-06-15~2025-06-15")
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use

	_, err := New(srv.URL).Fetch(context.Background(), "wxid_g1", "2025-06-15~2025-06-15")
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/session", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL).Ping(context.Background()))
}

func TestPingServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.ErrorIs(t, New(srv.URL).Ping(context.Background()), domain.ErrConnection)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, domain.KindText, kindOf(1))
	for _, code := range []int{3, 34, 43, 47} {
		assert.Equal(t, domain.KindMedia, kindOf(code))
	}
	assert.Equal(t, domain.KindOther, kindOf(10000))
}
