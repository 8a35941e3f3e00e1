package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/llm"
)

type recorder struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (r *recorder) add(b map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, b)
}

func newServer(t *testing.T, rec *recorder, handler func(n int, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		rec.add(payload)
		w.Header().Set("Content-Type", "application/json")
		handler(len(rec.bodies), w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteSendsMessagesWithTemperature(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, func(_ int, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- Add Docker\n- Build a project"}}],"usage":{"total_tokens":12}}`))
	})

	c, err := NewClient("test-key", "", srv.URL+"/", 0)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "- Add Docker\n- Build a project", out)

	require.Len(t, rec.bodies, 1)
	assert.Equal(t, DefaultModel, rec.bodies[0]["model"])
	assert.InDelta(t, 0.2, rec.bodies[0]["temperature"], 1e-6)
}

func TestCompleteRetriesWithoutTemperature(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, func(n int, w http.ResponseWriter) {
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature'","type":"invalid_request_error","param":"temperature"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	c, err := NewClient("test-key", "o-mini", srv.URL, 0)
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	require.Len(t, rec.bodies, 2)
	_, hasTemp := rec.bodies[1]["temperature"]
	assert.False(t, hasTemp)
}

func TestCompleteOmitsTemperatureForGPT5(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, func(_ int, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	c, err := NewClient("test-key", "gpt-5-mini", srv.URL, 0)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), nil)
	require.NoError(t, err)
	_, hasTemp := rec.bodies[0]["temperature"]
	assert.False(t, hasTemp)
}

func TestCompleteErrors(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, func(n int, w http.ResponseWriter) {
		switch n {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`upstream broke`))
		case 2:
			_, _ = w.Write([]byte(`{"choices":[]}`))
		default:
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
		}
	})
	c, err := NewClient("test-key", "m", srv.URL, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Complete(context.Background(), nil)
		assert.Error(t, err, i)
	}
	assert.Len(t, rec.bodies, 3)

	_, err = NewClient("", "m", "", 0)
	assert.True(t, errors.Is(err, llm.ErrNotConfigured))
}
