package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, reply map[string]any, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if seen != nil {
			require.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiClientComplete(t *testing.T) {
	var body map[string]any
	srv := geminiServer(t, map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": ` {"image_prompt":"a dim orb"} `}},
			}},
		},
	}, &body)

	g := NewGeminiClient("gemini-test", 5*time.Second, nil).WithBaseURL(srv.URL)
	out, err := g.Complete(context.Background(), Request{APIKey: "test-key", System: "be terse", User: "Mito glows"})
	require.NoError(t, err)
	assert.Equal(t, `{"image_prompt":"a dim orb"}`, out)

	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "Mito glows")
	assert.Contains(t, string(encoded), "be terse")
	assert.Contains(t, string(encoded), "application/json")
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	srv := geminiServer(t, map[string]any{"candidates": []any{}}, nil)

	g := NewGeminiClient("gemini-test", 0, nil).WithBaseURL(srv.URL)
	_, err := g.Complete(context.Background(), Request{APIKey: "test-key", System: "s", User: "u"})
	assert.ErrorContains(t, err, "empty content")
}

func TestGeminiClientReusesClientPerKey(t *testing.T) {
	srv := geminiServer(t, map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": "ok"}}}},
		},
	}, nil)

	g := NewGeminiClient("gemini-test", 0, nil).WithBaseURL(srv.URL)
	for i := 0; i < 2; i++ {
		_, err := g.Complete(context.Background(), Request{APIKey: " test-key ", System: "s", User: "u"})
		require.NoError(t, err)
	}
	assert.Len(t, g.clients, 1)
}
