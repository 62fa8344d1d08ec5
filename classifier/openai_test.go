// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/cleanplate/models"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient("test-key", "gpt-4o-mini", srv.URL+"/v1", 500)
}

func TestOpenAIClient_Classify(t *testing.T) {
	var got map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion("```json\n{\"items\":[{\"name\":\"Pão\",\"quantity\":\"DUPLO\"}]}\n```"))
	})

	res, err := c.Classify(context.Background(), "data:image/jpeg;base64,AAAA", ModeInitial)
	require.NoError(t, err)
	assert.Equal(t, []models.ScoreEntry{{Name: "Pão", Value: models.TierDouble}}, res.Items)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 500, got["max_tokens"])

	body, _ := json.Marshal(got)
	assert.Contains(t, string(body), `"image_url"`)
	assert.Contains(t, string(body), "data:image/jpeg;base64,AAAA")
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    ErrorKind
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			},
			kind: KindStatus,
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(completion("   "))
			},
			kind: KindEmpty,
		},
		{
			name: "unparsable content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(completion("I'd rather not."))
			},
			kind: KindParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)
			_, err := c.Classify(context.Background(), "https://example.com/plate.jpg", ModeFinal)

			var ce *ClassificationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.kind, ce.Kind)
		})
	}
}

func TestOpenAIClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAIClient("k", "gpt-4o-mini", url+"/v1", 500)
	_, err := c.Classify(context.Background(), "https://example.com/plate.jpg", ModeInitial)

	var ce *ClassificationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindTransport, ce.Kind)
	assert.True(t, strings.Contains(err.Error(), "transport"))
}
