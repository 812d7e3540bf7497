package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupOpenAIClient rigs up an OpenAIClient pointed at a mock HTTP server.
func setupOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient(getValidOracleConfig("openai", server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
	})
	_, _ = w.Write(body)
}

func TestNewOpenAIClient_RequiresEndpoint(t *testing.T) {
	_, err := NewOpenAIClient(getValidOracleConfig("openai", ""), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestOpenAIClient_Generate_Success(t *testing.T) {
	var captured chatRequestPayload
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		writeCompletion(w, `{"form_index": 1}`)
	})

	out, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"form_index": 1}`, out)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "User query.", captured.Messages[1].Content)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	assert.Equal(t, 256, captured.MaxTokens)
}

func TestOpenAIClient_Generate_RetriesTransientErrors(t *testing.T) {
	var calls int32
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeCompletion(w, "{}")
	})

	out, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_Generate_PermanentError(t *testing.T) {
	var calls int32
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	})

	_, err := client.Generate(context.Background(), createTestRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestOpenAIClient_Generate_ContentlessRepliesAreNoDecision(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty object", `{}`, "{}"},
		{"no choices", `{"choices":[]}`, "{}"},
		{"blank choice", `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`, "{}"},
		{"empty body", ``, "{}"},
		{"not json", `<html>gateway</html>`, "{}"},
		{"top-level message", `{"message":{"role":"assistant","content":"{\"form_index\":2}"}}`, `{"form_index":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				_, _ = w.Write([]byte(tt.body))
			})

			out, err := client.Generate(context.Background(), createTestRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a 200 reply is never retried")
		})
	}
}

func TestOpenAIClient_Generate_ContextCanceled(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, createTestRequest())
	assert.Error(t, err)
}
