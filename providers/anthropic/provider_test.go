package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jervinho777/clipbrain/llm"
	"github.com/jervinho777/clipbrain/providers"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(providers.Config{
		APIKey:  "sk-ant-test",
		BaseURL: srv.URL,
		Model:   "claude-sonnet-4-5-20250929",
	}, nil)
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	var gotReq claudeRequest
	var gotKey, gotVersion string
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(claudeResponse{
			ID:    "msg_1",
			Model: "claude-sonnet-4-5-20250929",
			Content: []claudeContent{
				{Type: "text", Text: "part one, "},
				{Type: "text", Text: "part two"},
			},
			StopReason: "end_turn",
			Usage:      &claudeUsage{InputTokens: 20, OutputTokens: 8},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "be direct"},
			{Role: llm.RoleUser, Content: "hello"},
		},
		MaxTokens: 512,
	})
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-test", gotKey)
	assert.Equal(t, apiVersion, gotVersion)

	// The system prompt travels in its own field, never in messages.
	assert.Equal(t, "be direct", gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, 512, gotReq.MaxTokens)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "part one, part two", resp.Choices[0].Message.Content)
	assert.Equal(t, 20, resp.Usage.PromptTokens)
	assert.Equal(t, 28, resp.Usage.TotalTokens)
}

func TestCompletion_MaxTokensAlwaysSet(t *testing.T) {
	t.Parallel()
	var gotReq claudeRequest
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(claudeResponse{
			Content: []claudeContent{{Type: "text", Text: "x"}},
		})
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4096, gotReq.MaxTokens, "max_tokens is mandatory on this API")
}

func writeClaudeError(w http.ResponseWriter, status int, errType, msg string) {
	w.WriteHeader(status)
	var er claudeErrorResp
	er.Error.Type = errType
	er.Error.Message = msg
	json.NewEncoder(w).Encode(er)
}

func TestCompletion_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		status       int
		errType      string
		msg          string
		wantCode     llm.ErrorCode
		wantFallback bool
	}{
		{"unauthorized", 401, "authentication_error", "invalid x-api-key", llm.ErrUnauthorized, false},
		{"model 404", 404, "not_found_error", "model not found", llm.ErrModelNotFound, true},
		{"rate limited", 429, "rate_limit_error", "rate limited", llm.ErrRateLimited, false},
		{"credit as 400", 400, "invalid_request_error", "credit balance is too low", llm.ErrQuotaExceeded, true},
		{"plain 400", 400, "invalid_request_error", "temperature out of range", llm.ErrInvalidRequest, false},
		{"overloaded 529", 529, "overloaded_error", "overloaded", llm.ErrModelOverloaded, true},
		{"service unavailable", 503, "api_error", "unavailable", llm.ErrUpstreamError, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeClaudeError(w, tc.status, tc.errType, tc.msg)
			})

			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
			})
			var le *llm.Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tc.wantCode, le.Code)
			assert.Equal(t, tc.wantFallback, llm.WantsFallback(err), "fallback class for %s", tc.name)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Write([]byte(`{"data":[]}`))
	})
	hs, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, hs.Healthy)
}
