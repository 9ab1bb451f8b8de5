package gemini

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
		APIKey:  "gm-test",
		BaseURL: srv.URL,
		Model:   "gemini-2.5-pro",
	}, nil)
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	var gotReq geminiRequest
	var gotPath, gotKey string
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content:      geminiContent{Role: "model", Parts: []geminiPart{{Text: "answer"}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: &usageMetadata{PromptTokenCount: 9, CandidatesTokenCount: 4, TotalTokenCount: 13},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "short answers"},
			{Role: llm.RoleUser, Content: "hello"},
			{Role: llm.RoleAssistant, Content: "hi"},
			{Role: llm.RoleUser, Content: "continue"},
		},
		MaxTokens:   128,
		Temperature: 0.4,
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", gotPath)
	assert.Equal(t, "gm-test", gotKey)

	// System prompt travels as systemInstruction, assistant turns as
	// role "model".
	require.NotNil(t, gotReq.SystemInstruction)
	assert.Equal(t, "short answers", gotReq.SystemInstruction.Parts[0].Text)
	require.Len(t, gotReq.Contents, 3)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	assert.Equal(t, "model", gotReq.Contents[1].Role)
	assert.Equal(t, 128, gotReq.GenerationConfig.MaxOutputTokens)

	assert.Equal(t, "answer", resp.Choices[0].Message.Content)
	assert.Equal(t, 13, resp.Usage.TotalTokens)
}

func TestCompletion_NoUsageMetadata(t *testing.T) {
	t.Parallel()
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{Text: "no usage here"}}},
			}},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.NoError(t, err)

	// Zero usage is legal: the invoker estimates from word counts.
	assert.Zero(t, resp.Usage.PromptTokens)
	assert.Zero(t, resp.Usage.CompletionTokens)
	assert.Equal(t, "no usage here", resp.Choices[0].Message.Content)
}

func writeGeminiError(w http.ResponseWriter, httpStatus int, apiStatus, msg string) {
	w.WriteHeader(httpStatus)
	var er geminiErrorResp
	er.Error.Code = httpStatus
	er.Error.Status = apiStatus
	er.Error.Message = msg
	json.NewEncoder(w).Encode(er)
}

func TestCompletion_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		status       int
		apiStatus    string
		msg          string
		wantCode     llm.ErrorCode
		wantFallback bool
	}{
		{"bad key", 401, "UNAUTHENTICATED", "API key not valid", llm.ErrUnauthorized, false},
		{"forbidden maps to unauthorized", 403, "PERMISSION_DENIED", "denied", llm.ErrUnauthorized, false},
		{"model 404", 404, "NOT_FOUND", "model not found", llm.ErrModelNotFound, true},
		{"resource exhausted", 429, "RESOURCE_EXHAUSTED", "quota exceeded", llm.ErrQuotaExceeded, true},
		{"plain rate limit", 429, "TOO_MANY_REQUESTS", "slow down", llm.ErrRateLimited, false},
		{"overloaded", 503, "UNAVAILABLE", "model overloaded", llm.ErrModelOverloaded, true},
		{"timeout", 504, "DEADLINE_EXCEEDED", "deadline", llm.ErrUpstreamTimeout, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeGeminiError(w, tc.status, tc.apiStatus, tc.msg)
			})

			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
			})
			var le *llm.Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tc.wantCode, le.Code)
			assert.Equal(t, tc.wantFallback, llm.WantsFallback(err))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	})
	hs, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, hs.Healthy)
}
