package llm

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrorCode aligns backend failures with HTTP status, retryability and the
// engine's fallback-model policy.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "LLM_INVALID_REQUEST"    // bad parameters or format
	ErrCredentialMissing ErrorCode = "LLM_CREDENTIAL_MISSING" // backend never activated
	ErrUnauthorized      ErrorCode = "LLM_UNAUTHORIZED"       // key rejected or expired
	ErrForbidden         ErrorCode = "LLM_FORBIDDEN"          // policy refusal
	ErrRateLimited       ErrorCode = "LLM_RATE_LIMITED"       // upstream or local throttle
	ErrQuotaExceeded     ErrorCode = "LLM_QUOTA_EXCEEDED"     // credits exhausted
	ErrModelNotFound     ErrorCode = "LLM_MODEL_NOT_FOUND"    // unknown/retired model id
	ErrModelOverloaded   ErrorCode = "LLM_MODEL_OVERLOADED"   // model at capacity
	ErrUpstreamTimeout   ErrorCode = "LLM_UPSTREAM_TIMEOUT"   // deadline hit upstream
	ErrUpstreamError     ErrorCode = "LLM_UPSTREAM_ERROR"     // 5xx or network failure
	ErrMalformedResponse ErrorCode = "LLM_MALFORMED_RESPONSE" // empty or unparsable body
)

type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// WantsFallback reports whether a failure belongs to the
// "unavailable, overloaded, not found or out of quota" class that warrants a
// single retry against the backend's configured fallback model. Transient and
// fatal errors do not qualify.
func WantsFallback(err error) bool {
	var le *Error
	if !errors.As(err, &le) {
		return false
	}
	switch le.Code {
	case ErrModelNotFound, ErrModelOverloaded, ErrQuotaExceeded:
		return true
	}
	return le.HTTPStatus == http.StatusServiceUnavailable
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

type ChatRequest struct {
	TraceID     string    `json:"trace_id"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// HealthStatus is the result of a lightweight provider probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is the uniform adapter contract over heterogeneous backend
// families. One implementation exists per wire format; everything above this
// interface only ever sees normalized requests and responses.
type Provider interface {
	// Completion issues one synchronous chat request.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthCheck performs a lightweight availability probe, for diagnostics
	// only. A healthy probe never reactivates a backend that failed at init.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider family identifier.
	Name() string
}
