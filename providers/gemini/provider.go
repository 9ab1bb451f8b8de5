// Package gemini implements the Google generateContent API. Gemini responses
// do not always carry usage metadata; the invoker estimates tokens from word
// counts when usageMetadata is absent.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jervinho777/clipbrain/llm"
	"github.com/jervinho777/clipbrain/providers"
	"go.uber.org/zap"
)

// Provider implements llm.Provider for Google Gemini.
type Provider struct {
	cfg    providers.Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg providers.Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "gemini")),
	}
}

func (p *Provider) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *usageMetadata    `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
}

type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := chooseModel(req, p.cfg.Model)

	body := geminiRequest{
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
			continue
		}
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(p.cfg.BaseURL, "/"), model, p.cfg.APIKey)

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrUpstreamError,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   p.Name(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		return nil, mapError(resp.StatusCode, msg, p.Name())
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrMalformedResponse,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   p.Name(),
		}
	}

	return toChatResponse(gr, model, p.Name()), nil
}

// HealthCheck probes the model listing endpoint.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1beta/models?key=%s", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.APIKey)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readErrMsg(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("gemini health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

func toChatResponse(gr geminiResponse, model, provider string) *llm.ChatResponse {
	msg := llm.Message{Role: llm.RoleAssistant}
	finish := ""
	if len(gr.Candidates) > 0 {
		finish = gr.Candidates[0].FinishReason
		for _, part := range gr.Candidates[0].Content.Parts {
			msg.Content += part.Text
		}
	}

	resp := &llm.ChatResponse{
		Provider: provider,
		Model:    model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: finish,
			Message:      msg,
		}},
	}
	if gr.UsageMetadata != nil {
		total := gr.UsageMetadata.TotalTokenCount
		if total == 0 {
			total = gr.UsageMetadata.PromptTokenCount + gr.UsageMetadata.CandidatesTokenCount
		}
		resp.Usage = llm.ChatUsage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      total,
		}
	}
	return resp
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er geminiErrorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", er.Error.Message, er.Error.Status)
	}
	return string(data)
}

func mapError(status int, msg string, provider string) *llm.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llm.Error{Code: llm.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusNotFound:
		return &llm.Error{Code: llm.ErrModelNotFound, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusTooManyRequests:
		if strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
			return &llm.Error{Code: llm.ErrQuotaExceeded, Message: msg, HTTPStatus: status, Provider: provider}
		}
		return &llm.Error{Code: llm.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusServiceUnavailable:
		return &llm.Error{Code: llm.ErrModelOverloaded, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusGatewayTimeout:
		return &llm.Error{Code: llm.ErrUpstreamTimeout, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	default:
		return &llm.Error{Code: llm.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: status >= 500, Provider: provider}
	}
}

func chooseModel(req *llm.ChatRequest, defaultModel string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if defaultModel != "" {
		return defaultModel
	}
	return "gemini-2.5-pro"
}
