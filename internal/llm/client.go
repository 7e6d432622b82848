// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package llm calls the OpenRouter chat completions API for free-form and
// schema-constrained generation. Structured calls send a normalized JSON
// schema in strict mode so the model's output decodes directly into the
// typed response shapes.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/tombee/worldforge/internal/metrics"
	"github.com/tombee/worldforge/internal/resources"
	"github.com/tombee/worldforge/internal/store"
	"github.com/tombee/worldforge/pkg/errors"
)

const completionsPath = "/api/v1/chat/completions"

// Options configures the client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string

	// RequestsPerSecond smooths burst load onto the provider underneath
	// the concurrency permit. Zero disables smoothing.
	RequestsPerSecond float64
}

// Client is the OpenRouter-backed LLM provider.
type Client struct {
	pool    *resources.Pool
	store   *store.Store
	logger  *slog.Logger
	baseURL string
	apiKey  string
	model   string

	limiter           *rate.Limiter
	contentBreaker    *gobreaker.CircuitBreaker
	structuredBreaker *gobreaker.CircuitBreaker
}

// New builds the client on the shared pool. The store receives one audit
// record per API call.
func New(pool *resources.Pool, st *store.Store, opts Options, logger *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
	}

	c := &Client{
		pool:    pool,
		store:   st,
		logger:  logger.With("component", "llm"),
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		model:   opts.Model,
		limiter: limiter,
	}
	c.contentBreaker = c.newBreaker("llm_content")
	c.structuredBreaker = c.newBreaker("llm_structured")
	return c
}

func (c *Client) newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		Timeout: 60 * time.Second,
		OnStateChange: func(n string, from, to gobreaker.State) {
			c.logger.Warn("breaker state change", "breaker", n,
				"from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(n).Set(float64(to))
		},
	})
}

// Request is one generation call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int

	// Model overrides the client default when set.
	Model string

	// TaskID and WorldID tag the audit record.
	TaskID  string
	WorldID string
}

// Result is the model's answer plus accounting.
type Result struct {
	Content          string
	Model            string
	Cost             float64
	PromptTokens     int
	CompletionTokens int
}

// GenerateContent runs a free-form completion.
func (c *Client) GenerateContent(ctx context.Context, req *Request) (*Result, error) {
	return c.generate(ctx, req, nil, c.contentBreaker, "content")
}

// GenerateStructuredContent runs a completion constrained to the schema of
// shape, decoding the answer into out. shape and out are usually the same
// type; shape drives the schema, out receives the parsed result.
func (c *Client) GenerateStructuredContent(ctx context.Context, req *Request, shape, out any) (*Result, error) {
	schema, err := BuildSchema(shape)
	if err != nil {
		return nil, fmt.Errorf("build response schema: %w", err)
	}

	result, err := c.generate(ctx, req, schema, c.structuredBreaker, "structured")
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(result.Content), out); err != nil {
		return nil, &errors.ProviderError{
			Provider: "openrouter",
			Message:  fmt.Sprintf("structured output did not match schema: %v", err),
			// A malformed answer from a strict-mode call is a model fault
			// worth retrying with a fresh completion.
			Retryable: true,
		}
	}
	return result, nil
}

func (c *Client) generate(ctx context.Context, req *Request, schema map[string]any, cb *gobreaker.CircuitBreaker, kind string) (*Result, error) {
	release, err := c.pool.AcquireLLM(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body := c.buildBody(req, schema)
	start := time.Now()

	raw, err := cb.Execute(func() (any, error) {
		return c.post(ctx, body)
	})

	duration := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.APICalls.WithLabelValues("openrouter", outcome).Inc()
	metrics.APICallDuration.WithLabelValues("openrouter").Observe(duration.Seconds())

	c.audit(ctx, req, kind, body, raw, err, duration)

	if err != nil {
		return nil, err
	}

	resp := raw.(*chatResponse)
	if len(resp.Choices) == 0 {
		return nil, &errors.ProviderError{Provider: "openrouter", Message: "no choices in response", Retryable: true}
	}

	result := &Result{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		Cost:             resp.Usage.Cost,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	metrics.GenerationCost.WithLabelValues("llm").Add(result.Cost)

	c.logger.Debug("completion finished", "kind", kind, "model", result.Model,
		"prompt_tokens", result.PromptTokens, "completion_tokens", result.CompletionTokens,
		"cost", result.Cost, "duration_ms", duration.Milliseconds())
	return result, nil
}

func (c *Client) buildBody(req *Request, schema map[string]any) *chatRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := &chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Usage:       &usageOptions{Include: true},
	}
	if schema != nil {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "response",
				Strict: true,
				Schema: schema,
			},
		}
	}
	return body
}

func (c *Client) post(ctx context.Context, body *chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.pool.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &errors.ProviderError{
			Provider:   "openrouter",
			StatusCode: httpResp.StatusCode,
			Message:    truncate(string(data), 512),
			RequestID:  httpResp.Header.Get("X-Request-Id"),
			Retryable:  errors.RetryableStatus(httpResp.StatusCode),
		}
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &errors.ProviderError{
			Provider:  "openrouter",
			Message:   fmt.Sprintf("malformed response body: %v", err),
			Retryable: true,
		}
	}
	if resp.Error != nil {
		return nil, &errors.ProviderError{
			Provider:   "openrouter",
			StatusCode: resp.Error.Code,
			Message:    resp.Error.Message,
			Retryable:  errors.RetryableStatus(resp.Error.Code),
		}
	}
	return &resp, nil
}

func (c *Client) audit(ctx context.Context, req *Request, kind string, body *chatRequest, raw any, callErr error, duration time.Duration) {
	if c.store == nil {
		return
	}

	rec := &store.APIRequestRecord{
		APIType:     "LLM",
		TaskID:      req.TaskID,
		WorldID:     req.WorldID,
		RequestType: kind,
		RequestData: map[string]any{
			"model":       body.Model,
			"temperature": body.Temperature,
			"max_tokens":  body.MaxTokens,
			"prompt_len":  len(req.Prompt),
			"structured":  body.ResponseFormat != nil,
		},
		DurationMS: duration.Milliseconds(),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	} else if resp, ok := raw.(*chatResponse); ok {
		rec.ResponseData = map[string]any{
			"model":             resp.Model,
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"cost":              resp.Usage.Cost,
		}
	}
	c.store.LogAPIRequest(ctx, rec)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Usage          *usageOptions   `json:"usage,omitempty"`
}

type usageOptions struct {
	Include bool `json:"include"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int     `json:"prompt_tokens"`
		CompletionTokens int     `json:"completion_tokens"`
		Cost             float64 `json:"cost"`
	} `json:"usage"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
