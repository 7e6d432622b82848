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

// Package imagegen calls the Runware inference API to render images from
// prompts. The provider returns ephemeral URLs, so callers must hand the
// result straight to the media uploader.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/tombee/worldforge/internal/metrics"
	"github.com/tombee/worldforge/internal/resources"
	"github.com/tombee/worldforge/internal/store"
	"github.com/tombee/worldforge/pkg/errors"
)

// ImageGenerationCost is the flat per-image spend recorded against the
// world's image budget. The provider does not itemize cost per call at
// the plan in use.
const ImageGenerationCost = 0.0008

// DefaultNegativePrompt suppresses the common failure modes of diffusion
// output across every image class.
const DefaultNegativePrompt = "blurry, deformed, disfigured, bad anatomy, ugly, text, watermark"

// Options configures the client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client is the Runware-backed image provider.
type Client struct {
	pool    *resources.Pool
	store   *store.Store
	logger  *slog.Logger
	baseURL string
	apiKey  string
	model   string
	breaker *gobreaker.CircuitBreaker
}

// New builds the client on the shared pool.
func New(pool *resources.Pool, st *store.Store, opts Options, logger *slog.Logger) *Client {
	c := &Client{
		pool:    pool,
		store:   st,
		logger:  logger.With("component", "imagegen"),
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		model:   opts.Model,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "image_inference",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		Timeout: 60 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("breaker state change", "breaker", name,
				"from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return c
}

// Request is one image render.
type Request struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int

	// Model overrides the client default when set.
	Model string

	// TaskID and WorldID tag the audit record.
	TaskID  string
	WorldID string
}

// Result carries the rendered image's ephemeral URL.
type Result struct {
	ImageURL string
	Cost     float64
}

// Generate renders one image. The returned URL expires within minutes.
func (c *Client) Generate(ctx context.Context, req *Request) (*Result, error) {
	release, err := c.pool.AcquireImage(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	task := c.buildTask(req)
	start := time.Now()

	raw, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, []inferenceTask{task})
	})

	duration := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.APICalls.WithLabelValues("runware", outcome).Inc()
	metrics.APICallDuration.WithLabelValues("runware").Observe(duration.Seconds())

	c.audit(ctx, req, task, raw, err, duration)

	if err != nil {
		return nil, err
	}

	resp := raw.(*inferenceResponse)
	if len(resp.Data) == 0 || resp.Data[0].ImageURL == "" {
		return nil, &errors.ProviderError{Provider: "runware", Message: "no image in response", Retryable: true}
	}

	metrics.GenerationCost.WithLabelValues("image").Add(ImageGenerationCost)
	c.logger.Debug("image rendered", "world_id", req.WorldID,
		"width", task.Width, "height", task.Height, "duration_ms", duration.Milliseconds())
	return &Result{ImageURL: resp.Data[0].ImageURL, Cost: ImageGenerationCost}, nil
}

func (c *Client) buildTask(req *Request) inferenceTask {
	model := req.Model
	if model == "" {
		model = c.model
	}
	negative := req.NegativePrompt
	if negative == "" {
		negative = DefaultNegativePrompt
	}
	width, height := req.Width, req.Height
	if width == 0 {
		width = 1024
	}
	if height == 0 {
		height = 1024
	}
	return inferenceTask{
		TaskType:       "imageInference",
		TaskUUID:       uuid.NewString(),
		PositivePrompt: req.Prompt,
		NegativePrompt: negative,
		Model:          model,
		Width:          width,
		Height:         height,
		NumberResults:  1,
	}
}

func (c *Client) post(ctx context.Context, tasks []inferenceTask) (*inferenceResponse, error) {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal inference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.pool.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &errors.ProviderError{
			Provider:   "runware",
			StatusCode: httpResp.StatusCode,
			Message:    truncate(string(data), 512),
			Retryable:  errors.RetryableStatus(httpResp.StatusCode),
		}
	}

	var resp inferenceResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &errors.ProviderError{
			Provider:  "runware",
			Message:   fmt.Sprintf("malformed response body: %v", err),
			Retryable: true,
		}
	}
	if len(resp.Errors) > 0 {
		return nil, &errors.ProviderError{
			Provider:  "runware",
			Message:   resp.Errors[0].Message,
			Retryable: false,
		}
	}
	return &resp, nil
}

func (c *Client) audit(ctx context.Context, req *Request, task inferenceTask, raw any, callErr error, duration time.Duration) {
	if c.store == nil {
		return
	}

	rec := &store.APIRequestRecord{
		APIType:     "images",
		TaskID:      req.TaskID,
		WorldID:     req.WorldID,
		RequestType: "image_inference",
		RequestData: map[string]any{
			"model":      task.Model,
			"width":      task.Width,
			"height":     task.Height,
			"prompt_len": len(task.PositivePrompt),
		},
		DurationMS: duration.Milliseconds(),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	} else if resp, ok := raw.(*inferenceResponse); ok && len(resp.Data) > 0 {
		rec.ResponseData = map[string]any{
			"task_uuid": resp.Data[0].TaskUUID,
			"cost":      ImageGenerationCost,
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

type inferenceTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Model          string `json:"model"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NumberResults  int    `json:"numberResults"`
}

type inferenceResponse struct {
	Data []struct {
		TaskType string `json:"taskType"`
		TaskUUID string `json:"taskUUID"`
		ImageURL string `json:"imageURL"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}
