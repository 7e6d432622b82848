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

package imagegen

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/worldforge/internal/resources"
	"github.com/tombee/worldforge/pkg/errors"
)

func testClient(baseURL string) *Client {
	pool := resources.NewStatic(http.DefaultClient, 1, 2, 1, slog.New(slog.DiscardHandler))
	return New(pool, nil, Options{
		BaseURL: baseURL,
		APIKey:  "key",
		Model:   "runware:100@1",
	}, slog.New(slog.DiscardHandler))
}

func TestGenerateSuccess(t *testing.T) {
	var gotAuth string
	var gotTasks []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotTasks))
		_, _ = w.Write([]byte(`{"data":[{"taskType":"imageInference","taskUUID":"u1","imageURL":"https://img.example/x.png"}]}`))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Generate(context.Background(), &Request{
		Prompt:  "a floating island city at dusk",
		Width:   1024,
		Height:  512,
		WorldID: "w1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/x.png", res.ImageURL)
	assert.Equal(t, ImageGenerationCost, res.Cost)

	assert.Equal(t, "Bearer key", gotAuth)
	require.Len(t, gotTasks, 1)
	task := gotTasks[0]
	assert.Equal(t, "imageInference", task["taskType"])
	assert.Equal(t, "a floating island city at dusk", task["positivePrompt"])
	assert.Equal(t, DefaultNegativePrompt, task["negativePrompt"])
	assert.Equal(t, float64(512), task["height"])
	assert.Equal(t, float64(1), task["numberResults"])
	assert.NotEmpty(t, task["taskUUID"])
}

func TestGenerateDefaultsDimensions(t *testing.T) {
	var gotTasks []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotTasks)
		_, _ = w.Write([]byte(`{"data":[{"imageURL":"https://img.example/y.png"}]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), &Request{Prompt: "portrait"})
	require.NoError(t, err)
	assert.Equal(t, float64(1024), gotTasks[0]["width"])
	assert.Equal(t, float64(1024), gotTasks[0]["height"])
}

func TestGenerateProviderErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"code":"invalidModel","message":"unknown model"}]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "unknown model", perr.Message)
	assert.False(t, perr.Retryable)
}

func TestGenerateHTTPErrorRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}

func TestGenerateEmptyDataRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}
