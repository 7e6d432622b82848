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

package llm

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
	"github.com/tombee/worldforge/internal/schemas"
	"github.com/tombee/worldforge/pkg/errors"
)

func testClient(baseURL string) *Client {
	pool := resources.NewStatic(http.DefaultClient, 2, 1, 1, slog.New(slog.DiscardHandler))
	return New(pool, nil, Options{
		BaseURL: baseURL,
		APIKey:  "sk-test",
		Model:   "google/gemini-flash-1.5-8b",
	}, slog.New(slog.DiscardHandler))
}

func completionBody(content string) string {
	resp := map[string]any{
		"id":    "gen-1",
		"model": "google/gemini-flash-1.5-8b",
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "cost": 0.0012},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestGenerateContent(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(completionBody("a misty archipelago")))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).GenerateContent(context.Background(), &Request{
		Prompt:      "describe a world",
		Temperature: 0.8,
		MaxTokens:   4096,
		WorldID:     "w1",
	})
	require.NoError(t, err)
	assert.Equal(t, "a misty archipelago", res.Content)
	assert.Equal(t, 0.0012, res.Cost)
	assert.Equal(t, 100, res.PromptTokens)
	assert.Equal(t, 50, res.CompletionTokens)

	assert.Equal(t, completionsPath, gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, 0.8, gotBody["temperature"])
	assert.Nil(t, gotBody["response_format"])
}

func TestGenerateStructuredContent(t *testing.T) {
	answer := `{"prompt":"portrait of a star cartographer"}`
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(completionBody(answer)))
	}))
	defer srv.Close()

	var out schemas.CharacterAvatarPromptResponse
	res, err := testClient(srv.URL).GenerateStructuredContent(context.Background(), &Request{
		Prompt: "avatar prompt",
	}, &schemas.CharacterAvatarPromptResponse{}, &out)
	require.NoError(t, err)
	assert.Equal(t, "portrait of a star cartographer", out.Prompt)
	assert.Equal(t, answer, res.Content)

	format := gotBody["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	js := format["json_schema"].(map[string]any)
	assert.Equal(t, "response", js["name"])
	assert.Equal(t, true, js["strict"])
	assert.NotNil(t, js["schema"])
}

func TestGenerateStructuredContentMalformedAnswerRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("not json at all")))
	}))
	defer srv.Close()

	var out schemas.CharacterAvatarPromptResponse
	_, err := testClient(srv.URL).GenerateStructuredContent(context.Background(), &Request{
		Prompt: "avatar prompt",
	}, &schemas.CharacterAvatarPromptResponse{}, &out)
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}

func TestGenerateContentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GenerateContent(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.True(t, perr.Retryable)
}

func TestGenerateContentProviderErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":402,"message":"insufficient credits"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GenerateContent(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 402, perr.StatusCode)
	assert.False(t, perr.Retryable)
}

func TestGenerateContentNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"gen-1","model":"m","choices":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GenerateContent(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}

func TestSystemMessageIncluded(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GenerateContent(context.Background(), &Request{
		System: "you are a worldbuilder",
		Prompt: "go",
	})
	require.NoError(t, err)

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}
