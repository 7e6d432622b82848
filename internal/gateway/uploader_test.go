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

package gateway

import (
	"context"
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

func testGateway() *Gateway {
	pool := resources.NewStatic(http.DefaultClient, 1, 1, 1, slog.New(slog.DiscardHandler))
	return New(pool, slog.New(slog.DiscardHandler))
}

func TestDownloadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	data, err := testGateway().download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestDownloadNon200IsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testGateway().download(context.Background(), srv.URL)
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.False(t, perr.Retryable)
}

func TestDownloadEmptyBodyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testGateway().download(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestPutSendsExactContentType(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := testGateway().put(context.Background(), &PresignedUploadResponse{
		MediaID:     "m1",
		UploadURL:   srv.URL,
		ContentType: "image/png",
	}, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("payload"), gotBody)
}

func TestPutAcceptsCreatedAndOK(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		err := testGateway().put(context.Background(), &PresignedUploadResponse{
			UploadURL:   srv.URL,
			ContentType: "image/jpeg",
		}, []byte("x"))
		assert.NoError(t, err, status)
		srv.Close()
	}
}

func TestPutRejectedStatusIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := testGateway().put(context.Background(), &PresignedUploadResponse{
		UploadURL:   srv.URL,
		ContentType: "image/png",
	}, []byte("x"))
	require.Error(t, err)

	var perr *errors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := jsonCodec{}
	data, err := codec.Marshal(&CreateAIPostRequest{WorldID: "w1", Content: "hello"})
	require.NoError(t, err)

	var req CreateAIPostRequest
	require.NoError(t, codec.Unmarshal(data, &req))
	assert.Equal(t, "w1", req.WorldID)
	assert.Equal(t, "hello", req.Content)
	assert.Equal(t, "json", codec.Name())
}
