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

package resources

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
)

func permitPool(n int64) *Pool {
	return &Pool{
		llmPermit:   semaphore.NewWeighted(n),
		imagePermit: semaphore.NewWeighted(n),
		grpcPermit:  semaphore.NewWeighted(n),
		logger:      slog.New(slog.DiscardHandler),
	}
}

func TestAcquireReleaseCycle(t *testing.T) {
	p := permitPool(1)

	release, err := p.AcquireLLM(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.AcquireLLM(ctx)
	assert.Error(t, err)

	release()

	release2, err := p.AcquireLLM(context.Background())
	require.NoError(t, err)
	release2()
}

func TestPermitClassesIndependent(t *testing.T) {
	p := permitPool(1)

	releaseLLM, err := p.AcquireLLM(context.Background())
	require.NoError(t, err)
	defer releaseLLM()

	releaseImg, err := p.AcquireImage(context.Background())
	require.NoError(t, err)
	defer releaseImg()

	releaseGRPC, err := p.AcquireGRPC(context.Background())
	require.NoError(t, err)
	defer releaseGRPC()
}

func TestAcquireHonorsCancelledContext(t *testing.T) {
	p := permitPool(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.AcquireGRPC(ctx)
	assert.Error(t, err)
}

func TestConnReusedPerTarget(t *testing.T) {
	p := permitPool(1)
	p.conns = make(map[string]*grpc.ClientConn)

	first, err := p.Conn("localhost:50051")
	require.NoError(t, err)
	second, err := p.Conn("localhost:50051")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := p.Conn("localhost:50052")
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	for _, conn := range p.conns {
		_ = conn.Close()
	}
}

func TestStaticPoolCloses(t *testing.T) {
	p := NewStatic(&http.Client{}, 1, 1, 1, slog.New(slog.DiscardHandler))

	_, err := p.Conn("localhost:50051")
	require.NoError(t, err)

	assert.NoError(t, p.Close(context.Background()))
}
