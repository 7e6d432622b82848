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

package discovery

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	consul "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	entries []*consul.ServiceEntry
	err     error
	calls   int
}

func (f *fakeHealth) Service(service, tag string, passingOnly bool, q *consul.QueryOptions) ([]*consul.ServiceEntry, *consul.QueryMeta, error) {
	f.calls++
	return f.entries, nil, f.err
}

func entry(addr string, port int) *consul.ServiceEntry {
	return &consul.ServiceEntry{
		Node:    &consul.Node{Address: "10.0.0.1"},
		Service: &consul.AgentService{Address: addr, Port: port},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestResolvePassingInstance(t *testing.T) {
	health := &fakeHealth{entries: []*consul.ServiceEntry{entry("10.1.2.3", 9000)}}
	r := newResolver(health, testLogger())

	addr, err := r.Resolve(context.Background(), "world-service")
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3:9000", addr)
}

func TestResolveUsesNodeAddressWhenServiceAddressEmpty(t *testing.T) {
	health := &fakeHealth{entries: []*consul.ServiceEntry{entry("", 9000)}}
	r := newResolver(health, testLogger())

	addr, err := r.Resolve(context.Background(), "world-service")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:9000", addr)
}

func TestResolveFallbackOnError(t *testing.T) {
	health := &fakeHealth{err: errors.New("consul down")}
	r := newResolver(health, testLogger())

	addr, err := r.Resolve(context.Background(), "character-service")
	require.NoError(t, err)
	assert.Equal(t, "character-service:50051", addr)
}

func TestResolveFallbackOnNoInstances(t *testing.T) {
	health := &fakeHealth{}
	r := newResolver(health, testLogger())

	addr, err := r.Resolve(context.Background(), "post-service")
	require.NoError(t, err)
	assert.Equal(t, "post-service:50051", addr)
}

func TestResolveCachesWithinTTL(t *testing.T) {
	health := &fakeHealth{entries: []*consul.ServiceEntry{entry("10.1.2.3", 9000)}}
	r := newResolver(health, testLogger())

	base := time.Now()
	r.now = func() time.Time { return base }

	_, err := r.Resolve(context.Background(), "media-service")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "media-service")
	require.NoError(t, err)
	assert.Equal(t, 1, health.calls)

	r.now = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	_, err = r.Resolve(context.Background(), "media-service")
	require.NoError(t, err)
	assert.Equal(t, 2, health.calls)
}

func TestInvalidateForcesRequery(t *testing.T) {
	health := &fakeHealth{entries: []*consul.ServiceEntry{entry("10.1.2.3", 9000)}}
	r := newResolver(health, testLogger())

	_, err := r.Resolve(context.Background(), "world-service")
	require.NoError(t, err)
	r.Invalidate("world-service")
	_, err = r.Resolve(context.Background(), "world-service")
	require.NoError(t, err)
	assert.Equal(t, 2, health.calls)
}

func TestFallbackCachedToo(t *testing.T) {
	health := &fakeHealth{err: errors.New("consul down")}
	r := newResolver(health, testLogger())

	base := time.Now()
	r.now = func() time.Time { return base }

	_, err := r.Resolve(context.Background(), "world-service")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "world-service")
	require.NoError(t, err)
	assert.Equal(t, 1, health.calls)
}
