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

// Package gateway calls the platform's backend gRPC services (world,
// character, post, media) with JSON-encoded messages over plain
// grpc.ClientConn.Invoke, so no generated protobuf stubs are needed.
// Addresses come from Consul discovery and every call runs behind a
// per-service circuit breaker with bounded retries.
package gateway

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName selects JSON framing via grpc.CallContentSubtype. The backend
// services register the same codec on their side.
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals arbitrary Go values as JSON message payloads.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return codecName }
