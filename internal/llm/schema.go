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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

// BuildSchema reflects a response shape into a JSON schema ready for
// strict structured output: self-contained (no $ref/$defs) and with every
// object node closed (additionalProperties false, all properties required).
// Strict mode on the provider side rejects open or referencing schemas.
func BuildSchema(shape any) (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: false,
	}

	raw, err := json.Marshal(reflector.Reflect(shape))
	if err != nil {
		return nil, fmt.Errorf("marshal reflected schema: %w", err)
	}

	var node map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode reflected schema: %w", err)
	}

	return NormalizeSchema(node)
}

// NormalizeSchema rewrites a schema document in place for strict mode:
// $refs are inlined from $defs, $defs is dropped, single-element allOf
// wrappers are collapsed, and every object node gets
// additionalProperties=false with all properties required.
func NormalizeSchema(root map[string]any) (map[string]any, error) {
	defs := map[string]any{}
	if d, ok := root["$defs"].(map[string]any); ok {
		defs = d
	}

	// The reflector points the document root at a $defs entry.
	resolved, err := inline(root, defs, 0)
	if err != nil {
		return nil, err
	}
	node, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema root is not an object")
	}

	delete(node, "$defs")
	delete(node, "$schema")
	delete(node, "$id")

	closeObjects(node)
	return node, nil
}

const maxInlineDepth = 64

// inline replaces every {"$ref": "#/$defs/X"} with a deep copy of X and
// collapses allOf wrappers holding a single subschema.
func inline(v any, defs map[string]any, depth int) (any, error) {
	if depth > maxInlineDepth {
		return nil, fmt.Errorf("schema $ref nesting exceeds %d levels", maxInlineDepth)
	}

	switch node := v.(type) {
	case map[string]any:
		if ref, ok := node["$ref"].(string); ok {
			name := strings.TrimPrefix(ref, "#/$defs/")
			target, ok := defs[name]
			if !ok {
				return nil, fmt.Errorf("unresolved schema reference %q", ref)
			}
			expanded, err := inline(deepCopy(target), defs, depth+1)
			if err != nil {
				return nil, err
			}
			// Sibling keys of $ref (description etc.) survive the merge.
			merged, ok := expanded.(map[string]any)
			if !ok {
				return expanded, nil
			}
			for k, val := range node {
				if k != "$ref" {
					merged[k] = val
				}
			}
			return merged, nil
		}

		if all, ok := node["allOf"].([]any); ok && len(all) == 1 {
			expanded, err := inline(all[0], defs, depth+1)
			if err != nil {
				return nil, err
			}
			if sub, ok := expanded.(map[string]any); ok {
				delete(node, "allOf")
				for k, val := range sub {
					if _, exists := node[k]; !exists {
						node[k] = val
					}
				}
				return inline(node, defs, depth+1)
			}
		}

		for k, val := range node {
			if k == "$defs" {
				continue
			}
			resolved, err := inline(val, defs, depth+1)
			if err != nil {
				return nil, err
			}
			node[k] = resolved
		}
		return node, nil

	case []any:
		for i, item := range node {
			resolved, err := inline(item, defs, depth+1)
			if err != nil {
				return nil, err
			}
			node[i] = resolved
		}
		return node, nil

	default:
		return v, nil
	}
}

// closeObjects walks the schema and closes every object node.
func closeObjects(v any) {
	switch node := v.(type) {
	case map[string]any:
		if t, _ := node["type"].(string); t == "object" {
			node["additionalProperties"] = false
			if props, ok := node["properties"].(map[string]any); ok {
				required := make([]string, 0, len(props))
				for name := range props {
					required = append(required, name)
				}
				sort.Strings(required)
				node["required"] = required
			}
		}
		for _, val := range node {
			closeObjects(val)
		}
	case []any:
		for _, item := range node {
			closeObjects(item)
		}
	}
}

func deepCopy(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, val := range node {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
