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

package schemas

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

const indentStep = "  "

// StructureDescription renders a shape's field names and descriptions as
// indented text. The rendering is embedded into prompts so the model sees
// the exact structure it must fill in.
func StructureDescription(shape any) string {
	t := reflect.TypeOf(shape)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.Join(structureLines(t, 0), "\n")
}

func structureLines(t reflect.Type, indent int) []string {
	var lines []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		line := fmt.Sprintf("%s%s: %s", strings.Repeat(indentStep, indent), fieldName(f), fieldDescription(f))
		line = strings.TrimRight(line, " ")

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		switch {
		case ft.Kind() == reflect.Slice && ft.Elem().Kind() == reflect.Struct:
			// Nested list: the first nested line gets a bullet one level in,
			// the element's fields render two levels in.
			nested := structureLines(ft.Elem(), indent+2)
			if len(nested) > 0 {
				nested[0] = strings.Repeat(indentStep, indent+1) + "- " + strings.TrimLeft(nested[0], " ")
			}
			lines = append(lines, line)
			lines = append(lines, nested...)
		case ft.Kind() == reflect.Struct:
			lines = append(lines, line)
			lines = append(lines, structureLines(ft, indent+1)...)
		default:
			lines = append(lines, line)
		}
	}
	return lines
}

var parenthetical = regexp.MustCompile(`\([^)]*\)`)

// Fields never rendered into prompt text.
var skipFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// FormatValue renders a populated shape for prompt embedding: one
// "description: value" line per non-empty field, with nested shapes
// indented under their description and list elements bulleted.
func FormatValue(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	return strings.Join(valueLines(rv), "\n")
}

func valueLines(rv reflect.Value) []string {
	t := rv.Type()
	var lines []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || skipFields[fieldName(f)] {
			continue
		}

		fv := rv.Field(i)
		for fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				fv = reflect.Value{}
				break
			}
			fv = fv.Elem()
		}
		if !fv.IsValid() || fv.IsZero() {
			continue
		}

		desc := strings.TrimSpace(parenthetical.ReplaceAllString(fieldDescription(f), ""))
		if desc == "" {
			desc = fieldName(f)
		}

		switch fv.Kind() {
		case reflect.Slice:
			if fv.Len() == 0 {
				continue
			}
			if fv.Index(0).Kind() == reflect.Struct {
				lines = append(lines, desc+":")
				for j := 0; j < fv.Len(); j++ {
					lines = append(lines, "- "+strings.Join(valueLines(fv.Index(j)), "\n"))
				}
			} else {
				items := make([]string, fv.Len())
				for j := 0; j < fv.Len(); j++ {
					items[j] = fmt.Sprint(fv.Index(j).Interface())
				}
				lines = append(lines, fmt.Sprintf("%s: %s", desc, strings.Join(items, ", ")))
			}
		case reflect.Struct:
			lines = append(lines, desc+":")
			lines = append(lines, valueLines(fv)...)
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", desc, fv.Interface()))
		}
	}
	return lines
}

// fieldName returns the wire name of a struct field: the first token of its
// json tag, falling back to the Go name.
func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return f.Name
	}
	return tag
}

// fieldDescription extracts the description from a jsonschema struct tag.
func fieldDescription(f reflect.StructField) string {
	tag := f.Tag.Get("jsonschema")
	for _, part := range strings.Split(tag, ",") {
		if strings.HasPrefix(part, "description=") {
			return strings.TrimPrefix(part, "description=")
		}
	}
	return ""
}
