// Copyright 2025 The Starlite Authors
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

package route

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ParamType is the declared type of a path parameter. It determines both the
// Go type a captured segment coerces to and, for ParamPath, the matching
// behavior (consume the rest of the path).
type ParamType uint8

const (
	// ParamString passes the raw segment through unchanged. The default.
	ParamString ParamType = iota

	// ParamInt coerces to int.
	ParamInt

	// ParamFloat coerces to float64.
	ParamFloat

	// ParamUUID coerces to uuid.UUID, accepting the canonical textual forms.
	ParamUUID

	// ParamDate coerces to time.Time, accepting RFC 3339 timestamps and bare
	// YYYY-MM-DD dates.
	ParamDate

	// ParamPath captures the entire remaining request path as a string,
	// slashes included. Only valid as the final template component.
	ParamPath
)

// paramTypeNames maps template type annotations to their ParamType.
var paramTypeNames = map[string]ParamType{
	"str":   ParamString,
	"int":   ParamInt,
	"float": ParamFloat,
	"uuid":  ParamUUID,
	"date":  ParamDate,
	"path":  ParamPath,
}

// String returns the template annotation for t.
func (t ParamType) String() string {
	for name, pt := range paramTypeNames {
		if pt == t {
			return name
		}
	}
	return fmt.Sprintf("ParamType(%d)", uint8(t))
}

// ParamDef is one declared path parameter.
type ParamDef struct {
	// Name is the placeholder name, unique within its template.
	Name string

	// Type is the declared coercion type.
	Type ParamType

	// Index is the parameter's left-to-right position in the template.
	Index int
}

// dateLayout is the bare-date form accepted alongside RFC 3339.
const dateLayout = "2006-01-02"

// Coerce converts a captured raw segment to the parameter's declared type.
// A failure wraps ErrParamCoercion; the caller treats it as "this route does
// not match", never as a client error response.
func (d ParamDef) Coerce(raw string) (any, error) {
	switch d.Type {
	case ParamString, ParamPath:
		return raw, nil

	case ParamInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int for %q", ErrParamCoercion, raw, d.Name)
		}
		return v, nil

	case ParamFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float for %q", ErrParamCoercion, raw, d.Name)
		}
		return v, nil

	case ParamUUID:
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a uuid for %q", ErrParamCoercion, raw, d.Name)
		}
		return v, nil

	case ParamDate:
		if v, err := time.Parse(time.RFC3339, raw); err == nil {
			return v, nil
		}
		v, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date for %q", ErrParamCoercion, raw, d.Name)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("%w: unknown type for %q", ErrParamCoercion, d.Name)
	}
}
