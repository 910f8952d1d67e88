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

package starlite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrParamMissing is returned when a required path parameter is not
	// present in the resolved bindings.
	ErrParamMissing = errors.New("path parameter not found")

	// ErrParamType is returned when a path parameter is present but holds a
	// different type than requested.
	ErrParamType = errors.New("path parameter has unexpected type")
)

// Params holds the typed path-parameter bindings resolved for a request.
// Values are already coerced to their declared types: an {id:int} parameter
// is an int here, never a string.
type Params map[string]any

// paramsKey is the context key under which the dispatcher stores bindings.
type paramsKey struct{}

// PathParams returns the typed path-parameter bindings for a request, or nil
// when the matched route declares none.
func PathParams(r *http.Request) Params {
	p, _ := r.Context().Value(paramsKey{}).(Params)
	return p
}

// withPathParams attaches resolved bindings to a request context.
func withPathParams(ctx context.Context, p Params) context.Context {
	if len(p) == 0 {
		return ctx
	}
	return context.WithValue(ctx, paramsKey{}, p)
}

// String returns a str or path parameter.
//
// Example:
//
//	app.GET("/users/{name}", func(w http.ResponseWriter, r *http.Request) error {
//	    name, err := starlite.PathParams(r).String("name")
//	    ...
//	})
func (p Params) String(name string) (string, error) {
	return paramAs[string](p, name)
}

// Int returns an {name:int} parameter.
func (p Params) Int(name string) (int, error) {
	return paramAs[int](p, name)
}

// Float returns a {name:float} parameter.
func (p Params) Float(name string) (float64, error) {
	return paramAs[float64](p, name)
}

// UUID returns a {name:uuid} parameter.
func (p Params) UUID(name string) (uuid.UUID, error) {
	return paramAs[uuid.UUID](p, name)
}

// Date returns a {name:date} parameter.
func (p Params) Date(name string) (time.Time, error) {
	return paramAs[time.Time](p, name)
}

// paramAs fetches a binding and asserts its coerced type.
func paramAs[T any](p Params, name string) (T, error) {
	var zero T

	v, ok := p[name]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrParamType, name, v)
	}
	return typed, nil
}
