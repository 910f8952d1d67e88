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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrorHandler produces the response for a failure that reached the
// error-translation layer.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// targetHandler pairs a sentinel error with its handler; matched via
// errors.Is.
type targetHandler struct {
	target  error
	handler ErrorHandler
}

// ErrorHandlers is a precedence-ordered registry of error translations.
// Entries registered on a route override entries on its group, which override
// entries on the application: resolution merges the layers route-outward and
// the closest layer wins.
type ErrorHandlers struct {
	status  map[int]ErrorHandler
	targets []targetHandler
}

// NewErrorHandlers returns an empty registry.
func NewErrorHandlers() *ErrorHandlers {
	return &ErrorHandlers{status: make(map[int]ErrorHandler)}
}

// OnStatus registers a handler for every HTTPError carrying the given status
// code. Returns the registry for chaining.
func (h *ErrorHandlers) OnStatus(status int, fn ErrorHandler) *ErrorHandlers {
	h.status[status] = fn
	return h
}

// OnError registers a handler for errors matching target via errors.Is.
// Target matches take precedence over status matches.
func (h *ErrorHandlers) OnError(target error, fn ErrorHandler) *ErrorHandlers {
	h.targets = append(h.targets, targetHandler{target: target, handler: fn})
	return h
}

// merge returns a new registry with overrides layered on top of h. Either
// side may be nil.
func (h *ErrorHandlers) merge(overrides *ErrorHandlers) *ErrorHandlers {
	merged := NewErrorHandlers()
	for _, layer := range []*ErrorHandlers{h, overrides} {
		if layer == nil {
			continue
		}
		for status, fn := range layer.status {
			merged.status[status] = fn
		}
		merged.targets = append(merged.targets, layer.targets...)
	}
	return merged
}

// resolve finds the registered handler for err, or nil when only the default
// translation applies. Later-registered target handlers win, mirroring the
// layer merge order.
func (h *ErrorHandlers) resolve(err error) ErrorHandler {
	if h == nil {
		return nil
	}
	for i := len(h.targets) - 1; i >= 0; i-- {
		if errors.Is(err, h.targets[i].target) {
			return h.targets[i].handler
		}
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if fn, ok := h.status[httpErr.Status]; ok {
			return fn
		}
	}
	return nil
}

// errorTranslator converts errors and panics escaping the wrapped handler
// into HTTP responses.
//
// Every composed stack carries two instances: an inner one directly around
// the terminal handler, and an outer one around the whole stack, so failures
// raised inside route middleware are still translated by the same resolved
// registrations as failures from the handler itself.
type errorTranslator struct {
	next     http.Handler
	handlers *ErrorHandlers
	logger   *slog.Logger
	debug    bool
}

func (t *errorTranslator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			t.logger.Error("handler panicked",
				slog.String("path", r.URL.Path),
				slog.String("method", r.Method),
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
			t.respond(w, r, err)
		}
	}()

	t.next.ServeHTTP(w, r)
}

// respond translates err into a response, preferring the resolved handler
// chain and falling back to the default JSON translation.
func (t *errorTranslator) respond(w http.ResponseWriter, r *http.Request, err error) {
	if info, ok := w.(interface{ Written() bool }); ok && info.Written() {
		// Headers are gone; nothing left to translate.
		t.logger.Error("error after response started", slog.Any("error", err))
		return
	}

	if fn := t.handlers.resolve(err); fn != nil {
		fn(w, r, err)
		return
	}
	t.defaultRespond(w, err)
}

// defaultRespond writes the standard JSON error body.
func (t *errorTranslator) defaultRespond(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := http.StatusText(status)

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Status
		detail = httpErr.Detail()
	} else if t.debug {
		detail = err.Error()
	}

	writeJSONError(w, status, detail)
}

// writeJSONError writes the framework's error body shape.
func writeJSONError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status_code": status,
		"detail":      detail,
	})
}
