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
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrServerClosed is returned by Serve after a graceful shutdown.
	ErrServerClosed = errors.New("server closed")

	// ErrAppFrozen indicates an attempt to register routes after the
	// application started serving. The route table is immutable once the
	// first connection is dispatched.
	ErrAppFrozen = errors.New("route table is frozen after serving begins")

	// ErrMissingCSRFKey indicates WithCSRF was given an empty key.
	ErrMissingCSRFKey = errors.New("csrf auth key must not be empty")

	// ErrNoAllowedHosts indicates WithAllowedHosts was given an empty list.
	ErrNoAllowedHosts = errors.New("allowed hosts list must not be empty")

	// ErrServerTimeoutInvalid indicates a non-positive server timeout value.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")

	// ErrNotWebSocket is returned when a WebSocket handler is invoked for a
	// request that does not carry an upgrade handshake.
	ErrNotWebSocket = errors.New("request is not a websocket upgrade")

	// ErrResponseWriterNotHijacker indicates the underlying ResponseWriter
	// does not implement http.Hijacker.
	ErrResponseWriterNotHijacker = errors.New("response writer does not implement http.Hijacker")
)

// HTTPError is an error carrying an HTTP status code. Handlers and middleware
// return (or panic with) an HTTPError to control the translated response;
// any other error becomes a generic 500.
type HTTPError struct {
	// Status is the HTTP status code of the translated response.
	Status int

	// Message is the client-facing detail text. Empty means the standard
	// status text.
	Message string

	// Err is the wrapped cause, if any. It is never sent to the client
	// outside debug mode.
	Err error
}

// NewHTTPError builds an HTTPError with the given status and detail message.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, msg, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, msg)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Detail returns the client-facing message.
func (e *HTTPError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// NotFoundError returns the 404 error the dispatcher translates when no route
// matches a request path.
func NotFoundError() *HTTPError {
	return &HTTPError{Status: http.StatusNotFound}
}

// MethodNotAllowedError returns the 405 error the dispatcher translates when
// a path matches but the method has no binding.
func MethodNotAllowedError() *HTTPError {
	return &HTTPError{Status: http.StatusMethodNotAllowed}
}

// InternalServerError wraps an unexpected failure as a 500.
func InternalServerError(err error) *HTTPError {
	return &HTTPError{Status: http.StatusInternalServerError, Err: err}
}
