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
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Middleware wraps a handler with additional behavior. A configured value
// (carrying its own options) and a plain function are both accepted; see
// MiddlewareFunc for the latter.
type Middleware interface {
	Wrap(next http.Handler) http.Handler
}

// MiddlewareFunc adapts a plain func(next) wrapper to the Middleware
// interface.
type MiddlewareFunc func(next http.Handler) http.Handler

// Wrap implements Middleware.
func (f MiddlewareFunc) Wrap(next http.Handler) http.Handler {
	return f(next)
}

// buildStack composes the layered handler chain for one registered route.
// It runs exactly once per route at registration; the result is cached on the
// trie node and never recomputed per request.
//
// Layer order, outermost first:
//
//	error translation (outer)
//	host allow-list        (if configured)
//	compression            (if configured)
//	CSRF validation        (if configured)
//	route middleware       (declared order, first declared outermost)
//	error translation (inner)
//	terminal handler
//
// The translation layer appears twice on purpose: route middleware can fail,
// and those failures must be translated by the same handler registrations
// that cover the terminal handler, not only by the application-wide policy.
func (a *App) buildStack(reg *registration) http.Handler {
	inner := &errorTranslator{
		handlers: reg.errorHandlers,
		logger:   a.logger,
		debug:    a.debug,
	}
	inner.next = a.terminal(reg, inner)

	h := http.Handler(inner)
	for i := len(reg.middleware) - 1; i >= 0; i-- {
		h = reg.middleware[i].Wrap(h)
	}

	if a.csrfLayer != nil {
		h = a.csrfLayer(h)
	}
	if a.compressionLayer != nil {
		h = a.compressionLayer(h)
	}
	if a.hostLayer != nil {
		h = a.hostLayer(h)
	}

	return &errorTranslator{
		next:     h,
		handlers: reg.errorHandlers,
		logger:   a.logger,
		debug:    a.debug,
	}
}

// terminal adapts the registered handler to http.Handler, feeding returned
// errors into the inner translation layer.
func (a *App) terminal(reg *registration, inner *errorTranslator) http.Handler {
	switch handler := reg.handler.(type) {
	case HandlerFunc:
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := handler(w, r); err != nil {
				inner.respond(w, r, err)
			}
		})

	case WebSocketHandlerFunc:
		return a.websocketTerminal(handler, inner)

	case http.Handler:
		if reg.route.IsMount && reg.route.Path != "/" {
			return http.StripPrefix(reg.route.Path, handler)
		}
		return handler

	default:
		panic("starlite: unsupported handler type")
	}
}

// websocketTerminal upgrades the connection after the middleware layers have
// run, then hands it to the route handler. Errors returned before the
// upgrade are translated normally; once the connection is hijacked there is
// no HTTP response left, so failures are logged and the connection closed.
func (a *App) websocketTerminal(handler WebSocketHandlerFunc, inner *errorTranslator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			inner.respond(w, r, ErrNotWebSocket)
			return
		}

		conn, err := a.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure response.
			a.logger.Error("websocket upgrade failed", slog.Any("error", err))
			return
		}
		defer conn.Close()

		if err := handler(r, conn); err != nil {
			a.logger.Error("websocket handler failed",
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
		}
	})
}
