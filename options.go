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
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/websocket"

	"github.com/ekeric13/starlite/middleware/allowedhosts"
	"github.com/ekeric13/starlite/middleware/compression"
)

// Option configures an App at construction. Options returning an error abort
// New; configuration problems are startup failures, never request failures.
type Option func(*App) error

// RouteOption configures a single route registration.
type RouteOption func(*routeConfig)

// routeConfig accumulates per-route registration options.
type routeConfig struct {
	middleware    []Middleware
	errorHandlers *ErrorHandlers
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}

// WithDebug enables debug mode: untyped errors surface their text in the
// default 500 body instead of the generic status text.
func WithDebug() Option {
	return func(a *App) error {
		a.debug = true
		return nil
	}
}

// WithErrorHandlers sets application-level error handlers, the lowest layer
// of the resolution chain (group and route registrations override them).
func WithErrorHandlers(handlers *ErrorHandlers) Option {
	return func(a *App) error {
		if handlers != nil {
			a.errorHandlers = handlers
		}
		return nil
	}
}

// WithAllowedHosts enables the host allow-list layer on every route. Entries
// may use a "*.domain" wildcard for subdomains.
//
// Example:
//
//	app := starlite.MustNew(
//	    starlite.WithAllowedHosts("example.com", "*.example.com"),
//	)
func WithAllowedHosts(hosts ...string) Option {
	return func(a *App) error {
		if len(hosts) == 0 {
			return ErrNoAllowedHosts
		}
		a.hostLayer = allowedhosts.New(allowedhosts.Config{Hosts: hosts})
		return nil
	}
}

// WithCompression enables the response-compression layer on every route.
//
// Example:
//
//	app := starlite.MustNew(
//	    starlite.WithCompression(compression.WithMinSize(1024)),
//	)
func WithCompression(opts ...compression.Option) Option {
	return func(a *App) error {
		a.compressionLayer = compression.New(opts...)
		return nil
	}
}

// WithCSRF enables CSRF validation on every route: unsafe-method requests
// lacking a valid token are rejected before route middleware runs. The key
// must be 32 bytes.
//
// Example:
//
//	app := starlite.MustNew(
//	    starlite.WithCSRF(authKey, csrf.Secure(false)),
//	)
func WithCSRF(authKey []byte, opts ...csrf.Option) Option {
	return func(a *App) error {
		if len(authKey) == 0 {
			return ErrMissingCSRFKey
		}
		a.csrfLayer = csrf.Protect(authKey, opts...)
		return nil
	}
}

// WithObservability sets the request lifecycle recorder (metrics and traces).
func WithObservability(recorder Recorder) Option {
	return func(a *App) error {
		a.recorder = recorder
		return nil
	}
}

// WithNotFound sets a custom responder for unmatched connections, replacing
// the default JSON 404.
func WithNotFound(h http.Handler) Option {
	return func(a *App) error {
		a.notFound = h
		return nil
	}
}

// WithWebSocketUpgrader replaces the default WebSocket upgrader, e.g. to set
// buffer sizes or an origin check.
func WithWebSocketUpgrader(upgrader websocket.Upgrader) Option {
	return func(a *App) error {
		a.upgrader = upgrader
		return nil
	}
}

// WithServerTimeouts configures the timeouts Serve applies to its
// http.Server. All values must be positive.
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(a *App) error {
		for _, d := range []time.Duration{readHeader, read, write, idle} {
			if d <= 0 {
				return ErrServerTimeoutInvalid
			}
		}
		a.timeouts = serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
		return nil
	}
}

// WithH2C enables HTTP/2 cleartext in Serve. Only for development or behind
// a trusted load balancer; never on a public listener without TLS.
func WithH2C() Option {
	return func(a *App) error {
		a.enableH2C = true
		return nil
	}
}

// WithRouteMiddleware appends middleware to one route, run after the
// framework layers in declaration order (first declared outermost).
func WithRouteMiddleware(mw ...Middleware) RouteOption {
	return func(c *routeConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithRouteErrorHandlers overrides error handlers for one route; entries here
// win over group- and application-level registrations.
func WithRouteErrorHandlers(handlers *ErrorHandlers) RouteOption {
	return func(c *routeConfig) {
		c.errorHandlers = handlers
	}
}
