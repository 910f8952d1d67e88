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
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ekeric13/starlite/route"
)

// noopLogger is the singleton discard logger used when no logger is
// configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton discard logger.
func NoopLogger() *slog.Logger {
	return noopLogger
}

// HandlerFunc handles an HTTP request. A returned error is translated into a
// response by the route's error-translation layer; return an *HTTPError to
// control the status code.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// WebSocketHandlerFunc handles an upgraded WebSocket connection. The
// connection is closed when the handler returns; a returned error is logged,
// since the HTTP response is gone once the connection is hijacked.
type WebSocketHandlerFunc func(r *http.Request, conn *websocket.Conn) error

// App is the process-wide entry point: it owns the routing trie, dispatches
// inbound connections through it and invokes the cached handler chain for the
// matched connection kind.
//
// Routes are registered during a single-threaded configuration phase. The
// first dispatched connection freezes the table; registration afterwards
// panics. After the freeze the whole structure is read-only and shared across
// any number of concurrent connections without locking.
//
// Example:
//
//	app := starlite.MustNew()
//	app.GET("/users/{id:int}", func(w http.ResponseWriter, r *http.Request) error {
//	    id, err := starlite.PathParams(r).Int("id")
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Fprintf(w, "user %d", id)
//	    return nil
//	})
//	http.ListenAndServe(":8080", app)
type App struct {
	routes *routeMap
	logger *slog.Logger
	debug  bool

	middleware    []Middleware
	errorHandlers *ErrorHandlers

	// Framework layers, materialized once at construction and shared by
	// every composed stack. Nil means the layer is not configured.
	hostLayer        func(http.Handler) http.Handler
	compressionLayer func(http.Handler) http.Handler
	csrfLayer        func(http.Handler) http.Handler

	recorder Recorder
	notFound http.Handler
	upgrader websocket.Upgrader

	timeouts  serverTimeouts
	enableH2C bool

	frozen atomic.Bool
}

// registration carries one route descriptor with its handler and the
// middleware and error handlers resolved across the app -> group -> route
// layers.
type registration struct {
	route         *route.Route
	handler       any
	middleware    []Middleware
	errorHandlers *ErrorHandlers
}

// New creates an application with the given options. Configuration is
// validated immediately; routes are validated as they are registered.
func New(opts ...Option) (*App, error) {
	a := &App{
		routes:        newRouteMap(),
		logger:        noopLogger,
		errorHandlers: NewErrorHandlers(),
		timeouts:      defaultServerTimeouts(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("starlite: invalid configuration: %w", err)
		}
	}
	return a, nil
}

// MustNew is New, panicking on invalid configuration. Startup construction
// errors are fatal; they are never deferred to request time.
func MustNew(opts ...Option) *App {
	a, err := New(opts...)
	if err != nil {
		panic(err.Error())
	}
	return a
}

// Use appends application-level middleware, run outermost within the
// user-middleware block of every route's stack.
func (a *App) Use(mw ...Middleware) {
	a.checkMutable()
	a.middleware = append(a.middleware, mw...)
}

// Handle registers one HTTP route serving the given methods.
func (a *App) Handle(methods []string, path string, fn HandlerFunc, opts ...RouteOption) {
	rt, err := route.New(route.KindHTTP, path, methods)
	if err != nil {
		panic(fmt.Sprintf("starlite: %v", err))
	}
	a.register(rt, fn, opts)
}

// GET registers a route for GET requests.
func (a *App) GET(path string, fn HandlerFunc, opts ...RouteOption) {
	a.Handle([]string{http.MethodGet}, path, fn, opts...)
}

// POST registers a route for POST requests.
func (a *App) POST(path string, fn HandlerFunc, opts ...RouteOption) {
	a.Handle([]string{http.MethodPost}, path, fn, opts...)
}

// PUT registers a route for PUT requests.
func (a *App) PUT(path string, fn HandlerFunc, opts ...RouteOption) {
	a.Handle([]string{http.MethodPut}, path, fn, opts...)
}

// PATCH registers a route for PATCH requests.
func (a *App) PATCH(path string, fn HandlerFunc, opts ...RouteOption) {
	a.Handle([]string{http.MethodPatch}, path, fn, opts...)
}

// DELETE registers a route for DELETE requests.
func (a *App) DELETE(path string, fn HandlerFunc, opts ...RouteOption) {
	a.Handle([]string{http.MethodDelete}, path, fn, opts...)
}

// HEAD registers a route for HEAD requests.
func (a *App) HEAD(path string, fn HandlerFunc, opts ...RouteOption) {
	a.Handle([]string{http.MethodHead}, path, fn, opts...)
}

// OPTIONS registers a route for OPTIONS requests.
func (a *App) OPTIONS(path string, fn HandlerFunc, opts ...RouteOption) {
	a.Handle([]string{http.MethodOptions}, path, fn, opts...)
}

// WebSocket registers a WebSocket route. The connection is upgraded after the
// route's middleware layers have run.
func (a *App) WebSocket(path string, fn WebSocketHandlerFunc, opts ...RouteOption) {
	rt, err := route.New(route.KindWebSocket, path, nil)
	if err != nil {
		panic(fmt.Sprintf("starlite: %v", err))
	}
	a.register(rt, fn, opts)
}

// Any registers a raw route: one handler serving every method at the path.
func (a *App) Any(path string, h http.Handler, opts ...RouteOption) {
	rt, err := route.New(route.KindRaw, path, nil)
	if err != nil {
		panic(fmt.Sprintf("starlite: %v", err))
	}
	a.register(rt, h, opts)
}

// Mount delegates the entire sub-path space at path to a handler with the
// same contract as the dispatcher itself (http.Handler), so sub-applications
// compose transparently. The mount prefix is stripped before forwarding.
func (a *App) Mount(path string, h http.Handler, opts ...RouteOption) {
	rt, err := route.NewMount(path, false)
	if err != nil {
		panic(fmt.Sprintf("starlite: %v", err))
	}
	a.register(rt, h, opts)
}

// register resolves layers, inserts the route and materializes its stack.
func (a *App) register(rt *route.Route, handler any, opts []RouteOption) {
	a.checkMutable()

	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	middleware := make([]Middleware, 0, len(a.middleware)+len(cfg.middleware))
	middleware = append(middleware, a.middleware...)
	middleware = append(middleware, cfg.middleware...)

	a.routes.insert(a, &registration{
		route:         rt,
		handler:       handler,
		middleware:    middleware,
		errorHandlers: a.errorHandlers.merge(cfg.errorHandlers),
	})
}

// checkMutable panics when the route table is already frozen.
func (a *App) checkMutable() {
	if a.frozen.Load() {
		panic("starlite: " + ErrAppFrozen.Error())
	}
}

// notFoundPattern is the sentinel route pattern reported to the Recorder for
// unmatched dispatches, keeping metric label cardinality bounded.
const notFoundPattern = "_not_found"

// ServeHTTP dispatches one inbound connection: pick the connection kind,
// resolve the path against the trie, then invoke the cached handler chain
// with the typed parameter bindings attached to the request context.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// First dispatch freezes the route table; configuration and serving are
	// mutually exclusive phases.
	a.frozen.Store(true)

	kind := r.Method
	if websocket.IsWebSocketUpgrade(r) {
		kind = KindWebSocket
	}

	rw := &responseWriter{ResponseWriter: w}

	path := route.Normalize(r.URL.Path)
	node, params, ok := a.routes.resolve(path, kind)
	if !ok {
		a.record(rw, r, notFoundPattern, func(r *http.Request) {
			a.respondNotFound(rw, r)
		})
		return
	}

	bindKind := kind
	if node.isRaw {
		bindKind = KindRaw
	}
	b, ok := node.bindings[bindKind]
	if !ok {
		// A websocket handshake against an HTTP-only path, or a plain request
		// against a websocket-only path, is a 404: the websocket binding
		// space is separate, not a method to advertise.
		methods := node.methodBindings()
		if kind == KindWebSocket || len(methods) == 0 {
			a.record(rw, r, notFoundPattern, func(r *http.Request) {
				a.respondNotFound(rw, r)
			})
			return
		}
		a.record(rw, r, node.path, func(*http.Request) {
			a.respondMethodNotAllowed(rw, methods)
		})
		return
	}

	if len(params) > 0 {
		r = r.WithContext(withPathParams(r.Context(), params))
	}

	a.record(rw, r, node.path, func(r *http.Request) {
		b.stack.ServeHTTP(rw, r)
	})
}

// record invokes one dispatch outcome under the configured Recorder, if any.
func (a *App) record(rw *responseWriter, r *http.Request, pattern string, invoke func(*http.Request)) {
	if a.recorder == nil {
		invoke(r)
		return
	}

	ctx, state := a.recorder.RequestStart(r.Context(), r)
	if ctx != r.Context() {
		r = r.WithContext(ctx)
	}
	start := time.Now()
	invoke(r)
	a.recorder.RequestEnd(r.Context(), state, rw.StatusCode(), pattern, time.Since(start))
}

// respondNotFound answers an unmatched connection.
func (a *App) respondNotFound(w http.ResponseWriter, r *http.Request) {
	if a.notFound != nil {
		a.notFound.ServeHTTP(w, r)
		return
	}
	err := NotFoundError()
	writeJSONError(w, err.Status, err.Detail())
}

// respondMethodNotAllowed answers a matched path with no binding for the
// request method, advertising the methods that are bound.
func (a *App) respondMethodNotAllowed(w http.ResponseWriter, methods []string) {
	for _, m := range methods {
		w.Header().Add("Allow", m)
	}
	err := MethodNotAllowedError()
	writeJSONError(w, err.Status, err.Detail())
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// written size, and to suppress superfluous WriteHeader calls.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
	written    bool
}

// WriteHeader captures the status code and drops duplicate calls.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

// Write records the response size.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
	}
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// StatusCode returns the captured status code, defaulting to 200.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// Size returns the number of body bytes written.
func (rw *responseWriter) Size() int64 {
	return rw.size
}

// Written reports whether headers have been sent.
func (rw *responseWriter) Written() bool {
	return rw.written
}

// Flush implements http.Flusher when the underlying writer does.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker when the underlying writer does; WebSocket
// upgrades depend on it.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		rw.written = true
		return h.Hijack()
	}
	return nil, nil, ErrResponseWriterNotHijacker
}
