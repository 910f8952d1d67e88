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
	"net/http"
	"strings"
)

// Group registers routes under a shared path prefix with shared middleware
// and error handlers. Groups nest; each level contributes its prefix and
// layers to the routes registered beneath it.
//
// A group is a registration-time convenience only. It leaves no trace in the
// routing trie: routes registered through a group are indistinguishable from
// routes registered with their full path directly on the application.
//
// Example:
//
//	api := app.Group("/api/v1", starlite.WithRouteMiddleware(auth))
//	api.GET("/users/{id:int}", getUser)
//	admin := api.Group("/admin")
//	admin.DELETE("/users/{id:int}", deleteUser)
type Group struct {
	app           *App
	prefix        string
	middleware    []Middleware
	errorHandlers *ErrorHandlers
}

// Group creates a route group under prefix. Options apply to every route
// registered through the group.
func (a *App) Group(prefix string, opts ...RouteOption) *Group {
	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Group{
		app:           a,
		prefix:        strings.TrimSuffix(prefix, "/"),
		middleware:    cfg.middleware,
		errorHandlers: cfg.errorHandlers,
	}
}

// Group creates a nested group. The child inherits this group's prefix,
// middleware and error handlers, with the child's own layered on top.
func (g *Group) Group(prefix string, opts ...RouteOption) *Group {
	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	middleware := make([]Middleware, 0, len(g.middleware)+len(cfg.middleware))
	middleware = append(middleware, g.middleware...)
	middleware = append(middleware, cfg.middleware...)

	handlers := g.errorHandlers
	if cfg.errorHandlers != nil {
		handlers = g.errorHandlers.merge(cfg.errorHandlers)
	}

	return &Group{
		app:           g.app,
		prefix:        g.prefix + strings.TrimSuffix(prefix, "/"),
		middleware:    middleware,
		errorHandlers: handlers,
	}
}

// Use appends middleware applied to routes registered through the group from
// this point on. Routes already registered are unaffected.
func (g *Group) Use(mw ...Middleware) {
	g.app.checkMutable()
	g.middleware = append(g.middleware, mw...)
}

// Handle registers an HTTP route under the group prefix.
func (g *Group) Handle(methods []string, path string, fn HandlerFunc, opts ...RouteOption) {
	g.app.Handle(methods, g.join(path), fn, g.layer(opts)...)
}

// GET registers a route for GET requests under the group prefix.
func (g *Group) GET(path string, fn HandlerFunc, opts ...RouteOption) {
	g.Handle([]string{http.MethodGet}, path, fn, opts...)
}

// POST registers a route for POST requests under the group prefix.
func (g *Group) POST(path string, fn HandlerFunc, opts ...RouteOption) {
	g.Handle([]string{http.MethodPost}, path, fn, opts...)
}

// PUT registers a route for PUT requests under the group prefix.
func (g *Group) PUT(path string, fn HandlerFunc, opts ...RouteOption) {
	g.Handle([]string{http.MethodPut}, path, fn, opts...)
}

// PATCH registers a route for PATCH requests under the group prefix.
func (g *Group) PATCH(path string, fn HandlerFunc, opts ...RouteOption) {
	g.Handle([]string{http.MethodPatch}, path, fn, opts...)
}

// DELETE registers a route for DELETE requests under the group prefix.
func (g *Group) DELETE(path string, fn HandlerFunc, opts ...RouteOption) {
	g.Handle([]string{http.MethodDelete}, path, fn, opts...)
}

// HEAD registers a route for HEAD requests under the group prefix.
func (g *Group) HEAD(path string, fn HandlerFunc, opts ...RouteOption) {
	g.Handle([]string{http.MethodHead}, path, fn, opts...)
}

// OPTIONS registers a route for OPTIONS requests under the group prefix.
func (g *Group) OPTIONS(path string, fn HandlerFunc, opts ...RouteOption) {
	g.Handle([]string{http.MethodOptions}, path, fn, opts...)
}

// WebSocket registers a WebSocket route under the group prefix.
func (g *Group) WebSocket(path string, fn WebSocketHandlerFunc, opts ...RouteOption) {
	g.app.WebSocket(g.join(path), fn, g.layer(opts)...)
}

// Any registers a raw route under the group prefix.
func (g *Group) Any(path string, h http.Handler, opts ...RouteOption) {
	g.app.Any(g.join(path), h, g.layer(opts)...)
}

// Mount delegates a sub-path space under the group prefix.
func (g *Group) Mount(path string, h http.Handler, opts ...RouteOption) {
	g.app.Mount(g.join(path), h, g.layer(opts)...)
}

// Static serves a directory tree under the group prefix.
func (g *Group) Static(path, dir string, opts ...RouteOption) {
	g.app.Static(g.join(path), dir, g.layer(opts)...)
}

// join prepends the group prefix to a route path.
func (g *Group) join(path string) string {
	if path == "/" || path == "" {
		return g.prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.prefix + path
}

// layer appends the group's contribution after the route's own options, so
// the finalizer sees the route-level configuration and can place the group's
// middleware outside it and its error handlers beneath it.
func (g *Group) layer(opts []RouteOption) []RouteOption {
	finalize := func(cfg *routeConfig) {
		if len(g.middleware) > 0 {
			merged := make([]Middleware, 0, len(g.middleware)+len(cfg.middleware))
			merged = append(merged, g.middleware...)
			merged = append(merged, cfg.middleware...)
			cfg.middleware = merged
		}
		if g.errorHandlers != nil {
			cfg.errorHandlers = g.errorHandlers.merge(cfg.errorHandlers)
		}
	}
	return append(append([]RouteOption{}, opts...), finalize)
}
