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

// Package starlite is an HTTP application framework built around a routing
// trie with typed path parameters and per-route middleware stacks composed
// once at registration.
//
// Routes declare parameters inline in the path template:
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
//
// Supported parameter types are str (the default), int, float, uuid, date
// and path; a path parameter consumes the entire remaining request path and
// must be the last component. A segment whose value fails coercion does not
// match the route at all, so /users/abc against /users/{id:int} is a 404,
// not a 400.
//
// Handlers return errors instead of writing error responses by hand. An
// *HTTPError controls the status of the translated JSON response; any other
// error becomes a 500. Translation is customizable per application, group
// and route through ErrorHandlers, with the closest registration winning.
//
// Parameter-free routes bypass trie descent entirely, and every route's
// middleware chain is composed exactly once at registration. The route table
// freezes when the first connection is dispatched; from then on it is shared
// by all connections without locking.
//
// Beyond plain HTTP routes the dispatcher handles WebSocket routes
// (upgraded after the middleware stack runs), mounted sub-applications
// (Mount), static file trees (Static, StaticFS) and raw catch-all routes
// (Any).
package starlite
