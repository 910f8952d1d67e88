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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tracer appends its name on the way in, so the recorded sequence is the
// outermost-first layer order.
func tracer(name string, log *[]string) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*log = append(*log, name)
			next.ServeHTTP(w, r)
		})
	})
}

func TestStackMiddlewareOrder(t *testing.T) {
	var log []string

	app := MustNew()
	app.Use(tracer("app1", &log), tracer("app2", &log))
	app.GET("/x", func(w http.ResponseWriter, r *http.Request) error {
		log = append(log, "handler")
		return nil
	}, WithRouteMiddleware(tracer("route1", &log), tracer("route2", &log)))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	app.ServeHTTP(httptest.NewRecorder(), req)

	// First declared runs outermost; application middleware precedes route
	// middleware.
	assert.Equal(t, []string{"app1", "app2", "route1", "route2", "handler"}, log)
}

func TestStackFrameworkLayersOutsideUserMiddleware(t *testing.T) {
	var log []string

	app := MustNew(WithAllowedHosts("example.com"))
	app.GET("/x", func(w http.ResponseWriter, r *http.Request) error {
		log = append(log, "handler")
		return nil
	}, WithRouteMiddleware(tracer("user", &log)))

	// A rejected host must never reach user middleware: the allow-list layer
	// sits outside the user block.
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Host = "evil.com"
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, log)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Host = "example.com"
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user", "handler"}, log)
}

func TestStackBuiltOncePerRoute(t *testing.T) {
	builds := 0
	app := MustNew()
	app.Handle([]string{http.MethodGet, http.MethodPost, http.MethodPut}, "/multi",
		okHandler,
		WithRouteMiddleware(MiddlewareFunc(func(next http.Handler) http.Handler {
			builds++
			return next
		})),
	)

	// Composition happens at registration, once for the whole registration
	// regardless of how many methods it binds, and never per request.
	assert.Equal(t, 1, builds)

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/multi", nil)
		app.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 1, builds)
}

func TestStackMiddlewareErrorTranslatedByRouteHandlers(t *testing.T) {
	handled := false
	handlers := NewErrorHandlers().OnStatus(http.StatusPaymentRequired,
		func(w http.ResponseWriter, r *http.Request, err error) {
			handled = true
			w.WriteHeader(http.StatusPaymentRequired)
		})

	failing := MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(NewHTTPError(http.StatusPaymentRequired, "pay up"))
		})
	})

	app := MustNew()
	app.GET("/paid", okHandler,
		WithRouteMiddleware(failing),
		WithRouteErrorHandlers(handlers),
	)

	// The failure originates in route middleware, above the inner translation
	// layer; the outer layer must still apply the route's own registrations.
	req := httptest.NewRequest(http.MethodGet, "/paid", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	require.True(t, handled)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestStackCSRFRejectsUnsafeMethodsBeforeUserMiddleware(t *testing.T) {
	var log []string

	key := []byte("01234567890123456789012345678901")
	app := MustNew(WithCSRF(key))
	app.POST("/transfer", func(w http.ResponseWriter, r *http.Request) error {
		log = append(log, "handler")
		return nil
	}, WithRouteMiddleware(tracer("user", &log)))
	app.GET("/form", okHandler)

	// POST without a token never reaches the user block.
	req := httptest.NewRequest(http.MethodPost, "/transfer", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, log)

	// Safe methods pass.
	req = httptest.NewRequest(http.MethodGet, "/form", nil)
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStackLateRegistrationsDoNotAffectEarlierRoutes(t *testing.T) {
	var log []string

	app := MustNew()
	app.GET("/early", func(w http.ResponseWriter, r *http.Request) error {
		log = append(log, "early")
		return nil
	})
	app.Use(tracer("late-mw", &log))
	app.GET("/late", func(w http.ResponseWriter, r *http.Request) error {
		log = append(log, "late")
		return nil
	})

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/early", nil))
	assert.Equal(t, []string{"early"}, log)

	log = nil
	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/late", nil))
	assert.Equal(t, []string{"late-mw", "late"}, log)
}
