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
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticServesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "app.js"), []byte("void 0"), 0o644))

	app := MustNew()
	app.Static("/assets", dir)

	req := httptest.NewRequest(http.MethodGet, "/assets/app.css", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/assets/js/app.js", nil)
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "void 0", w.Body.String())
}

func TestStaticMissingFileIs404(t *testing.T) {
	app := MustNew()
	app.Static("/assets", t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/assets/nope.css", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticFS(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<h1>hi</h1>")},
		"style.css":  &fstest.MapFile{Data: []byte("body{}")},
	}

	app := MustNew()
	app.StaticFS("/public", fsys)

	// Directory requests serve the index file.
	req := httptest.NewRequest(http.MethodGet, "/public/", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<h1>hi</h1>", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/public/style.css", nil)
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	// Explicit index.html URLs get http.FileServer's canonical redirect to
	// the directory.
	req = httptest.NewRequest(http.MethodGet, "/public/index.html", nil)
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "./", w.Header().Get("Location"))
}

func TestStaticPathWithParamsPanics(t *testing.T) {
	app := MustNew()
	assert.Panics(t, func() { app.Static("/assets/{v}", t.TempDir()) })
}

func TestStaticShadowsDeeperRoutes(t *testing.T) {
	// A static mount owns its whole sub-path space; the remaining path is a
	// file path, never a route.
	app := MustNew()
	app.Static("/assets", t.TempDir())
	app.GET("/assets-admin", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/assets/anything/below", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/assets-admin", nil)
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
