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

package compression

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveText(t *testing.T, layer func(http.Handler) http.Handler, acceptEncoding, body string) *httptest.ResponseRecorder {
	t.Helper()

	handler := layer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func gunzip(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := gzip.NewReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestGzipRoundTrip(t *testing.T) {
	body := strings.Repeat("compressible ", 100)
	w := serveText(t, New(), "gzip", body)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
	assert.Equal(t, body, gunzip(t, w.Body.Bytes()))
}

func TestBrotliPreferred(t *testing.T) {
	body := strings.Repeat("compressible ", 100)
	w := serveText(t, New(), "gzip, br", body)

	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))

	out, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, body, string(out))
}

func TestQValuesRespected(t *testing.T) {
	body := strings.Repeat("x", 512)

	// gzip outranks br here.
	w := serveText(t, New(), "br;q=0.5, gzip;q=0.9", body)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	// Both refused.
	w = serveText(t, New(), "br;q=0, gzip;q=0", body)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, body, w.Body.String())
}

func TestNoAcceptEncodingPassesThrough(t *testing.T) {
	w := serveText(t, New(), "", "plain body")

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "plain body", w.Body.String())
}

func TestMinSizeThreshold(t *testing.T) {
	layer := New(WithMinSize(100))

	// Below the threshold: passed through unchanged.
	w := serveText(t, layer, "gzip", "tiny")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "tiny", w.Body.String())

	// At or above: compressed.
	big := strings.Repeat("a", 200)
	w = serveText(t, layer, "gzip", big)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, big, gunzip(t, w.Body.Bytes()))
}

func TestExcludedPath(t *testing.T) {
	layer := New(WithExcludePaths("/metrics"))
	handler := layer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("m", 300)))
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestExcludedContentType(t *testing.T) {
	layer := New(WithExcludeContentTypes("image/png"))
	handler := layer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Repeat("p", 300)))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestSkipNoContent(t *testing.T) {
	layer := New()
	handler := layer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestStatusCodePreserved(t *testing.T) {
	layer := New()
	handler := layer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(strings.Repeat("j", 300)))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestWithoutBrotliFallsBackToGzip(t *testing.T) {
	w := serveText(t, New(WithoutBrotli()), "br, gzip", strings.Repeat("y", 300))
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
