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

// Package compression compresses HTTP response bodies with gzip or Brotli,
// negotiated from the Accept-Encoding header with q-value support.
package compression

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Option configures the compression layer.
type Option func(*config)

type config struct {
	gzipLevel    int
	brotliLevel  int
	minSize      int
	enableGzip   bool
	enableBrotli bool

	excludePaths        map[string]bool
	excludeContentTypes map[string]bool
}

func defaultConfig() *config {
	return &config{
		gzipLevel:           gzip.DefaultCompression,
		brotliLevel:         4, // conservative for dynamic content
		enableGzip:          true,
		enableBrotli:        true,
		excludePaths:        make(map[string]bool),
		excludeContentTypes: make(map[string]bool),
	}
}

// WithGzipLevel sets the gzip compression level (gzip.BestSpeed..gzip.BestCompression).
func WithGzipLevel(level int) Option {
	return func(c *config) { c.gzipLevel = level }
}

// WithBrotliLevel sets the Brotli compression level (0-11).
func WithBrotliLevel(level int) Option {
	return func(c *config) { c.brotliLevel = level }
}

// WithMinSize sets the minimum body size, in bytes, below which responses are
// sent uncompressed. Responses are buffered up to this threshold before the
// encoding decision is made.
func WithMinSize(n int) Option {
	return func(c *config) { c.minSize = n }
}

// WithoutBrotli disables Brotli, leaving gzip only.
func WithoutBrotli() Option {
	return func(c *config) { c.enableBrotli = false }
}

// WithExcludePaths exempts exact request paths from compression.
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.excludePaths[p] = true
		}
	}
}

// WithExcludeContentTypes exempts responses whose Content-Type contains one
// of the given values.
func WithExcludeContentTypes(types ...string) Option {
	return func(c *config) {
		for _, t := range types {
			c.excludeContentTypes[strings.ToLower(t)] = true
		}
	}
}

// New returns the compression layer.
//
// Example:
//
//	layer := compression.New(
//	    compression.WithMinSize(1024),
//	    compression.WithExcludePaths("/metrics"),
//	)
func New(opts ...Option) func(next http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.excludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}

			encoding := chooseEncoding(r.Header.Get("Accept-Encoding"), cfg)
			if encoding == "" {
				next.ServeHTTP(w, r)
				return
			}

			var buf []byte
			if cfg.minSize > 0 {
				buf = make([]byte, 0, cfg.minSize)
			}
			cw := &compressWriter{
				ResponseWriter:      w,
				encoding:            encoding,
				threshold:           cfg.minSize,
				buffer:              buf,
				pool:                writerPool(encoding, cfg),
				excludeContentTypes: cfg.excludeContentTypes,
			}

			next.ServeHTTP(cw, r)
			_ = cw.Close()
		})
	}
}

// chooseEncoding picks the best supported encoding from Accept-Encoding,
// preferring Brotli over gzip at equal quality.
func chooseEncoding(acceptEncoding string, cfg *config) string {
	if acceptEncoding == "" {
		return ""
	}
	ae := strings.ToLower(acceptEncoding)

	brQ := parseQValue(ae, "br")
	gzipQ := parseQValue(ae, "gzip")
	if brQ <= 0 && gzipQ <= 0 {
		return ""
	}

	if cfg.enableBrotli && brQ > 0 && brQ >= gzipQ {
		return "br"
	}
	if cfg.enableGzip && gzipQ > 0 {
		return "gzip"
	}
	return ""
}

// parseQValue returns -1 when the encoding is absent, otherwise its quality.
func parseQValue(accept, encoding string) float64 {
	idx := strings.Index(accept, encoding)
	if idx < 0 {
		return -1
	}

	qIdx := strings.Index(accept[idx:], "q=")
	if qIdx < 0 {
		return 1.0
	}

	qStart := idx + qIdx + 2
	end := strings.IndexAny(accept[qStart:], ",;")
	if end < 0 {
		end = len(accept) - qStart
	}

	q, err := strconv.ParseFloat(strings.TrimSpace(accept[qStart:qStart+end]), 64)
	if err != nil {
		return 1.0
	}
	return q
}

// compressWriter buffers writes up to the threshold before deciding whether
// the response is worth compressing.
type compressWriter struct {
	http.ResponseWriter
	writer              io.WriteCloser
	pool                *sync.Pool
	encoding            string
	excludeContentTypes map[string]bool
	threshold           int

	buffer      []byte
	headersSent bool
	statusCode  int
	decided     bool
	compress    bool
}

func (cw *compressWriter) Write(data []byte) (int, error) {
	if cw.decided {
		if cw.compress {
			return cw.writer.Write(data)
		}
		return cw.ResponseWriter.Write(data)
	}

	if cw.threshold == 0 {
		cw.decided = true
		cw.compress = true
		cw.initCompression()
		return cw.writer.Write(data)
	}

	originalLen := len(data)
	if space := cap(cw.buffer) - len(cw.buffer); space > 0 {
		n := min(space, len(data))
		cw.buffer = append(cw.buffer, data[:n]...)
		data = data[n:]
	}

	if len(cw.buffer) >= cw.threshold || len(data) > 0 {
		cw.decided = true
		cw.compress = len(cw.buffer) >= cw.threshold
		if cw.compress {
			cw.initCompression()
			return cw.flushBufferAndWrite(cw.writer, data)
		}
		if !cw.headersSent {
			cw.sendHeaders()
		}
		return cw.flushBufferAndWrite(cw.ResponseWriter, data)
	}

	return originalLen, nil
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.headersSent {
		return
	}
	cw.statusCode = code

	if skipStatus(code) || skipContentType(cw.Header().Get("Content-Type"), cw.excludeContentTypes) {
		cw.compress = false
		cw.decided = true
		cw.sendHeaders()
		return
	}
	// Hold the header write until the compression decision is made.
}

func (cw *compressWriter) sendHeaders() {
	code := cw.statusCode
	if code == 0 {
		code = http.StatusOK
	}
	cw.ResponseWriter.WriteHeader(code)
	cw.headersSent = true
}

// initCompression sets the encoding headers and pulls a writer from the pool.
func (cw *compressWriter) initCompression() {
	cw.Header().Del("Content-Length")
	cw.Header().Set("Content-Encoding", cw.encoding)
	cw.Header().Set("Vary", "Accept-Encoding")
	if !cw.headersSent {
		cw.sendHeaders()
	}

	switch cw.encoding {
	case "br":
		w := cw.pool.Get().(*brotli.Writer)
		w.Reset(cw.ResponseWriter)
		cw.writer = w
	case "gzip":
		w := cw.pool.Get().(*gzip.Writer)
		w.Reset(cw.ResponseWriter)
		cw.writer = w
	}
}

func (cw *compressWriter) flushBufferAndWrite(w io.Writer, data []byte) (int, error) {
	written := 0
	if len(cw.buffer) > 0 {
		n, err := w.Write(cw.buffer)
		written += n
		if err != nil {
			return written, err
		}
	}
	if len(data) > 0 {
		n, err := w.Write(data)
		written += n
		return written, err
	}
	return written, nil
}

// Close flushes any undecided buffered body and returns pooled writers.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		// Small response below the threshold: send as-is.
		cw.decided = true
		if !cw.headersSent {
			cw.sendHeaders()
		}
		if len(cw.buffer) > 0 {
			_, _ = cw.ResponseWriter.Write(cw.buffer)
		}
		return nil
	}

	if cw.compress && cw.writer != nil {
		err := cw.writer.Close()
		switch w := cw.writer.(type) {
		case *brotli.Writer:
			w.Reset(io.Discard)
		case *gzip.Writer:
			w.Reset(io.Discard)
		}
		cw.pool.Put(cw.writer)
		return err
	}
	return nil
}

// Flush forwards http.Flusher when the response is not being buffered.
func (cw *compressWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok && cw.decided {
		f.Flush()
	}
}

func skipStatus(code int) bool {
	return code == http.StatusNoContent ||
		code == http.StatusNotModified ||
		code == http.StatusPartialContent
}

func skipContentType(ct string, excludes map[string]bool) bool {
	if ct == "" {
		return false
	}
	ctLower := strings.ToLower(ct)
	if strings.Contains(ctLower, "text/event-stream") ||
		strings.Contains(ctLower, "application/octet-stream") {
		return true
	}
	for excluded := range excludes {
		if strings.Contains(ctLower, excluded) {
			return true
		}
	}
	return false
}

// Writer pools, one per encoding and level.
var (
	gzipPools   = make(map[int]*sync.Pool)
	brotliPools = make(map[int]*sync.Pool)
	poolsMu     sync.Mutex
)

func writerPool(encoding string, cfg *config) *sync.Pool {
	poolsMu.Lock()
	defer poolsMu.Unlock()

	switch encoding {
	case "br":
		pool, ok := brotliPools[cfg.brotliLevel]
		if !ok {
			level := cfg.brotliLevel
			pool = &sync.Pool{New: func() any {
				return brotli.NewWriterLevel(io.Discard, level)
			}}
			brotliPools[level] = pool
		}
		return pool
	default:
		pool, ok := gzipPools[cfg.gzipLevel]
		if !ok {
			level := cfg.gzipLevel
			pool = &sync.Pool{New: func() any {
				w, _ := gzip.NewWriterLevel(io.Discard, level)
				return w
			}}
			gzipPools[level] = pool
		}
		return pool
	}
}
