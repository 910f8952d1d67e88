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

// Package allowedhosts rejects requests whose Host header is not on a
// configured allow-list. It sits near the outermost edge of a route's
// middleware stack so rejections short-circuit before deeper layers run.
package allowedhosts

import (
	"net"
	"net/http"
	"strings"
)

// Config holds the allow-list configuration.
type Config struct {
	// Hosts lists acceptable Host header values. A "*.domain" entry accepts
	// any subdomain of domain (but not domain itself); "*" accepts
	// everything.
	Hosts []string
}

// New returns the host-filtering layer. Hostnames are compared
// case-insensitively and without the port.
//
// Example:
//
//	layer := allowedhosts.New(allowedhosts.Config{
//	    Hosts: []string{"example.com", "*.example.com"},
//	})
func New(cfg Config) func(next http.Handler) http.Handler {
	exact := make(map[string]struct{}, len(cfg.Hosts))
	var suffixes []string
	allowAll := false

	for _, h := range cfg.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case h == "*":
			allowAll = true
		case strings.HasPrefix(h, "*."):
			suffixes = append(suffixes, h[1:]) // keep the leading dot
		default:
			exact[h] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowAll || allowed(hostname(r), exact, suffixes) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status_code":400,"detail":"invalid host header"}`))
		})
	}
}

// hostname extracts the lowercase host without the port.
func hostname(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

func allowed(host string, exact map[string]struct{}, suffixes []string) bool {
	if _, ok := exact[host]; ok {
		return true
	}
	for _, suffix := range suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
