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

import "strings"

// resolve walks the trie for a request path and connection kind and returns
// the terminal node together with the typed parameter bindings.
//
// The method is side-effect free and safe for unbounded concurrent use: the
// trie is immutable once serving begins and resolution allocates only for the
// captured parameter values.
//
// Lookup order:
//  1. Fast path: parameter-free routes and flattened mounts sit directly
//     under the root keyed by the full path, so the common case pays for a
//     single map access and no segment splitting.
//  2. Segment descent, preferring a literal child over the parameter child at
//     every depth; raw segments captured under parameter children in
//     left-to-right order.
//  3. A greedy parameter node consumes the remaining path as one value.
//  4. A dead end falls back to the longest registered mount prefix; the
//     sub-path beyond the mount is opaque to the trie.
//  5. Captured raw values are coerced against the terminal node's parameter
//     metadata for the requested kind; coercion failure is a no-match, never
//     an error.
func (m *routeMap) resolve(path, kind string) (*trieNode, Params, bool) {
	if path == "" {
		path = "/"
	}

	// Fast path: exact full-path child of the root (plain routes and
	// flattened mounts).
	if node, ok := m.root.children[literalKey(path)]; ok {
		return m.finish(node, kind, nil, nil)
	}
	if path == "/" {
		if node, ok := m.mountRoutes["/"]; ok {
			return m.finish(node, kind, nil, nil)
		}
		return nil, nil, false
	}

	node, raw, ok := m.traverse(path)
	if !ok {
		return nil, nil, false
	}
	return m.finish(node, kind, raw, nil)
}

// traverse performs the per-segment descent, returning the terminal node and
// the raw parameter values captured along the way.
func (m *routeMap) traverse(path string) (*trieNode, []string, bool) {
	current := m.root
	var raw []string

	// Manual segment scan; splitting the path up front would allocate a
	// slice per lookup.
	start := 0
	if path[0] == '/' {
		start = 1
	}
	pathLen := len(path)

	for start < pathLen {
		end := start
		for end < pathLen && path[end] != '/' {
			end++
		}
		segment := path[start:end]

		if _, ok := current.childKeys[literalKey(segment)]; ok {
			// Literal children always win over the parameter slot at the
			// same depth.
			current = current.children[literalKey(segment)]
		} else if current.hasParamChild {
			child := current.children[paramKey]
			if child.isGreedy {
				raw = append(raw, path[start:])
				return child, raw, true
			}
			raw = append(raw, segment)
			current = child
		} else {
			return m.mountFallback(path)
		}

		if current.isMount {
			// Everything below a mount belongs to the mounted handler, not
			// the trie. A longer mount may be registered beneath this one and
			// the walk cannot see it, so pick the longest prefix instead of
			// the first node hit.
			return m.mountFallback(path)
		}

		start = end + 1
	}

	return current, raw, true
}

// mountFallback finds the longest registered mount path that prefixes the
// request path on a segment boundary.
func (m *routeMap) mountFallback(path string) (*trieNode, []string, bool) {
	var best string
	var node *trieNode

	for prefix, n := range m.mountRoutes {
		if len(prefix) < len(best) {
			continue
		}
		if prefix == "/" {
			if best == "" {
				best, node = prefix, n
			}
			continue
		}
		if strings.HasPrefix(path, prefix) && (len(path) == len(prefix) || path[len(prefix)] == '/') {
			best, node = prefix, n
		}
	}

	if node == nil {
		return nil, nil, false
	}
	return node, nil, true
}

// finish coerces the captured raw values against the terminal node's
// parameter metadata for the requested kind.
//
// A node with no bindings at all is an intermediate node, i.e. no match. A
// node that has bindings but none for this kind still resolves: the
// dispatcher distinguishes "method not allowed" from "not found" and needs
// the node to do so.
func (m *routeMap) finish(node *trieNode, kind string, raw []string, params Params) (*trieNode, Params, bool) {
	if node == nil || len(node.bindings) == 0 {
		return nil, nil, false
	}

	if node.isRaw {
		kind = KindRaw
	}

	defs, ok := node.pathParams[kind]
	if !ok {
		// Known shape, missing kind: resolves without typed values so the
		// dispatcher can answer 405 rather than 404.
		return node, nil, true
	}

	if len(defs) == 0 {
		return node, params, true
	}
	if len(raw) != len(defs) {
		return nil, nil, false
	}

	params = make(Params, len(defs))
	for i, def := range defs {
		value, err := def.Coerce(raw[i])
		if err != nil {
			// Matching shape, bad value: deliberately indistinguishable from
			// no matching shape.
			return nil, nil, false
		}
		params[def.Name] = value
	}
	return node, params, true
}
