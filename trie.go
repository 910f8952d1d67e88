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
	"fmt"
	"net/http"
	"sort"

	"github.com/ekeric13/starlite/route"
)

// Connection kinds beyond plain HTTP methods. A node's binding table is keyed
// by HTTP method strings plus these two values.
const (
	// KindWebSocket keys the binding for WebSocket connections.
	KindWebSocket = "websocket"

	// KindRaw keys the binding for raw routes: handlers that serve every
	// method through a single entry point (mounted sub-applications and
	// static file trees).
	KindRaw = "raw"
)

// childKey addresses one child of a trie node. A literal segment and the
// shared parameter slot are distinct variants of the key space: parameter
// identity (name, type) is deliberately kept out of the trie and recovered
// from the route's own parameter list at the terminal node, so differently
// named parameters at the same depth collapse onto one child.
type childKey struct {
	segment string
	param   bool
}

// paramKey is the single key under which all parameter children live.
var paramKey = childKey{param: true}

func literalKey(segment string) childKey {
	return childKey{segment: segment}
}

// binding pairs the composed middleware stack for one connection kind with
// the original unwrapped handler. The stack is what the dispatcher invokes;
// the original handler is kept for introspection.
type binding struct {
	stack   http.Handler
	handler any
}

// trieNode is a single node of the routing trie.
//
// Nodes are created during startup route registration and are immutable once
// serving begins: lookups run concurrently against the shared structure
// without locking, and nothing is ever patched in place afterwards.
type trieNode struct {
	// children maps segment keys to child nodes. The paramKey variant is
	// shared by every parameter declared at this depth.
	children map[childKey]*trieNode

	// childKeys is a snapshot of children's key set, refreshed on insertion,
	// so traversal membership tests never rebuild it.
	childKeys map[childKey]struct{}

	// bindings maps a connection kind (HTTP method, "websocket", "raw") to
	// its cached handler stack.
	bindings map[string]binding

	// pathParams maps a connection kind to the ordered parameter definitions
	// needed to coerce the raw segments captured on the way down.
	pathParams map[string][]route.ParamDef

	// path is the full registered template terminating at this node.
	path string

	// isMount marks a node that delegates its entire sub-path space to a raw
	// handler. Children below a mount are never traversed once mount dispatch
	// takes over.
	isMount bool

	// isStaticMount marks a mount serving a static file tree; the remaining
	// path is a file path, not trie keys.
	isStaticMount bool

	// hasParamChild is true iff paramKey is present among children.
	hasParamChild bool

	// isGreedy marks a parameter node whose parameter consumes the whole
	// remaining path ({rest:path}).
	isGreedy bool

	// isRaw marks a node whose handler serves every method ("raw" binding).
	isRaw bool
}

func newTrieNode() *trieNode {
	return &trieNode{
		children:   make(map[childKey]*trieNode),
		childKeys:  make(map[childKey]struct{}),
		bindings:   make(map[string]binding),
		pathParams: make(map[string][]route.ParamDef),
	}
}

// refreshChildKeys re-snapshots the key set after an insertion.
func (n *trieNode) refreshChildKeys() {
	n.childKeys = make(map[childKey]struct{}, len(n.children))
	for k := range n.children {
		n.childKeys[k] = struct{}{}
	}
}

// methodBindings returns the node's bound HTTP methods, sorted. WebSocket and
// raw bindings are not methods and are excluded.
func (n *trieNode) methodBindings() []string {
	methods := make([]string, 0, len(n.bindings))
	for kind := range n.bindings {
		if kind != KindWebSocket && kind != KindRaw {
			methods = append(methods, kind)
		}
	}
	sort.Strings(methods)
	return methods
}

// routeMap owns the trie root and the two auxiliary indexes: plainRoutes
// (parameter-free full paths, matched without segment splitting) and
// mountRoutes (mount path -> node, for prefix fallback).
//
// The whole structure is built single-threaded at startup and read-only
// thereafter; a changed route table means a wholesale rebuild, never an
// in-place patch.
type routeMap struct {
	root        *trieNode
	plainRoutes map[string]struct{}
	mountRoutes map[string]*trieNode
}

func newRouteMap() *routeMap {
	return &routeMap{
		root:        newTrieNode(),
		plainRoutes: make(map[string]struct{}),
		mountRoutes: make(map[string]*trieNode),
	}
}

// insert adds one registered route to the trie and returns its terminal node.
//
// Three insertion shapes:
//   - mounts walk their literal components and are additionally flattened
//     under the root by full path, so mount lookup needs no per-segment walk;
//   - parameter-free paths are flattened under the root by full path and
//     recorded in plainRoutes for the O(1) fast path;
//   - parameterized paths descend component by component, parameter
//     components sharing the single paramKey child at each depth.
//
// Conflicting registrations panic: route table construction is a startup
// concern and must never defer failures to request time.
func (m *routeMap) insert(app *App, reg *registration) *trieNode {
	rt := reg.route

	var node *trieNode
	switch {
	case rt.IsMount:
		node = m.insertMount(rt)
	case len(rt.Params) == 0:
		node = m.insertPlain(rt)
	default:
		node = m.insertParameterized(rt)
	}

	m.configureNode(app, reg, node)
	return node
}

// insertMount adds a mount route. The node is reachable both segment by
// segment and directly from the root via its full path key.
func (m *routeMap) insertMount(rt *route.Route) *trieNode {
	fullKey := literalKey(rt.Path)

	current, ok := m.root.children[fullKey]
	if !ok {
		current = m.root
		for _, comp := range rt.Components {
			key := literalKey(comp.Literal)
			child, exists := current.children[key]
			if !exists {
				child = newTrieNode()
				current.children[key] = child
				current.refreshChildKeys()
			}
			current = child
		}
	}

	current.isMount = true
	current.isStaticMount = rt.IsStatic

	if rt.Path != "/" {
		m.root.children[fullKey] = current
		m.root.refreshChildKeys()
	}
	m.mountRoutes[rt.Path] = current

	return current
}

// insertPlain flattens a parameter-free path into a direct child of the root
// keyed by the entire path string, bypassing segment descent on lookup.
func (m *routeMap) insertPlain(rt *route.Route) *trieNode {
	m.plainRoutes[rt.Path] = struct{}{}

	key := literalKey(rt.Path)
	node, ok := m.root.children[key]
	if !ok {
		node = newTrieNode()
		m.root.children[key] = node
		m.root.refreshChildKeys()
	}
	return node
}

// insertParameterized descends component by component, creating literal or
// shared-parameter children as needed.
func (m *routeMap) insertParameterized(rt *route.Route) *trieNode {
	current := m.root
	for _, comp := range rt.Components {
		key := literalKey(comp.Literal)
		if comp.Param != nil {
			current.hasParamChild = true
			key = paramKey
		}

		child, ok := current.children[key]
		if !ok {
			child = newTrieNode()
			current.children[key] = child
		}
		current.refreshChildKeys()
		current = child

		if comp.Param != nil && comp.Param.Type == route.ParamPath {
			current.isGreedy = true
		}
	}
	return current
}

// configureNode materializes the middleware stack for each connection kind
// the route declares and caches it on the terminal node, together with the
// ordered parameter metadata used for lookup-time coercion.
func (m *routeMap) configureNode(app *App, reg *registration, node *trieNode) {
	rt := reg.route
	node.path = rt.Path

	// One registration means one handler, so the stack is composed once and
	// shared across every method the route declares.
	stack := app.buildStack(reg)

	bind := func(kind string) {
		if _, exists := node.bindings[kind]; exists {
			panic(fmt.Sprintf("starlite: conflicting route registration: %s %s", kind, rt.Path))
		}
		node.bindings[kind] = binding{stack: stack, handler: reg.handler}
		node.pathParams[kind] = rt.Params
	}

	switch rt.Kind {
	case route.KindHTTP:
		for _, method := range rt.Methods {
			bind(method)
		}
	case route.KindWebSocket:
		bind(KindWebSocket)
	case route.KindRaw:
		bind(KindRaw)
		node.isRaw = true
	}
}
