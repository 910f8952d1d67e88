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

package route

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTemplate indicates a malformed path template, e.g. unbalanced
	// braces, an empty parameter name or an unknown type annotation.
	ErrInvalidTemplate = errors.New("invalid path template")

	// ErrDuplicateParam indicates that a template declares the same parameter
	// name twice.
	ErrDuplicateParam = errors.New("duplicate path parameter")

	// ErrParamCoercion indicates that a path segment could not be converted
	// to a parameter's declared type.
	ErrParamCoercion = errors.New("path parameter coercion failed")
)

// Kind identifies which connection kind a route serves.
type Kind uint8

const (
	// KindHTTP routes bind one or more HTTP methods, each to the same handler.
	KindHTTP Kind = iota

	// KindWebSocket routes bind a single WebSocket handler.
	KindWebSocket

	// KindRaw routes bind one handler that serves every method and protocol,
	// typically a mounted sub-application or static file tree.
	KindRaw
)

// Component is one element of a decomposed path template: either a literal
// segment (Param == nil) or a parameter placeholder.
type Component struct {
	Literal string
	Param   *ParamDef
}

// Route describes a single registered path, decomposed and validated.
// Parsing happens exactly once, at registration; the routing trie consumes
// the component list and never re-parses the template.
type Route struct {
	// Path is the normalized template, e.g. "/users/{id:int}".
	Path string

	// Components is the decomposed template in traversal order.
	Components []Component

	// Params lists the declared parameters in left-to-right order.
	// Params[i].Index == i.
	Params []ParamDef

	// Methods holds the bound HTTP methods for KindHTTP routes.
	Methods []string

	// Kind is the connection kind this route serves.
	Kind Kind

	// IsMount marks a route whose node delegates the entire sub-path space
	// beneath it to a raw handler.
	IsMount bool

	// IsStatic marks a mount that serves a static file tree. Path segments
	// beyond a static mount are file paths, never trie keys.
	IsStatic bool
}

// New parses a path template and returns the decomposed route.
//
// Template syntax follows "{name}" and "{name:type}" placeholders between
// literal segments:
//
//	/users/{id:int}
//	/files/{rest:path}
//	/orgs/{org}/repos/{repo}
//
// Supported types: str (default), int, float, uuid, date, path. A "path"
// parameter consumes the rest of the request path and must be the final
// component. Mount routes may not declare parameters.
func New(kind Kind, path string, methods []string) (*Route, error) {
	normalized := Normalize(path)

	components, params, err := parseTemplate(normalized)
	if err != nil {
		return nil, err
	}

	return &Route{
		Path:       normalized,
		Components: components,
		Params:     params,
		Methods:    methods,
		Kind:       kind,
	}, nil
}

// NewMount parses a mount route rooted at path. Mount paths are literal only.
func NewMount(path string, static bool) (*Route, error) {
	rt, err := New(KindRaw, path, nil)
	if err != nil {
		return nil, err
	}
	if len(rt.Params) > 0 {
		return nil, fmt.Errorf("%w: mount path %q may not declare parameters", ErrInvalidTemplate, path)
	}

	rt.IsMount = true
	rt.IsStatic = static
	return rt, nil
}

// Normalize ensures a leading slash and strips a trailing slash (except for
// the root path itself).
func Normalize(path string) string {
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// parseTemplate decomposes a normalized template into components and
// parameter definitions, validating as it goes.
func parseTemplate(path string) ([]Component, []ParamDef, error) {
	if path == "/" {
		return nil, nil, nil
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	components := make([]Component, 0, len(segments))
	seen := make(map[string]struct{})

	// params must not be reallocated after a Component captures a pointer
	// into it; size it for the worst case up front.
	params := make([]ParamDef, 0, len(segments))

	for i, segment := range segments {
		if segment == "" {
			return nil, nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidTemplate, path)
		}

		if !strings.HasPrefix(segment, "{") {
			if strings.ContainsAny(segment, "{}") {
				return nil, nil, fmt.Errorf("%w: stray brace in segment %q", ErrInvalidTemplate, segment)
			}
			components = append(components, Component{Literal: segment})
			continue
		}

		if !strings.HasSuffix(segment, "}") {
			return nil, nil, fmt.Errorf("%w: unterminated placeholder %q", ErrInvalidTemplate, segment)
		}

		def, err := parseParam(segment[1 : len(segment)-1])
		if err != nil {
			return nil, nil, err
		}
		if _, dup := seen[def.Name]; dup {
			return nil, nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, def.Name, path)
		}
		if def.Type == ParamPath && i != len(segments)-1 {
			return nil, nil, fmt.Errorf("%w: path parameter %q must be the final segment", ErrInvalidTemplate, def.Name)
		}

		seen[def.Name] = struct{}{}
		def.Index = len(params)
		params = append(params, def)
		components = append(components, Component{Param: &params[len(params)-1]})
	}

	return components, params, nil
}

// parseParam parses the inside of a "{...}" placeholder.
func parseParam(placeholder string) (ParamDef, error) {
	name, typeName, hasType := strings.Cut(placeholder, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return ParamDef{}, fmt.Errorf("%w: empty parameter name in {%s}", ErrInvalidTemplate, placeholder)
	}

	def := ParamDef{Name: name, Type: ParamString}
	if hasType {
		t, ok := paramTypeNames[strings.TrimSpace(typeName)]
		if !ok {
			return ParamDef{}, fmt.Errorf("%w: unknown parameter type %q for %q", ErrInvalidTemplate, typeName, name)
		}
		def.Type = t
	}
	return def, nil
}
