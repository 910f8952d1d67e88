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

// Package route parses and validates path templates into route descriptors.
//
// A descriptor decomposes a template such as "/users/{id:int}" into literal
// segments and typed parameter placeholders. The routing trie consumes the
// component list during insertion and the parameter list during lookup-time
// coercion; the template string itself is never re-parsed after registration.
//
// Malformed templates are reported as errors at registration so that route
// table construction fails at startup rather than at request time.
package route
