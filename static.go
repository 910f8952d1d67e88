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
	"io/fs"
	"net/http"

	"github.com/ekeric13/starlite/route"
)

// Static serves the files under dir at the given path prefix. The route is a
// static mount: the remaining path after the prefix names a file, never a
// deeper route, so registrations below a static mount are unreachable.
//
// Directory traversal is handled by http.FileServer, which rejects paths
// escaping the root.
//
// Example:
//
//	app.Static("/assets", "./public")
func (a *App) Static(path, dir string, opts ...RouteOption) {
	a.staticMount(path, http.FileServer(http.Dir(dir)), opts)
}

// StaticFS is Static over an fs.FS, typically an embed.FS.
//
// Example:
//
//	//go:embed public
//	var public embed.FS
//
//	sub, _ := fs.Sub(public, "public")
//	app.StaticFS("/assets", sub)
func (a *App) StaticFS(path string, fsys fs.FS, opts ...RouteOption) {
	a.staticMount(path, http.FileServer(http.FS(fsys)), opts)
}

func (a *App) staticMount(path string, files http.Handler, opts []RouteOption) {
	rt, err := route.NewMount(path, true)
	if err != nil {
		panic(fmt.Sprintf("starlite: %v", err))
	}
	a.register(rt, files, opts)
}
