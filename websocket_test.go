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
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketEcho(t *testing.T) {
	app := MustNew()
	app.WebSocket("/ws/{room}", func(r *http.Request, conn *websocket.Conn) error {
		room, err := PathParams(r).String("room")
		if err != nil {
			return err
		}
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		return conn.WriteMessage(mt, []byte(room+": "+string(msg)))
	})

	srv := httptest.NewServer(app)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/lobby"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "lobby: hello", string(msg))
}

func TestWebSocketRouteIgnoresPlainGET(t *testing.T) {
	app := MustNew()
	app.WebSocket("/ws", func(r *http.Request, conn *websocket.Conn) error {
		return nil
	})

	// Without the upgrade handshake the websocket binding is invisible: 404,
	// never a 405 advertising nothing.
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		req := httptest.NewRequest(method, "/ws", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		assert.Empty(t, w.Result().Header.Values("Allow"), "method %s", method)
	}
}

func TestHTTPRouteRejectsUpgradeHandshake(t *testing.T) {
	app := MustNew()
	app.GET("/page", okHandler)

	srv := httptest.NewServer(app)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/page"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketAndHTTPShareAPath(t *testing.T) {
	app := MustNew()
	app.GET("/feed", func(w http.ResponseWriter, r *http.Request) error {
		_, err := w.Write([]byte("plain"))
		return err
	})
	app.WebSocket("/feed", func(r *http.Request, conn *websocket.Conn) error {
		return conn.WriteMessage(websocket.TextMessage, []byte("upgraded"))
	})

	srv := httptest.NewServer(app)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	conn, wsResp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer wsResp.Body.Close()
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "upgraded", string(msg))
}
