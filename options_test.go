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
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		err  error
	}{
		{"empty allowed hosts", WithAllowedHosts(), ErrNoAllowedHosts},
		{"empty csrf key", WithCSRF(nil), ErrMissingCSRFKey},
		{"zero timeout", WithServerTimeouts(0, time.Second, time.Second, time.Second), ErrServerTimeoutInvalid},
		{"negative timeout", WithServerTimeouts(time.Second, time.Second, -time.Second, time.Second), ErrServerTimeoutInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestMustNewPanicsOnInvalidOption(t *testing.T) {
	assert.Panics(t, func() { MustNew(WithAllowedHosts()) })
}

func TestWithLoggerNilKeepsDefault(t *testing.T) {
	app, err := New(WithLogger(nil))
	require.NoError(t, err)
	assert.Same(t, noopLogger, app.logger)

	custom := slog.New(slog.NewJSONHandler(io.Discard, nil))
	app, err = New(WithLogger(custom))
	require.NoError(t, err)
	assert.Same(t, custom, app.logger)
}

func TestDefaultTimeouts(t *testing.T) {
	app := MustNew()
	assert.Equal(t, 5*time.Second, app.timeouts.readHeader)
	assert.Equal(t, 60*time.Second, app.timeouts.idle)
}
