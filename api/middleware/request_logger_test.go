// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nodepool/log"
)

// mockLogger keeps the attributes of Info records.
type mockLogger struct {
	attrs []any
}

func (m *mockLogger) With(...any) log.Logger      { return m }
func (m *mockLogger) Trace(string, ...any)        {}
func (m *mockLogger) Debug(string, ...any)        {}
func (m *mockLogger) Error(string, ...any)        {}
func (m *mockLogger) Warn(string, ...any)         {}
func (m *mockLogger) Info(_ string, attrs ...any) { m.attrs = append(m.attrs, attrs...) }

func (m *mockLogger) attr(key string) (any, bool) {
	for i := 0; i+1 < len(m.attrs); i += 2 {
		if m.attrs[i] == key {
			return m.attrs[i+1], true
		}
	}
	return nil, false
}

func respond(status int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// the handler must still see the body the logger consumed
		if _, err := io.ReadAll(r.Body); err != nil {
			status = http.StatusTeapot
		}
		time.Sleep(delay)
		if status != http.StatusOK {
			w.WriteHeader(status)
		}
		_, _ = w.Write([]byte(http.StatusText(status)))
	}
}

func TestRequestLoggerMiddleware(t *testing.T) {
	const body = `{"method":"harvest","caller":"0x0000000000000000000000000000000000000001","block":20}`

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		enabled   bool
		slow      time.Duration
		log5xx    bool
		shouldLog bool
	}{
		{"enabled", respond(http.StatusOK, 0), true, 0, false, true},
		{"disabled", respond(http.StatusOK, 0), false, 0, false, false},
		{"slow over threshold", respond(http.StatusOK, 15*time.Millisecond), false, 10 * time.Millisecond, false, true},
		{"fast under threshold", respond(http.StatusOK, 0), false, 200 * time.Millisecond, false, false},
		{"5xx logged", respond(http.StatusInternalServerError, 0), false, 0, true, true},
		{"503 logged", respond(http.StatusServiceUnavailable, 0), false, 0, true, true},
		{"5xx not logged", respond(http.StatusInternalServerError, 0), false, 0, false, false},
		{"4xx never logged", respond(http.StatusBadRequest, 0), false, 0, true, false},
		{"implicit 200", respond(http.StatusOK, 0), false, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}
			var enabled atomic.Bool
			enabled.Store(tt.enabled)

			handler := RequestLoggerMiddleware(logger, &enabled, tt.slow, tt.log5xx)(tt.handler)
			req := httptest.NewRequest(http.MethodPost, "http://localhost/pool/calls", strings.NewReader(body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEqual(t, http.StatusTeapot, rec.Code)
			if !tt.shouldLog {
				assert.Empty(t, logger.attrs)
				return
			}
			uri, _ := logger.attr("URI")
			assert.Equal(t, "http://localhost/pool/calls", uri)
			method, _ := logger.attr("Method")
			assert.Equal(t, http.MethodPost, method)
			logged, _ := logger.attr("Body")
			assert.Equal(t, body, logged)
			status, _ := logger.attr("Status")
			assert.Equal(t, rec.Code, status)
			ts, ok := logger.attr("Timestamp")
			require.True(t, ok)
			assert.IsType(t, int64(0), ts)
		})
	}
}

func TestRequestLoggerWebsocket(t *testing.T) {
	logger := &mockLogger{}
	var enabled atomic.Bool
	enabled.Store(true)

	upgrader := websocket.Upgrader{}
	handler := RequestLoggerMiddleware(logger, &enabled, 0, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	}))
	ts := httptest.NewServer(handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg))
}
