// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestWithContextFollowsDefault(t *testing.T) {
	prev := gethlog.Root()
	t.Cleanup(func() { gethlog.SetDefault(prev) })

	// declared before the handler is installed
	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	SetDefault(JSONHandlerWithLevel(&buf, LevelDebug))

	logger.Debug("hello", "n", 1)
	logger.With("user", "alice").Info("world")
	logger.Trace("dropped")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "hello", lines[0]["msg"])
	assert.Equal(t, "test", lines[0]["pkg"])
	assert.Equal(t, float64(1), lines[0]["n"])
	assert.Equal(t, "alice", lines[1]["user"])
	assert.Equal(t, "test", lines[1]["pkg"])
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(JSONHandlerWithLevel(&buf, LevelWarn)).With("k", "v")
	l.Info("quiet")
	l.Warn("loud")
	l.Error("louder")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "v", lines[0]["k"])
}

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(NewTerminalHandlerWithLevel(&buf, LevelInfo, false)).Info("started", "port", 8669)
	assert.Contains(t, buf.String(), "started")
	assert.Contains(t, buf.String(), "port=8669")
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, FromLegacyLevel(3))
	assert.Equal(t, LevelTrace, FromLegacyLevel(5))
}

func TestDiscardHandler(t *testing.T) {
	NewLogger(DiscardHandler()).Error("nothing")
}
