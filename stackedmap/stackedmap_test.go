// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/nodepool/stackedmap"
)

func M(a ...any) []any {
	return a
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key any) (any, bool, error) {
		v, r := src[key.(string)]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() {}, 0, "", "", "foo", []any{"bar", true, nil}},
		{func() { sm.Push() }, 1, "foo", "baz", "foo", []any{"baz", true, nil}},
		{func() {}, 1, "foo", "baz1", "foo", []any{"baz1", true, nil}},
		{func() { sm.Push() }, 2, "foo", "qux", "foo", []any{"qux", true, nil}},
		{func() { sm.Pop() }, 1, "", "", "foo", []any{"baz1", true, nil}},
		{func() { sm.Pop() }, 0, "", "", "foo", []any{"bar", true, nil}},

		{func() { sm.Push(); sm.Push() }, 2, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(test.getReturn, M(sm.Get(test.getKey)))
		}
	}
}

func TestStackedMapPushReturnsDepth(t *testing.T) {
	sm := stackedmap.New(func(any) (any, bool, error) { return nil, false, nil })

	assert.Equal(t, 0, sm.Push())
	sm.Put("a", 1)
	rev := sm.Push()
	assert.Equal(t, 1, rev)
	sm.Put("a", 2)
	sm.Put("b", 3)

	sm.PopTo(rev)
	assert.Equal(t, M(1, true, nil), M(sm.Get("a")))
	assert.Equal(t, M(nil, false, nil), M(sm.Get("b")))
}

func TestStackedMapSourceError(t *testing.T) {
	boom := errors.New("boom")
	sm := stackedmap.New(func(any) (any, bool, error) { return nil, false, boom })
	sm.Push()

	_, _, err := sm.Get("x")
	assert.Equal(t, boom, err)

	sm.Put("x", "y")
	assert.Equal(t, M("y", true, nil), M(sm.Get("x")))
}

func TestStackedMapJournal(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(any) (any, bool, error) {
		return nil, false, nil
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
		{"a3", "b3"},
		{"a4", "b4"},
	}

	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}
	i := 0
	sm.Journal(func(k, v any) bool {
		assert.Equal(kvs[i].k, k)
		assert.Equal(kvs[i].v, v)
		i++
		return true
	})
	assert.Equal(len(kvs), i, "Journal traverse should visit all entries")

	i = 0
	sm.Journal(func(k, v any) bool {
		i++
		return false
	})
	assert.Equal(1, i, "Journal traverse should abort")
}
