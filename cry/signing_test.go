// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nodepool/thor"
)

func TestSigning(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	domain := thor.Blake2b([]byte("domain"))
	signing := NewSigning(domain)
	hash := thor.Blake2b([]byte("payload"))

	sig, err := signing.Sign(hash, key)
	require.NoError(t, err)
	assert.Len(t, sig, 65)

	signer, err := signing.Signer(hash, sig)
	assert.NoError(t, err)
	assert.Equal(t, AddressOf(key), signer)

	// served from cache
	signer, err = signing.Signer(hash, sig)
	assert.NoError(t, err)
	assert.Equal(t, AddressOf(key), signer)
	hit, miss := signing.cache.Stats().Counts()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)

	// other domain recovers another identity
	other, err := NewSigning(thor.Blake2b([]byte("other"))).Signer(hash, sig)
	if err == nil {
		assert.NotEqual(t, AddressOf(key), other)
	}

	// other hash recovers another identity
	other, err = signing.Signer(thor.Blake2b([]byte("tampered")), sig)
	if err == nil {
		assert.NotEqual(t, AddressOf(key), other)
	}

	_, err = signing.Signer(hash, sig[:64])
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	enc := EncodePrivateKey(key)
	assert.Len(t, enc, 66)

	parsed, err := ParsePrivateKey(enc)
	assert.NoError(t, err)
	assert.Equal(t, AddressOf(key), AddressOf(parsed))

	parsed, err = ParsePrivateKey(" " + enc[2:] + "\n")
	assert.NoError(t, err)
	assert.Equal(t, AddressOf(key), AddressOf(parsed))

	_, err = ParsePrivateKey("0xzz")
	assert.Error(t, err)
}
