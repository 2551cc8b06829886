// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/cache"
	"github.com/vechain/nodepool/thor"
)

var signerCacheSize = 1024

// Signing to sign a hash or extract its signer, bound to a domain.
type Signing struct {
	domain thor.Bytes32
	cache  *cache.LRU
}

// NewSigning create a signing object.
// The 'domain' is mixed into every signing hash to prevent cross-domain replay.
func NewSigning(domain thor.Bytes32) *Signing {
	lru, _ := cache.NewLRU(signerCacheSize)
	return &Signing{domain, lru}
}

// xor signing hash with domain
func (s *Signing) maskHash(signingHash *thor.Bytes32) {
	for i := range signingHash {
		signingHash[i] ^= s.domain[i]
	}
}

// Sign signs the hash with given private key.
func (s *Signing) Sign(signingHash thor.Bytes32, priv *ecdsa.PrivateKey) ([]byte, error) {
	s.maskHash(&signingHash)
	return crypto.Sign(signingHash[:], priv)
}

// Signer extracts signer from signature over the hash.
func (s *Signing) Signer(signingHash thor.Bytes32, sig []byte) (thor.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return thor.Address{}, errors.New("invalid signature length")
	}
	key := thor.Blake2b(signingHash[:], sig)
	v, err := s.cache.GetOrLoad(key, func(any) (any, error) {
		masked := signingHash
		s.maskHash(&masked)
		pub, err := crypto.SigToPub(masked[:], sig)
		if err != nil {
			return nil, err
		}
		return thor.Address(crypto.PubkeyToAddress(*pub)), nil
	})
	if err != nil {
		return thor.Address{}, err
	}
	return v.(thor.Address), nil
}
