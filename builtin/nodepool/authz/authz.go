// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package authz verifies off-system authorizations of pool operations.
package authz

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/cry"
	"github.com/vechain/nodepool/thor"
)

// Actions bound into payloads, a signature for one never verifies for another.
const (
	ActionDeposit = "deposit"
	ActionUnjail  = "unjail"
)

// Payload is the message an authorizer signs.
type Payload struct {
	Context thor.Bytes32   // execution context id of the pool
	UnitIDs []*uint256.Int // in call order
	Subject thor.Address   // staker or owner the authorization is for
	Expiry  uint64         // unix seconds, exclusive
	Action  string
}

// SigningHash returns the hash that is signed.
func (p *Payload) SigningHash() (thor.Bytes32, error) {
	data, err := rlp.EncodeToBytes(p)
	if err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "encode payload")
	}
	return thor.Blake2b(data), nil
}

// Verifier recovers the identity that authorized a payload.
type Verifier interface {
	Verify(p *Payload, sig []byte) (thor.Address, error)
}

var domain = thor.Blake2b([]byte(thor.AuthorizationDomain))

// SignatureVerifier verifies secp256k1 recoverable signatures.
type SignatureVerifier struct {
	signing *cry.Signing
}

var _ Verifier = (*SignatureVerifier)(nil)

func NewSignatureVerifier() *SignatureVerifier {
	return &SignatureVerifier{signing: cry.NewSigning(domain)}
}

func (v *SignatureVerifier) Verify(p *Payload, sig []byte) (thor.Address, error) {
	hash, err := p.SigningHash()
	if err != nil {
		return thor.Address{}, err
	}
	return v.signing.Signer(hash, sig)
}

// Sign produces a signature of p that SignatureVerifier accepts.
func Sign(p *Payload, key *ecdsa.PrivateKey) ([]byte, error) {
	hash, err := p.SigningHash()
	if err != nil {
		return nil, err
	}
	return cry.NewSigning(domain).Sign(hash, key)
}
