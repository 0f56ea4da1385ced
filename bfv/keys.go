package bfv

import (
	"math/big"

	"github.com/tuneinsight/rlwe-she/ring"
)

// SecretKey is a type for BFV secret keys. It is never serialized by this package.
type SecretKey struct {
	Q     *big.Int
	Value ring.Poly
}

// NewSecretKey allocates a new zero [SecretKey].
func NewSecretKey(params Parameters) *SecretKey {
	return &SecretKey{Q: params.Q(), Value: ring.NewPoly(params.N())}
}

// matches returns true if the key was generated for the ring of params.
func (sk SecretKey) matches(params Parameters) bool {
	return sameModulus(sk.Q, params.q) && sk.Value.N() == params.N()
}

// PublicKey is a type for BFV public keys, (b, a) with b = -a*s + e.
type PublicKey struct {
	Q     *big.Int
	Value [2]ring.Poly
}

// NewPublicKey allocates a new zero [PublicKey].
func NewPublicKey(params Parameters) *PublicKey {
	return &PublicKey{Q: params.Q(), Value: [2]ring.Poly{ring.NewPoly(params.N()), ring.NewPoly(params.N())}}
}

// Equal performs a deep equality test between two public keys.
func (pk PublicKey) Equal(other *PublicKey) bool {
	return sameModulus(pk.Q, other.Q) && pk.Value[0].Equal(other.Value[0]) && pk.Value[1].Equal(other.Value[1])
}

// matches returns true if the key was generated for the ring of params.
func (pk PublicKey) matches(params Parameters) bool {
	return sameModulus(pk.Q, params.q) && pk.Value[0].N() == params.N() && pk.Value[1].N() == params.N()
}

// EvaluationKey is a type for BFV relinearization keys. Value[i] = (b_i, a_i) with
// b_i = -a_i*s + e_i + Base^i * s^2 mod Q, for i in [0, DigitCount(Base)).
type EvaluationKey struct {
	Base  uint64
	Q     *big.Int
	Value [][2]ring.Poly
}

// N returns the ring degree of the key.
func (evk EvaluationKey) N() int {
	if len(evk.Value) == 0 {
		return 0
	}
	return evk.Value[0][0].N()
}

// DigitCount returns the number of decomposition digits covered by the key.
func (evk EvaluationKey) DigitCount() int {
	return len(evk.Value)
}

// Equal performs a deep equality test between two evaluation keys.
func (evk EvaluationKey) Equal(other *EvaluationKey) bool {
	if evk.Base != other.Base || len(evk.Value) != len(other.Value) {
		return false
	}
	if !sameModulus(evk.Q, other.Q) {
		return false
	}
	for i := range evk.Value {
		if !evk.Value[i][0].Equal(other.Value[i][0]) || !evk.Value[i][1].Equal(other.Value[i][1]) {
			return false
		}
	}
	return true
}

// matches returns true if the key was generated for the ring of params.
func (evk EvaluationKey) matches(params Parameters) bool {
	return sameModulus(evk.Q, params.q) && evk.N() == params.N()
}

func sameModulus(a, b *big.Int) bool {
	return a != nil && b != nil && a.Cmp(b) == 0
}
