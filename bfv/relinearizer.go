package bfv

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils/bignum"
)

// Relinearizer is a type that reduces three-component ciphertexts back to two components
// using an [EvaluationKey].
// A Relinearizer is read-only and can be shared among goroutines.
type Relinearizer struct {
	params Parameters
	ringQ  *ring.Ring
	evk    *EvaluationKey
}

// NewRelinearizer instantiates a new [Relinearizer].
// It returns a [*UsageError] if the key was not generated for the ring of params
// or does not cover all the digits of its base.
func NewRelinearizer(params Parameters, evk *EvaluationKey) (rlk *Relinearizer, err error) {

	if !params.isValid() {
		return nil, newConfigurationError("Parameters", "uninitialized parameters")
	}

	if evk == nil {
		return nil, newUsageError("NewRelinearizer", "nil evaluation key")
	}

	if !evk.matches(params) {
		return nil, newUsageError("NewRelinearizer", "evaluation key does not match the ring (Q, N) of the parameters")
	}

	if evk.Base < 2 {
		return nil, newUsageError("NewRelinearizer", "evaluation key has invalid base %d", evk.Base)
	}

	if digits := params.DigitCount(evk.Base); evk.DigitCount() != digits {
		return nil, newUsageError("NewRelinearizer", "evaluation key has %d digits but base %d requires %d", evk.DigitCount(), evk.Base, digits)
	}

	return &Relinearizer{params: params, ringQ: params.RingQ(), evk: evk}, nil
}

// Relinearize returns the two-component ciphertext (c0 + sum d_i*b_i, c1 + sum d_i*a_i),
// where d_i are the signed base-B digits of c2.
func (rlk Relinearizer) Relinearize(ct *ExpandedCiphertext) (*Ciphertext, error) {
	if ct == nil {
		return nil, newUsageError("Relinearize", "nil ciphertext")
	}
	el, err := rlk.RelinearizeElement(&ct.Element)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{Element: *el}, nil
}

// RelinearizeElement relinearizes an untyped element.
// It returns a [*UsageError] if the element does not have exactly three components or
// if it does not match the ring of the key.
func (rlk Relinearizer) RelinearizeElement(el *Element) (out *Element, err error) {

	if el == nil {
		return nil, newUsageError("RelinearizeElement", "nil element")
	}

	if len(el.Value) != 3 {
		return nil, newUsageError("RelinearizeElement", "element has %d components but relinearization requires 3", len(el.Value))
	}

	if !el.params.sameContext(rlk.params) {
		return nil, newUsageError("RelinearizeElement", "element does not match the relinearizer parameters")
	}

	ringQ := rlk.ringQ

	out = NewElement(rlk.params, 2)
	out.Value[0].Copy(el.Value[0])
	out.Value[1].Copy(el.Value[1])

	digits := DigitDecompose(ringQ, el.Value[2], rlk.evk.Base, rlk.evk.DigitCount())

	for i, d := range digits {
		ringQ.MulThenAdd(d, rlk.evk.Value[i][0], out.Value[0])
		ringQ.MulThenAdd(d, rlk.evk.Value[i][1], out.Value[1])
	}

	return
}

// DigitDecompose returns the signed base-B decomposition of p: digits polynomials d_i,
// stored mod Q, whose coefficients are the digits in [-B/2, B/2] of the centered
// representative c of each coefficient of p, with sum d_i * B^i = c.
// It panics if digits is too small to represent the coefficients of p.
func DigitDecompose(r *ring.Ring, p ring.Poly, base uint64, digits int) (out []ring.Poly) {

	out = make([]ring.Poly, digits)
	for i := range out {
		out[i] = r.NewPoly()
	}

	Q := r.Modulus()
	B := new(big.Int).SetUint64(base)
	halfB := new(big.Int).Rsh(B, 1)
	even := base&1 == 0

	c, d := new(big.Int), new(big.Int)

	for j := 0; j < r.N(); j++ {

		bignum.Center(&p.Coeffs[j], Q, c)

		for i := 0; i < digits; i++ {

			d.Mod(c, B)

			// Ties go to the digit with the same sign as the remainder.
			if cmp := d.Cmp(halfB); cmp > 0 || (cmp == 0 && even && c.Sign() < 0) {
				d.Sub(d, B)
			}

			c.Sub(c, d)
			c.Quo(c, B)

			out[i].Coeffs[j].Mod(d, Q)
		}

		if c.Sign() != 0 {
			panic(fmt.Errorf("sanity check: coefficient %d has residue %s after %d base-%d digits", j, c, digits, base))
		}
	}

	return
}
