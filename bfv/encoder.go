package bfv

import (
	"github.com/tuneinsight/rlwe-she/utils"
)

// Encoder is a type that encodes integer vectors on the coefficients of a [Plaintext]
// and decodes them back. Values are zero-padded or truncated to N coefficients and reduced mod T.
// An Encoder is stateless and can be shared among goroutines.
type Encoder struct {
	params Parameters
}

// NewEncoder creates a new [Encoder] from the provided parameters.
func NewEncoder(params Parameters) *Encoder {
	return &Encoder{params: params}
}

// Encode encodes a slice of integers of type []uint64 or []int64 on a pre-allocated plaintext.
// Signed values are mapped to their residue mod T.
func (ecd Encoder) Encode(values interface{}, pt *Plaintext) (err error) {

	if pt == nil || !pt.params.sameContext(ecd.params) {
		return newUsageError("Encode", "plaintext does not match the encoder parameters")
	}

	T := ecd.params.PlaintextModulus()
	N := ecd.params.N()

	coeffs := pt.Value.Coeffs

	switch values := values.(type) {
	case []uint64:
		for i := 0; i < N; i++ {
			if i < len(values) {
				coeffs[i].SetUint64(values[i] % T)
			} else {
				coeffs[i].SetUint64(0)
			}
		}
	case []int64:
		ecd.params.RingT().SetCoefficientsInt64(values, pt.Value)
	default:
		return newUsageError("Encode", "values must be []uint64 or []int64 but are %T", values)
	}

	return
}

// EncodeNew encodes a slice of integers of type []uint64 or []int64 on a new plaintext.
func (ecd Encoder) EncodeNew(values interface{}) (pt *Plaintext, err error) {
	pt = NewPlaintext(ecd.params)
	return pt, ecd.Encode(values, pt)
}

// Decode decodes the N coefficients of a plaintext on a slice of type []uint64 or []int64.
// Signed values are the centered representatives in (-T/2, T/2].
// The slice is filled up to min(len(values), N).
func (ecd Encoder) Decode(pt *Plaintext, values interface{}) (err error) {

	if pt == nil || !pt.params.sameContext(ecd.params) {
		return newUsageError("Decode", "plaintext does not match the encoder parameters")
	}

	T := ecd.params.PlaintextModulus()
	half := T >> 1

	coeffs := pt.Value.Coeffs

	switch values := values.(type) {
	case []uint64:
		for i := range values[:utils.Min(len(values), len(coeffs))] {
			values[i] = coeffs[i].Uint64() % T
		}
	case []int64:
		for i := range values[:utils.Min(len(values), len(coeffs))] {
			if c := coeffs[i].Uint64() % T; c > half {
				values[i] = -int64(T - c)
			} else {
				values[i] = int64(c)
			}
		}
	default:
		return newUsageError("Decode", "values must be []uint64 or []int64 but are %T", values)
	}

	return
}

// DecodeUint decodes the N coefficients of a plaintext in [0, T).
func (ecd Encoder) DecodeUint(pt *Plaintext) (values []uint64, err error) {
	values = make([]uint64, ecd.params.N())
	return values, ecd.Decode(pt, values)
}

// DecodeInt decodes the N coefficients of a plaintext in (-T/2, T/2].
func (ecd Encoder) DecodeInt(pt *Plaintext) (values []int64, err error) {
	values = make([]int64, ecd.params.N())
	return values, ecd.Decode(pt, values)
}
