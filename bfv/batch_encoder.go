package bfv

import (
	"github.com/tuneinsight/rlwe-she/ring"
)

// BatchEncoder packs N/2 values mod T into the evaluations of a plaintext polynomial at
// the primitive 2N-th roots of unity psi^(5^j), so that plaintext products act slot-wise.
// Batching requires T prime and T = 1 mod 2N. When these conditions do not hold, the
// BatchEncoder falls back to encoding the N/2 values on the first N/2 coefficients.
type BatchEncoder struct {
	params Parameters
	ntt    *ring.NTTTable

	// slotIndex[j] is the NTT index k of slot j, such that psi^(2k+1) = psi^(5^j mod 2N).
	slotIndex []int
}

// NewBatchEncoder creates a new [BatchEncoder] from the provided parameters.
func NewBatchEncoder(params Parameters) *BatchEncoder {

	ecd := &BatchEncoder{params: params}

	N := params.N()
	T := params.PlaintextModulus()

	if !ring.IsPrime(T) || T%uint64(2*N) != 1 {
		return ecd
	}

	var err error
	if ecd.ntt, err = ring.NewNTTTable(N, T); err != nil {
		// The root search is bounded and may fail for adversarial primes.
		ecd.ntt = nil
		return ecd
	}

	m := uint64(2 * N)
	ecd.slotIndex = make([]int, N>>1)
	for j, gen := 0, uint64(1); j < N>>1; j++ {
		ecd.slotIndex[j] = int((gen - 1) >> 1)
		gen = (gen * 5) % m
	}

	return ecd
}

// CanBatch returns true if the plaintext modulus allows slot-wise batching.
func (ecd BatchEncoder) CanBatch() bool {
	return ecd.ntt != nil
}

// SlotCount returns the number of slots, N/2.
func (ecd BatchEncoder) SlotCount() int {
	return ecd.params.N() >> 1
}

// Psi returns the primitive 2N-th root of unity mod T used for batching,
// or 0 if batching is not available.
func (ecd BatchEncoder) Psi() uint64 {
	if ecd.ntt == nil {
		return 0
	}
	return ecd.ntt.Psi
}

// BatchEncode encodes up to N/2 values on a pre-allocated plaintext. Values are reduced mod T,
// missing slots are set to zero and extra values are ignored.
func (ecd BatchEncoder) BatchEncode(values []uint64, pt *Plaintext) (err error) {

	if pt == nil || !pt.params.sameContext(ecd.params) {
		return newUsageError("BatchEncode", "plaintext does not match the encoder parameters")
	}

	slots := ecd.SlotCount()

	if len(values) > slots {
		values = values[:slots]
	}

	if !ecd.CanBatch() {
		return NewEncoder(ecd.params).Encode(values, pt)
	}

	T := ecd.params.PlaintextModulus()
	N := ecd.params.N()

	buff := make([]uint64, N)
	for j, v := range values {
		k := ecd.slotIndex[j]
		buff[k] = v % T
		buff[N-1-k] = 0
	}

	ecd.ntt.Backward(buff, buff)

	for i := range buff {
		pt.Value.Coeffs[i].SetUint64(buff[i])
	}

	return
}

// BatchEncodeNew encodes up to N/2 values on a new plaintext.
func (ecd BatchEncoder) BatchEncodeNew(values []uint64) (pt *Plaintext, err error) {
	pt = NewPlaintext(ecd.params)
	return pt, ecd.BatchEncode(values, pt)
}

// BatchDecode decodes the N/2 slots of a plaintext.
func (ecd BatchEncoder) BatchDecode(pt *Plaintext) (values []uint64, err error) {

	if pt == nil || !pt.params.sameContext(ecd.params) {
		return nil, newUsageError("BatchDecode", "plaintext does not match the encoder parameters")
	}

	values = make([]uint64, ecd.SlotCount())

	if !ecd.CanBatch() {
		return values, NewEncoder(ecd.params).Decode(pt, values)
	}

	T := ecd.params.PlaintextModulus()

	buff := make([]uint64, ecd.params.N())
	for i := range buff {
		buff[i] = pt.Value.Coeffs[i].Uint64() % T
	}

	ecd.ntt.Forward(buff, buff)

	for j := range values {
		values[j] = buff[ecd.slotIndex[j]]
	}

	return
}
