package ring

import (
	"fmt"

	"github.com/tuneinsight/rlwe-she/utils"
)

// NTTTable stores the precomputed constants of the negacyclic
// number theoretic transform of size N modulo a prime q = 1 mod 2N.
//
// The forward transform maps the coefficients a_j of a(X) to the
// evaluations A_k = a(psi^(2k+1)), k in [0, N), in natural order,
// where psi is a primitive 2N-th root of unity mod q.
type NTTTable struct {
	N       int
	Modulus uint64
	Psi     uint64 // primitive 2N-th root of unity

	psiPow        []uint64 // psi^j
	psiInvPowNInv []uint64 // N^-1 * psi^-j
	omegaPow      []uint64 // psi^(2j), j < N/2
	omegaInvPow   []uint64 // psi^(-2j), j < N/2
}

// NewNTTTable generates the [NTTTable] for degree N and modulus q.
// q must be prime and equal to 1 mod 2N.
func NewNTTTable(N int, q uint64) (t *NTTTable, err error) {

	if !utils.IsPowerOfTwo(N) || N < 2 {
		return nil, fmt.Errorf("cannot NewNTTTable: N must be a power of two greater than 1")
	}

	var psi uint64
	if psi, err = PrimitiveNthRoot(uint64(2*N), q); err != nil {
		return nil, fmt.Errorf("cannot NewNTTTable: %w", err)
	}

	t = &NTTTable{
		N:             N,
		Modulus:       q,
		Psi:           psi,
		psiPow:        make([]uint64, N),
		psiInvPowNInv: make([]uint64, N),
		omegaPow:      make([]uint64, N>>1),
		omegaInvPow:   make([]uint64, N>>1),
	}

	psiInv := ModInverse(psi, q)
	nInv := ModInverse(uint64(N)%q, q)
	omega := MulMod(psi, psi, q)
	omegaInv := MulMod(psiInv, psiInv, q)

	t.psiPow[0] = 1
	t.psiInvPowNInv[0] = nInv
	for j := 1; j < N; j++ {
		t.psiPow[j] = MulMod(t.psiPow[j-1], psi, q)
		t.psiInvPowNInv[j] = MulMod(t.psiInvPowNInv[j-1], psiInv, q)
	}

	t.omegaPow[0] = 1
	t.omegaInvPow[0] = 1
	for j := 1; j < N>>1; j++ {
		t.omegaPow[j] = MulMod(t.omegaPow[j-1], omega, q)
		t.omegaInvPow[j] = MulMod(t.omegaInvPow[j-1], omegaInv, q)
	}

	return
}

// Forward writes on p2 the negacyclic NTT of p1.
// Coefficients of p1 must be in [0, q). p1 and p2 can be the same slice.
func (t *NTTTable) Forward(p1, p2 []uint64) {
	q := t.Modulus
	for j := 0; j < t.N; j++ {
		p2[j] = MulMod(p1[j], t.psiPow[j], q)
	}
	utils.BitReverseInPlaceSlice(p2, t.N)
	butterflies(p2[:t.N], t.omegaPow, q)
}

// Backward writes on p2 the inverse negacyclic NTT of p1.
// Coefficients of p1 must be in [0, q). p1 and p2 can be the same slice.
func (t *NTTTable) Backward(p1, p2 []uint64) {
	q := t.Modulus
	if &p1[0] != &p2[0] {
		copy(p2, p1[:t.N])
	}
	utils.BitReverseInPlaceSlice(p2, t.N)
	butterflies(p2[:t.N], t.omegaInvPow, q)
	for j := 0; j < t.N; j++ {
		p2[j] = MulMod(p2[j], t.psiInvPowNInv[j], q)
	}
}

// butterflies applies the iterative Cooley-Tukey stages on a bit-reversed input,
// with roots[j] = omega^j for a primitive N-th root of unity omega.
func butterflies(p []uint64, roots []uint64, q uint64) {
	N := len(p)
	for m := 2; m <= N; m <<= 1 {
		half := m >> 1
		step := N / m
		for k := 0; k < N; k += m {
			for j := 0; j < half; j++ {
				u := p[k+j]
				v := MulMod(p[k+j+half], roots[j*step], q)
				p[k+j] = AddMod(u, v, q)
				p[k+j+half] = SubMod(u, v, q)
			}
		}
	}
}
