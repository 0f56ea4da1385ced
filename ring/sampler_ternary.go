package ring

import (
	"fmt"
	"math/big"
	"math/rand/v2"

	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

// TernarySampler keeps the state of a polynomial sampler in the ternary distribution.
type TernarySampler struct {
	*baseSampler
	X   Ternary
	rnd *rand.Rand
}

// NewTernarySampler creates a new instance of TernarySampler from a PRNG, the ring definition and the distribution
// parameters (see type Ternary).
func NewTernarySampler(prng sampling.PRNG, baseRing *Ring, X Ternary) (ts *TernarySampler, err error) {

	switch {
	case X.P > 0 && X.P <= 1 && X.H == 0:
	case X.P == 0 && X.H > 0 && X.H <= baseRing.n:
	default:
		return nil, fmt.Errorf("invalid Ternary distribution: exactly one of P in (0, 1] or H in [1, N] must be set, but have P=%f, H=%d", X.P, X.H)
	}

	ts = &TernarySampler{X: X}
	ts.baseSampler = newBaseSampler(prng, baseRing)
	/* #nosec G404: source reads from a cryptographically secure PRNG */
	ts.rnd = rand.New(ts.source)
	return
}

// WithPRNG returns an instance of the sampler reading from prng.
// It can be used concurrently with the original sampler.
func (ts *TernarySampler) WithPRNG(prng sampling.PRNG) Sampler {
	s, _ := NewTernarySampler(prng, ts.baseRing, ts.X)
	return s
}

// Read samples a polynomial into pol.
func (ts *TernarySampler) Read(pol Poly) {
	if ts.X.H > 0 {
		ts.sampleSparse(pol)
	} else {
		ts.sampleProba(pol)
	}
}

// ReadNew allocates and samples a polynomial.
func (ts *TernarySampler) ReadNew() (pol Poly) {
	pol = ts.baseRing.NewPoly()
	ts.Read(pol)
	return pol
}

// ReadAndAdd samples a polynomial and adds it on pol.
func (ts *TernarySampler) ReadAndAdd(pol Poly) {
	tmp := ts.baseRing.pool.GetBuffPoly()
	defer ts.baseRing.pool.RecycleBuffPoly(tmp)
	ts.Read(*tmp)
	ts.baseRing.Add(pol, *tmp, pol)
}

func (ts *TernarySampler) sampleProba(pol Poly) {
	minusOne := new(big.Int).Sub(ts.baseRing.modulus, big.NewInt(1))
	half := ts.X.P / 2
	for i := 0; i < ts.baseRing.n; i++ {
		switch u := ts.rnd.Float64(); {
		case u < half:
			pol.Coeffs[i].SetUint64(1)
		case u < ts.X.P:
			pol.Coeffs[i].Set(minusOne)
		default:
			pol.Coeffs[i].SetUint64(0)
		}
	}
}

func (ts *TernarySampler) sampleSparse(pol Poly) {
	minusOne := new(big.Int).Sub(ts.baseRing.modulus, big.NewInt(1))

	pol.Zero()

	for _, j := range ts.rnd.Perm(ts.baseRing.n)[:ts.X.H] {
		if ts.rnd.Uint64()&1 == 0 {
			pol.Coeffs[j].SetUint64(1)
		} else {
			pol.Coeffs[j].Set(minusOne)
		}
	}
}
