package ring

import (
	"fmt"
	"io"
	"math/big"

	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

// UniformSampler wraps a [sampling.PRNG] and represents the state of a sampler of uniform polynomials.
type UniformSampler struct {
	*baseSampler
	buf  []byte
	mask byte
}

// NewUniformSampler creates a new instance of UniformSampler from a PRNG and ring definition.
func NewUniformSampler(prng sampling.PRNG, baseRing *Ring) (u *UniformSampler) {
	u = new(UniformSampler)
	u.baseSampler = newBaseSampler(prng, baseRing)

	bitLen := baseRing.modulus.BitLen()
	u.buf = make([]byte, (bitLen+7)>>3)
	u.mask = 0xff
	if r := bitLen & 7; r != 0 {
		u.mask = byte(1<<r) - 1
	}
	return
}

// WithPRNG returns an instance of the sampler reading from prng.
// It can be used concurrently with the original sampler.
func (u *UniformSampler) WithPRNG(prng sampling.PRNG) Sampler {
	return NewUniformSampler(prng, u.baseRing)
}

// Read generates a new polynomial with coefficients following a uniform distribution over [0, Q-1].
func (u *UniformSampler) Read(pol Poly) {
	for i := 0; i < u.baseRing.n; i++ {
		u.readCoeff(&pol.Coeffs[i])
	}
}

// ReadNew generates a new polynomial with coefficients following a uniform distribution over [0, Q-1].
func (u *UniformSampler) ReadNew() (pol Poly) {
	pol = u.baseRing.NewPoly()
	u.Read(pol)
	return
}

// ReadAndAdd generates a new polynomial with coefficients following a uniform distribution over [0, Q-1] and adds it on pol.
func (u *UniformSampler) ReadAndAdd(pol Poly) {
	tmp := u.baseRing.pool.GetBuffPoly()
	defer u.baseRing.pool.RecycleBuffPoly(tmp)
	u.Read(*tmp)
	u.baseRing.Add(pol, *tmp, pol)
}

// readCoeff samples x uniformly in [0, Q) by rejection on bitLen(Q) random bits.
func (u *UniformSampler) readCoeff(x *big.Int) {
	for {
		if _, err := io.ReadFull(u.prng, u.buf); err != nil {
			panic(fmt.Errorf("cannot UniformSampler.Read: %w", err))
		}
		u.buf[0] &= u.mask
		if x.SetBytes(u.buf).Cmp(u.baseRing.modulus) < 0 {
			return
		}
	}
}
