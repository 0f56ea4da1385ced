package ring

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

// GaussianSampler keeps the state of a truncated Gaussian polynomial sampler.
type GaussianSampler struct {
	*baseSampler
	Xe  DiscreteGaussian
	rnd *rand.Rand
}

// NewGaussianSampler creates a new instance of [GaussianSampler] from a PRNG, a ring definition and
// the truncated Gaussian distribution parameters. Sigma must be positive and Bound at least Sigma.
func NewGaussianSampler(prng sampling.PRNG, baseRing *Ring, X DiscreteGaussian) (g *GaussianSampler, err error) {

	if !(X.Sigma > 0) || X.Bound < X.Sigma {
		return nil, fmt.Errorf("invalid DiscreteGaussian distribution: want Sigma > 0 and Bound >= Sigma, but have Sigma=%f, Bound=%f", X.Sigma, X.Bound)
	}

	g = &GaussianSampler{Xe: X}
	g.baseSampler = newBaseSampler(prng, baseRing)
	/* #nosec G404: source reads from a cryptographically secure PRNG */
	g.rnd = rand.New(g.source)
	return
}

// WithPRNG returns an instance of the sampler reading from prng.
// It can be used concurrently with the original sampler.
func (g *GaussianSampler) WithPRNG(prng sampling.PRNG) Sampler {
	s, _ := NewGaussianSampler(prng, g.baseRing, g.Xe)
	return s
}

// Read samples a truncated Gaussian polynomial on "pol".
func (g *GaussianSampler) Read(pol Poly) {
	for i := 0; i < g.baseRing.n; i++ {
		pol.Coeffs[i].SetInt64(g.sample())
		pol.Coeffs[i].Mod(&pol.Coeffs[i], g.baseRing.modulus)
	}
}

// ReadNew samples a new truncated Gaussian polynomial.
func (g *GaussianSampler) ReadNew() (pol Poly) {
	pol = g.baseRing.NewPoly()
	g.Read(pol)
	return pol
}

// ReadAndAdd samples a truncated Gaussian polynomial and adds it on "pol".
func (g *GaussianSampler) ReadAndAdd(pol Poly) {
	tmp := g.baseRing.pool.GetBuffPoly()
	defer g.baseRing.pool.RecycleBuffPoly(tmp)
	g.Read(*tmp)
	g.baseRing.Add(pol, *tmp, pol)
}

// sample returns round(x) for x drawn from N(0, Sigma^2) conditioned on |x| <= Bound.
func (g *GaussianSampler) sample() int64 {
	for {
		if v := g.rnd.NormFloat64() * g.Xe.Sigma; math.Abs(v) <= g.Xe.Bound {
			return int64(math.Round(v))
		}
	}
}
