package ring

import (
	"encoding/json"
	"fmt"

	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

const (
	discreteGaussianName = "DiscreteGaussian"
	ternaryDistName      = "Ternary"
	uniformDistName      = "Uniform"
)

// Sampler is an interface for random polynomial samplers.
// It has a single Read method which takes as argument the polynomial to be
// populated according to the Sampler's distribution.
// Samplers are not safe for concurrent use; use WithPRNG to obtain
// an independent instance per goroutine.
type Sampler interface {
	Read(pol Poly)
	ReadNew() (pol Poly)
	ReadAndAdd(pol Poly)
	WithPRNG(prng sampling.PRNG) Sampler
}

// DistributionParameters is an interface for distribution
// parameters in the ring.
// There are three implementation of this interface:
//   - DiscreteGaussian for sampling polynomials with discretized
//     gaussian coefficient of given standard deviation and bound.
//   - Ternary for sampling polynomials with coefficients in [-1, 1].
//   - Uniform for sampling polynomial with uniformly random
//     coefficients in the ring.
type DistributionParameters interface {
	// Type returns a string representation of the distribution name.
	Type() string
	mustBeDist()
}

// DiscreteGaussian represents the parameters of a
// discrete Gaussian distribution with standard
// deviation Sigma and bounds [-Bound, Bound].
type DiscreteGaussian struct {
	Sigma float64
	Bound float64
}

// Ternary represent the parameters of a distribution with coefficients
// in [-1, 0, 1]. Only one of its field must be set to a non-zero value:
//
//   - If P is set, each coefficient in the polynomial is sampled in [-1, 0, 1]
//     with probabilities [0.5*P, 1-P, 0.5*P].
//   - if H is set, the coefficients are sampled uniformly in the set of ternary
//     polynomials with H non-zero coefficients (i.e., of hamming weight H).
type Ternary struct {
	P float64
	H int
}

// Uniform represents the parameters of a uniform distribution
// i.e., with coefficients uniformly distributed in the given ring.
type Uniform struct{}

// NewSampler instantiates a new [Sampler] for the distribution X over baseRing, reading its randomness from prng.
func NewSampler(prng sampling.PRNG, baseRing *Ring, X DistributionParameters) (Sampler, error) {
	switch X := X.(type) {
	case DiscreteGaussian:
		return NewGaussianSampler(prng, baseRing, X)
	case Ternary:
		return NewTernarySampler(prng, baseRing, X)
	case Uniform:
		return NewUniformSampler(prng, baseRing), nil
	default:
		return nil, fmt.Errorf("invalid distribution: want ring.DiscreteGaussian, ring.Ternary or ring.Uniform but have %T", X)
	}
}

type baseSampler struct {
	prng     sampling.PRNG
	source   *sampling.Source
	baseRing *Ring
}

func newBaseSampler(prng sampling.PRNG, baseRing *Ring) *baseSampler {
	return &baseSampler{
		prng:     prng,
		source:   sampling.NewSource(prng),
		baseRing: baseRing,
	}
}

// distributionJSON is the JSON representation shared by all distributions.
type distributionJSON struct {
	Type  string
	P     float64 `json:",omitempty"`
	H     int     `json:",omitempty"`
	Sigma float64 `json:",omitempty"`
	Bound float64 `json:",omitempty"`
}

func (d DiscreteGaussian) Type() string {
	return discreteGaussianName
}

func (d DiscreteGaussian) MarshalJSON() ([]byte, error) {
	return json.Marshal(distributionJSON{Type: d.Type(), Sigma: d.Sigma, Bound: d.Bound})
}

func (d DiscreteGaussian) mustBeDist() {}

func (d Ternary) Type() string {
	return ternaryDistName
}

func (d Ternary) MarshalJSON() ([]byte, error) {
	return json.Marshal(distributionJSON{Type: d.Type(), P: d.P, H: d.H})
}

func (d Ternary) mustBeDist() {}

func (d Uniform) Type() string {
	return uniformDistName
}

func (d Uniform) MarshalJSON() ([]byte, error) {
	return json.Marshal(distributionJSON{Type: d.Type()})
}

func (d Uniform) mustBeDist() {}

// UnmarshalDistribution parses the JSON representation of a distribution,
// as produced by the MarshalJSON methods of the distributions of this package.
// A JSON null gives a nil distribution.
func UnmarshalDistribution(data []byte) (X DistributionParameters, err error) {

	if string(data) == "null" {
		return nil, nil
	}

	var d distributionJSON
	if err = json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("cannot UnmarshalDistribution: %w", err)
	}

	switch d.Type {
	case uniformDistName:
		return Uniform{}, nil
	case ternaryDistName:
		// a zero value for both P and H is interpreted as an unset value
		if (d.P != 0) == (d.H != 0) {
			return nil, fmt.Errorf("cannot UnmarshalDistribution: exactly one of the fields P or H need to be set")
		}
		return Ternary{P: d.P, H: d.H}, nil
	case discreteGaussianName:
		if d.Sigma <= 0 {
			return nil, fmt.Errorf("cannot UnmarshalDistribution: Sigma must be positive but is %f", d.Sigma)
		}
		return DiscreteGaussian{Sigma: d.Sigma, Bound: d.Bound}, nil
	case "":
		return nil, fmt.Errorf("cannot UnmarshalDistribution: no distribution type")
	default:
		return nil, fmt.Errorf("cannot UnmarshalDistribution: distribution type %s does not exist", d.Type)
	}
}
