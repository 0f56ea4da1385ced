package bfv

import (
	"fmt"

	"github.com/tuneinsight/rlwe-she/ring"
)

const (
	// XsUniformTernary is the standard deviation of a ternary key with uniform distribution
	XsUniformTernary = 0.816496580927726 //Sqrt(2/3)

	// DefaultNoise is the default standard deviation of the error
	DefaultNoise = 3.2

	// DefaultNoiseBound is the default bound (in number of standard deviation) of the noise bound
	DefaultNoiseBound = 19.2 // 6*3.2

	// DefaultDecompositionBase is the default base of the relinearization digit decomposition.
	DefaultDecompositionBase = 4
)

// DefaultXe is the default discrete Gaussian distribution.
var DefaultXe = ring.DiscreteGaussian{Sigma: DefaultNoise, Bound: DefaultNoiseBound}

// DefaultXs is the default ternary distribution of secrets.
var DefaultXs = ring.Ternary{P: 2 / 3.0}

// SecurityLevel enumerates the predefined parameter sets.
type SecurityLevel int

const (
	// SecurityToy is a tiny insecure parameter set (N=8, T=17) for demonstrations.
	SecurityToy SecurityLevel = iota
	// SecurityTest is a small insecure parameter set (N=64, T=257) for tests.
	SecurityTest
	// Security128LogN11 offers 128-bit classical security with N=2048 (logQ <= 54).
	Security128LogN11
	// Security128LogN12 offers 128-bit classical security with N=4096 (logQ <= 109).
	Security128LogN12
	// Security128LogN13 offers 128-bit classical security with N=8192 (logQ <= 218).
	Security128LogN13
)

// String returns a human readable name of the security level.
func (s SecurityLevel) String() string {
	switch s {
	case SecurityToy:
		return "Toy"
	case SecurityTest:
		return "Test"
	case Security128LogN11:
		return "128-bit/LogN=11"
	case Security128LogN12:
		return "128-bit/LogN=12"
	case Security128LogN13:
		return "128-bit/LogN=13"
	default:
		return fmt.Sprintf("SecurityLevel(%d)", int(s))
	}
}

// ParametersLiteral returns the parameters literal of the security level.
func (s SecurityLevel) ParametersLiteral() (ParametersLiteral, error) {
	switch s {
	case SecurityToy:
		return ExampleParametersToy, nil
	case SecurityTest:
		return ExampleParametersTest, nil
	case Security128LogN11:
		return ExampleParametersLogN11LogQ54, nil
	case Security128LogN12:
		return ExampleParametersLogN12LogQ109, nil
	case Security128LogN13:
		return ExampleParametersLogN13LogQ218, nil
	default:
		return ParametersLiteral{}, newConfigurationError("SecurityLevel", "unknown security level %d", int(s))
	}
}

// NewParametersFromSecurityLevel creates a new [Parameters] from a predefined security level.
func NewParametersFromSecurityLevel(level SecurityLevel) (params Parameters, err error) {
	var pl ParametersLiteral
	if pl, err = level.ParametersLiteral(); err != nil {
		return
	}
	return NewParametersFromLiteral(pl)
}
