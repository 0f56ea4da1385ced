package bfv

import (
	"math/big"
)

func mulPow2(t uint64, logScale uint) *big.Int {
	return new(big.Int).Lsh(new(big.Int).SetUint64(t), logScale)
}

var (
	// ExampleParametersToy is an insecure parameter set with N=8, T=17 and Q=17*2^50.
	// T = 1 mod 16, so the plaintext space supports batching.
	ExampleParametersToy = ParametersLiteral{
		LogN:             3,
		Q:                mulPow2(17, 50),
		PlaintextModulus: 17,
	}

	// ExampleParametersTest is an insecure parameter set with N=64, T=257 and Q=257*2^60.
	ExampleParametersTest = ParametersLiteral{
		LogN:             6,
		Q:                mulPow2(257, 60),
		PlaintextModulus: 257,
	}

	// ExampleParametersLogN11LogQ54 is an example parameters set with logN=11 and logQ=54
	// offering 128-bit of security.
	ExampleParametersLogN11LogQ54 = ParametersLiteral{
		LogN:             11,
		Q:                mulPow2(65537, 37),
		PlaintextModulus: 65537,
	}

	// ExampleParametersLogN12LogQ109 is an example parameters set with logN=12 and logQ=109
	// offering 128-bit of security.
	ExampleParametersLogN12LogQ109 = ParametersLiteral{
		LogN:             12,
		Q:                mulPow2(65537, 92),
		PlaintextModulus: 65537,
	}

	// ExampleParametersLogN13LogQ218 is an example parameters set with logN=13 and logQ=218
	// offering 128-bit of security.
	ExampleParametersLogN13LogQ218 = ParametersLiteral{
		LogN:             13,
		Q:                mulPow2(65537, 201),
		PlaintextModulus: 65537,
	}
)
