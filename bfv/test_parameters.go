package bfv

var (
	// TestParams is the set of parameters the tests of this package run on.
	TestParams = []ParametersLiteral{ExampleParametersToy, ExampleParametersTest}

	// TestParamsNoBatching has a composite plaintext modulus, for which batching falls back
	// to coefficient encoding.
	TestParamsNoBatching = ParametersLiteral{
		LogN:             5,
		Q:                mulPow2(12, 50),
		PlaintextModulus: 12,
	}

	// TestDecompositionBases is the set of relinearization bases the tests run on.
	TestDecompositionBases = []uint64{2, 4, 16, 256}
)
