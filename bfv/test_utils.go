package bfv

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

type TestContext struct {
	Params   Parameters
	Ecd      *Encoder
	BatchEcd *BatchEncoder

	Prng sampling.PRNG

	Kgen *KeyGenerator
	Sk   *SecretKey
	Pk   *PublicKey
	Evk  *EvaluationKey

	Enc *Encryptor
	Dec *Decryptor

	Evl *Evaluator
}

func NewTestContext(params ParametersLiteral) *TestContext {
	tc := new(TestContext)

	var err error

	if tc.Params, err = NewParametersFromLiteral(params); err != nil {
		panic(err)
	}

	tc.Ecd = NewEncoder(tc.Params)
	tc.BatchEcd = NewBatchEncoder(tc.Params)

	if tc.Prng, err = sampling.NewPRNG(); err != nil {
		panic(err)
	}

	if tc.Kgen, err = NewKeyGenerator(tc.Params, tc.Prng); err != nil {
		panic(err)
	}

	tc.Sk, tc.Pk = tc.Kgen.GenKeyPairNew()

	if tc.Evk, err = tc.Kgen.GenEvaluationKeyNew(tc.Sk); err != nil {
		panic(err)
	}

	if tc.Enc, err = NewEncryptor(tc.Params, tc.Pk, tc.Prng); err != nil {
		panic(err)
	}

	if tc.Dec, err = NewDecryptor(tc.Params, tc.Sk); err != nil {
		panic(err)
	}

	if tc.Evl, err = NewEvaluator(tc.Params, tc.Evk, nil); err != nil {
		panic(err)
	}

	return tc
}

func (tc TestContext) String() string {
	return fmt.Sprintf("LogN=%d/logQ=%d/logT=%d/Base=%d",
		tc.Params.LogN(),
		tc.Params.LogQ(),
		tc.Params.LogT(),
		tc.Params.DecompositionBase())
}

// VerifyTestVectors decodes have, a *Plaintext or a *Ciphertext, and checks that it matches want.
func VerifyTestVectors(params Parameters, encoder *Encoder, decryptor *Decryptor, have interface{}, want []uint64, t *testing.T) {
	values := make([]uint64, params.N())

	switch have := have.(type) {
	case *Plaintext:
		require.NoError(t, encoder.Decode(have, values))
	case *Ciphertext:
		pt, err := decryptor.Decrypt(have)
		require.NoError(t, err)
		require.NoError(t, encoder.Decode(pt, values))
	default:
		t.Error("invalid unsupported test object type")
	}

	require.True(t, slices.Equal(values, want), "have %v, want %v", values, want)
}

// NewTestVector returns N random values mod T, their encoding and, if encryptor is not nil, their encryption.
func NewTestVector(params Parameters, encoder *Encoder, encryptor *Encryptor) (values []uint64, pt *Plaintext, ct *Ciphertext) {
	values = make([]uint64, params.N())
	for i := range values {
		values[i] = sampling.RandUint64() % params.PlaintextModulus()
	}

	pt = NewPlaintext(params)
	if err := encoder.Encode(values, pt); err != nil {
		panic(err)
	}
	if encryptor != nil {
		var err error
		if ct, err = encryptor.Encrypt(pt); err != nil {
			panic(err)
		}
	}
	return
}
