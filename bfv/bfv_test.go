package bfv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/big"
	"runtime"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

var flagParamString = flag.String("params", "", "specify the test cryptographic parameters as a JSON string. Overrides the default test parameters.")

func name(op string, tc *TestContext) string {
	return fmt.Sprintf("%s/%s", op, tc)
}

func TestBFV(t *testing.T) {
	var err error

	paramsLiterals := TestParams

	if *flagParamString != "" {
		var jsonParams ParametersLiteral
		if err = json.Unmarshal([]byte(*flagParamString), &jsonParams); err != nil {
			t.Fatal(err)
		}
		paramsLiterals = []ParametersLiteral{jsonParams} // the custom test suite reads the parameters from the -params flag
	}

	for _, p := range paramsLiterals[:] {

		tc := NewTestContext(p)

		for _, testSet := range []func(tc *TestContext, t *testing.T){
			testParameters,
			testKeyGenerator,
			testEncoder,
			testBatchEncoder,
			testEncryptor,
			testEvaluator,
			testRelinearizer,
			testNoise,
			testMarshaller,
			testBatch,
		} {
			testSet(tc, t)
			runtime.GC()
		}
	}
}

func valuesToPoly(values []uint64) (p ring.Poly) {
	p = ring.NewPoly(len(values))
	for i, v := range values {
		p.Coeffs[i].SetUint64(v)
	}
	return
}

func polyToValues(p ring.Poly) (values []uint64) {
	values = make([]uint64, p.N())
	for i := range values {
		values[i] = p.Coeffs[i].Uint64()
	}
	return
}

func requireUsageError(t *testing.T, err error) {
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUsage)
	var uerr *UsageError
	require.True(t, errors.As(err, &uerr))
}

func requireConfigurationError(t *testing.T, err error, field string) {
	require.Error(t, err)
	require.ErrorIs(t, err, ErrConfiguration)
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, field, cerr.Field)
}

func testParameters(tc *TestContext, t *testing.T) {

	t.Run(name("Parameters/Marshaller/Binary", tc), func(t *testing.T) {
		bytes, err := tc.Params.MarshalBinary()
		require.Nil(t, err)
		require.Equal(t, tc.Params.BinarySize(), len(bytes))
		var p Parameters
		require.Nil(t, p.UnmarshalBinary(bytes))
		require.True(t, tc.Params.Equal(&p))
	})

	t.Run(name("Parameters/Marshaller/JSON", tc), func(t *testing.T) {
		// checks that parameters can be marshalled without error
		data, err := json.Marshal(tc.Params)
		require.Nil(t, err)
		require.NotNil(t, data)

		// checks that the Parameters can be unmarshalled without error
		var paramsRec Parameters
		err = json.Unmarshal(data, &paramsRec)
		require.Nil(t, err)
		require.True(t, tc.Params.Equal(&paramsRec))

		// checks that omitted distributions and base result in the defaults being used
		dataMinimal := []byte(fmt.Sprintf(`{"LogN":%d,"Q":%s,"PlaintextModulus":%d}`, tc.Params.LogN(), tc.Params.Q(), tc.Params.PlaintextModulus()))
		var paramsMinimal Parameters
		require.Nil(t, json.Unmarshal(dataMinimal, &paramsMinimal))
		require.Equal(t, DefaultXe, paramsMinimal.Xe())
		require.Equal(t, DefaultXs, paramsMinimal.Xs())
		require.Equal(t, uint64(DefaultDecompositionBase), paramsMinimal.DecompositionBase())

		// checks that one can provide custom parameters for the secret-key and error distributions
		dataWithCustomSecrets := []byte(fmt.Sprintf(`{"LogN":%d,"Q":%s,"PlaintextModulus":%d,"Xs":{"Type":"Ternary","H":4},"Xe":{"Type":"DiscreteGaussian","Sigma":6.6,"Bound":39.6},"DecompositionBase":16}`,
			tc.Params.LogN(), tc.Params.Q(), tc.Params.PlaintextModulus()))
		var paramsWithCustomSecrets Parameters
		require.Nil(t, json.Unmarshal(dataWithCustomSecrets, &paramsWithCustomSecrets))
		require.Equal(t, ring.DiscreteGaussian{Sigma: 6.6, Bound: 39.6}, paramsWithCustomSecrets.Xe())
		require.Equal(t, ring.Ternary{H: 4}, paramsWithCustomSecrets.Xs())
		require.Equal(t, uint64(16), paramsWithCustomSecrets.DecompositionBase())
		require.Equal(t, 6.6, paramsWithCustomSecrets.NoiseSigma())

		// unknown distributions are rejected
		var pl ParametersLiteral
		require.Error(t, json.Unmarshal([]byte(`{"LogN":3,"Q":34,"PlaintextModulus":17,"Xs":{"Type":"Binomial"}}`), &pl))
	})

	t.Run(name("Parameters/Literal", tc), func(t *testing.T) {
		pl := tc.Params.ParametersLiteral()
		require.True(t, cmp.Equal(pl.Q, tc.Params.Q(), cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })))
		p, err := NewParametersFromLiteral(pl)
		require.NoError(t, err)
		require.True(t, p.Equal(&tc.Params))

		Delta := new(big.Int).Mul(tc.Params.Delta(), new(big.Int).SetUint64(tc.Params.PlaintextModulus()))
		require.Zero(t, Delta.Cmp(tc.Params.Q()))

		// B^(l-1) < Q <= B^l
		B := new(big.Int).SetUint64(tc.Params.DecompositionBase())
		l := tc.Params.DigitCount(tc.Params.DecompositionBase())
		require.True(t, new(big.Int).Exp(B, big.NewInt(int64(l)), nil).Cmp(tc.Params.Q()) >= 0)
		require.True(t, new(big.Int).Exp(B, big.NewInt(int64(l-1)), nil).Cmp(tc.Params.Q()) < 0)
	})

	t.Run(name("Parameters/Invalid", tc), func(t *testing.T) {

		valid := tc.Params.ParametersLiteral()

		for _, c := range []struct {
			field  string
			modify func(pl *ParametersLiteral)
		}{
			{"LogN", func(pl *ParametersLiteral) { pl.LogN = 0 }},
			{"LogN", func(pl *ParametersLiteral) { pl.LogN = MaxLogN + 1 }},
			{"Q", func(pl *ParametersLiteral) { pl.Q = nil }},
			{"Q", func(pl *ParametersLiteral) { pl.Q = new(big.Int).Add(pl.Q, big.NewInt(1)) }},
			{"PlaintextModulus", func(pl *ParametersLiteral) { pl.PlaintextModulus = 1 }},
			{"PlaintextModulus", func(pl *ParametersLiteral) { pl.Q, pl.PlaintextModulus = big.NewInt(17), 17 }},
			{"DecompositionBase", func(pl *ParametersLiteral) { pl.DecompositionBase = 1 }},
			{"Xs", func(pl *ParametersLiteral) { pl.Xs = ring.Uniform{} }},
			{"Xe", func(pl *ParametersLiteral) { pl.Xe = ring.DiscreteGaussian{Sigma: 0, Bound: 1} }},
			{"Xs", func(pl *ParametersLiteral) { pl.Xs = ring.Ternary{H: 1 << (pl.LogN + 1)} }},
		} {
			pl := valid
			c.modify(&pl)
			_, err := NewParametersFromLiteral(pl)
			requireConfigurationError(t, err, c.field)
		}
	})

	t.Run(name("Parameters/SecurityLevel", tc), func(t *testing.T) {
		for _, level := range []SecurityLevel{SecurityToy, SecurityTest, Security128LogN11, Security128LogN12, Security128LogN13} {
			params, err := NewParametersFromSecurityLevel(level)
			require.NoError(t, err, level.String())
			pl, err := level.ParametersLiteral()
			require.NoError(t, err)
			require.Equal(t, pl.LogN, params.LogN())
			require.Greater(t, EstimateMultiplicationDepth(params), 0)
		}

		_, err := NewParametersFromSecurityLevel(SecurityLevel(42))
		requireConfigurationError(t, err, "SecurityLevel")
	})

	t.Run(name("Parameters/EstimateMultiplicationDepth", tc), func(t *testing.T) {
		want := (tc.Params.LogQ() - tc.Params.LogT() - 10) / 2
		require.Equal(t, max(0, want), EstimateMultiplicationDepth(tc.Params))

		params, err := NewParametersFromLiteral(ParametersLiteral{LogN: 3, Q: mulPow2(17, 8), PlaintextModulus: 17})
		require.NoError(t, err)
		require.Equal(t, 0, EstimateMultiplicationDepth(params))
	})

	t.Run(name("Parameters/Uninitialized", tc), func(t *testing.T) {
		_, err := NewKeyGenerator(Parameters{}, nil)
		requireConfigurationError(t, err, "Parameters")
		_, err = NewEncryptor(Parameters{}, tc.Pk, nil)
		requireConfigurationError(t, err, "Parameters")
		_, err = NewDecryptor(Parameters{}, tc.Sk)
		requireConfigurationError(t, err, "Parameters")
		_, err = NewEvaluator(Parameters{}, nil, nil)
		requireConfigurationError(t, err, "Parameters")
	})
}

func testKeyGenerator(tc *TestContext, t *testing.T) {

	params := tc.Params
	ringQ := params.RingQ()
	bound := big.NewInt(int64(math.Ceil(DefaultNoiseBound)))

	t.Run(name("KeyGenerator/SecretKey", tc), func(t *testing.T) {
		sk := tc.Kgen.GenSecretKeyNew()
		require.Equal(t, params.N(), sk.Value.N())
		require.True(t, ringQ.NormInf(sk.Value).Cmp(big.NewInt(1)) <= 0)
	})

	t.Run(name("KeyGenerator/PublicKey", tc), func(t *testing.T) {
		pk, err := tc.Kgen.GenPublicKeyNew(tc.Sk)
		require.NoError(t, err)

		// b + a*s = e
		e := pk.Value[0].CopyNew()
		ringQ.MulThenAdd(pk.Value[1], tc.Sk.Value, e)
		require.True(t, ringQ.NormInf(e).Cmp(bound) <= 0)

		_, err = tc.Kgen.GenPublicKeyNew(nil)
		requireUsageError(t, err)
	})

	t.Run(name("KeyGenerator/Deterministic", tc), func(t *testing.T) {
		var sks [2]*SecretKey
		var pks [2]*PublicKey
		for i := range sks {
			prng, err := sampling.NewKeyedPRNG([]byte{'k', 'e', 'y'})
			require.NoError(t, err)
			kgen, err := NewKeyGenerator(params, prng)
			require.NoError(t, err)
			sks[i], pks[i] = kgen.GenKeyPairNew()
		}
		require.True(t, sks[0].Value.Equal(sks[1].Value))
		require.True(t, pks[0].Equal(pks[1]))
	})

	for _, base := range TestDecompositionBases {
		t.Run(name(fmt.Sprintf("KeyGenerator/EvaluationKey/Base=%d", base), tc), func(t *testing.T) {

			evk, err := tc.Kgen.GenEvaluationKeyNew(tc.Sk, base)
			require.NoError(t, err)
			require.Equal(t, base, evk.Base)
			require.Equal(t, params.DigitCount(base), evk.DigitCount())
			require.Equal(t, params.N(), evk.N())

			s2 := ringQ.NewPoly()
			ringQ.Mul(tc.Sk.Value, tc.Sk.Value, s2)

			// b_i + a_i*s - B^i*s^2 = e_i
			Bi := big.NewInt(1)
			tmp := ringQ.NewPoly()
			for i := range evk.Value {
				e := evk.Value[i][0].CopyNew()
				ringQ.MulThenAdd(evk.Value[i][1], tc.Sk.Value, e)
				ringQ.MulScalarBigint(s2, Bi, tmp)
				ringQ.Sub(e, tmp, e)
				require.True(t, ringQ.NormInf(e).Cmp(bound) <= 0, "digit %d", i)
				Bi.Mul(Bi, new(big.Int).SetUint64(base))
			}
		})
	}

	t.Run(name("KeyGenerator/EvaluationKey/Invalid", tc), func(t *testing.T) {
		_, err := tc.Kgen.GenEvaluationKeyNew(tc.Sk, 1)
		requireConfigurationError(t, err, "DecompositionBase")

		_, err = tc.Kgen.GenEvaluationKeyNew(tc.Sk, 2, 4)
		requireUsageError(t, err)

		_, err = tc.Kgen.GenEvaluationKeyNew(&SecretKey{Value: ring.NewPoly(params.N() * 2)})
		requireUsageError(t, err)
	})

	t.Run(name("KeyGenerator/OtherModulus", tc), func(t *testing.T) {

		// same degree and plaintext modulus, Q three times larger
		pl := params.ParametersLiteral()
		pl.Q.Mul(pl.Q, big.NewInt(3))
		other, err := NewParametersFromLiteral(pl)
		require.NoError(t, err)

		kgen, err := NewKeyGenerator(other, nil)
		require.NoError(t, err)
		sk, pk := kgen.GenKeyPairNew()

		_, err = tc.Kgen.GenPublicKeyNew(sk)
		requireUsageError(t, err)
		_, err = tc.Kgen.GenEvaluationKeyNew(sk)
		requireUsageError(t, err)
		_, err = NewDecryptor(params, sk)
		requireUsageError(t, err)
		_, err = NewEncryptor(params, pk, nil)
		requireUsageError(t, err)

		_, pt, ct := NewTestVector(params, tc.Ecd, tc.Enc)
		_, err = NoisePoly(sk, ct, pt)
		requireUsageError(t, err)
		_, err = AnalyzeNoise(sk, ct, pt)
		requireUsageError(t, err)

		// the keys remain valid for their own parameters
		_, err = NewDecryptor(other, sk)
		require.NoError(t, err)
		_, err = NewEncryptor(other, pk, nil)
		require.NoError(t, err)
	})
}

func testEncoder(tc *TestContext, t *testing.T) {

	params := tc.Params
	T := params.PlaintextModulus()
	N := params.N()

	t.Run(name("Encoder/Uint", tc), func(t *testing.T) {
		values, plaintext, _ := NewTestVector(params, tc.Ecd, nil)
		VerifyTestVectors(params, tc.Ecd, tc.Dec, plaintext, values, t)
	})

	t.Run(name("Encoder/Int", tc), func(t *testing.T) {
		THalf := T >> 1
		coeffsInt := make([]int64, N)
		for i := range coeffsInt {
			c := sampling.RandUint64() % T
			if c > THalf {
				coeffsInt[i] = -int64(T - c)
			} else {
				coeffsInt[i] = int64(c)
			}
		}

		plaintext, err := tc.Ecd.EncodeNew(coeffsInt)
		require.NoError(t, err)
		have, err := tc.Ecd.DecodeInt(plaintext)
		require.NoError(t, err)
		require.True(t, slices.Equal(coeffsInt, have))

		unsigned, err := tc.Ecd.DecodeUint(plaintext)
		require.NoError(t, err)
		for i := range unsigned {
			require.Equal(t, uint64((coeffsInt[i]+int64(T))%int64(T)), unsigned[i])
		}
	})

	t.Run(name("Encoder/PadAndTruncate", tc), func(t *testing.T) {
		pt, err := tc.Ecd.EncodeNew([]uint64{1, 2, T + 3})
		require.NoError(t, err)
		want := make([]uint64, N)
		want[0], want[1], want[2] = 1, 2, 3
		VerifyTestVectors(params, tc.Ecd, tc.Dec, pt, want, t)

		long := make([]uint64, 2*N)
		for i := range long {
			long[i] = uint64(i) % T
		}
		pt, err = tc.Ecd.EncodeNew(long)
		require.NoError(t, err)
		VerifyTestVectors(params, tc.Ecd, tc.Dec, pt, long[:N], t)

		short := make([]uint64, 2)
		require.NoError(t, tc.Ecd.Decode(pt, short))
		require.Equal(t, long[:2], short)
	})

	t.Run(name("Encoder/Invalid", tc), func(t *testing.T) {
		_, err := tc.Ecd.EncodeNew([]float64{1})
		requireUsageError(t, err)
		requireUsageError(t, tc.Ecd.Decode(NewPlaintext(params), []float64{1}))
		requireUsageError(t, tc.Ecd.Encode([]uint64{1}, nil))
	})
}

func testBatchEncoder(tc *TestContext, t *testing.T) {

	params := tc.Params
	T := params.PlaintextModulus()
	ecd := tc.BatchEcd

	if !ecd.CanBatch() {
		return
	}

	newSlots := func() []uint64 {
		values := make([]uint64, ecd.SlotCount())
		for i := range values {
			values[i] = sampling.RandUint64() % T
		}
		return values
	}

	t.Run(name("BatchEncoder/Root", tc), func(t *testing.T) {
		require.Equal(t, params.N()/2, ecd.SlotCount())
		require.Equal(t, T-1, ring.ModExp(ecd.Psi(), uint64(params.N()), T))
	})

	t.Run(name("BatchEncoder/RoundTrip", tc), func(t *testing.T) {
		values := newSlots()
		pt, err := ecd.BatchEncodeNew(values)
		require.NoError(t, err)
		have, err := ecd.BatchDecode(pt)
		require.NoError(t, err)
		require.Equal(t, values, have)

		// missing slots are zero
		pt, err = ecd.BatchEncodeNew(values[:1])
		require.NoError(t, err)
		have, err = ecd.BatchDecode(pt)
		require.NoError(t, err)
		want := make([]uint64, ecd.SlotCount())
		want[0] = values[0]
		require.Equal(t, want, have)
	})

	t.Run(name("BatchEncoder/SlotWiseProduct", tc), func(t *testing.T) {
		v0, v1 := newSlots(), newSlots()
		pt0, err := ecd.BatchEncodeNew(v0)
		require.NoError(t, err)
		pt1, err := ecd.BatchEncodeNew(v1)
		require.NoError(t, err)

		want := make([]uint64, len(v0))
		for i := range want {
			want[i] = ring.MulMod(v0[i], v1[i], T)
		}

		prod := NewPlaintext(params)
		params.RingT().Mul(pt0.Value, pt1.Value, prod.Value)
		have, err := ecd.BatchDecode(prod)
		require.NoError(t, err)
		require.Equal(t, want, have)

		ct0, err := tc.Enc.Encrypt(pt0)
		require.NoError(t, err)
		ct1, err := tc.Enc.Encrypt(pt1)
		require.NoError(t, err)
		ct, err := tc.Evl.MulRelin(ct0, ct1)
		require.NoError(t, err)
		pt, err := tc.Dec.Decrypt(ct)
		require.NoError(t, err)
		have, err = ecd.BatchDecode(pt)
		require.NoError(t, err)
		require.Equal(t, want, have)
	})

	t.Run(name("BatchEncoder/Invalid", tc), func(t *testing.T) {
		_, err := ecd.BatchDecode(nil)
		requireUsageError(t, err)
		other := NewTestContext(TestParamsNoBatching)
		requireUsageError(t, ecd.BatchEncode([]uint64{1}, NewPlaintext(other.Params)))
	})
}

func TestBatchEncoderFallback(t *testing.T) {

	tc := NewTestContext(TestParamsNoBatching)
	ecd := tc.BatchEcd

	require.False(t, ecd.CanBatch())
	require.Zero(t, ecd.Psi())
	require.Equal(t, tc.Params.N()/2, ecd.SlotCount())

	values := make([]uint64, ecd.SlotCount()+3)
	for i := range values {
		values[i] = uint64(i) % tc.Params.PlaintextModulus()
	}

	pt, err := ecd.BatchEncodeNew(values)
	require.NoError(t, err)

	want := make([]uint64, tc.Params.N())
	copy(want, values[:ecd.SlotCount()])
	VerifyTestVectors(tc.Params, tc.Ecd, tc.Dec, pt, want, t)

	ct, err := tc.Enc.Encrypt(pt)
	require.NoError(t, err)
	dec, err := tc.Dec.Decrypt(ct)
	require.NoError(t, err)
	have, err := ecd.BatchDecode(dec)
	require.NoError(t, err)
	require.Equal(t, values[:ecd.SlotCount()], have)
}

func testEncryptor(tc *TestContext, t *testing.T) {

	params := tc.Params

	t.Run(name("Encryptor/RoundTrip", tc), func(t *testing.T) {
		values, _, ciphertext := NewTestVector(params, tc.Ecd, tc.Enc)
		require.Equal(t, 1, ciphertext.Degree())
		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, values, t)
	})

	t.Run(name("Encryptor/Deterministic", tc), func(t *testing.T) {
		_, pt, _ := NewTestVector(params, tc.Ecd, nil)
		var cts [2]*Ciphertext
		for i := range cts {
			prng, err := sampling.NewKeyedPRNG([]byte{'s', 'e', 'e', 'd'})
			require.NoError(t, err)
			if cts[i], err = tc.Enc.WithPRNG(prng).Encrypt(pt); err != nil {
				t.Fatal(err)
			}
		}
		require.True(t, cts[0].Equal(&cts[1].Element))

		ct, err := tc.Enc.ShallowCopy().Encrypt(pt)
		require.NoError(t, err)
		require.False(t, ct.Equal(&cts[0].Element))
	})

	t.Run(name("Encryptor/Invalid", tc), func(t *testing.T) {
		_, err := NewEncryptor(params, nil, nil)
		requireUsageError(t, err)

		_, err = tc.Enc.Encrypt(nil)
		requireUsageError(t, err)

		other := NewTestContext(TestParamsNoBatching)
		_, err = tc.Enc.Encrypt(NewPlaintext(other.Params))
		requireUsageError(t, err)
	})

	t.Run(name("Decryptor/Invalid", tc), func(t *testing.T) {
		_, err := NewDecryptor(params, nil)
		requireUsageError(t, err)

		_, err = tc.Dec.Decrypt(nil)
		requireUsageError(t, err)

		// three components must be relinearized first
		_, err = tc.Dec.DecryptElement(&NewExpandedCiphertext(params).Element)
		requireUsageError(t, err)

		_, err = tc.Dec.DecryptElement(NewElement(params, 1))
		requireUsageError(t, err)

		other := NewTestContext(TestParamsNoBatching)
		_, err = tc.Dec.Decrypt(NewCiphertext(other.Params))
		requireUsageError(t, err)
	})
}

func testEvaluator(tc *TestContext, t *testing.T) {

	params := tc.Params
	ringT := params.RingT()

	t.Run(name("Evaluator/Add", tc), func(t *testing.T) {
		values0, _, ciphertext0 := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, _, ciphertext1 := NewTestVector(params, tc.Ecd, tc.Enc)

		p0, p1 := valuesToPoly(values0), valuesToPoly(values1)

		ciphertext2, err := tc.Evl.Add(ciphertext0, ciphertext1)
		require.NoError(t, err)
		ringT.Add(p0, p1, p0)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext2, polyToValues(p0), t)

		// operands are left untouched
		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext1, values1, t)
	})

	t.Run(name("Evaluator/Sub", tc), func(t *testing.T) {
		values0, _, ciphertext0 := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, _, ciphertext1 := NewTestVector(params, tc.Ecd, tc.Enc)

		p0, p1 := valuesToPoly(values0), valuesToPoly(values1)

		ciphertext2, err := tc.Evl.Sub(ciphertext0, ciphertext1)
		require.NoError(t, err)
		ringT.Sub(p0, p1, p0)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext2, polyToValues(p0), t)
	})

	t.Run(name("Evaluator/Neg", tc), func(t *testing.T) {
		values, _, ciphertext := NewTestVector(params, tc.Ecd, tc.Enc)

		p := valuesToPoly(values)

		ciphertext, err := tc.Evl.Neg(ciphertext)
		require.NoError(t, err)
		ringT.Neg(p, p)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, polyToValues(p), t)
	})

	t.Run(name("Evaluator/AddPlain", tc), func(t *testing.T) {
		values0, _, ciphertext := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, plaintext, _ := NewTestVector(params, tc.Ecd, nil)

		p0, p1 := valuesToPoly(values0), valuesToPoly(values1)

		ciphertext, err := tc.Evl.AddPlain(ciphertext, plaintext)
		require.NoError(t, err)
		ringT.Add(p0, p1, p0)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, polyToValues(p0), t)
	})

	t.Run(name("Evaluator/MulScalar", tc), func(t *testing.T) {
		values, _, ciphertext := NewTestVector(params, tc.Ecd, tc.Enc)

		scalar := int64(params.PlaintextModulus() >> 1)

		p := valuesToPoly(values)

		ciphertext, err := tc.Evl.MulScalar(ciphertext, -scalar)
		require.NoError(t, err)
		ringT.MulScalar(p, -scalar, p)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, polyToValues(p), t)
	})

	t.Run(name("Evaluator/MulPlain", tc), func(t *testing.T) {
		values0, _, ciphertext := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, plaintext, _ := NewTestVector(params, tc.Ecd, nil)

		p0, p1 := valuesToPoly(values0), valuesToPoly(values1)

		ciphertext, err := tc.Evl.MulPlain(ciphertext, plaintext)
		require.NoError(t, err)
		ringT.Mul(p0, p1, p0)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, polyToValues(p0), t)
	})

	t.Run(name("Evaluator/Mul/Relinearize", tc), func(t *testing.T) {
		values0, _, ciphertext0 := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, _, ciphertext1 := NewTestVector(params, tc.Ecd, tc.Enc)

		p0, p1 := valuesToPoly(values0), valuesToPoly(values1)

		expanded, err := tc.Evl.Mul(ciphertext0, ciphertext1)
		require.NoError(t, err)
		require.Equal(t, 2, expanded.Degree())

		ciphertext2, err := tc.Evl.Relinearize(expanded)
		require.NoError(t, err)
		require.Equal(t, 1, ciphertext2.Degree())
		ringT.Mul(p0, p1, p0)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext2, polyToValues(p0), t)
	})

	t.Run(name("Evaluator/MulRelin/Depth2", tc), func(t *testing.T) {
		values0, _, ciphertext0 := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, _, ciphertext1 := NewTestVector(params, tc.Ecd, tc.Enc)
		values2, _, ciphertext2 := NewTestVector(params, tc.Ecd, tc.Enc)

		p0, p1, p2 := valuesToPoly(values0), valuesToPoly(values1), valuesToPoly(values2)

		ciphertext, err := tc.Evl.MulRelin(ciphertext0, ciphertext1)
		require.NoError(t, err)
		ciphertext, err = tc.Evl.MulRelin(ciphertext, ciphertext2)
		require.NoError(t, err)

		ringT.Mul(p0, p1, p0)
		ringT.Mul(p0, p2, p0)

		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, polyToValues(p0), t)
	})

	for _, base := range TestDecompositionBases {
		t.Run(name(fmt.Sprintf("Evaluator/MulRelin/Base=%d", base), tc), func(t *testing.T) {
			evk, err := tc.Kgen.GenEvaluationKeyNew(tc.Sk, base)
			require.NoError(t, err)
			eval, err := tc.Evl.WithKey(evk)
			require.NoError(t, err)

			values0, _, ciphertext0 := NewTestVector(params, tc.Ecd, tc.Enc)
			values1, _, ciphertext1 := NewTestVector(params, tc.Ecd, tc.Enc)

			p0, p1 := valuesToPoly(values0), valuesToPoly(values1)

			ciphertext, err := eval.MulRelin(ciphertext0, ciphertext1)
			require.NoError(t, err)
			require.Len(t, ciphertext.Value, 2)
			ringT.Mul(p0, p1, p0)

			VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, polyToValues(p0), t)
		})
	}

	t.Run(name("Evaluator/AddElements/Padding", tc), func(t *testing.T) {
		values0, _, ciphertext0 := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, _, ciphertext1 := NewTestVector(params, tc.Ecd, tc.Enc)
		values2, _, ciphertext2 := NewTestVector(params, tc.Ecd, tc.Enc)

		p0, p1, p2 := valuesToPoly(values0), valuesToPoly(values1), valuesToPoly(values2)

		expanded, err := tc.Evl.Mul(ciphertext0, ciphertext1)
		require.NoError(t, err)

		sum, err := tc.Evl.AddElements(&ciphertext2.Element, &expanded.Element)
		require.NoError(t, err)
		require.Len(t, sum.Value, 3)

		diff, err := tc.Evl.SubElements(&ciphertext2.Element, &expanded.Element)
		require.NoError(t, err)
		require.Len(t, diff.Value, 3)

		ringT.Mul(p0, p1, p0)

		wantSum, wantDiff := ringT.NewPoly(), ringT.NewPoly()
		ringT.Add(p2, p0, wantSum)
		ringT.Sub(p2, p0, wantDiff)

		rlk, err := NewRelinearizer(params, tc.Evk)
		require.NoError(t, err)

		for _, c := range []struct {
			el   *Element
			want ring.Poly
		}{
			{sum, wantSum},
			{diff, wantDiff},
		} {
			relin, err := rlk.RelinearizeElement(c.el)
			require.NoError(t, err)
			ct, err := relin.AsCiphertext()
			require.NoError(t, err)
			VerifyTestVectors(params, tc.Ecd, tc.Dec, ct, polyToValues(c.want), t)
		}
	})

	t.Run(name("Evaluator/Pool", tc), func(t *testing.T) {
		pool := ring.NewPool(params.N())

		eval0, err := NewEvaluator(params, tc.Evk, pool)
		require.NoError(t, err)
		eval1, err := NewEvaluator(params, tc.Evk, pool)
		require.NoError(t, err)

		values0, _, ciphertext0 := NewTestVector(params, tc.Ecd, tc.Enc)
		values1, _, ciphertext1 := NewTestVector(params, tc.Ecd, tc.Enc)
		p0, p1 := valuesToPoly(values0), valuesToPoly(values1)

		ciphertext, err := eval0.MulRelin(ciphertext0, ciphertext1)
		require.NoError(t, err)
		ciphertext, err = eval1.Add(ciphertext, ciphertext0)
		require.NoError(t, err)

		ringT.Mul(p0, p1, p1)
		ringT.Add(p0, p1, p0)
		VerifyTestVectors(params, tc.Ecd, tc.Dec, ciphertext, polyToValues(p0), t)

		_, err = NewEvaluator(params, nil, ring.NewPool(2*params.N()))
		requireUsageError(t, err)
	})

	t.Run(name("Evaluator/Invalid", tc), func(t *testing.T) {
		_, _, ciphertext := NewTestVector(params, tc.Ecd, tc.Enc)

		expanded, err := tc.Evl.Mul(ciphertext, ciphertext)
		require.NoError(t, err)

		// multiplication requires two components
		_, err = tc.Evl.MulElements(&expanded.Element, &ciphertext.Element)
		requireUsageError(t, err)

		_, err = tc.Evl.AddElements(&ciphertext.Element, NewElement(params, 4))
		requireUsageError(t, err)

		_, err = tc.Evl.Add(ciphertext, nil)
		requireUsageError(t, err)

		// operands from other parameters
		other := NewTestContext(TestParamsNoBatching)
		_, _, otherCiphertext := NewTestVector(other.Params, other.Ecd, other.Enc)
		_, err = tc.Evl.Add(ciphertext, otherCiphertext)
		requireUsageError(t, err)
		_, err = tc.Evl.Mul(ciphertext, otherCiphertext)
		requireUsageError(t, err)
		_, err = tc.Evl.MulPlain(ciphertext, NewPlaintext(other.Params))
		requireUsageError(t, err)
		_, err = tc.Evl.AddPlain(ciphertext, NewPlaintext(other.Params))
		requireUsageError(t, err)

		// relinearization requires a key
		eval, err := NewEvaluator(params, nil, nil)
		require.NoError(t, err)
		_, err = eval.MulRelin(ciphertext, ciphertext)
		requireUsageError(t, err)
		_, err = eval.Relinearize(expanded)
		requireUsageError(t, err)

		// keys from other parameters
		_, err = NewEvaluator(params, other.Evk, nil)
		requireUsageError(t, err)
		_, err = tc.Evl.WithKey(other.Evk)
		requireUsageError(t, err)
	})
}

func testRelinearizer(tc *TestContext, t *testing.T) {

	params := tc.Params
	ringQ := params.RingQ()

	for _, base := range TestDecompositionBases {
		t.Run(name(fmt.Sprintf("Relinearizer/DigitDecompose/Base=%d", base), tc), func(t *testing.T) {

			p := ring.NewUniformSampler(tc.Prng, ringQ).ReadNew()
			digits := params.DigitCount(base)

			decomposed := DigitDecompose(ringQ, p, base, digits)
			require.Len(t, decomposed, digits)

			B := new(big.Int).SetUint64(base)
			halfB := new(big.Int).Rsh(B, 1)
			centered := ringQ.PolyToBigintCentered(p)

			centeredDigits := make([][]big.Int, digits)
			for i := range decomposed {
				centeredDigits[i] = ringQ.PolyToBigintCentered(decomposed[i])
			}

			for j := range centered {
				acc := new(big.Int)
				Bi := big.NewInt(1)
				for i := range centeredDigits {
					d := &centeredDigits[i][j]
					require.True(t, d.CmpAbs(halfB) <= 0)
					acc.Add(acc, new(big.Int).Mul(d, Bi))
					Bi.Mul(Bi, B)
				}
				require.Zero(t, acc.Cmp(&centered[j]), "coefficient %d", j)
			}

			require.Panics(t, func() {
				p.Coeffs[0].Rsh(params.Q(), 1)
				DigitDecompose(ringQ, p, base, 1)
			})
		})
	}

	t.Run(name("Relinearizer/Invalid", tc), func(t *testing.T) {
		rlk, err := NewRelinearizer(params, tc.Evk)
		require.NoError(t, err)

		_, _, ciphertext := NewTestVector(params, tc.Ecd, tc.Enc)

		_, err = rlk.RelinearizeElement(&ciphertext.Element)
		requireUsageError(t, err)

		_, err = rlk.Relinearize(nil)
		requireUsageError(t, err)

		_, err = NewRelinearizer(params, nil)
		requireUsageError(t, err)

		truncated := *tc.Evk
		truncated.Value = truncated.Value[:len(truncated.Value)-1]
		_, err = NewRelinearizer(params, &truncated)
		requireUsageError(t, err)
	})
}

func testNoise(tc *TestContext, t *testing.T) {

	params := tc.Params
	ringT := params.RingT()

	t.Run(name("Noise/Fresh", tc), func(t *testing.T) {
		_, pt, ct := NewTestVector(params, tc.Ecd, tc.Enc)

		an, err := AnalyzeNoise(tc.Sk, ct, pt)
		require.NoError(t, err)
		require.True(t, an.CanMultiply)
		require.Greater(t, an.BudgetBits, float64(MinMultiplicationBudget))
		require.Greater(t, an.NormInf.Sign(), 0)
		require.Greater(t, an.NormL2, 0.0)
		require.Greater(t, an.Std, 0.0)
		require.Contains(t, an.Advisory, "ok")

		noise, err := NoisePoly(tc.Sk, ct, pt)
		require.NoError(t, err)
		require.Zero(t, params.RingQ().NormInf(noise).Cmp(an.NormInf))
	})

	t.Run(name("Noise/Monotonicity", tc), func(t *testing.T) {
		values, pt, ct := NewTestVector(params, tc.Ecd, tc.Enc)
		p := valuesToPoly(values)

		fresh, err := AnalyzeNoise(tc.Sk, ct, pt)
		require.NoError(t, err)

		// ct + ct doubles the noise exactly
		double, err := tc.Evl.Add(ct, ct)
		require.NoError(t, err)
		p2 := ringT.NewPoly()
		ringT.Add(p, p, p2)
		pt2, err := tc.Ecd.EncodeNew(polyToValues(p2))
		require.NoError(t, err)

		an, err := AnalyzeNoise(tc.Sk, double, pt2)
		require.NoError(t, err)
		require.Zero(t, an.NormInf.Cmp(new(big.Int).Lsh(fresh.NormInf, 1)))
		require.InDelta(t, fresh.BudgetBits-1, an.BudgetBits, 1e-9)
		require.LessOrEqual(t, an.BudgetBits, fresh.BudgetBits)

		// ct * ct strictly consumes budget
		sq, err := tc.Evl.MulRelin(ct, ct)
		require.NoError(t, err)
		psq := ringT.NewPoly()
		ringT.Mul(p, p, psq)
		ptsq, err := tc.Ecd.EncodeNew(polyToValues(psq))
		require.NoError(t, err)

		an, err = AnalyzeNoise(tc.Sk, sq, ptsq)
		require.NoError(t, err)
		require.Less(t, an.BudgetBits, fresh.BudgetBits)
	})

	t.Run(name("Noise/Exhausted", tc), func(t *testing.T) {
		_, pt, ct := NewTestVector(params, tc.Ecd, tc.Enc)

		// a ciphertext of m checked against m+1 has a noise of about Delta
		one := make([]uint64, params.N())
		one[0] = 1
		shift, err := tc.Ecd.EncodeNew(one)
		require.NoError(t, err)
		sum := NewPlaintext(params)
		params.RingT().Add(pt.Value, shift.Value, sum.Value)

		an, err := AnalyzeNoise(tc.Sk, ct, sum)
		require.NoError(t, err)
		require.LessOrEqual(t, an.BudgetBits, 0.0)
		require.False(t, an.CanMultiply)
		require.Contains(t, an.Advisory, "exhausted")
	})

	t.Run(name("Noise/Invalid", tc), func(t *testing.T) {
		_, pt, ct := NewTestVector(params, tc.Ecd, tc.Enc)
		_, err := AnalyzeNoise(nil, ct, pt)
		requireUsageError(t, err)
		_, err = NoisePoly(tc.Sk, nil, pt)
		requireUsageError(t, err)
	})
}

func testMarshaller(tc *TestContext, t *testing.T) {

	params := tc.Params

	t.Run(name("Marshaller/Ciphertext", tc), func(t *testing.T) {
		_, _, ct := NewTestVector(params, tc.Ecd, tc.Enc)

		data, err := ct.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, ct.BinarySize(), len(data))

		have := NewCiphertext(params)
		require.NoError(t, have.UnmarshalBinary(data))
		require.True(t, ct.Equal(&have.Element))

		buf := new(bytes.Buffer)
		n, err := ct.WriteTo(buf)
		require.NoError(t, err)
		require.Equal(t, int64(ct.BinarySize()), n)

		have = NewCiphertext(params)
		n, err = have.ReadFrom(buf)
		require.NoError(t, err)
		require.Equal(t, int64(ct.BinarySize()), n)
		require.True(t, ct.Equal(&have.Element))
	})

	t.Run(name("Marshaller/ExpandedCiphertext", tc), func(t *testing.T) {
		_, _, ct := NewTestVector(params, tc.Ecd, tc.Enc)
		expanded, err := tc.Evl.Mul(ct, ct)
		require.NoError(t, err)

		data, err := expanded.MarshalBinary()
		require.NoError(t, err)

		have := NewExpandedCiphertext(params)
		require.NoError(t, have.UnmarshalBinary(data))
		require.True(t, expanded.Equal(&have.Element))

		// shapes are checked
		requireUsageError(t, NewCiphertext(params).UnmarshalBinary(data))

		data, err = ct.MarshalBinary()
		require.NoError(t, err)
		requireUsageError(t, NewExpandedCiphertext(params).UnmarshalBinary(data))

		el := &Element{params: params}
		require.NoError(t, el.UnmarshalBinary(data))
		require.Equal(t, 1, el.Degree())
	})

	t.Run(name("Marshaller/Header", tc), func(t *testing.T) {
		_, _, ct := NewTestVector(params, tc.Ecd, tc.Enc)
		data, err := ct.MarshalBinary()
		require.NoError(t, err)

		// receivers must be allocated with parameters
		requireUsageError(t, new(Ciphertext).UnmarshalBinary(data))

		other := NewTestContext(TestParamsNoBatching)
		requireUsageError(t, NewCiphertext(other.Params).UnmarshalBinary(data))

		require.Error(t, NewCiphertext(params).UnmarshalBinary(data[:len(data)-1]))
	})

	t.Run(name("Marshaller/PublicKey", tc), func(t *testing.T) {
		data, err := tc.Pk.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, tc.Pk.BinarySize(), len(data))

		have := new(PublicKey)
		require.NoError(t, have.UnmarshalBinary(data))
		require.True(t, tc.Pk.Equal(have))

		// the deserialized key encrypts
		enc, err := NewEncryptor(params, have, nil)
		require.NoError(t, err)
		values, _, ct := NewTestVector(params, tc.Ecd, enc)
		VerifyTestVectors(params, tc.Ecd, tc.Dec, ct, values, t)
	})

	t.Run(name("Marshaller/EvaluationKey", tc), func(t *testing.T) {
		data, err := tc.Evk.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, tc.Evk.BinarySize(), len(data))

		have := new(EvaluationKey)
		require.NoError(t, have.UnmarshalBinary(data))
		require.True(t, tc.Evk.Equal(have))

		_, err = NewRelinearizer(params, have)
		require.NoError(t, err)
	})

	t.Run(name("Marshaller/CoefficientRange", tc), func(t *testing.T) {

		Q := params.Q()

		pk := &PublicKey{Q: Q, Value: [2]ring.Poly{tc.Pk.Value[0].CopyNew(), tc.Pk.Value[1].CopyNew()}}
		pk.Value[1].Coeffs[params.N()-1].Set(Q)
		data, err := pk.MarshalBinary()
		require.NoError(t, err)
		require.Error(t, new(PublicKey).UnmarshalBinary(data))

		evk := &EvaluationKey{Base: tc.Evk.Base, Q: Q, Value: make([][2]ring.Poly, tc.Evk.DigitCount())}
		for i := range evk.Value {
			evk.Value[i] = [2]ring.Poly{tc.Evk.Value[i][0].CopyNew(), tc.Evk.Value[i][1].CopyNew()}
		}
		evk.Value[len(evk.Value)-1][0].Coeffs[0].Add(Q, big.NewInt(1))
		data, err = evk.MarshalBinary()
		require.NoError(t, err)
		require.Error(t, new(EvaluationKey).UnmarshalBinary(data))
	})

	t.Run(name("Marshaller/Fingerprint", tc), func(t *testing.T) {
		fp0, err := Fingerprint(tc.Pk)
		require.NoError(t, err)
		fp1, err := Fingerprint(tc.Pk)
		require.NoError(t, err)
		require.Equal(t, fp0, fp1)

		pk, err := tc.Kgen.GenPublicKeyNew(tc.Sk)
		require.NoError(t, err)
		fp2, err := Fingerprint(pk)
		require.NoError(t, err)
		require.NotEqual(t, fp0, fp2)

		fp3, err := Fingerprint(tc.Evk)
		require.NoError(t, err)
		require.NotEqual(t, fp0, fp3)
	})
}

func testBatch(tc *TestContext, t *testing.T) {

	params := tc.Params

	newBatch := func(n int) (values [][]uint64, pts []*Plaintext) {
		values = make([][]uint64, n)
		pts = make([]*Plaintext, n)
		for i := range pts {
			values[i], pts[i], _ = NewTestVector(params, tc.Ecd, nil)
		}
		return
	}

	t.Run(name("Batch/EncryptDecrypt", tc), func(t *testing.T) {
		values, pts := newBatch(9)

		cts, err := BatchEncrypt(context.Background(), tc.Enc, pts, 4)
		require.NoError(t, err)
		require.Len(t, cts, len(pts))

		decrypted, err := BatchDecrypt(context.Background(), tc.Dec, cts, 0)
		require.NoError(t, err)
		require.Len(t, decrypted, len(cts))

		for i := range decrypted {
			VerifyTestVectors(params, tc.Ecd, tc.Dec, decrypted[i], values[i], t)
		}
	})

	t.Run(name("Batch/Deterministic", tc), func(t *testing.T) {
		_, pts := newBatch(5)
		seed := []byte("batch seed")

		cts0, err := BatchEncryptDeterministic(context.Background(), tc.Enc, pts, 1, seed)
		require.NoError(t, err)
		cts1, err := BatchEncryptDeterministic(context.Background(), tc.Enc, pts, 3, seed)
		require.NoError(t, err)

		for i := range cts0 {
			require.True(t, cts0[i].Equal(&cts1[i].Element), "item %d", i)
		}

		// items use distinct randomness
		require.False(t, cts0[0].Equal(&cts0[1].Element))
	})

	t.Run(name("Batch/Cancelled", tc), func(t *testing.T) {
		_, pts := newBatch(3)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := BatchEncrypt(ctx, tc.Enc, pts, 2)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run(name("Batch/Error", tc), func(t *testing.T) {
		_, pts := newBatch(3)
		pts[1] = nil

		_, err := BatchEncrypt(context.Background(), tc.Enc, pts, 2)
		requireUsageError(t, err)

		_, err = BatchDecrypt(context.Background(), tc.Dec, []*Ciphertext{NewCiphertext(params), nil}, 2)
		requireUsageError(t, err)

		_, err = BatchEncrypt(context.Background(), nil, pts, 2)
		requireUsageError(t, err)
	})
}

// TestScenario runs the reference scenario on N=8, T=17, Q=17*2^50.
func TestScenario(t *testing.T) {

	tc := NewTestContext(ExampleParametersToy)

	v := []uint64{1, 2, 3, 4, 0, 0, 0, 0}
	w := []uint64{5, 5, 5, 5, 0, 0, 0, 0}
	two := []uint64{2, 0, 0, 0, 0, 0, 0, 0}

	encrypt := func(values []uint64) *Ciphertext {
		pt, err := tc.Ecd.EncodeNew(values)
		require.NoError(t, err)
		ct, err := tc.Enc.Encrypt(pt)
		require.NoError(t, err)
		return ct
	}

	ctv, ctw, ct2 := encrypt(v), encrypt(w), encrypt(two)

	VerifyTestVectors(tc.Params, tc.Ecd, tc.Dec, ctv, v, t)

	sum, err := tc.Evl.Add(ctv, ctw)
	require.NoError(t, err)
	VerifyTestVectors(tc.Params, tc.Ecd, tc.Dec, sum, []uint64{6, 7, 8, 9, 0, 0, 0, 0}, t)

	want := []uint64{2, 4, 6, 8, 0, 0, 0, 0}

	prod, err := tc.Evl.MulRelin(ctv, ct2)
	require.NoError(t, err)
	VerifyTestVectors(tc.Params, tc.Ecd, tc.Dec, prod, want, t)

	scaled, err := tc.Evl.MulScalar(ctv, 2)
	require.NoError(t, err)
	VerifyTestVectors(tc.Params, tc.Ecd, tc.Dec, scaled, want, t)
}
