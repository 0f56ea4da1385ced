package bfv

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

// KeyGenerator is a structure that stores the elements required to create new keys.
// A KeyGenerator is not safe for concurrent use unless it was created with a thread-safe PRNG.
type KeyGenerator struct {
	params         Parameters
	prng           sampling.PRNG
	xsSampler      ring.Sampler
	xeSampler      ring.Sampler
	uniformSampler *ring.UniformSampler
}

// NewKeyGenerator creates a new [KeyGenerator], from which the secret, public and
// evaluation keys are generated. If prng is nil, a new [sampling.ThreadSafePRNG] is used.
// It returns a [*ConfigurationError] if params were not created with [NewParametersFromLiteral].
func NewKeyGenerator(params Parameters, prng sampling.PRNG) (kgen *KeyGenerator, err error) {

	if !params.isValid() {
		return nil, newConfigurationError("Parameters", "uninitialized parameters")
	}

	if prng == nil {
		if prng, err = sampling.NewPRNG(); err != nil {
			return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
		}
	}

	kgen = &KeyGenerator{
		params:         params,
		prng:           prng,
		uniformSampler: ring.NewUniformSampler(prng, params.RingQ()),
	}

	if kgen.xsSampler, err = ring.NewSampler(prng, params.RingQ(), params.Xs()); err != nil {
		return nil, newConfigurationError("Xs", "%s", err)
	}

	if kgen.xeSampler, err = ring.NewSampler(prng, params.RingQ(), params.Xe()); err != nil {
		return nil, newConfigurationError("Xe", "%s", err)
	}

	return
}

// GenSecretKeyNew generates a new [SecretKey] with coefficients drawn from Xs.
func (kgen KeyGenerator) GenSecretKeyNew() (sk *SecretKey) {
	sk = NewSecretKey(kgen.params)
	kgen.xsSampler.Read(sk.Value)
	return
}

// GenPublicKeyNew generates a new [PublicKey] (b, a) = (-a*s + e, a) from the provided [SecretKey].
func (kgen KeyGenerator) GenPublicKeyNew(sk *SecretKey) (pk *PublicKey, err error) {

	if err = kgen.checkSecretKey("GenPublicKeyNew", sk); err != nil {
		return
	}

	pk = NewPublicKey(kgen.params)
	kgen.genPublicPair(sk.Value, nil, pk.Value[0], pk.Value[1])
	return
}

// GenKeyPairNew generates a new [SecretKey] and a corresponding [PublicKey].
func (kgen KeyGenerator) GenKeyPairNew() (sk *SecretKey, pk *PublicKey) {
	sk = kgen.GenSecretKeyNew()
	pk = NewPublicKey(kgen.params)
	kgen.genPublicPair(sk.Value, nil, pk.Value[0], pk.Value[1])
	return
}

// GenEvaluationKeyNew generates a new relinearization [EvaluationKey] from the [SecretKey].
// The optional base overrides the default decomposition base of the parameters: a smaller base
// gives a larger key with a smaller relinearization error.
// It returns a [*ConfigurationError] if the base is smaller than 2.
func (kgen KeyGenerator) GenEvaluationKeyNew(sk *SecretKey, base ...uint64) (evk *EvaluationKey, err error) {

	B := kgen.params.DecompositionBase()

	switch len(base) {
	case 0:
	case 1:
		B = base[0]
	default:
		return nil, newUsageError("GenEvaluationKeyNew", "takes at most one base but %d were given", len(base))
	}

	if B < 2 {
		return nil, newConfigurationError("DecompositionBase", "must be at least 2 but is %d", B)
	}

	if err = kgen.checkSecretKey("GenEvaluationKeyNew", sk); err != nil {
		return
	}

	ringQ := kgen.params.RingQ()

	s2 := ringQ.NewPoly()
	ringQ.Mul(sk.Value, sk.Value, s2)

	digits := kgen.params.DigitCount(B)

	evk = &EvaluationKey{
		Base:  B,
		Q:     kgen.params.Q(),
		Value: make([][2]ring.Poly, digits),
	}

	// m = B^i * s^2
	m := ringQ.NewPoly()
	m.Copy(s2)
	bigB := new(big.Int).SetUint64(B)

	for i := 0; i < digits; i++ {
		evk.Value[i] = [2]ring.Poly{ringQ.NewPoly(), ringQ.NewPoly()}
		kgen.genPublicPair(sk.Value, &m, evk.Value[i][0], evk.Value[i][1])
		ringQ.MulScalarBigint(m, bigB, m)
	}

	s2.Zero()
	m.Zero()

	return
}

// genPublicPair samples a uniform a and an error e and sets b = -a*s + e (+ m).
func (kgen KeyGenerator) genPublicPair(s ring.Poly, m *ring.Poly, b, a ring.Poly) {
	ringQ := kgen.params.RingQ()
	kgen.uniformSampler.Read(a)
	kgen.xeSampler.Read(b)
	tmp := ringQ.NewPoly()
	ringQ.Mul(a, s, tmp)
	ringQ.Sub(b, tmp, b)
	if m != nil {
		ringQ.Add(b, *m, b)
	}
}

func (kgen KeyGenerator) checkSecretKey(op string, sk *SecretKey) error {
	if sk == nil || !sk.matches(kgen.params) {
		return newUsageError(op, "secret key does not match the parameters")
	}
	return nil
}
