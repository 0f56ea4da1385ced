package bfv

import (
	"fmt"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

// Encryptor is a type for encrypting plaintexts under a [PublicKey].
// An Encryptor holds sampler state and is not safe for concurrent use:
// use [Encryptor.ShallowCopy] or [Encryptor.WithPRNG] to obtain one instance per goroutine.
type Encryptor struct {
	params Parameters
	pk     *PublicKey

	xsSampler ring.Sampler
	xeSampler ring.Sampler
}

// NewEncryptor instantiates a new [Encryptor] for the given public key.
// If prng is nil, a new [sampling.ThreadSafePRNG] is used.
func NewEncryptor(params Parameters, pk *PublicKey, prng sampling.PRNG) (enc *Encryptor, err error) {

	if !params.isValid() {
		return nil, newConfigurationError("Parameters", "uninitialized parameters")
	}

	if pk == nil || !pk.matches(params) {
		return nil, newUsageError("NewEncryptor", "public key does not match the parameters")
	}

	if prng == nil {
		if prng, err = sampling.NewPRNG(); err != nil {
			return nil, fmt.Errorf("cannot NewEncryptor: %w", err)
		}
	}

	enc = &Encryptor{params: params, pk: pk}

	if enc.xsSampler, err = ring.NewSampler(prng, params.RingQ(), params.Xs()); err != nil {
		return nil, newConfigurationError("Xs", "%s", err)
	}

	if enc.xeSampler, err = ring.NewSampler(prng, params.RingQ(), params.Xe()); err != nil {
		return nil, newConfigurationError("Xe", "%s", err)
	}

	return
}

// Encrypt encrypts the plaintext m on a new ciphertext (c0, c1) = (b*u + e1 + Delta*m, a*u + e2),
// with u sampled from Xs and e1, e2 sampled from Xe.
func (enc Encryptor) Encrypt(pt *Plaintext) (ct *Ciphertext, err error) {

	if pt == nil || !pt.params.sameContext(enc.params) {
		return nil, newUsageError("Encrypt", "plaintext does not match the encryptor parameters")
	}

	ringQ := enc.params.RingQ()

	u := enc.xsSampler.ReadNew()
	defer u.Zero()

	ct = NewCiphertext(enc.params)
	c0, c1 := ct.Value[0], ct.Value[1]

	enc.xeSampler.Read(c0)
	enc.xeSampler.Read(c1)

	ringQ.MulThenAdd(enc.pk.Value[0], u, c0)
	ringQ.MulThenAdd(enc.pk.Value[1], u, c1)

	dm := ringQ.NewPoly()
	ringQ.MulScalarBigint(pt.Value, enc.params.delta, dm)
	ringQ.Add(c0, dm, c0)

	return
}

// ShallowCopy creates a shallow copy of the [Encryptor] in which all the read-only data-structures are
// shared with the receiver and the samplers read from a new [sampling.ThreadSafePRNG].
// Encryptors can be used concurrently with their shallow copies.
func (enc Encryptor) ShallowCopy() *Encryptor {
	prng, err := sampling.NewPRNG()
	if err != nil {
		panic(err)
	}
	return enc.WithPRNG(prng)
}

// WithPRNG returns a shallow copy of the [Encryptor] whose samplers read from prng.
func (enc Encryptor) WithPRNG(prng sampling.PRNG) *Encryptor {
	return &Encryptor{
		params:    enc.params,
		pk:        enc.pk,
		xsSampler: enc.xsSampler.WithPRNG(prng),
		xeSampler: enc.xeSampler.WithPRNG(prng),
	}
}

// Parameters returns the parameters of the encryptor.
func (enc Encryptor) Parameters() Parameters {
	return enc.params
}
