package bfv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/google/go-cmp/cmp"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils/buffer"
	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

const (
	// MinLogN is the log2 of the smallest supported polynomial modulus degree.
	MinLogN = ring.MinLogN
	// MaxLogN is the log2 of the largest supported polynomial modulus degree.
	MaxLogN = ring.MaxLogN
)

// ParametersLiteral is a literal representation of BFV parameters. It has public
// fields and is used to express unchecked user-defined parameters literally into
// Go programs. The [NewParametersFromLiteral] function is used to generate the
// actual checked parameters from the literal representation.
//
// Users must set the polynomial degree (LogN), the ciphertext modulus Q and the
// plaintext modulus T (PlaintextModulus). T must divide Q, so that the scaling
// factor Delta = Q/T is exact. Optionally, users may specify the distribution of
// the secret (Xs), of the error (Xe) and the base of the relinearization key
// decomposition. If left unset, [DefaultXs], [DefaultXe] and
// [DefaultDecompositionBase] are used.
type ParametersLiteral struct {
	LogN              int
	Q                 *big.Int
	PlaintextModulus  uint64
	Xs                ring.DistributionParameters `json:",omitempty"`
	Xe                ring.DistributionParameters `json:",omitempty"`
	DecompositionBase uint64                      `json:",omitempty"`
}

// UnmarshalJSON reads a JSON byte slice into the receiver [ParametersLiteral].
func (p *ParametersLiteral) UnmarshalJSON(b []byte) (err error) {
	var pl struct {
		LogN              int
		Q                 *big.Int
		PlaintextModulus  uint64
		Xs                json.RawMessage
		Xe                json.RawMessage
		DecompositionBase uint64
	}

	if err = json.Unmarshal(b, &pl); err != nil {
		return err
	}

	p.LogN = pl.LogN
	p.Q = pl.Q
	p.PlaintextModulus = pl.PlaintextModulus
	p.DecompositionBase = pl.DecompositionBase
	p.Xs, p.Xe = nil, nil

	if len(pl.Xs) != 0 {
		if p.Xs, err = ring.UnmarshalDistribution(pl.Xs); err != nil {
			return err
		}
	}
	if len(pl.Xe) != 0 {
		if p.Xe, err = ring.UnmarshalDistribution(pl.Xe); err != nil {
			return err
		}
	}

	return
}

// Parameters represents a parameter set for the BFV cryptosystem. Its fields are private and
// immutable. See [ParametersLiteral] for user-specified parameters.
type Parameters struct {
	logN  int
	q     *big.Int
	t     uint64
	delta *big.Int
	xs    ring.DistributionParameters
	xe    ring.DistributionParameters
	base  uint64
	ringQ *ring.Ring
	ringT *ring.Ring
}

// NewParametersFromLiteral instantiate a set of BFV parameters from a [ParametersLiteral] specification.
// It returns a [*ConfigurationError] if the parameter literal is invalid.
func NewParametersFromLiteral(pl ParametersLiteral) (params Parameters, err error) {

	if pl.LogN < MinLogN || pl.LogN > MaxLogN {
		return Parameters{}, newConfigurationError("LogN", "must be between %d and %d but is %d", MinLogN, MaxLogN, pl.LogN)
	}

	if pl.Q == nil || pl.Q.Cmp(big.NewInt(2)) < 0 {
		return Parameters{}, newConfigurationError("Q", "must be at least 2")
	}

	if pl.PlaintextModulus < 2 {
		return Parameters{}, newConfigurationError("PlaintextModulus", "must be at least 2 but is %d", pl.PlaintextModulus)
	}

	T := new(big.Int).SetUint64(pl.PlaintextModulus)

	if T.Cmp(pl.Q) >= 0 {
		return Parameters{}, newConfigurationError("PlaintextModulus", "must be smaller than Q")
	}

	delta, rem := new(big.Int).QuoRem(pl.Q, T, new(big.Int))
	if rem.Sign() != 0 {
		return Parameters{}, newConfigurationError("Q", "must be divisible by the plaintext modulus %d", pl.PlaintextModulus)
	}

	params = Parameters{
		logN:  pl.LogN,
		q:     new(big.Int).Set(pl.Q),
		t:     pl.PlaintextModulus,
		delta: delta,
		xs:    pl.Xs,
		xe:    pl.Xe,
		base:  pl.DecompositionBase,
	}

	if params.xs == nil {
		params.xs = DefaultXs
	}

	if params.xe == nil {
		params.xe = DefaultXe
	}

	if params.base == 0 {
		params.base = DefaultDecompositionBase
	}

	if params.base < 2 {
		return Parameters{}, newConfigurationError("DecompositionBase", "must be at least 2 but is %d", params.base)
	}

	if params.ringQ, err = ring.NewRing(1<<pl.LogN, params.q); err != nil {
		return Parameters{}, newConfigurationError("Q", "%s", err)
	}

	if params.ringT, err = ring.NewRing(1<<pl.LogN, T); err != nil {
		return Parameters{}, newConfigurationError("PlaintextModulus", "%s", err)
	}

	if err = checkDistribution(params.ringQ, params.xs); err != nil {
		return Parameters{}, newConfigurationError("Xs", "%s", err)
	}

	if err = checkDistribution(params.ringQ, params.xe); err != nil {
		return Parameters{}, newConfigurationError("Xe", "%s", err)
	}

	return params, nil
}

// checkDistribution returns an error if X cannot be used to sample secrets or errors over r.
func checkDistribution(r *ring.Ring, X ring.DistributionParameters) (err error) {
	if _, isUniform := X.(ring.Uniform); isUniform {
		return fmt.Errorf("must be a small norm distribution but is %s", X.Type())
	}
	var prng *sampling.ThreadSafePRNG
	if prng, err = sampling.NewPRNG(); err != nil {
		return
	}
	_, err = ring.NewSampler(prng, r, X)
	return
}

// ParametersLiteral returns the [ParametersLiteral] of the target [Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		LogN:              p.logN,
		Q:                 p.Q(),
		PlaintextModulus:  p.t,
		Xs:                p.xs,
		Xe:                p.xe,
		DecompositionBase: p.base,
	}
}

// N returns the ring degree.
func (p Parameters) N() int {
	return 1 << p.logN
}

// LogN returns the log of the degree of the polynomial ring.
func (p Parameters) LogN() int {
	return p.logN
}

// Q returns a copy of the ciphertext modulus.
func (p Parameters) Q() *big.Int {
	return new(big.Int).Set(p.q)
}

// LogQ returns the bit length of Q.
func (p Parameters) LogQ() int {
	return p.q.BitLen()
}

// PlaintextModulus returns the plaintext modulus T.
func (p Parameters) PlaintextModulus() uint64 {
	return p.t
}

// LogT returns the bit length of T.
func (p Parameters) LogT() int {
	return new(big.Int).SetUint64(p.t).BitLen()
}

// Delta returns a copy of the scaling factor Q/T.
func (p Parameters) Delta() *big.Int {
	return new(big.Int).Set(p.delta)
}

// Xs returns the [ring.DistributionParameters] of the secret.
func (p Parameters) Xs() ring.DistributionParameters {
	return p.xs
}

// Xe returns the [ring.DistributionParameters] of the error.
func (p Parameters) Xe() ring.DistributionParameters {
	return p.xe
}

// NoiseSigma returns the standard deviation of the error distribution,
// or 0 if the error distribution is not a Gaussian.
func (p Parameters) NoiseSigma() float64 {
	if xe, ok := p.xe.(ring.DiscreteGaussian); ok {
		return xe.Sigma
	}
	return 0
}

// DecompositionBase returns the default base of the relinearization key decomposition.
func (p Parameters) DecompositionBase() uint64 {
	return p.base
}

// DigitCount returns the number of base-B digits of the decomposition, i.e. the
// smallest l such that B^l >= Q.
func (p Parameters) DigitCount(base uint64) (digits int) {
	B := new(big.Int).SetUint64(base)
	for acc := big.NewInt(1); acc.Cmp(p.q) < 0; acc.Mul(acc, B) {
		digits++
	}
	return
}

// RingQ returns a pointer to the ring of ciphertexts Z_Q[X]/(X^N+1).
func (p Parameters) RingQ() *ring.Ring {
	return p.ringQ
}

// RingT returns a pointer to the ring of plaintexts Z_T[X]/(X^N+1).
func (p Parameters) RingT() *ring.Ring {
	return p.ringT
}

// Equal compares two sets of parameters for equality.
func (p Parameters) Equal(other *Parameters) bool {
	return cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral(), cmp.Comparer(func(a, b *big.Int) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Cmp(b) == 0
	}))
}

// sameContext returns true if the two parameter sets share the same (Q, N, T).
func (p Parameters) sameContext(other Parameters) bool {
	return p.logN == other.logN && p.t == other.t && p.q != nil && other.q != nil && p.q.Cmp(other.q) == 0
}

// isValid returns false for the zero value of [Parameters].
func (p Parameters) isValid() bool {
	return p.ringQ != nil
}

// MarshalJSON returns a JSON representation of this parameter set. See Marshal from the [encoding/json] package.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See Unmarshal from the [encoding/json] package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var params ParametersLiteral
	if err = json.Unmarshal(data, &params); err != nil {
		return err
	}
	*p, err = NewParametersFromLiteral(params)
	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (p Parameters) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		bytes, err := p.MarshalJSON()
		if err != nil {
			return 0, err
		}

		if n, err = buffer.WriteInt(w, len(bytes)); err != nil {
			return n, fmt.Errorf("buffer.WriteInt: %w", err)
		}

		var inc int64
		if inc, err = buffer.Write(w, bytes); err != nil {
			return n + inc, fmt.Errorf("buffer.Write: %w", err)
		}

		n += inc

		return n, w.Flush()
	default:
		return p.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (p *Parameters) ReadFrom(r io.Reader) (n int64, err error) {

	br := buffer.NewReader(r)

	var size int
	if n, err = buffer.ReadInt(br, &size); err != nil {
		return n, fmt.Errorf("buffer.ReadInt: %w", err)
	}

	if size < 0 || size > buffer.MaxBigIntBytes {
		return n, fmt.Errorf("cannot ReadFrom: invalid length %d", size)
	}

	bytes := make([]byte, size)
	inc, err := io.ReadFull(br, bytes)
	n += int64(inc)
	if err != nil {
		return n, fmt.Errorf("io.ReadFull: %w", err)
	}

	return n, p.UnmarshalJSON(bytes)
}

// BinarySize returns size in bytes of the marshalled [Parameters] object.
func (p Parameters) BinarySize() int {
	b, _ := p.MarshalJSON()
	return 8 + len(b)
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (p Parameters) MarshalBinary() (data []byte, err error) {
	buf := buffer.NewBufferSize(p.BinarySize())
	_, err = p.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (p *Parameters) UnmarshalBinary(data []byte) (err error) {
	_, err = p.ReadFrom(buffer.NewBuffer(data))
	return
}
