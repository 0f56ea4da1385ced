// Package ring implements arithmetic over the negacyclic polynomial ring Z_Q[X]/(X^N+1)
// for an arbitrary modulus Q, with exact NTT-based products computed over an
// auxiliary RNS basis of NTT-friendly primes.
package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/tuneinsight/rlwe-she/utils"
)

const (
	// MinLogN is the log2 of the smallest supported ring degree.
	MinLogN = 1
	// MaxLogN is the log2 of the largest supported ring degree.
	MaxLogN = 16
)

// Ring is a structure that keeps all the variables required to operate on
// polynomials in Z_Q[X]/(X^N+1).
// A Ring is read-only after creation and can be shared among goroutines.
type Ring struct {
	n       int
	modulus *big.Int
	half    *big.Int

	conv *convolver
	pool *BufferPool
}

// NewRing creates a new [Ring] of degree N and modulus Q.
// N must be a power of two between 2^MinLogN and 2^MaxLogN, and Q must be at least 2.
func NewRing(N int, Q *big.Int) (r *Ring, err error) {

	if !utils.IsPowerOfTwo(N) || N < 1<<MinLogN || N > 1<<MaxLogN {
		return nil, fmt.Errorf("invalid ring degree: must be a power of two between %d and %d but is %d", 1<<MinLogN, 1<<MaxLogN, N)
	}

	if Q == nil || Q.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("invalid ring modulus: must be at least 2")
	}

	r = &Ring{
		n:       N,
		modulus: new(big.Int).Set(Q),
		half:    new(big.Int).Rsh(Q, 1),
	}

	// Products of centered representatives are bounded by N * (Q/2)^2.
	bound := new(big.Int).Mul(r.half, r.half)
	bound.Mul(bound, big.NewInt(int64(N)))

	if r.conv, err = newConvolver(N, bound); err != nil {
		return nil, fmt.Errorf("cannot NewRing: %w", err)
	}

	r.pool = NewPool(N)

	return
}

// N returns the ring degree.
func (r *Ring) N() int {
	return r.n
}

// LogN returns log2(N).
func (r *Ring) LogN() int {
	return bits.Len64(uint64(r.n)) - 1
}

// Modulus returns a copy of the ring modulus Q.
func (r *Ring) Modulus() *big.Int {
	return new(big.Int).Set(r.modulus)
}

// ModulusBitLen returns the bit length of Q.
func (r *Ring) ModulusBitLen() int {
	return r.modulus.BitLen()
}

// AuxiliaryModuli returns the NTT-friendly primes used for exact products.
func (r *Ring) AuxiliaryModuli() (primes []uint64) {
	primes = make([]uint64, len(r.conv.tables))
	for i := range r.conv.tables {
		primes[i] = r.conv.tables[i].Modulus
	}
	return
}

// Pool returns the [BufferPool] used by the ring for its temporary buffers.
func (r *Ring) Pool() *BufferPool {
	return r.pool
}

// WithPool returns a shallow copy of the ring that draws its temporary
// buffers from pool. Precomputations are shared with the original ring.
// pool must be for polynomials of degree N.
func (r *Ring) WithPool(pool *BufferPool) *Ring {
	if pool == nil {
		return r
	}
	if pool.N() != r.n {
		panic(fmt.Errorf("cannot WithPool: pool degree %d != ring degree %d", pool.N(), r.n))
	}
	rr := *r
	rr.pool = pool
	return &rr
}

// NewPoly creates a new polynomial with all coefficients set to 0.
func (r *Ring) NewPoly() Poly {
	return NewPoly(r.n)
}

// Equal checks if two rings have the same degree and modulus.
func (r *Ring) Equal(other *Ring) bool {
	return r.n == other.n && r.modulus.Cmp(other.modulus) == 0
}
