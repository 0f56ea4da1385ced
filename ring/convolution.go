package ring

import (
	"fmt"
	"math/big"
)

// auxiliaryPrimeBitLen is the bit size of the NTT-friendly primes of the auxiliary RNS basis.
const auxiliaryPrimeBitLen = 59

// convolver computes exact negacyclic products over Z of polynomials with
// bounded signed coefficients, by multiplying in an RNS basis of NTT-friendly
// primes P = p_0 * ... * p_{k-1} and lifting back with the CRT.
// The product is exact as long as its coefficients lie in (-P/2, P/2].
type convolver struct {
	N      int
	tables []*NTTTable

	moduli  []big.Int // p_i
	P       *big.Int
	PHalf   *big.Int
	pHat    []big.Int // P/p_i
	pHatInv []uint64  // (P/p_i)^-1 mod p_i
}

// newConvolver creates a convolver for degree N able to represent
// any integer of absolute value at most bound.
func newConvolver(N int, bound *big.Int) (c *convolver, err error) {

	k := (bound.BitLen()+1)/(auxiliaryPrimeBitLen-1) + 1

	var primes []uint64
	if primes, err = GenerateNTTPrimes(auxiliaryPrimeBitLen, 2*N, k); err != nil {
		return nil, fmt.Errorf("cannot newConvolver: %w", err)
	}

	c = &convolver{
		N:       N,
		tables:  make([]*NTTTable, k),
		moduli:  make([]big.Int, k),
		P:       big.NewInt(1),
		pHat:    make([]big.Int, k),
		pHatInv: make([]uint64, k),
	}

	for i, pi := range primes {
		if c.tables[i], err = NewNTTTable(N, pi); err != nil {
			return nil, fmt.Errorf("cannot newConvolver: %w", err)
		}
		c.moduli[i].SetUint64(pi)
		c.P.Mul(c.P, &c.moduli[i])
	}

	if new(big.Int).Rsh(c.P, 1).Cmp(bound) < 0 {
		panic("sanity check: auxiliary RNS basis is too small")
	}

	c.PHalf = new(big.Int).Rsh(c.P, 1)

	tmp := new(big.Int)
	for i, pi := range primes {
		c.pHat[i].Quo(c.P, &c.moduli[i])
		c.pHatInv[i] = ModInverse(tmp.Mod(&c.pHat[i], &c.moduli[i]).Uint64(), pi)
	}

	return
}

// convolve writes on out the exact product a*b in Z[X]/(X^N+1).
// The coefficients of a and b are signed integers, and the coefficients of
// the product must be bounded in absolute value by the bound given at creation.
// out can alias a or b.
func (c *convolver) convolve(a, b, out []big.Int, pool *BufferPool) {

	k := len(c.tables)

	residues := make([]*[]uint64, k)
	bi := pool.GetBuffUintArray()
	defer pool.RecycleBuffUintArray(bi)

	tmp := new(big.Int)

	for i, table := range c.tables {

		pi := table.Modulus

		residues[i] = pool.GetBuffUintArray()
		ai := *residues[i]

		for j := 0; j < c.N; j++ {
			ai[j] = tmp.Mod(&a[j], &c.moduli[i]).Uint64()
			(*bi)[j] = tmp.Mod(&b[j], &c.moduli[i]).Uint64()
		}

		table.Forward(ai, ai)
		table.Forward(*bi, *bi)

		for j := 0; j < c.N; j++ {
			ai[j] = MulMod(ai[j], (*bi)[j], pi)
		}

		table.Backward(ai, ai)
	}

	c.reconstruct(residues, out)

	for i := range residues {
		pool.RecycleBuffUintArray(residues[i])
	}
}

// reconstruct writes on out the centered CRT lift in (-P/2, P/2] of the residues.
func (c *convolver) reconstruct(residues []*[]uint64, out []big.Int) {

	acc := new(big.Int)
	tmp := new(big.Int)

	for j := 0; j < c.N; j++ {

		acc.SetUint64(0)

		for i, table := range c.tables {
			y := MulMod((*residues[i])[j], c.pHatInv[i], table.Modulus)
			tmp.SetUint64(y)
			tmp.Mul(tmp, &c.pHat[i])
			acc.Add(acc, tmp)
		}

		acc.Mod(acc, c.P)

		if acc.Cmp(c.PHalf) > 0 {
			acc.Sub(acc, c.P)
		}

		out[j].Set(acc)
	}
}
