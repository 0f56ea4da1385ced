package ring

import (
	"math/big"

	"github.com/tuneinsight/rlwe-she/utils/structs"
)

// BufferPool represents a pool of buffers that can be used (concurrently) to instantiate
// temporary polynomials of a fixed degree. Buffers are wiped when they are recycled,
// so that values derived from secret material never outlive their use.
type BufferPool struct {
	n        int
	bigPool  structs.BufferPool[*[]big.Int]
	uintPool structs.BufferPool[*[]uint64]
	polyPool structs.BufferPool[*Poly]
}

// NewPool returns a new pool of buffers of N coefficients.
func NewPool(N int) *BufferPool {

	p := &BufferPool{n: N}

	p.bigPool = structs.NewSyncPoolWithReset(func() *[]big.Int {
		buff := make([]big.Int, N)
		return &buff
	}, func(buff *[]big.Int) {
		for i := range *buff {
			wipeBigInt(&(*buff)[i])
		}
	})

	p.uintPool = structs.NewSyncPoolWithReset(func() *[]uint64 {
		buff := make([]uint64, N)
		return &buff
	}, func(buff *[]uint64) {
		clear(*buff)
	})

	p.polyPool = structs.NewBuffFromPool(func() *Poly {
		return &Poly{Coeffs: *p.bigPool.Get()}
	}, func(pol *Poly) {
		coeffs := pol.Coeffs
		p.bigPool.Put(&coeffs)
	})

	return p
}

// N returns the degree of the buffers handed out by the pool.
func (p *BufferPool) N() int {
	return p.n
}

// GetBuffUintArray returns a new []uint64 slice of N elements obtained from a pool.
// After use, the slice should be recycled using the [BufferPool.RecycleBuffUintArray] method.
func (p *BufferPool) GetBuffUintArray() *[]uint64 {
	return p.uintPool.Get()
}

// RecycleBuffUintArray wipes a []uint64 slice and puts it back in the pool.
func (p *BufferPool) RecycleBuffUintArray(arr *[]uint64) {
	p.uintPool.Put(arr)
}

// GetBuffPoly returns a new [Poly], built from a backing []big.Int array obtained from a pool.
// After use, the [Poly] should be recycled using the [BufferPool.RecycleBuffPoly] method.
func (p *BufferPool) GetBuffPoly() *Poly {
	return p.polyPool.Get()
}

// RecycleBuffPoly takes a reference to a [Poly] and recycles its backing array
// (i.e. it is wiped and returned to a pool). The input [Poly] must not be used after calling this method.
func (p *BufferPool) RecycleBuffPoly(pol *Poly) {
	p.polyPool.Put(pol)
}

// wipeBigInt overwrites the limbs of x, including the unused capacity, and sets x to 0.
func wipeBigInt(x *big.Int) {
	w := x.Bits()
	clear(w[:cap(w)])
	x.SetUint64(0)
}
