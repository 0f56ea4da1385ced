package bignum

import (
	"math/big"

	"github.com/ALTree/bigfloat"
)

// newFloat returns x as a big.Float with prec bits of precision.
func newFloat(x *big.Int, prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).SetInt(x)
}

// Log2 returns log2(x) as a float64.
// x must be strictly positive.
func Log2(x *big.Int) float64 {
	if x.Sign() <= 0 {
		panic("cannot Log2: x must be strictly positive")
	}

	prec := uint(x.BitLen() + 64)

	ln := bigfloat.Log(newFloat(x, prec))
	ln.Quo(ln, bigfloat.Log(newFloat(bigTwo, prec)))

	f, _ := ln.Float64()
	return f
}

// Log2Ratio returns log2(a/b) as a float64.
// a and b must be strictly positive.
func Log2Ratio(a, b *big.Int) float64 {
	if a.Sign() <= 0 || b.Sign() <= 0 {
		panic("cannot Log2Ratio: a and b must be strictly positive")
	}

	prec := uint(max(a.BitLen(), b.BitLen()) + 64)

	r := newFloat(a, prec)
	r.Quo(r, newFloat(b, prec))

	ln := bigfloat.Log(r)
	ln.Quo(ln, bigfloat.Log(newFloat(bigTwo, prec)))

	f, _ := ln.Float64()
	return f
}

var bigTwo = big.NewInt(2)
