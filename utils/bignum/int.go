// Package bignum implements arbitrary precision arithmetic helpers on top of math/big.
package bignum

import (
	"math/big"
)

// DivRound sets the target i to round(a/b), rounding half away from zero.
func DivRound(a, b, i *big.Int) {
	_a := new(big.Int).Set(a)
	r := new(big.Int)
	i.QuoRem(_a, b, r)
	r.Lsh(r, 1)
	if r.CmpAbs(b) != -1 {
		if _a.Sign() == b.Sign() {
			i.Add(i, bigOne)
		} else {
			i.Sub(i, bigOne)
		}
	}
}

// Center sets the target i to the representative of a mod m in (-m/2, m/2].
func Center(a, m, i *big.Int) {
	i.Mod(a, m)
	h := new(big.Int).Rsh(m, 1)
	if i.Cmp(h) > 0 {
		i.Sub(i, m)
	}
}

var bigOne = big.NewInt(1)
