package ring

import (
	"math/bits"
)

// MulMod returns a*b mod q.
// a and b must be smaller than q.
func MulMod(a, b, q uint64) (r uint64) {
	hi, lo := bits.Mul64(a, b)
	_, r = bits.Div64(hi, lo, q)
	return
}

// AddMod returns a+b mod q.
// a and b must be smaller than q.
func AddMod(a, b, q uint64) (r uint64) {
	r = a + b
	if r < a || r >= q {
		r -= q
	}
	return
}

// SubMod returns a-b mod q.
// a and b must be smaller than q.
func SubMod(a, b, q uint64) uint64 {
	if a >= b {
		return a - b
	}
	return q - b + a
}

// ModExp performs the modular exponentiation x^e mod p,
// x and p are required to be at most 64 bits to avoid an overflow.
func ModExp(x, e, p uint64) (result uint64) {
	result = 1
	x %= p
	for i := e; i > 0; i >>= 1 {
		if i&1 == 1 {
			result = MulMod(result, x, p)
		}
		x = MulMod(x, x, p)
	}
	return result % p
}

// ModInverse returns x^-1 mod p.
// p must be prime and x must not be a multiple of p.
func ModInverse(x, p uint64) uint64 {
	return ModExp(x, p-2, p)
}
