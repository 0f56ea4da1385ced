package ring

import (
	"math"
	"math/big"

	"github.com/tuneinsight/rlwe-she/utils/bignum"
)

// Reduce evaluates p2 = p1 mod Q coefficient-wise, with p2 in [0, Q).
// p1 can hold arbitrary integers.
func (r *Ring) Reduce(p1, p2 Poly) {
	for i := range p1.Coeffs[:r.n] {
		p2.Coeffs[i].Mod(&p1.Coeffs[i], r.modulus)
	}
}

// Add evaluates p3 = p1 + p2 mod Q coefficient-wise.
func (r *Ring) Add(p1, p2, p3 Poly) {
	for i := 0; i < r.n; i++ {
		p3.Coeffs[i].Add(&p1.Coeffs[i], &p2.Coeffs[i])
		p3.Coeffs[i].Mod(&p3.Coeffs[i], r.modulus)
	}
}

// Sub evaluates p3 = p1 - p2 mod Q coefficient-wise.
func (r *Ring) Sub(p1, p2, p3 Poly) {
	for i := 0; i < r.n; i++ {
		p3.Coeffs[i].Sub(&p1.Coeffs[i], &p2.Coeffs[i])
		p3.Coeffs[i].Mod(&p3.Coeffs[i], r.modulus)
	}
}

// Neg evaluates p2 = -p1 mod Q coefficient-wise.
func (r *Ring) Neg(p1, p2 Poly) {
	for i := 0; i < r.n; i++ {
		p2.Coeffs[i].Neg(&p1.Coeffs[i])
		p2.Coeffs[i].Mod(&p2.Coeffs[i], r.modulus)
	}
}

// MulScalar evaluates p2 = p1 * scalar mod Q coefficient-wise.
func (r *Ring) MulScalar(p1 Poly, scalar int64, p2 Poly) {
	r.MulScalarBigint(p1, big.NewInt(scalar), p2)
}

// MulScalarBigint evaluates p2 = p1 * scalar mod Q coefficient-wise.
func (r *Ring) MulScalarBigint(p1 Poly, scalar *big.Int, p2 Poly) {
	s := new(big.Int).Mod(scalar, r.modulus)
	for i := 0; i < r.n; i++ {
		p2.Coeffs[i].Mul(&p1.Coeffs[i], s)
		p2.Coeffs[i].Mod(&p2.Coeffs[i], r.modulus)
	}
}

// Mul evaluates p3 = p1 * p2 mod (X^N+1, Q).
// p3 can alias p1 or p2.
func (r *Ring) Mul(p1, p2, p3 Poly) {
	r.Convolve(p1, p2, p3)
	r.Reduce(p3, p3)
}

// MulThenAdd evaluates p3 = p3 + p1 * p2 mod (X^N+1, Q).
func (r *Ring) MulThenAdd(p1, p2, p3 Poly) {
	tmp := r.pool.GetBuffPoly()
	defer r.pool.RecycleBuffPoly(tmp)
	r.Convolve(p1, p2, *tmp)
	r.Add(p3, *tmp, p3)
}

// Convolve evaluates p3 = [p1] * [p2] mod X^N+1 exactly over the integers,
// where [x] denotes the centered representative of x mod Q in (-Q/2, Q/2].
// The coefficients of p3 are signed and are not reduced mod Q.
// p3 can alias p1 or p2.
func (r *Ring) Convolve(p1, p2, p3 Poly) {

	a := r.pool.GetBuffPoly()
	defer r.pool.RecycleBuffPoly(a)
	b := r.pool.GetBuffPoly()
	defer r.pool.RecycleBuffPoly(b)

	r.Center(p1, *a)
	r.Center(p2, *b)

	r.conv.convolve(a.Coeffs, b.Coeffs, p3.Coeffs, r.pool)
}

// ScaleRound evaluates p2 = round(num * p1 / den) mod Q coefficient-wise,
// with rounding half away from zero.
// p1 can hold arbitrary signed integers, which are not reduced mod Q before scaling.
func (r *Ring) ScaleRound(p1 Poly, num, den *big.Int, p2 Poly) {
	tmp := new(big.Int)
	for i := 0; i < r.n; i++ {
		tmp.Mul(&p1.Coeffs[i], num)
		bignum.DivRound(tmp, den, &p2.Coeffs[i])
		p2.Coeffs[i].Mod(&p2.Coeffs[i], r.modulus)
	}
}

// Center writes on p2 the centered representatives of p1 mod Q, in (-Q/2, Q/2].
func (r *Ring) Center(p1, p2 Poly) {
	for i := 0; i < r.n; i++ {
		bignum.Center(&p1.Coeffs[i], r.modulus, &p2.Coeffs[i])
	}
}

// PolyToBigintCentered returns the centered representatives of the coefficients of p1 mod Q.
func (r *Ring) PolyToBigintCentered(p1 Poly) (coeffs []big.Int) {
	coeffs = make([]big.Int, r.n)
	r.Center(p1, Poly{Coeffs: coeffs})
	return
}

// SetCoefficientsInt64 sets the coefficients of p1 to values mod Q.
// Missing values are set to zero and extra values are ignored.
func (r *Ring) SetCoefficientsInt64(values []int64, p1 Poly) {
	for i := 0; i < r.n; i++ {
		if i < len(values) {
			p1.Coeffs[i].SetInt64(values[i])
			p1.Coeffs[i].Mod(&p1.Coeffs[i], r.modulus)
		} else {
			p1.Coeffs[i].SetUint64(0)
		}
	}
}

// SetCoefficientsBigint sets the coefficients of p1 to values mod Q.
// Missing values are set to zero and extra values are ignored.
func (r *Ring) SetCoefficientsBigint(values []big.Int, p1 Poly) {
	for i := 0; i < r.n; i++ {
		if i < len(values) {
			p1.Coeffs[i].Mod(&values[i], r.modulus)
		} else {
			p1.Coeffs[i].SetUint64(0)
		}
	}
}

// NormInf returns the infinity norm of the centered representative of p1 mod Q.
func (r *Ring) NormInf(p1 Poly) (norm *big.Int) {
	norm = new(big.Int)
	tmp := new(big.Int)
	for i := 0; i < r.n; i++ {
		bignum.Center(&p1.Coeffs[i], r.modulus, tmp)
		if tmp.CmpAbs(norm) > 0 {
			norm.Abs(tmp)
		}
	}
	return
}

// NormL2 returns the Euclidean norm of the centered representative of p1 mod Q.
func (r *Ring) NormL2(p1 Poly) float64 {
	sum := new(big.Int)
	tmp := new(big.Int)
	for i := 0; i < r.n; i++ {
		bignum.Center(&p1.Coeffs[i], r.modulus, tmp)
		sum.Add(sum, tmp.Mul(tmp, tmp))
	}
	x := new(big.Float).SetPrec(uint(sum.BitLen()) + 64).SetInt(sum)
	f, _ := new(big.Float).SetPrec(x.Prec()).Sqrt(x).Float64()
	if math.IsInf(f, 0) {
		return math.MaxFloat64
	}
	return f
}

// EqualMod returns true if p1 and p2 are equal mod Q.
func (r *Ring) EqualMod(p1, p2 Poly) bool {
	a := new(big.Int)
	b := new(big.Int)
	for i := 0; i < r.n; i++ {
		if a.Mod(&p1.Coeffs[i], r.modulus).Cmp(b.Mod(&p2.Coeffs[i], r.modulus)) != 0 {
			return false
		}
	}
	return true
}
