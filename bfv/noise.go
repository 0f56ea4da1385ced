package bfv

import (
	"fmt"
	"math"
	"math/big"

	"github.com/montanaflynn/stats"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils"
	"github.com/tuneinsight/rlwe-she/utils/bignum"
)

// MinMultiplicationBudget is the number of bits of noise budget below which
// a ciphertext is not expected to survive one more multiplication.
const MinMultiplicationBudget = 10

// NoiseAnalysis reports the noise of a ciphertext relative to the known plaintext it encrypts.
// It requires the secret key and is meant for testing and parameter tuning.
type NoiseAnalysis struct {
	// NormInf is the largest absolute value of the noise coefficients.
	NormInf *big.Int
	// NormL2 is the Euclidean norm of the noise.
	NormL2 float64
	// Std is the standard deviation of the noise coefficients.
	Std float64
	// BudgetBits is log2(floor(Q/2T) / NormInf): the number of bits the noise can
	// still grow before decryption fails.
	BudgetBits float64
	// CanMultiply is true if BudgetBits > MinMultiplicationBudget.
	CanMultiply bool
	// Advisory is a human readable summary of the budget.
	Advisory string
}

// NoisePoly returns the centered representative of c0 + c1*s - Delta*m mod Q,
// where m is the plaintext encrypted by ct.
func NoisePoly(sk *SecretKey, ct *Ciphertext, pt *Plaintext) (noise ring.Poly, err error) {

	if ct == nil || pt == nil {
		return noise, newUsageError("NoisePoly", "nil operand")
	}

	params := ct.params

	if !pt.params.sameContext(params) {
		return noise, newUsageError("NoisePoly", "plaintext does not match the ciphertext parameters")
	}

	var dec *Decryptor
	if dec, err = NewDecryptor(params, sk); err != nil {
		return
	}

	if len(ct.Value) != 2 {
		return noise, newUsageError("NoisePoly", "ciphertext has %d components but must have 2", len(ct.Value))
	}

	ringQ := params.RingQ()

	noise = ringQ.NewPoly()
	dec.phase(&ct.Element, noise)

	dm := ringQ.NewPoly()
	ringQ.MulScalarBigint(pt.Value, params.delta, dm)
	ringQ.Sub(noise, dm, noise)
	ringQ.Center(noise, noise)

	return
}

// AnalyzeNoise returns the [NoiseAnalysis] of ct, which must encrypt pt under sk.
func AnalyzeNoise(sk *SecretKey, ct *Ciphertext, pt *Plaintext) (an NoiseAnalysis, err error) {

	var noise ring.Poly
	if noise, err = NoisePoly(sk, ct, pt); err != nil {
		return
	}

	params := ct.params
	ringQ := params.RingQ()

	an.NormInf = ringQ.NormInf(noise)
	an.NormL2 = ringQ.NormL2(noise)

	data := make(stats.Float64Data, noise.N())
	for i := range noise.Coeffs {
		data[i], _ = new(big.Float).SetInt(&noise.Coeffs[i]).Float64()
	}

	if an.Std, err = data.StandardDeviation(); err != nil {
		return an, fmt.Errorf("cannot AnalyzeNoise: %w", err)
	}

	an.BudgetBits = noiseBudget(params, an.NormInf)
	an.CanMultiply = an.BudgetBits > MinMultiplicationBudget

	switch {
	case an.BudgetBits <= 0:
		an.Advisory = "exhausted: decryption is no longer guaranteed to be correct"
	case !an.CanMultiply:
		an.Advisory = fmt.Sprintf("low: %.1f bits remaining, avoid further multiplications", an.BudgetBits)
	default:
		an.Advisory = fmt.Sprintf("ok: %.1f bits remaining", an.BudgetBits)
	}

	return
}

// noiseBudget returns log2(floor(Q/2T) / norm), or log2(floor(Q/2T)) if norm is zero.
func noiseBudget(params Parameters, norm *big.Int) float64 {

	bound := new(big.Int).Rsh(params.delta, 1)

	if bound.Sign() == 0 {
		if norm.Sign() == 0 {
			return 0
		}
		return math.Inf(-1)
	}

	if norm.Sign() == 0 {
		return bignum.Log2(bound)
	}

	return bignum.Log2Ratio(bound, norm)
}

// EstimateMultiplicationDepth returns a heuristic number of sequential multiplications
// the parameters support: max(0, floor((log2(Q) - log2(T) - 10) / 2)).
func EstimateMultiplicationDepth(params Parameters) int {
	return utils.Max(0, (params.LogQ()-params.LogT()-MinMultiplicationBudget)/2)
}
