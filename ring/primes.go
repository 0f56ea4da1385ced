package ring

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/rlwe-she/utils"
)

// MaxRootCandidates bounds the number of generator candidates tried by [PrimitiveNthRoot].
const MaxRootCandidates = 1 << 10

// IsPrime applies the Baillie-PSW, which is 100% accurate for numbers bellow 2^64.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// GenerateNTTPrimes generates n distinct NthRoot NTT-friendly primes
// (i.e. primes p with p = 1 mod NthRoot) of at most logP bits, starting
// from 2^logP and going downward.
// NthRoot must be a power of two.
func GenerateNTTPrimes(logP, NthRoot, n int) (primes []uint64, err error) {

	if logP < 2 || logP > 62 {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: logP must be between 2 and 62 but is %d", logP)
	}

	if !utils.IsPowerOfTwo(NthRoot) || NthRoot >= 1<<logP {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: NthRoot must be a power of two smaller than 2^logP")
	}

	primes = make([]uint64, 0, n)

	step := uint64(NthRoot)

	// 2^logP + 1 = 1 mod NthRoot; subtract NthRoot first to stay below 2^logP.
	for x := uint64(1)<<logP + 1; x > step; {

		x -= step

		if IsPrime(x) {
			if primes = append(primes, x); len(primes) == n {
				return
			}
		}
	}

	return nil, fmt.Errorf("cannot GenerateNTTPrimes: not enough %d-th root primes of %d bits", NthRoot, logP)
}

// PrimitiveNthRoot returns a primitive NthRoot-th root of unity modulo the prime q.
// NthRoot must be a power of two dividing q-1.
//
// For g = 2, 3, ..., the candidate psi = g^((q-1)/NthRoot) has an order dividing NthRoot.
// Since NthRoot is a power of two, the order is exactly NthRoot iff psi^(NthRoot/2) = -1 mod q,
// which holds iff g is a quadratic non-residue. At most [MaxRootCandidates] values of g are tried.
func PrimitiveNthRoot(NthRoot, q uint64) (psi uint64, err error) {

	if !utils.IsPowerOfTwo(NthRoot) || NthRoot < 2 {
		return 0, fmt.Errorf("cannot PrimitiveNthRoot: NthRoot must be a power of two greater than 1")
	}

	if !IsPrime(q) {
		return 0, fmt.Errorf("cannot PrimitiveNthRoot: %d is not prime", q)
	}

	if (q-1)%NthRoot != 0 {
		return 0, fmt.Errorf("cannot PrimitiveNthRoot: %d != 1 mod %d", q, NthRoot)
	}

	exp := (q - 1) / NthRoot

	for g := uint64(2); g < MaxRootCandidates+2 && g < q; g++ {
		psi = ModExp(g, exp, q)
		if ModExp(psi, NthRoot>>1, q) == q-1 {
			return psi, nil
		}
	}

	return 0, fmt.Errorf("cannot PrimitiveNthRoot: no primitive %d-th root found mod %d in %d candidates", NthRoot, q, MaxRootCandidates)
}
