// Package bfv implements a somewhat homomorphic encryption scheme of the
// Brakerski/Fan-Vercauteren family over the ring Z_Q[X]/(X^N+1), with a
// plaintext modulus T dividing Q.
//
// Ciphertexts support an unlimited number of additions and a number of
// multiplications bounded by the parameters. A multiplication returns an
// [ExpandedCiphertext] of three components that must be relinearized back
// into a [Ciphertext] before it can be decrypted or multiplied again.
// [AnalyzeNoise] reports the remaining noise budget of a ciphertext for a
// known plaintext.
package bfv
