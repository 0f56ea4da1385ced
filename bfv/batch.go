package bfv

import (
	"context"
	"fmt"
	"runtime"

	"github.com/tuneinsight/rlwe-she/utils"
	"github.com/tuneinsight/rlwe-she/utils/concurrency"
	"github.com/tuneinsight/rlwe-she/utils/sampling"
)

// BatchEncrypt encrypts the plaintexts concurrently on at most workers goroutines, each
// holding a shallow copy of enc. If workers <= 0, runtime.NumCPU() workers are used.
// The first error, or the cancellation of ctx, aborts the batch and is returned.
func BatchEncrypt(ctx context.Context, enc *Encryptor, pts []*Plaintext, workers int) (cts []*Ciphertext, err error) {

	if enc == nil {
		return nil, newUsageError("BatchEncrypt", "nil encryptor")
	}

	encs := make([]*Encryptor, workerCount(workers, len(pts)))
	for i := range encs {
		encs[i] = enc.ShallowCopy()
	}

	return batchEncrypt(ctx, encs, pts, func(enc *Encryptor, _ int) *Encryptor { return enc })
}

// BatchEncryptDeterministic is as [BatchEncrypt], but the randomness used to encrypt pts[i] is
// read from a [sampling.KeyedPRNG] keyed with [sampling.DeriveKey](seed, i). The output only
// depends on the public key, the plaintexts and the seed, and not on the scheduling of the workers.
func BatchEncryptDeterministic(ctx context.Context, enc *Encryptor, pts []*Plaintext, workers int, seed []byte) (cts []*Ciphertext, err error) {

	if enc == nil {
		return nil, newUsageError("BatchEncryptDeterministic", "nil encryptor")
	}

	encs := make([]*Encryptor, workerCount(workers, len(pts)))
	for i := range encs {
		encs[i] = enc
	}

	return batchEncrypt(ctx, encs, pts, func(enc *Encryptor, i int) *Encryptor {
		prng, err := sampling.NewKeyedPRNG(sampling.DeriveKey(seed, i))
		if err != nil {
			// DeriveKey always returns a 32-byte key.
			panic(fmt.Errorf("sanity check: %w", err))
		}
		return enc.WithPRNG(prng)
	})
}

func batchEncrypt(ctx context.Context, encs []*Encryptor, pts []*Plaintext, prepare func(enc *Encryptor, i int) *Encryptor) (cts []*Ciphertext, err error) {

	cts = make([]*Ciphertext, len(pts))

	m := concurrency.NewResourceManager(ctx, encs)
	for i := range pts {
		m.Run(func(enc *Encryptor) (err error) {
			if cts[i], err = prepare(enc, i).Encrypt(pts[i]); err != nil {
				return fmt.Errorf("cannot BatchEncrypt: item %d: %w", i, err)
			}
			return
		})
	}

	if err = m.Wait(); err != nil {
		return nil, err
	}

	return
}

// BatchDecrypt decrypts the ciphertexts concurrently on at most workers goroutines.
// If workers <= 0, runtime.NumCPU() workers are used.
// The first error, or the cancellation of ctx, aborts the batch and is returned.
func BatchDecrypt(ctx context.Context, dec *Decryptor, cts []*Ciphertext, workers int) (pts []*Plaintext, err error) {

	if dec == nil {
		return nil, newUsageError("BatchDecrypt", "nil decryptor")
	}

	decs := make([]*Decryptor, workerCount(workers, len(cts)))
	for i := range decs {
		decs[i] = dec.ShallowCopy()
	}

	pts = make([]*Plaintext, len(cts))

	m := concurrency.NewResourceManager(ctx, decs)
	for i := range cts {
		m.Run(func(dec *Decryptor) (err error) {
			if pts[i], err = dec.Decrypt(cts[i]); err != nil {
				return fmt.Errorf("cannot BatchDecrypt: item %d: %w", i, err)
			}
			return
		})
	}

	if err = m.Wait(); err != nil {
		return nil, err
	}

	return
}

// workerCount returns the number of workers to use for n items.
func workerCount(workers, n int) int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return utils.Max(1, utils.Min(workers, n))
}
