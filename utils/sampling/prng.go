package sampling

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// PRNG is an interface for secure generation of random bytes
type PRNG interface {
	io.Reader
}

// ThreadSafePRNG is a [PRNG] reading from crypto/rand.
// It can be shared among goroutines.
type ThreadSafePRNG struct {
}

// NewPRNG returns a new PRNG that is thread-safe
func NewPRNG() (*ThreadSafePRNG, error) {
	return &ThreadSafePRNG{}, nil
}

// Read reads bytes from crypto/rand on sum.
func (prng *ThreadSafePRNG) Read(sum []byte) (n int, err error) {
	return rand.Read(sum)
}

// KeyedPRNG is a structure storing the parameters used to securely and *deterministically* generate
// sequences of random bytes using the hash function blake2b. Backward sequence
// security (given the digest i, compute the digest i-1) is ensured by default, however forward sequence
// security (given the digest i, compute the digest i+1) is only ensured if the KeyedPRNG is keyed.
// WARNING: KeyedPRNG should NOT be called by multiple threads. It does not make sense to do so as the resulting
// sequence will not be deterministic for a given key. For a PRNG securely seeded with a private key use [ThreadSafePRNG].
type KeyedPRNG struct {
	mutex sync.Mutex
	key   []byte
	xof   blake2b.XOF
}

// NewKeyedPRNG creates a new instance of KeyedPRNG.
// Accepts an optional key, else set key=nil which is treated as key=[]byte{}
// WARNING: A PRNG INITIALISED WITH key=nil IS INSECURE!
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	var err error
	prng := new(KeyedPRNG)
	prng.key = make([]byte, len(key))
	copy(prng.key, key)
	if prng.xof, err = blake2b.NewXOF(blake2b.OutputLengthUnknown, key); err != nil {
		return nil, fmt.Errorf("cannot NewKeyedPRNG: %w", err)
	}
	return prng, nil
}

// Key returns a copy of the key used to seed the PRNG.
// This value can be used with [NewKeyedPRNG] to instantiate
// a new PRNG that will produce the same stream of bytes.
func (prng *KeyedPRNG) Key() (key []byte) {
	key = make([]byte, len(prng.key))
	copy(key, prng.key)
	return
}

// Read reads bytes from the KeyedPRNG on sum.
func (prng *KeyedPRNG) Read(sum []byte) (n int, err error) {
	prng.mutex.Lock()
	defer prng.mutex.Unlock()
	return prng.xof.Read(sum)
}

// Reset resets the PRNG to its initial state.
func (prng *KeyedPRNG) Reset() {
	prng.mutex.Lock()
	defer prng.mutex.Unlock()
	prng.xof.Reset()
}

// DeriveKey derives the index-th 32-byte sub-key of master with BLAKE3
// in key derivation mode. Distinct indexes give independent streams when
// the sub-keys are used to seed a [KeyedPRNG].
func DeriveKey(master []byte, index int) (key []byte) {
	h := blake3.NewDeriveKey("rlwe-she sampling.DeriveKey v1")
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(index))
	/* #nosec G104: blake3.Hasher.Write never returns an error */
	h.Write(master)
	h.Write(idx[:])
	return h.Sum(nil)
}

// Source is a buffered source of uniform uint64 reading from a [PRNG].
// It implements the math/rand/v2 Source interface and io.Reader.
// A Source is not safe for concurrent use.
type Source struct {
	PRNG
	buf [1024]byte
	ptr int
}

// NewSource returns a new [Source] reading from prng.
func NewSource(prng PRNG) *Source {
	return &Source{PRNG: prng, ptr: 1024}
}

// Uint64 returns a uniform uint64.
func (s *Source) Uint64() uint64 {
	if s.ptr == len(s.buf) {
		if _, err := io.ReadFull(s.PRNG, s.buf[:]); err != nil {
			panic(fmt.Errorf("cannot Source.Uint64: %w", err))
		}
		s.ptr = 0
	}
	x := binary.LittleEndian.Uint64(s.buf[s.ptr:])
	s.ptr += 8
	return x
}
