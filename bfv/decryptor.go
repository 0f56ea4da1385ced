package bfv

import (
	"math/big"

	"github.com/tuneinsight/rlwe-she/ring"
)

// Decryptor is a type for decrypting ciphertexts with a [SecretKey].
// A Decryptor is read-only and can be shared among goroutines.
type Decryptor struct {
	params Parameters
	sk     *SecretKey
	bigT   *big.Int
}

// NewDecryptor instantiates a new [Decryptor] for the given secret key.
func NewDecryptor(params Parameters, sk *SecretKey) (dec *Decryptor, err error) {

	if !params.isValid() {
		return nil, newConfigurationError("Parameters", "uninitialized parameters")
	}

	if sk == nil || !sk.matches(params) {
		return nil, newUsageError("NewDecryptor", "secret key does not match the parameters")
	}

	return &Decryptor{
		params: params,
		sk:     sk,
		bigT:   new(big.Int).SetUint64(params.PlaintextModulus()),
	}, nil
}

// Decrypt decrypts the ciphertext on a new plaintext: m = round(T * [c0 + c1*s]_Q / Q) mod T.
func (dec Decryptor) Decrypt(ct *Ciphertext) (pt *Plaintext, err error) {
	if ct == nil {
		return nil, newUsageError("Decrypt", "nil ciphertext")
	}
	return dec.DecryptElement(&ct.Element)
}

// DecryptElement decrypts a two-component element on a new plaintext.
// It returns a [*UsageError] if the element has three components, which must be relinearized first,
// or fewer than two components.
func (dec Decryptor) DecryptElement(el *Element) (pt *Plaintext, err error) {

	if el == nil {
		return nil, newUsageError("DecryptElement", "nil element")
	}

	switch len(el.Value) {
	case 2:
	case 3:
		return nil, newUsageError("DecryptElement", "element has 3 components: relinearize first")
	default:
		return nil, newUsageError("DecryptElement", "element has %d components but decryption requires 2", len(el.Value))
	}

	if !el.params.sameContext(dec.params) {
		return nil, newUsageError("DecryptElement", "element does not match the decryptor parameters")
	}

	ringQ := dec.params.RingQ()

	phase := ringQ.NewPoly()
	dec.phase(el, phase)
	ringQ.Center(phase, phase)

	pt = NewPlaintext(dec.params)
	dec.params.RingT().ScaleRound(phase, dec.bigT, dec.params.q, pt.Value)

	return
}

// phase writes c0 + c1*s mod Q on p.
func (dec Decryptor) phase(el *Element, p ring.Poly) {
	ringQ := dec.params.RingQ()
	p.Copy(el.Value[0])
	ringQ.MulThenAdd(el.Value[1], dec.sk.Value, p)
}

// ShallowCopy returns a copy of the [Decryptor] sharing the secret key with the receiver.
func (dec Decryptor) ShallowCopy() *Decryptor {
	return &Decryptor{params: dec.params, sk: dec.sk, bigT: dec.bigT}
}

// Parameters returns the parameters of the decryptor.
func (dec Decryptor) Parameters() Parameters {
	return dec.params
}
