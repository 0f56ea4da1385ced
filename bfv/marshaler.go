package bfv

import (
	"bufio"
	"encoding"
	"fmt"
	"io"
	"math/big"

	"github.com/zeebo/blake3"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils/buffer"
)

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// The element is written as a header (N, T, Q, number of components) followed by its components.
func (el Element) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		if len(el.Value) > 3 {
			return 0, newUsageError("WriteTo", "element has %d components", len(el.Value))
		}

		var inc int64

		if inc, err = buffer.WriteInt(w, el.params.N()); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteInt: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteUint64(w, el.params.t); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteUint64: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteBigInt(w, el.params.q); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteBigInt: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteUint8(w, uint8(len(el.Value))); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteUint8: %w", err)
		}
		n += inc

		for i := range el.Value {
			if inc, err = el.Value[i].WriteTo(w); err != nil {
				return n + inc, fmt.Errorf("el.Value[%d].WriteTo: %w", i, err)
			}
			n += inc
		}

		return n, w.Flush()

	default:
		return el.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
//
// The receiver must have been allocated with parameters, for example with [NewElement] or
// [NewCiphertext]: a [*UsageError] is returned if the header read does not match them.
func (el *Element) ReadFrom(r io.Reader) (n int64, err error) {

	if !el.params.isValid() {
		return 0, newUsageError("ReadFrom", "receiver must be allocated with parameters")
	}

	br := buffer.NewReader(r)

	var inc int64

	var N int
	if inc, err = buffer.ReadInt(br, &N); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadInt: %w", err)
	}
	n += inc

	var T uint64
	if inc, err = buffer.ReadUint64(br, &T); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadUint64: %w", err)
	}
	n += inc

	Q := new(big.Int)
	if inc, err = buffer.ReadBigInt(br, Q); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadBigInt: %w", err)
	}
	n += inc

	if N != el.params.N() || T != el.params.t || Q.Cmp(el.params.q) != 0 {
		return n, newUsageError("ReadFrom", "serialized element has (N=%d, T=%d, Q=%s) but receiver has (N=%d, T=%d, Q=%s)",
			N, T, Q, el.params.N(), el.params.t, el.params.q)
	}

	var count uint8
	if inc, err = buffer.ReadUint8(br, &count); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadUint8: %w", err)
	}
	n += inc

	if count < 1 || count > 3 {
		return n, newUsageError("ReadFrom", "serialized element has %d components but must have between 1 and 3", count)
	}

	if len(el.Value) != int(count) {
		el.Value = make([]ring.Poly, count)
	}

	for i := range el.Value {
		if inc, err = el.Value[i].ReadFrom(br); err != nil {
			return n + inc, fmt.Errorf("el.Value[%d].ReadFrom: %w", i, err)
		}
		n += inc

		if err = checkPoly(el.params.RingQ(), el.Value[i]); err != nil {
			return n, fmt.Errorf("el.Value[%d]: %w", i, err)
		}
	}

	return
}

// BinarySize returns the serialized size of the object in bytes.
func (el Element) BinarySize() (size int) {
	size = 8 + 8 + 9 + (el.params.q.BitLen()+7)/8 + 1
	for i := range el.Value {
		size += el.Value[i].BinarySize()
	}
	return
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (el Element) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(el.BinarySize())
	_, err = el.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (el *Element) UnmarshalBinary(p []byte) (err error) {
	_, err = el.ReadFrom(buffer.NewBuffer(p))
	return
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
// It returns a [*UsageError] if the serialized element does not have exactly two components.
func (ct *Ciphertext) ReadFrom(r io.Reader) (n int64, err error) {
	return readShapeFrom(&ct.Element, r, 2)
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (ct *Ciphertext) UnmarshalBinary(p []byte) (err error) {
	_, err = ct.ReadFrom(buffer.NewBuffer(p))
	return
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
// It returns a [*UsageError] if the serialized element does not have exactly three components.
func (ct *ExpandedCiphertext) ReadFrom(r io.Reader) (n int64, err error) {
	return readShapeFrom(&ct.Element, r, 3)
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (ct *ExpandedCiphertext) UnmarshalBinary(p []byte) (err error) {
	_, err = ct.ReadFrom(buffer.NewBuffer(p))
	return
}

func readShapeFrom(el *Element, r io.Reader, components int) (n int64, err error) {

	tmp := &Element{params: el.params}

	if n, err = tmp.ReadFrom(r); err != nil {
		return
	}

	if len(tmp.Value) != components {
		return n, newUsageError("ReadFrom", "serialized element has %d components but %d were expected", len(tmp.Value), components)
	}

	el.Value = tmp.Value

	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// The key is written as its modulus Q followed by the pair (b, a).
func (pk PublicKey) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		if pk.Q == nil {
			return 0, newUsageError("WriteTo", "public key has no modulus")
		}

		var inc int64

		if inc, err = buffer.WriteBigInt(w, pk.Q); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteBigInt: %w", err)
		}
		n += inc

		for i := range pk.Value {
			if inc, err = pk.Value[i].WriteTo(w); err != nil {
				return n + inc, fmt.Errorf("pk.Value[%d].WriteTo: %w", i, err)
			}
			n += inc
		}
		return n, w.Flush()
	default:
		return pk.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (pk *PublicKey) ReadFrom(r io.Reader) (n int64, err error) {

	br := buffer.NewReader(r)

	var inc int64

	Q := new(big.Int)
	if inc, err = buffer.ReadBigInt(br, Q); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadBigInt: %w", err)
	}
	n += inc

	if Q.Cmp(big.NewInt(2)) < 0 {
		return n, fmt.Errorf("cannot ReadFrom: invalid modulus %s", Q)
	}

	var value [2]ring.Poly
	for i := range value {
		if inc, err = value[i].ReadFrom(br); err != nil {
			return n + inc, fmt.Errorf("pk.Value[%d].ReadFrom: %w", i, err)
		}
		n += inc

		if err = checkCoefficients(Q, value[i]); err != nil {
			return n, fmt.Errorf("cannot ReadFrom: pk.Value[%d]: %w", i, err)
		}
	}

	if value[0].N() != value[1].N() {
		return n, fmt.Errorf("cannot ReadFrom: public key components have degrees %d and %d", value[0].N(), value[1].N())
	}

	pk.Q, pk.Value = Q, value

	return
}

// BinarySize returns the serialized size of the object in bytes.
func (pk PublicKey) BinarySize() (size int) {
	size = 9
	if pk.Q != nil {
		size += (pk.Q.BitLen() + 7) / 8
	}
	return size + pk.Value[0].BinarySize() + pk.Value[1].BinarySize()
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pk PublicKey) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pk.BinarySize())
	_, err = pk.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (pk *PublicKey) UnmarshalBinary(p []byte) (err error) {
	_, err = pk.ReadFrom(buffer.NewBuffer(p))
	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// The key is written as its base, its modulus Q, its number of digits, and the pairs (b_i, a_i).
func (evk EvaluationKey) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		if evk.Q == nil {
			return 0, newUsageError("WriteTo", "evaluation key has no modulus")
		}

		var inc int64

		if inc, err = buffer.WriteUint64(w, evk.Base); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteUint64: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteBigInt(w, evk.Q); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteBigInt: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteInt(w, len(evk.Value)); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteInt: %w", err)
		}
		n += inc

		for i := range evk.Value {
			for j := range evk.Value[i] {
				if inc, err = evk.Value[i][j].WriteTo(w); err != nil {
					return n + inc, fmt.Errorf("evk.Value[%d][%d].WriteTo: %w", i, j, err)
				}
				n += inc
			}
		}

		return n, w.Flush()

	default:
		return evk.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (evk *EvaluationKey) ReadFrom(r io.Reader) (n int64, err error) {

	br := buffer.NewReader(r)

	var inc int64

	if inc, err = buffer.ReadUint64(br, &evk.Base); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadUint64: %w", err)
	}
	n += inc

	if evk.Base < 2 {
		return n, fmt.Errorf("cannot ReadFrom: invalid base %d", evk.Base)
	}

	evk.Q = new(big.Int)
	if inc, err = buffer.ReadBigInt(br, evk.Q); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadBigInt: %w", err)
	}
	n += inc

	if evk.Q.Cmp(big.NewInt(2)) < 0 {
		return n, fmt.Errorf("cannot ReadFrom: invalid modulus %s", evk.Q)
	}

	var digits int
	if inc, err = buffer.ReadInt(br, &digits); err != nil {
		return n + inc, fmt.Errorf("buffer.ReadInt: %w", err)
	}
	n += inc

	// A base of at least 2 needs at most log2(Q) digits.
	if digits < 1 || digits > evk.Q.BitLen() {
		return n, fmt.Errorf("cannot ReadFrom: invalid digit count %d", digits)
	}

	evk.Value = make([][2]ring.Poly, digits)
	for i := range evk.Value {
		for j := range evk.Value[i] {
			if inc, err = evk.Value[i][j].ReadFrom(br); err != nil {
				return n + inc, fmt.Errorf("evk.Value[%d][%d].ReadFrom: %w", i, j, err)
			}
			n += inc

			if evk.Value[i][j].N() != evk.Value[0][0].N() {
				return n, fmt.Errorf("cannot ReadFrom: evk.Value[%d][%d] has degree %d but evk.Value[0][0] has degree %d",
					i, j, evk.Value[i][j].N(), evk.Value[0][0].N())
			}

			if err = checkCoefficients(evk.Q, evk.Value[i][j]); err != nil {
				return n, fmt.Errorf("cannot ReadFrom: evk.Value[%d][%d]: %w", i, j, err)
			}
		}
	}

	return
}

// BinarySize returns the serialized size of the object in bytes.
func (evk EvaluationKey) BinarySize() (size int) {
	size = 8 + 9 + 8
	if evk.Q != nil {
		size += (evk.Q.BitLen() + 7) / 8
	}
	for i := range evk.Value {
		size += evk.Value[i][0].BinarySize() + evk.Value[i][1].BinarySize()
	}
	return
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (evk EvaluationKey) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(evk.BinarySize())
	_, err = evk.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (evk *EvaluationKey) UnmarshalBinary(p []byte) (err error) {
	_, err = evk.ReadFrom(buffer.NewBuffer(p))
	return
}

// Fingerprint returns the BLAKE3 digest of the binary serialization of obj.
// It identifies public material, such as a [PublicKey] or an [EvaluationKey], without exchanging it.
func Fingerprint(obj encoding.BinaryMarshaler) (digest [32]byte, err error) {
	var data []byte
	if data, err = obj.MarshalBinary(); err != nil {
		return digest, fmt.Errorf("cannot Fingerprint: %w", err)
	}
	return blake3.Sum256(data), nil
}

// checkPoly returns an error if p is not a polynomial of r with coefficients in [0, Q).
func checkPoly(r *ring.Ring, p ring.Poly) error {
	if p.N() != r.N() {
		return fmt.Errorf("invalid degree: %d != %d", p.N(), r.N())
	}
	return checkCoefficients(r.Modulus(), p)
}

// checkCoefficients returns an error if a coefficient of p is not in [0, Q).
func checkCoefficients(Q *big.Int, p ring.Poly) error {
	for i := range p.Coeffs {
		if p.Coeffs[i].Sign() < 0 || p.Coeffs[i].Cmp(Q) >= 0 {
			return fmt.Errorf("coefficient %d is not in [0, Q)", i)
		}
	}
	return nil
}
