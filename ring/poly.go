package ring

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/tuneinsight/rlwe-she/utils/buffer"
)

// Poly is the structure that contains the coefficients of a polynomial.
// Coefficients are arbitrary precision integers; ring operations keep
// them in [0, Q) unless stated otherwise.
type Poly struct {
	Coeffs []big.Int
}

// NewPoly creates a new polynomial with N coefficients set to zero.
func NewPoly(N int) Poly {
	return Poly{Coeffs: make([]big.Int, N)}
}

// N returns the number of coefficients of the polynomial.
func (pol Poly) N() int {
	return len(pol.Coeffs)
}

// Zero sets all coefficients of the target polynomial to 0.
func (pol Poly) Zero() {
	for i := range pol.Coeffs {
		pol.Coeffs[i].SetUint64(0)
	}
}

// CopyNew creates an exact copy of the target polynomial.
func (pol Poly) CopyNew() Poly {
	p := NewPoly(pol.N())
	p.Copy(pol)
	return p
}

// Copy copies the coefficients of p1 on the target polynomial.
// Both polynomials must have the same degree.
func (pol Poly) Copy(p1 Poly) {
	for i := range pol.Coeffs {
		pol.Coeffs[i].Set(&p1.Coeffs[i])
	}
}

// Equal returns true if the receiver Poly is equal to the provided other Poly.
func (pol Poly) Equal(other Poly) bool {
	if pol.N() != other.N() {
		return false
	}
	for i := range pol.Coeffs {
		if pol.Coeffs[i].Cmp(&other.Coeffs[i]) != 0 {
			return false
		}
	}
	return true
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (pol Poly) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:
		if n, err = buffer.WriteBigIntSlice(w, pol.Coeffs); err != nil {
			return n, fmt.Errorf("cannot write Poly: %w", err)
		}
		return n, w.Flush()
	default:
		return pol.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (pol *Poly) ReadFrom(r io.Reader) (n int64, err error) {
	if n, err = buffer.ReadBigIntSlice(buffer.NewReader(r), &pol.Coeffs); err != nil {
		return n, fmt.Errorf("cannot read Poly: %w", err)
	}
	return
}

// BinarySize returns the serialized size of the object in bytes.
func (pol Poly) BinarySize() (size int) {
	size = 8
	for i := range pol.Coeffs {
		size += 9 + (pol.Coeffs[i].BitLen()+7)/8
	}
	return
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pol Poly) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pol.BinarySize())
	_, err = pol.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (pol *Poly) UnmarshalBinary(p []byte) (err error) {
	_, err = pol.ReadFrom(bytes.NewReader(p))
	return
}
