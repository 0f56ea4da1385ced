package bfv

import (
	"github.com/tuneinsight/rlwe-she/ring"
)

// Plaintext is a polynomial of Z_T[X]/(X^N+1), with coefficients in [0, T).
type Plaintext struct {
	params Parameters
	Value  ring.Poly
}

// NewPlaintext allocates a new zero [Plaintext].
func NewPlaintext(params Parameters) *Plaintext {
	return &Plaintext{params: params, Value: ring.NewPoly(params.N())}
}

// Parameters returns the parameters the plaintext was created under.
func (pt Plaintext) Parameters() Parameters {
	return pt.params
}

// CopyNew creates a deep copy of the plaintext.
func (pt Plaintext) CopyNew() *Plaintext {
	return &Plaintext{params: pt.params, Value: pt.Value.CopyNew()}
}

// Equal performs a deep equality test between two plaintexts.
func (pt Plaintext) Equal(other *Plaintext) bool {
	return pt.params.sameContext(other.params) && pt.Value.Equal(other.Value)
}

// Element is a vector of one to three polynomials of Z_Q[X]/(X^N+1), tagged with the
// parameters (Q, N, T) it was produced under.
// [Ciphertext] and [ExpandedCiphertext] are the two- and three-component shapes.
type Element struct {
	params Parameters
	Value  []ring.Poly
}

// NewElement allocates a new zero [Element] with the given number of components.
func NewElement(params Parameters, components int) *Element {
	el := &Element{params: params, Value: make([]ring.Poly, components)}
	for i := range el.Value {
		el.Value[i] = ring.NewPoly(params.N())
	}
	return el
}

// Parameters returns the parameters the element was created under.
func (el Element) Parameters() Parameters {
	return el.params
}

// Degree returns the number of components of the element minus one.
func (el Element) Degree() int {
	return len(el.Value) - 1
}

// CopyNew creates a deep copy of the element.
func (el Element) CopyNew() *Element {
	cp := &Element{params: el.params, Value: make([]ring.Poly, len(el.Value))}
	for i := range el.Value {
		cp.Value[i] = el.Value[i].CopyNew()
	}
	return cp
}

// Equal performs a deep equality test between two elements.
func (el Element) Equal(other *Element) bool {
	if !el.params.sameContext(other.params) || len(el.Value) != len(other.Value) {
		return false
	}
	for i := range el.Value {
		if !el.Value[i].Equal(other.Value[i]) {
			return false
		}
	}
	return true
}

// AsCiphertext returns the element as a [Ciphertext].
// It returns a [*UsageError] if the element does not have exactly two components.
func (el *Element) AsCiphertext() (*Ciphertext, error) {
	if len(el.Value) != 2 {
		return nil, newUsageError("AsCiphertext", "element has %d components but a ciphertext has 2", len(el.Value))
	}
	return &Ciphertext{Element: *el}, nil
}

// AsExpandedCiphertext returns the element as an [ExpandedCiphertext].
// It returns a [*UsageError] if the element does not have exactly three components.
func (el *Element) AsExpandedCiphertext() (*ExpandedCiphertext, error) {
	if len(el.Value) != 3 {
		return nil, newUsageError("AsExpandedCiphertext", "element has %d components but an expanded ciphertext has 3", len(el.Value))
	}
	return &ExpandedCiphertext{Element: *el}, nil
}

// Ciphertext is a fresh, added or relinearized ciphertext (c0, c1), with
// c0 + c1*s = Delta*m + v mod Q.
type Ciphertext struct {
	Element
}

// NewCiphertext allocates a new zero [Ciphertext].
func NewCiphertext(params Parameters) *Ciphertext {
	return &Ciphertext{Element: *NewElement(params, 2)}
}

// CopyNew creates a deep copy of the ciphertext.
func (ct Ciphertext) CopyNew() *Ciphertext {
	return &Ciphertext{Element: *ct.Element.CopyNew()}
}

// ExpandedCiphertext is the raw output (c0, c1, c2) of a multiplication, with
// c0 + c1*s + c2*s^2 = Delta*m + v mod Q.
type ExpandedCiphertext struct {
	Element
}

// NewExpandedCiphertext allocates a new zero [ExpandedCiphertext].
func NewExpandedCiphertext(params Parameters) *ExpandedCiphertext {
	return &ExpandedCiphertext{Element: *NewElement(params, 3)}
}

// CopyNew creates a deep copy of the expanded ciphertext.
func (ct ExpandedCiphertext) CopyNew() *ExpandedCiphertext {
	return &ExpandedCiphertext{Element: *ct.Element.CopyNew()}
}
