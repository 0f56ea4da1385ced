package bfv

import (
	"math/big"

	"github.com/tuneinsight/rlwe-she/ring"
	"github.com/tuneinsight/rlwe-she/utils"
)

// Evaluator is a struct that holds the necessary elements to perform the homomorphic operations between ciphertexts and/or plaintexts.
// Every operation returns a new value and leaves its operands untouched.
// An Evaluator can be shared among goroutines: its only mutable state is the [ring.BufferPool], which is synchronized.
type Evaluator struct {
	params Parameters
	ringQ  *ring.Ring
	rlk    *Relinearizer
	bigT   *big.Int
}

// NewEvaluator creates a new [Evaluator] that can perform homomorphic operations on ciphertexts.
// The evaluation key is optional and only required by [Evaluator.Relinearize] and [Evaluator.MulRelin].
// The pool provides the temporary coefficient buffers; if nil, a private pool is used.
func NewEvaluator(params Parameters, evk *EvaluationKey, pool *ring.BufferPool) (eval *Evaluator, err error) {

	if !params.isValid() {
		return nil, newConfigurationError("Parameters", "uninitialized parameters")
	}

	if pool == nil {
		pool = ring.NewPool(params.N())
	}

	if pool.N() != params.N() {
		return nil, newUsageError("NewEvaluator", "buffer pool has degree %d but the parameters have degree %d", pool.N(), params.N())
	}

	eval = &Evaluator{
		params: params,
		ringQ:  params.RingQ().WithPool(pool),
		bigT:   new(big.Int).SetUint64(params.PlaintextModulus()),
	}

	if evk != nil {
		if eval.rlk, err = NewRelinearizer(params, evk); err != nil {
			return nil, err
		}
		eval.rlk.ringQ = eval.ringQ
	}

	return
}

// WithKey returns a shallow copy of the [Evaluator] using evk for relinearization
// and sharing its buffer pool with the receiver.
func (eval Evaluator) WithKey(evk *EvaluationKey) (*Evaluator, error) {
	rlk, err := NewRelinearizer(eval.params, evk)
	if err != nil {
		return nil, err
	}
	rlk.ringQ = eval.ringQ
	return &Evaluator{params: eval.params, ringQ: eval.ringQ, rlk: rlk, bigT: eval.bigT}, nil
}

// Parameters returns the parameters of the evaluator.
func (eval Evaluator) Parameters() Parameters {
	return eval.params
}

// Add returns c1 + c2.
func (eval Evaluator) Add(c1, c2 *Ciphertext) (*Ciphertext, error) {
	if c1 == nil || c2 == nil {
		return nil, newUsageError("Add", "nil operand")
	}
	el, err := eval.AddElements(&c1.Element, &c2.Element)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{Element: *el}, nil
}

// AddElements returns the component-wise sum of el1 and el2. The shorter element is
// padded with zero components, so that the result has max(len(el1), len(el2)) components.
func (eval Evaluator) AddElements(el1, el2 *Element) (out *Element, err error) {

	if err = eval.checkOperands("AddElements", el1, el2); err != nil {
		return
	}

	out = eval.sumElements(el1, el2, false)

	return
}

// Sub returns c1 - c2.
func (eval Evaluator) Sub(c1, c2 *Ciphertext) (*Ciphertext, error) {
	if c1 == nil || c2 == nil {
		return nil, newUsageError("Sub", "nil operand")
	}
	el, err := eval.SubElements(&c1.Element, &c2.Element)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{Element: *el}, nil
}

// SubElements returns the component-wise difference of el1 and el2, with the same padding rule as [Evaluator.AddElements].
func (eval Evaluator) SubElements(el1, el2 *Element) (out *Element, err error) {

	if err = eval.checkOperands("SubElements", el1, el2); err != nil {
		return
	}

	out = eval.sumElements(el1, el2, true)

	return
}

// Neg returns -ct.
func (eval Evaluator) Neg(ct *Ciphertext) (*Ciphertext, error) {
	if ct == nil {
		return nil, newUsageError("Neg", "nil operand")
	}
	el, err := eval.NegElement(&ct.Element)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{Element: *el}, nil
}

// NegElement returns the component-wise negation of el.
func (eval Evaluator) NegElement(el *Element) (out *Element, err error) {

	if err = eval.checkOperands("NegElement", el); err != nil {
		return
	}

	out = NewElement(eval.params, len(el.Value))
	for i := range el.Value {
		eval.ringQ.Neg(el.Value[i], out.Value[i])
	}

	return
}

// AddPlain returns ct + pt, adding Delta*pt on the first component.
func (eval Evaluator) AddPlain(ct *Ciphertext, pt *Plaintext) (out *Ciphertext, err error) {

	if ct == nil || pt == nil {
		return nil, newUsageError("AddPlain", "nil operand")
	}

	if err = eval.checkOperands("AddPlain", &ct.Element); err != nil {
		return
	}

	if !pt.params.sameContext(eval.params) {
		return nil, newUsageError("AddPlain", "plaintext does not match the evaluator parameters")
	}

	out = ct.CopyNew()

	dm := eval.ringQ.Pool().GetBuffPoly()
	defer eval.ringQ.Pool().RecycleBuffPoly(dm)

	eval.ringQ.MulScalarBigint(pt.Value, eval.params.delta, *dm)
	eval.ringQ.Add(out.Value[0], *dm, out.Value[0])

	return
}

// MulScalar returns k*ct.
func (eval Evaluator) MulScalar(ct *Ciphertext, k int64) (*Ciphertext, error) {
	if ct == nil {
		return nil, newUsageError("MulScalar", "nil operand")
	}
	el, err := eval.MulScalarElement(&ct.Element, k)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{Element: *el}, nil
}

// MulScalarElement returns el with every component multiplied by k mod Q.
func (eval Evaluator) MulScalarElement(el *Element, k int64) (out *Element, err error) {

	if err = eval.checkOperands("MulScalarElement", el); err != nil {
		return
	}

	out = NewElement(eval.params, len(el.Value))
	for i := range el.Value {
		eval.ringQ.MulScalar(el.Value[i], k, out.Value[i])
	}

	return
}

// MulPlain returns ct*pt, multiplying every component by the centered
// representative of pt mod T.
func (eval Evaluator) MulPlain(ct *Ciphertext, pt *Plaintext) (out *Ciphertext, err error) {

	if ct == nil || pt == nil {
		return nil, newUsageError("MulPlain", "nil operand")
	}

	if err = eval.checkOperands("MulPlain", &ct.Element); err != nil {
		return
	}

	if !pt.params.sameContext(eval.params) {
		return nil, newUsageError("MulPlain", "plaintext does not match the evaluator parameters")
	}

	ringQ := eval.ringQ

	m := ringQ.Pool().GetBuffPoly()
	defer ringQ.Pool().RecycleBuffPoly(m)

	eval.params.RingT().Center(pt.Value, *m)
	ringQ.Reduce(*m, *m)

	out = NewCiphertext(eval.params)
	for i := range ct.Value {
		ringQ.Mul(ct.Value[i], *m, out.Value[i])
	}

	return
}

// Mul returns the three-component tensor product of c1 and c2, rescaled by T/Q.
func (eval Evaluator) Mul(c1, c2 *Ciphertext) (*ExpandedCiphertext, error) {
	if c1 == nil || c2 == nil {
		return nil, newUsageError("Mul", "nil operand")
	}
	el, err := eval.MulElements(&c1.Element, &c2.Element)
	if err != nil {
		return nil, err
	}
	return &ExpandedCiphertext{Element: *el}, nil
}

// MulElements returns the three-component product of two two-component elements:
// d0 = a0*b0, d1 = a0*b1 + a1*b0 and d2 = a1*b1 are computed exactly over the
// integers on centered representatives, then each d_i is mapped to round(T*d_i/Q) mod Q.
// It returns a [*UsageError] if an operand does not have exactly two components.
func (eval Evaluator) MulElements(el1, el2 *Element) (out *Element, err error) {

	if err = eval.checkOperands("MulElements", el1, el2); err != nil {
		return
	}

	if len(el1.Value) != 2 || len(el2.Value) != 2 {
		return nil, newUsageError("MulElements", "operands have %d and %d components but multiplication requires 2: relinearize first", len(el1.Value), len(el2.Value))
	}

	ringQ := eval.ringQ
	pool := ringQ.Pool()

	a0, a1 := el1.Value[0], el1.Value[1]
	b0, b1 := el2.Value[0], el2.Value[1]

	tmp := pool.GetBuffPoly()
	defer pool.RecycleBuffPoly(tmp)

	d := pool.GetBuffPoly()
	defer pool.RecycleBuffPoly(d)

	out = NewElement(eval.params, 3)

	// d0 = a0*b0
	ringQ.Convolve(a0, b0, *d)
	ringQ.ScaleRound(*d, eval.bigT, eval.params.q, out.Value[0])

	// d1 = a0*b1 + a1*b0
	ringQ.Convolve(a0, b1, *d)
	ringQ.Convolve(a1, b0, *tmp)
	for i := range d.Coeffs {
		d.Coeffs[i].Add(&d.Coeffs[i], &tmp.Coeffs[i])
	}
	ringQ.ScaleRound(*d, eval.bigT, eval.params.q, out.Value[1])

	// d2 = a1*b1
	ringQ.Convolve(a1, b1, *d)
	ringQ.ScaleRound(*d, eval.bigT, eval.params.q, out.Value[2])

	return
}

// Relinearize returns the two-component ciphertext encrypting the same message as ct.
// It returns a [*UsageError] if the evaluator has no evaluation key.
func (eval Evaluator) Relinearize(ct *ExpandedCiphertext) (*Ciphertext, error) {
	if eval.rlk == nil {
		return nil, newUsageError("Relinearize", "evaluator has no evaluation key")
	}
	return eval.rlk.Relinearize(ct)
}

// MulRelin returns the relinearized product of c1 and c2.
// It returns a [*UsageError] if the evaluator has no evaluation key.
func (eval Evaluator) MulRelin(c1, c2 *Ciphertext) (*Ciphertext, error) {

	if eval.rlk == nil {
		return nil, newUsageError("MulRelin", "evaluator has no evaluation key")
	}

	ct, err := eval.Mul(c1, c2)
	if err != nil {
		return nil, err
	}

	return eval.rlk.Relinearize(ct)
}

// checkOperands returns a [*UsageError] if an operand is nil, has an invalid
// number of components or was produced under other parameters.
func (eval Evaluator) checkOperands(op string, els ...*Element) error {
	for _, el := range els {
		if el == nil {
			return newUsageError(op, "nil operand")
		}
		if len(el.Value) < 1 || len(el.Value) > 3 {
			return newUsageError(op, "operand has %d components but must have between 1 and 3", len(el.Value))
		}
		if !el.params.sameContext(eval.params) {
			return newUsageError(op, "operand does not match the evaluator parameters (Q, N, T)")
		}
	}
	return nil
}

// sumElements returns el1 + el2, or el1 - el2 if sub is true, padding the shorter operand with zeros.
func (eval Evaluator) sumElements(el1, el2 *Element, sub bool) (out *Element) {

	out = NewElement(eval.params, utils.Max(len(el1.Value), len(el2.Value)))

	for i := range out.Value {
		switch {
		case i < len(el1.Value) && i < len(el2.Value):
			if sub {
				eval.ringQ.Sub(el1.Value[i], el2.Value[i], out.Value[i])
			} else {
				eval.ringQ.Add(el1.Value[i], el2.Value[i], out.Value[i])
			}
		case i < len(el1.Value):
			out.Value[i].Copy(el1.Value[i])
		case sub:
			eval.ringQ.Neg(el2.Value[i], out.Value[i])
		default:
			out.Value[i].Copy(el2.Value[i])
		}
	}

	return
}
