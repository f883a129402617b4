package nonnative

import (
	"errors"
	"fmt"
	"math/big"
	mbits "math/bits"

	"github.com/cypherlane/r1cs-std/frontend"
	"github.com/cypherlane/r1cs-std/std/math/bits"
	"github.com/cypherlane/r1cs-std/std/rangecheck"
)

// ErrNotReduced is returned by operations which require their operands to be
// in reduced form (overflow zero). Callers must Reduce first; comparing wide
// representations limb-wise could accept or reject values that differ by a
// multiple of the modulus.
var ErrNotReduced = errors.New("operand is not reduced")

// Element defines an element in the ring of integers modulo p. The integer
// value of the element is split into limbs of nbBits length, in little-endian
// (least significant limb first) order.
//
// An element is either fresh (overflow zero: every limb is range-checked to
// its nominal width) or composed (result of arithmetic: the representation
// invariant still holds exactly, but limbs may exceed the nominal width by
// overflow bits). Only Reduce turns a composed element back into a fresh one.
type Element struct {
	Limbs []frontend.LinearCombination

	// params carries the ring parameters
	params *Params
	// overflow indicates the number of bits the limbs may carry on top of
	// the nominal width. To ensure that no limb overflows the native field,
	// nbBits+overflow must stay below the native field bit length.
	overflow uint
	// cs is the owning constraint system
	cs *frontend.System
}

// Overflow returns the number of bits the limbs may have accumulated above
// the nominal limb width. Zero means the element is fresh.
func (e *Element) Overflow() uint { return e.overflow }

// maxWidth returns the maximum bit width of a limb value (nominal width plus
// overflow) which still fits into the native field. If the next operation
// would exceed it, the operand must be reduced first.
func (e *Element) maxWidth() uint {
	return uint(e.cs.FieldBitLen()) - 1
}

// Set sets e to a. The limb slice is copied so e can be mutated
// independently.
func (e *Element) Set(a Element) {
	e.Limbs = make([]frontend.LinearCombination, len(a.Limbs))
	copy(e.Limbs, a.Limbs)
	e.overflow = a.overflow
}

// EnforceWidth enforces the bit widths of a freshly decomposed element: every
// limb to the nominal width and the top limb to the remaining bits of the
// modulus only.
func (e *Element) EnforceWidth() error {
	rc := rangecheck.New(e.cs)
	for i := range e.Limbs {
		limbNbBits := int(e.params.nbBits)
		if i == len(e.Limbs)-1 {
			limbNbBits = e.params.topLimbBits()
		}
		if err := rc.Check(e.Limbs[i], limbNbBits); err != nil {
			return fmt.Errorf("limb %d: %w", i, err)
		}
	}
	return nil
}

// reduced returns a reduced copy of a, reducing only when necessary.
func (e *Element) reduced(a Element, headroom uint) (Element, error) {
	if e.params.nbBits+a.overflow+headroom < e.maxWidth() {
		return a, nil
	}
	red := e.params.NewElement(e.cs)
	if err := red.Reduce(a); err != nil {
		return Element{}, err
	}
	return red, nil
}

// Add sets e to a+b. The result is composed: its limbs may exceed the nominal
// width and it is not reduced modulo p.
func (e *Element) Add(a, b Element) error {
	var err error
	if a, err = e.reduced(a, 1); err != nil {
		return err
	}
	if b, err = e.reduced(b, 1); err != nil {
		return err
	}
	nbLimbs := max(len(a.Limbs), len(b.Limbs))
	limbs := make([]frontend.LinearCombination, nbLimbs)
	for i := range limbs {
		limbs[i] = frontend.LinearCombination{}
		if i < len(a.Limbs) {
			limbs[i] = e.cs.Add(limbs[i], a.Limbs[i])
		}
		if i < len(b.Limbs) {
			limbs[i] = e.cs.Add(limbs[i], b.Limbs[i])
		}
	}
	e.Limbs = limbs
	e.overflow = max(a.overflow, b.overflow) + 1
	return nil
}

// Sub sets e to a-b. Limb-wise subtraction could underflow the native field,
// so a multiple of p is added first (see subPadding). The result is composed.
func (e *Element) Sub(a, b Element) error {
	var err error
	if a, err = e.reduced(a, 2); err != nil {
		return err
	}
	if b, err = e.reduced(b, 2); err != nil {
		return err
	}
	nbLimbs := max(len(a.Limbs), len(b.Limbs))
	padLimbs := subPadding(e.params, b.overflow, uint(nbLimbs))
	limbs := make([]frontend.LinearCombination, nbLimbs)
	for i := range limbs {
		limbs[i] = e.cs.Constant(padLimbs[i])
		if i < len(a.Limbs) {
			limbs[i] = e.cs.Add(limbs[i], a.Limbs[i])
		}
		if i < len(b.Limbs) {
			limbs[i] = e.cs.Sub(limbs[i], b.Limbs[i])
		}
	}
	e.Limbs = limbs
	e.overflow = max(a.overflow, b.overflow+1) + 1
	return nil
}

// Negate sets e to -a, computed as a multiple of p minus a so that all limbs
// stay non-negative. The result is composed.
func (e *Element) Negate(a Element) error {
	z := e.params.Zero(e.cs)
	return e.Sub(z, a)
}

// mulOverflow returns the overflow of a product of a and b: both limb widths,
// plus the bits accumulated by the convolution sum.
func (e *Element) mulOverflow(a, b Element) uint {
	return e.params.nbBits + a.overflow + b.overflow + log2Up(min(len(a.Limbs), len(b.Limbs)))
}

// Mul sets e to a*b. The product limbs come from a hint as the convolution
// sum of the operand limbs; the identity
//
//	(Σ a_i c^i)·(Σ b_i c^i) = Σ z_i c^i
//
// is enforced at the points c = 0..2m-2 with one multiplicative constraint
// per point. Both sides are polynomials of degree 2m-2 in c, so agreement at
// 2m-1 points forces the convolution identity. The result is composed and not
// reduced modulo p.
func (e *Element) Mul(a, b Element) error {
	// a multiplication directly following unreduced operations is allowed
	// only while the product limbs fit the native field
	var err error
	for e.params.nbBits+e.mulOverflow(a, b) > e.maxWidth() {
		if a.overflow == 0 && b.overflow == 0 {
			return fmt.Errorf("limb width %d leaves no headroom for multiplication in a %d-bit native field", e.params.nbBits, e.cs.FieldBitLen())
		}
		if a.overflow > b.overflow {
			if a, err = e.reduced(a, e.maxWidth()); err != nil {
				return err
			}
		} else if b, err = e.reduced(b, e.maxWidth()); err != nil {
			return err
		}
	}

	limbs, err := computeMultiplicationHint(e.cs, e.params, a.Limbs, b.Limbs)
	if err != nil {
		return fmt.Errorf("multiplication hint: %w", err)
	}
	for c := 0; c < len(limbs); c++ {
		cb := big.NewInt(int64(c))
		l := evalAt(e.cs, a.Limbs, cb)
		r := evalAt(e.cs, b.Limbs, cb)
		o := evalAt(e.cs, limbs, cb)
		e.cs.Enforce(l, r, o)
	}
	e.Limbs = limbs
	e.overflow = e.mulOverflow(a, b)
	return nil
}

// Square sets e to a*a. The result is composed.
func (e *Element) Square(a Element) error {
	return e.Mul(a, a)
}

// evalAt returns Σ limbs[i]·at^i as a linear combination.
func evalAt(cs *frontend.System, limbs []frontend.LinearCombination, at *big.Int) frontend.LinearCombination {
	res := frontend.LinearCombination{}
	pow := big.NewInt(1)
	for i := range limbs {
		res = cs.Add(res, cs.MulConstant(limbs[i], pow))
		pow.Mul(pow, at)
	}
	return res
}

// mulByModulus returns the product limbs of x and the constant modulus limbs.
// The modulus limbs are constants, so the convolution is linear in x and
// records no constraint.
func mulByModulus(cs *frontend.System, params *Params, x []frontend.LinearCombination) []frontend.LinearCombination {
	pLimbs := params.modulusLimbs()
	res := make([]frontend.LinearCombination, len(x)+len(pLimbs)-1)
	for i := range res {
		res[i] = frontend.LinearCombination{}
	}
	for i := range x {
		for j := range pLimbs {
			res[i+j] = cs.Add(res[i+j], cs.MulConstant(x[i], pLimbs[j]))
		}
	}
	return res
}

// Reduce sets e to the canonical-width representative of a. Off-circuit the
// exact quotient and remainder of the wide value divided by p are computed;
// in-circuit the fresh remainder limbs are range-checked, the quotient is
// bounded, and the identity a = quotient·p + remainder is enforced limb-wise
// with carries. An under-constrained quotient/remainder pair would let a
// prover claim an incorrect residue, so all three steps are mandatory.
func (e *Element) Reduce(a Element) error {
	if a.overflow == 0 {
		// fast path — already reduced, omit reduction
		e.Set(a)
		return nil
	}

	// bound on the wide value: every limb is below 2^(nbBits+overflow)
	wideBits := uint(len(a.Limbs))*e.params.nbBits + a.overflow
	pBits := uint(e.params.p.BitLen())
	quoBits := uint(1)
	if wideBits > pBits-1 {
		quoBits = wideBits - pBits + 1
	}
	nbQuoLimbs := int((quoBits + e.params.nbBits - 1) / e.params.nbBits)

	quo, rem, err := computeReductionHint(e.cs, e.params, nbQuoLimbs, a.Limbs)
	if err != nil {
		return fmt.Errorf("reduction hint: %w", err)
	}

	// fresh remainder limbs, canonical widths
	e.Limbs = rem
	e.overflow = 0
	if err := e.EnforceWidth(); err != nil {
		return err
	}

	// bounded quotient
	rc := rangecheck.New(e.cs)
	for i := range quo {
		w := int(e.params.nbBits)
		if i == len(quo)-1 {
			w = int(quoBits) - (len(quo)-1)*int(e.params.nbBits)
		}
		if err := rc.Check(quo[i], w); err != nil {
			return fmt.Errorf("quotient limb %d: %w", i, err)
		}
	}

	// a = quo*p + rem, limb-wise with carries
	qp := mulByModulus(e.cs, e.params, quo)
	rhs := make([]frontend.LinearCombination, max(len(qp), len(rem)))
	for i := range rhs {
		rhs[i] = frontend.LinearCombination{}
		if i < len(qp) {
			rhs[i] = e.cs.Add(rhs[i], qp[i])
		}
		if i < len(rem) {
			rhs[i] = e.cs.Add(rhs[i], rem[i])
		}
	}
	rhsOverflow := e.params.nbBits + log2Up(min(len(quo), len(e.params.modulusLimbs()))) + 1
	nbCarryBits := max(a.overflow, rhsOverflow) + 1
	return assertLimbsEqualitySlow(e.cs, a.Limbs, rhs, e.params.nbBits, nbCarryBits)
}

// AssertIsEqual enforces that e equals a modulo p. Both operands must be
// reduced; ErrNotReduced is returned otherwise.
func (e *Element) AssertIsEqual(a Element) error {
	if e.overflow != 0 || a.overflow != 0 {
		return ErrNotReduced
	}
	return e.assertIsEqual(a)
}

// assertIsEqual enforces e == a (mod p) for operands of any overflow by
// proving that their difference is a multiple of p.
func (e *Element) assertIsEqual(a Element) error {
	diff := e.params.NewElement(e.cs)
	if err := diff.Sub(a, *e); err != nil {
		return err
	}

	wideBits := uint(len(diff.Limbs))*e.params.nbBits + diff.overflow
	pBits := uint(e.params.p.BitLen())
	kBits := uint(1)
	if wideBits > pBits-1 {
		kBits = wideBits - pBits + 1
	}
	nbKLimbs := int((kBits + e.params.nbBits - 1) / e.params.nbBits)

	kLimbs, err := computeEqualityHint(e.cs, e.params, nbKLimbs, diff.Limbs)
	if err != nil {
		return fmt.Errorf("equality hint: %w", err)
	}
	rc := rangecheck.New(e.cs)
	for i := range kLimbs {
		w := int(e.params.nbBits)
		if i == len(kLimbs)-1 {
			w = int(kBits) - (len(kLimbs)-1)*int(e.params.nbBits)
		}
		if err := rc.Check(kLimbs[i], w); err != nil {
			return fmt.Errorf("multiple limb %d: %w", i, err)
		}
	}

	kp := mulByModulus(e.cs, e.params, kLimbs)
	kpOverflow := e.params.nbBits + log2Up(min(len(kLimbs), len(e.params.modulusLimbs())))
	nbCarryBits := max(diff.overflow, kpOverflow) + 1
	return assertLimbsEqualitySlow(e.cs, diff.Limbs, kp, e.params.nbBits, nbCarryBits)
}

// AssertLimbsEquality asserts that the limbs represent the same integer value
// (up to overflow). This method does not ensure that the values are equal
// modulo p; for modular equality use AssertIsEqual.
func (e *Element) AssertLimbsEquality(a Element) error {
	// fast path — equal overflows and limb counts compare limb-wise
	if a.overflow == e.overflow && len(a.Limbs) == len(e.Limbs) {
		for i := range a.Limbs {
			e.cs.AssertIsEqual(a.Limbs[i], e.Limbs[i])
		}
		return nil
	}
	// slow path — the overflows differ, compare with carries
	nbCarryBits := max(e.overflow, a.overflow) + 1
	return assertLimbsEqualitySlow(e.cs, e.Limbs, a.Limbs, e.params.nbBits, nbCarryBits)
}

// assertLimbsEqualitySlow asserts that two slices of limbs represent the same
// integer value. This is the costliest routine in the package as it bit
// decomposes every limb difference to propagate the carries.
func assertLimbsEqualitySlow(cs *frontend.System, l, r []frontend.LinearCombination, nbBits, nbCarryBits uint) error {
	nbLimbs := max(len(l), len(r))
	maxValue := new(big.Int).Lsh(big.NewInt(1), nbBits+nbCarryBits)
	maxValueShift := new(big.Int).Lsh(big.NewInt(1), nbCarryBits)

	carry := frontend.LinearCombination{}
	for i := 0; i < nbLimbs; i++ {
		diff := cs.Add(cs.Constant(maxValue), carry)
		if i < len(l) {
			diff = cs.Add(diff, l[i])
		}
		if i < len(r) {
			diff = cs.Sub(diff, r[i])
		}
		if i > 0 {
			diff = cs.Sub(diff, cs.Constant(maxValueShift))
		}
		diffBits, err := bits.ToBinary(cs, diff, bits.WithNbDigits(int(nbBits+nbCarryBits+1)))
		if err != nil {
			return fmt.Errorf("decompose limb difference %d: %w", i, err)
		}
		diffMain, err := bits.FromBinary(cs, diffBits[:nbBits], bits.WithUnconstrainedInputs())
		if err != nil {
			return err
		}
		cs.AssertIsEqual(diffMain, frontend.LinearCombination{})
		if carry, err = bits.FromBinary(cs, diffBits[nbBits:], bits.WithUnconstrainedInputs()); err != nil {
			return err
		}
	}
	cs.AssertIsEqual(carry, cs.Constant(maxValueShift))
	return nil
}

// Div sets e to a/b. It panics if the modulus is not a prime. The result is
// fresh (less than the modulus); this is more efficient than inverting b and
// multiplying by a.
func (e *Element) Div(a, b Element) error {
	if !e.params.hasInverses {
		panic("modulus not a prime")
	}
	div, err := computeDivisionHint(e.cs, e.params, a.Limbs, b.Limbs)
	if err != nil {
		return fmt.Errorf("division hint: %w", err)
	}
	e.Limbs = div
	e.overflow = 0
	if err := e.EnforceWidth(); err != nil {
		return err
	}
	res := e.params.NewElement(e.cs)
	if err := res.Mul(*e, b); err != nil {
		return err
	}
	return res.assertIsEqual(a)
}

// Inverse sets e to 1/a. It panics if the modulus is not a prime. The result
// is fresh.
func (e *Element) Inverse(a Element) error {
	if !e.params.hasInverses {
		panic("modulus not a prime")
	}
	k, err := computeInverseHint(e.cs, e.params, a.Limbs)
	if err != nil {
		return fmt.Errorf("inverse hint: %w", err)
	}
	e.Limbs = k
	e.overflow = 0
	if err := e.EnforceWidth(); err != nil {
		return err
	}
	res := e.params.NewElement(e.cs)
	if err := res.Mul(*e, a); err != nil {
		return err
	}
	one := e.params.One(e.cs)
	return res.assertIsEqual(one)
}

// Select sets e to a if selector is 1 and to b if selector is 0.
func (e *Element) Select(selector frontend.LinearCombination, a, b Element) error {
	if len(a.Limbs) != len(b.Limbs) {
		panic("unequal limb counts for select")
	}
	if a.overflow != b.overflow {
		panic("unequal overflows for select")
	}
	e.Limbs = make([]frontend.LinearCombination, len(a.Limbs))
	e.overflow = a.overflow
	for i := range a.Limbs {
		e.Limbs[i] = e.cs.Select(selector, a.Limbs[i], b.Limbs[i])
	}
	return nil
}

// ToBits returns the bit representation of the element in little-endian (LSB
// first) order. The returned bits are constrained to be 0 or 1. The element
// must be reduced.
func (e *Element) ToBits() ([]frontend.LinearCombination, error) {
	if e.overflow != 0 {
		return nil, ErrNotReduced
	}
	var fullBits []frontend.LinearCombination
	for i := 0; i < len(e.Limbs)-1; i++ {
		limbBits, err := bits.ToBinary(e.cs, e.Limbs[i], bits.WithNbDigits(int(e.params.nbBits)))
		if err != nil {
			return nil, err
		}
		fullBits = append(fullBits, limbBits...)
	}
	topBits, err := bits.ToBinary(e.cs, e.Limbs[len(e.Limbs)-1], bits.WithNbDigits(e.params.topLimbBits()))
	if err != nil {
		return nil, err
	}
	return append(fullBits, topBits...), nil
}

// log2Up returns ceil(log2(n)) for n >= 1.
func log2Up(n int) uint {
	if n <= 1 {
		return 0
	}
	return uint(mbits.Len(uint(n - 1)))
}
