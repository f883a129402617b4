package frontend

import (
	"fmt"
	"math/big"
)

// Add returns the term-wise sum of the given linear combinations. Terms over
// the same wire are combined; no constraint is recorded.
func (cs *System) Add(a, b LinearCombination, extra ...LinearCombination) LinearCombination {
	res := a.Clone()

	// quick index to find terms by wire
	type wireKey struct {
		vis Visibility
		id  int
	}
	hm := make(map[wireKey]int, len(res))
	for i, t := range res {
		hm[wireKey{t.visibility, t.vID}] = i
	}

	merge := func(lc LinearCombination) {
		for _, t := range lc {
			k := wireKey{t.visibility, t.vID}
			if existing, ok := hm[k]; ok {
				coeff := new(big.Int).Add(&cs.coeffs[res[existing].cID], &cs.coeffs[t.cID])
				coeff.Mod(coeff, cs.q)
				res[existing].cID = cs.coeffID(coeff)
			} else {
				res = append(res, t)
				hm[k] = len(res) - 1
			}
		}
	}
	merge(b)
	for _, lc := range extra {
		merge(lc)
	}

	// drop cancelled terms
	out := res[:0]
	for _, t := range res {
		if cs.coeffs[t.cID].Sign() != 0 {
			out = append(out, t)
		}
	}
	return out
}

// Neg returns the negation of the linear combination. No constraint is
// recorded.
func (cs *System) Neg(a LinearCombination) LinearCombination {
	res := make(LinearCombination, len(a))
	coeff := new(big.Int)
	for i, t := range a {
		coeff.Sub(cs.q, &cs.coeffs[t.cID])
		coeff.Mod(coeff, cs.q)
		res[i] = Term{cID: cs.coeffID(coeff), vID: t.vID, visibility: t.visibility}
	}
	return res
}

// Sub returns a-b. No constraint is recorded.
func (cs *System) Sub(a, b LinearCombination) LinearCombination {
	return cs.Add(a, cs.Neg(b))
}

// MulConstant returns the linear combination scaled by a constant. No
// constraint is recorded.
func (cs *System) MulConstant(a LinearCombination, k *big.Int) LinearCombination {
	kk := new(big.Int).Mod(k, cs.q)
	if kk.Sign() == 0 {
		return LinearCombination{}
	}
	res := make(LinearCombination, len(a))
	coeff := new(big.Int)
	for i, t := range a {
		coeff.Mul(&cs.coeffs[t.cID], kk)
		coeff.Mod(coeff, cs.q)
		res[i] = Term{cID: cs.coeffID(coeff), vID: t.vID, visibility: t.visibility}
	}
	return res
}

// constantValue returns the value of a linear combination when it is a pure
// constant (empty, or a single term on the one-wire).
func (cs *System) constantValue(a LinearCombination) (*big.Int, bool) {
	if len(a) == 0 {
		return new(big.Int), true
	}
	if len(a) == 1 && a[0].visibility == Public && a[0].vID == 0 {
		return new(big.Int).Set(&cs.coeffs[a[0].cID]), true
	}
	return nil, false
}

// Mul returns a·b. When an operand is constant the other is scaled without
// recording a constraint; otherwise a new internal wire holding the product
// is allocated and the constraint a·b = res is recorded.
func (cs *System) Mul(a, b LinearCombination) LinearCombination {
	if ca, ok := cs.constantValue(a); ok {
		if cb, ok := cs.constantValue(b); ok {
			ca.Mul(ca, cb)
			return cs.Constant(ca)
		}
		return cs.MulConstant(b, ca)
	}
	if cb, ok := cs.constantValue(b); ok {
		return cs.MulConstant(a, cb)
	}

	res, err := cs.Allocate(func() (*big.Int, error) {
		va, _ := cs.Evaluate(a)
		vb, _ := cs.Evaluate(b)
		va.Mul(va, vb)
		return va, nil
	})
	if err != nil {
		// the assignment above cannot fail
		panic(err)
	}
	o := cs.LinearExpression(cs.Term(res, bOne))
	cs.Enforce(a, b, o)
	return o
}

// AssertIsEqual enforces eval(a) == eval(b).
func (cs *System) AssertIsEqual(a, b LinearCombination) {
	cs.Enforce(a, cs.One(), b)
}

// AssertIsBoolean enforces eval(a) ∈ {0,1}. Booleanity of a single wire is
// recorded so repeated assertions on the same wire cost one constraint.
func (cs *System) AssertIsBoolean(a LinearCombination) {
	if c, ok := cs.constantValue(a); ok {
		if !(c.Sign() == 0 || c.Cmp(bOne) == 0) {
			panic(fmt.Sprintf("assertIsBoolean failed: constant %s", c.String()))
		}
		return
	}
	if len(a) == 1 && cs.coeffs[a[0].cID].Cmp(bOne) == 0 {
		if cs.isBoolean(a[0]) {
			return
		}
		cs.markBoolean(a[0])
	}
	// a * (1 - a) == 0
	cs.Enforce(a, cs.Sub(cs.One(), a), LinearCombination{})
}

func (cs *System) isBoolean(t Term) bool {
	switch t.visibility {
	case Public:
		return cs.public.booleans.Test(uint(t.vID))
	case Secret:
		return cs.secret.booleans.Test(uint(t.vID))
	default:
		return cs.internal.booleans.Test(uint(t.vID))
	}
}

func (cs *System) markBoolean(t Term) {
	switch t.visibility {
	case Public:
		cs.public.booleans.Set(uint(t.vID))
	case Secret:
		cs.secret.booleans.Set(uint(t.vID))
	default:
		cs.internal.booleans.Set(uint(t.vID))
	}
}

// Select returns a if cond is 1 and b if cond is 0. cond is constrained to be
// boolean.
func (cs *System) Select(cond, a, b LinearCombination) LinearCombination {
	cs.AssertIsBoolean(cond)
	// b + cond*(a-b)
	return cs.Add(cs.Mul(cond, cs.Sub(a, b)), b)
}

// IsZero returns a linear combination evaluating to 1 when eval(a) == 0 and
// to 0 otherwise.
func (cs *System) IsZero(a LinearCombination) LinearCombination {
	if c, ok := cs.constantValue(a); ok {
		if c.Sign() == 0 {
			return cs.One()
		}
		return LinearCombination{}
	}
	outs, err := cs.NewHint(isZeroHint, 2, a)
	if err != nil {
		// isZeroHint cannot fail
		panic(err)
	}
	m, k := outs[0], outs[1]
	cs.AssertIsBoolean(m)
	// a·k = 1 - m  and  a·m = 0
	cs.Enforce(a, k, cs.Sub(cs.One(), m))
	cs.Enforce(a, m, LinearCombination{})
	return m
}

// isZeroHint returns m=1,k=0 when the input is zero and m=0,k=1/input
// otherwise.
func isZeroHint(q *big.Int, inputs, outputs []*big.Int) error {
	if len(inputs) != 1 || len(outputs) != 2 {
		return fmt.Errorf("isZeroHint: expected 1 input, 2 outputs")
	}
	if inputs[0].Sign() == 0 {
		outputs[0].SetInt64(1)
		outputs[1].SetInt64(0)
		return nil
	}
	outputs[0].SetInt64(0)
	if outputs[1].ModInverse(inputs[0], q) == nil {
		return fmt.Errorf("isZeroHint: input not invertible")
	}
	return nil
}
