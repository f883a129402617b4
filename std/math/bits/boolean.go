package bits

import "github.com/cypherlane/r1cs-std/frontend"

// And returns a ∧ b. Both inputs are constrained to be boolean.
func And(cs *frontend.System, a, b frontend.LinearCombination) frontend.LinearCombination {
	cs.AssertIsBoolean(a)
	cs.AssertIsBoolean(b)
	return cs.Mul(a, b)
}

// Or returns a ∨ b as a + b - a·b. Both inputs are constrained to be boolean.
func Or(cs *frontend.System, a, b frontend.LinearCombination) frontend.LinearCombination {
	cs.AssertIsBoolean(a)
	cs.AssertIsBoolean(b)
	return cs.Sub(cs.Add(a, b), cs.Mul(a, b))
}

// Xor returns a ⊕ b as a + b - 2·a·b. Both inputs are constrained to be
// boolean.
func Xor(cs *frontend.System, a, b frontend.LinearCombination) frontend.LinearCombination {
	cs.AssertIsBoolean(a)
	cs.AssertIsBoolean(b)
	two := cs.Constant(2)
	return cs.Sub(cs.Add(a, b), cs.Mul(cs.Mul(two, a), b))
}
