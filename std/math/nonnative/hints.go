package nonnative

import (
	"fmt"
	"math/big"

	"github.com/cypherlane/r1cs-std/frontend"
)

// The hints compute limb decompositions of products, quotients and inverses
// off-circuit. Hint outputs are unconstrained; every caller in this package
// constrains them (width checks and the algebraic identity tying them to the
// inputs), which is what keeps deferred reduction sound.

func computeMultiplicationHint(cs *frontend.System, params *Params, leftLimbs, rightLimbs []frontend.LinearCombination) ([]frontend.LinearCombination, error) {
	hintInputs := []frontend.LinearCombination{
		cs.Constant(params.nbBits),
		cs.Constant(len(leftLimbs)),
		cs.Constant(len(rightLimbs)),
	}
	hintInputs = append(hintInputs, leftLimbs...)
	hintInputs = append(hintInputs, rightLimbs...)
	return cs.NewHint(MultiplicationHint, len(leftLimbs)+len(rightLimbs)-1, hintInputs...)
}

// MultiplicationHint computes the limbs of the product of two limb vectors as
// the convolution sum, without carry propagation.
func MultiplicationHint(q *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) < 3 {
		return fmt.Errorf("input must be at least three elements")
	}
	nbBits := int(inputs[0].Int64())
	if 2*nbBits+1 >= q.BitLen() {
		return fmt.Errorf("can not fit multiplication result into limb of length %d", nbBits)
	}
	nbLimbsLeft := int(inputs[1].Int64())
	nbLimbsRight := int(inputs[2].Int64())
	if len(inputs) != 3+nbLimbsLeft+nbLimbsRight {
		return fmt.Errorf("input invalid")
	}
	if len(outputs) < nbLimbsLeft+nbLimbsRight-1 {
		return fmt.Errorf("can not fit multiplication result into %d limbs", len(outputs))
	}
	for _, oi := range outputs {
		if oi == nil {
			return fmt.Errorf("output not initialized")
		}
		oi.SetUint64(0)
	}
	tmp := new(big.Int)
	for i, li := range inputs[3 : 3+nbLimbsLeft] {
		for j, rj := range inputs[3+nbLimbsLeft:] {
			outputs[i+j].Add(outputs[i+j], tmp.Mul(li, rj))
		}
	}
	return nil
}

func computeReductionHint(cs *frontend.System, params *Params, nbQuoLimbs int, inLimbs []frontend.LinearCombination) (quotient, remainder []frontend.LinearCombination, err error) {
	hintInputs := []frontend.LinearCombination{
		cs.Constant(params.nbBits),
		cs.Constant(params.nbLimbs),
		cs.Constant(nbQuoLimbs),
	}
	for _, l := range params.modulusLimbs() {
		hintInputs = append(hintInputs, cs.Constant(l))
	}
	hintInputs = append(hintInputs, inLimbs...)
	res, err := cs.NewHint(ReductionHint, nbQuoLimbs+int(params.nbLimbs), hintInputs...)
	if err != nil {
		return nil, nil, err
	}
	return res[:nbQuoLimbs], res[nbQuoLimbs:], nil
}

// ReductionHint computes the quotient and remainder of the wide input value
// divided by the emulated modulus. The first nbQuoLimbs outputs hold the
// quotient limbs, the rest the remainder limbs.
func ReductionHint(q *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) < 3 {
		return fmt.Errorf("input must be at least three elements")
	}
	nbBits := uint(inputs[0].Uint64())
	nbLimbs := int(inputs[1].Int64())
	nbQuoLimbs := int(inputs[2].Int64())
	if len(inputs[3:]) < nbLimbs+1 {
		return fmt.Errorf("reducible value missing")
	}
	if len(outputs) != nbQuoLimbs+nbLimbs {
		return fmt.Errorf("result does not fit into output")
	}
	p := new(big.Int)
	if err := recompose(inputs[3:3+nbLimbs], nbBits, p); err != nil {
		return fmt.Errorf("recompose emulated modulus: %w", err)
	}
	x := new(big.Int)
	if err := recompose(inputs[3+nbLimbs:], nbBits, x); err != nil {
		return fmt.Errorf("recompose value: %w", err)
	}
	quo := new(big.Int)
	rem := new(big.Int)
	quo.QuoRem(x, p, rem)
	if err := decompose(quo, nbBits, outputs[:nbQuoLimbs]); err != nil {
		return fmt.Errorf("decompose quotient: %w", err)
	}
	if err := decompose(rem, nbBits, outputs[nbQuoLimbs:]); err != nil {
		return fmt.Errorf("decompose remainder: %w", err)
	}
	return nil
}

func computeEqualityHint(cs *frontend.System, params *Params, nbMultipleLimbs int, diffLimbs []frontend.LinearCombination) ([]frontend.LinearCombination, error) {
	hintInputs := []frontend.LinearCombination{
		cs.Constant(params.nbBits),
		cs.Constant(params.nbLimbs),
	}
	for _, l := range params.modulusLimbs() {
		hintInputs = append(hintInputs, cs.Constant(l))
	}
	hintInputs = append(hintInputs, diffLimbs...)
	return cs.NewHint(EqualityHint, nbMultipleLimbs, hintInputs...)
}

// EqualityHint computes k = diff / p when the division is exact. It errors
// when p does not divide diff evenly, as that would mean attempting to prove
// equality of inequal values.
func EqualityHint(q *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) < 2 {
		return fmt.Errorf("at least 2 inputs required")
	}
	nbBits := uint(inputs[0].Uint64())
	nbLimbs := int(inputs[1].Int64())
	if len(inputs[2:]) < nbLimbs+1 {
		return fmt.Errorf("modulus limbs missing")
	}
	p := new(big.Int)
	diff := new(big.Int)
	if err := recompose(inputs[2:2+nbLimbs], nbBits, p); err != nil {
		return fmt.Errorf("recompose emulated modulus: %w", err)
	}
	if err := recompose(inputs[2+nbLimbs:], nbBits, diff); err != nil {
		return fmt.Errorf("recompose diff: %w", err)
	}
	r := new(big.Int)
	k := new(big.Int)
	k.QuoRem(diff, p, r)
	if r.Sign() != 0 {
		return fmt.Errorf("modulus does not divide diff evenly")
	}
	if err := decompose(k, nbBits, outputs); err != nil {
		return fmt.Errorf("decompose: %w", err)
	}
	return nil
}

func computeInverseHint(cs *frontend.System, params *Params, inLimbs []frontend.LinearCombination) ([]frontend.LinearCombination, error) {
	hintInputs := []frontend.LinearCombination{
		cs.Constant(params.nbBits),
		cs.Constant(params.nbLimbs),
	}
	for _, l := range params.modulusLimbs() {
		hintInputs = append(hintInputs, cs.Constant(l))
	}
	hintInputs = append(hintInputs, inLimbs...)
	return cs.NewHint(InverseHint, int(params.nbLimbs), hintInputs...)
}

// InverseHint computes the modular inverse of the input.
func InverseHint(q *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) < 2 {
		return fmt.Errorf("input must be at least two elements")
	}
	nbBits := uint(inputs[0].Uint64())
	nbLimbs := int(inputs[1].Int64())
	if len(inputs[2:]) < 2*nbLimbs {
		return fmt.Errorf("inputs missing")
	}
	if len(outputs) != nbLimbs {
		return fmt.Errorf("result does not fit into output")
	}
	p := new(big.Int)
	if err := recompose(inputs[2:2+nbLimbs], nbBits, p); err != nil {
		return fmt.Errorf("recompose emulated modulus: %w", err)
	}
	x := new(big.Int)
	if err := recompose(inputs[2+nbLimbs:], nbBits, x); err != nil {
		return fmt.Errorf("recompose value: %w", err)
	}
	if x.ModInverse(x, p) == nil {
		return fmt.Errorf("input and modulus not relatively prime")
	}
	if err := decompose(x, nbBits, outputs); err != nil {
		return fmt.Errorf("decompose: %w", err)
	}
	return nil
}

func computeDivisionHint(cs *frontend.System, params *Params, nomLimbs, denomLimbs []frontend.LinearCombination) ([]frontend.LinearCombination, error) {
	hintInputs := []frontend.LinearCombination{
		cs.Constant(params.nbBits),
		cs.Constant(params.nbLimbs),
		cs.Constant(len(nomLimbs)),
	}
	for _, l := range params.modulusLimbs() {
		hintInputs = append(hintInputs, cs.Constant(l))
	}
	hintInputs = append(hintInputs, nomLimbs...)
	hintInputs = append(hintInputs, denomLimbs...)
	return cs.NewHint(DivHint, int(params.nbLimbs), hintInputs...)
}

// DivHint computes nominator/denominator modulo p. The nominator does not
// have to be reduced and may span more limbs; the denominator and the modulus
// have to be nbLimbs long.
func DivHint(q *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) < 3 {
		return fmt.Errorf("input must be at least three elements")
	}
	nbBits := uint(inputs[0].Uint64())
	nbLimbs := int(inputs[1].Int64())
	nbNomLimbs := int(inputs[2].Int64())
	if len(inputs[3:]) != nbNomLimbs+2*nbLimbs {
		return fmt.Errorf("input length mismatch")
	}
	if len(outputs) != nbLimbs {
		return fmt.Errorf("result does not fit into output")
	}
	p := new(big.Int)
	if err := recompose(inputs[3:3+nbLimbs], nbBits, p); err != nil {
		return fmt.Errorf("recompose emulated modulus: %w", err)
	}
	nominator := new(big.Int)
	if err := recompose(inputs[3+nbLimbs:3+nbLimbs+nbNomLimbs], nbBits, nominator); err != nil {
		return fmt.Errorf("recompose nominator: %w", err)
	}
	denominator := new(big.Int)
	if err := recompose(inputs[3+nbLimbs+nbNomLimbs:], nbBits, denominator); err != nil {
		return fmt.Errorf("recompose denominator: %w", err)
	}
	res := new(big.Int).ModInverse(denominator, p)
	if res == nil {
		return fmt.Errorf("no modular inverse")
	}
	res.Mul(res, nominator)
	res.Mod(res, p)
	if err := decompose(res, nbBits, outputs); err != nil {
		return fmt.Errorf("decompose division: %w", err)
	}
	return nil
}
