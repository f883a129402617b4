package frontend

import (
	"fmt"
	"math/big"
)

// Hint computes witness values off-circuit. Inputs are the evaluated input
// combinations reduced into the native field; the hint writes its results to
// the pre-allocated outputs. The values a hint produces are unconstrained:
// callers must constrain the outputs for the circuit to stay sound.
type Hint func(field *big.Int, inputs []*big.Int, outputs []*big.Int) error

// NewHint allocates nbOutputs internal wires whose values are computed by f
// in Proving mode. In Setup mode f never runs and the wires hold
// placeholders, so the constraint shape is identical in both modes.
func (cs *System) NewHint(f Hint, nbOutputs int, inputs ...LinearCombination) ([]LinearCombination, error) {
	if nbOutputs <= 0 {
		return nil, fmt.Errorf("hint requires at least one output")
	}
	res := make([]LinearCombination, nbOutputs)

	if cs.mode == Setup {
		for i := range res {
			v, err := cs.Allocate(nil)
			if err != nil {
				return nil, err
			}
			res[i] = cs.LinearExpression(cs.Term(v, bOne))
		}
		return res, nil
	}

	ins := make([]*big.Int, len(inputs))
	for i := range inputs {
		v, _ := cs.Evaluate(inputs[i])
		ins[i] = v
	}
	outs := make([]*big.Int, nbOutputs)
	for i := range outs {
		outs[i] = new(big.Int)
	}
	if err := f(cs.q, ins, outs); err != nil {
		return nil, cs.wrapErr(fmt.Errorf("hint: %w", err))
	}
	for i := range res {
		out := outs[i]
		v, err := cs.Allocate(func() (*big.Int, error) { return out, nil })
		if err != nil {
			return nil, err
		}
		res[i] = cs.LinearExpression(cs.Term(v, bOne))
	}
	return res, nil
}
