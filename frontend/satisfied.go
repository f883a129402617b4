package frontend

import (
	"fmt"
	"math/big"
)

// Satisfied evaluates every constraint against the current witness and
// returns an error describing the first violated one. It is a proving-mode
// diagnostic for tests and debugging; backends perform their own satisfaction
// check during proof generation.
func (cs *System) Satisfied() error {
	if cs.mode != Proving {
		return ErrNoWitness
	}
	tmp := new(big.Int)
	for i, c := range cs.constraints {
		l, _ := cs.Evaluate(c.L)
		r, _ := cs.Evaluate(c.R)
		o, _ := cs.Evaluate(c.O)
		tmp.Mul(l, r)
		tmp.Mod(tmp, cs.q)
		if tmp.Cmp(o) != 0 {
			info := cs.info[i]
			err := fmt.Errorf("%w: #%d: %s × %s != %s", ErrUnsatisfiedConstraint, i, l, r, o)
			if info.path != "" {
				err = fmt.Errorf("%s: %w", info.path, err)
			}
			if info.location != "" {
				err = fmt.Errorf("%w\n%s", err, info.location)
			}
			return err
		}
	}
	return nil
}

// IsSatisfied reports whether every constraint holds for the current witness.
func (cs *System) IsSatisfied() bool {
	return cs.Satisfied() == nil
}
