// Package rangecheck implements the range checking gadget.
//
// Values are bounded by binary decomposition of the variable into bits.
package rangecheck

import (
	"github.com/cypherlane/r1cs-std/frontend"
	"github.com/cypherlane/r1cs-std/std/math/bits"
)

// Checker bounds values to a bit width.
type Checker interface {
	Check(v frontend.LinearCombination, nbBits int) error
}

// New returns a range checker for the given system.
func New(cs *frontend.System) Checker {
	return plainChecker{cs: cs}
}

type plainChecker struct {
	cs *frontend.System
}

// Check constrains v to [0, 2^nbBits).
func (pl plainChecker) Check(v frontend.LinearCombination, nbBits int) error {
	_, err := bits.ToBinary(pl.cs, v, bits.WithNbDigits(nbBits))
	return err
}
