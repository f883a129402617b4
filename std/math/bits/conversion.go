// Package bits provides the bit-level gadget layer: binary (de)composition,
// booleanity and bitwise logic. A value decomposed to n digits is guaranteed,
// under the constraint system's soundness, to equal some integer in [0, 2^n).
package bits

import (
	"fmt"
	"math/big"

	"github.com/cypherlane/r1cs-std/frontend"
)

type baseConversionConfig struct {
	NbDigits             int
	UnconstrainedOutputs bool
	UnconstrainedInputs  bool
}

// BaseConversionOption configures ToBinary and FromBinary.
type BaseConversionOption func(opt *baseConversionConfig) error

// WithNbDigits sets the number of digits to decompose into. Bounding a value
// to n digits is the range-check primitive of this layer.
func WithNbDigits(nbDigits int) BaseConversionOption {
	return func(opt *baseConversionConfig) error {
		if nbDigits <= 0 {
			return fmt.Errorf("number of digits must be positive")
		}
		opt.NbDigits = nbDigits
		return nil
	}
}

// WithUnconstrainedOutputs skips the booleanity constraints on the digits
// returned by ToBinary. The caller must constrain them otherwise.
func WithUnconstrainedOutputs() BaseConversionOption {
	return func(opt *baseConversionConfig) error {
		opt.UnconstrainedOutputs = true
		return nil
	}
}

// WithUnconstrainedInputs skips the booleanity constraints on the digits
// given to FromBinary. Sound only if the inputs are constrained elsewhere.
func WithUnconstrainedInputs() BaseConversionOption {
	return func(opt *baseConversionConfig) error {
		opt.UnconstrainedInputs = true
		return nil
	}
}

// ToBinary decomposes v into bits in little-endian order. Each bit is
// constrained to be boolean and the weighted sum of the bits is constrained
// to equal v, so the decomposition also bounds v to [0, 2^nbDigits).
func ToBinary(cs *frontend.System, v frontend.LinearCombination, opts ...BaseConversionOption) ([]frontend.LinearCombination, error) {
	cfg := baseConversionConfig{
		NbDigits: cs.FieldBitLen(),
	}
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	// when cfg.NbDigits == 1, v itself has to be a binary digit. This saves
	// one constraint.
	if cfg.NbDigits == 1 {
		cs.AssertIsBoolean(v)
		return []frontend.LinearCombination{v}, nil
	}

	bits, err := cs.NewHint(NBits, cfg.NbDigits, v)
	if err != nil {
		return nil, err
	}

	// Σbi = Σ (2**i * b[i])
	Σbi := frontend.LinearCombination{}
	c := big.NewInt(1)
	for i := 0; i < len(bits); i++ {
		if !cfg.UnconstrainedOutputs {
			cs.AssertIsBoolean(bits[i])
		}
		Σbi = cs.Add(Σbi, cs.MulConstant(bits[i], c))
		c.Lsh(c, 1)
	}
	cs.AssertIsEqual(Σbi, v)

	return bits, nil
}

// FromBinary recomposes little-endian bits into Σ (2**i * b[i]). Booleanity
// of the inputs is asserted unless WithUnconstrainedInputs is given; the
// recomposition itself records no constraint.
func FromBinary(cs *frontend.System, digits []frontend.LinearCombination, opts ...BaseConversionOption) (frontend.LinearCombination, error) {
	cfg := baseConversionConfig{}
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	Σbi := frontend.LinearCombination{}
	c := big.NewInt(1)
	for i := 0; i < len(digits); i++ {
		if !cfg.UnconstrainedInputs {
			cs.AssertIsBoolean(digits[i])
		}
		Σbi = cs.Add(Σbi, cs.MulConstant(digits[i], c))
		c.Lsh(c, 1)
	}
	return Σbi, nil
}

// NBits returns the first len(outputs) bits of the input.
func NBits(q *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) != 1 {
		return fmt.Errorf("NBits expects one input")
	}
	n := inputs[0]
	for i := 0; i < len(outputs); i++ {
		outputs[i].SetUint64(uint64(n.Bit(i)))
	}
	return nil
}
