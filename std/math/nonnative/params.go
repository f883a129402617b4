// Package nonnative implements operations modulo an integer different from
// the native field of the constraint system.
//
// An element of the target field is represented by limbs of fixed width. The
// limb sum may exceed the target modulus between operations; full reduction
// is deferred to an explicit Reduce call which re-establishes the canonical
// bit widths. The overflow counter of every element tracks how many bits the
// limbs may have accumulated above the nominal width, so operations know when
// a reduction is mandatory before the native field would wrap around.
package nonnative

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/cypherlane/r1cs-std/frontend"
)

// Params defines the parameters of the emulated ring of integers modulo p. If
// p is prime, then the ring is also a finite field where inverse and division
// are allowed.
type Params struct {
	// p is the modulus
	p *big.Int
	// hasInverses indicates if the order is prime
	hasInverses bool
	// nbLimbs is the number of limbs which fit a reduced element
	nbLimbs uint
	// nbBits is the number of bits per limb. The top limb may contain fewer
	// than nbBits bits.
	nbBits uint

	// limb decomposition of p, computed once. The limbs are constants shared
	// by every constraint system using these parameters.
	pLimbsOnce sync.Once
	pLimbs     []*big.Int
}

// NewParams initializes the parameters for emulating operations modulo p
// where every limb of an element contains up to nbBits bits. Returns an error
// if sanity checks fail.
//
// This method checks the primality of p to detect if the parameters define a
// finite field. As such, invocation of this method is expensive and should be
// done once per modulus.
func NewParams(nbBits int, p *big.Int) (*Params, error) {
	if p.Cmp(big.NewInt(1)) < 1 {
		return nil, fmt.Errorf("modulus must be at least 2")
	}
	if nbBits < 3 {
		// even three is way too small, but it should probably work
		return nil, fmt.Errorf("nbBits must be at least 3")
	}
	nbLimbs := (p.BitLen() + nbBits - 1) / nbBits
	fp := &Params{
		p:           new(big.Int).Set(p),
		nbLimbs:     uint(nbLimbs),
		nbBits:      uint(nbBits),
		hasInverses: p.ProbablyPrime(20),
	}
	return fp, nil
}

// Modulus returns a copy of the emulated modulus.
func (fp *Params) Modulus() *big.Int {
	return new(big.Int).Set(fp.p)
}

// NbLimbs returns the number of limbs of a reduced element.
func (fp *Params) NbLimbs() uint { return fp.nbLimbs }

// BitsPerLimb returns the nominal limb width in bits.
func (fp *Params) BitsPerLimb() uint { return fp.nbBits }

// IsPrime reports whether the modulus is (probably) prime, i.e. whether
// inverse and division are available.
func (fp *Params) IsPrime() bool { return fp.hasInverses }

// modulusLimbs returns the limb decomposition of p. The returned slice is
// shared and must not be mutated.
func (fp *Params) modulusLimbs() []*big.Int {
	fp.pLimbsOnce.Do(func() {
		limbs := make([]*big.Int, fp.nbLimbs)
		for i := range limbs {
			limbs[i] = new(big.Int)
		}
		if err := decompose(fp.p, fp.nbBits, limbs); err != nil {
			// p fits nbLimbs limbs by construction
			panic(fmt.Sprintf("decompose modulus: %v", err))
		}
		fp.pLimbs = limbs
	})
	return fp.pLimbs
}

// topLimbBits returns the number of significant bits in the most significant
// limb of a reduced element. The modulus bit length need not be a multiple of
// the limb width, so the top limb is range-checked to the remaining bits only.
func (fp *Params) topLimbBits() int {
	return (fp.p.BitLen()-1)%int(fp.nbBits) + 1
}

// NewElement returns an initialized element in the ring. Its value is not
// constrained; it is only safe to use as a receiver in operations. For
// elements initialized to values use Zero, One, ConstantFromBig or Allocate.
func (fp *Params) NewElement(cs *frontend.System) Element {
	if uint(cs.FieldBitLen()) < 2*fp.nbBits+1 {
		panic(fmt.Sprintf("elements with limb width %d do not fit into a %d-bit native field", fp.nbBits, cs.FieldBitLen()))
	}
	return Element{
		Limbs:    make([]frontend.LinearCombination, fp.nbLimbs),
		params:   fp,
		overflow: 0,
		cs:       cs,
	}
}

// Allocate creates an element from a target-field witness. In Proving mode
// the assignment is invoked once and its value decomposed into limbs; in
// Setup mode placeholder limbs are allocated. Every limb is range-checked to
// its nominal width.
func (fp *Params) Allocate(cs *frontend.System, assign frontend.Assignment) (Element, error) {
	e := fp.NewElement(cs)

	// the witness is decomposed once, lazily, on the first limb assignment
	var limbs []*big.Int
	compute := func() error {
		if limbs != nil {
			return nil
		}
		if assign == nil {
			return frontend.ErrMissingAssignment
		}
		b, err := assign()
		if err != nil {
			return err
		}
		val := new(big.Int).Mod(b, fp.p)
		limbs = make([]*big.Int, fp.nbLimbs)
		for i := range limbs {
			limbs[i] = new(big.Int)
		}
		return decompose(val, fp.nbBits, limbs)
	}

	one := big.NewInt(1)
	for i := range e.Limbs {
		i := i
		v, err := cs.Allocate(func() (*big.Int, error) {
			if err := compute(); err != nil {
				return nil, err
			}
			return limbs[i], nil
		})
		if err != nil {
			return Element{}, fmt.Errorf("allocate limb %d: %w", i, err)
		}
		e.Limbs[i] = cs.LinearExpression(cs.Term(v, one))
	}
	if err := e.EnforceWidth(); err != nil {
		return Element{}, err
	}
	return e, nil
}

// ConstantFromBig returns a constant element from the value. The returned
// element is not safe to use as an operation receiver.
func (fp *Params) ConstantFromBig(cs *frontend.System, value *big.Int) (Element, error) {
	if fp.p.Cmp(value) == -1 {
		return Element{}, fmt.Errorf("value larger than modulus")
	}
	limbs := make([]*big.Int, fp.nbLimbs)
	for i := range limbs {
		limbs[i] = new(big.Int)
	}
	if err := decompose(value, fp.nbBits, limbs); err != nil {
		return Element{}, fmt.Errorf("decompose value: %w", err)
	}
	e := fp.NewElement(cs)
	for i := range limbs {
		e.Limbs[i] = cs.Constant(limbs[i])
	}
	return e, nil
}

// Zero returns zero as a constant.
func (fp *Params) Zero(cs *frontend.System) Element {
	e, err := fp.ConstantFromBig(cs, big.NewInt(0))
	if err != nil {
		panic(fmt.Sprintf("constant from zero: %v", err))
	}
	return e
}

// One returns one as a constant.
func (fp *Params) One(cs *frontend.System) Element {
	e, err := fp.ConstantFromBig(cs, big.NewInt(1))
	if err != nil {
		panic(fmt.Sprintf("constant from one: %v", err))
	}
	return e
}
