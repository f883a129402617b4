package frontend

import (
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func wit(i int64) Assignment {
	return func() (*big.Int, error) { return big.NewInt(i), nil }
}

func TestOneWire(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)

	// the constant wire is allocated upfront at public index 0
	assert.Equal(1, cs.NbPublic())
	assert.Equal([]string{"one"}, cs.PublicNames())

	v, ok := cs.Evaluate(cs.One())
	assert.True(ok)
	assert.Equal(int64(1), v.Int64())
}

func TestConstant(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)

	assert.Len(cs.Constant(0), 0)
	five := cs.Constant(5)
	assert.Len(five, 1)
	v, ok := cs.Evaluate(five)
	assert.True(ok)
	assert.Equal(int64(5), v.Int64())

	// negative constants reduce into the field
	minusOne := cs.Constant(-1)
	v, _ = cs.Evaluate(minusOne)
	expected := new(big.Int).Sub(cs.Field(), big.NewInt(1))
	assert.Equal(expected, v)
}

func TestCoefficientInterning(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)

	a := cs.Constant(42)
	b := cs.Constant(42)
	assert.Equal(a, b)

	// values congruent modulo the field share the coefficient entry
	shifted := new(big.Int).Add(big.NewInt(42), cs.Field())
	c := cs.Constant(shifted)
	assert.Equal(a, c)
}

func TestInputs(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)

	x, err := cs.AddPublicInput("x", wit(3))
	assert.NoError(err)
	y, err := cs.AddSecretInput("y", wit(4))
	assert.NoError(err)

	assert.Equal(Public, x.Visibility())
	assert.Equal(Secret, y.Visibility())
	assert.Equal([]string{"one", "x"}, cs.PublicNames())
	assert.Equal([]string{"y"}, cs.SecretNames())

	vx, ok := cs.Value(x)
	assert.True(ok)
	assert.Equal(int64(3), vx.Int64())

	assert.Panics(func() { _, _ = cs.AddPublicInput("x", wit(5)) })
	assert.Panics(func() { _, _ = cs.AddSecretInput("y", wit(5)) })
}

func TestMissingAssignment(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)

	_, err := cs.Allocate(nil)
	assert.ErrorIs(err, ErrMissingAssignment)

	_, err = cs.AddSecretInput("y", nil)
	assert.ErrorIs(err, ErrMissingAssignment)
}

func TestSetupSkipsAssignments(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Setup)

	invoked := false
	_, err := cs.Allocate(func() (*big.Int, error) {
		invoked = true
		return big.NewInt(1), nil
	})
	assert.NoError(err)
	assert.False(invoked, "witness provider must not run in setup mode")

	// nil assignments are fine in setup mode too
	_, err = cs.AddPublicInput("x", nil)
	assert.NoError(err)

	_, ok := cs.Value(Variable{visibility: Public, id: 1})
	assert.False(ok)
	_, ok = cs.Evaluate(cs.One())
	assert.False(ok)
}

func TestAssignmentErrorPropagates(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)

	boom := errors.New("boom")
	_, err := cs.Allocate(func() (*big.Int, error) { return nil, boom })
	assert.ErrorIs(err, boom)
}

func TestUnsetVariableDiagnostics(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Setup)

	var unset Variable
	assert.False(unset.IsSet())
	_ = cs.Term(unset, big.NewInt(1))

	err := cs.Finalize()
	assert.ErrorIs(err, ErrInputNotSet)
}

func TestForeignVariablePanics(t *testing.T) {
	assert := require.New(t)
	csA := NewSystem(ecc.BN254, Proving)
	for i := 0; i < 3; i++ {
		_, err := csA.Allocate(wit(int64(i)))
		assert.NoError(err)
	}
	v, err := csA.Allocate(wit(7))
	assert.NoError(err)

	csB := NewSystem(ecc.BN254, Proving)
	assert.Panics(func() { csB.Term(v, big.NewInt(1)) })
}

func TestNamespaceDiagnostics(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)

	closeOuter := cs.Namespace("outer")
	closeInner := cs.Namespace("inner")
	// 2 × 2 != 5
	cs.Enforce(cs.Constant(2), cs.Constant(2), cs.Constant(5))
	closeInner()
	closeOuter()

	err := cs.Satisfied()
	assert.ErrorIs(err, ErrUnsatisfiedConstraint)
	assert.Contains(err.Error(), "outer.inner")
}

func TestNamespaceOrder(t *testing.T) {
	cs := NewSystem(ecc.BN254, Setup)
	closeA := cs.Namespace("a")
	closeB := cs.Namespace("b")
	require.Panics(t, func() { closeA() })
	closeB()
	closeA()
}

func TestSatisfied(t *testing.T) {
	assert := require.New(t)

	cs := NewSystem(ecc.BN254, Setup)
	assert.ErrorIs(cs.Satisfied(), ErrNoWitness)

	cs = NewSystem(ecc.BN254, Proving)
	x, err := cs.AddSecretInput("x", wit(3))
	assert.NoError(err)
	lx := cs.LinearExpression(cs.Term(x, big.NewInt(1)))
	cs.Enforce(lx, lx, cs.Constant(9))
	assert.True(cs.IsSatisfied())

	cs.Enforce(lx, lx, cs.Constant(10))
	assert.ErrorIs(cs.Satisfied(), ErrUnsatisfiedConstraint)
}

func TestFinalize(t *testing.T) {
	assert := require.New(t)
	cs := NewSystem(ecc.BN254, Proving)
	_, err := cs.AddPublicInput("x", wit(1))
	assert.NoError(err)

	assert.NoError(cs.Finalize())
	// idempotent
	assert.NoError(cs.Finalize())

	assert.Panics(func() { _, _ = cs.Allocate(wit(1)) })
	assert.Panics(func() { cs.Enforce(cs.One(), cs.One(), cs.One()) })
}

// circuits must synthesize the exact same shape whether or not witness values
// are present.
func TestModeShapeEquality(t *testing.T) {
	assert := require.New(t)

	build := func(mode Mode) *System {
		cs := NewSystem(ecc.BN254, mode)
		x, err := cs.AddPublicInput("x", wit(3))
		assert.NoError(err)
		y, err := cs.AddSecretInput("y", wit(5))
		assert.NoError(err)
		lx := cs.LinearExpression(cs.Term(x, big.NewInt(1)))
		ly := cs.LinearExpression(cs.Term(y, big.NewInt(1)))
		prod := cs.Mul(lx, ly)
		_ = cs.IsZero(cs.Sub(prod, cs.Constant(15)))
		cs.AssertIsEqual(prod, cs.Constant(15))
		assert.NoError(cs.Finalize())
		return cs
	}

	setup := build(Setup)
	proving := build(Proving)

	assert.Equal(setup.NbConstraints(), proving.NbConstraints())
	assert.Equal(setup.NbPublic(), proving.NbPublic())
	assert.Equal(setup.NbSecret(), proving.NbSecret())
	assert.Equal(setup.NbInternal(), proving.NbInternal())
	assert.True(proving.IsSatisfied())
}

func TestNewSystemOverField(t *testing.T) {
	assert := require.New(t)

	q := big.NewInt(97)
	cs := NewSystemOverField(Proving, q)
	assert.Equal(7, cs.FieldBitLen())

	// values reduce modulo the custom field
	v, ok := cs.Evaluate(cs.Constant(100))
	assert.True(ok)
	assert.Equal(int64(3), v.Int64())

	assert.Panics(func() { NewSystemOverField(Setup, nil) })
	assert.Panics(func() { NewSystemOverField(Setup, big.NewInt(1)) })
}

// independent systems are safe to build concurrently; a single system is not.
func TestParallelIndependentSystems(t *testing.T) {
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			cs := NewSystem(ecc.BN254, Proving)
			x, err := cs.AddSecretInput("x", wit(int64(i+2)))
			if err != nil {
				return err
			}
			lx := cs.LinearExpression(cs.Term(x, big.NewInt(1)))
			square := cs.Mul(lx, lx)
			cs.AssertIsEqual(square, cs.Constant((i+2)*(i+2)))
			if err := cs.Finalize(); err != nil {
				return err
			}
			return cs.Satisfied()
		})
	}
	require.NoError(t, g.Wait())
}
