package frontend

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc"

	"github.com/cypherlane/r1cs-std/debug"
	"github.com/cypherlane/r1cs-std/logger"
)

// Mode selects whether a System carries concrete witness values.
type Mode uint8

const (
	// Setup synthesizes the circuit shape only; witness providers are never
	// invoked.
	Setup Mode = iota
	// Proving synthesizes the same shape with concrete witness values.
	Proving
)

func (m Mode) String() string {
	switch m {
	case Setup:
		return "setup"
	case Proving:
		return "proving"
	default:
		return "unknown"
	}
}

// Assignment provides a concrete witness value in Proving mode. It is never
// invoked in Setup mode. A returned error aborts synthesis and propagates
// unchanged to the caller.
type Assignment func() (*big.Int, error)

// System accumulates wires and rank-1 constraints for one circuit synthesis.
// It is created once per setup or proving run and must be owned by a single
// goroutine; independent circuits use independent Systems.
type System struct {
	mode   Mode
	q      *big.Int // native field modulus
	bitLen int

	// wires, split by visibility. values are placeholders in Setup mode.
	public struct {
		names    []string
		values   []big.Int
		booleans *bitset.BitSet // wires already constrained to {0,1}
	}
	secret struct {
		names    []string
		values   []big.Int
		booleans *bitset.BitSet
	}
	internal struct {
		values   []big.Int
		booleans *bitset.BitSet
	}

	// coefficients appearing in linear combinations, deduplicated.
	// key of coeffsIDs is coeff.Text(16)
	coeffs    []big.Int
	coeffsIDs map[string]int

	constraints []R1C
	info        []constraintInfo // parallel to constraints

	namespaces []string
	unset      []string // diagnostics for terms built from unset variables
	finalized  bool
}

// constraintInfo carries reporting-only metadata; it has no effect on
// evaluation semantics.
type constraintInfo struct {
	path     string
	location string
}

const initialCapacity = 256

var (
	bZero = new(big.Int)
	bOne  = new(big.Int).SetInt64(1)
)

// NewSystem returns a System whose native field is the scalar field of the
// given curve.
func NewSystem(curveID ecc.ID, mode Mode) *System {
	return newSystem(curveID.ScalarField(), mode)
}

// NewSystemOverField returns a System over an arbitrary prime field. Intended
// for tests over non-curve moduli; proving backends consume curve-bound
// systems from NewSystem.
func NewSystemOverField(mode Mode, field *big.Int) *System {
	if field == nil || field.Cmp(bOne) <= 0 {
		panic("invalid field modulus")
	}
	return newSystem(new(big.Int).Set(field), mode)
}

func newSystem(q *big.Int, mode Mode) *System {
	cs := &System{
		mode:        mode,
		q:           q,
		bitLen:      q.BitLen(),
		coeffs:      make([]big.Int, 0, 8),
		coeffsIDs:   make(map[string]int, 8),
		constraints: make([]R1C, 0, initialCapacity),
	}
	cs.public.booleans = bitset.New(8)
	cs.secret.booleans = bitset.New(8)
	cs.internal.booleans = bitset.New(8)

	// interned upfront so cID 0 is zero and cID 1 is one
	cs.coeffID(bZero)
	cs.coeffID(bOne)

	// wire 0 of the public block is the constant one-wire
	cs.public.names = append(cs.public.names, "one")
	cs.public.values = append(cs.public.values, *new(big.Int).SetInt64(1))

	return cs
}

// coeffID fetches the entry where b is stored if it exists, otherwise appends
// b to the coefficient table and returns the new entry.
func (cs *System) coeffID(b *big.Int) int {
	key := b.Text(16)
	if idx, ok := cs.coeffsIDs[key]; ok {
		return idx
	}
	var bCopy big.Int
	bCopy.Set(b)
	resID := len(cs.coeffs)
	cs.coeffs = append(cs.coeffs, bCopy)
	cs.coeffsIDs[key] = resID
	return resID
}

// Term packs a variable and a coefficient into a Term. The coefficient is
// reduced into the native field before interning.
func (cs *System) Term(v Variable, coeff *big.Int) Term {
	if v.visibility == Unset {
		cs.unset = append(cs.unset, debug.Stack())
	} else if v.id >= cs.blockLen(v.visibility) {
		panic("variable was not allocated by this constraint system")
	}
	c := new(big.Int).Mod(coeff, cs.q)
	return Term{cID: cs.coeffID(c), vID: v.id, visibility: v.visibility}
}

// LinearExpression packs a list of terms into a LinearCombination.
func (cs *System) LinearExpression(terms ...Term) LinearCombination {
	res := make(LinearCombination, len(terms))
	copy(res, terms)
	return res
}

// One returns the linear combination evaluating to one in any mode.
func (cs *System) One() LinearCombination {
	return LinearCombination{{cID: 1, vID: 0, visibility: Public}}
}

// Constant returns a linear combination evaluating to the given value in any
// mode. It contributes no new wire or constraint. The input may be any kind
// accepted by FromInterface.
func (cs *System) Constant(input interface{}) LinearCombination {
	b := FromInterface(input)
	b.Mod(&b, cs.q)
	if b.Sign() == 0 {
		return LinearCombination{}
	}
	return LinearCombination{{cID: cs.coeffID(&b), vID: 0, visibility: Public}}
}

// Allocate creates a new internal wire. In Proving mode the assignment is
// invoked and its value stored; a nil or failing assignment is a synthesis
// error. In Setup mode the assignment is ignored and a placeholder is stored.
func (cs *System) Allocate(assign Assignment) (Variable, error) {
	cs.mustBeOpen()
	v := Variable{visibility: Internal, id: len(cs.internal.values)}
	var val big.Int
	if cs.mode == Proving {
		if assign == nil {
			return Variable{}, cs.wrapErr(ErrMissingAssignment)
		}
		b, err := assign()
		if err != nil {
			return Variable{}, cs.wrapErr(err)
		}
		val.Mod(b, cs.q)
	}
	cs.internal.values = append(cs.internal.values, val)
	return v, nil
}

// AddPublicInput allocates a named public input wire. Duplicate names panic,
// as they indicate a circuit construction bug.
func (cs *System) AddPublicInput(name string, assign Assignment) (Variable, error) {
	cs.mustBeOpen()
	for _, n := range cs.public.names {
		if n == name {
			panic("duplicate input name (public)")
		}
	}
	v := Variable{visibility: Public, id: len(cs.public.values)}
	val, err := cs.inputValue(assign)
	if err != nil {
		return Variable{}, fmt.Errorf("public input %q: %w", name, err)
	}
	cs.public.names = append(cs.public.names, name)
	cs.public.values = append(cs.public.values, val)
	return v, nil
}

// AddSecretInput allocates a named secret input wire. Duplicate names panic.
func (cs *System) AddSecretInput(name string, assign Assignment) (Variable, error) {
	cs.mustBeOpen()
	for _, n := range cs.secret.names {
		if n == name {
			panic("duplicate input name (secret)")
		}
	}
	v := Variable{visibility: Secret, id: len(cs.secret.values)}
	val, err := cs.inputValue(assign)
	if err != nil {
		return Variable{}, fmt.Errorf("secret input %q: %w", name, err)
	}
	cs.secret.names = append(cs.secret.names, name)
	cs.secret.values = append(cs.secret.values, val)
	return v, nil
}

func (cs *System) inputValue(assign Assignment) (big.Int, error) {
	var val big.Int
	if cs.mode != Proving {
		return val, nil
	}
	if assign == nil {
		return val, cs.wrapErr(ErrMissingAssignment)
	}
	b, err := assign()
	if err != nil {
		return val, cs.wrapErr(err)
	}
	val.Mod(b, cs.q)
	return val, nil
}

// Enforce appends the constraint eval(l)·eval(r) = eval(o). It records the
// current namespace path for satisfaction diagnostics.
func (cs *System) Enforce(l, r, o LinearCombination) {
	cs.mustBeOpen()
	cs.constraints = append(cs.constraints, R1C{L: l, R: r, O: o})
	info := constraintInfo{path: cs.path()}
	if debug.Debug {
		info.location = debug.Stack()
	}
	cs.info = append(cs.info, info)
}

// Namespace pushes a named scope used in diagnostics only. The returned
// function pops the scope and must be called when the sub-circuit is done.
func (cs *System) Namespace(name string) func() {
	cs.namespaces = append(cs.namespaces, name)
	depth := len(cs.namespaces)
	return func() {
		if len(cs.namespaces) != depth {
			panic("namespace closed out of order")
		}
		cs.namespaces = cs.namespaces[:depth-1]
	}
}

func (cs *System) path() string {
	return strings.Join(cs.namespaces, ".")
}

func (cs *System) wrapErr(err error) error {
	if p := cs.path(); p != "" {
		return fmt.Errorf("%s: %w", p, err)
	}
	return err
}

// Value returns the witness value of an allocated variable. The second return
// is false in Setup mode; callers must branch on it.
func (cs *System) Value(v Variable) (*big.Int, bool) {
	if cs.mode != Proving || v.visibility == Unset {
		return nil, false
	}
	return new(big.Int).Set(cs.wireValue(v.visibility, v.id)), true
}

// Evaluate returns the value of a linear combination under the current
// witness. The second return is false in Setup mode.
func (cs *System) Evaluate(lc LinearCombination) (*big.Int, bool) {
	if cs.mode != Proving {
		return nil, false
	}
	res := new(big.Int)
	tmp := new(big.Int)
	for _, t := range lc {
		tmp.Mul(&cs.coeffs[t.cID], cs.wireValue(t.visibility, t.vID))
		res.Add(res, tmp)
	}
	res.Mod(res, cs.q)
	return res, true
}

func (cs *System) wireValue(vis Visibility, id int) *big.Int {
	switch vis {
	case Public:
		return &cs.public.values[id]
	case Secret:
		return &cs.secret.values[id]
	case Internal:
		return &cs.internal.values[id]
	default:
		panic("unset variable has no value")
	}
}

func (cs *System) blockLen(vis Visibility) int {
	switch vis {
	case Public:
		return len(cs.public.values)
	case Secret:
		return len(cs.secret.values)
	case Internal:
		return len(cs.internal.values)
	default:
		return 0
	}
}

func (cs *System) mustBeOpen() {
	if cs.finalized {
		panic("constraint system is finalized")
	}
}

// Finalize seals the system for backend consumption. It fails if any term was
// built from an unset variable. Further allocations or constraints panic.
func (cs *System) Finalize() error {
	if cs.finalized {
		return nil
	}
	if len(cs.unset) > 0 {
		return fmt.Errorf("%w: %s", ErrInputNotSet, cs.unset[0])
	}
	cs.finalized = true

	log := logger.Logger()
	log.Debug().
		Stringer("mode", cs.mode).
		Int("fieldBitLen", cs.bitLen).
		Int("nbConstraints", len(cs.constraints)).
		Int("nbPublic", len(cs.public.values)).
		Int("nbSecret", len(cs.secret.values)).
		Int("nbInternal", len(cs.internal.values)).
		Msg("constraint system finalized")
	return nil
}

// NbConstraints returns the number of constraints accumulated so far. It
// helps circuit profiling and debugging.
func (cs *System) NbConstraints() int { return len(cs.constraints) }

// Constraints exposes the accumulated constraints in insertion order. The
// returned slice is read-only; backends iterate it to build keys or proofs.
func (cs *System) Constraints() []R1C { return cs.constraints }

// CoeffOf returns a copy of the coefficient a term refers to.
func (cs *System) CoeffOf(t Term) *big.Int {
	return new(big.Int).Set(&cs.coeffs[t.cID])
}

// NbPublic returns the number of public wires, including the one-wire.
func (cs *System) NbPublic() int { return len(cs.public.values) }

// NbSecret returns the number of secret input wires.
func (cs *System) NbSecret() int { return len(cs.secret.values) }

// NbInternal returns the number of internal wires.
func (cs *System) NbInternal() int { return len(cs.internal.values) }

// PublicNames returns the names of the public inputs in allocation order.
func (cs *System) PublicNames() []string {
	return append([]string(nil), cs.public.names...)
}

// SecretNames returns the names of the secret inputs in allocation order.
func (cs *System) SecretNames() []string {
	return append([]string(nil), cs.secret.names...)
}

// Mode returns the synthesis mode of the system.
func (cs *System) Mode() Mode { return cs.mode }

// Field returns a copy of the native field modulus.
func (cs *System) Field() *big.Int { return new(big.Int).Set(cs.q) }

// FieldBitLen returns the bit length of the native field modulus.
func (cs *System) FieldBitLen() int { return cs.bitLen }
