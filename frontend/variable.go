package frontend

// Visibility encodes the witness block a variable belongs to.
type Visibility uint8

const (
	Unset Visibility = iota
	Internal
	Secret
	Public
)

func (v Visibility) String() string {
	switch v {
	case Internal:
		return "internal"
	case Secret:
		return "secret"
	case Public:
		return "public"
	default:
		return "unset"
	}
}

// Variable is a handle to a wire allocated in a System. The zero value is
// unset; using it in a Term is caught at Finalize. A Variable is only
// meaningful within the System that allocated it.
type Variable struct {
	visibility Visibility
	id         int
}

// WireID returns the index of the variable inside its visibility block.
func (v Variable) WireID() int { return v.id }

// Visibility returns the visibility block of the variable.
func (v Variable) Visibility() Visibility { return v.visibility }

// IsSet reports whether the variable was allocated by a System.
func (v Variable) IsSet() bool { return v.visibility != Unset }

// Term is coeff·variable. The coefficient is interned in the owning System's
// coefficient table and referenced by id.
type Term struct {
	cID        int
	vID        int
	visibility Visibility
}

// WireID returns the wire index of the term's variable.
func (t Term) WireID() int { return t.vID }

// CoeffID returns the index of the term's coefficient in the System table.
func (t Term) CoeffID() int { return t.cID }

// Visibility returns the visibility block of the term's variable.
func (t Term) Visibility() Visibility { return t.visibility }

// LinearCombination is an ordered sum of terms Σ coeff_i·value(var_i). The
// empty combination evaluates to zero. Evaluating one never requires witness
// knowledge in Setup mode.
type LinearCombination []Term

// Clone returns a copy of the linear combination that can be mutated
// independently.
func (lc LinearCombination) Clone() LinearCombination {
	res := make(LinearCombination, len(lc))
	copy(res, lc)
	return res
}

// R1C is a rank-1 constraint enforcing eval(L)·eval(R) = eval(O).
type R1C struct {
	L, R, O LinearCombination
}
