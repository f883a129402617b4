package frontend

import "errors"

var (
	// ErrInputNotSet is returned by Finalize when a linear combination
	// references a variable that was never allocated.
	ErrInputNotSet = errors.New("variable is not set")

	// ErrMissingAssignment is returned when a witness provider is required in
	// Proving mode but none was given.
	ErrMissingAssignment = errors.New("missing witness assignment")

	// ErrNoWitness is returned by Satisfied when the system was synthesized
	// in Setup mode and carries no witness values.
	ErrNoWitness = errors.New("witness values are not available in setup mode")

	// ErrUnsatisfiedConstraint is returned by Satisfied when a constraint's
	// L·R = O invariant does not hold for the current witness.
	ErrUnsatisfiedConstraint = errors.New("constraint is not satisfied")
)
