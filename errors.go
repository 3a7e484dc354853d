package jabr

import "errors"

var (
	// ErrDegenerateImpedance is returned for a branch with r == 0 and x == 0.
	ErrDegenerateImpedance = errors.New("jabr: zero impedance has no admittance")

	// ErrNoReference is returned when a case has no in-service reference bus.
	ErrNoReference = errors.New("jabr: no reference bus")

	// ErrUnknownBus is returned when a generator or branch names a bus that is not in the case.
	ErrUnknownBus = errors.New("jabr: unknown bus")

	// ErrIslanded is returned when some bus cannot be reached from the reference bus.
	ErrIslanded = errors.New("jabr: network is not connected")

	// ErrNotTree is returned by tree recovery on a network that has a cycle.
	ErrNotTree = errors.New("jabr: network is not a tree")

	// ErrNonPositiveU is returned when a relaxed voltage square is negative or NaN.
	ErrNonPositiveU = errors.New("jabr: relaxed voltage square must be non-negative")

	// ErrDimension is returned when a vector does not match the network size.
	ErrDimension = errors.New("jabr: dimension mismatch")

	// ErrInvalidCase is returned by Case.Validate.
	ErrInvalidCase = errors.New("jabr: invalid case")
)
