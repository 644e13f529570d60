package epidemic

import "errors"

var (
	// ErrInvalidPopulation is returned when the particle count is not positive.
	ErrInvalidPopulation = errors.New("population must be a positive number of citizens")
	// ErrInvalidArea is returned when the relative occupied area is not positive.
	ErrInvalidArea = errors.New("relative area must be positive")
	// ErrInvalidParams is returned for any other out-of-range parameter.
	ErrInvalidParams = errors.New("invalid simulation parameters")
	// ErrPackingInfeasible is returned when no overlap-free population could be
	// sampled within the allowed number of attempts.
	ErrPackingInfeasible = errors.New("could not place citizens without overlap")
)
