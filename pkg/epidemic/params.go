package epidemic

import (
	"fmt"
	"math"
)

const (
	DefaultTimeStep            = 0.003
	DefaultRecoveryProbability = 0.001
	DefaultStreakLimit         = 10
	DefaultMaxPackingAttempts  = 1000
)

// Params are the fixed knobs of an Arena.
type Params struct {
	// Population is the number of citizens N.
	Population int
	// AreaFraction is the share A of the box covered by citizens,
	// it only serves to derive the shared radius.
	AreaFraction float64

	TimeStep            float64
	RecoveryProbability float64
	// StreakLimit is the consecutive-collision count above which a
	// citizen is sent in a random direction.
	StreakLimit        int
	MaxPackingAttempts int
}

// DefaultParams returns the parameters of the reference model for n citizens
// covering the fraction area of the box.
func DefaultParams(n int, area float64) Params {
	return Params{
		Population:          n,
		AreaFraction:        area,
		TimeStep:            DefaultTimeStep,
		RecoveryProbability: DefaultRecoveryProbability,
		StreakLimit:         DefaultStreakLimit,
		MaxPackingAttempts:  DefaultMaxPackingAttempts,
	}
}

// Radius returns r = sqrt(A / (π·N)).
func (p Params) Radius() float64 {
	return math.Sqrt(p.AreaFraction / (math.Pi * float64(p.Population)))
}

// Validate checks the parameters before any sampling happens.
func (p Params) Validate() error {
	if p.Population <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPopulation, p.Population)
	}
	if !(p.AreaFraction > 0) || math.IsInf(p.AreaFraction, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidArea, p.AreaFraction)
	}
	if !(p.TimeStep > 0) {
		return fmt.Errorf("%w: time step must be positive, got %v", ErrInvalidParams, p.TimeStep)
	}
	if !(p.RecoveryProbability >= 0 && p.RecoveryProbability <= 1) {
		return fmt.Errorf("%w: recovery probability must be in [0,1], got %v", ErrInvalidParams, p.RecoveryProbability)
	}
	if p.StreakLimit < 0 {
		return fmt.Errorf("%w: streak limit must not be negative, got %d", ErrInvalidParams, p.StreakLimit)
	}
	if p.MaxPackingAttempts <= 0 {
		return fmt.Errorf("%w: packing attempts must be positive, got %d", ErrInvalidParams, p.MaxPackingAttempts)
	}
	return nil
}
