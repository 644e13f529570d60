package epidemic

import (
	"fmt"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/geometry"
	"github.com/tochemey/goakt/v3/log"
)

// Arena is a closed unit box holding a fixed population of citizens.
// It is not safe for concurrent use.
type Arena struct {
	params    Params
	radius    float64
	particles []Particle
	rng       *rand.Rand
	logger    log.Logger

	collisions int
	epoch      int

	// reused between epochs to avoid reallocating the pair list
	pairs []pair
}

type pair struct {
	i, j int
}

// Option configures an Arena.
type Option func(*Arena)

// WithLogger sets the logger used to report initialization and progress.
func WithLogger(logger log.Logger) Option {
	return func(a *Arena) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func newArena(params Params, rng *rand.Rand, opts []Option) *Arena {
	a := &Arena{
		params: params,
		radius: params.Radius(),
		rng:    rng,
		logger: log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// New samples an overlap-free population of params.Population citizens,
// all healthy except the last one which is infected.
//
// Whole populations are drawn until one has no pair closer than two radii.
// After params.MaxPackingAttempts rejected draws the error wraps
// ErrPackingInfeasible and no arena is returned.
func New(params Params, rng *rand.Rand, opts ...Option) (*Arena, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: a random source is required", ErrInvalidParams)
	}

	a := newArena(params, rng, opts)
	a.particles = make([]Particle, params.Population)

	for tries := 0; tries < params.MaxPackingAttempts; tries++ {
		a.sample()
		if a.pairs = a.collidingPairs(a.pairs[:0]); len(a.pairs) == 0 {
			a.logger.Infof("population of %d citizens (r=%.5f) initialized after %d rejected tries",
				params.Population, a.radius, tries)
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %d citizens with relative area %v, gave up after %d tries",
		ErrPackingInfeasible, params.Population, params.AreaFraction, params.MaxPackingAttempts)
}

// NewFromParticles builds an arena around an explicit population.
// params.Population is replaced by len(particles). Overlap is not checked,
// but every citizen must be inside the open unit box.
func NewFromParticles(params Params, particles []Particle, rng *rand.Rand, opts ...Option) (*Arena, error) {
	params.Population = len(particles)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: a random source is required", ErrInvalidParams)
	}
	for i, p := range particles {
		if !p.Pos.InUnitBox() {
			return nil, fmt.Errorf("%w: citizen %d at %s is outside the box", ErrInvalidParams, i, p.Pos)
		}
	}

	a := newArena(params, rng, opts)
	a.particles = make([]Particle, len(particles))
	copy(a.particles, particles)
	return a, nil
}

// sample draws a fresh population in place.
func (a *Arena) sample() {
	last := len(a.particles) - 1
	for i := range a.particles {
		status := Healthy
		if i == last {
			status = Infected
		}
		x := openUnit(a.rng)
		y := openUnit(a.rng)
		a.particles[i] = NewParticle(x, y, a.rng.Float64(), status)
	}
}

// openUnit draws uniformly from the open interval (0, 1).
func openUnit(rng *rand.Rand) float64 {
	for {
		if v := rng.Float64(); v > 0 {
			return v
		}
	}
}

// collidingPairs appends every pair (i, j), j < i, whose centers are closer
// than two radii. Pairs come out ordered by i then j.
func (a *Arena) collidingPairs(dst []pair) []pair {
	limit := 4 * a.radius * a.radius
	for i := 1; i < len(a.particles); i++ {
		for j := 0; j < i; j++ {
			if a.particles[i].Pos.DistanceSquaredTo(a.particles[j].Pos) < limit {
				dst = append(dst, pair{i: i, j: j})
			}
		}
	}
	return dst
}

// Move advances the arena by one epoch.
//
// Every citizen steps on its own, then all colliding pairs are found on the
// new positions and resolved in order: velocities are swapped, a healthy
// citizen meeting an infected one gets infected, the collision counter and
// both streaks are incremented. An epoch without any collision clears every
// streak; citizens whose streak still exceeds the limit get a random heading.
func (a *Arena) Move() {
	dt, recovery := a.params.TimeStep, a.params.RecoveryProbability
	for i := range a.particles {
		a.particles[i].Step(dt, recovery, a.rng)
	}

	a.pairs = a.collidingPairs(a.pairs[:0])
	for _, pr := range a.pairs {
		a.collide(&a.particles[pr.i], &a.particles[pr.j])
	}

	if len(a.pairs) == 0 {
		for i := range a.particles {
			a.particles[i].streak = 0
		}
	}

	for i := range a.particles {
		if a.particles[i].streak > a.params.StreakLimit {
			a.particles[i].turnRandomly(a.rng)
		}
	}
	a.epoch++
}

func (a *Arena) collide(p, q *Particle) {
	p.Vel, q.Vel = q.Vel, p.Vel

	if (p.Status == Healthy && q.Status == Infected) || (p.Status == Infected && q.Status == Healthy) {
		p.Status = Infected
		q.Status = Infected
	}

	a.collisions++
	p.streak++
	q.streak++
}

// Run advances the arena by epochs, recording a snapshot before every move.
func (a *Arena) Run(epochs int) Result {
	if epochs < 0 {
		epochs = 0
	}
	history := NewHistory(epochs)
	a.Observe(epochs, history.Append)
	a.logger.Infof("%d epochs simulated, %d collisions", epochs, a.collisions)
	return Result{Collisions: a.collisions, History: history}
}

// Observe is Run without retention: fn receives each snapshot and nothing is
// kept by the arena. fn may be nil.
func (a *Arena) Observe(epochs int, fn func(Snapshot)) {
	for e := 0; e < epochs; e++ {
		if fn != nil {
			fn(a.Snapshot())
		}
		if a.epoch%100 == 0 {
			a.logger.Debugf("epoch=%d collisions=%d", a.epoch, a.collisions)
		}
		a.Move()
	}
}

// Snapshot copies the current state of the population.
func (a *Arena) Snapshot() Snapshot {
	frame := Frame{
		Epoch:     a.epoch,
		Positions: make([]geometry.Vector2D, len(a.particles)),
		Statuses:  make([]Status, len(a.particles)),
	}
	for i, p := range a.particles {
		frame.Positions[i] = p.Pos
		frame.Statuses[i] = p.Status
	}
	return Snapshot{
		Frame:      frame,
		Counts:     CountStatuses(frame.Statuses),
		Collisions: a.collisions,
	}
}

// Counts tallies the population by status.
func (a *Arena) Counts() Counts {
	var c Counts
	for _, p := range a.particles {
		c.add(p.Status)
	}
	return c
}

// Particles returns a copy of the population.
func (a *Arena) Particles() []Particle {
	out := make([]Particle, len(a.particles))
	copy(out, a.particles)
	return out
}

// Collisions returns the cumulative collision count.
func (a *Arena) Collisions() int { return a.collisions }

// Epoch returns how many times Move has been called.
func (a *Arena) Epoch() int { return a.epoch }

// Radius returns the radius shared by every citizen.
func (a *Arena) Radius() float64 { return a.radius }

// Len returns the population size.
func (a *Arena) Len() int { return len(a.particles) }

// Params returns the parameters the arena was built with.
func (a *Arena) Params() Params { return a.params }
