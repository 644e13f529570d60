package epidemic

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/geometry"
)

// Particle is a citizen moving at unit speed inside the unit box.
type Particle struct {
	Pos    geometry.Vector2D
	Vel    geometry.Vector2D
	Status Status

	// collisions since the last epoch in which nobody collided
	streak int
}

// NewParticle places a citizen at (x, y) heading at the angle 2π·turn.
func NewParticle(x, y, turn float64, status Status) Particle {
	return Particle{
		Pos:    geometry.Vector2D{X: x, Y: y},
		Vel:    geometry.Heading(turn),
		Status: status,
	}
}

// Streak returns the consecutive-collision counter.
func (p *Particle) Streak() int {
	return p.streak
}

// Step moves the particle by Vel·dt, bouncing off the walls of the unit box,
// then gives an infected particle its chance to recover.
//
// A bounce flips the velocity component and applies the flipped displacement
// in the same step, so the particle moves back towards the interior.
// Both axes are handled independently.
func (p *Particle) Step(dt, recovery float64, rng *rand.Rand) {
	if next := p.Pos.X + p.Vel.X*dt; next > 0 && next < 1 {
		p.Pos.X = next
	} else {
		p.Vel.X = -p.Vel.X
		p.Pos.X += p.Vel.X * dt
	}

	if next := p.Pos.Y + p.Vel.Y*dt; next > 0 && next < 1 {
		p.Pos.Y = next
	} else {
		p.Vel.Y = -p.Vel.Y
		p.Pos.Y += p.Vel.Y * dt
	}

	if p.Status == Infected && rng.Float64() < recovery {
		p.Status = Recovered
	}
}

// turnRandomly gives the particle a fresh direction, unrelated to its
// current velocity.
func (p *Particle) turnRandomly(rng *rand.Rand) {
	p.Vel = geometry.Heading(rng.Float64())
}
