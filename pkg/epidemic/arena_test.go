package epidemic

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/geometry"
)

func TestNew_ReferencePopulation(t *testing.T) {
	a, err := New(DefaultParams(40, 0.05), newTestRand())
	if err != nil {
		t.Fatalf("New(40, 0.05) failed: %v", err)
	}

	wantRadius := math.Sqrt(0.05 / (math.Pi * 40))
	if math.Abs(a.Radius()-wantRadius) > 1e-15 {
		t.Errorf("Radius = %v; want %v", a.Radius(), wantRadius)
	}
	if a.Len() != 40 {
		t.Errorf("Len = %d; want 40", a.Len())
	}

	c := a.Counts()
	if c.Infected != 1 || c.Healthy != 39 || c.Recovered != 0 {
		t.Errorf("Counts = %+v; want one infected and 39 healthy", c)
	}
	if got := a.Particles()[39].Status; got != Infected {
		t.Errorf("last citizen status = %v; want Infected", got)
	}
}

func TestNew_OverlapFree(t *testing.T) {
	rng := newTestRand()
	for run := 0; run < 20; run++ {
		a, err := New(DefaultParams(30, 0.04), rng)
		if err != nil {
			t.Fatalf("run %d: New failed: %v", run, err)
		}
		ps := a.Particles()
		for i := range ps {
			if !ps[i].Pos.InUnitBox() {
				t.Errorf("run %d: citizen %d outside the box at %v", run, i, ps[i].Pos)
			}
			if math.Abs(ps[i].Vel.Len()-1) > 1e-9 {
				t.Errorf("run %d: citizen %d speed = %v", run, i, ps[i].Vel.Len())
			}
			for j := 0; j < i; j++ {
				if d := ps[i].Pos.DistanceTo(ps[j].Pos); d < 2*a.Radius() {
					t.Errorf("run %d: citizens %d and %d overlap (d=%v, 2r=%v)", run, i, j, d, 2*a.Radius())
				}
			}
		}
	}
}

func TestNew_PackingInfeasible(t *testing.T) {
	a, err := New(DefaultParams(40, 0.9), newTestRand())
	if !errors.Is(err, ErrPackingInfeasible) {
		t.Fatalf("New(40, 0.9) error = %v; want ErrPackingInfeasible", err)
	}
	if a != nil {
		t.Error("a failed construction must not return an arena")
	}
}

func TestNew_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   error
	}{
		{"zero population", DefaultParams(0, 0.05), ErrInvalidPopulation},
		{"negative population", DefaultParams(-3, 0.05), ErrInvalidPopulation},
		{"zero area", DefaultParams(10, 0), ErrInvalidArea},
		{"negative area", DefaultParams(10, -0.1), ErrInvalidArea},
		{"NaN area", DefaultParams(10, math.NaN()), ErrInvalidArea},
		{"zero time step", func() Params { p := DefaultParams(10, 0.05); p.TimeStep = 0; return p }(), ErrInvalidParams},
		{"recovery above one", func() Params { p := DefaultParams(10, 0.05); p.RecoveryProbability = 1.5; return p }(), ErrInvalidParams},
		{"no packing attempts", func() Params { p := DefaultParams(10, 0.05); p.MaxPackingAttempts = 0; return p }(), ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.params, newTestRand()); !errors.Is(err, tt.want) {
				t.Errorf("New error = %v; want %v", err, tt.want)
			}
		})
	}

	if _, err := New(DefaultParams(10, 0.05), nil); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("New with nil rand error = %v; want ErrInvalidParams", err)
	}
}

func TestNewFromParticles_RejectsOutsideBox(t *testing.T) {
	ps := []Particle{
		NewParticle(0.5, 0.5, 0, Healthy),
		NewParticle(1.0, 0.5, 0, Infected),
	}
	if _, err := NewFromParticles(DefaultParams(0, 0.05), ps, newTestRand()); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("error = %v; want ErrInvalidParams", err)
	}
	if _, err := NewFromParticles(DefaultParams(0, 0.05), nil, newTestRand()); !errors.Is(err, ErrInvalidPopulation) {
		t.Errorf("empty population error = %v; want ErrInvalidPopulation", err)
	}
}

func TestArena_HeadOnContagion(t *testing.T) {
	params := DefaultParams(2, 0.05)
	params.RecoveryProbability = 0
	a, err := NewFromParticles(params, []Particle{
		NewParticle(0.1, 0.5, 0, Healthy),
		NewParticle(0.9, 0.5, 0.5, Infected),
	}, newTestRand())
	if err != nil {
		t.Fatalf("NewFromParticles failed: %v", err)
	}

	for a.Collisions() == 0 && a.Epoch() < 500 {
		if got := a.Particles()[0].Status; got != Healthy {
			t.Fatalf("epoch %d: citizen 0 is %v before any contact", a.Epoch(), got)
		}
		a.Move()
	}

	if a.Collisions() != 1 {
		t.Fatalf("Collisions at first contact = %d; want 1", a.Collisions())
	}
	// gap closes by 2·dt per epoch: 0.8 - 0.006k < 2r first holds at k=104
	if a.Epoch() != 104 {
		t.Errorf("first contact at epoch %d; want 104", a.Epoch())
	}

	ps := a.Particles()
	for i, p := range ps {
		if p.Status != Infected {
			t.Errorf("citizen %d status = %v; want Infected", i, p.Status)
		}
	}
	if !ps[0].Vel.Eq(geometry.Vector2D{X: -1, Y: 0}) || !ps[1].Vel.Eq(geometry.Vector2D{X: 1, Y: 0}) {
		t.Errorf("velocities were not swapped: %v, %v", ps[0].Vel, ps[1].Vel)
	}

	// they now move apart and never touch again before the walls
	for i := 0; i < 50; i++ {
		a.Move()
	}
	if a.Collisions() != 1 {
		t.Errorf("Collisions after separation = %d; want 1", a.Collisions())
	}
}

func TestArena_PairResolutionOrder(t *testing.T) {
	params := DefaultParams(3, 0.05)
	params.RecoveryProbability = 0
	a, err := NewFromParticles(params, []Particle{
		NewParticle(0.50, 0.50, 0, Healthy),
		NewParticle(0.52, 0.50, 0.25, Healthy),
		NewParticle(0.50, 0.52, 0.5, Infected),
	}, newTestRand())
	if err != nil {
		t.Fatalf("NewFromParticles failed: %v", err)
	}

	a.Move()

	// pairs resolve as (1,0), (2,0), (2,1)
	ps := a.Particles()
	want := []geometry.Vector2D{geometry.Heading(0.5), geometry.Heading(0.25), geometry.Heading(0)}
	for i := range ps {
		if !ps[i].Vel.Eq(want[i]) {
			t.Errorf("citizen %d velocity = %v; want %v", i, ps[i].Vel, want[i])
		}
		if ps[i].Status != Infected {
			t.Errorf("citizen %d status = %v; want Infected", i, ps[i].Status)
		}
		if ps[i].Streak() != 2 {
			t.Errorf("citizen %d streak = %d; want 2", i, ps[i].Streak())
		}
	}
	if a.Collisions() != 3 {
		t.Errorf("Collisions = %d; want 3", a.Collisions())
	}
}

func TestArena_QuietEpochClearsStreaks(t *testing.T) {
	a, err := NewFromParticles(DefaultParams(2, 0.05), []Particle{
		NewParticle(0.2, 0.5, 0.25, Healthy),
		NewParticle(0.8, 0.5, 0.75, Healthy),
	}, newTestRand())
	if err != nil {
		t.Fatalf("NewFromParticles failed: %v", err)
	}
	a.particles[0].streak = 50
	a.particles[1].streak = 11
	before := a.Particles()

	a.Move()

	for i, p := range a.Particles() {
		if p.Streak() != 0 {
			t.Errorf("citizen %d streak = %d; want 0", i, p.Streak())
		}
		if !p.Vel.Eq(before[i].Vel) {
			t.Errorf("citizen %d turned without colliding: %v -> %v", i, before[i].Vel, p.Vel)
		}
	}
}

func TestArena_StreakAboveLimitTurns(t *testing.T) {
	a, err := NewFromParticles(DefaultParams(3, 0.05), []Particle{
		NewParticle(0.50, 0.40, 0.25, Healthy),
		NewParticle(0.51, 0.40, 0.25, Healthy),
		NewParticle(0.10, 0.90, 0, Healthy),
	}, newTestRand())
	if err != nil {
		t.Fatalf("NewFromParticles failed: %v", err)
	}
	a.particles[0].streak = DefaultStreakLimit
	a.particles[2].streak = DefaultStreakLimit + 1
	up := geometry.Heading(0.25)
	right := geometry.Heading(0)

	a.Move()

	ps := a.Particles()
	if a.Collisions() != 1 {
		t.Fatalf("Collisions = %d; want 1", a.Collisions())
	}
	if ps[0].Streak() != DefaultStreakLimit+1 {
		t.Errorf("citizen 0 streak = %d; want %d", ps[0].Streak(), DefaultStreakLimit+1)
	}
	if ps[0].Vel.Eq(up) {
		t.Error("citizen 0 exceeded the streak limit but kept its heading")
	}
	if !ps[1].Vel.Eq(up) || ps[1].Streak() != 1 {
		t.Errorf("citizen 1 = vel %v streak %d; want %v and 1", ps[1].Vel, ps[1].Streak(), up)
	}
	// not colliding, but streaks are only cleared by a quiet epoch
	if ps[2].Streak() != DefaultStreakLimit+1 || ps[2].Vel.Eq(right) {
		t.Errorf("citizen 2 = vel %v streak %d; want a new heading and streak kept", ps[2].Vel, ps[2].Streak())
	}
	for i, p := range ps {
		if math.Abs(p.Vel.Len()-1) > 1e-9 {
			t.Errorf("citizen %d speed = %v; want 1", i, p.Vel.Len())
		}
	}
}

func TestArena_Invariants(t *testing.T) {
	a, err := New(DefaultParams(40, 0.05), newTestRand())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var prev *Snapshot
	a.Observe(3000, func(s Snapshot) {
		if s.Counts.Total() != 40 {
			t.Fatalf("epoch %d: population changed to %d", s.Epoch, s.Counts.Total())
		}
		for i, p := range a.Particles() {
			if !p.Pos.InUnitBox() {
				t.Fatalf("epoch %d: citizen %d left the box: %v", s.Epoch, i, p.Pos)
			}
			if math.Abs(p.Vel.LenSqr()-1) > 1e-9 {
				t.Fatalf("epoch %d: citizen %d speed² = %v", s.Epoch, i, p.Vel.LenSqr())
			}
		}
		if prev != nil {
			if s.Collisions < prev.Collisions {
				t.Fatalf("epoch %d: collisions went down %d -> %d", s.Epoch, prev.Collisions, s.Collisions)
			}
			for i, st := range s.Statuses {
				was := prev.Statuses[i]
				if st < was || (was == Healthy && st == Recovered) {
					t.Fatalf("epoch %d: citizen %d went %v -> %v", s.Epoch, i, was, st)
				}
			}
		}
		prev = &s
	})

	if a.Epoch() != 3000 {
		t.Errorf("Epoch = %d; want 3000", a.Epoch())
	}
}

func TestArena_RunHistory(t *testing.T) {
	a, err := New(DefaultParams(20, 0.05), newTestRand())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := a.Run(250)

	if res.History.Len() != 250 || len(res.History.Counts) != 250 {
		t.Fatalf("history has %d frames and %d counts; want 250", res.History.Len(), len(res.History.Counts))
	}
	if res.Collisions != a.Collisions() {
		t.Errorf("Result.Collisions = %d; want %d", res.Collisions, a.Collisions())
	}
	first := res.History.Counts[0]
	if first != (Counts{Healthy: 19, Infected: 1}) {
		t.Errorf("epoch 0 counts = %+v; want 19 healthy and 1 infected", first)
	}
	for e, f := range res.History.Frames {
		if f.Epoch != e {
			t.Fatalf("frame %d has epoch %d", e, f.Epoch)
		}
		if len(f.Positions) != 20 || len(f.Statuses) != 20 {
			t.Fatalf("frame %d has %d positions, %d statuses", e, len(f.Positions), len(f.Statuses))
		}
		if CountStatuses(f.Statuses) != res.History.Counts[e] {
			t.Fatalf("frame %d statuses disagree with its counts", e)
		}
	}

	empty := a.Run(0)
	if empty.History.Len() != 0 {
		t.Errorf("Run(0) recorded %d frames", empty.History.Len())
	}
}

func TestArena_Reproducible(t *testing.T) {
	run := func() Result {
		a, err := New(DefaultParams(25, 0.05), rand.New(rand.NewPCG(7, 11)))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return a.Run(500)
	}
	r1, r2 := run(), run()
	if r1.Collisions != r2.Collisions {
		t.Fatalf("collisions differ between identical seeds: %d vs %d", r1.Collisions, r2.Collisions)
	}
	last1 := r1.History.Frames[499]
	last2 := r2.History.Frames[499]
	for i := range last1.Positions {
		if last1.Positions[i] != last2.Positions[i] || last1.Statuses[i] != last2.Statuses[i] {
			t.Fatalf("citizen %d differs between identical seeds", i)
		}
	}
}

func TestArena_SingleInfectedRecovers(t *testing.T) {
	a, err := New(DefaultParams(1, 0.05), newTestRand())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := a.Run(100000)

	recoveredAt := -1
	for e, c := range res.History.Counts {
		switch {
		case c.Recovered == 1 && recoveredAt < 0:
			recoveredAt = e
		case c.Infected == 1 && recoveredAt >= 0:
			t.Fatalf("epoch %d: recovered citizen is infected again", e)
		}
	}
	if recoveredAt < 0 {
		t.Fatal("the only citizen never recovered in 100000 epochs")
	}
	if a.Counts() != (Counts{Recovered: 1}) {
		t.Errorf("final counts = %+v; want one recovered", a.Counts())
	}
}

func TestArena_RecoveryTimeIsGeometric(t *testing.T) {
	const (
		runs = 2000
		p    = DefaultRecoveryProbability
	)
	rng := rand.New(rand.NewPCG(1, 2))
	median := math.Ln2 / p

	sum, belowMedian := 0, 0
	for r := 0; r < runs; r++ {
		a, err := NewFromParticles(DefaultParams(1, 0.05), []Particle{
			NewParticle(0.5, 0.5, rng.Float64(), Infected),
		}, rng)
		if err != nil {
			t.Fatalf("NewFromParticles failed: %v", err)
		}
		for a.particles[0].Status == Infected {
			a.Move()
		}
		sum += a.Epoch()
		if float64(a.Epoch()) <= median {
			belowMedian++
		}
	}

	mean := float64(sum) / runs
	if math.Abs(mean-1/p) > 0.1/p {
		t.Errorf("mean recovery epoch = %.1f; want about %.0f", mean, 1/p)
	}
	if frac := float64(belowMedian) / runs; frac < 0.45 || frac > 0.55 {
		t.Errorf("fraction recovered by epoch %.0f = %.3f; want about 0.5", median, frac)
	}
}

func BenchmarkArena_Move(b *testing.B) {
	a, err := New(DefaultParams(40, 0.05), newTestRand())
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Move()
	}
}
