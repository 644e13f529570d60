package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// seedStream is the second PCG word, the first one comes from the config.
const seedStream = 0x5eed_c0de_ca5e_f00d

// Runner hosts one arena actor inside its own actor system.
type Runner struct {
	System     actor.ActorSystem
	pid        *actor.PID
	world      *ArenaActor
	snapshotCh chan epidemic.Snapshot
	timeout    time.Duration
	budget     int
}

// NewRandom returns the seeded random source used for a configuration.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seedStream))
}

// NewRunner samples a population from cfg and starts the arena actor.
// A population that cannot be packed returns an error wrapping
// epidemic.ErrPackingInfeasible.
func NewRunner(ctx context.Context, cfg *Config, logger log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.DiscardLogger
	}
	arena, err := epidemic.New(cfg.Params(), NewRandom(cfg.Seed), epidemic.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize population: %w", err)
	}
	return NewRunnerWithArena(ctx, cfg, arena, logger)
}

// NewRunnerWithArena starts the actor system around an existing arena.
func NewRunnerWithArena(ctx context.Context, cfg *Config, arena *epidemic.Arena, logger log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.DiscardLogger
	}
	if cfg.Epochs < 0 {
		return nil, fmt.Errorf("%w: epochs must not be negative, got %d", epidemic.ErrInvalidParams, cfg.Epochs)
	}
	system, err := actor.NewActorSystem("EpidemicArena",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	snapshotCh := make(chan epidemic.Snapshot, 10) // Buffer to avoid blocking
	world := NewArenaActor(snapshotCh, arena, cfg.Epochs, cfg.KeepHistory)
	pid, err := system.Spawn(ctx, "arena", world)
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn arena: %w", err)
	}

	timeout := cfg.StepTimeout()
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Runner{
		System:     system,
		pid:        pid,
		world:      world,
		snapshotCh: snapshotCh,
		timeout:    timeout,
		budget:     cfg.Epochs,
	}, nil
}

// Advance moves the arena n epochs, or fewer if the budget runs out, and
// waits for the resulting report.
func (r *Runner) Advance(ctx context.Context, n int) (EpochReport, error) {
	return r.ask(ctx, Advance(clampEpochs(n)))
}

// AdvanceAsync asks for n more epochs without waiting; progress shows up on
// the snapshot channel.
func (r *Runner) AdvanceAsync(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return actor.Tell(ctx, r.pid, Tick(clampEpochs(n)))
}

// RunToEnd spends the remaining epoch budget.
func (r *Runner) RunToEnd(ctx context.Context) (EpochReport, error) {
	rep, err := r.Report(ctx)
	if err != nil {
		return rep, err
	}
	return r.Advance(ctx, r.budget-rep.Epoch)
}

func clampEpochs(n int) uint32 {
	switch {
	case n <= 0:
		return 0
	case uint64(n) > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(n)
}

// Report returns the current state of the arena.
func (r *Runner) Report(ctx context.Context) (EpochReport, error) {
	return r.ask(ctx, ReportRequest())
}

func (r *Runner) ask(ctx context.Context, msg proto.Message) (EpochReport, error) {
	resp, err := actor.Ask(ctx, r.pid, msg, r.timeout)
	if err != nil {
		return EpochReport{}, fmt.Errorf("arena did not answer: %w", err)
	}
	s, ok := resp.(*structpb.Struct)
	if !ok {
		return EpochReport{}, fmt.Errorf("unexpected arena reply %T", resp)
	}
	return ReportFromProto(s)
}

// Snapshots delivers the state of the arena after each advance request. When
// the reader falls behind the oldest frames are dropped, never the latest.
func (r *Runner) Snapshots() <-chan epidemic.Snapshot {
	return r.snapshotCh
}

// History returns the recorded run, nil when history is disabled.
// Read it only after a Report or Advance call has returned.
func (r *Runner) History() *epidemic.History {
	return r.world.History()
}

// Budget is the total number of epochs the runner will simulate.
func (r *Runner) Budget() int {
	return r.budget
}

// Stop shuts the actor system down.
func (r *Runner) Stop(ctx context.Context) error {
	return r.System.Stop(ctx)
}
