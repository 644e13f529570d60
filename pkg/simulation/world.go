package simulation

import (
	"time"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ArenaActor owns the authoritative arena. Only its mailbox goroutine touches
// the arena, so UIs drive it with messages and read snapshots from a channel.
type ArenaActor struct {
	arena   *epidemic.Arena
	history *epidemic.History
	budget  int
	// Communication with UI
	snapshotCh chan epidemic.Snapshot
	// --- Benchmark Stats ---
	epochCount  int
	lastLogTime time.Time
}

var _ actor.Actor = (*ArenaActor)(nil)

// NewArenaActor wraps arena. At most budget epochs are simulated; history is
// recorded when keepHistory is set. snapshotCh may be nil.
func NewArenaActor(snapshotCh chan epidemic.Snapshot, arena *epidemic.Arena, budget int, keepHistory bool) *ArenaActor {
	w := &ArenaActor{
		arena:       arena,
		budget:      budget,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
	if keepHistory {
		w.history = epidemic.NewHistory(budget)
	}
	return w
}

func (w *ArenaActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Arena is ready: %d citizens, radius %.5f, budget %d epochs",
		w.arena.Len(), w.arena.Radius(), w.budget)
	return nil
}

func (w *ArenaActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Info("Arena started.")
		w.pushSnapshot(w.arena.Snapshot())

	case *wrapperspb.UInt32Value:
		w.advance(int(msg.GetValue()))
		w.logBenchmarks(ctx)
		ctx.Response(w.report().ToProto())

	case *wrapperspb.UInt64Value:
		w.advance(int(min(msg.GetValue(), uint64(w.budget))))
		w.logBenchmarks(ctx)

	case *emptypb.Empty:
		ctx.Response(w.report().ToProto())

	default:
		ctx.Unhandled()
	}
}

// advance moves the arena n epochs without exceeding the budget.
func (w *ArenaActor) advance(n int) {
	if remaining := w.budget - w.arena.Epoch(); n > remaining {
		n = remaining
	}
	if n <= 0 {
		// nothing left to run, repeat the final state for late readers
		w.pushSnapshot(w.arena.Snapshot())
		return
	}
	var record func(epidemic.Snapshot)
	if w.history != nil {
		record = w.history.Append
	}
	w.arena.Observe(n, record)
	w.epochCount += n
	// one frame per batch, the state after the last epoch is never recorded
	w.pushSnapshot(w.arena.Snapshot())
}

// pushSnapshot never blocks. When the UI lags, the oldest buffered frame is
// dropped so the newest state always gets through.
func (w *ArenaActor) pushSnapshot(s epidemic.Snapshot) {
	if w.snapshotCh == nil {
		return
	}
	for {
		select {
		case w.snapshotCh <- s:
			return
		default:
		}
		select {
		case <-w.snapshotCh:
		default:
		}
	}
}

func (w *ArenaActor) done() bool {
	return w.arena.Epoch() >= w.budget
}

func (w *ArenaActor) report() EpochReport {
	return EpochReport{
		Epoch:      w.arena.Epoch(),
		Counts:     w.arena.Counts(),
		Collisions: w.arena.Collisions(),
		Done:       w.done(),
	}
}

func (w *ArenaActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		ctx.Logger().Debugf("epochs/sec: %d | epoch %d | collisions %d",
			w.epochCount, w.arena.Epoch(), w.arena.Collisions())
		w.epochCount = 0
		w.lastLogTime = time.Now()
	}
}

// History returns the recorded epochs, nil when history is disabled.
func (w *ArenaActor) History() *epidemic.History {
	return w.history
}

func (w *ArenaActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Arena is shutdown after %d epochs and %d collisions",
		w.arena.Epoch(), w.arena.Collisions())
	return nil
}
