package terminal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/geometry"
)

// fakeSource publishes one snapshot per requested epoch batch.
type fakeSource struct {
	mu       sync.Mutex
	epoch    int
	budget   int
	requests []int
	ch       chan epidemic.Snapshot
}

func newFakeSource(budget int) *fakeSource {
	return &fakeSource{budget: budget, ch: make(chan epidemic.Snapshot, 10)}
}

func (f *fakeSource) AdvanceAsync(_ context.Context, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, n)
	f.epoch = min(f.epoch+n, f.budget)
	f.ch <- epidemic.Snapshot{
		Frame: epidemic.Frame{
			Epoch:     f.epoch,
			Positions: []geometry.Vector2D{{X: 0.5, Y: 0.5}},
			Statuses:  []epidemic.Status{epidemic.Infected},
		},
		Counts: epidemic.Counts{Infected: 1},
	}
	return nil
}

func (f *fakeSource) Snapshots() <-chan epidemic.Snapshot { return f.ch }
func (f *fakeSource) Budget() int                         { return f.budget }

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init failed: %v", err)
	}
	screen.SetSize(42, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func TestCellFor(t *testing.T) {
	tests := []struct {
		pos    geometry.Vector2D
		wx, wy int
	}{
		{geometry.Vector2D{X: 0.5, Y: 0.5}, 20, 10},
		{geometry.Vector2D{X: 0.001, Y: 0.999}, 0, 0},
		{geometry.Vector2D{X: 0.999, Y: 0.001}, 39, 19},
		{geometry.Vector2D{X: 1, Y: 0}, 39, 19},
	}
	for _, tt := range tests {
		x, y := cellFor(tt.pos, 40, 20)
		if x != tt.wx || y != tt.wy {
			t.Errorf("cellFor(%v) = (%d, %d); want (%d, %d)", tt.pos, x, y, tt.wx, tt.wy)
		}
	}
}

func TestView_DrawsCitizens(t *testing.T) {
	screen := newTestScreen(t)
	v := New(screen, newFakeSource(10))
	v.last = epidemic.Snapshot{
		Frame: epidemic.Frame{
			Epoch:     3,
			Positions: []geometry.Vector2D{{X: 0.25, Y: 0.75}, {X: 0.75, Y: 0.25}},
			Statuses:  []epidemic.Status{epidemic.Healthy, epidemic.Recovered},
		},
		Counts: epidemic.Counts{Healthy: 1, Recovered: 1},
	}
	v.draw()

	// 42x24 leaves 40x20 cells inside the frame, which starts on row 2
	tests := []struct {
		x, y   int
		status epidemic.Status
	}{
		{1 + 10, 3 + 5, epidemic.Healthy},
		{1 + 30, 3 + 15, epidemic.Recovered},
	}
	for _, tt := range tests {
		r, _, style, _ := screen.GetContent(tt.x, tt.y)
		if r != glyphs[tt.status] {
			t.Errorf("cell (%d, %d) = %q; want %q", tt.x, tt.y, r, glyphs[tt.status])
		}
		if style != statusStyle(tt.status) {
			t.Errorf("cell (%d, %d) is not drawn in the %v colour", tt.x, tt.y, tt.status)
		}
	}
	if r, _, _, _ := screen.GetContent(0, 2); r != tcell.RuneULCorner {
		t.Errorf("frame corner = %q", r)
	}
	if r, _, _, _ := screen.GetContent(0, 0); r != 'E' {
		t.Errorf("header starts with %q; want 'E'", r)
	}
}

func TestView_KeysAdjustSpeedAndPause(t *testing.T) {
	v := New(newTestScreen(t), newFakeSource(10))

	v.handleInput(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))
	v.handleInput(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))
	if v.speed != 4 {
		t.Errorf("speed after two '+' = %d; want 4", v.speed)
	}
	v.handleInput(tcell.NewEventKey(tcell.KeyRune, '-', tcell.ModNone))
	if v.speed != 2 {
		t.Errorf("speed after '-' = %d; want 2", v.speed)
	}
	v.handleInput(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	if !v.paused {
		t.Error("space did not pause")
	}
	if v.handleInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Esc did not quit")
	}
	if v.handleInput(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q did not quit")
	}
}

func TestView_RunUntilDone(t *testing.T) {
	src := newFakeSource(5)
	v := New(newTestScreen(t), src)
	v.FrameDelay = time.Millisecond
	v.ExitWhenDone = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !v.Done() || v.last.Epoch != 5 {
		t.Errorf("view stopped at epoch %d; want 5", v.last.Epoch)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.requests) != 5 {
		t.Errorf("view asked %d batches; want 5 batches of 1 epoch", len(src.requests))
	}
}

func TestView_RunQuitsOnKey(t *testing.T) {
	screen := newTestScreen(t)
	v := New(screen, newFakeSource(1_000_000))
	v.FrameDelay = time.Millisecond

	go func() {
		time.Sleep(20 * time.Millisecond)
		screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Errorf("Run = %v; want nil after q", err)
	}
}

func TestView_RunStopsOnCancel(t *testing.T) {
	v := New(newTestScreen(t), newFakeSource(1_000_000))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v; want context.Canceled", err)
	}
}
