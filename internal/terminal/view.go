package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/internal/report"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/geometry"
)

const (
	headerRows = 2
	maxSpeed   = 100
)

// Source is the running arena as seen by the view. *simulation.Runner
// satisfies it.
type Source interface {
	AdvanceAsync(ctx context.Context, n int) error
	Snapshots() <-chan epidemic.Snapshot
	Budget() int
}

var glyphs = map[epidemic.Status]rune{
	epidemic.Healthy:   'o',
	epidemic.Infected:  '*',
	epidemic.Recovered: '+',
}

func statusStyle(s epidemic.Status) tcell.Style {
	c := report.StatusColor(s)
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
}

// View draws the arena in a terminal, one character cell per citizen.
type View struct {
	screen tcell.Screen
	source Source
	last   epidemic.Snapshot
	speed  int
	paused bool
	// FrameDelay is the time between two ticks.
	FrameDelay time.Duration
	// ExitWhenDone stops Run once the budget is spent.
	ExitWhenDone bool
}

// New returns a view drawing on an initialized screen.
func New(screen tcell.Screen, source Source) *View {
	return &View{
		screen:     screen,
		source:     source,
		speed:      1,
		FrameDelay: 16 * time.Millisecond, // ~60 FPS
	}
}

// Done reports whether the last snapshot is at the end of the budget.
func (v *View) Done() bool {
	return v.last.Epoch >= v.source.Budget()
}

// Run ticks the arena and redraws until q, Esc or Ctrl-C is pressed, ctx is
// cancelled or, with ExitWhenDone, the budget is spent.
func (v *View) Run(ctx context.Context) error {
	ticker := time.NewTicker(v.FrameDelay)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			eventChan <- ev
		}
	}()

	v.draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return nil
			}
			v.draw()

		case <-ticker.C:
			v.drain()
			if v.Done() && v.ExitWhenDone {
				v.draw()
				return nil
			}
			if !v.paused && !v.Done() {
				if err := v.source.AdvanceAsync(ctx, v.speed); err != nil {
					return fmt.Errorf("failed to advance arena: %w", err)
				}
			}
			v.draw()
		}
	}
}

func (v *View) drain() {
	for {
		select {
		case s := <-v.source.Snapshots():
			v.last = s
		default:
			return
		}
	}
}

func (v *View) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			case '+', '=':
				v.speed = min(v.speed*2, maxSpeed)
			case '-':
				v.speed = max(v.speed/2, 1)
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

// cellFor maps a position of the unit box onto the inner w x h cells of the
// frame, y pointing up.
func cellFor(pos geometry.Vector2D, w, h int) (int, int) {
	cx := min(max(int(pos.X*float64(w)), 0), w-1)
	cy := min(max(int((1-pos.Y)*float64(h)), 0), h-1)
	return cx, cy
}

func (v *View) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()

	state := "running"
	switch {
	case v.Done():
		state = "done"
	case v.paused:
		state = "paused"
	}
	c := v.last.Counts
	v.print(0, 0, tcell.StyleDefault.Bold(true), fmt.Sprintf("Epoch=%d/%d  Collisions=%d  [%s]",
		v.last.Epoch, v.source.Budget(), v.last.Collisions, state))
	x := v.print(0, 1, statusStyle(epidemic.Healthy), fmt.Sprintf("Healthy = %d  ", c.Healthy))
	x = v.print(x, 1, statusStyle(epidemic.Infected), fmt.Sprintf("Infected = %d  ", c.Infected))
	x = v.print(x, 1, statusStyle(epidemic.Recovered), fmt.Sprintf("Recovered = %d  ", c.Recovered))
	v.print(x, 1, tcell.StyleDefault, fmt.Sprintf("speed x%d  (space, +/-, q)", v.speed))

	// frame with a one cell border
	w, h := width-2, height-headerRows-2
	if w < 1 || h < 1 {
		v.screen.Show()
		return
	}
	top, bottom := headerRows, headerRows+h+1
	for i := 1; i <= w; i++ {
		v.screen.SetContent(i, top, tcell.RuneHLine, nil, tcell.StyleDefault)
		v.screen.SetContent(i, bottom, tcell.RuneHLine, nil, tcell.StyleDefault)
	}
	for j := top + 1; j < bottom; j++ {
		v.screen.SetContent(0, j, tcell.RuneVLine, nil, tcell.StyleDefault)
		v.screen.SetContent(w+1, j, tcell.RuneVLine, nil, tcell.StyleDefault)
	}
	v.screen.SetContent(0, top, tcell.RuneULCorner, nil, tcell.StyleDefault)
	v.screen.SetContent(w+1, top, tcell.RuneURCorner, nil, tcell.StyleDefault)
	v.screen.SetContent(0, bottom, tcell.RuneLLCorner, nil, tcell.StyleDefault)
	v.screen.SetContent(w+1, bottom, tcell.RuneLRCorner, nil, tcell.StyleDefault)

	for i, pos := range v.last.Positions {
		s := v.last.Statuses[i]
		cx, cy := cellFor(pos, w, h)
		v.screen.SetContent(cx+1, top+1+cy, glyphs[s], nil, statusStyle(s))
	}
	v.screen.Show()
}

func (v *View) print(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
