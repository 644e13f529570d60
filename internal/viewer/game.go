package viewer

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/internal/report"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/ui"
)

const panelWidth = 220.0

var (
	backgroundColor = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	boxColor        = color.RGBA{R: 60, G: 60, B: 60, A: 255}
)

// Game shows a running arena. The arena lives in the runner's actor; the game
// only sends ticks and draws the latest snapshot it received.
type Game struct {
	ctx    context.Context
	runner *simulation.Runner
	cfg    *simulation.Config
	radius float64

	lastState epidemic.Snapshot
	paused    bool
	err       error

	panel        *ui.Panel
	widgetSpeed  *ui.Slider
	widgetBar    *ui.Checkbox
	widgetLegend *ui.Checkbox
	widgetPause  *ui.Button
	statusBar    ui.StackedBar
	statusColors [3]color.RGBA

	// Timing instrumentation, rolling averages in ms
	updateAvg float64
	drawAvg   float64
}

// NewGame builds the window contents for runner. radius is the citizen
// radius in box units.
func NewGame(ctx context.Context, cfg *simulation.Config, runner *simulation.Runner, radius float64) *Game {
	g := &Game{
		ctx:    ctx,
		runner: runner,
		cfg:    cfg,
		radius: radius,
		statusColors: [3]color.RGBA{
			report.StatusColor(epidemic.Healthy),
			report.StatusColor(epidemic.Infected),
			report.StatusColor(epidemic.Recovered),
		},
	}

	g.panel = ui.NewPanel("Epidemic", 10, 10, panelWidth-20, 220)
	g.panel.AddSection("Playback")
	g.widgetSpeed = g.panel.AddSlider("Epochs per frame", 1, 50, 1, 1)
	g.widgetPause = g.panel.AddButton("Pause", g.togglePause)
	g.panel.AddSection("Display")
	g.widgetBar = g.panel.AddCheckbox("Show status bar", true)
	g.widgetLegend = g.panel.AddCheckbox("Show counts", true)
	return g
}

func (g *Game) togglePause() {
	g.paused = !g.paused
	if g.paused {
		g.widgetPause.Label = "Resume"
	} else {
		g.widgetPause.Label = "Pause"
	}
}

// Done reports whether the whole epoch budget has been shown.
func (g *Game) Done() bool {
	return g.lastState.Epoch >= g.runner.Budget()
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	if g.err != nil {
		return g.err
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.panel.Hidden = !g.panel.Hidden
	}
	g.panel.Update()

	// keep only the most recent frame
	for drained := false; !drained; {
		select {
		case snap := <-g.runner.Snapshots():
			g.lastState = snap
		default:
			drained = true
		}
	}

	if !g.paused && !g.Done() {
		if err := g.runner.AdvanceAsync(g.ctx, g.widgetSpeed.Int()); err != nil {
			g.err = fmt.Errorf("failed to advance arena: %w", err)
		}
	}
	return nil
}

// boxGeometry returns the square the unit box is drawn in.
func (g *Game) boxGeometry(screen *ebiten.Image) (x, y, side float64) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	left := panelWidth
	if g.panel.Hidden {
		left = 10
	}
	side = min(w-left-10, h-80)
	return left, 60, max(side, 10)
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(color.RGBA{R: 30, G: 30, B: 35, A: 255})

	bx, by, side := g.boxGeometry(screen)
	vector.FillRect(screen, float32(bx), float32(by), float32(side), float32(side), backgroundColor, true)
	vector.StrokeRect(screen, float32(bx), float32(by), float32(side), float32(side), 2, boxColor, true)

	r := float32(max(g.radius*side, 1.5))
	for i, pos := range g.lastState.Positions {
		// y points up in the box
		cx := float32(bx + pos.X*side)
		cy := float32(by + (1-pos.Y)*side)
		vector.FillCircle(screen, cx, cy, r, g.statusColors[g.lastState.Statuses[i]], true)
	}

	if g.widgetBar.Value {
		g.statusBar = ui.StackedBar{X: bx, Y: 10, Width: min(side, 300), Height: 20}
		g.statusBar.Draw(screen,
			ui.Segment{Value: g.lastState.Counts.Healthy, Color: g.statusColors[epidemic.Healthy]},
			ui.Segment{Value: g.lastState.Counts.Infected, Color: g.statusColors[epidemic.Infected]},
			ui.Segment{Value: g.lastState.Counts.Recovered, Color: g.statusColors[epidemic.Recovered]},
		)
	}
	if g.widgetLegend.Value {
		msg := fmt.Sprintf("Epoch=%d/%d\nHealthy = %d\nInfected = %d\nRecovered = %d\nCollisions = %d",
			g.lastState.Epoch, g.runner.Budget(),
			g.lastState.Counts.Healthy, g.lastState.Counts.Infected, g.lastState.Counts.Recovered,
			g.lastState.Collisions)
		ebitenutil.DebugPrintAt(screen, msg, 10, screen.Bounds().Dy()-90)
	}

	g.panel.Draw(screen)

	switch {
	case g.Done():
		ebitenutil.DebugPrintAt(screen, "DONE (q to quit)", int(bx+side/2-48), int(by+side/2))
	case g.paused:
		ebitenutil.DebugPrintAt(screen, "PAUSED", int(bx+side/2-18), int(by+side/2))
	}

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, screen.Bounds().Dx()-120, 10)
}

func (g *Game) Layout(w, h int) (int, int) { return g.cfg.WindowWidth, g.cfg.WindowHeight }

// Run opens the window and blocks until it is closed.
func Run(g *Game) error {
	ebiten.SetWindowSize(g.cfg.WindowWidth, g.cfg.WindowHeight)
	ebiten.SetWindowTitle(fmt.Sprintf("Epidemic: %d citizens", g.cfg.Population))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}
