package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Status colours, shared by the chart, the video and the viewers.
const (
	HealthyHex   = "FEFE0F"
	InfectedHex  = "6D2D5A"
	RecoveredHex = "3DA8A6"
)

// ErrTooShort is returned when a history is too short to be plotted.
var ErrTooShort = errors.New("at least two epochs are needed to draw a chart")

// ChartOptions sizes the status chart.
type ChartOptions struct {
	Width  int
	Height int
	Title  string
}

// DefaultChartOptions returns a 1000x500 chart.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 1000, Height: 500, Title: "Population status evolution"}
}

// RenderStatusChart draws the healthy, infected and recovered counts per epoch
// as a PNG.
func RenderStatusChart(w io.Writer, h *epidemic.History, opts ChartOptions) error {
	if h == nil || len(h.Counts) < 2 {
		return ErrTooShort
	}
	healthy, infected, recovered := h.Series()
	epochs := make([]float64, len(h.Counts))
	for i := range epochs {
		epochs[i] = float64(i)
	}
	population := float64(h.Counts[0].Total())

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Epoch",
			Range: &chart.ContinuousRange{Min: 0, Max: epochs[len(epochs)-1]},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "Number of citizens",
			Range: &chart.ContinuousRange{Min: 0, Max: population},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		Series: []chart.Series{
			statusSeries("Healthy", HealthyHex, epochs, healthy),
			statusSeries("Infected", InfectedHex, epochs, infected),
			statusSeries("Recovered", RecoveredHex, epochs, recovered),
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render status chart: %w", err)
	}
	return nil
}

func statusSeries(name, hex string, x, y []float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: x,
		YValues: y,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex(hex),
			StrokeWidth: 2.0,
		},
	}
}

// WriteStatusChart renders the status chart into the file at path.
func WriteStatusChart(path string, h *epidemic.History, opts ChartOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return RenderStatusChart(f, h, opts)
}
