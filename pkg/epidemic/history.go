package epidemic

import "github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/geometry"

// Frame is the position and status of every citizen at the start of an epoch.
type Frame struct {
	Epoch     int
	Positions []geometry.Vector2D
	Statuses  []Status
}

// Snapshot is what observers receive once per epoch, before the arena moves.
type Snapshot struct {
	Frame
	Counts     Counts
	Collisions int
}

// History is the append-only record of a run.
// It holds one Frame and one Counts per epoch, so it grows as O(epochs × N).
type History struct {
	Frames []Frame
	Counts []Counts
}

// NewHistory preallocates room for the given number of epochs.
// A negative count preallocates nothing.
func NewHistory(epochs int) *History {
	epochs = max(epochs, 0)
	return &History{
		Frames: make([]Frame, 0, epochs),
		Counts: make([]Counts, 0, epochs),
	}
}

// Append records a snapshot.
func (h *History) Append(s Snapshot) {
	h.Frames = append(h.Frames, s.Frame)
	h.Counts = append(h.Counts, s.Counts)
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	return len(h.Frames)
}

// Series returns the healthy, infected and recovered time series as float64
// slices, ready for plotting.
func (h *History) Series() (healthy, infected, recovered []float64) {
	healthy = make([]float64, len(h.Counts))
	infected = make([]float64, len(h.Counts))
	recovered = make([]float64, len(h.Counts))
	for i, c := range h.Counts {
		healthy[i] = float64(c.Healthy)
		infected[i] = float64(c.Infected)
		recovered[i] = float64(c.Recovered)
	}
	return healthy, infected, recovered
}

// Result is the outcome of Arena.Run.
type Result struct {
	Collisions int
	History    *History
}
