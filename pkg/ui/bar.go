package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Segment is one share of a StackedBar.
type Segment struct {
	Value int
	Color color.RGBA
}

// StackedBar draws segments side by side, each as wide as its share of the
// total, with its value printed underneath.
type StackedBar struct {
	X, Y          float64
	Width, Height float64
}

func (b *StackedBar) Draw(screen *ebiten.Image, segments ...Segment) {
	total := 0
	for _, s := range segments {
		total += s.Value
	}
	if total == 0 {
		return
	}
	x := b.X
	for _, s := range segments {
		w := b.Width * float64(s.Value) / float64(total)
		vector.FillRect(screen, float32(x), float32(b.Y), float32(w), float32(b.Height), s.Color, true)
		if s.Value > 0 {
			ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d", s.Value), int(x), int(b.Y+b.Height+5))
		}
		x += w
	}
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height),
		1, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
}
