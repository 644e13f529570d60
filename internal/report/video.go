package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/icza/mjpeg"
	"github.com/lao-tseu-is-alive/go-epidemic-simulation/pkg/epidemic"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	boxBorder  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	textColor  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// StatusColor returns the colour a citizen is drawn with.
func StatusColor(s epidemic.Status) color.RGBA {
	hex := HealthyHex
	switch s {
	case epidemic.Infected:
		hex = InfectedHex
	case epidemic.Recovered:
		hex = RecoveredHex
	}
	c := drawing.ColorFromHex(hex)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// VideoOptions controls the exported animation.
type VideoOptions struct {
	// Size is the width and height of a frame in pixels.
	Size int
	FPS  int
	// Stride keeps one epoch out of Stride.
	Stride  int
	Quality int
}

// DefaultVideoOptions returns 600x600 frames at 60 fps, every epoch.
func DefaultVideoOptions() VideoOptions {
	return VideoOptions{Size: 600, FPS: 60, Stride: 1, Quality: 90}
}

// RenderFrame draws one epoch: the box, every citizen as a disc of the shared
// radius coloured by status, and the epoch counts in the top left corner.
func RenderFrame(frame epidemic.Frame, counts epidemic.Counts, radius float64, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	for i := 0; i < size; i++ {
		img.SetRGBA(i, 0, boxBorder)
		img.SetRGBA(i, size-1, boxBorder)
		img.SetRGBA(0, i, boxBorder)
		img.SetRGBA(size-1, i, boxBorder)
	}

	rpx := math.Max(radius*float64(size), 2)
	for i, pos := range frame.Positions {
		// y grows upwards in the box, downwards in the image
		cx := pos.X * float64(size)
		cy := (1 - pos.Y) * float64(size)
		fillDisc(img, cx, cy, rpx, StatusColor(frame.Statuses[i]))
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
	}
	lines := []string{
		fmt.Sprintf("Epoch=%d", frame.Epoch),
		fmt.Sprintf("Healthy = %d", counts.Healthy),
		fmt.Sprintf("Infected = %d", counts.Infected),
		fmt.Sprintf("Recovered = %d", counts.Recovered),
	}
	for i, line := range lines {
		d.Dot = fixed.P(8, 16+i*14)
		d.DrawString(line)
	}
	return img
}

func fillDisc(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	b := img.Bounds()
	minX := max(int(math.Floor(cx-r)), b.Min.X)
	maxX := min(int(math.Ceil(cx+r)), b.Max.X-1)
	minY := max(int(math.Floor(cy-r)), b.Min.Y)
	maxY := min(int(math.Ceil(cy+r)), b.Max.Y-1)
	r2 := r * r
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r2 {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// WriteVideo exports the history as an MJPEG AVI file.
func WriteVideo(path string, h *epidemic.History, radius float64, opts VideoOptions) (err error) {
	if h == nil || h.Len() == 0 {
		return fmt.Errorf("no epochs to export")
	}
	if opts.Stride < 1 {
		opts.Stride = 1
	}

	aw, err := mjpeg.New(path, int32(opts.Size), int32(opts.Size), int32(opts.FPS))
	if err != nil {
		return fmt.Errorf("failed to create MJPEG writer: %w", err)
	}
	defer func() {
		if cerr := aw.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to finalize video: %w", cerr)
		}
	}()

	var buf bytes.Buffer
	jpegOptions := &jpeg.Options{Quality: opts.Quality}
	for e := 0; e < h.Len(); e += opts.Stride {
		img := RenderFrame(h.Frames[e], h.Counts[e], radius, opts.Size)
		buf.Reset()
		if err := jpeg.Encode(&buf, img, jpegOptions); err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", e, err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to add frame %d: %w", e, err)
		}
	}
	return nil
}
