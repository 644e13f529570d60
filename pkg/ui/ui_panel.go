package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Widget is anything a Panel can lay out.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	// Height is the vertical space the widget takes, label excluded.
	Height() float64
	// MoveTo places the widget's top left corner.
	MoveTo(x, y float64)
}

func (s *Slider) Height() float64 { return s.H + 15 }
func (s *Slider) MoveTo(x, y float64) { s.X, s.Y = x, y }
func (c *Checkbox) Height() float64 { return c.Size + 5 }
func (c *Checkbox) MoveTo(x, y float64) { c.X, c.Y = x, y }
func (b *Button) Height() float64 { return b.H + 5 }
func (b *Button) MoveTo(x, y float64) { b.X, b.Y = x, y }

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	labelHeight   = 15.0
)

type panelEntry struct {
	section string // set for section headers, widget is nil then
	label   string
	widget  Widget
}

// Panel stacks sections and labelled widgets in a scrollable column.
type Panel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	ScrollOffset  float64
	Hidden        bool

	BGColor      color.RGBA
	BorderColor  color.RGBA
	SectionColor color.RGBA

	entries []panelEntry
}

func NewPanel(title string, x, y, width, height float64) *Panel {
	return &Panel{
		Title:        title,
		X:            x,
		Y:            y,
		Width:        width,
		Height:       height,
		BGColor:      color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor:  color.RGBA{R: 100, G: 100, B: 110, A: 255},
		SectionColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

func (p *Panel) AddSection(title string) {
	p.entries = append(p.entries, panelEntry{section: title})
}

func (p *Panel) add(label string, w Widget) {
	p.entries = append(p.entries, panelEntry{label: label, widget: w})
	p.layout()
}

func (p *Panel) AddSlider(label string, min, max, value, step float64) *Slider {
	s := NewSlider(0, 0, p.Width-20, label, min, max, 0)
	s.Step = step
	s.Set(value)
	p.add(label, s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	p.add(label, c)
	return c
}

// AddButton adds an unlabelled full width button.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(0, 0, p.Width-20, 24, label, onClick)
	p.add("", b)
	return b
}

// layout positions every widget for the current scroll offset.
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	for _, e := range p.entries {
		if e.widget == nil {
			y += sectionHeight
			continue
		}
		if e.label != "" {
			y += labelHeight
		}
		e.widget.MoveTo(p.X+10, y)
		y += e.widget.Height()
	}
}

func (p *Panel) contentHeight() float64 {
	h := titleHeight
	for _, e := range p.entries {
		switch {
		case e.widget == nil:
			h += sectionHeight
		case e.label != "":
			h += labelHeight + e.widget.Height()
		default:
			h += e.widget.Height()
		}
	}
	return h
}

func (p *Panel) visible(y, h float64) bool {
	return y >= p.Y+titleHeight-5 && y+h <= p.Y+p.Height
}

func (p *Panel) Update() {
	if p.Hidden {
		return
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		maxScroll := max(p.contentHeight()-p.Height+10, 0)
		p.ScrollOffset = min(max(p.ScrollOffset-dy*20, 0), maxScroll)
		p.layout()
	}
	for _, e := range p.entries {
		if e.widget != nil {
			e.widget.Update()
		}
	}
}

func (p *Panel) Draw(screen *ebiten.Image) {
	if p.Hidden {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	y := p.Y + titleHeight - p.ScrollOffset
	for _, e := range p.entries {
		if e.widget == nil {
			if p.visible(y, 20) {
				vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20, p.SectionColor, true)
				ebitenutil.DebugPrintAt(screen, e.section, int(p.X+10), int(y+2))
			}
			y += sectionHeight
			continue
		}
		h := e.widget.Height()
		if e.label != "" {
			h += labelHeight
		}
		if p.visible(y, h) {
			if e.label != "" {
				ebitenutil.DebugPrintAt(screen, e.label, int(p.X+10), int(y-2))
			}
			e.widget.Draw(screen)
		}
		y += h
	}
}
