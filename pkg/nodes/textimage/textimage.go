// Package textimage renders text into a transparent image, choosing the
// largest font size that fits the requested canvas.
package textimage

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/registry"
	"github.com/aretw0/lathe/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ID is the registry ID of the node.
const ID = "text_as_image"

// Alignment of the lines within the text block.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Position of the text block within the canvas.
type Position string

const (
	TopLeft        Position = "top_left"
	TopCentered    Position = "top_centered"
	TopRight       Position = "top_right"
	CenteredLeft   Position = "centered_left"
	Centered       Position = "centered"
	CenteredRight  Position = "centered_right"
	BottomLeft     Position = "bottom_left"
	BottomCentered Position = "bottom_centered"
	BottomRight    Position = "bottom_right"
)

var positions = []struct {
	pos   Position
	label string
	f     [2]float64
}{
	{TopLeft, "Top left", [2]float64{0, 0}},
	{TopCentered, "Top centered", [2]float64{0.5, 0}},
	{TopRight, "Top right", [2]float64{1, 0}},
	{CenteredLeft, "Centered left", [2]float64{0, 0.5}},
	{Centered, "Centered", [2]float64{0.5, 0.5}},
	{CenteredRight, "Centered right", [2]float64{1, 0.5}},
	{BottomLeft, "Bottom left", [2]float64{0, 1}},
	{BottomCentered, "Bottom centered", [2]float64{0.5, 1}},
	{BottomRight, "Bottom right", [2]float64{1, 1}},
}

// DefaultMaxCanvas is the largest accepted canvas side in pixels.
const DefaultMaxCanvas = 16384

// DPI at which font sizes are interpreted, so one point is one pixel.
const DPI = 72

// Params are the node arguments.
type Params struct {
	Text      string      `mapstructure:"text"`
	Font      string      `mapstructure:"font"`
	Color     color.NRGBA `mapstructure:"-"`
	Alignment Alignment   `mapstructure:"alignment"`
	Width     int         `mapstructure:"width"`
	Height    int         `mapstructure:"height"`
	Position  Position    `mapstructure:"position"`
}

// Renderer renders text with the fonts of a FontSet.
type Renderer struct {
	fonts     *FontSet
	maxText   int
	maxCanvas int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxTextSize caps the accepted text size in bytes.
func WithMaxTextSize(n int) Option {
	return func(r *Renderer) { r.maxText = n }
}

// WithMaxCanvasSize caps the canvas width and height in pixels.
// n <= 0 keeps DefaultMaxCanvas.
func WithMaxCanvasSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxCanvas = n
		}
	}
}

// New creates a renderer over fonts. A nil set means the embedded fonts.
func New(fonts *FontSet, opts ...Option) *Renderer {
	if fonts == nil {
		fonts, _ = NewFontSet("")
	}
	r := &Renderer{fonts: fonts, maxCanvas: DefaultMaxCanvas}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Spec declares the node. The font options are the fonts of the set.
func (r *Renderer) Spec() domain.NodeSpec {
	fontOpts := make([]schema.Option, 0, len(r.fonts.fonts))
	for _, f := range r.fonts.fonts {
		fontOpts = append(fontOpts, schema.Opt(f.ID, f.Label))
	}
	posOpts := make([]schema.Option, len(positions))
	for i, p := range positions {
		posOpts[i] = schema.Opt(string(p.pos), p.label)
	}

	return domain.NodeSpec{
		ID:          ID,
		Name:        "Text as image",
		Description: "Converts a text to an image",
		Category:    "image/compositing",
		Icon:        "MdTextFields",
		Inputs: schema.Schema{
			schema.In("text", "Text", schema.Text(true, r.maxText)),
			schema.In("font", "Font", schema.Enum(fontOpts...)).WithDefault(DefaultFont),
			schema.In("color", "Color", schema.Color()).WithDefault("#000000"),
			schema.In("alignment", "Text alignment", schema.Enum(
				schema.Opt(string(AlignLeft), "Left"),
				schema.Opt(string(AlignCenter), "Centered"),
				schema.Opt(string(AlignRight), "Right"),
			)).WithDefault(string(AlignCenter)),
			schema.In("width", "Width", r.side()).WithDefault(100),
			schema.In("height", "Height", r.side()).WithDefault(100),
			schema.In("position", "Position", schema.Enum(posOpts...)).WithDefault(string(Centered)),
		},
		Outputs: []domain.Output{{Key: "image", Label: "Image", Kind: domain.KindImage}},
	}
}

func (r *Renderer) side() schema.Type {
	return schema.Number(schema.Min(1), schema.Max(float64(r.maxCanvas)), schema.Unit("px"))
}

// Node returns the registry entry.
func (r *Renderer) Node() registry.Node {
	return registry.Node{Spec: r.Spec(), Run: r.run}
}

func (r *Renderer) run(_ context.Context, args map[string]any) (map[string]any, error) {
	var p Params
	if err := mapstructure.Decode(args, &p); err != nil {
		return nil, fmt.Errorf("decode text params: %w", err)
	}
	if c, ok := args["color"].(color.NRGBA); ok {
		p.Color = c
	}
	img, err := r.Render(p)
	if err != nil {
		return nil, err
	}
	return map[string]any{"image": img}, nil
}

// Render draws p.Text on a transparent p.Width x p.Height canvas. Each side
// must be in 1..max canvas size.
func (r *Renderer) Render(p Params) (*image.NRGBA, error) {
	for _, side := range []struct {
		key string
		v   int
	}{{"width", p.Width}, {"height", p.Height}} {
		if side.v < 1 || side.v > r.maxCanvas {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArguments,
				schema.Invalid(side.key, side.v, "must be in 1..%d range", r.maxCanvas))
		}
	}
	if p.Font == "" {
		p.Font = DefaultFont
	}
	f, ok := r.fonts.Get(p.Font)
	if !ok {
		return nil, schema.Invalid("font", p.Font, "unknown font %q", p.Font)
	}

	lines := splitLines(p.Text)
	size, err := FitFontSize(f, lines, p.Width, p.Height)
	if err != nil {
		return nil, err
	}

	face, err := newFace(f, size)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	m := measure(face, lines)
	fx, fy := anchor(p.Position)
	bx := int(math.Round(fx * float64(p.Width-m.width)))
	by := int(math.Round(fy * float64(p.Height-m.height)))

	canvas := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	d := &font.Drawer{Dst: canvas, Src: image.NewUniform(p.Color), Face: face}
	for i, line := range lines {
		lx := bx
		switch p.Alignment {
		case AlignRight:
			lx += m.width - m.lines[i]
		case AlignLeft:
		default:
			lx += (m.width - m.lines[i]) / 2
		}
		d.Dot = fixed.Point26_6{
			X: fixed.I(lx),
			Y: fixed.I(by) + m.ascent + fixed.Int26_6(i)*m.lineHeight,
		}
		d.DrawString(line)
	}
	return canvas, nil
}

// FitFontSize returns the largest integer size at which lines fit in
// width x height. It binary-searches [1, 2*max(width, height)] and then
// steps down until the measured block fits, so the result never overflows.
func FitFontSize(f Font, lines []string, width, height int) (int, error) {
	fits := func(size int) (bool, error) {
		face, err := newFace(f, size)
		if err != nil {
			return false, err
		}
		defer face.Close()
		m := measure(face, lines)
		return m.width <= width && m.height <= height, nil
	}

	ok, err := fits(1)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %dx%d", domain.ErrTextDoesNotFit, width, height)
	}

	lo, hi := 1, 2*max(width, height)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ok, err := fits(mid)
		if err != nil {
			return 0, err
		}
		if ok {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	for lo > 1 {
		ok, err := fits(lo)
		if err != nil {
			return 0, err
		}
		if ok {
			break
		}
		lo--
	}
	return lo, nil
}

type metrics struct {
	width, height int
	lines         []int
	ascent        fixed.Int26_6
	lineHeight    fixed.Int26_6
}

// measure computes the pixel size of the text block: the widest line by
// ascent + descent + (n-1) line heights.
func measure(face font.Face, lines []string) metrics {
	fm := face.Metrics()
	m := metrics{lines: make([]int, len(lines)), ascent: fm.Ascent, lineHeight: fm.Height}
	for i, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		m.lines[i] = w
		m.width = max(m.width, w)
	}
	h := fm.Ascent + fm.Descent + fixed.Int26_6(len(lines)-1)*fm.Height
	m.height = h.Ceil()
	return m
}

func newFace(f Font, size int) (font.Face, error) {
	face, err := opentype.NewFace(f.face, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     DPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font %s at size %d: %w", f.ID, size, err)
	}
	return face, nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

func anchor(p Position) (float64, float64) {
	for _, e := range positions {
		if e.pos == p {
			return e.f[0], e.f[1]
		}
	}
	return 0.5, 0.5
}
