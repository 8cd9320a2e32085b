// Package overlay composites an overlay image onto a base image.
package overlay

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/imaging"
	"github.com/aretw0/lathe/pkg/registry"
	"github.com/aretw0/lathe/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// ID is the registry ID of the node.
const ID = "overlay_images"

// Position selects where the overlay is placed.
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
	PercentOffset  Position = "percent_offset"
	PixelOffset    Position = "pixel_offset"
)

// anchors maps fixed positions to the fraction of the free space
// (base - overlay) left of and above the overlay.
var anchors = map[Position][2]float64{
	TopLeft:        {0, 0},
	TopCentered:    {0.5, 0},
	TopRight:       {1, 0},
	CenteredLeft:   {0, 0.5},
	Centered:       {0.5, 0.5},
	CenteredRight:  {1, 0.5},
	BottomLeft:     {0, 1},
	BottomCentered: {0.5, 1},
	BottomRight:    {1, 1},
}

// Params are the node arguments other than the two images.
type Params struct {
	Opacity  float64  `mapstructure:"opacity"` // 0..100
	Position Position `mapstructure:"position"`
	XPercent float64  `mapstructure:"x_percent"`
	YPercent float64  `mapstructure:"y_percent"`
	XPixels  int      `mapstructure:"x_pixels"`
	YPixels  int      `mapstructure:"y_pixels"`
}

// Spec declares the node.
func Spec() domain.NodeSpec {
	return domain.NodeSpec{
		ID:          ID,
		Name:        "Overlay Images",
		Description: "Blends an overlay image onto a base image at a chosen position and opacity.",
		Category:    "image/compositing",
		Icon:        "BsLayersHalf",
		Inputs: schema.Schema{
			schema.In("base", "Base", schema.Image(1, 3, 4)),
			schema.In("overlay", "Overlay", schema.Image(1, 3, 4)),
			schema.In("opacity", "Opacity", schema.Slider(0, 100, schema.Precision(1), schema.Step(1), schema.Unit("%"))).
				WithDefault(50.0),
			schema.In("position", "Overlay position", schema.Enum(
				schema.Opt(string(TopLeft), "Top left"),
				schema.Opt(string(TopCentered), "Top centered"),
				schema.Opt(string(TopRight), "Top right"),
				schema.Opt(string(CenteredLeft), "Centered left"),
				schema.Opt(string(Centered), "Centered"),
				schema.Opt(string(CenteredRight), "Centered right"),
				schema.Opt(string(BottomLeft), "Bottom left"),
				schema.Opt(string(BottomCentered), "Bottom centered"),
				schema.Opt(string(BottomRight), "Bottom right"),
				schema.Opt(string(PercentOffset), "Percent offset"),
				schema.Opt(string(PixelOffset), "Pixel offset"),
			)).WithDefault(string(Centered)),
			schema.In("x_percent", "X offset", schema.Slider(-100, 100, schema.Precision(1), schema.Unit("%"))).
				WithDefault(0.0).
				WithDocs("Offset of the overlay centre from the base centre, as a percentage of half the base width.").
				VisibleWhen("position", string(PercentOffset)),
			schema.In("y_percent", "Y offset", schema.Slider(-100, 100, schema.Precision(1), schema.Unit("%"))).
				WithDefault(0.0).
				VisibleWhen("position", string(PercentOffset)),
			schema.In("x_pixels", "X offset", schema.Number(schema.Unit("px"))).
				WithDefault(0).
				WithDocs("Offset of the overlay centre from the base centre, in pixels.").
				VisibleWhen("position", string(PixelOffset)),
			schema.In("y_pixels", "Y offset", schema.Number(schema.Unit("px"))).
				WithDefault(0).
				VisibleWhen("position", string(PixelOffset)),
		},
		Outputs: []domain.Output{{Key: "image", Label: "Image", Kind: domain.KindImage}},
	}
}

// Node returns the registry entry.
func Node() registry.Node {
	return registry.Node{Spec: Spec(), Run: run}
}

func run(_ context.Context, args map[string]any) (map[string]any, error) {
	base, _ := args["base"].(image.Image)
	over, _ := args["overlay"].(image.Image)

	var p Params
	if err := mapstructure.Decode(args, &p); err != nil {
		return nil, fmt.Errorf("decode overlay params: %w", err)
	}

	out, err := Composite(base, over, p)
	if err != nil {
		return nil, err
	}
	return map[string]any{"image": out}, nil
}

// Place resolves the overlay box inside a base of size baseSize.
// Pixel offsets that would put the overlay fully outside the base are
// rejected with a *schema.ValidationError naming the accepted range.
func Place(baseSize, overlaySize image.Point, p Params) (image.Rectangle, error) {
	bw, bh := baseSize.X, baseSize.Y
	ow, oh := overlaySize.X, overlaySize.Y

	var x0, y0 int
	switch p.Position {
	case PercentOffset:
		x0 = int((50+p.XPercent/2)*float64(bw)/100 - float64(ow)/2)
		y0 = int((50+p.YPercent/2)*float64(bh)/100 - float64(oh)/2)
	case PixelOffset:
		maxX := (bw + ow) / 2
		if p.XPixels <= -maxX || p.XPixels >= maxX {
			return image.Rectangle{}, schema.Invalid("x_pixels", p.XPixels,
				"X offset must be in %d..%d range", 1-maxX, maxX-1)
		}
		maxY := (bh + oh) / 2
		if p.YPixels <= -maxY || p.YPixels >= maxY {
			return image.Rectangle{}, schema.Invalid("y_pixels", p.YPixels,
				"Y offset must be in %d..%d range", 1-maxY, maxY-1)
		}
		x0 = int(math.RoundToEven(float64(p.XPixels) + float64(bw-ow)/2))
		y0 = int(math.RoundToEven(float64(p.YPixels) + float64(bh-oh)/2))
	default:
		f, ok := anchors[p.Position]
		if !ok {
			return image.Rectangle{}, schema.Invalid("position", string(p.Position), "unknown position %q", p.Position)
		}
		x0 = int(float64(bw-ow) * f[0])
		y0 = int(float64(bh-oh) * f[1])
	}

	return image.Rect(x0, y0, x0+ow, y0+oh), nil
}

// Composite blends over onto base with the Porter-Duff "over" operator at
// p.Opacity percent. The result has the size of base and is grayscale only
// when both inputs are. Placement errors wrap domain.ErrInvalidArguments
// and are reported even at zero opacity.
func Composite(base, over image.Image, p Params) (image.Image, error) {
	if base == nil || over == nil {
		return nil, fmt.Errorf("overlay: base and overlay images are required")
	}

	bb := base.Bounds()
	box, err := Place(bb.Size(), over.Bounds().Size(), p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArguments, err)
	}
	inter := box.Intersect(image.Rectangle{Max: bb.Size()})
	if inter.Empty() {
		return nil, fmt.Errorf("%w: %w: overlay box %v, base %v",
			domain.ErrInvalidArguments, domain.ErrOutOfBounds, box, bb.Size())
	}
	if p.Opacity <= 0 {
		return base, nil
	}

	// Crop the overlay to the part that lands on the base.
	src := transform.Crop(over, inter.Sub(box.Min).Add(over.Bounds().Min))

	dst := image.NewRGBA(image.Rectangle{Max: bb.Size()})
	draw.Draw(dst, dst.Bounds(), base, bb.Min, draw.Src)

	alpha := uint16(math.Round(math.Min(p.Opacity, 100) / 100 * 0xffff))
	mask := image.NewUniform(color.Alpha16{A: alpha})
	draw.DrawMask(dst, inter, src, src.Bounds().Min, mask, image.Point{}, draw.Over)

	if imaging.IsGray(base) && imaging.IsGray(over) {
		return imaging.ToGray(dst), nil
	}
	return imaging.ToNRGBA(dst), nil
}
