// Package morphology implements erosion, dilation and the compound
// operators built from them.
//
// The filters are computed here over square, circle and cross structuring
// elements. bild's effect.Erode and effect.Dilate only take a disk radius,
// and gocv requires cgo and OpenCV.
package morphology

import (
	"context"
	"fmt"
	"image"

	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/imaging"
	"github.com/aretw0/lathe/pkg/registry"
	"github.com/aretw0/lathe/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// ID is the registry ID of the node.
const ID = "morphology"

// Operation is a morphological operator.
type Operation string

const (
	Erosion  Operation = "erosion"
	Dilation Operation = "dilation"
	Opening  Operation = "opening"
	Closing  Operation = "closing"
	Gradient Operation = "gradient"
)

// Params are the node arguments other than the image.
type Params struct {
	Operation  Operation `mapstructure:"operation"`
	Shape      Shape     `mapstructure:"shape"`
	Radius     int       `mapstructure:"radius"`
	Iterations int       `mapstructure:"iterations"`
}

// Spec declares the node.
func Spec() domain.NodeSpec {
	return domain.NodeSpec{
		ID:          ID,
		Name:        "Morphology",
		Description: "Morphological transformations",
		Category:    "image/filter",
		Icon:        "MdOutlineAutoFixHigh",
		Inputs: schema.Schema{
			schema.In("image", "Image", schema.Image(1, 3, 4)),
			schema.In("operation", "Operation", schema.Enum(
				schema.Opt(string(Erosion), "Erosion"),
				schema.Opt(string(Dilation), "Dilation"),
				schema.Opt(string(Opening), "Erosion, Dilation"),
				schema.Opt(string(Closing), "Dilation, Erosion"),
				schema.Opt(string(Gradient), "Dilation - Erosion"),
			)).WithDefault(string(Erosion)),
			schema.In("shape", "Shape", schema.Enum(
				schema.Opt(string(Square), "Square"),
				schema.Opt(string(Circle), "Circle"),
				schema.Opt(string(Cross), "Cross"),
			)).WithDefault(string(Square)),
			schema.In("radius", "Radius", schema.Slider(0, 1000, schema.LogScale())).WithDefault(1),
			schema.In("iterations", "Iterations", schema.Slider(0, 1000, schema.LogScale())).WithDefault(1),
		},
		Outputs: []domain.Output{{Key: "image", Label: "Image", Kind: domain.KindImage}},
	}
}

// Node returns the registry entry.
func Node() registry.Node {
	return registry.Node{Spec: Spec(), Run: run}
}

func run(_ context.Context, args map[string]any) (map[string]any, error) {
	img, _ := args["image"].(image.Image)

	var p Params
	if err := mapstructure.Decode(args, &p); err != nil {
		return nil, fmt.Errorf("decode morphology params: %w", err)
	}

	out, err := Apply(img, p)
	if err != nil {
		return nil, err
	}
	return map[string]any{"image": out}, nil
}

// Apply runs the operator. Radius 0 or zero iterations return img itself.
// Opening is p.Iterations erosions followed by as many dilations (not
// alternated), closing the reverse, and gradient the pixel-wise difference
// between the dilated and the eroded image.
func Apply(img image.Image, p Params) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("morphology: image is required")
	}
	if p.Radius < 0 || p.Iterations < 0 {
		return nil, fmt.Errorf("morphology: negative radius or iterations")
	}
	if p.Radius == 0 || p.Iterations == 0 {
		return img, nil
	}
	if p.Shape == "" {
		p.Shape = Square
	}

	e := NewElement(p.Shape, p.Radius)
	n := p.Iterations

	var op func(*plane) *plane
	switch p.Operation {
	case Erosion:
		op = func(pl *plane) *plane { return repeat(pl, e, true, n) }
	case Dilation:
		op = func(pl *plane) *plane { return repeat(pl, e, false, n) }
	case Opening:
		op = func(pl *plane) *plane { return repeat(repeat(pl, e, true, n), e, false, n) }
	case Closing:
		op = func(pl *plane) *plane { return repeat(repeat(pl, e, false, n), e, true, n) }
	case Gradient:
		op = func(pl *plane) *plane { return subtract(repeat(pl, e, false, n), repeat(pl, e, true, n)) }
	default:
		return nil, schema.Invalid("operation", string(p.Operation), "unknown operation %q", p.Operation)
	}

	return mapPlanes(img, op), nil
}

// Erode applies n erosions with e.
func Erode(img image.Image, e Element, n int) image.Image {
	return mapPlanes(img, func(pl *plane) *plane { return repeat(pl, e, true, n) })
}

// Dilate applies n dilations with e.
func Dilate(img image.Image, e Element, n int) image.Image {
	return mapPlanes(img, func(pl *plane) *plane { return repeat(pl, e, false, n) })
}

// mapPlanes splits img into channels, applies op to each and reassembles
// the result. Grayscale stays grayscale; alpha is processed only for
// 4-channel images, otherwise it is kept opaque.
func mapPlanes(img image.Image, op func(*plane) *plane) image.Image {
	if imaging.IsGray(img) {
		g := imaging.ToGray(img)
		b := g.Bounds()
		out := op(&plane{w: b.Dx(), h: b.Dy(), pix: grayPix(g)})
		dst := image.NewGray(image.Rect(0, 0, out.w, out.h))
		for y := 0; y < out.h; y++ {
			copy(dst.Pix[y*dst.Stride:], out.pix[y*out.w:(y+1)*out.w])
		}
		return dst
	}

	src := imaging.ToNRGBA(img)
	channels := imaging.Channels(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for c := 0; c < 4; c++ {
		if c == 3 && channels != 4 {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					dst.Pix[y*dst.Stride+x*4+3] = 0xff
				}
			}
			continue
		}
		pl := newPlane(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pl.pix[y*w+x] = src.Pix[y*src.Stride+x*4+c]
			}
		}
		out := op(pl)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Pix[y*dst.Stride+x*4+c] = out.pix[y*w+x]
			}
		}
	}
	return dst
}

func grayPix(g *image.Gray) []uint8 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if g.Stride == w {
		return g.Pix[:w*h]
	}
	pix := make([]uint8, 0, w*h)
	for y := 0; y < h; y++ {
		pix = append(pix, g.Pix[y*g.Stride:y*g.Stride+w]...)
	}
	return pix
}
