package morphology

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/aretw0/lathe/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// block returns a w x h black gray image with a white size x size square at (x0, y0).
func block(w, h, x0, y0, size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func whiteCount(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r == 0xffff {
				n++
			}
		}
	}
	return n
}

// naive is the textbook definition used as a reference.
func naive(src *plane, e Element, erode bool) *plane {
	dst := newPlane(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			v := uint8(0)
			if erode {
				v = 0xff
			}
			for dy := -e.Radius; dy <= e.Radius; dy++ {
				for dx := -e.Radius; dx <= e.Radius; dx++ {
					sx, sy := x+dx, y+dy
					if !e.Contains(dx, dy) || sx < 0 || sy < 0 || sx >= src.w || sy >= src.h {
						continue
					}
					p := src.pix[sy*src.w+sx]
					if (erode && p < v) || (!erode && p > v) {
						v = p
					}
				}
			}
			dst.pix[y*src.w+x] = v
		}
	}
	return dst
}

func TestApply_MatchesNaive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 12).Draw(t, "w")
		h := rapid.IntRange(1, 12).Draw(t, "h")
		pix := rapid.SliceOfN(rapid.Uint8(), w*h, w*h).Draw(t, "pix")
		shape := rapid.SampledFrom([]Shape{Square, Circle, Cross}).Draw(t, "shape")
		radius := rapid.IntRange(1, 5).Draw(t, "radius")
		erode := rapid.Bool().Draw(t, "erode")

		src := &plane{w: w, h: h, pix: pix}
		e := NewElement(shape, radius)

		got := apply(src, e, erode)
		want := naive(src, e, erode)
		if !assert.ObjectsAreEqual(want.pix, got.pix) {
			t.Fatalf("apply != naive\n got: %v\nwant: %v", got.pix, want.pix)
		}
	})
}

func TestApply_NoOp(t *testing.T) {
	img := block(5, 5, 1, 1, 3)

	for _, p := range []Params{
		{Operation: Erosion, Shape: Square, Radius: 0, Iterations: 3},
		{Operation: Dilation, Shape: Square, Radius: 2, Iterations: 0},
	} {
		out, err := Apply(img, p)
		require.NoError(t, err)
		assert.Same(t, img, out)
	}
}

func TestApply_ErosionDilation(t *testing.T) {
	img := block(9, 9, 2, 2, 5)

	eroded, err := Apply(img, Params{Operation: Erosion, Shape: Square, Radius: 1, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 9, whiteCount(eroded))

	dilated, err := Apply(img, Params{Operation: Dilation, Shape: Square, Radius: 1, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 49, whiteCount(dilated))

	twice, err := Apply(img, Params{Operation: Erosion, Shape: Square, Radius: 1, Iterations: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, whiteCount(twice))

	_, isGray := eroded.(*image.Gray)
	assert.True(t, isGray, "grayscale in, grayscale out")
}

func TestApply_BorderIgnored(t *testing.T) {
	img := block(4, 4, 0, 0, 4)

	out, err := Apply(img, Params{Operation: Erosion, Shape: Circle, Radius: 2, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 16, whiteCount(out), "samples outside the image must not erode the edges")
}

func TestApply_OpeningIsNotAlternated(t *testing.T) {
	img := block(9, 9, 3, 3, 3)
	e := NewElement(Square, 1)

	opened, err := Apply(img, Params{Operation: Opening, Shape: Square, Radius: 1, Iterations: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, whiteCount(opened), "two erosions remove the 3x3 feature")

	alternated := Dilate(Erode(Dilate(Erode(img, e, 1), e, 1), e, 1), e, 1)
	assert.Equal(t, 9, whiteCount(alternated))

	sequential := Dilate(Erode(img, e, 2), e, 2)
	assert.Equal(t, opened, sequential)
}

func TestApply_Closing(t *testing.T) {
	// Two blocks separated by a 2px gap are joined by closing.
	img := image.NewGray(image.Rect(0, 0, 12, 5))
	for y := 1; y < 4; y++ {
		for x := 1; x < 5; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
			img.SetGray(x+6, y, color.Gray{Y: 255})
		}
	}

	out, err := Apply(img, Params{Operation: Closing, Shape: Square, Radius: 1, Iterations: 1})
	require.NoError(t, err)
	g := out.(*image.Gray)
	assert.Equal(t, uint8(255), g.GrayAt(5, 2).Y)
	assert.Equal(t, uint8(255), g.GrayAt(6, 2).Y)
}

func TestApply_GradientIsDilationMinusErosion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 10).Draw(t, "w")
		h := rapid.IntRange(1, 10).Draw(t, "h")
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, rapid.SliceOfN(rapid.Uint8(), w*h, w*h).Draw(t, "pix"))
		p := Params{
			Shape:      rapid.SampledFrom([]Shape{Square, Circle, Cross}).Draw(t, "shape"),
			Radius:     rapid.IntRange(1, 3).Draw(t, "radius"),
			Iterations: rapid.IntRange(1, 3).Draw(t, "iterations"),
		}

		p.Operation = Gradient
		grad, err := Apply(img, p)
		if err != nil {
			t.Fatal(err)
		}
		p.Operation = Dilation
		dil, _ := Apply(img, p)
		p.Operation = Erosion
		ero, _ := Apply(img, p)

		gg, dg, eg := grad.(*image.Gray), dil.(*image.Gray), ero.(*image.Gray)
		for i := range gg.Pix {
			if gg.Pix[i] != dg.Pix[i]-eg.Pix[i] {
				t.Fatalf("pixel %d: gradient %d != %d - %d", i, gg.Pix[i], dg.Pix[i], eg.Pix[i])
			}
		}
	})
}

func TestApply_Channels(t *testing.T) {
	rgba := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := 0; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3] = 200, 100, 50, 255
	}
	rgba.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 250, B: 50, A: 0})

	out, err := Apply(rgba, Params{Operation: Erosion, Shape: Square, Radius: 1, Iterations: 1})
	require.NoError(t, err)
	n := out.(*image.NRGBA)
	assert.Equal(t, color.NRGBA{R: 10, G: 100, B: 50, A: 0}, n.NRGBAAt(0, 0), "alpha participates for 4 channels")

	opaque := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := 0; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i], opaque.Pix[i+3] = 100, 255
	}
	opaque.SetNRGBA(1, 1, color.NRGBA{R: 200, A: 255})
	out, err = Apply(opaque, Params{Operation: Dilation, Shape: Cross, Radius: 1, Iterations: 1})
	require.NoError(t, err)
	n = out.(*image.NRGBA)
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, n.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 100, A: 255}, n.NRGBAAt(0, 0))
}

func TestNode_ThroughRegistry(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(Node()))

	out, err := r.Execute(context.Background(), ID, map[string]any{
		"image":     block(9, 9, 2, 2, 5),
		"operation": "dilation",
		"radius":    "1",
	})
	require.NoError(t, err)
	assert.Equal(t, 49, whiteCount(out["image"].(image.Image)))

	_, err = r.Execute(context.Background(), ID, map[string]any{
		"image":  block(3, 3, 0, 0, 1),
		"radius": 1001,
	})
	assert.Error(t, err)
}
