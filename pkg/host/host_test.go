package host

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/imaging"
	"github.com/aretw0/lathe/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spec() domain.NodeSpec {
	return domain.NodeSpec{
		ID: "probe",
		Inputs: schema.Schema{
			schema.In("image", "Image", schema.Image()),
			schema.In("radius", "Radius", schema.Slider(0, 10)),
		},
		Outputs: []domain.Output{
			{Key: "image", Label: "Image", Kind: domain.KindImage},
			{Key: "count", Label: "Count", Kind: domain.KindNumber},
		},
	}
}

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 200, A: 255})
	return img
}

func TestBind(t *testing.T) {
	uri, err := imaging.EncodeDataURI(sample())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, imaging.Save(path, sample()))

	for name, value := range map[string]string{"data uri": uri, "path": path} {
		t.Run(name, func(t *testing.T) {
			raw := map[string]any{"image": value, "radius": "3"}
			args, err := Bind(spec(), raw)
			require.NoError(t, err)

			img, ok := args["image"].(image.Image)
			require.True(t, ok)
			assert.Equal(t, image.Pt(3, 2), img.Bounds().Size())
			assert.Equal(t, "3", args["radius"], "non-image values pass through")
			assert.Equal(t, value, raw["image"], "input map untouched")
		})
	}
}

func TestBind_Errors(t *testing.T) {
	_, err := Bind(spec(), map[string]any{"image": filepath.Join(t.TempDir(), "missing.png")})
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)
	fields := schema.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "image", fields[0].Key)

	args, err := Bind(spec(), nil)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestEmit(t *testing.T) {
	out := map[string]any{"image": sample(), "count": 4}

	res, err := Emit(spec(), out, nil)
	require.NoError(t, err)
	uri, ok := res["image"].(string)
	require.True(t, ok)
	assert.True(t, imaging.IsDataURI(uri))
	assert.Equal(t, 4, res["count"])

	decoded, err := imaging.DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, color.NRGBAModel.Convert(decoded.At(1, 1)))

	path := filepath.Join(t.TempDir(), "out.png")
	res, err = Emit(spec(), out, map[string]string{"image": path})
	require.NoError(t, err)
	assert.Equal(t, path, res["image"])
	saved, err := imaging.Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(3, 2), saved.Bounds().Size())

	_, err = Emit(spec(), out, map[string]string{"mask": path})
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)
}
