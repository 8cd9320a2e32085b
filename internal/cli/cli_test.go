package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lathe/internal/config"
	"github.com/aretw0/lathe/internal/logging"
	"github.com/aretw0/lathe/pkg/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"radius=3", "operation=dilation", "flag=true", "text=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"radius":    3.0,
		"operation": "dilation",
		"flag":      true,
		"text":      "a=b",
		"empty":     "",
	}, got)

	_, err = ParseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseAssignments([]string{"=3"})
	assert.Error(t, err)
}

func TestParsePaths(t *testing.T) {
	got, err := ParsePaths([]string{"image=out.png"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"image": "out.png"}, got)

	_, err = ParsePaths([]string{"image="})
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 1.5, ParseValue("1.5"))
	assert.Equal(t, false, ParseValue("false"))
	assert.Equal(t, "#ff0000", ParseValue("#ff0000"))
	assert.Equal(t, `"quoted"`, ParseValue(`"quoted"`), "JSON strings stay raw")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	img := image.NewGray(image.Rect(0, 0, 7, 7))
	img.SetGray(3, 3, color.Gray{Y: 255})
	require.NoError(t, imaging.Save(in, img))

	eng, closeFn, err := NewEngine(context.Background(), config.Default(), logging.NewNop())
	require.NoError(t, err)
	defer closeFn()

	presets := config.Presets{
		"grow": {Name: "grow", Node: "morphology", Args: map[string]any{"operation": "dilation", "radius": 2}},
	}
	out := filepath.Join(dir, "out.png")

	var buf bytes.Buffer
	err = Run(context.Background(), eng, presets, RunOptions{
		NodeID: "morphology",
		Args:   []string{"image=" + in, "radius=1"},
		Outs:   []string{"image=" + out},
		Preset: "grow",
		JSON:   true,
	}, &buf)
	require.NoError(t, err)

	var res map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, out, res["image"])

	saved, err := imaging.Load(out)
	require.NoError(t, err)
	gray := imaging.ToGray(saved)
	assert.Equal(t, uint8(255), gray.GrayAt(2, 2).Y, "explicit radius 1 wins over preset 2")
	assert.Equal(t, uint8(0), gray.GrayAt(1, 1).Y)

	buf.Reset()
	err = Run(context.Background(), eng, presets, RunOptions{NodeID: "morphology", Preset: "missing"}, &buf)
	assert.Error(t, err)

	err = Run(context.Background(), eng, nil, RunOptions{NodeID: "nope"}, &buf)
	assert.Error(t, err)
}

func TestNewEngine_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.RedisAddr = mr.Addr()

	eng, closeFn, err := NewEngine(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, eng)
	assert.NoError(t, closeFn())

	cfg.RedisAddr = "127.0.0.1:1"
	_, _, err = NewEngine(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	assert.True(t, NewLogger("info", true, false).Enabled(context.Background(), -4))
	assert.False(t, NewLogger("debug", false, true).Enabled(context.Background(), 8))
	assert.False(t, NewLogger("warn", false, false).Enabled(context.Background(), 0))
}
