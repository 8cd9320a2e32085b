package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/lathe/pkg/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--quiet"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNodesCommand(t *testing.T) {
	out, err := execute(t, "nodes")
	require.NoError(t, err)
	for _, id := range []string{"images_to_video", "morphology", "overlay_images", "text_as_image"} {
		assert.Contains(t, out, id)
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema", "text_as_image")
	require.NoError(t, err)

	var spec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &spec))
	assert.Equal(t, "text_as_image", spec["id"])

	_, err = execute(t, "schema", "nope")
	assert.Error(t, err)
}

func TestDescribeCommand(t *testing.T) {
	out, err := execute(t, "describe", "morphology", "--raw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Morphology"))
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	img.SetGray(2, 2, color.Gray{Y: 255})
	require.NoError(t, imaging.Save(in, img))
	out := filepath.Join(dir, "out.png")

	stdout, err := execute(t, "run", "morphology",
		"--presets", filepath.Join(dir, "none.yaml"),
		"--arg", "image="+in, "--arg", "operation=dilation",
		"--out", "image="+out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "image: "+out)

	_, err = imaging.Load(out)
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lathe version")
}
