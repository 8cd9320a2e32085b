package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Equal(t, 5, cfg.VideoMinFrames)
	assert.Equal(t, time.Hour, cfg.LockTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "lathe:", cfg.RedisPrefix)
	assert.Equal(t, 4096, cfg.MaxTextSize)
	assert.Equal(t, 16384, cfg.MaxCanvasSize)
	assert.Equal(t, "lathe.yaml", cfg.PresetsFile)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"STATIC_FFMPEG_PATH":     "/opt/ffmpeg/bin/ffmpeg",
		"LATHE_VIDEO_MIN_FRAMES": "2",
		"LATHE_LOCK_TTL":         "90s",
		"LATHE_REDIS_ADDR":       "localhost:6379",
		"LATHE_REDIS_DB":         "3",
	})
	require.NoError(t, err)

	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, 2, cfg.VideoMinFrames)
	assert.Equal(t, 90*time.Second, cfg.LockTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadFrom_Invalid(t *testing.T) {
	_, err := LoadFrom(map[string]string{"LATHE_VIDEO_MIN_FRAMES": "many"})
	assert.Error(t, err)

	_, err = LoadFrom(map[string]string{"LATHE_VIDEO_MIN_FRAMES": "0"})
	assert.Error(t, err)

	_, err = LoadFrom(map[string]string{"LATHE_LOCK_TTL": "-1s"})
	assert.Error(t, err)
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lathe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: erode-soft
    node: morphology
    args:
      operation: erosion
      shape: circle
      radius: 2
  - name: youtube
    node: images_to_video
    args:
      container: mp4
      crf: 18
`), 0o644))

	ps, err := LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "morphology", ps["erode-soft"].Node)
	assert.Equal(t, 2, ps["erode-soft"].Args["radius"])

	t.Run("Missing File", func(t *testing.T) {
		ps, err := LoadPresets(filepath.Join(dir, "none.yaml"))
		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("JSON", func(t *testing.T) {
		jsonPath := filepath.Join(dir, "lathe.json")
		require.NoError(t, os.WriteFile(jsonPath, []byte(`{"presets":[{"name":"a","node":"morphology","args":{"radius":3}}]}`), 0o644))
		ps, err := LoadPresets(jsonPath)
		require.NoError(t, err)
		assert.Equal(t, float64(3), ps["a"].Args["radius"])
	})

	t.Run("Invalid", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("presets:\n  - name: x\n"), 0o644))
		_, err := LoadPresets(bad)
		assert.Error(t, err)
	})
}

func TestPresets_Resolve(t *testing.T) {
	ps := Presets{
		"soft": {Name: "soft", Node: "morphology", Args: map[string]any{"radius": 2, "shape": "circle"}},
	}

	got, err := ps.Resolve("soft", "morphology", map[string]any{"radius": 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"radius": 5, "shape": "circle"}, got)
	assert.Equal(t, 2, ps["soft"].Args["radius"], "preset is not mutated")

	got, err = ps.Resolve("", "morphology", map[string]any{"radius": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"radius": 1}, got)

	_, err = ps.Resolve("hard", "morphology", nil)
	assert.Error(t, err)

	_, err = ps.Resolve("soft", "overlay_images", nil)
	assert.Error(t, err)
}
