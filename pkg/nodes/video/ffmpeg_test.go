//go:build !windows

package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lathe/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script writes an executable shell script standing in for ffmpeg/ffprobe.
func script(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestFFmpeg_ReportsErroneousFile(t *testing.T) {
	bin := script(t, `echo "[concat @ 0x1] Impossible to open '/in/bad.png'" >&2; exit 1`)

	err := NewFFmpeg(bin).Encode(context.Background(), Job{ListFile: "l", Output: "o.mkv", FrameRate: "25", Codec: "libx264"})
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "/in/bad.png", encErr.File)
	assert.Contains(t, encErr.Output, "Impossible to open")

	var runErr *process.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 1, runErr.ExitCode)
}

func TestFFmpeg_ErroneousFileOnCleanExit(t *testing.T) {
	bin := script(t, `echo "[image2 @ 0x2] Impossible to open '/in/x.png'" >&2; exit 0`)

	err := NewFFmpeg(bin).Encode(context.Background(), Job{Codec: "ffv1"})
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.True(t, errors.Is(err, errFrameUnreadable))
}

func TestFFmpeg_PassesArgs(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := script(t, `printf '%s\n' "$@" > `+argsFile)

	job := Job{ListFile: "l.txt", Output: "o.mp4", FrameRate: "30", Codec: "libx264", CRF: 20, UseCRF: true}
	require.NoError(t, NewFFmpeg(bin).Encode(context.Background(), job))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-crf\n20\no.mp4\n")
}

func TestFFprobe_Duration(t *testing.T) {
	d, err := NewFFprobe(script(t, `echo "12.500000"`)).Duration(context.Background(), "v.mkv")
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)

	_, err = NewFFprobe(script(t, `echo "N/A"`)).Duration(context.Background(), "v.mkv")
	assert.Error(t, err)

	_, err = NewFFprobe(script(t, `exit 1`)).Duration(context.Background(), "v.mkv")
	assert.Error(t, err)
}
