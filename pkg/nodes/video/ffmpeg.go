package video

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/lathe/pkg/adapters/process"
)

// Process names registered on the runner.
const (
	ffmpegName  = "ffmpeg"
	ffprobeName = "ffprobe"
)

// Job is one encoder invocation.
type Job struct {
	ListFile  string // concat demuxer list
	Output    string
	FrameRate string
	Codec     string
	Preset    string // empty: encoder default
	CRF       int
	UseCRF    bool
}

// Args returns the ffmpeg command line for the job, without the binary.
func (j Job) Args() []string {
	args := []string{
		"-hide_banner", "-y",
		"-f", "concat", "-safe", "0",
		"-r", j.FrameRate,
		"-i", j.ListFile,
		"-c:v", j.Codec,
		"-pix_fmt", "yuv420p",
	}
	if j.Preset != "" {
		args = append(args, "-preset", j.Preset)
	}
	if j.UseCRF {
		args = append(args, "-crf", strconv.Itoa(j.CRF))
	}
	return append(args, j.Output)
}

// Encoder turns a frame list into a video file.
type Encoder interface {
	Encode(ctx context.Context, job Job) error
}

// Prober reports the duration of a media file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// EncodeError is returned when the encoder fails. File names the frame the
// encoder could not open, when it reported one.
type EncodeError struct {
	File   string
	Output string // encoder diagnostics (stderr)
	Err    error
}

func (e *EncodeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("encode video: erroneous file: %s", e.File)
	}
	return fmt.Sprintf("encode video: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// errFrameUnreadable is the cause used when ffmpeg exits cleanly but
// reported a frame it could not open.
var errFrameUnreadable = errors.New("encoder could not open a frame")

// FFmpeg runs the ffmpeg binary through an allow-listed process runner.
type FFmpeg struct {
	runner *process.Runner
}

// NewFFmpeg registers bin (e.g. "ffmpeg" or STATIC_FFMPEG_PATH) as the encoder.
func NewFFmpeg(bin string) *FFmpeg {
	r := process.NewRunner()
	r.Register(ffmpegName, bin)
	return &FFmpeg{runner: r}
}

func (f *FFmpeg) Encode(ctx context.Context, job Job) error {
	res, err := f.runner.Run(ctx, ffmpegName, job.Args()...)
	stderr := res.Stderr
	file := ErroneousFile(stderr)
	if err != nil {
		return &EncodeError{File: file, Output: stderr, Err: err}
	}
	if file != "" {
		return &EncodeError{File: file, Output: stderr, Err: errFrameUnreadable}
	}
	return nil
}

var impossibleToOpen = regexp.MustCompile(`Impossible to open '(.*)'`)

// ErroneousFile scans ffmpeg diagnostics from the end for the
// "[...] Impossible to open 'FILE'" line and returns FILE.
func ErroneousFile(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.HasPrefix(line, "[") {
			continue
		}
		m := impossibleToOpen.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return strings.NewReplacer(`\n`, "", `"`, "", `'`, "").Replace(m[1])
	}
	return ""
}

// FFprobe runs the ffprobe binary.
type FFprobe struct {
	runner *process.Runner
}

// NewFFprobe registers bin (e.g. "ffprobe" or STATIC_FFPROBE_PATH) as the prober.
func NewFFprobe(bin string) *FFprobe {
	r := process.NewRunner()
	r.Register(ffprobeName, bin)
	return &FFprobe{runner: r}
}

func (f *FFprobe) Duration(ctx context.Context, path string) (time.Duration, error) {
	res, err := f.runner.Run(ctx, ffprobeName,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
