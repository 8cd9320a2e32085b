// Package video assembles a directory of numbered images into a video file
// with an external encoder.
package video

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/lathe/internal/logging"
	"github.com/aretw0/lathe/pkg/adapters/memory"
	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/ports"
	"github.com/aretw0/lathe/pkg/registry"
	"github.com/aretw0/lathe/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// ID is the registry ID of the node.
const ID = "images_to_video"

// LockKey serialises assemblies.
const LockKey = "video-assembly"

// Defaults.
const (
	DefaultMinFrames = 5
	DefaultLockTTL   = time.Hour
)

// CustomFrameRate selects the custom_frame_rate input.
const CustomFrameRate = "custom"

var (
	extensions = []string{"bmp", "jpeg", "jpg", "png"}
	frameRates = []string{"23.976", "24", "25", "29.97", "30", "60", CustomFrameRate}
	containers = []string{"mkv", "mp4", "avi"}
	codecs     = []string{"libx264", "libx265", "hevc", "ffv1"}
	presets    = []string{"none", "ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow"}

	// pairings lists the codecs each container can hold.
	pairings = map[string][]string{
		"mkv": {"libx264", "libx265", "hevc", "ffv1"},
		"mp4": {"libx264", "libx265", "hevc"},
		"avi": {"libx264", "ffv1"},
	}

	// qualityCodecs accept -preset and -crf.
	qualityCodecs = []string{"libx264", "libx265"}
)

// Params are the node arguments.
type Params struct {
	InputDir        string  `mapstructure:"input_dir"`
	Extension       string  `mapstructure:"extension"`
	OutputDir       string  `mapstructure:"output_dir"`
	Name            string  `mapstructure:"name"`
	FrameRate       string  `mapstructure:"frame_rate"`
	CustomFrameRate float64 `mapstructure:"custom_frame_rate"`
	Container       string  `mapstructure:"container"`
	Codec           string  `mapstructure:"codec"`
	Preset          string  `mapstructure:"preset"`
	CRF             int     `mapstructure:"crf"`
}

// Result describes the produced video.
type Result struct {
	Path     string
	Frames   int
	Duration time.Duration // Zero when probing failed
}

// Assembler runs video assemblies, one at a time.
type Assembler struct {
	encoder   Encoder
	prober    Prober
	locker    ports.DistributedLocker
	logger    *slog.Logger
	minFrames int
	lockTTL   time.Duration
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithEncoder replaces the ffmpeg encoder.
func WithEncoder(e Encoder) Option {
	return func(a *Assembler) { a.encoder = e }
}

// WithProber replaces the ffprobe prober.
func WithProber(p Prober) Option {
	return func(a *Assembler) { a.prober = p }
}

// WithLocker replaces the in-process lock.
func WithLocker(l ports.DistributedLocker) Option {
	return func(a *Assembler) { a.locker = l }
}

// WithLogger sets the logger for encoder runs and lock events.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// WithLockTTL sets how long the assembly lock is held before it expires.
func WithLockTTL(d time.Duration) Option {
	return func(a *Assembler) { a.lockTTL = d }
}

// WithMinFrames sets the smallest accepted frame count.
func WithMinFrames(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.minFrames = n
		}
	}
}

// New creates an assembler. Without options it runs "ffmpeg" and "ffprobe"
// from PATH and locks in-process.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		minFrames: DefaultMinFrames,
		lockTTL:   DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.encoder == nil {
		a.encoder = NewFFmpeg("ffmpeg")
	}
	if a.prober == nil {
		a.prober = NewFFprobe("ffprobe")
	}
	if a.locker == nil {
		a.locker = memory.NewLocker()
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	return a
}

func enumOf(values []string) *schema.EnumType {
	opts := make([]schema.Option, len(values))
	for i, v := range values {
		opts[i] = schema.Opt(v, v)
	}
	return schema.Enum(opts...)
}

// Spec declares the node.
func (a *Assembler) Spec() domain.NodeSpec {
	ext := make([]schema.Option, len(extensions))
	for i, e := range extensions {
		ext[i] = schema.Opt(e, strings.ToUpper(e))
	}

	return domain.NodeSpec{
		ID:          ID,
		Name:        "Images to Video",
		Description: "Combine all images of a directory into a video.",
		Category:    "image/io",
		Icon:        "BsFillImageFill",
		SideEffects: true,
		Inputs: schema.Schema{
			schema.In("input_dir", "Input Images Directory", schema.Directory(true)),
			schema.In("extension", "Extension", schema.Enum(ext...)).WithDefault("png"),
			schema.In("output_dir", "Output Video Directory", schema.Directory(false)),
			schema.In("name", "Output Video Name", schema.Text(false, 255)),
			schema.In("frame_rate", "Frame rate", enumOf(frameRates)).WithDefault("25"),
			schema.In("custom_frame_rate", "Frame rate", schema.Slider(5, 240, schema.Precision(3), schema.Unit("fps"))).
				WithDefault(25.0).
				VisibleWhen("frame_rate", CustomFrameRate),
			schema.In("container", "Video Container", enumOf(containers)).
				WithDefault("mkv").
				WithDocs("Only the video stream is embedded in this file"),
			schema.In("codec", "Video Codec", enumOf(codecs)).
				WithDefault("libx264").
				WithDocs("Video codec"),
			schema.In("preset", "Video Preset", enumOf(presets)).
				WithDefault("medium").
				WithDocs("For more information on presets, see [here](https://trac.ffmpeg.org/wiki/Encode/H.264#Preset).").
				VisibleWhen("codec", qualityCodecs...),
			schema.In("crf", "Quality (CRF)", schema.Slider(0, 51)).
				WithDefault(23).
				WithDocs("For more information on CRF, see [here](https://trac.ffmpeg.org/wiki/Encode/H.264#crf).").
				VisibleWhen("codec", qualityCodecs...),
		},
		Outputs: []domain.Output{
			{Key: "path", Label: "Video", Kind: domain.KindPath},
			{Key: "frames", Label: "Frames", Kind: domain.KindNumber},
			{Key: "duration", Label: "Duration (s)", Kind: domain.KindNumber},
		},
	}
}

// Node returns the registry entry.
func (a *Assembler) Node() registry.Node {
	return registry.Node{Spec: a.Spec(), Run: a.run}
}

func (a *Assembler) run(ctx context.Context, args map[string]any) (map[string]any, error) {
	var p Params
	if err := mapstructure.Decode(args, &p); err != nil {
		return nil, fmt.Errorf("decode video params: %w", err)
	}
	res, err := a.Assemble(ctx, p)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"path":     res.Path,
		"frames":   res.Frames,
		"duration": res.Duration.Seconds(),
	}, nil
}

// CheckPairing reports whether codec can be stored in container.
func CheckPairing(container, codec string) error {
	allowed, ok := pairings[container]
	if !ok || !slices.Contains(allowed, codec) {
		return fmt.Errorf("%w: %w: codec %s cannot be stored in %s", domain.ErrInvalidArguments, domain.ErrUnsupportedPairing, codec, container)
	}
	return nil
}

// CollectFrames returns the files in dir whose extension matches ext
// (case-insensitive), as absolute paths sorted by name.
func CollectFrames(dir, ext string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	want := "." + strings.TrimPrefix(ext, ".")
	var frames []string
	for _, e := range entries {
		if !strings.EqualFold(filepath.Ext(e.Name()), want) {
			continue
		}
		path := filepath.Join(abs, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		frames = append(frames, path)
	}
	slices.Sort(frames)
	return frames, nil
}

// WriteConcatList writes the concat demuxer list for frames to path.
func WriteConcatList(path string, frames []string) error {
	var b strings.Builder
	for _, f := range frames {
		// Single quotes inside a quoted token are written as '\''.
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(f, "'", `'\''`))
		b.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

func (p Params) rate() string {
	if p.FrameRate == CustomFrameRate {
		return strconv.FormatFloat(p.CustomFrameRate, 'f', -1, 64)
	}
	return p.FrameRate
}

// Assemble encodes the frames of p.InputDir into p.OutputDir/p.Name.p.Container.
// The pairing and the frame set are checked before the encoder runs; on
// encoder failure the partial output is removed.
func (a *Assembler) Assemble(ctx context.Context, p Params) (Result, error) {
	if err := CheckPairing(p.Container, p.Codec); err != nil {
		return Result{}, err
	}
	if p.Name == "" || strings.ContainsAny(p.Name, `/\`) {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidArguments,
			schema.Invalid("name", p.Name, "must be a file name without directories"))
	}

	frames, err := CollectFrames(p.InputDir, p.Extension)
	if err != nil {
		return Result{}, err
	}
	switch {
	case len(frames) == 0:
		return Result{}, fmt.Errorf("%w: no .%s files in %s", domain.ErrNoFrames, p.Extension, p.InputDir)
	case len(frames) < a.minFrames:
		return Result{}, fmt.Errorf("%w: found %d, need at least %d", domain.ErrNotEnoughFrames, len(frames), a.minFrames)
	}

	unlock, err := a.locker.Lock(ctx, LockKey, a.lockTTL)
	if err != nil {
		return Result{}, fmt.Errorf("acquire %s lock: %w", LockKey, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("release lock failed", "key", LockKey, "error", err)
		}
	}()

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}
	out, err := filepath.Abs(filepath.Join(p.OutputDir, p.Name+"."+p.Container))
	if err != nil {
		return Result{}, err
	}

	tmp, err := os.MkdirTemp("", "lathe-")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	list := filepath.Join(tmp, "frames.txt")
	if err := WriteConcatList(list, frames); err != nil {
		return Result{}, fmt.Errorf("write concat list: %w", err)
	}

	job := Job{
		ListFile:  list,
		Output:    out,
		FrameRate: p.rate(),
		Codec:     p.Codec,
	}
	if slices.Contains(qualityCodecs, p.Codec) {
		if p.Preset != "" && p.Preset != "none" {
			job.Preset = p.Preset
		}
		job.CRF, job.UseCRF = p.CRF, true
	}

	a.logger.Debug("encoding video", "output", out, "frames", len(frames), "args", job.Args())
	if err := a.encoder.Encode(ctx, job); err != nil {
		if rmErr := os.Remove(out); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			a.logger.Warn("remove partial output failed", "path", out, "error", rmErr)
		}
		var encErr *EncodeError
		if !errors.As(err, &encErr) {
			err = &EncodeError{Err: err}
		}
		return Result{}, err
	}

	res := Result{Path: out, Frames: len(frames)}
	if d, err := a.prober.Duration(ctx, out); err != nil {
		a.logger.Warn("could not get video duration", "path", out, "error", err)
	} else {
		res.Duration = d
	}
	a.logger.Info("video assembled", "path", out, "frames", res.Frames, "duration", res.Duration)
	return res, nil
}
