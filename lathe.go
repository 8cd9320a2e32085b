package lathe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/lathe/internal/config"
	"github.com/aretw0/lathe/internal/logging"
	"github.com/aretw0/lathe/pkg/adapters/memory"
	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/nodes"
	"github.com/aretw0/lathe/pkg/nodes/textimage"
	"github.com/aretw0/lathe/pkg/nodes/video"
	"github.com/aretw0/lathe/pkg/ports"
	"github.com/aretw0/lathe/pkg/registry"
	"github.com/google/uuid"
)

// Version is the lathe release.
const Version = "0.3.0"

// Engine is the high-level entry point of the lathe library.
// It holds the node registry and runs one node per call.
type Engine struct {
	registry *registry.Registry
	cfg      *config.Config
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	locker   ports.DistributedLocker
	encoder  video.Encoder
	prober   video.Prober
	fonts    *textimage.FontSet
	extra    []registry.Node
}

var _ ports.NodeEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
// Calling it more than once chains the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConfig replaces the settings otherwise defaulted by config.Default.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLocker sets the lock that serialises video assembly.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithEncoder replaces the ffmpeg video encoder.
func WithEncoder(enc video.Encoder) Option {
	return func(e *Engine) {
		e.encoder = enc
	}
}

// WithProber replaces the ffprobe duration prober.
func WithProber(p video.Prober) Option {
	return func(e *Engine) {
		e.prober = p
	}
}

// WithFonts replaces the font set loaded from the configured font directory.
func WithFonts(fonts *textimage.FontSet) Option {
	return func(e *Engine) {
		e.fonts = fonts
	}
}

// WithNode registers an additional node next to the built-in ones.
func WithNode(n registry.Node) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, n)
	}
}

// New initializes an Engine with the four built-in nodes.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{registry: registry.NewRegistry()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.cfg == nil {
		eng.cfg = config.Default()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.locker == nil {
		eng.locker = memory.NewLocker()
	}
	if eng.encoder == nil {
		eng.encoder = video.NewFFmpeg(eng.cfg.FFmpegPath)
	}
	if eng.prober == nil {
		eng.prober = video.NewFFprobe(eng.cfg.FFprobePath)
	}
	if eng.fonts == nil {
		fonts, err := textimage.NewFontSet(eng.cfg.FontDir)
		if err != nil {
			return nil, fmt.Errorf("load fonts: %w", err)
		}
		eng.fonts = fonts
	}

	err := nodes.Register(eng.registry, nodes.Options{
		Fonts:         eng.fonts,
		MaxTextSize:   eng.cfg.MaxTextSize,
		MaxCanvasSize: eng.cfg.MaxCanvasSize,
		Video: []video.Option{
			video.WithEncoder(eng.encoder),
			video.WithProber(eng.prober),
			video.WithLocker(eng.locker),
			video.WithLogger(eng.logger.With("node", video.ID)),
			video.WithMinFrames(eng.cfg.VideoMinFrames),
			video.WithLockTTL(eng.cfg.LockTTL),
		},
	})
	if err != nil {
		return nil, err
	}
	for _, n := range eng.extra {
		if err := eng.registry.Register(n); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// Inspect returns every node declaration, sorted by ID.
func (e *Engine) Inspect() []domain.NodeSpec {
	return e.registry.List()
}

// Spec returns the declaration of node id.
func (e *Engine) Spec(id string) (domain.NodeSpec, error) {
	n, err := e.registry.Get(id)
	if err != nil {
		return domain.NodeSpec{}, err
	}
	return n.Spec, nil
}

// Config returns the settings the engine was built with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Execute runs one node call. Calls without an ID are given a UUID.
// The returned result mirrors the error (IsError/Error) so hosts can
// serialise it either way.
func (e *Engine) Execute(ctx context.Context, call domain.NodeCall) (domain.NodeResult, error) {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	log := e.logger.With("node", call.NodeID, "call_id", call.ID)

	if e.hooks.OnNodeStart != nil {
		e.hooks.OnNodeStart(domain.NodeEvent{CallID: call.ID, NodeID: call.NodeID})
	}
	log.Debug("node started")

	start := time.Now()
	outputs, err := e.registry.Execute(ctx, call.NodeID, call.Args)
	res := domain.NodeResult{
		ID:       call.ID,
		NodeID:   call.NodeID,
		Outputs:  outputs,
		Duration: time.Since(start),
	}
	if err != nil {
		res.IsError = true
		res.Error = err.Error()
		log.Error("node failed", "error", err, "duration", res.Duration)
	} else {
		log.Debug("node finished", "duration", res.Duration)
	}

	if e.hooks.OnNodeFinish != nil {
		e.hooks.OnNodeFinish(domain.NodeEvent{CallID: call.ID, NodeID: call.NodeID, Duration: res.Duration, Err: err})
	}
	return res, err
}
