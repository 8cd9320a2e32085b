// Package config loads lathe settings from the environment and argument
// presets from a YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings.
type Config struct {
	LogLevel string `env:"LATHE_LOG_LEVEL" envDefault:"info"`
	FontDir  string `env:"LATHE_FONT_DIR"`

	FFmpegPath     string        `env:"STATIC_FFMPEG_PATH"     envDefault:"ffmpeg"`
	FFprobePath    string        `env:"STATIC_FFPROBE_PATH"    envDefault:"ffprobe"`
	VideoMinFrames int           `env:"LATHE_VIDEO_MIN_FRAMES" envDefault:"5"`
	LockTTL        time.Duration `env:"LATHE_LOCK_TTL"         envDefault:"1h"`

	// Empty RedisAddr means locks are held in-process.
	RedisAddr     string `env:"LATHE_REDIS_ADDR"`
	RedisPassword string `env:"LATHE_REDIS_PASSWORD"`
	RedisDB       int    `env:"LATHE_REDIS_DB"     envDefault:"0"`
	RedisPrefix   string `env:"LATHE_REDIS_PREFIX" envDefault:"lathe:"`

	MaxTextSize   int    `env:"LATHE_MAX_TEXT_SIZE"   envDefault:"4096"`
	MaxCanvasSize int    `env:"LATHE_MAX_CANVAS_SIZE" envDefault:"16384"`
	PresetsFile   string `env:"LATHE_PRESETS"         envDefault:"lathe.yaml"`
	HTTPAddr      string `env:"LATHE_HTTP_ADDR"       envDefault:":8080"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFrom parses the given environment instead of the process one.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.validate()
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	cfg, _ := LoadFrom(map[string]string{})
	return cfg
}

func (c *Config) validate() error {
	if c.VideoMinFrames < 1 {
		return fmt.Errorf("LATHE_VIDEO_MIN_FRAMES must be >= 1, got %d", c.VideoMinFrames)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LATHE_LOCK_TTL must be positive, got %s", c.LockTTL)
	}
	if c.MaxTextSize < 1 {
		return fmt.Errorf("LATHE_MAX_TEXT_SIZE must be >= 1, got %d", c.MaxTextSize)
	}
	if c.MaxCanvasSize < 1 {
		return fmt.Errorf("LATHE_MAX_CANVAS_SIZE must be >= 1, got %d", c.MaxCanvasSize)
	}
	return nil
}
