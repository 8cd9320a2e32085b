package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/lathe/internal/logging"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sc.sigCh)
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger configures the application logger on stderr. Debug forces the
// debug level; quiet discards everything.
func NewLogger(level string, debug, quiet bool) *slog.Logger {
	switch {
	case quiet:
		return logging.NewNop()
	case debug:
		return logging.New(slog.LevelDebug)
	default:
		return logging.New(logging.ParseLevel(level))
	}
}

// ParseAssignments splits "key=value" pairs. Values are decoded as JSON
// scalars when possible ("3" is a number, "true" a bool) and kept as
// strings otherwise.
func ParseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", pair)
		}
		out[key] = ParseValue(value)
	}
	return out, nil
}

// ParseValue decodes s as a JSON number or bool, falling back to the raw string.
func ParseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case float64, bool:
			return v
		}
	}
	return s
}

// ParsePaths splits "key=path" pairs without decoding the values.
func ParsePaths(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, path, ok := strings.Cut(pair, "=")
		if !ok || key == "" || path == "" {
			return nil, fmt.Errorf("invalid output %q, want key=path", pair)
		}
		out[key] = path
	}
	return out, nil
}
