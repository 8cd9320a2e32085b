package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = 2 * time.Second

// ErrNotRegistered is returned when running a name missing from the allow-list.
var ErrNotRegistered = errors.New("process not registered")

// Runner executes local processes.
// It follows a Strict Registry pattern (Allow-Listing): only registered
// names can be run, and arguments are always passed as argv, never through a shell.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
	env      []string
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string // Prepended to every call
}

// Result holds the captured output of a successful run.
type Result struct {
	Stdout string
	Stderr string
}

// RunError is returned when the process cannot start or exits non-zero.
type RunError struct {
	Name     string
	ExitCode int // -1 when the process did not start or was killed
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, lastLine(msg))
}

func (e *RunError) Unwrap() error { return e.Err }

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Registered reports whether name is on the allow-list.
func (r *Runner) Registered(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// Run executes the registered process with extra args and waits for it.
// Cancelling ctx kills the process.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	proc, ok := r.registry[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	argv := append(append([]string{}, proc.Args...), args...)
	cmd := exec.CommandContext(ctx, proc.Command, argv...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = waitDelay
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return res, &RunError{Name: name, ExitCode: code, Stderr: res.Stderr, Err: err}
	}
	return res, nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
