package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/aretw0/rill/pkg/signaling"
)

// ErrNotRegistered is returned for a source name missing from the allow-list.
var ErrNotRegistered = errors.New("process source not registered")

// ExitError reports a command that exited unsuccessfully.
type ExitError struct {
	Name   string
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("process %s failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("process %s failed: %v. Stderr: %s", e.Name, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner turns allow-listed local commands into line streams.
// Only registered commands can be started.
type Runner struct {
	registry map[string]ProcessConfig
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(sources map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, src := range sources {
			src.Name = name
			r.registry[name] = src
		}
	}
}

// WithBaseDir sets the working directory for started processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ProcessConfig),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ProcessConfig{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Names lists the registered sources.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lines returns a Signal that starts the named command on each subscription and
// emits its stdout line by line. A zero exit completes the stream; any other exit
// fails it with an *ExitError. Disposing the subscription kills the process.
//
// Values in env reach the process as RILL_ARG_<KEY> variables, never as flags.
func (r *Runner) Lines(name string, env map[string]string) signaling.Signal[string] {
	proc, ok := r.registry[name]
	if !ok {
		return signaling.Fail[string](fmt.Errorf("%w: %s", ErrNotRegistered, name))
	}

	return signaling.New(func(o observer.Observer[string], _ *disposable.Node) disposable.Disposable {
		ctx, cancel := context.WithCancel(context.Background())

		cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
		cmd.Dir = r.baseDir
		cmd.Env = append(cmd.Environ(), environ(proc.Environment, env)...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			cancel()
			o.OnError(err)
			return nil
		}
		if err := cmd.Start(); err != nil {
			cancel()
			o.OnError(&ExitError{Name: name, Err: err})
			return nil
		}
		r.logger.Debug("process started", "source", name, "pid", cmd.Process.Pid)

		go func() {
			scanner := bufio.NewScanner(stdout)
			for scanner.Scan() {
				o.OnNext(scanner.Text())
			}
			err := cmd.Wait()
			if ctx.Err() != nil {
				r.logger.Debug("process stopped", "source", name)
				return
			}
			cancel()
			if err != nil {
				o.OnError(&ExitError{Name: name, Err: err, Stderr: strings.TrimSpace(stderr.String())})
				return
			}
			o.OnComplete()
		}()

		return disposable.Func(cancel)
	})
}

func environ(fixed, args map[string]string) []string {
	env := make([]string, 0, len(fixed)+len(args))
	for k, v := range fixed {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		env = append(env, fmt.Sprintf("RILL_ARG_%s=%s", strings.ToUpper(k), v))
	}
	return env
}
