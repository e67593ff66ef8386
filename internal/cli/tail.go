package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/rill/internal/config"
	"github.com/aretw0/rill/pkg/adapters/process"
	"github.com/aretw0/rill/pkg/signaling"
)

// ParseArgs turns key=value pairs into a process argument map.
func ParseArgs(pairs []string) (map[string]string, error) {
	args := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		args[k] = v
	}
	return args, nil
}

// NewProcessRunner loads the configured sources file into a Runner.
func NewProcessRunner(cfg config.ProcessConfig, logger *slog.Logger) (*process.Runner, error) {
	sources, err := process.LoadSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	return process.NewRunner(
		process.WithRegistry(sources),
		process.WithBaseDir(cfg.Dir),
		process.WithLogger(logger),
	), nil
}

// Tail prints the output of a registered process until it exits or ctx is done.
// The lines pass through a hub named after the source so hub hooks observe them.
func Tail(ctx context.Context, runner *process.Runner, name string, args map[string]string, p *Printer) error {
	hub := signaling.NewSignaling[string](signaling.WithName(name))
	defer hub.Dispose()

	done := make(chan error, 1)
	out := p.Observer(name)
	hub.Signal().ToFuncs(
		out.OnNext,
		func(err error) {
			out.OnError(err)
			done <- err
		},
		func() {
			out.OnComplete()
			done <- nil
		},
	)

	sub := runner.Lines(name, args).To(hub)
	defer sub.Dispose()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}
