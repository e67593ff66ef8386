package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Printer writes stream events for humans or, in JSON mode, one object per line.
// Colours are used only when the writer is a terminal.
type Printer struct {
	w      io.Writer
	out    *termenv.Output
	tty    bool
	json   bool
	render func(string) (string, error)

	mu sync.Mutex
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithJSON prints events as JSON lines.
func WithJSON(enabled bool) PrinterOption {
	return func(p *Printer) {
		p.json = enabled
	}
}

// WithMarkdown renders event values with render before printing them.
func WithMarkdown(render func(string) (string, error)) PrinterOption {
	return func(p *Printer) {
		p.render = render
	}
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{w: w}
	if f, ok := w.(*os.File); ok {
		p.tty = term.IsTerminal(int(f.Fd()))
	}
	profile := termenv.Ascii
	if p.tty {
		profile = termenv.EnvColorProfile()
	}
	p.out = termenv.NewOutput(w, termenv.WithProfile(profile))
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsTerminal reports whether the printer writes to a terminal.
func (p *Printer) IsTerminal() bool {
	return p.tty
}

type jsonLine struct {
	Topic string `json:"topic"`
	domain.Event[string]
}

// Event prints one event of topic.
func (p *Printer) Event(topic string, ev domain.Event[string]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		data, err := json.Marshal(jsonLine{Topic: topic, Event: ev})
		if err != nil {
			return
		}
		fmt.Fprintf(p.w, "%s\n", data)
		return
	}

	stamp := p.out.String(ev.Timestamp.Format(time.TimeOnly)).Faint()
	name := p.out.String(topic).Bold().Foreground(p.out.Color("#38bdf8"))
	switch ev.Kind {
	case domain.EventNext:
		value := ev.Value
		if p.render != nil {
			if rendered, err := p.render(value); err == nil {
				value = strings.TrimRight(rendered, "\n")
			}
		}
		fmt.Fprintf(p.w, "%s %s > %s\n", stamp, name, value)
	case domain.EventComplete:
		fmt.Fprintf(p.w, "%s %s %s\n", stamp, name, p.out.String("completed").Foreground(p.out.Color("#4ade80")))
	case domain.EventError:
		fmt.Fprintf(p.w, "%s %s %s\n", stamp, name, p.out.String("error: "+ev.Err).Foreground(p.out.Color("#f87171")))
	}
}

// System prints a standardized system message.
func (p *Printer) System(format string, args ...any) {
	if p.json {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// Observer returns an observer printing every event of topic.
func (p *Printer) Observer(topic string) observer.Observer[string] {
	return &observer.Agent[string]{
		Next: func(v string) {
			p.Event(topic, domain.Event[string]{Timestamp: time.Now(), Kind: domain.EventNext, Value: v})
		},
		Error: func(err error) {
			p.Event(topic, domain.Event[string]{Timestamp: time.Now(), Kind: domain.EventError, Err: err.Error()})
		},
		Complete: func() {
			p.Event(topic, domain.Event[string]{Timestamp: time.Now(), Kind: domain.EventComplete})
		},
	}
}
