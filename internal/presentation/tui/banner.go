package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the rill banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"       _ _ _ ", "#38bdf8"},
		{"  _ __(_) | |", "#22d3ee"},
		{" | '__| | | |", "#2dd4bf"},
		{" | |  | | | |", "#34d399"},
		{" |_|  |_|_|_|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String(" v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
