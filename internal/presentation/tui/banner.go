package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ouvidoria banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   ___            _     _            _", "#34d399"},
		{"  / _ \\ _   ___ _(_) __| | ___  _ __(_) __ _", "#2dd4bf"},
		{" | | | | | | \\ \\ / | |/ _` |/ _ \\| '__| |/ _` |", "#22d3ee"},
		{" | |_| | |_| |\\ V /| | (_| | (_) | |  | | (_| |", "#38bdf8"},
		{"  \\___/ \\__,_| \\_/ |_|\\__,_|\\___/|_|  |_|\\__,_|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  citizen complaint intake "+version).Faint())
	fmt.Fprintln(w)
}
