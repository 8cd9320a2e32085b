package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the lathe ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{`  _       _   _          `, "#818cf8"},
		{` | | __ _| |_| |__   ___ `, "#a78bfa"},
		{` | |/ _' | __| '_ \ / _ \`, "#c084fc"},
		{` | | (_| | |_| | | |  __/`, "#e879f9"},
		{` |_|\__,_|\__|_| |_|\___|`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
