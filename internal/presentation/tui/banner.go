package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  ___                  _   ___          _ _         `, "#34d399"},
	{` / _ \ _  _ ___ ___| |_/ __| __ _ _(_) |__  ___ `, "#2dd4bf"},
	{`| (_) | || / -_|_-<|  _\__ \/ _| '_| | '_ \/ -_)`, "#22d3ee"},
	{` \__\_\\_,_\___/__/ \__|___/\__|_| |_|_.__/\___|`, "#38bdf8"},
}

// PrintBanner writes the colored QuestScribe banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
