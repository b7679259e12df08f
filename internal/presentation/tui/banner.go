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
	{" _                  _      _ _ ", "#34d399"},
	{"| |_ ___ _ __   __| |_ __(_) |", "#10b981"},
	{"| __/ _ \\ '_ \\ / _` | '__| | |", "#059669"},
	{"| ||  __/ | | | (_| | |  | | |", "#047857"},
	{" \\__\\___|_| |_|\\__,_|_|  |_|_|", "#065f46"},
}

// PrintBanner writes the tendril banner followed by version. Colors follow
// the terminal profile of w and are dropped when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).Profile
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
