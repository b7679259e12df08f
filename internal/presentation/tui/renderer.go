package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// IsTerminal reports whether w writes to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown for terminals using
// glamour, wrapping at width columns.
func NewRenderer(width int) (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// WriteMarkdown renders markdown with glamour when w is a terminal and
// writes it verbatim otherwise.
func WriteMarkdown(w io.Writer, markdown string) error {
	if IsTerminal(w) {
		width := 80
		if f, ok := w.(*os.File); ok {
			if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
				width = cols
			}
		}
		render, err := NewRenderer(width)
		if err != nil {
			return err
		}
		out, err := render(markdown)
		if err != nil {
			return err
		}
		markdown = out
	}
	_, err := io.WriteString(w, markdown)
	return err
}
