package runner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// lineReader pumps lines from r in the background so reads can be abandoned
// when the context is cancelled.
type lineReader struct {
	reader *bufio.Reader
	lines  chan lineResult
	once   sync.Once
}

type lineResult struct {
	text string
	err  error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		reader: bufio.NewReader(r),
		lines:  make(chan lineResult),
	}
}

func (l *lineReader) pump() {
	for {
		text, err := l.reader.ReadString('\n')
		if text != "" {
			l.lines <- lineResult{text: strings.TrimRight(text, "\r\n")}
		}
		if err != nil {
			l.lines <- lineResult{err: err}
			close(l.lines)
			return
		}
	}
}

// ReadLine returns the next line without its terminator.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(func() { go l.pump() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}
