package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/pkg/value"
)

const textHelp = `Commands:
  <formula>                 evaluate a formula, e.g. {name: add, arguments: [1, 2]}
  :render                   render every attribute binding
  :trigger <event> [json]   fire an event with an optional JSON payload
  :trigger! <event> [json]  same, aborting the previous run from this console
  :teardown                 drop session variables and pending effects
  :help                     show this help
  :quit                     leave`

// TextHandler implements the line-oriented console.
type TextHandler struct {
	Writer io.Writer
	Prompt string

	lines  *lineReader
	parser *compiler.Parser
	mu     sync.Mutex
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithPrompt sets the prompt printed before each read. Empty disables it.
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		Prompt: "> ",
		lines:  newLineReader(r),
		parser: compiler.NewParser(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Input(ctx context.Context) (Command, error) {
	for {
		if h.Prompt != "" {
			h.write(h.Prompt)
		}
		line, err := h.lines.ReadLine(ctx)
		if err != nil {
			return Command{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := h.parse(line)
		if err != nil {
			return Command{}, &CommandError{Input: line, Err: err}
		}
		return cmd, nil
	}
}

func (h *TextHandler) parse(line string) (Command, error) {
	line, err := SanitizeInput(line)
	if err != nil {
		return Command{}, err
	}
	if !strings.HasPrefix(line, ":") {
		f, err := h.parser.ParseFormula([]byte(line))
		if err != nil {
			return Command{}, err
		}
		return Command{Op: OpEval, Formula: f}, nil
	}

	word, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch word {
	case "render", "r":
		return Command{Op: OpRender}, nil
	case "trigger", "t", "trigger!", "t!":
		event, payload, _ := strings.Cut(rest, " ")
		if event == "" {
			return Command{}, errors.New("usage: :trigger <event> [json]")
		}
		cmd := Command{Op: OpTrigger, Event: event, Supersede: strings.HasSuffix(word, "!")}
		if payload = strings.TrimSpace(payload); payload != "" {
			v, err := value.Decode(payload, value.DecodeOptions{})
			if err != nil {
				return Command{}, fmt.Errorf("payload: %w", err)
			}
			cmd.Payload = v
		}
		return cmd, nil
	case "teardown", "reset":
		return Command{Op: OpTeardown}, nil
	case "help", "h", "?":
		return Command{Op: OpHelp}, nil
	case "quit", "q", "exit":
		return Command{Op: OpQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command :%s (try :help)", word)
}

func (h *TextHandler) Output(ctx context.Context, res Result) error {
	var b strings.Builder
	switch {
	case res.Err != nil:
		fmt.Fprintf(&b, "error: %v\n", res.Err)
	case res.Op == OpEval:
		fmt.Fprintln(&b, encode(res.Value))
	case res.Op == OpRender:
		names := make([]string, 0, len(res.Render.Attributes))
		for name := range res.Render.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "%s = %s\n", name, encode(res.Render.Attributes[name]))
			if err := res.Render.Errors[name]; err != nil {
				fmt.Fprintf(&b, "  ! %v\n", err)
			}
		}
	case res.Op == OpTrigger:
		fmt.Fprintf(&b, "run %s %s", res.Run.ID, res.Run.Status)
		if res.Run.Err != nil {
			fmt.Fprintf(&b, ": %v", res.Run.Err)
		}
		b.WriteString("\n")
	case res.Op == OpTeardown:
		if value.IsTruthy(res.Value) {
			b.WriteString("session reset\n")
		} else {
			b.WriteString("no active session\n")
		}
	case res.Op == OpHelp:
		b.WriteString(textHelp + "\n")
	}
	return h.write(b.String())
}

func (h *TextHandler) Event(ctx context.Context, component, event string, payload value.Value) error {
	return h.write(fmt.Sprintf("event %s %s\n", event, encode(payload)))
}

func (h *TextHandler) write(s string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.Writer, s)
	return err
}

func encode(v value.Value) string {
	text, err := value.Encode(v, 0)
	if err != nil {
		return value.ToString(v)
	}
	return text
}
