package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterYAML = `
variables:
  count:
    initialValue: 0
attributes:
  label:
    name: concatenate
    arguments: ["n=", {name: string, arguments: [{path: Variables.count}]}]
events:
  click:
    - type: setVariable
      variable: count
      data: {name: add, arguments: [{path: Variables.count}, {path: Event.step}]}
    - type: triggerEvent
      event: changed
      data: {path: Variables.count}
  later:
    - name: "@tendril/sleep"
      arguments: [10]
      events:
        tick:
          - {type: triggerEvent, event: done, data: "late"}
`

func newEngine(t *testing.T) *tendril.Engine {
	t.Helper()
	eng, err := tendril.New("", tendril.WithLoader(memory.NewLoader(map[string]string{
		"counter": counterYAML,
	})))
	require.NoError(t, err)
	return eng
}

// syncBuffer is written by delayed effects while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunner_Text(t *testing.T) {
	eng := newEngine(t)
	input := strings.Join([]string{
		"{name: add, arguments: [1, 2]}",
		"",
		`:trigger click {"step": 5}`,
		":render",
		":trigger nope",
		":bogus",
		":teardown",
		":render",
		":quit",
		"{name: add, arguments: [9, 9]}",
	}, "\n")
	var out bytes.Buffer

	r := New(eng, NewTextHandler(strings.NewReader(input), &out, WithPrompt("")), "counter")
	require.NoError(t, r.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8, out.String())
	assert.Equal(t, "3", lines[0])
	assert.Equal(t, "event changed 5", lines[1])
	assert.Regexp(t, `^run \S+ completed$`, lines[2])
	assert.Equal(t, `label = "n=5"`, lines[3])
	assert.Contains(t, lines[4], "error: ")
	assert.Contains(t, lines[4], "nope")
	assert.Equal(t, "error: invalid command: unknown command :bogus (try :help)", lines[5])
	assert.Equal(t, "session reset", lines[6])
	assert.Equal(t, `label = "n=0"`, lines[7], "nothing after :quit runs")
	assert.Zero(t, eng.ActiveSessions())
}

func TestRunner_TextHelpAndPrompt(t *testing.T) {
	var out bytes.Buffer
	r := New(newEngine(t), NewTextHandler(strings.NewReader(":help\n"), &out), "counter")
	require.NoError(t, r.Run(context.Background()))

	assert.True(t, strings.HasPrefix(out.String(), "> Commands:"), out.String())
	assert.Contains(t, out.String(), ":trigger <event> [json]")
}

func TestRunner_JSON(t *testing.T) {
	input := strings.Join([]string{
		`{"op":"eval","formula":{"name":"uppercase","arguments":["ada"]}}`,
		`{"op":"trigger","event":"click","payload":{"step":2}}`,
		`{"op":"render"}`,
		`{"op":"launch"}`,
		`not json`,
		`{"op":"eval"}`,
	}, "\n")
	var out bytes.Buffer

	r := New(newEngine(t), NewJSONHandler(strings.NewReader(input), &out), "counter", WithSessionID("s1"))
	require.NoError(t, r.Run(context.Background()))

	var got []Response
	dec := json.NewDecoder(&out)
	for {
		var resp Response
		if err := dec.Decode(&resp); err == io.EOF {
			break
		} else {
			require.NoError(t, err)
		}
		got = append(got, resp)
	}
	require.Len(t, got, 7)

	assert.Equal(t, "result", got[0].Type)
	require.NotNil(t, got[0].Value)
	assert.Equal(t, "ADA", value.ToString(*got[0].Value))

	assert.Equal(t, "event", got[1].Type)
	assert.Equal(t, "changed", got[1].Event)
	assert.Equal(t, "counter", got[1].Component)
	assert.Equal(t, "2", value.ToString(*got[1].Payload))

	assert.Equal(t, OpTrigger, got[2].Op)
	assert.Equal(t, "completed", string(got[2].Status))
	assert.NotEmpty(t, got[2].RunID)

	assert.Equal(t, "n=2", value.ToString(got[3].Attributes["label"]))

	assert.Contains(t, got[4].Error, `unknown op "launch"`)
	assert.Contains(t, got[5].Error, "malformed request")
	assert.Contains(t, got[6].Error, "eval requires a formula")
}

func TestRunner_DelayedEvents(t *testing.T) {
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	r := New(newEngine(t), NewJSONHandler(pr, out), "counter")

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	_, err := io.WriteString(pw, `{"op":"trigger","event":"later"}`+"\n")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"event":"done","payload":"late"`)
	}, time.Second, 5*time.Millisecond, "delayed effect outlives the trigger command")

	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
}

func TestRunner_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- New(newEngine(t), NewTextHandler(pr, io.Discard), "counter").Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}
