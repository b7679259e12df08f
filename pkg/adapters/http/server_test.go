package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
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
  greeting:
    name: concatenate
    arguments: ["hi ", {path: Attributes.who}]
  broken:
    name: nope
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

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	eng, err := tendril.New("", tendril.WithLoader(memory.NewLoader(map[string]string{
		"counter": counterYAML,
	})))
	require.NoError(t, err)
	_, err = eng.LoadAll(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealthAndInfo(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "tendril-http", info["app"])
	assert.Equal(t, tendril.Version, info["version"])
}

func TestListComponentsAndGraph(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/components")
	require.NoError(t, err)
	var list map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, []string{"counter"}, list["components"])

	resp, err = http.Get(srv.URL + "/components/counter/graph")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "graph TD"))
	assert.Contains(t, string(body), "ev_click")

	resp, err = http.Get(srv.URL + "/components/missing/graph")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRender(t *testing.T) {
	srv := newTestServer(t)

	resp, out := postJSON(t, srv.URL+"/components/counter/render", map[string]any{
		"attributes": map[string]any{"who": "ada"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	attrs := out["attributes"].(map[string]any)
	assert.Equal(t, "n=0", attrs["label"])
	assert.Equal(t, "hi ada", attrs["greeting"])
	assert.Nil(t, attrs["broken"])

	errs := out["errors"].(map[string]any)
	assert.Contains(t, errs["broken"], "nope")
	assert.NotContains(t, errs, "label")
}

func TestRender_Errors(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/components/missing/render", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err := http.Post(srv.URL+"/components/counter/render", "application/json", strings.NewReader(`{"bogus": 1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrigger_SessionState(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/components/counter/events/click"

	for i := 0; i < 2; i++ {
		resp, out := postJSON(t, url, map[string]any{
			"session_id": "s1",
			"payload":    map[string]any{"step": 5},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "completed", out["status"])
		assert.NotEmpty(t, out["run_id"])

		emitted := out["emitted"].([]any)
		require.Len(t, emitted, 1)
		assert.Equal(t, "changed", emitted[0].(map[string]any)["event"])
		assert.EqualValues(t, 5*(i+1), emitted[0].(map[string]any)["payload"])
	}

	_, out := postJSON(t, srv.URL+"/components/counter/render", map[string]any{"session_id": "s1"})
	assert.Equal(t, "n=10", out["attributes"].(map[string]any)["label"])

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/s1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var torn map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&torn))
	resp.Body.Close()
	assert.True(t, torn["torn_down"])

	_, out = postJSON(t, srv.URL+"/components/counter/render", map[string]any{"session_id": "s1"})
	assert.Equal(t, "n=0", out["attributes"].(map[string]any)["label"])
}

func TestTrigger_UnknownEvent(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/components/counter/events/nope", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// readEvent reads one SSE frame and returns its event name and data line.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" || data != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func subscribe(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	event, data := readEvent(t, r)
	require.Equal(t, "ping", event)
	require.Equal(t, "connected", data)
	return r
}

func TestSubscribeEvents(t *testing.T) {
	srv := newTestServer(t)
	stream := subscribe(t, srv.URL+"/sessions/s1/events")

	resp, _ := postJSON(t, srv.URL+"/components/counter/events/click", map[string]any{
		"session_id": "s1",
		"payload":    map[string]any{"step": 2},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	event, data := readEvent(t, stream)
	assert.Equal(t, "changed", event)
	assert.JSONEq(t, `{"component":"counter","payload":2}`, data)
}

func TestSubscribeEvents_DelayedAndFiltered(t *testing.T) {
	srv := newTestServer(t)
	stream := subscribe(t, srv.URL+"/sessions/s2/events?events=done")

	_, _ = postJSON(t, srv.URL+"/components/counter/events/click", map[string]any{
		"session_id": "s2",
		"payload":    map[string]any{"step": 1},
	})
	resp, out := postJSON(t, srv.URL+"/components/counter/events/later", map[string]any{"session_id": "s2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out["emitted"])

	// "changed" is filtered out; the first frame is the delayed "done".
	event, data := readEvent(t, stream)
	assert.Equal(t, "done", event)
	assert.JSONEq(t, `{"component":"counter","payload":"late"}`, data)
}

func TestCORSAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "# metrics")
	})
	srv := newTestServer(t, WithCORS(true), WithMetrics(metrics))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/components", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "# metrics", string(body))
}
