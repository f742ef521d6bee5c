package transports

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const persistedKey = "_persisted"

// HTTPTransport implements CounterTransport and Watcher over the REST gateway.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport targets baseURL (e.g. http://127.0.0.1:8080). A nil
// client uses http.DefaultClient.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Get reads the counters with GET /counter.
func (t *HTTPTransport) Get(ctx context.Context) (Counters, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/counter", nil)
	if err != nil {
		return Counters{}, err
	}
	return t.doCounters(req)
}

// Apply posts {"key","delta"} to /counter.
func (t *HTTPTransport) Apply(ctx context.Context, key string, delta int64) (Counters, error) {
	body, _ := json.Marshal(map[string]any{"key": key, "delta": delta})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/counter", bytes.NewReader(body))
	if err != nil {
		return Counters{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return t.doCounters(req)
}

func (t *HTTPTransport) doCounters(req *http.Request) (Counters, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return Counters{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return Counters{}, apiError(resp)
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Counters{}, fmt.Errorf("decode response: %w", err)
	}
	out := Counters{Values: map[string]int64{}, Persisted: true}
	for k, v := range raw {
		if k == persistedKey {
			_ = json.Unmarshal(v, &out.Persisted)
			continue
		}
		var n int64
		if err := json.Unmarshal(v, &n); err != nil {
			return Counters{}, fmt.Errorf("decode %s: %w", k, err)
		}
		out.Values[k] = n
	}
	return out, nil
}

// Watch reads the SSE stream at /counter/watch until ctx ends, the server
// closes the stream or onEvent returns an error.
func (t *HTTPTransport) Watch(ctx context.Context, filter string, onEvent func(Event) error) error {
	u := t.baseURL + "/counter/watch"
	if filter != "" {
		u += "?filter=" + url.QueryEscape(filter)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := onEvent(e); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return err
	}
	return nil
}

func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}
