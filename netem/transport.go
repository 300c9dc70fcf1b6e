package netem

import (
	"net/http"
	"sync"
)

// Transport applies the emulation to the body of every response.
type Transport struct {
	// Underlying round tripper, http.DefaultTransport if nil
	Base http.RoundTripper
	// Returns the emulation config for the nth request, starting at 1
	Config func(n int) Config

	requests int
	mu       sync.Mutex
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.requests++
	n := t.requests
	t.mu.Unlock()
	if t.Config != nil {
		resp.Body = NewReadCloser(resp.Body, t.Config(n))
	}
	return resp, nil
}
