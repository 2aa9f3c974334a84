package client

import (
	"net/http"
	"time"
)

// NewHTTPClient creates an http.Client for outbound calls with request ID
// propagation and a hard timeout. http.DefaultClient has zero timeouts,
// which can hang request goroutines indefinitely.
func NewHTTPClient(timeout time.Duration) *http.Client {
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	transport := NewRequestIDTransport(baseTransport)

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
