package batch

import (
	"context"

	"github.com/kbukum/gobatch/httpclient"
)

// Reply is the raw outcome of the batch call.
type Reply struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Sender performs the single outbound call. Authentication and connection
// handling are its concern.
type Sender interface {
	Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Reply, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Reply, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Reply, error) {
	return f(ctx, method, url, headers, body)
}

// HTTPSender sends through an httpclient.Adapter.
type HTTPSender struct {
	adapter *httpclient.Adapter
}

// NewHTTPSender creates a Sender on a.
func NewHTTPSender(a *httpclient.Adapter) *HTTPSender {
	return &HTTPSender{adapter: a}
}

// Send issues the request. For a non-2xx reply both the reply and the
// adapter's classified error are returned.
func (s *HTTPSender) Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Reply, error) {
	resp, err := s.adapter.Do(ctx, httpclient.Request{
		Method:  method,
		Path:    url,
		Headers: headers,
		Body:    body,
	})
	if resp == nil {
		return nil, err
	}
	return &Reply{Status: resp.StatusCode, Headers: resp.Headers, Body: resp.Body}, err
}
