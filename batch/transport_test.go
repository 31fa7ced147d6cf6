package batch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/errors"
	"github.com/kbukum/gobatch/httpclient"
)

type sentRequest struct {
	method  string
	url     string
	headers map[string]string
	body    []byte
}

// replySender answers every call with a fixed reply and remembers the request.
type replySender struct {
	mu    sync.Mutex
	calls []sentRequest
	reply *Reply
	err   error
}

func (s *replySender) Send(_ context.Context, method, url string, headers map[string]string, body []byte) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sentRequest{method: method, url: url, headers: headers, body: body})
	return s.reply, s.err
}

func TestTransport_ElementScenario(t *testing.T) {
	sender := &replySender{reply: &Reply{Status: http.StatusMultiStatus, Body: []byte(elementReply)}}
	tr := NewTransport(sender, WithURL("https://pi/piwebapi/batch"), WithHeaders(map[string]string{"X-Requested-With": "XmlHttpRequest"}))

	res, err := tr.Submit(context.Background(), elementGraph(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(sender.calls))
	}
	call := sender.calls[0]
	if call.method != http.MethodPost || call.url != "https://pi/piwebapi/batch" {
		t.Errorf("unexpected call %s %s", call.method, call.url)
	}
	if call.headers["X-Requested-With"] != "XmlHttpRequest" || call.headers["Content-Type"] != "application/json" {
		t.Errorf("missing default headers: %v", call.headers)
	}
	if call.headers[HeaderRequestID] == "" || call.headers[HeaderRequestID] != res.ID {
		t.Errorf("request id %q should match batch id %q", call.headers[HeaderRequestID], res.ID)
	}

	if res.Status != http.StatusMultiStatus {
		t.Errorf("expected outer 207, got %d", res.Status)
	}
	for id, status := range map[dag.NodeID]int{"1": 200, "2": 200, "3": 202} {
		if r, _ := res.Result(id); r == nil || r.Status() != status {
			t.Errorf("node %s: expected %d, got %v", id, status, r)
		}
	}
	if !res.AllSucceeded() {
		t.Errorf("all nodes succeeded, got unsuccessful %v", res.Unsuccessful())
	}
}

func TestTransport_MissingNode(t *testing.T) {
	sender := &replySender{reply: &Reply{Status: http.StatusOK, Body: []byte(`{
		"1": {"Status": 200, "Headers": {}, "Content": {"WebId": "abc"}},
		"2": {"Status": 200, "Headers": {}, "Content": {"Value": 42}}
	}`)}}
	res, err := NewTransport(sender).Submit(context.Background(), elementGraph(t))
	if res != nil {
		t.Error("no partial result on failure")
	}
	if !errors.HasCode(err, errors.ErrCodeMissingNodeResult) {
		t.Fatalf("expected MISSING_NODE_RESULT, got %v", err)
	}
}

func TestTransport_TransportErrors(t *testing.T) {
	tests := []struct {
		name   string
		sender Sender
	}{
		{"connection failure", &replySender{err: stderrors.New("connection refused")}},
		{"non-2xx outer status", &replySender{reply: &Reply{Status: http.StatusUnauthorized, Body: []byte("denied")}}},
		{"no reply", &replySender{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewTransport(tt.sender).Submit(context.Background(), elementGraph(t))
			if res != nil {
				t.Error("no partial result on failure")
			}
			if !errors.HasCode(err, errors.ErrCodeTransport) {
				t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
			}
		})
	}
}

func TestTransport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := &replySender{reply: &Reply{Status: 207, Body: []byte(elementReply)}}

	_, err := NewTransport(sender).Submit(ctx, elementGraph(t))
	if !errors.HasCode(err, errors.ErrCodeTransport) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("cause should be context.Canceled, got %v", err)
	}
	if len(sender.calls) != 0 {
		t.Error("nothing may be sent on a done context")
	}
}

func TestTransport_PartialNodeFailuresAreData(t *testing.T) {
	sender := &replySender{reply: &Reply{Status: 207, Body: []byte(`{
		"1": {"Status": 404, "Headers": {}, "Content": {"Errors": ["not found"]}},
		"2": {"Status": 409, "Headers": {}, "Content": {}},
		"3": {"Status": 409, "Headers": {}, "Content": {}}
	}`)}}
	res, err := NewTransport(sender).Submit(context.Background(), elementGraph(t))
	if err != nil {
		t.Fatalf("node failures must not fail Submit: %v", err)
	}
	if got := res.Unsuccessful(); len(got) != 3 {
		t.Errorf("expected three unsuccessful nodes, got %v", got)
	}
}

func newHTTPTransport(t *testing.T, srv *httptest.Server, timeout time.Duration) *Transport {
	t.Helper()
	adapter, err := httpclient.New(httpclient.Config{BaseURL: srv.URL, Timeout: timeout})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	t.Cleanup(adapter.Close)
	return NewTransport(NewHTTPSender(adapter))
}

func TestTransport_OverHTTP(t *testing.T) {
	var got Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/batch" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		if r.Header.Get(HeaderRequestID) == "" {
			http.Error(w, "missing request id", http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, elementReply)
	}))
	defer srv.Close()

	res, err := newHTTPTransport(t, srv, 5*time.Second).Submit(context.Background(), elementGraph(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(res.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(res.Results))
	}
	if got["2"].Parameters[0] != "$.1.Content.WebId" {
		t.Errorf("references must travel unresolved, got %v", got["2"].Parameters)
	}
}

func TestTransport_OverHTTP_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newHTTPTransport(t, srv, 5*time.Second).Submit(context.Background(), elementGraph(t))
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeTransport {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	if !appErr.Retryable {
		t.Error("a 503 is retryable")
	}
	if appErr.Details["status"] != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 in details, got %v", appErr.Details["status"])
	}
}

func TestTransport_OverHTTP_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newHTTPTransport(t, srv, 50*time.Millisecond).Submit(context.Background(), elementGraph(t))
	if !errors.HasCode(err, errors.ErrCodeTransport) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	if !httpclient.IsTimeout(err) {
		t.Errorf("cause should be a timeout, got %v", err)
	}
}

func TestTransport_OverHTTP_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	tr := newHTTPTransport(t, srv, time.Second)
	srv.Close()

	if _, err := tr.Submit(context.Background(), elementGraph(t)); !errors.HasCode(err, errors.ErrCodeTransport) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
}
