package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockClient records requests and returns a canned response or error.
type mockClient struct {
	requests []*Request
	resp     *Response
	err      error
	delay    time.Duration
}

func (m *mockClient) Do(req *Request) (*Response, error) {
	m.requests = append(m.requests, req)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.resp, m.err
}

func TestBridge_Send_Success(t *testing.T) {
	mc := &mockClient{resp: &Response{StatusCode: 200, Body: []byte(`{"id":"msg-1"}`)}}
	b := NewBridge(mc, "secret-key", zerolog.Nop())

	body, err := b.Send(context.Background(), "https://api.example.com/invoice/issue", []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"id":"msg-1"}` {
		t.Errorf("expected raw response body, got %q", body)
	}

	if len(mc.requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(mc.requests))
	}
	req := mc.requests[0]
	if req.Method != "POST" {
		t.Errorf("expected POST, got %s", req.Method)
	}
	if req.Headers["Authorization"] != "Bearer secret-key" {
		t.Errorf("expected bearer header, got %q", req.Headers["Authorization"])
	}
	if req.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected json content type, got %q", req.Headers["Content-Type"])
	}
}

func TestBridge_Send_APIFailure(t *testing.T) {
	mc := &mockClient{resp: &Response{StatusCode: 401, Body: []byte("bad key")}}
	b := NewBridge(mc, "secret-key", zerolog.Nop())

	_, err := b.Send(context.Background(), "https://api.example.com/lead/check", []byte(`{}`))
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if ae.StatusCode != 401 {
		t.Errorf("expected status 401, got %d", ae.StatusCode)
	}
	if !ae.Permanent {
		t.Error("401 should classify as permanent")
	}
	if len(mc.requests) != 1 {
		t.Errorf("failure must not retry: expected 1 request, got %d", len(mc.requests))
	}
}

func TestBridge_Send_TransportFailure(t *testing.T) {
	mc := &mockClient{err: errors.New("connection refused")}
	b := NewBridge(mc, "secret-key", zerolog.Nop())

	_, err := b.Send(context.Background(), "https://api.example.com/quote/issue", []byte(`{}`))

	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if ae.StatusCode != 0 {
		t.Errorf("transport failures carry no status, got %d", ae.StatusCode)
	}
	if len(mc.requests) != 1 {
		t.Errorf("expected exactly one attempt, got %d", len(mc.requests))
	}
}

func TestBridge_Send_ContextTimeout(t *testing.T) {
	mc := &mockClient{
		resp:  &Response{StatusCode: 200},
		delay: 200 * time.Millisecond,
	}
	b := NewBridge(mc, "secret-key", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.Send(ctx, "https://api.example.com/service/demo", []byte(`{}`))
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError on timeout, got %T", err)
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		body      string
		permanent bool
	}{
		{400, "validation error: missing to", true},
		{400, "temporary glitch", false},
		{403, "", true},
		{404, "", true},
		{429, "slow down", false},
		{500, "internal error", false},
		{503, "invalid api key", true},
	}

	for _, tt := range tests {
		ae := ClassifyHTTPError(tt.status, tt.body)
		if ae == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if ae.Permanent != tt.permanent {
			t.Errorf("status %d %q: permanent = %v, want %v", tt.status, tt.body, ae.Permanent, tt.permanent)
		}
	}

	if ClassifyHTTPError(204, "") != nil {
		t.Error("2xx must not classify as an error")
	}
}
