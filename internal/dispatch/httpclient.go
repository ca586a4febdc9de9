package dispatch

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *Request) (*Response, error)
}

// Request represents an outgoing HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response represents an HTTP response from the API.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// DefaultClient wraps net/http.Client to implement the HTTPClient interface.
type DefaultClient struct {
	client *http.Client
}

// NewHTTPClient creates a DefaultClient with the given timeout.
func NewHTTPClient(timeout time.Duration) *DefaultClient {
	return &DefaultClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Do converts a dispatch.Request to a net/http request, executes it, and
// returns the result as a dispatch.Response.
func (c *DefaultClient) Do(req *Request) (*Response, error) {
	httpReq, err := http.NewRequest(req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}
