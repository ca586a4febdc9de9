// Package dispatch issues the single authenticated POST carrying a built
// payload and blocks the caller until the outcome is known.
package dispatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Bridge sends exactly one outbound request per call and translates the
// asynchronous completion into a synchronous return.
type Bridge struct {
	client HTTPClient
	apiKey string
	log    zerolog.Logger
}

// NewBridge creates a Bridge using the given client and API key.
func NewBridge(client HTTPClient, apiKey string, log zerolog.Logger) *Bridge {
	return &Bridge{
		client: client,
		apiKey: apiKey,
		log:    log,
	}
}

// outcome is the single completion event of one dispatch.
type outcome struct {
	resp *Response
	err  error
}

// Send POSTs body to url and blocks until the call resolves or ctx expires.
// At most one request is issued per call; there is no retry. On success the
// raw response bytes are returned for the caller to display. A non-2xx
// response or transport failure yields an *APIError.
func (b *Bridge) Send(ctx context.Context, url string, body []byte) ([]byte, error) {
	done := make(chan outcome, 1)

	go func() {
		resp, err := b.client.Do(&Request{
			Method: "POST",
			URL:    url,
			Headers: map[string]string{
				"Authorization": "Bearer " + b.apiKey,
				"Content-Type":  "application/json",
			},
			Body: body,
		})
		done <- outcome{resp: resp, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		return nil, &APIError{Message: fmt.Sprintf("request to %s aborted: %v", url, ctx.Err())}
	}

	if out.err != nil {
		return nil, &APIError{Message: out.err.Error()}
	}

	if out.resp.StatusCode >= 200 && out.resp.StatusCode < 300 {
		b.log.Info().
			Int("status", out.resp.StatusCode).
			Str("url", url).
			Msg("request delivered")
		return out.resp.Body, nil
	}

	apiErr := ClassifyHTTPError(out.resp.StatusCode, string(out.resp.Body))
	b.log.Error().
		Int("status", out.resp.StatusCode).
		Str("url", url).
		Bool("permanent", apiErr.Permanent).
		Msg("request failed")
	return nil, apiErr
}
