package annoservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/annokit/annokit/internal/vcfio"
)

const initialPayloadSize = 512

// Client dispatches one chunk of variants per call to the annotation
// web service and streams the response through the LineSink the caller
// passes to Dispatch. It
// holds no per-request state, so a single Client is safe to share
// across dispatcher goroutines; the rate limiter is what actually
// serializes (or paces) outbound calls, not the Client itself.
type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
}

// NewClient builds a Client for the composed endpoint URL. limiter may
// be nil, in which case dispatch is unrestricted — matching the
// original tool's fire-as-fast-as-OpenMP-schedules-it behavior.
func NewClient(httpClient *http.Client, endpoint string, limiter *rate.Limiter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, endpoint: endpoint, limiter: limiter}
}

// Dispatch POSTs one chunk's records as "of=txt&variants=c1,c2,...",
// waiting on the rate limiter first if one is configured, then streams
// the response body through sink. It makes exactly one attempt: a
// non-2xx status or a transport error aborts the chunk without retry,
// matching the original curl_easy_perform call with no retry loop.
func (c *Client) Dispatch(ctx context.Context, chunk []vcfio.Record, sink *LineSink) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("annoservice: rate limiter wait: %w", err)
		}
	}

	body := buildPayload(chunk)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("annoservice: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("annoservice: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("annoservice: unexpected status %s", resp.Status)
	}

	return streamInto(resp.Body, sink)
}

// buildPayload joins chunk as comma-separated chrom:pos:ref:alt tokens
// into a single form-encoded body. It preallocates initialPayloadSize
// bytes, the same geometric-growth starting point as invoke_effect_ws,
// and then simply relies on strings.Builder's own doubling growth for
// the rest — Go's append already gives us the reallocation strategy
// the C version had to hand-roll.
func buildPayload(chunk []vcfio.Record) string {
	var b strings.Builder
	b.Grow(initialPayloadSize)
	b.WriteString("of=txt&variants=")
	for i, rec := range chunk {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(url.QueryEscape(rec.Token()))
	}
	return b.String()
}

// streamInto copies resp.Body into sink in fixed-size reads, feeding
// each read directly to sink.Write without any intermediate line
// buffering of its own — LineSink owns all of that state.
func streamInto(r io.Reader, sink *LineSink) error {
	buf := make([]byte, 64*1024)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := sink.Write(buf[:n]); err != nil {
				return fmt.Errorf("annoservice: process response: %w", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("annoservice: read response: %w", readErr)
		}
	}
}
