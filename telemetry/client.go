package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"
)

const maxResponseBody = 4 << 10

// TransportError covers everything that stops a response arriving: DNS,
// connection, TLS, timeout, or a body that cannot be read.
type TransportError struct {
	URL string
	Err error
}

func (t *TransportError) Error() string {
	return fmt.Sprintf("POST %s: %v", t.URL, t.Err)
}

func (t *TransportError) Unwrap() error {
	return t.Err
}

type Response struct {
	StatusCode int
	Status     string
	Body       string
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client posts JSON bodies to the two fixed collection endpoints.
type Client struct {
	http            *http.Client
	registrationURL string
	telemetryURL    string
	userAgent       string
}

func NewClient(registrationURL, telemetryURL string, timeout time.Duration, userAgent string) *Client {
	return &Client{
		http:            &http.Client{Timeout: timeout},
		registrationURL: registrationURL,
		telemetryURL:    telemetryURL,
		userAgent:       userAgent,
	}
}

func (c *Client) Register(ctx context.Context, reg Registration) (*Response, error) {
	logger.Infof("Registering node [%v]", reg.Values().Encode())
	return c.post(ctx, c.registrationURL, reg)
}

func (c *Client) Send(ctx context.Context, rec Record) (*Response, error) {
	logger.Infof("Sending reading [%v]", rec.Values().Encode())
	return c.post(ctx, c.telemetryURL, rec)
}

func (c *Client) post(ctx context.Context, url string, body interface{}) (*Response, error) {
	js, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", body, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(js))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return &Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}, nil
}
