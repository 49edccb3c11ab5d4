// Package gateway issues outbound requests to the named backend services
// and normalizes their responses into the uniform {success, data, message}
// envelope. Network-level failures are retried with a fixed delay; received
// error responses are surfaced immediately.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// Service names an outbound backend. The name keys the circuit breaker.
type Service string

const (
	ServiceWeather Service = "weather"
	ServiceAlerts  Service = "alerts"
	ServiceGeocode Service = "geocode"
	ServiceIPGeo   Service = "ipgeo"
)

// ErrUnreachable is returned after network-level failures exhaust the retry
// budget: no response was received from the service.
var ErrUnreachable = errors.New("network unreachable")

// StatusError is a received error response: the service answered, so the
// request is not retried. Message carries the server-provided message when
// present.
type StatusError struct {
	Service Service
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s service error (%d): %s", e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s service error (%d)", e.Service, e.Status)
}

// Client is an outbound HTTP client bound to one backend service.
type Client struct {
	service Service
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker

	// Retries is the number of additional attempts after a network-level
	// failure; RetryDelay is the fixed pause between attempts.
	Retries    int
	RetryDelay time.Duration
}

// NewClient creates a Client for the given service. The http.Client owns
// the request-level timeout.
func NewClient(service Service, baseURL string, client *http.Client) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(service),
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		service:    service,
		baseURL:    baseURL,
		client:     client,
		circuit:    cb,
		Retries:    2,
		RetryDelay: 1 * time.Second,
	}
}

// Get issues a GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, params, nil, out)
}

// Post issues a POST with a JSON body and decodes the envelope data into out.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.send(ctx, http.MethodPost, path, nil, body, out)
}

// Delete issues a DELETE. The envelope data, if any, is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) send(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	buildRequest := func() (*http.Request, error) {
		u := c.baseURL + path
		if len(params) > 0 {
			u = fmt.Sprintf("%s?%s", u, params.Encode())
		}

		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rdr)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			raw, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return nil, readErr
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, &StatusError{
					Service: c.service,
					Status:  resp.StatusCode,
					Message: serverMessage(raw),
				}
			}
			return raw, nil
		})

		if err == nil {
			raw, ok := result.([]byte)
			if !ok {
				return fmt.Errorf("unexpected result type from circuit breaker")
			}
			return decodeEnvelope(c.service, raw, out)
		}

		// A received error response is final.
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return statusErr
		}

		// An open circuit means the service is known-unreachable; do not
		// burn the retry budget against it.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s: %v", ErrUnreachable, c.service, err)
		}

		if attempt >= c.Retries {
			return fmt.Errorf("%w: %s: %v", ErrUnreachable, c.service, err)
		}

		timer := time.NewTimer(c.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
