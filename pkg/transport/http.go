// Copyright (C) 2026 ANP Community
//
// This file is part of anp-go.
//
// anp-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// anp-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with anp-go.  If not, see <https://www.gnu.org/licenses/>.

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single outbound request.
const DefaultTimeout = 10 * time.Second

// ErrNetwork marks transport-level failures. Unlike the terminal
// cryptographic and replay errors, errors matching ErrNetwork are
// retryable by the caller.
var ErrNetwork = errors.New("network error")

type networkError struct {
	cause error
}

func (e *networkError) Error() string { return "network error: " + e.cause.Error() }
func (e *networkError) Unwrap() error { return e.cause }
func (e *networkError) Is(target error) bool {
	return target == ErrNetwork
}

// WrapNetwork marks err as retryable transport failure. The cause
// stays reachable through errors.Unwrap.
func WrapNetwork(err error) error {
	if err == nil {
		return nil
	}
	return &networkError{cause: err}
}

// Client sends outbound HTTP requests with a bounded per-request
// timeout. Transport failures are wrapped with ErrNetwork so callers
// can tell them from terminal authentication errors.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a transport client. A nil httpClient selects
// http.DefaultClient; a zero timeout selects DefaultTimeout.
func NewClient(httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{httpClient: httpClient, timeout: timeout}
}

// Do executes the request under the client's timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, WrapNetwork(err)
	}
	// The body must stay readable after Do returns; tie the timeout
	// cancellation to body close.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// Post sends a POST with a JSON body and the given header values.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for name, values := range headers {
		req.Header[name] = values
	}
	return c.Do(ctx, req)
}

// Get sends a GET with the given header values.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	for name, values := range headers {
		req.Header[name] = values
	}
	return c.Do(ctx, req)
}

type cancelReadCloser struct {
	ReadCloser interface {
		Read([]byte) (int, error)
		Close() error
	}
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Read(p []byte) (int, error) { return c.ReadCloser.Read(p) }

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
