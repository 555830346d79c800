// smoke sends a single HTTP GET request and asserts on the status
// code of the response.
//
// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package smoke

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"github.com/hchauvin/smoke/pkg/config"
	"github.com/hchauvin/smoke/pkg/log"
	"io"
	"io/ioutil"
	"net/http"
	"os"
)

const logDomain = "smoke"

// Request is the request sent by the smoke test.
type Request struct {
	// URL to send the GET request to.
	URL string

	// Headers to set in the request.
	Headers http.Header

	// VerifyTLS enables the verification of the server certificate
	// chain.  It has no effect on plain HTTP URLs.
	VerifyTLS bool
}

// DefaultRequest gives the request of the smoke test: a GET to
// http://localhost:4221/files/banana with "User-Agent: foobar/1.2.3",
// and certificate verification disabled.
func DefaultRequest() Request {
	return FromConfig(config.Default())
}

// FromConfig gives the request described by a project-wide configuration.
// A User-Agent given in the headers takes precedence over UserAgent.
func FromConfig(cfg *config.Config) Request {
	headers := http.Header{}
	for name, value := range cfg.Headers {
		headers.Set(name, value)
	}
	if headers.Get("User-Agent") == "" && cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}
	return Request{
		URL:       cfg.URL,
		Headers:   headers,
		VerifyTLS: cfg.VerifyTLS,
	}
}

// Response is the response to a smoke test request.
type Response struct {
	StatusCode int
	Text       string
}

// StatusError is returned when the response does not have the
// expected status code.
type StatusError struct {
	Expected int
	Actual   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Expected status code %d, got %d", e.Expected, e.Actual)
}

// NewClient creates an HTTP client.  There is no timeout, and, unless
// verifyTLS is true, the server certificates are not verified.
func NewClient(verifyTLS bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = !verifyTLS
	return &http.Client{Transport: transport}
}

// InsecureSkipVerify tells whether a client skips the verification of
// server certificates.
func InsecureSkipVerify(client *http.Client) bool {
	transport, ok := client.Transport.(*http.Transport)
	if !ok || transport.TLSClientConfig == nil {
		return false
	}
	return transport.TLSClientConfig.InsecureSkipVerify
}

// Runner executes smoke test requests.
type Runner struct {
	// Client sends the requests.  When nil, a client is created
	// with NewClient for every request.
	Client *http.Client

	// Out receives the body of successful responses.  Defaults
	// to the standard output.
	Out io.Writer

	// Logger is optional.
	Logger *log.Logger

	// ExpectedStatus defaults to 200.
	ExpectedStatus int
}

// Run sends the default request and prints the response body to w.
func Run(ctx context.Context, w io.Writer) error {
	r := &Runner{Out: w}
	_, err := r.Run(ctx, DefaultRequest())
	return err
}

// Run sends req, checks the status code, and prints the body.  Transport
// errors are returned as is, wrapped with the URL; they are not retried.
// A wrong status code gives a *StatusError alongside the response.
func (r *Runner) Run(ctx context.Context, req Request) (*Response, error) {
	if req.URL == "" {
		return nil, errors.New("url is missing")
	}

	client := r.Client
	if client == nil {
		client = NewClient(req.VerifyTLS)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}
	for name, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}

	if r.Logger != nil {
		r.Logger.Info(logDomain, "GET %s", req.URL)
	}
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", req.URL, err)
	}
	defer httpResp.Body.Close()

	b, err := ioutil.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read body: %w", err)
	}
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Text:       string(b),
	}

	expected := r.ExpectedStatus
	if expected == 0 {
		expected = http.StatusOK
	}
	if resp.StatusCode != expected {
		if r.Logger != nil {
			r.Logger.Error(logDomain, "%s - %d %s", req.URL, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return resp, &StatusError{Expected: expected, Actual: resp.StatusCode}
	}

	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := fmt.Fprintln(out, resp.Text); err != nil {
		return resp, err
	}
	return resp, nil
}
