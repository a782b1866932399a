// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const UserAgent = "fuseki-client"

type MockResponse struct {
	File        string
	Body        string
	StatusCode  int
	ContentType string
	// If true, the request will return an error
	// signifying that the request timedout
	Timeout bool
}

// A transport that returns canned responses. Responses are looked up
// first by "METHOD url" and then by the url alone
type MockTransport struct {
	// Deny requests that are not mocked
	denyReqNotMocked bool
	transport        http.RoundTripper
	urlToFile        map[string]MockResponse

	mu sync.Mutex
	// every request seen in the form "METHOD url"
	requests []string
}

func (m *MockTransport) lookup(req *http.Request) (MockResponse, bool) {
	fullUrl := req.URL.String()
	if mock, ok := m.urlToFile[req.Method+" "+fullUrl]; ok {
		return mock, true
	}
	mock, ok := m.urlToFile[fullUrl]
	return mock, ok
}

// If the req url is in the map, return a mock response from the associated file or body
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	fullUrl := req.URL.String()

	m.mu.Lock()
	m.requests = append(m.requests, req.Method+" "+fullUrl)
	m.mu.Unlock()

	associatedMock, ok := m.lookup(req)
	if ok {
		if associatedMock.Timeout {
			return nil, fmt.Errorf("mocked a timeout for %s: %w", fullUrl, context.DeadlineExceeded)
		}

		if associatedMock.File == "" {
			return &http.Response{
				StatusCode: associatedMock.StatusCode,
				Status:     fmt.Sprintf("%d %s", associatedMock.StatusCode, http.StatusText(associatedMock.StatusCode)),
				Body:       io.NopCloser(strings.NewReader(associatedMock.Body)),
				Header: http.Header{
					"Content-Type": []string{associatedMock.ContentType},
				},
				Request: req,
			}, nil
		}
		mockedContent, err := os.Open(associatedMock.File)
		if err != nil {
			return nil, err
		}
		return &http.Response{
			StatusCode: associatedMock.StatusCode,
			Status:     fmt.Sprintf("%d %s", associatedMock.StatusCode, http.StatusText(associatedMock.StatusCode)),
			Body:       mockedContent,
			Header: http.Header{
				"Content-Type": []string{associatedMock.ContentType},
			},
			Request: req,
		}, nil
	}
	if m.denyReqNotMocked {
		return nil, fmt.Errorf("request not mocked: %s %s", req.Method, fullUrl)
	}

	return m.transport.RoundTrip(req)
}

// Requests returns every request that passed through the transport
func (m *MockTransport) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// NewMockedClient returns an http client with mocked responses
// if strictMode is true, all http requests that are not mocked will return an error
func NewMockedClient(strictMode bool, urlToMock map[string]MockResponse) (*http.Client, *MockTransport) {
	transport := &MockTransport{
		transport:        newLongLivedHttpTransport(),
		urlToFile:        urlToMock,
		denyReqNotMocked: strictMode,
	}

	return newClientFromRoundTrip(transport, 5*time.Second), transport
}

// An http transport optimized for long-lived connections
// to a single triplestore
func newLongLivedHttpTransport() http.RoundTripper {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   16,
		MaxConnsPerHost:       0,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   20 * time.Second,
		ExpectContinueTimeout: 2 * time.Second,
		DisableKeepAlives:     false,
		ForceAttemptHTTP2:     true,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			span := trace.SpanFromContext(ctx)
			if span != nil {
				span.AddEvent("HTTP connection")
			}
			dialer := &net.Dialer{Timeout: 30 * time.Second}
			return dialer.DialContext(ctx, network, addr)
		},
	}
}

// An http client that sets otel events on redirects
func newClientFromRoundTrip(transport http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			span := trace.SpanFromContext(req.Context())
			if span != nil {
				span.AddEvent("HTTP redirect")
			}
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// NewFusekiHttpClient returns the client shared by every session against a
// fuseki server. Requests are instrumented with opentelemetry spans
func NewFusekiHttpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	transport := otelhttp.NewTransport(newLongLivedHttpTransport())
	return newClientFromRoundTrip(transport, timeout)
}
