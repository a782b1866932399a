// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewRetryableHTTPClient returns an HTTP client with automatic retries.
func NewRetryableHTTPClient() *http.Client {
	return NewRetryableClient(nil, 3).StandardClient()
}

// NewRetryableClient wraps base with retries and backoff on transport
// errors and 5xx responses. After the last attempt the final response is
// passed through so callers can report its status
func NewRetryableClient(base *http.Client, retries int) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	if base != nil {
		retryClient.HTTPClient = base
	}
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	// don't spam in the logs with DEBUG messages
	// we should define logs in the application
	// not the library level
	retryClient.Logger = nil

	return retryClient
}
