// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import "fmt"

// Returned when a session is used before Open or after Close
type NotInitializedError struct {
	Operation string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("cannot %s: the query session is not open; call Open or use Do", e.Operation)
}

// Returned when fuseki could not be reached or did not answer
// with a success status
type RemoteQueryError struct {
	Endpoint   string
	StatusCode int
	// the response body, usually fuseki's explanation of the failure
	Body string
	// the underlying transport error, if the request never completed
	Err error
}

func (e *RemoteQueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("request to %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}
