// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/internetofwater/fuseki/internal/common"
	"github.com/internetofwater/fuseki/internal/config"
	"github.com/internetofwater/fuseki/internal/opentelemetry"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// A session runs exactly one sparql query against the dataset endpoint.
// The network handle only exists between Open and Close; a session
// must not be shared between goroutines
type QuerySession struct {
	conf       config.FusekiConfig
	query      string
	httpClient *http.Client
	// non-nil only while the session is open
	handle *sparqlHandle
}

// the transport state bound to one dataset endpoint
type sparqlHandle struct {
	endpoint string
	client   *http.Client
}

// Create an unopened session. If httpClient is nil a new client
// is created when the session is opened
func NewQuerySession(conf config.FusekiConfig, query string, httpClient *http.Client) *QuerySession {
	return &QuerySession{
		conf:       conf,
		query:      query,
		httpClient: httpClient,
	}
}

func (s *QuerySession) Query() string {
	return s.query
}

func (s *QuerySession) IsOpen() bool {
	return s.handle != nil
}

// Open allocates the handle bound to the dataset endpoint
func (s *QuerySession) Open() error {
	if s.handle != nil {
		return fmt.Errorf("query session for %s is already open", s.conf.DatasetUrl())
	}
	client := s.httpClient
	if client == nil {
		client = common.NewFusekiHttpClient(s.conf.Timeout)
	}
	s.handle = &sparqlHandle{endpoint: s.conf.DatasetUrl(), client: client}
	return nil
}

// Close releases the handle. Closing a closed session is a no-op
func (s *QuerySession) Close() error {
	s.handle = nil
	return nil
}

// Do opens the session, runs fn and closes the session
// on every exit path, including a panic in fn
func (s *QuerySession) Do(fn func(*QuerySession) error) error {
	if err := s.Open(); err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}

func (s *QuerySession) activeHandle(operation string) (*sparqlHandle, error) {
	if s.handle == nil {
		return nil, &NotInitializedError{Operation: operation}
	}
	return s.handle, nil
}

// Execute sends the query as a POST and discards any result.
// Updates are sent as application/sparql-update; any other query
// form is sent url encoded so the server still accepts it
func (s *QuerySession) Execute(ctx context.Context) error {
	handle, err := s.activeHandle("execute")
	if err != nil {
		return err
	}

	var req *http.Request
	if IsUpdateOperation(s.query) {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, handle.endpoint, strings.NewReader(s.query))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/sparql-update")
	} else {
		form := url.Values{"query": {s.query}}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, handle.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	_, err = s.send(handle, req, "update")
	return err
}

// ExecuteAsStructuredResult sends the query as a GET and decodes
// the sparql json results
func (s *QuerySession) ExecuteAsStructuredResult(ctx context.Context) (*SparqlResults, error) {
	handle, err := s.activeHandle("execute as structured result")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("query", s.query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", handle.endpoint, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/sparql-results+json")

	body, err := s.send(handle, req, "select")
	if err != nil {
		return nil, err
	}

	results := &SparqlResults{}
	if err := json.Unmarshal(body, results); err != nil {
		return nil, fmt.Errorf("failed to decode sparql json results from %s: %w", handle.endpoint, err)
	}
	return results, nil
}

// ExecuteAsTable runs the query and flattens the bindings into rows
func (s *QuerySession) ExecuteAsTable(ctx context.Context) (Table, error) {
	if _, err := s.activeHandle("execute as table"); err != nil {
		return Table{}, err
	}
	results, err := s.ExecuteAsStructuredResult(ctx)
	if err != nil {
		return Table{}, err
	}
	return results.Table(), nil
}

// send the request and return the body if fuseki answered with a 2xx
func (s *QuerySession) send(handle *sparqlHandle, req *http.Request, operation string) ([]byte, error) {
	ctx, span := opentelemetry.SubSpanFromCtxWithName(req.Context(), "sparql "+operation)
	defer span.End()
	span.SetAttributes(attribute.String("fuseki.dataset", s.conf.Dataset))
	req = req.WithContext(ctx)

	req.Header.Set("User-Agent", common.UserAgent)
	if s.conf.Authenticate() {
		req.SetBasicAuth(s.conf.Username, s.conf.Password)
	}

	start := time.Now()
	resp, err := handle.client.Do(req)
	if err != nil {
		opentelemetry.RecordQuery(ctx, operation, s.conf.Dataset, time.Since(start), true)
		span.RecordError(err)
		return nil, &RemoteQueryError{Endpoint: handle.endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	failed := err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300
	opentelemetry.RecordQuery(ctx, operation, s.conf.Dataset, time.Since(start), failed)
	if err != nil {
		return nil, &RemoteQueryError{Endpoint: handle.endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	log.Tracef("response Status: %s", resp.Status)
	if failed {
		log.Debugf("sparql %s against %s failed with %s", operation, handle.endpoint, resp.Status)
		return nil, &RemoteQueryError{
			Endpoint:   handle.endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// matches comments and PREFIX / BASE declarations at the start of a query
var prologue = regexp.MustCompile(`(?i)^(\s+|#[^\n]*(\n|$)|PREFIX\s+[^\s:]*:\s*<[^>]*>|BASE\s*<[^>]*>)*`)

var updateKeywords = map[string]bool{
	"INSERT": true,
	"DELETE": true,
	"LOAD":   true,
	"CLEAR":  true,
	"CREATE": true,
	"DROP":   true,
	"COPY":   true,
	"MOVE":   true,
	"ADD":    true,
	"WITH":   true,
}

// Returns true if the first keyword after the prologue
// starts a sparql update operation
func IsUpdateOperation(query string) bool {
	rest := query[len(prologue.FindString(query)):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end >= 0 {
		rest = rest[:end]
	}
	return updateKeywords[strings.ToUpper(rest)]
}
