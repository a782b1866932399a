// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/internetofwater/fuseki/internal/config"

	"github.com/stretchr/testify/require"
)

// a request received by the fake server for a dataset
type receivedRequest struct {
	Method      string
	ContentType string
	Accept      string
	// the update body or the value of the query parameter
	Query    string
	Username string
	Password string
	HasAuth  bool
}

// An in-memory stand-in for the fuseki admin api and dataset endpoints
type fakeFuseki struct {
	mu       sync.Mutex
	server   *httptest.Server
	datasets []string
	// status to answer dataset creation with
	createStatus int
	// status to answer queries and updates with
	queryStatus int
	// body returned for GET queries
	selectBody string

	creates  []url.Values
	requests []receivedRequest
}

func newFakeFuseki(t *testing.T, datasets ...string) *fakeFuseki {
	fake := &fakeFuseki{
		datasets:     datasets,
		createStatus: http.StatusOK,
		queryStatus:  http.StatusOK,
		selectBody:   `{"head": {"vars": []}, "results": {"bindings": []}}`,
	}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeFuseki) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/$/ping":
		_, _ = io.WriteString(w, time.Now().Format(time.RFC3339))
	case r.URL.Path == "/$/datasets":
		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "admin" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		f.handleAdmin(w, r)
	default:
		name := strings.TrimPrefix(r.URL.Path, "/")
		if !slices.Contains(f.datasets, name) {
			http.Error(w, "Not Found: /"+name, http.StatusNotFound)
			return
		}
		f.handleDataset(w, r)
	}
}

func (f *fakeFuseki) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		listing := map[string][]map[string]any{"datasets": {}}
		for _, name := range f.datasets {
			listing["datasets"] = append(listing["datasets"], map[string]any{
				"ds.name":     "/" + name,
				"ds.state":    true,
				"ds.services": []any{},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listing)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.creates = append(f.creates, r.PostForm)
	if f.createStatus != http.StatusOK {
		http.Error(w, "cannot create dataset", f.createStatus)
		return
	}
	f.datasets = append(f.datasets, r.PostForm.Get("dbName"))
}

func (f *fakeFuseki) handleDataset(w http.ResponseWriter, r *http.Request) {
	received := receivedRequest{
		Method:      r.Method,
		ContentType: r.Header.Get("Content-Type"),
		Accept:      r.Header.Get("Accept"),
	}
	received.Username, received.Password, received.HasAuth = r.BasicAuth()

	if r.Method == http.MethodGet {
		received.Query = r.URL.Query().Get("query")
	} else if received.ContentType == "application/sparql-update" {
		body, _ := io.ReadAll(r.Body)
		received.Query = string(body)
	} else {
		_ = r.ParseForm()
		received.Query = r.PostForm.Get("query")
	}
	f.requests = append(f.requests, received)

	if f.queryStatus != http.StatusOK {
		http.Error(w, "Error 400: Parse error", f.queryStatus)
		return
	}
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = io.WriteString(w, f.selectBody)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeFuseki) received() []receivedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]receivedRequest(nil), f.requests...)
}

func (f *fakeFuseki) createRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.creates...)
}

// a config pointing at the fake server with retries disabled
func (f *fakeFuseki) config(t *testing.T, dataset string) config.FusekiConfig {
	serverUrl, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(serverUrl.Port())
	require.NoError(t, err)

	conf := config.DefaultFusekiConfig()
	conf.Host = serverUrl.Hostname()
	conf.Port = port
	conf.Dataset = dataset
	conf.Timeout = 5 * time.Second
	conf.AdminRetries = 0
	return conf
}
