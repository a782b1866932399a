// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/internetofwater/fuseki/internal/common"
	"github.com/internetofwater/fuseki/internal/opentelemetry"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// The outcome of making sure a dataset exists
type DatasetState int

const (
	// the dataset could not be listed or created
	DatasetFailed DatasetState = iota
	// the dataset already existed; nothing was changed
	DatasetPresent
	// the dataset did not exist and was created
	DatasetCreated
)

func (s DatasetState) String() string {
	switch s {
	case DatasetPresent:
		return "present"
	case DatasetCreated:
		return "created"
	default:
		return "failed"
	}
}

type EnsureResult struct {
	Dataset string
	State   DatasetState
	// why the dataset could not be provisioned; nil unless State is DatasetFailed
	Err error
}

func (r EnsureResult) Ok() bool {
	return r.State != DatasetFailed
}

// fuseki lists dataset names as paths relative to the server root
const datasetNamePrefix = "/"

// Send an authenticated request to the admin api and return the body
func (c *FusekiClient) adminRequest(ctx context.Context, method, endpoint string, body []byte, contentType string) (int, []byte, error) {
	var reqBody interface{}
	if body != nil {
		reqBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", common.UserAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.conf.Authenticate() {
		req.SetBasicAuth(c.conf.Username, c.conf.Password)
	}

	resp, err := c.adminClient.Do(req)
	if err != nil {
		return 0, nil, &RemoteQueryError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &RemoteQueryError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, respBody, nil
}

// Return the names of all datasets on the server
func (c *FusekiClient) ListDatasets(ctx context.Context) ([]string, error) {
	endpoint := c.conf.AdminDatasetsUrl()
	status, body, err := c.adminRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &RemoteQueryError{Endpoint: endpoint, StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("dataset listing from %s is not valid json", endpoint)
	}

	datasets := []string{}
	result := gjson.GetBytes(body, `datasets.#.ds\.name`)
	result.ForEach(func(key, value gjson.Result) bool {
		datasets = append(datasets, strings.TrimPrefix(value.String(), datasetNamePrefix))
		return true // keep iterating
	})
	return datasets, nil
}

// Create the configured dataset with the configured storage type.
// Fuseki answers 200 on success
func (c *FusekiClient) CreateDataset(ctx context.Context) error {
	endpoint := c.conf.AdminDatasetsUrl()
	form := url.Values{
		"dbName": {c.conf.Dataset},
		"dbType": {c.conf.DbType},
	}
	status, body, err := c.adminRequest(ctx, http.MethodPost, endpoint, []byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &RemoteQueryError{Endpoint: endpoint, StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// EnsureDatasetExists lists the datasets and creates the configured one
// if it is missing. Failures are logged and returned in the result,
// never as a panic, so it is safe to call repeatedly
func (c *FusekiClient) EnsureDatasetExists(ctx context.Context) EnsureResult {
	ctx, span := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()

	dataset := c.conf.Dataset
	failed := func(err error) EnsureResult {
		log.Errorf("Failed to ensure dataset '%s' exists: %v", dataset, err)
		span.RecordError(err)
		return EnsureResult{Dataset: dataset, State: DatasetFailed, Err: err}
	}

	datasets, err := c.ListDatasets(ctx)
	if err != nil {
		return failed(err)
	}

	if slices.Contains(datasets, dataset) {
		log.Infof("Dataset '%s' already exists.", dataset)
		return EnsureResult{Dataset: dataset, State: DatasetPresent}
	}

	if err := c.CreateDataset(ctx); err != nil {
		return failed(err)
	}
	log.Infof("Dataset '%s' created successfully.", dataset)
	return EnsureResult{Dataset: dataset, State: DatasetCreated}
}

// Check that the server is up
func (c *FusekiClient) Ping(ctx context.Context) error {
	endpoint := c.conf.PingUrl()
	status, body, err := c.adminRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &RemoteQueryError{Endpoint: endpoint, StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
	log.Debugf("fuseki at %s answered ping at %s", c.conf.BaseUrl(), strings.TrimSpace(string(body)))
	return nil
}
