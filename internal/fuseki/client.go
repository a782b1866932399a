// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import (
	"context"
	"net/http"
	"sync"

	"github.com/internetofwater/fuseki/internal/common"
	"github.com/internetofwater/fuseki/internal/config"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/piprate/json-gold/ld"
	log "github.com/sirupsen/logrus"
)

// Client to manage a fuseki dataset and load rdf into it
type FusekiClient struct {
	conf config.FusekiConfig
	// shared by every query session opened by this client
	httpClient *http.Client
	// used for the admin api, which is retried on failure
	adminClient *retryablehttp.Client

	// the processor is not safe for concurrent use
	jsonldMu        sync.Mutex
	jsonldProcessor *ld.JsonLdProcessor
	jsonldOptions   *ld.JsonLdOptions
}

// Create a client and make sure its dataset exists. Construction never fails;
// if the dataset could not be listed or created the returned result says so
// and the client is still usable once the server is reachable.
// If httpClient is nil a default instrumented client is used
func NewFusekiClient(ctx context.Context, conf config.FusekiConfig, httpClient *http.Client) (*FusekiClient, EnsureResult) {
	if httpClient == nil {
		httpClient = common.NewFusekiHttpClient(conf.Timeout)
	}
	// no context files are mapped so this cannot fail
	processor, options, _ := common.NewJsonldProcessor(nil)

	client := &FusekiClient{
		conf:            conf,
		httpClient:      httpClient,
		adminClient:     common.NewRetryableClient(httpClient, conf.AdminRetries),
		jsonldProcessor: processor,
		jsonldOptions:   options,
	}
	return client, client.EnsureDatasetExists(ctx)
}

func (c *FusekiClient) Config() config.FusekiConfig {
	return c.conf
}

// Resolve JSON-LD contexts from local files instead of the network.
// prefixToFile maps a context url to a file path
func (c *FusekiClient) UseJsonldContextFiles(prefixToFile map[string]string) error {
	processor, options, err := common.NewJsonldProcessor(prefixToFile)
	if err != nil {
		return err
	}
	c.jsonldMu.Lock()
	defer c.jsonldMu.Unlock()
	c.jsonldProcessor = processor
	c.jsonldOptions = options
	return nil
}

// Sparql returns an unopened session for the query; open it with Open or Do
func (c *FusekiClient) Sparql(query string) *QuerySession {
	return NewQuerySession(c.conf, query, c.httpClient)
}

// Run an update in its own session
func (c *FusekiClient) Update(ctx context.Context, query string) error {
	return c.Sparql(query).Do(func(session *QuerySession) error {
		return session.Execute(ctx)
	})
}

// Run a select in its own session and return it as a table
func (c *FusekiClient) Select(ctx context.Context, query string) (Table, error) {
	var table Table
	err := c.Sparql(query).Do(func(session *QuerySession) error {
		var err error
		table, err = session.ExecuteAsTable(ctx)
		return err
	})
	return table, err
}

// Remove every triple from the default graph of the dataset
func (c *FusekiClient) ClearDataset(ctx context.Context) error {
	if err := c.Update(ctx, "DELETE WHERE { ?s ?p ?o }"); err != nil {
		return err
	}
	log.Infof("Cleared all triples in dataset '%s'", c.conf.Dataset)
	return nil
}
