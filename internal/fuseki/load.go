// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/internetofwater/fuseki/internal/common"
	"github.com/internetofwater/fuseki/internal/opentelemetry"

	"github.com/knakk/rdf"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A source of rdf documents stored under object names, like an s3 bucket
type RdfObjectStore interface {
	// names of all objects under the prefix
	ObjectNames(ctx context.Context, prefix string) ([]string, error)
	GetObjectAsBytes(ctx context.Context, objectName string) ([]byte, error)
}

// Insert the triples with one INSERT DATA update in a single session
func (c *FusekiClient) insertTriples(ctx context.Context, triples []rdf.Triple) error {
	ctx, span := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()

	insertQuery := common.CreateInsertDataQuery(triples)
	log.Debugf("Inserting %d triples into dataset '%s'", len(triples), c.conf.Dataset)
	return c.Update(ctx, insertQuery)
}

// Parse turtle and insert every triple into the dataset with one request
func (c *FusekiClient) LoadTurtleData(ctx context.Context, turtleData string) error {
	log.Info("Loading ttl data...")
	triples, err := common.DecodeTriples(turtleData, rdf.Turtle)
	if err != nil {
		return err
	}
	if err := c.insertTriples(ctx, triples); err != nil {
		return err
	}
	log.Info("Turtle data loaded successfully.")
	return nil
}

// Parse n-triples and insert them into the dataset with one request
func (c *FusekiClient) LoadNTriplesData(ctx context.Context, ntriples string) error {
	triples, err := common.DecodeTriples(ntriples, rdf.NTriples)
	if err != nil {
		return err
	}
	return c.insertTriples(ctx, triples)
}

// Expand JSON-LD and insert the resulting triples with one request
func (c *FusekiClient) LoadJsonLdData(ctx context.Context, jsonld string) error {
	triples, err := c.jsonldToTriples(jsonld)
	if err != nil {
		return err
	}
	return c.insertTriples(ctx, triples)
}

func (c *FusekiClient) jsonldToTriples(jsonld string) ([]rdf.Triple, error) {
	c.jsonldMu.Lock()
	defer c.jsonldMu.Unlock()
	return common.JsonldToTriples(jsonld, c.jsonldProcessor, c.jsonldOptions)
}

// Read a turtle file and load it into the dataset
func (c *FusekiClient) LoadTurtleFile(ctx context.Context, filePath string) error {
	log.Infof("Loading ttl file: %s", filePath)
	turtleData, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read turtle file %s: %w", filePath, err)
	}
	if err := c.LoadTurtleData(ctx, string(turtleData)); err != nil {
		return err
	}
	log.Info("Turtle file loaded successfully.")
	return nil
}

// Decode a document whose serialization is determined by its name
func (c *FusekiClient) decodeDocument(name string, data []byte) ([]rdf.Triple, error) {
	if common.IsJsonld(name) {
		triples, err := c.jsonldToTriples(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return triples, nil
	}
	format, ok := common.FormatFromExtension(name)
	if !ok {
		return nil, fmt.Errorf("%s is not a turtle, n-triples or json-ld document and cannot be loaded", name)
	}
	triples, err := common.DecodeTriples(string(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return triples, nil
}

// Load a .ttl, .nt or .jsonld file
func (c *FusekiClient) LoadFile(ctx context.Context, filePath string) error {
	return c.LoadFiles(ctx, []string{filePath})
}

// Load many files. Every file is read and parsed concurrently before
// anything is sent so a bad file aborts the load without partial inserts.
// Each file is then inserted with its own request
func (c *FusekiClient) LoadFiles(ctx context.Context, filePaths []string) error {
	ctx, span := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()

	parsed := make([][]rdf.Triple, len(filePaths))
	var errorGroup errgroup.Group
	for i, filePath := range filePaths {
		errorGroup.Go(func() error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("failed to read rdf file %s: %w", filePath, err)
			}
			triples, err := c.decodeDocument(filePath, data)
			if err != nil {
				return err
			}
			// by placing the triples in the slice we can
			// write without needing to use a mutex
			parsed[i] = triples
			return nil
		})
	}
	if err := errorGroup.Wait(); err != nil {
		return err
	}

	for i, triples := range parsed {
		if err := c.insertTriples(ctx, triples); err != nil {
			return fmt.Errorf("failed to load %s: %w", filePaths[i], err)
		}
		log.Infof("Loaded %d triples from %s", len(triples), filepath.Base(filePaths[i]))
	}
	return nil
}

// Load every rdf object under the prefix in the store.
// Objects that are not rdf documents are skipped
func (c *FusekiClient) LoadObjects(ctx context.Context, store RdfObjectStore, prefix string) (int, error) {
	ctx, span := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()

	names, err := store.ObjectNames(ctx, prefix)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, name := range names {
		_, isRdf := common.FormatFromExtension(name)
		if !isRdf && !common.IsJsonld(name) {
			log.Warnf("Skipping %s since it is not an rdf document", name)
			continue
		}
		data, err := store.GetObjectAsBytes(ctx, name)
		if err != nil {
			return loaded, fmt.Errorf("failed to get object %s: %w", name, err)
		}
		triples, err := c.decodeDocument(name, data)
		if err != nil {
			return loaded, err
		}
		if err := c.insertTriples(ctx, triples); err != nil {
			return loaded, fmt.Errorf("failed to load object %s: %w", name, err)
		}
		loaded++
	}
	log.Infof("Loaded %d objects under prefix '%s' into dataset '%s'", loaded, prefix, c.conf.Dataset)
	return loaded, nil
}

const exampleGraph = `
@prefix : <http://example.org/> .
@prefix foaf: <http://xmlns.com/foaf/0.1/> .

:alice foaf:name "Alice" ;
       foaf:knows :bob .

:bob foaf:name "Bob" ;
     foaf:knows :charlie .

:charlie foaf:name "Charlie" ;
         foaf:knows :alice .
`

// Replace the contents of the dataset with a small foaf graph
func (c *FusekiClient) SetupExampleGraph(ctx context.Context) error {
	if err := c.ClearDataset(ctx); err != nil {
		return err
	}
	return c.LoadTurtleData(ctx, strings.TrimSpace(exampleGraph))
}
