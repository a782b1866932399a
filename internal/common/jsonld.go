// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"
	log "github.com/sirupsen/logrus"
)

// NewJsonldProcessor builds the JSON-LD processor and sets the options object
// for use in all JSON-LD to RDF conversions.
// prefixToFile maps a context url to a local file so the context
// does not need to be fetched over the network
func NewJsonldProcessor(prefixToFile map[string]string) (*ld.JsonLdProcessor, *ld.JsonLdOptions, error) {
	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")

	if len(prefixToFile) > 0 {
		for prefix, file := range prefixToFile {
			if !fileExists(file) {
				return nil, nil, fmt.Errorf("context file for %s at %s does not exist or could not be accessed", prefix, file)
			}
		}
		fallbackLoader := ld.NewDefaultDocumentLoader(NewRetryableHTTPClient())
		cachingLoader := ld.NewCachingDocumentLoader(fallbackLoader)
		if err := cachingLoader.PreloadWithMapping(prefixToFile); err != nil {
			return nil, nil, err
		}
		options.DocumentLoader = cachingLoader
	}

	options.ProcessingMode = ld.JsonLd_1_1
	options.Format = "application/n-quads"

	return processor, options, nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("error checking file existence: %v", err)
		}
		return false
	}
	return !info.IsDir()
}

// Expand a JSON-LD document into n-quads
func JsonldToNQ(jsonld string, processor *ld.JsonLdProcessor, options *ld.JsonLdOptions) (string, error) {
	var deserializeInterface interface{}
	err := json.Unmarshal([]byte(jsonld), &deserializeInterface)
	if err != nil {
		log.Error("Error when transforming JSON-LD document to interface:", err)
		return "", err
	}

	nquads, err := processor.ToRDF(deserializeInterface, options)
	if err != nil {
		log.Error("Error when transforming JSON-LD document to RDF:", err)
		return "", err
	}

	return fmt.Sprintf("%v", nquads), nil
}

var ErrNamedGraphJsonld = errors.New("only json-ld in the default graph can be loaded; documents declaring named graphs are not supported")

// Expand a JSON-LD document into triples in the default graph.
// The processor emits statements in the default graph without a
// graph term, so its output is decoded as N-Triples; documents
// that declare named graphs fail with ErrNamedGraphJsonld
func JsonldToTriples(jsonld string, processor *ld.JsonLdProcessor, options *ld.JsonLdOptions) ([]rdf.Triple, error) {
	nquads, err := JsonldToNQ(jsonld, processor, options)
	if err != nil {
		return nil, err
	}
	triples, err := DecodeTriples(nquads, rdf.NTriples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNamedGraphJsonld, err)
	}
	return triples, nil
}
