// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"
	log "github.com/sirupsen/logrus"
)

// The serialization of rdf data that is being loaded
type RdfFormat = rdf.Format

// Infer the rdf serialization from the extension of a file or object name
func FormatFromExtension(name string) (RdfFormat, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttl", ".turtle":
		return rdf.Turtle, true
	case ".nt":
		return rdf.NTriples, true
	default:
		return rdf.Turtle, false
	}
}

// Returns true if the name is json-ld and thus needs to be
// expanded with a jsonld processor before it can be decoded as triples
func IsJsonld(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jsonld" || ext == ".json"
}

// Decode all triples in a document of the given format
func DecodeTriples(data string, format RdfFormat) ([]rdf.Triple, error) {
	dec := rdf.NewTripleDecoder(strings.NewReader(data), format)
	triples, err := dec.DecodeAll()
	if err != nil {
		log.Errorf("Error decoding triples: %v", err)
		return nil, fmt.Errorf("failed to decode rdf: %w", err)
	}
	return triples, nil
}

/*
Create a sparql update which inserts every triple into the default graph

Resulting queries will be in the form of:

	INSERT DATA {
		<s> <p> <o> .
		<s> <p> "literal" .
	}
*/
func CreateInsertDataQuery(triples []rdf.Triple) string {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("INSERT DATA {\n")
	for _, triple := range triples {
		queryBuilder.WriteString("  ")
		queryBuilder.WriteString(triple.Serialize(rdf.NTriples))
	}
	queryBuilder.WriteString("}")
	return queryBuilder.String()
}
