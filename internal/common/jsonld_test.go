// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const inlineContextJsonld = `{
	"@context": {
		"name": "http://xmlns.com/foaf/0.1/name",
		"knows": {"@id": "http://xmlns.com/foaf/0.1/knows", "@type": "@id"}
	},
	"@id": "http://example.org/alice",
	"name": "Alice",
	"knows": "http://example.org/bob"
}`

func TestCreateNewProcessor(t *testing.T) {

	t.Run("empty mapping returns blank processor", func(t *testing.T) {
		processor, options, err := NewJsonldProcessor(nil)
		require.NoError(t, err)
		require.NotNil(t, processor)
		require.Equal(t, "application/n-quads", options.Format)
	})

	t.Run("missing context file is an error", func(t *testing.T) {
		_, _, err := NewJsonldProcessor(map[string]string{"https://schema.org/": "testdata/DOES_NOT_EXIST.jsonld"})
		require.Error(t, err)
	})
}

func TestJsonldToTriples(t *testing.T) {
	processor, options, err := NewJsonldProcessor(nil)
	require.NoError(t, err)

	nq, err := JsonldToNQ(inlineContextJsonld, processor, options)
	require.NoError(t, err)
	require.Contains(t, nq, `<http://example.org/alice> <http://xmlns.com/foaf/0.1/name> "Alice" .`)

	triples, err := JsonldToTriples(inlineContextJsonld, processor, options)
	require.NoError(t, err)
	require.Len(t, triples, 2)

	data, err := os.ReadFile("testdata/person.jsonld")
	require.NoError(t, err)
	triples, err = JsonldToTriples(string(data), processor, options)
	require.NoError(t, err)
	require.NotEmpty(t, triples)

	_, err = JsonldToTriples("{not json", processor, options)
	require.Error(t, err)
}

func TestJsonldWithNamedGraphIsRejected(t *testing.T) {
	processor, options, err := NewJsonldProcessor(nil)
	require.NoError(t, err)

	namedGraph := `{
		"@context": {"name": "http://xmlns.com/foaf/0.1/name"},
		"@id": "http://example.org/graphs/people",
		"@graph": [{"@id": "http://example.org/alice", "name": "Alice"}]
	}`
	nq, err := JsonldToNQ(namedGraph, processor, options)
	require.NoError(t, err)
	require.Contains(t, nq, "<http://example.org/graphs/people>")

	_, err = JsonldToTriples(namedGraph, processor, options)
	require.ErrorIs(t, err, ErrNamedGraphJsonld)
	require.ErrorContains(t, err, "default graph")
}
