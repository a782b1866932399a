// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"strings"
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/require"
)

const bookstoreTurtle = `
@prefix : <http://example.org/bookstore/> .
@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .

:book1 rdf:type :Book ;
       :title "The Hobbit"@en .

:book2 rdf:type :Book ;
       :title "Dune" .
`

// check if the two strings are the same, ignoring tabs, newlines and spaces
// we use this helper since the query strings might have different formatting
// like tabs or newlines but still both be valid sparql
func stripWhitespace(expected string, actual string) (string, string) {
	replacer := strings.NewReplacer("\t", "", "\n", "", " ", "")
	return replacer.Replace(expected), replacer.Replace(actual)
}

func TestDecodeTurtle(t *testing.T) {
	triples, err := DecodeTriples(bookstoreTurtle, rdf.Turtle)
	require.NoError(t, err)
	require.Len(t, triples, 4)

	insert := CreateInsertDataQuery(triples)
	require.Contains(t, insert, `<http://example.org/bookstore/book1> <http://example.org/bookstore/title> "The Hobbit"@en .`)
	require.Contains(t, insert, `<http://example.org/bookstore/book2> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/bookstore/Book> .`)
	require.Equal(t, 5, strings.Count(insert, "\n"))
}

func TestDecodeInvalidTurtle(t *testing.T) {
	_, err := DecodeTriples(`<http://example.org/resource/1> .`, rdf.Turtle)
	require.Error(t, err)
}

func TestCreateInsertDataQuery(t *testing.T) {
	triples, err := DecodeTriples(`<http://example.com/subject> <http://example.com/predicate> <http://example.com/object> .`, rdf.NTriples)
	require.NoError(t, err)

	query := CreateInsertDataQuery(triples)
	expected := `INSERT DATA {
		<http://example.com/subject> <http://example.com/predicate> <http://example.com/object> .
	}`
	expected, query = stripWhitespace(expected, query)
	require.Equal(t, expected, query)

	empty := CreateInsertDataQuery(nil)
	expected, empty = stripWhitespace("INSERT DATA { }", empty)
	require.Equal(t, expected, empty)
}

func TestFormatFromExtension(t *testing.T) {
	format, ok := FormatFromExtension("data/bookstore.ttl")
	require.True(t, ok)
	require.Equal(t, rdf.Turtle, format)

	format, ok = FormatFromExtension("dump.NT")
	require.True(t, ok)
	require.Equal(t, rdf.NTriples, format)

	_, ok = FormatFromExtension("notes.txt")
	require.False(t, ok)

	require.True(t, IsJsonld("person.jsonld"))
	require.False(t, IsJsonld("person.ttl"))
}
