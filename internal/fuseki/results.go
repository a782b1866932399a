// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import "sort"

// One rdf term in a sparql json result
type Term struct {
	// uri, literal, bnode or triple
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Binding maps a result variable to the term bound to it.
// Variables left unbound by the query are absent
type Binding map[string]Term

// The application/sparql-results+json document
type SparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
		Link []string `json:"link,omitempty"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	// only set for ASK queries
	Boolean *bool `json:"boolean,omitempty"`
}

// A row maps a column to its value
type Row map[string]string

// Tabular form of a select result. Every variable v has
// the columns v (the value) and v_type (the rdf term type)
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// The name of the column holding the term type of a variable
func TypeColumn(variable string) string {
	return variable + "_type"
}

// Table flattens the bindings into rows. Columns follow the order of the
// head variables; variables that are never bound contribute no columns,
// so an empty result produces a table with no rows and no columns
func (r *SparqlResults) Table() Table {
	table := Table{Columns: []string{}, Rows: []Row{}}
	if len(r.Results.Bindings) == 0 {
		return table
	}

	bound := map[string]bool{}
	for _, binding := range r.Results.Bindings {
		for variable := range binding {
			bound[variable] = true
		}
	}

	seen := map[string]bool{}
	variables := []string{}
	for _, variable := range r.Head.Vars {
		if bound[variable] && !seen[variable] {
			variables = append(variables, variable)
			seen[variable] = true
		}
	}
	// bindings are allowed to contain variables the head did not declare
	extra := []string{}
	for variable := range bound {
		if !seen[variable] {
			extra = append(extra, variable)
		}
	}
	sort.Strings(extra)
	variables = append(variables, extra...)

	for _, variable := range variables {
		table.Columns = append(table.Columns, variable, TypeColumn(variable))
	}

	for _, binding := range r.Results.Bindings {
		row := make(Row, len(binding)*2)
		for variable, term := range binding {
			row[variable] = term.Value
			row[TypeColumn(variable)] = term.Type
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Return every value of a single column, in row order.
// Rows where the column is unbound are skipped
func (t Table) Column(name string) []string {
	values := []string{}
	for _, row := range t.Rows {
		if value, ok := row[name]; ok {
			values = append(values, value)
		}
	}
	return values
}
