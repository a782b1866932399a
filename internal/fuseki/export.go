// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	log "github.com/sirupsen/logrus"
)

var ErrEmptyTable = errors.New("table has no columns")

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Load the table into duckdb as a table of VARCHAR columns.
// Unbound values become NULL. An existing table with the same name is replaced
func (t Table) ToDuckDB(ctx context.Context, db *sql.DB, tableName string) error {
	if len(t.Columns) == 0 {
		return ErrEmptyTable
	}

	columnDefs := make([]string, len(t.Columns))
	placeholders := make([]string, len(t.Columns))
	for i, column := range t.Columns {
		columnDefs[i] = quoteIdentifier(column) + " VARCHAR"
		placeholders[i] = "?"
	}

	createSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", quoteIdentifier(tableName), strings.Join(columnDefs, ", "))
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdentifier(tableName), strings.Join(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for i, column := range t.Columns {
			if value, ok := row[column]; ok {
				args[i] = value
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert row into %s: %w", tableName, err)
		}
	}
	return tx.Commit()
}

// duckdb COPY options for each supported file extension
var exportFormats = map[string]string{
	".csv":     "(FORMAT csv, HEADER true)",
	".parquet": "(FORMAT parquet)",
	".json":    "(FORMAT json)",
	".jsonl":   "(FORMAT json)",
}

// Write the table to a csv, parquet or newline delimited json file
// chosen by the extension of outputPath. A table without columns
// has no schema to write, so it produces an empty file
func ExportTable(ctx context.Context, table Table, outputPath string) error {
	format, ok := exportFormats[strings.ToLower(filepath.Ext(outputPath))]
	if !ok {
		return fmt.Errorf("cannot export to %s; use a .csv, .parquet, .json or .jsonl file", outputPath)
	}

	if len(table.Columns) == 0 {
		log.Warnf("Query returned no results; writing an empty file to %s", outputPath)
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to export results to %s: %w", outputPath, err)
		}
		return file.Close()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	const tableName = "sparql_results"
	if err := table.ToDuckDB(ctx, db, tableName); err != nil {
		return err
	}

	// COPY does not accept a bound parameter for the destination
	escapedPath := strings.ReplaceAll(outputPath, "'", "''")
	copySQL := fmt.Sprintf("COPY %s TO '%s' %s", quoteIdentifier(tableName), escapedPath, format)
	if _, err := db.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("failed to export results to %s: %w", outputPath, err)
	}
	log.Infof("Exported %d rows to %s", len(table.Rows), outputPath)
	return nil
}
