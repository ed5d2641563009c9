package extract

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/openrecordsets/schedproc/app/docstore"
)

// DBDumpExtractor reads SQLite dump files published by sources that expose
// their schedule data as a database export. The dump is staged to a scratch
// file and opened immutable; source bytes are never modified.
type DBDumpExtractor struct{}

func NewDBDumpExtractor() *DBDumpExtractor {
	return &DBDumpExtractor{}
}

func (e *DBDumpExtractor) Name() string {
	return "db-dump"
}

// Crosswalk from source column names to record roles. Covers the naming
// conventions seen across state export portals (rsin is the Texas series
// number column).
var columnRoles = map[string]string{
	"rsin":                      "number",
	"series_number":             "number",
	"series_no":                 "number",
	"series_id":                 "number",
	"item_number":               "number",
	"title":                     "title",
	"series_title":              "title",
	"record_title":              "title",
	"record_series_title":       "title",
	"description":               "description",
	"series_description":        "description",
	"record_series_description": "description",
	"retention":                 "retention",
	"retention_period":          "retention",
	"retention_statement":       "retention",
	"total_retention":           "retention",
	"disposition":               "disposition",
	"disposition_method":        "disposition",
	"final_disposition":         "disposition",
	"citation":                  "citation",
	"legal_citation":            "citation",
	"legal_authority":           "citation",
	"agency":                    "agency",
	"agency_name":               "agency",
	"effective_date":            "effective",
	"revised_date":              "effective",
}

func (e *DBDumpExtractor) Run(doc docstore.Document, data []byte) (*Result, error) {
	path, cleanup, err := stageDump(data)
	if err != nil {
		return nil, &ExtractionError{DocumentID: doc.ID, Err: err}
	}
	defer cleanup()

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, &ExtractionError{DocumentID: doc.ID, Err: fmt.Errorf("failed to open dump: %w", err)}
	}
	defer db.Close()

	tables, err := listTables(db)
	if err != nil {
		return nil, &ExtractionError{DocumentID: doc.ID, Err: err}
	}

	result := &Result{}
	for _, table := range tables {
		if err := e.extractTable(doc.ID, db, table, result); err != nil {
			return nil, &ExtractionError{DocumentID: doc.ID, Locator: "table " + table, Err: err}
		}
	}

	if len(result.Records) == 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			DocumentID: doc.ID,
			Message:    "no tables with recognizable schedule columns",
		})
	}

	return result, nil
}

func stageDump(data []byte) (string, func(), error) {
	tmp, err := os.CreateTemp("", "schedproc-dump-*.db")
	if err != nil {
		return "", nil, fmt.Errorf("failed to stage dump: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to stage dump: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to stage dump: %w", err)
	}

	return path, cleanup, nil
}

// listTables returns user tables in name order so extraction order never
// depends on the dump's internal layout.
func listTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (e *DBDumpExtractor) extractTable(docID string, db *sql.DB, table string, result *Result) error {
	quoted := quoteIdent(table)

	rows, err := db.Query("SELECT * FROM " + quoted + " ORDER BY rowid")
	if err != nil {
		// WITHOUT ROWID tables fall back to primary key order, which is
		// just as stable for a given dump
		rows, err = db.Query("SELECT * FROM " + quoted)
		if err != nil {
			return fmt.Errorf("failed to read table: %w", err)
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	roles := make([]string, len(columns))
	titled := false
	for i, col := range columns {
		roles[i] = columnRoles[normalizeColumn(col)]
		if roles[i] == "title" || roles[i] == "description" {
			titled = true
		}
	}
	if !titled {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			DocumentID: docID,
			Locator:    "table " + table,
			Message:    "no recognizable schedule columns",
		})
		return nil
	}

	values := make([]sql.NullString, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}

	rowIdx := 0
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		rowIdx++

		record := Record{
			Locator: fmt.Sprintf("table %s row %d", table, rowIdx),
		}
		for i, value := range values {
			if !value.Valid {
				continue
			}
			assignField(&record, roles[i], collapseSpace(value.String))
		}

		if !record.Empty() {
			result.Records = append(result.Records, record)
		}
	}

	return rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
