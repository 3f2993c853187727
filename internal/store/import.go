package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table describes an importable table.
type Table struct {
	Name     string
	Key      []string
	Columns  []string
	Nullable map[string]bool
}

var tables = map[string]Table{
	"district":  {Name: "district", Key: []string{"id"}, Columns: []string{"id", "name"}},
	"assembly":  {Name: "assembly", Key: []string{"id"}, Columns: []string{"id", "district_id", "number", "name"}},
	"localbody": {Name: "localbody", Key: []string{"id"}, Columns: []string{"id", "district_id", "name", "type"}},
	"booth": {
		Name:     "booth",
		Key:      []string{"id"},
		Columns:  []string{"id", "assembly_id", "number", "suffix", "name", "localbody_id", "winnable", "gap_percent", "verdict"},
		Nullable: map[string]bool{"localbody_id": true, "winnable": true, "gap_percent": true, "verdict": true},
	},
	"ward": {
		Name:     "ward",
		Key:      []string{"id"},
		Columns:  []string{"id", "localbody_id", "number", "name", "assembly_id", "winnable", "gap_percent", "verdict"},
		Nullable: map[string]bool{"assembly_id": true, "winnable": true, "gap_percent": true, "verdict": true},
	},
	"booth_vote": {Name: "booth_vote", Key: []string{"booth_id", "candidate"}, Columns: []string{"booth_id", "candidate", "party", "alliance", "votes"}},
	"ward_vote":  {Name: "ward_vote", Key: []string{"ward_id", "candidate"}, Columns: []string{"ward_id", "candidate", "party", "alliance", "votes"}},
}

// TableNames lists the importable tables.
func TableNames() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupTable returns the import description of a table.
func LookupTable(name string) (Table, bool) {
	t, ok := tables[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// ReadCSV reads all records of a CSV file. The first record is the header.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

// ReadXLSX reads the rows of the first sheet of a workbook. The first row is
// the header.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		// Best-effort close of a read-only workbook.
		_ = f.Close()
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ImportFile loads a .csv or .xlsx file into table.
func (s *Store) ImportFile(ctx context.Context, table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() {
		// Best-effort close of a read-only file.
		_ = f.Close()
	}()

	var records [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = ReadCSV(f)
	case ".xlsx":
		records, err = ReadXLSX(f)
	default:
		return 0, fmt.Errorf("unsupported import file %q (use .csv or .xlsx)", path)
	}
	if err != nil {
		return 0, err
	}
	return s.Import(ctx, table, records)
}

// Import upserts records into table by its key. The first record names the
// columns; columns missing from the header keep their stored values.
func (s *Store) Import(ctx context.Context, table string, records [][]string) (int, error) {
	t, ok := LookupTable(table)
	if !ok {
		return 0, fmt.Errorf("unknown table %q (use one of %s)", table, strings.Join(TableNames(), ", "))
	}
	if len(records) == 0 {
		return 0, nil
	}
	header, err := t.header(records[0])
	if err != nil {
		return 0, err
	}
	query := s.db.Rebind(t.upsertQuery(header))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	count := 0
	for i, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		args := make([]interface{}, len(header))
		for j, col := range header {
			value := ""
			if j < len(record) {
				value = strings.TrimSpace(record[j])
			}
			if value == "" && t.Nullable[col] {
				args[j] = nil
				continue
			}
			args[j] = value
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to import %s row %d: %w", t.Name, i+2, err)
		}
		count++
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return count, nil
}

func (t Table) header(raw []string) ([]string, error) {
	known := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		known[c] = true
	}
	seen := make(map[string]bool, len(raw))
	header := make([]string, 0, len(raw))
	for _, h := range raw {
		col := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if !known[col] {
			return nil, fmt.Errorf("unknown %s column %q", t.Name, h)
		}
		if seen[col] {
			return nil, fmt.Errorf("duplicate %s column %q", t.Name, h)
		}
		seen[col] = true
		header = append(header, col)
	}
	for _, k := range t.Key {
		if !seen[k] {
			return nil, fmt.Errorf("%s import requires column %q", t.Name, k)
		}
	}
	return header, nil
}

func (t Table) upsertQuery(header []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	keys := make(map[string]bool, len(t.Key))
	for _, k := range t.Key {
		keys[k] = true
	}
	var updates []string
	for _, col := range header {
		if !keys[col] {
			updates = append(updates, col+" = excluded."+col)
		}
	}
	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		t.Name, strings.Join(header, ", "), placeholders, strings.Join(t.Key, ", "), conflict)
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
