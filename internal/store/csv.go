package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/labelminer/labelminer/internal/model"
)

// Table is the persisted working dataset. Rows are mutated in place during
// reconciliation and the whole table is flushed at once, so an interrupt can
// never leave a half-written row; at worst the last flush is replayed.
type Table struct {
	path    string
	Records []*model.ProductRecord
}

// Load reads the table from path. A missing or empty file yields an empty
// table; resumption starts fresh.
func Load(path string) (*Table, error) {
	t := &Table{path: path}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, &t.Records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return t, nil
		}
		return nil, fmt.Errorf("parse table: %w", err)
	}
	return t, nil
}

// Save writes the whole table atomically: a temp file in the same directory
// is renamed over the target so readers never observe a partial write.
func (t *Table) Save() error {
	tmp, err := os.CreateTemp(dirOf(t.path), ".table-*.csv")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	tmpName := tmp.Name()

	if err := gocsv.MarshalFile(&t.Records, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Records)
}

// HasSearchTerm reports whether any row originated from the given search
// term, meaning the term's search pages were already materialized.
func (t *Table) HasSearchTerm(term string) bool {
	for _, r := range t.Records {
		if r.SearchTerm == term {
			return true
		}
	}
	return false
}

// Append adds rows to the table.
func (t *Table) Append(records []*model.ProductRecord) {
	t.Records = append(t.Records, records...)
}

// NextSeq returns the sequence number for the next appended row.
func (t *Table) NextSeq() int {
	return len(t.Records) + 1
}

func dirOf(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx > 0 {
		return path[:idx]
	}
	return "."
}

// LoadKeywords reads search terms from a keywords CSV. The terms live in the
// second column (the first carries row labels); single-column files are
// accepted as a bare list. The header row is skipped and blank cells dropped.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keywords: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("keywords file has no data rows")
	}

	var keywords []string
	for _, row := range rows[1:] {
		var term string
		switch {
		case len(row) >= 2:
			term = strings.TrimSpace(row[1])
		case len(row) == 1:
			term = strings.TrimSpace(row[0])
		}
		if term != "" {
			keywords = append(keywords, term)
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("keywords file has no usable terms")
	}
	return keywords, nil
}
