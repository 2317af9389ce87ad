// Package corpus loads the tabular source data and converts it into
// retrievable documents.
package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/log"
)

var (
	// ErrNotFound is returned when the corpus source does not exist.
	ErrNotFound = errors.New("corpus: source not found")
	// ErrMissingColumns is returned when the source lacks a required column.
	ErrMissingColumns = errors.New("corpus: missing required columns")
)

// requiredColumns are the fields every corpus row must provide.
var requiredColumns = []string{"query", "response", "intent", "domain"}

// Loader reads the corpus into memory. Implementations are pure reads with
// no retry; the caller decides how to react to failures.
type Loader interface {
	Load(ctx context.Context) ([]model.Record, error)
}

// FileLoader reads the corpus from a local CSV file.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for the CSV file at path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and parses the CSV file.
func (l *FileLoader) Load(ctx context.Context) ([]model.Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Errorf("[CorpusLoader] file not found at %s", l.path)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, l.path)
		}
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	records, err := parseCSV(f)
	if err != nil {
		return nil, err
	}
	log.Infof("[CorpusLoader] loaded %d records from %s", len(records), l.path)
	return records, nil
}

// parseCSV decodes corpus rows from r. The header row decides the column
// order; extra columns are ignored.
func parseCSV(r io.Reader) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty source", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumns, col)
		}
	}

	var records []model.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus row: %w", err)
		}
		rec := model.Record{
			Query:    field(row, colIdx["query"]),
			Response: field(row, colIdx["response"]),
			Intent:   field(row, colIdx["intent"]),
			Domain:   field(row, colIdx["domain"]),
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
