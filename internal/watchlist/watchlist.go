package watchlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"filmatlas/internal/services"
)

const (
	columnName = "Name"
	columnYear = "Year"
	columnURI  = "Letterboxd URI"
)

// Record is one watched title. Records are immutable once parsed.
type Record struct {
	Title     string `json:"title"`
	Year      string `json:"year"`
	SourceURI string `json:"source_uri,omitempty"`
}

// ParseFile reads a watch-history export from disk.
func ParseFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "watchlist", "open", path, err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads a delimited export with a header row. Name and Year columns are
// required; Letterboxd URI is optional. Rows missing a title or year are
// skipped. Any CSV syntax error fails the whole parse.
func Parse(r io.Reader) ([]Record, error) {
	decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrParse, "watchlist", "read header", "header row required", nil)
		}
		return nil, services.Wrap(services.ErrParse, "watchlist", "read header", "", err)
	}
	cols := indexColumns(header)
	nameIdx, ok := cols[columnName]
	if !ok {
		return nil, services.Wrap(services.ErrParse, "watchlist", "read header", "missing column "+columnName, nil)
	}
	yearIdx, ok := cols[columnYear]
	if !ok {
		return nil, services.Wrap(services.ErrParse, "watchlist", "read header", "missing column "+columnYear, nil)
	}
	uriIdx, hasURI := cols[columnURI]

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrParse, "watchlist", "read row", "", err)
		}
		rec := Record{
			Title: field(row, nameIdx),
			Year:  field(row, yearIdx),
		}
		if rec.Title == "" || rec.Year == "" {
			continue
		}
		if hasURI {
			rec.SourceURI = field(row, uriIdx)
		}
		records = append(records, rec)
	}
	return records, nil
}

// RequireRecords returns ErrEmptyInput when a parsed file yielded nothing to
// look up.
func RequireRecords(records []Record) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: no rows with both %s and %s", services.ErrEmptyInput, columnName, columnYear)
	}
	return nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}
	return cols
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
