package watchlist_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmatlas/internal/services"
	"filmatlas/internal/watchlist"
)

const sampleExport = "Date,Name,Year,Letterboxd URI\n" +
	"2024-01-02,Parasite,2019,https://boxd.it/hTha\n" +
	"2024-01-03,\"Crouching Tiger, Hidden Dragon\",2000,https://boxd.it/1Q8q\n" +
	"2024-01-04,,2001,https://boxd.it/none\n" +
	"2024-01-05,Untitled,,https://boxd.it/none\n" +
	"2024-01-06,Short Row,1999\n"

func TestParseKeepsCompleteRowsInOrder(t *testing.T) {
	records, err := watchlist.Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := []watchlist.Record{
		{Title: "Parasite", Year: "2019", SourceURI: "https://boxd.it/hTha"},
		{Title: "Crouching Tiger, Hidden Dragon", Year: "2000", SourceURI: "https://boxd.it/1Q8q"},
		{Title: "Short Row", Year: "1999"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d: %#v", len(want), len(records), records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d = %#v, want %#v", i, records[i], want[i])
		}
	}
}

func TestParseStripsByteOrderMark(t *testing.T) {
	input := "\ufeffName,Year\nAmélie,2001\n"
	records, err := watchlist.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Amélie" {
		t.Fatalf("unexpected records %#v", records)
	}
}

func TestParseWithoutURIColumn(t *testing.T) {
	records, err := watchlist.Parse(strings.NewReader("Year,Name\n1954,Seven Samurai\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Seven Samurai" || records[0].SourceURI != "" {
		t.Fatalf("unexpected records %#v", records)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty file", ""},
		{"missing name", "Title,Year\nX,2000\n"},
		{"missing year", "Name,Released\nX,2000\n"},
		{"bare quote", "Name,Year\nab\"c,2000\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := watchlist.Parse(strings.NewReader(tc.input))
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			if records != nil {
				t.Fatalf("expected no partial records, got %#v", records)
			}
		})
	}
}

func TestRequireRecords(t *testing.T) {
	records, err := watchlist.Parse(strings.NewReader("Name,Year\n,\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if err := watchlist.RequireRecords(records); !errors.Is(err, services.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if err := watchlist.RequireRecords([]watchlist.Record{{Title: "A", Year: "1"}}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.csv")
	if err := os.WriteFile(path, []byte(sampleExport), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	records, err := watchlist.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if _, err := watchlist.ParseFile(filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse for missing file, got %v", err)
	}
}
