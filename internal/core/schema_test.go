package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToRecords(t *testing.T) {
	headers := []string{"id", "name", "email"}
	rows := [][]string{
		{"1", "A", "a@x"},
		{"2", "B"},
		{"", "ghost", "g@x"},
		{},
		{"3", "C", "c@x", "extra"},
	}

	got, err := ToRecords(headers, rows)
	if err != nil {
		t.Fatalf("ToRecords() error = %v", err)
	}

	want := []Record{
		{"id": "1", "name": "A", "email": "a@x"},
		{"id": "2", "name": "B", "email": ""},
		{"id": "3", "name": "C", "email": "c@x"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToRecords() mismatch (-want +got):\n%s", diff)
	}
}

func TestToRecords_EmptyHeader(t *testing.T) {
	for _, headers := range [][]string{nil, {}, {"", ""}} {
		_, err := ToRecords(headers, [][]string{{"1"}})
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Errorf("ToRecords(%q) error = %v, want SchemaError", headers, err)
		}
	}
}

func TestToRecords_NoCoercion(t *testing.T) {
	got, err := ToRecords([]string{"id", "amount"}, [][]string{{"007", " 1,000.50 "}})
	if err != nil {
		t.Fatalf("ToRecords() error = %v", err)
	}
	if got[0]["id"] != "007" || got[0]["amount"] != " 1,000.50 " {
		t.Errorf("cells should be kept verbatim, got %v", got[0])
	}
}

func TestToRow(t *testing.T) {
	headers := []string{"id", "name", "email"}
	got := ToRow(headers, Record{"email": "e", "id": "9", "unknown": "x"})
	want := []string{"9", "", "e"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToRow() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	headers := []string{"id", "name", "phone", "email"}
	rows := [][]string{
		{"1", "A", "555", "a@x"},
		{"2", "B", "555"},
		{"3"},
		{"4", "", "", "d@x"},
	}

	for _, r := range rows {
		records, err := ToRecords(headers, [][]string{r})
		if err != nil {
			t.Fatalf("ToRecords(%q) error = %v", r, err)
		}
		got := ToRow(headers, records[0])

		want := make([]string, len(headers))
		copy(want, r)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip of %q mismatch (-want +got):\n%s", r, diff)
		}
	}
}

func TestParseGrid_Positions(t *testing.T) {
	grid := [][]string{
		{"id", "name"},
		{"1", "A"},
		{"", ""},
		{"3", "C"},
		{},
	}
	_, rows, lastUsed, err := parseGrid("T", grid)
	if err != nil {
		t.Fatalf("parseGrid() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("live rows = %d, want 2", len(rows))
	}
	if rows[0].position != 2 || rows[1].position != 4 {
		t.Errorf("positions = %d,%d, want 2,4", rows[0].position, rows[1].position)
	}
	if lastUsed != 4 {
		t.Errorf("lastUsed = %d, want 4", lastUsed)
	}
}
