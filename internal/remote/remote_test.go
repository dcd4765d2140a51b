package remote

import "testing"

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
	}

	for _, tt := range tests {
		if got := columnLetter(tt.n); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRanges(t *testing.T) {
	if got := sheetRange("Companies", 100); got != "'Companies'!A1:ZZ100" {
		t.Errorf("sheetRange = %q", got)
	}
	if got := sheetRange("O'Brien", 0); got != "'O''Brien'!A1:ZZ5000" {
		t.Errorf("sheetRange with quote = %q", got)
	}
	if got := rowRange("Personnel", 4, 3); got != "'Personnel'!A4:C4" {
		t.Errorf("rowRange = %q", got)
	}
	if got := dataRange("Projects", 10); got != "'Projects'!A2:ZZ10" {
		t.Errorf("dataRange = %q", got)
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{float64(12), "12"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := cellText(tt.in); got != tt.want {
			t.Errorf("cellText(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFolderQuery(t *testing.T) {
	got := folderQuery("abc")
	want := "'abc' in parents and mimeType = 'application/vnd.google-apps.folder' and trashed = false"
	if got != want {
		t.Errorf("folderQuery = %q, want %q", got, want)
	}

	if got := folderQuery(""); got[:8] != "'root' i" {
		t.Errorf("folderQuery(\"\") should default to root: %q", got)
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`O'Neil \ Co`); got != `O\'Neil \\ Co` {
		t.Errorf("escapeQuery = %q", got)
	}
}
