// Package remote provides the capability clients for the two remote stores
// used as the system's persistence: a spreadsheet acting as a set of tables
// and a folder tree acting as blob storage.
//
// Each store has a Google-backed client ([Sheets], [Drive]) and an in-memory
// counterpart ([MemoryGrid], [MemoryFolders]) with identical semantics, used
// by tests and by the "memory" backend for local development.
//
// Clients are stateless capability handles. The only mutable state they hold
// is the authorized service, which is swapped with Rebind when the token
// changes.
package remote

import (
	"errors"
	"fmt"
	"strings"
)

// FolderMimeType is the Drive MIME type identifying folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// DefaultMaxRows bounds the range fetched when reading a whole tab.
const DefaultMaxRows = 5000

var (
	// ErrSheetNotFound is returned when a tab does not exist in the spreadsheet.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrFolderNotFound is returned when no folder matches a lookup.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrRowOutOfRange is returned when a row position lies outside the grid.
	ErrRowOutOfRange = errors.New("row out of range")
)

// Folder is a node of the remote folder tree.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

// columnLetter converts a 1-based column number to its A1 letter form
// (1 -> A, 26 -> Z, 27 -> AA).
func columnLetter(n int) string {
	if n < 1 {
		n = 1
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// quoteSheet quotes a tab title for use in an A1 range.
func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// sheetRange returns the bounded A1 range covering a whole tab.
func sheetRange(sheet string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return fmt.Sprintf("%s!A1:ZZ%d", quoteSheet(sheet), maxRows)
}

// rowRange returns the A1 range for a single row of the given width.
func rowRange(sheet string, position, width int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), position, columnLetter(width), position)
}

// dataRange returns the A1 range of every row below the header.
func dataRange(sheet string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return fmt.Sprintf("%s!A2:ZZ%d", quoteSheet(sheet), maxRows)
}

// cellText renders a cell returned by the remote store as text.
func cellText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// toInterfaceRow converts a string row to the representation expected by
// the Sheets API.
func toInterfaceRow(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
