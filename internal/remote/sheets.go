package remote

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets is the spreadsheet capability client backed by the Google Sheets API.
// Every tab of the spreadsheet is addressed by its title.
type Sheets struct {
	spreadsheetID string
	maxRows       int

	mu  sync.RWMutex
	svc *sheets.Service
}

// NewSheets creates a Sheets client for one spreadsheet using the given token source.
func NewSheets(ctx context.Context, ts oauth2.TokenSource, spreadsheetID string, maxRows int) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	s := &Sheets{spreadsheetID: spreadsheetID, maxRows: maxRows}
	if err := s.Rebind(ctx, ts); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebind swaps the authorized service for one built from ts.
func (s *Sheets) Rebind(ctx context.Context, ts oauth2.TokenSource) error {
	svc, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return fmt.Errorf("sheets service: %w", err)
	}
	s.mu.Lock()
	s.svc = svc
	s.mu.Unlock()
	return nil
}

func (s *Sheets) service() *sheets.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.svc
}

// Values returns every row of a tab, header first, within the bounded range.
// Trailing empty cells are not returned by the API, so rows may be ragged.
func (s *Sheets) Values(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.service().Spreadsheets.Values.
		Get(s.spreadsheetID, sheetRange(sheet, s.maxRows)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", sheet, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = cellText(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteRow overwrites the row at the given 1-based position.
func (s *Sheets) WriteRow(ctx context.Context, sheet string, position int, row []string) error {
	if position < 1 {
		return fmt.Errorf("write %s row %d: %w", sheet, position, ErrRowOutOfRange)
	}
	rng := rowRange(sheet, position, len(row))
	_, err := s.service().Spreadsheets.Values.
		Update(s.spreadsheetID, rng, &sheets.ValueRange{Values: [][]any{toInterfaceRow(row)}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// AppendRow appends a row after the last non-empty row of the tab.
func (s *Sheets) AppendRow(ctx context.Context, sheet string, row []string) error {
	_, err := s.service().Spreadsheets.Values.
		Append(s.spreadsheetID, quoteSheet(sheet)+"!A1", &sheets.ValueRange{Values: [][]any{toInterfaceRow(row)}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", sheet, err)
	}
	return nil
}

// ClearData blanks every cell below the header row. The rows themselves remain.
func (s *Sheets) ClearData(ctx context.Context, sheet string) error {
	_, err := s.service().Spreadsheets.Values.
		Clear(s.spreadsheetID, dataRange(sheet, s.maxRows), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	return nil
}

// DeleteRows structurally removes rows at the given 1-based positions in a
// single batch. Positions are applied in the order given; callers deleting
// several rows must pass them in descending order.
func (s *Sheets) DeleteRows(ctx context.Context, sheet string, positions []int) error {
	if len(positions) == 0 {
		return nil
	}

	sheetID, err := s.sheetID(ctx, sheet)
	if err != nil {
		return err
	}

	requests := make([]*sheets.Request, 0, len(positions))
	for _, pos := range positions {
		if pos < 1 {
			return fmt.Errorf("delete %s row %d: %w", sheet, pos, ErrRowOutOfRange)
		}
		requests = append(requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(pos - 1),
					EndIndex:        int64(pos),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}

	_, err = s.service().Spreadsheets.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("delete rows in %s: %w", sheet, err)
	}
	return nil
}

// CreateSheet adds a new tab with the given title.
func (s *Sheets) CreateSheet(ctx context.Context, name string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	if _, err := s.service().Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

// RenameSheet changes the title of an existing tab.
func (s *Sheets) RenameSheet(ctx context.Context, oldName, newName string) error {
	sheetID, err := s.sheetID(ctx, oldName)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:         sheetID,
					Title:           newName,
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "title",
			},
		}},
	}
	if _, err := s.service().Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("rename sheet %s: %w", oldName, err)
	}
	return nil
}

// SheetNames lists the titles of every tab in the spreadsheet.
func (s *Sheets) SheetNames(ctx context.Context) ([]string, error) {
	ss, err := s.service().Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	names := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return names, nil
}

// sheetID resolves a tab title to its numeric sheet id.
func (s *Sheets) sheetID(ctx context.Context, name string) (int64, error) {
	ss, err := s.service().Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%s: %w", name, ErrSheetNotFound)
}
