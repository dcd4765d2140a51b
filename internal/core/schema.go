package core

// schema.go maps between the positional rows of a tab and header-keyed
// records. Cells are opaque text: nothing is trimmed, parsed or coerced.

// Record maps header names to cell values for one data row.
type Record map[string]string

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// row is a live data row together with its 1-based sheet position.
type row struct {
	position int
	record   Record
}

// ToRecords zips each data row positionally against headerRow. Short rows
// are padded with "", cells past the last header are ignored, and rows whose
// first cell is empty are dropped.
func ToRecords(headerRow []string, dataRows [][]string) ([]Record, error) {
	if !hasHeader(headerRow) {
		return nil, &SchemaError{Reason: "header row is empty"}
	}
	records := make([]Record, 0, len(dataRows))
	for _, r := range dataRows {
		if isLive(r) {
			records = append(records, zip(headerRow, r))
		}
	}
	return records, nil
}

// ToRow projects rec onto headers, substituting "" for absent keys.
func ToRow(headers []string, rec Record) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = rec[h]
	}
	return out
}

// parseGrid splits a raw tab (header first) into its header row and live
// rows with their sheet positions. It also reports the position of the last
// row holding any value, so appends never land on top of data.
func parseGrid(table string, grid [][]string) (headers []string, rows []row, lastUsed int, err error) {
	if len(grid) == 0 || !hasHeader(grid[0]) {
		return nil, nil, 0, &SchemaError{Table: table, Reason: "header row is empty"}
	}
	headers = grid[0]
	lastUsed = 1
	for i, r := range grid[1:] {
		pos := i + 2
		if !isBlank(r) {
			lastUsed = pos
		}
		if isLive(r) {
			rows = append(rows, row{position: pos, record: zip(headers, r)})
		}
	}
	return headers, rows, lastUsed, nil
}

func zip(headers, values []string) Record {
	rec := make(Record, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(values) {
			rec[h] = values[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}

func hasHeader(headerRow []string) bool {
	return !isBlank(headerRow)
}

func isLive(r []string) bool {
	return len(r) > 0 && r[0] != ""
}

func isBlank(r []string) bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}
