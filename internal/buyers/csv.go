package buyers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// MaxImportRows is the hard cap on data rows per import batch.
const MaxImportRows = 200

// RowFailure reports one rejected import row with its 1-based position in the
// file (the header occupies row 1, so the first data row is 2).
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
	Data  any    `json:"data"`
}

// ImportResult is the outcome of one import request. It is never persisted.
type ImportResult struct {
	Success      bool         `json:"success"`
	TotalRows    int          `json:"totalRows"`
	SuccessCount int          `json:"successCount"`
	FailedRows   []RowFailure `json:"failedRows"`
}

// ParseCSV reads comma-separated text into header-keyed row maps. A header
// row is required; blank lines are skipped and cell values are trimmed.
func ParseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("buyers: missing csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("buyers: malformed csv row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ValidateBatch normalizes and validates every row without short-circuiting.
// Both output slices preserve input order; failures carry 1-based row numbers
// offset by the header row.
func ValidateBatch(rows []map[string]string) (valid []BuyerInput, failed []RowFailure) {
	for i, row := range rows {
		in := RowToInput(row)
		if msg, bad := invalidEnumMessage(&in); bad {
			failed = append(failed, RowFailure{Row: i + 2, Error: msg, Data: row})
			continue
		}
		if violations := Validate(&in); len(violations) > 0 {
			failed = append(failed, RowFailure{Row: i + 2, Error: FormatViolations(violations), Data: row})
			continue
		}
		valid = append(valid, Normalize(in))
	}
	return valid, failed
}

// invalidEnumMessage checks non-empty enum columns for membership before full
// validation so a bad enum value is reported on its own, naming the field and
// the offending value.
func invalidEnumMessage(in *BuyerInput) (string, bool) {
	switch {
	case in.City != "" && !memberOf(Cities, in.City):
		return fmt.Sprintf("Invalid city: %s", in.City), true
	case in.PropertyType != "" && !memberOf(PropertyTypes, in.PropertyType):
		return fmt.Sprintf("Invalid property type: %s", in.PropertyType), true
	case in.BHK != "" && !memberOf(BHKs, in.BHK):
		return fmt.Sprintf("Invalid BHK: %s", in.BHK), true
	case in.Purpose != "" && !memberOf(Purposes, in.Purpose):
		return fmt.Sprintf("Invalid purpose: %s", in.Purpose), true
	case in.Timeline != "" && !memberOf(Timelines, in.Timeline):
		return fmt.Sprintf("Invalid timeline: %s", in.Timeline), true
	case in.Source != "" && !memberOf(Sources, in.Source):
		return fmt.Sprintf("Invalid source: %s", in.Source), true
	case in.Status != "" && !memberOf(Statuses, in.Status):
		return fmt.Sprintf("Invalid status: %s", in.Status), true
	}
	return "", false
}

// exportColumns is the fixed header order for CSV export.
var exportColumns = []string{
	"Full Name", "Email", "Phone", "City", "Property Type", "BHK", "Purpose",
	"Budget Min", "Budget Max", "Timeline", "Source", "Status", "Notes",
	"Tags", "Owner", "Created At", "Updated At",
}

// WriteCSV renders buyers as comma-separated text with the fixed export
// header set, owner resolved to a display name.
func WriteCSV(w io.Writer, records []Buyer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("buyers: write csv header: %w", err)
	}
	for i := range records {
		b := &records[i]
		row := []string{
			b.FullName,
			b.Email,
			b.Phone,
			string(b.City),
			string(b.PropertyType),
			string(b.BHK),
			string(b.Purpose),
			budgetString(b.BudgetMin),
			budgetString(b.BudgetMax),
			string(b.Timeline),
			string(b.Source),
			string(b.Status),
			b.Notes,
			b.TagsString(),
			b.OwnerName,
			b.CreatedAt.UTC().Format(time.RFC3339),
			b.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("buyers: write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func budgetString(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
