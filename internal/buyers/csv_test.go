package buyers

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestParseCSV(t *testing.T) {
	input := "fullName,phone,city\nRahul, 9876543210 ,CHANDIGARH\nAnita,9876501234,MOHALI\n"
	rows, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["phone"] != "9876543210" {
		t.Errorf("expected trimmed cell, got %q", rows[0]["phone"])
	}
	if rows[1]["city"] != "MOHALI" {
		t.Errorf("unexpected second row: %v", rows[1])
	}
}

func TestParseCSV_Empty(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected an error for missing header")
	}
}

func TestParseCSV_MalformedRow(t *testing.T) {
	input := "fullName,phone\n\"unterminated,123\n"
	if _, err := ParseCSV(strings.NewReader(input)); err == nil {
		t.Fatal("expected an error for malformed row")
	}
}

func TestValidateBatch_InvalidEnumReportsRowNumber(t *testing.T) {
	rows := []map[string]string{
		{"fullName": "Rahul Sharma", "phone": "9876543210", "city": "CHANDIGARH", "propertyType": "PLOT", "purpose": "BUY", "timeline": "IMMEDIATE", "source": "WEBSITE"},
		{"fullName": "Anita Verma", "phone": "9876501234", "city": "INVALID", "propertyType": "PLOT", "purpose": "BUY", "timeline": "IMMEDIATE", "source": "WEBSITE"},
		{"fullName": "Vikram Singh", "phone": "9876512345", "city": "MOHALI", "propertyType": "PLOT", "purpose": "RENT", "timeline": "EXPLORING", "source": "CALL"},
	}

	valid, failed := ValidateBatch(rows)
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid rows, got %d", len(valid))
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed row, got %d", len(failed))
	}
	// Header is row 1, so the second data row is row 3.
	if failed[0].Row != 3 {
		t.Errorf("expected row 3, got %d", failed[0].Row)
	}
	if failed[0].Error != "Invalid city: INVALID" {
		t.Errorf("unexpected error: %q", failed[0].Error)
	}
}

func TestValidateBatch_FieldErrorsUseFieldPrefix(t *testing.T) {
	rows := []map[string]string{
		{"fullName": "R", "phone": "123", "city": "MOHALI", "propertyType": "PLOT", "purpose": "BUY", "timeline": "IMMEDIATE", "source": "WEBSITE"},
	}
	_, failed := ValidateBatch(rows)
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed row, got %d", len(failed))
	}
	want := "fullName: Name must be at least 2 characters, phone: Phone must be 10-15 digits"
	if failed[0].Error != want {
		t.Errorf("expected %q, got %q", want, failed[0].Error)
	}
}

func TestValidateBatch_PreservesOrder(t *testing.T) {
	rows := []map[string]string{
		{"fullName": "First Lead", "phone": "1111111111", "city": "BAD1", "propertyType": "PLOT", "purpose": "BUY", "timeline": "IMMEDIATE", "source": "WEBSITE"},
		{"fullName": "Second Lead", "phone": "2222222222", "city": "BAD2", "propertyType": "PLOT", "purpose": "BUY", "timeline": "IMMEDIATE", "source": "WEBSITE"},
	}
	_, failed := ValidateBatch(rows)
	if len(failed) != 2 || failed[0].Row != 2 || failed[1].Row != 3 {
		t.Fatalf("expected ordered failures for rows 2 and 3, got %v", failed)
	}
}

func TestWriteCSV(t *testing.T) {
	created := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	records := []Buyer{{
		FullName:     "Rahul Sharma",
		Email:        "rahul@example.com",
		Phone:        "9876543210",
		City:         CityChandigarh,
		PropertyType: PropertyApartment,
		BHK:          BHK2,
		Purpose:      PurposeBuy,
		BudgetMin:    int64Ptr(5000000),
		Timeline:     TimelineMonths3,
		Source:       SourceWebsite,
		Status:       StatusNew,
		Tags:         []string{"vip", "urgent"},
		OwnerName:    "Demo User",
		CreatedAt:    created,
		UpdatedAt:    created,
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(parsed))
	}

	wantHeader := []string{
		"Full Name", "Email", "Phone", "City", "Property Type", "BHK", "Purpose",
		"Budget Min", "Budget Max", "Timeline", "Source", "Status", "Notes",
		"Tags", "Owner", "Created At", "Updated At",
	}
	for i, col := range wantHeader {
		if parsed[0][i] != col {
			t.Errorf("header column %d: expected %q, got %q", i, col, parsed[0][i])
		}
	}

	row := parsed[1]
	if row[0] != "Rahul Sharma" || row[7] != "5000000" || row[8] != "" {
		t.Errorf("unexpected row: %v", row)
	}
	if row[13] != "vip,urgent" {
		t.Errorf("expected joined tags, got %q", row[13])
	}
	if row[14] != "Demo User" {
		t.Errorf("expected owner name, got %q", row[14])
	}
	if row[15] != "2025-01-15T10:30:00Z" {
		t.Errorf("expected RFC3339 timestamp, got %q", row[15])
	}
}
