package buyers

import (
	"strings"
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func validInput() BuyerInput {
	return BuyerInput{
		FullName:     "Rahul Sharma",
		Email:        "rahul@example.com",
		Phone:        "9876543210",
		City:         "CHANDIGARH",
		PropertyType: "APARTMENT",
		BHK:          "BHK2",
		Purpose:      "BUY",
		BudgetMin:    int64Ptr(5000000),
		BudgetMax:    int64Ptr(7500000),
		Timeline:     "MONTHS_3",
		Source:       "WEBSITE",
		Status:       "NEW",
		Tags:         []string{"urgent", "premium"},
	}
}

func violationFor(violations []Violation, field string) (Violation, bool) {
	for _, v := range violations {
		if v.Field == field {
			return v, true
		}
	}
	return Violation{}, false
}

func TestValidate_AcceptsValidInput(t *testing.T) {
	in := validInput()
	if violations := Validate(&in); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidate_FullName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		message string
	}{
		{"too short", "A", "Name must be at least 2 characters"},
		{"empty", "", "Name must be at least 2 characters"},
		{"too long", strings.Repeat("a", 81), "Name must be less than 80 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.FullName = tt.value
			v, ok := violationFor(Validate(&in), "fullName")
			if !ok {
				t.Fatal("expected a fullName violation")
			}
			if v.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, v.Message)
			}
		})
	}

	in := validInput()
	in.FullName = strings.Repeat("a", 80)
	if _, ok := violationFor(Validate(&in), "fullName"); ok {
		t.Error("80-character name should be accepted")
	}
}

func TestValidate_Phone(t *testing.T) {
	valid := []string{"1234567890", "123456789012345"}
	for _, p := range valid {
		in := validInput()
		in.Phone = p
		if _, ok := violationFor(Validate(&in), "phone"); ok {
			t.Errorf("phone %q should be accepted", p)
		}
	}

	invalid := []string{"", "123456789", "1234567890123456", "12345abcde", "+911234567890", "98765 43210"}
	for _, p := range invalid {
		in := validInput()
		in.Phone = p
		v, ok := violationFor(Validate(&in), "phone")
		if !ok {
			t.Errorf("phone %q should be rejected", p)
			continue
		}
		if v.Message != "Phone must be 10-15 digits" {
			t.Errorf("unexpected message for phone %q: %q", p, v.Message)
		}
	}
}

func TestValidate_EmailOptional(t *testing.T) {
	in := validInput()
	in.Email = ""
	if _, ok := violationFor(Validate(&in), "email"); ok {
		t.Error("blank email should be accepted")
	}

	in = validInput()
	in.Email = "not-an-email"
	v, ok := violationFor(Validate(&in), "email")
	if !ok {
		t.Fatal("malformed email should be rejected")
	}
	if v.Message != "Invalid email address" {
		t.Errorf("unexpected message: %q", v.Message)
	}
}

func TestValidate_EnumMembership(t *testing.T) {
	tests := []struct {
		field   string
		mutate  func(in *BuyerInput)
		message string
	}{
		{"city", func(in *BuyerInput) { in.City = "DELHI" }, "Invalid city: DELHI"},
		{"city", func(in *BuyerInput) { in.City = "" }, "City is required"},
		{"propertyType", func(in *BuyerInput) { in.PropertyType = "CASTLE" }, "Invalid property type: CASTLE"},
		{"propertyType", func(in *BuyerInput) { in.PropertyType = "" }, "Property type is required"},
		{"bhk", func(in *BuyerInput) { in.BHK = "BHK9" }, "Invalid BHK: BHK9"},
		{"purpose", func(in *BuyerInput) { in.Purpose = "LEASE" }, "Invalid purpose: LEASE"},
		{"purpose", func(in *BuyerInput) { in.Purpose = "" }, "Purpose is required"},
		{"timeline", func(in *BuyerInput) { in.Timeline = "SOMEDAY" }, "Invalid timeline: SOMEDAY"},
		{"timeline", func(in *BuyerInput) { in.Timeline = "" }, "Timeline is required"},
		{"source", func(in *BuyerInput) { in.Source = "BILLBOARD" }, "Invalid source: BILLBOARD"},
		{"source", func(in *BuyerInput) { in.Source = "" }, "Source is required"},
		{"status", func(in *BuyerInput) { in.Status = "ARCHIVED" }, "Invalid status: ARCHIVED"},
	}
	for _, tt := range tests {
		in := validInput()
		tt.mutate(&in)
		v, ok := violationFor(Validate(&in), tt.field)
		if !ok {
			t.Errorf("expected a %s violation for message %q", tt.field, tt.message)
			continue
		}
		if v.Message != tt.message {
			t.Errorf("field %s: expected %q, got %q", tt.field, tt.message, v.Message)
		}
	}
}

func TestValidate_StatusOptional(t *testing.T) {
	in := validInput()
	in.Status = ""
	if violations := Validate(&in); len(violations) != 0 {
		t.Fatalf("blank status should be accepted, got %v", violations)
	}
}

func TestValidate_BHKRequiredForResidential(t *testing.T) {
	for _, pt := range []string{"APARTMENT", "VILLA"} {
		in := validInput()
		in.PropertyType = pt
		in.BHK = ""
		v, ok := violationFor(Validate(&in), "bhk")
		if !ok {
			t.Errorf("%s without bhk should be rejected", pt)
			continue
		}
		if v.Message != "BHK is required for Apartment and Villa property types" {
			t.Errorf("unexpected message: %q", v.Message)
		}
	}

	for _, pt := range []string{"PLOT", "OFFICE", "RETAIL"} {
		in := validInput()
		in.PropertyType = pt
		in.BHK = ""
		if violations := Validate(&in); len(violations) != 0 {
			t.Errorf("%s without bhk should be accepted, got %v", pt, violations)
		}
	}
}

func TestValidate_BudgetOrdering(t *testing.T) {
	in := validInput()
	in.BudgetMin = int64Ptr(100)
	in.BudgetMax = int64Ptr(50)
	v, ok := violationFor(Validate(&in), "budgetMax")
	if !ok {
		t.Fatal("max below min should be rejected")
	}
	if v.Message != "Maximum budget must be greater than or equal to minimum budget" {
		t.Errorf("unexpected message: %q", v.Message)
	}

	// Equal budgets are allowed.
	in = validInput()
	in.BudgetMin = int64Ptr(100)
	in.BudgetMax = int64Ptr(100)
	if violations := Validate(&in); len(violations) != 0 {
		t.Errorf("equal budgets should be accepted, got %v", violations)
	}

	// Either side may be absent.
	in = validInput()
	in.BudgetMin = nil
	in.BudgetMax = int64Ptr(100)
	if violations := Validate(&in); len(violations) != 0 {
		t.Errorf("absent min should be accepted, got %v", violations)
	}

	in = validInput()
	in.BudgetMin = int64Ptr(0)
	if v, ok := violationFor(Validate(&in), "budgetMin"); !ok || v.Message != "Budget must be a positive number" {
		t.Errorf("zero budget should be rejected as non-positive, got %v", v)
	}
}

func TestValidate_FirstErrorPerField(t *testing.T) {
	in := validInput()
	in.FullName = ""
	violations := Validate(&in)
	count := 0
	for _, v := range violations {
		if v.Field == "fullName" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one fullName violation, got %d", count)
	}
}

func TestValidate_CrossFieldSkippedWhenFieldsFail(t *testing.T) {
	in := validInput()
	in.Phone = "bad"
	in.BudgetMin = int64Ptr(100)
	in.BudgetMax = int64Ptr(50)
	violations := Validate(&in)
	if _, ok := violationFor(violations, "budgetMax"); ok {
		t.Error("cross-field budget check should not run while field rules fail")
	}
}

func TestValidate_NotesLength(t *testing.T) {
	in := validInput()
	in.Notes = strings.Repeat("x", 1000)
	if violations := Validate(&in); len(violations) != 0 {
		t.Fatalf("1000-character notes should be accepted, got %v", violations)
	}

	in.Notes = strings.Repeat("x", 1001)
	v, ok := violationFor(Validate(&in), "notes")
	if !ok {
		t.Fatal("oversize notes should be rejected")
	}
	if v.Message != "Notes must be less than 1000 characters" {
		t.Errorf("unexpected message: %q", v.Message)
	}
}

func TestNormalize(t *testing.T) {
	in := validInput()
	in.FullName = "  Rahul Sharma  "
	in.Status = ""
	in.Tags = []string{" urgent ", "", "premium", "  "}

	out := Normalize(in)
	if out.FullName != "Rahul Sharma" {
		t.Errorf("expected trimmed name, got %q", out.FullName)
	}
	if out.Status != "NEW" {
		t.Errorf("expected defaulted status NEW, got %q", out.Status)
	}
	if len(out.Tags) != 2 || out.Tags[0] != "urgent" || out.Tags[1] != "premium" {
		t.Errorf("expected cleaned tags, got %v", out.Tags)
	}

	// Normalize must not touch its input.
	if in.FullName != "  Rahul Sharma  " {
		t.Error("input mutated by Normalize")
	}
}

func TestFormatViolations(t *testing.T) {
	got := FormatViolations([]Violation{
		{Field: "fullName", Message: "Name must be at least 2 characters"},
		{Field: "phone", Message: "Phone must be 10-15 digits"},
	})
	want := "fullName: Name must be at least 2 characters, phone: Phone must be 10-15 digits"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
