package buyers

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var phoneRe = regexp.MustCompile(`^\d{10,15}$`)

// fieldRule is one predicate+message pair. Rules for a field run in order and
// stop at the first failure for that field; all fields are still attempted.
type fieldRule struct {
	field   string
	ok      func(in *BuyerInput) bool
	message func(in *BuyerInput) string
}

func staticMsg(s string) func(*BuyerInput) string {
	return func(*BuyerInput) string { return s }
}

var fieldRules = []fieldRule{
	{"fullName", func(in *BuyerInput) bool { return utf8.RuneCountInString(in.FullName) >= 2 },
		staticMsg("Name must be at least 2 characters")},
	{"fullName", func(in *BuyerInput) bool { return utf8.RuneCountInString(in.FullName) <= 80 },
		staticMsg("Name must be less than 80 characters")},
	{"phone", func(in *BuyerInput) bool { return phoneRe.MatchString(in.Phone) },
		staticMsg("Phone must be 10-15 digits")},
	{"email", func(in *BuyerInput) bool { return in.Email == "" || validEmail(in.Email) },
		staticMsg("Invalid email address")},
	{"city", func(in *BuyerInput) bool { return in.City != "" },
		staticMsg("City is required")},
	{"city", func(in *BuyerInput) bool { return memberOf(Cities, in.City) },
		func(in *BuyerInput) string { return fmt.Sprintf("Invalid city: %s", in.City) }},
	{"propertyType", func(in *BuyerInput) bool { return in.PropertyType != "" },
		staticMsg("Property type is required")},
	{"propertyType", func(in *BuyerInput) bool { return memberOf(PropertyTypes, in.PropertyType) },
		func(in *BuyerInput) string { return fmt.Sprintf("Invalid property type: %s", in.PropertyType) }},
	{"bhk", func(in *BuyerInput) bool { return in.BHK == "" || memberOf(BHKs, in.BHK) },
		func(in *BuyerInput) string { return fmt.Sprintf("Invalid BHK: %s", in.BHK) }},
	{"purpose", func(in *BuyerInput) bool { return in.Purpose != "" },
		staticMsg("Purpose is required")},
	{"purpose", func(in *BuyerInput) bool { return memberOf(Purposes, in.Purpose) },
		func(in *BuyerInput) string { return fmt.Sprintf("Invalid purpose: %s", in.Purpose) }},
	{"budgetMin", func(in *BuyerInput) bool { return in.BudgetMin == nil || *in.BudgetMin > 0 },
		staticMsg("Budget must be a positive number")},
	{"budgetMax", func(in *BuyerInput) bool { return in.BudgetMax == nil || *in.BudgetMax > 0 },
		staticMsg("Budget must be a positive number")},
	{"timeline", func(in *BuyerInput) bool { return in.Timeline != "" },
		staticMsg("Timeline is required")},
	{"timeline", func(in *BuyerInput) bool { return memberOf(Timelines, in.Timeline) },
		func(in *BuyerInput) string { return fmt.Sprintf("Invalid timeline: %s", in.Timeline) }},
	{"source", func(in *BuyerInput) bool { return in.Source != "" },
		staticMsg("Source is required")},
	{"source", func(in *BuyerInput) bool { return memberOf(Sources, in.Source) },
		func(in *BuyerInput) string { return fmt.Sprintf("Invalid source: %s", in.Source) }},
	{"status", func(in *BuyerInput) bool { return in.Status == "" || memberOf(Statuses, in.Status) },
		func(in *BuyerInput) string { return fmt.Sprintf("Invalid status: %s", in.Status) }},
	{"notes", func(in *BuyerInput) bool { return utf8.RuneCountInString(in.Notes) <= 1000 },
		staticMsg("Notes must be less than 1000 characters")},
}

// Validate runs the per-field rules (first error per field, all fields
// attempted), then the cross-field invariants only once every per-field rule
// passed. It performs no normalization.
func Validate(in *BuyerInput) []Violation {
	var violations []Violation
	failed := map[string]bool{}
	for _, r := range fieldRules {
		if failed[r.field] {
			continue
		}
		if !r.ok(in) {
			failed[r.field] = true
			violations = append(violations, Violation{Field: r.field, Message: r.message(in)})
		}
	}
	if len(violations) > 0 {
		return violations
	}

	if PropertyType(in.PropertyType).RequiresBHK() && in.BHK == "" {
		violations = append(violations, Violation{
			Field:   "bhk",
			Message: "BHK is required for Apartment and Villa property types",
		})
	}
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMax < *in.BudgetMin {
		violations = append(violations, Violation{
			Field:   "budgetMax",
			Message: "Maximum budget must be greater than or equal to minimum budget",
		})
	}
	return violations
}

// Normalize returns the canonical form of a validated input: trimmed non-empty
// tags, defaulted status, blank email kept absent. Pure; Validate must have
// passed first.
func Normalize(in BuyerInput) BuyerInput {
	out := in
	out.FullName = strings.TrimSpace(in.FullName)
	out.Email = strings.TrimSpace(in.Email)
	out.Notes = strings.TrimSpace(in.Notes)
	if out.Status == "" {
		out.Status = string(StatusNew)
	}
	out.Tags = normalizeTags(in.Tags)
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// FormatViolations renders violations the way row-level import errors report
// them: "field: message" pairs joined by commas.
func FormatViolations(violations []Violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return strings.Join(parts, ", ")
}
