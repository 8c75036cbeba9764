package buyers

import (
	"strconv"
	"strings"
)

// columnAliases maps each canonical field to the accepted CSV column names,
// canonical lowerCamel first so it wins when both are present.
var columnAliases = map[string][]string{
	"fullName":     {"fullName", "Full Name"},
	"email":        {"email", "Email"},
	"phone":        {"phone", "Phone"},
	"city":         {"city", "City"},
	"propertyType": {"propertyType", "Property Type"},
	"bhk":          {"bhk", "BHK"},
	"purpose":      {"purpose", "Purpose"},
	"budgetMin":    {"budgetMin", "Budget Min"},
	"budgetMax":    {"budgetMax", "Budget Max"},
	"timeline":     {"timeline", "Timeline"},
	"source":       {"source", "Source"},
	"status":       {"status", "Status"},
	"notes":        {"notes", "Notes"},
	"tags":         {"tags", "Tags"},
}

func pick(row map[string]string, field string) string {
	for _, name := range columnAliases[field] {
		if v, ok := row[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

// RowToInput maps one raw CSV row onto the candidate record shape. Enum
// columns pass through as raw strings for the validator to reject; budgets
// parse to integers with unparsable or empty values treated as absent.
func RowToInput(row map[string]string) BuyerInput {
	return BuyerInput{
		FullName:     pick(row, "fullName"),
		Email:        pick(row, "email"),
		Phone:        pick(row, "phone"),
		City:         pick(row, "city"),
		PropertyType: pick(row, "propertyType"),
		BHK:          pick(row, "bhk"),
		Purpose:      pick(row, "purpose"),
		BudgetMin:    parseBudget(pick(row, "budgetMin")),
		BudgetMax:    parseBudget(pick(row, "budgetMax")),
		Timeline:     pick(row, "timeline"),
		Source:       pick(row, "source"),
		Status:       pick(row, "status"),
		Notes:        pick(row, "notes"),
		Tags:         splitTags(pick(row, "tags")),
	}
}

func parseBudget(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Non-numeric budgets are treated as absent, not as errors.
		return nil
	}
	return &n
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return normalizeTags(strings.Split(s, ","))
}
