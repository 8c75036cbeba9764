package buyers

import (
	"encoding/json"
	"strings"
	"time"
)

// HistoryEntry is an immutable, append-only record of one mutation.
type HistoryEntry struct {
	ID        string          `json:"id"`
	BuyerID   string          `json:"buyerId"`
	ChangedBy string          `json:"changedBy"`
	ChangedAt time.Time       `json:"changedAt"`
	Diff      json.RawMessage `json:"diff"`
}

// FieldChange is the before/after pair for one changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// CreatedDiff marks a record created through the form or API.
func CreatedDiff() json.RawMessage {
	return json.RawMessage(`{"action":"created"}`)
}

// ImportedDiff marks a record created by the CSV import pipeline.
func ImportedDiff() json.RawMessage {
	return json.RawMessage(`{"action":"imported_from_csv"}`)
}

// ComputeDiff returns the fields whose incoming value differs from the stored
// record. Tags compare by their comma-joined serialized form. The concurrency
// token (updatedAt) is never part of the diff. An empty map means no history
// entry should be written.
func ComputeDiff(old *Buyer, in *BuyerInput) map[string]FieldChange {
	changes := map[string]FieldChange{}

	compare := func(field string, oldVal, newVal string) {
		if oldVal != newVal {
			changes[field] = FieldChange{Old: oldVal, New: newVal}
		}
	}

	compare("fullName", old.FullName, in.FullName)
	compare("email", old.Email, in.Email)
	compare("phone", old.Phone, in.Phone)
	compare("city", string(old.City), in.City)
	compare("propertyType", string(old.PropertyType), in.PropertyType)
	compare("bhk", string(old.BHK), in.BHK)
	compare("purpose", string(old.Purpose), in.Purpose)
	compare("timeline", string(old.Timeline), in.Timeline)
	compare("source", string(old.Source), in.Source)
	compare("status", string(old.Status), in.Status)
	compare("notes", old.Notes, in.Notes)
	compare("tags", old.TagsString(), strings.Join(in.Tags, ","))

	if !budgetEqual(old.BudgetMin, in.BudgetMin) {
		changes["budgetMin"] = FieldChange{Old: budgetValue(old.BudgetMin), New: budgetValue(in.BudgetMin)}
	}
	if !budgetEqual(old.BudgetMax, in.BudgetMax) {
		changes["budgetMax"] = FieldChange{Old: budgetValue(old.BudgetMax), New: budgetValue(in.BudgetMax)}
	}

	return changes
}

// MarshalDiff serializes a non-empty change set for storage.
func MarshalDiff(changes map[string]FieldChange) (json.RawMessage, error) {
	return json.Marshal(changes)
}

func budgetEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func budgetValue(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
