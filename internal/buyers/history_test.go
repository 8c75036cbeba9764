package buyers

import (
	"encoding/json"
	"testing"
)

func storedBuyer() *Buyer {
	return &Buyer{
		FullName:     "Rahul Sharma",
		Email:        "rahul@example.com",
		Phone:        "9876543210",
		City:         CityChandigarh,
		PropertyType: PropertyApartment,
		BHK:          BHK2,
		Purpose:      PurposeBuy,
		BudgetMin:    int64Ptr(5000000),
		BudgetMax:    int64Ptr(7500000),
		Timeline:     TimelineMonths3,
		Source:       SourceWebsite,
		Status:       StatusNew,
		Notes:        "old notes",
		Tags:         []string{"vip"},
	}
}

func inputMatching(b *Buyer) BuyerInput {
	return BuyerInput{
		FullName:     b.FullName,
		Email:        b.Email,
		Phone:        b.Phone,
		City:         string(b.City),
		PropertyType: string(b.PropertyType),
		BHK:          string(b.BHK),
		Purpose:      string(b.Purpose),
		BudgetMin:    b.BudgetMin,
		BudgetMax:    b.BudgetMax,
		Timeline:     string(b.Timeline),
		Source:       string(b.Source),
		Status:       string(b.Status),
		Notes:        b.Notes,
		Tags:         append([]string(nil), b.Tags...),
	}
}

func TestComputeDiff_NoChanges(t *testing.T) {
	old := storedBuyer()
	in := inputMatching(old)
	if diff := ComputeDiff(old, &in); len(diff) != 0 {
		t.Fatalf("identical input should produce an empty diff, got %v", diff)
	}
}

func TestComputeDiff_SingleField(t *testing.T) {
	old := storedBuyer()
	in := inputMatching(old)
	in.Notes = "new notes"

	diff := ComputeDiff(old, &in)
	if len(diff) != 1 {
		t.Fatalf("expected one changed field, got %v", diff)
	}
	change, ok := diff["notes"]
	if !ok {
		t.Fatal("expected a notes change")
	}
	if change.Old != "old notes" || change.New != "new notes" {
		t.Errorf("unexpected change: %+v", change)
	}
}

func TestComputeDiff_TagsCompareJoined(t *testing.T) {
	old := storedBuyer()
	in := inputMatching(old)

	// Same joined form, different slice identity: not a change.
	in.Tags = []string{"vip"}
	if diff := ComputeDiff(old, &in); len(diff) != 0 {
		t.Fatalf("equal tags should not diff, got %v", diff)
	}

	in.Tags = []string{"vip", "urgent"}
	diff := ComputeDiff(old, &in)
	change, ok := diff["tags"]
	if !ok {
		t.Fatal("expected a tags change")
	}
	if change.Old != "vip" || change.New != "vip,urgent" {
		t.Errorf("unexpected tags change: %+v", change)
	}
}

func TestComputeDiff_BudgetPointers(t *testing.T) {
	old := storedBuyer()
	in := inputMatching(old)

	in.BudgetMin = int64Ptr(5000000) // same value, different pointer
	if diff := ComputeDiff(old, &in); len(diff) != 0 {
		t.Fatalf("equal budgets should not diff, got %v", diff)
	}

	in.BudgetMin = nil
	diff := ComputeDiff(old, &in)
	change, ok := diff["budgetMin"]
	if !ok {
		t.Fatal("expected a budgetMin change")
	}
	if change.Old != int64(5000000) || change.New != nil {
		t.Errorf("unexpected budget change: %+v", change)
	}
}

func TestMarshalDiff(t *testing.T) {
	raw, err := MarshalDiff(map[string]FieldChange{
		"status": {Old: "NEW", New: "QUALIFIED"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("diff is not valid json: %v", err)
	}
	if decoded["status"]["old"] != "NEW" || decoded["status"]["new"] != "QUALIFIED" {
		t.Errorf("unexpected payload: %v", decoded)
	}
}

func TestActionDiffs(t *testing.T) {
	for name, raw := range map[string]json.RawMessage{
		"created":           CreatedDiff(),
		"imported_from_csv": ImportedDiff(),
	} {
		var decoded map[string]string
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s diff is not valid json: %v", name, err)
		}
		if decoded["action"] != name {
			t.Errorf("expected action %q, got %q", name, decoded["action"])
		}
	}
}
