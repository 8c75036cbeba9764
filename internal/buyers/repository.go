package buyers

import (
	"context"
	"time"
)

// PageSize is the fixed page size for list queries.
const PageSize = 10

// ListFilter narrows list and export queries. Search does substring matching
// across name/phone/email; the remaining fields match exactly.
type ListFilter struct {
	Search       string
	City         string
	PropertyType string
	Status       string
	Timeline     string
	Page         int
}

// Repository defines the interface for buyer storage
type Repository interface {
	// Create inserts a validated, normalized record plus its "created"
	// history entry. A phone/email uniqueness conflict returns
	// ErrDuplicateContact.
	Create(ctx context.Context, in *BuyerInput, ownerID string) (*Buyer, error)

	// GetByID fetches one record.
	GetByID(ctx context.Context, id string) (*Buyer, error)

	// GetHistory returns the most recent history entries, newest first.
	GetHistory(ctx context.Context, buyerID string, limit int) ([]HistoryEntry, error)

	// Update applies a full-record update guarded by the optimistic
	// concurrency token. A stored updatedAt strictly later than observed
	// returns ErrStaleWrite with nothing applied. A non-empty diff appends
	// one history entry; an empty diff appends none.
	Update(ctx context.Context, id string, in *BuyerInput, observed time.Time, actorID string) (*Buyer, error)

	// List returns one page ordered by updatedAt descending plus the total
	// match count.
	List(ctx context.Context, f ListFilter) ([]Buyer, int, error)

	// Export returns every match ordered by updatedAt descending.
	Export(ctx context.Context, f ListFilter) ([]Buyer, error)

	// ImportAll persists pre-validated records in one atomic unit of work:
	// each row inserts a lead plus an "imported_from_csv" history entry.
	// Per-row uniqueness conflicts demote to RowFailure entries; any other
	// error aborts with nothing committed.
	ImportAll(ctx context.Context, records []BuyerInput, ownerID string) (int, []RowFailure, error)
}
