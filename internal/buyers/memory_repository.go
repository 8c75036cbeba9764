package buyers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a Repository backed by process memory. It powers
// handler tests and the USE_MEMORY_STORE development mode.
type InMemoryRepository struct {
	mu        sync.RWMutex
	buyers    map[string]*Buyer
	histories map[string][]HistoryEntry
	owners    map[string]string // owner id -> display name
	now       func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		buyers:    make(map[string]*Buyer),
		histories: make(map[string][]HistoryEntry),
		owners:    make(map[string]string),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetOwnerName registers a display name used when resolving records.
func (r *InMemoryRepository) SetOwnerName(ownerID, name string) {
	r.mu.Lock()
	r.owners[ownerID] = name
	r.mu.Unlock()
}

// SetClock overrides the time source, for tests.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *InMemoryRepository) hasContactLocked(phone, email, excludeID string) bool {
	for id, b := range r.buyers {
		if id == excludeID {
			continue
		}
		if b.Phone == phone {
			return true
		}
		if email != "" && b.Email == email {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) buildLocked(in *BuyerInput, ownerID string, now time.Time) *Buyer {
	b := &Buyer{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		OwnerName: r.owners[ownerID],
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(b, in)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b
}

func (r *InMemoryRepository) appendHistoryLocked(buyerID, actorID string, diff []byte, at time.Time) {
	r.histories[buyerID] = append(r.histories[buyerID], HistoryEntry{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		ChangedBy: actorID,
		ChangedAt: at,
		Diff:      diff,
	})
}

// Create inserts a record plus its "created" history entry.
func (r *InMemoryRepository) Create(ctx context.Context, in *BuyerInput, ownerID string) (*Buyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasContactLocked(in.Phone, in.Email, "") {
		return nil, ErrDuplicateContact
	}
	now := r.now()
	b := r.buildLocked(in, ownerID, now)
	r.buyers[b.ID] = b
	r.appendHistoryLocked(b.ID, ownerID, CreatedDiff(), now)

	copied := *b
	return &copied, nil
}

// GetByID retrieves a buyer by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buyers[id]
	if !ok {
		return nil, ErrBuyerNotFound
	}
	copied := *b
	return &copied, nil
}

// GetHistory returns the newest entries first.
func (r *InMemoryRepository) GetHistory(ctx context.Context, buyerID string, limit int) ([]HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := append([]HistoryEntry(nil), r.histories[buyerID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ChangedAt.After(entries[j].ChangedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Update applies a guarded full-record update.
func (r *InMemoryRepository) Update(ctx context.Context, id string, in *BuyerInput, observed time.Time, actorID string) (*Buyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buyers[id]
	if !ok {
		return nil, ErrBuyerNotFound
	}
	if b.OwnerID != actorID {
		return nil, ErrForbidden
	}
	if b.UpdatedAt.After(observed) {
		return nil, ErrStaleWrite
	}
	if r.hasContactLocked(in.Phone, in.Email, id) {
		return nil, ErrDuplicateContact
	}

	changes := ComputeDiff(b, in)

	now := r.now()
	applyInput(b, in)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	b.UpdatedAt = now

	if len(changes) > 0 {
		diff, err := MarshalDiff(changes)
		if err != nil {
			return nil, err
		}
		r.appendHistoryLocked(id, actorID, diff, now)
	}

	copied := *b
	return &copied, nil
}

func matchesFilter(b *Buyer, f ListFilter) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.FullName), q) &&
			!strings.Contains(b.Phone, f.Search) &&
			!strings.Contains(strings.ToLower(b.Email), q) {
			return false
		}
	}
	if f.City != "" && string(b.City) != f.City {
		return false
	}
	if f.PropertyType != "" && string(b.PropertyType) != f.PropertyType {
		return false
	}
	if f.Status != "" && string(b.Status) != f.Status {
		return false
	}
	if f.Timeline != "" && string(b.Timeline) != f.Timeline {
		return false
	}
	return true
}

func (r *InMemoryRepository) filteredLocked(f ListFilter) []Buyer {
	out := []Buyer{}
	for _, b := range r.buyers {
		if matchesFilter(b, f) {
			out = append(out, *b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// List returns one page ordered by most recently updated.
func (r *InMemoryRepository) List(ctx context.Context, f ListFilter) ([]Buyer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.filteredLocked(f)
	total := len(all)

	page := f.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// Export returns every match ordered by most recently updated.
func (r *InMemoryRepository) Export(ctx context.Context, f ListFilter) ([]Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filteredLocked(f), nil
}

// ImportAll stages all rows and commits only at the end, so a demoted
// duplicate never leaves partial sibling state behind.
func (r *InMemoryRepository) ImportAll(ctx context.Context, records []BuyerInput, ownerID string) (int, []RowFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	staged := []*Buyer{}
	var failed []RowFailure
	for i := range records {
		rec := &records[i]
		dup := r.hasContactLocked(rec.Phone, rec.Email, "")
		for _, s := range staged {
			if s.Phone == rec.Phone || (rec.Email != "" && s.Email == rec.Email) {
				dup = true
				break
			}
		}
		if dup {
			failed = append(failed, RowFailure{
				Row:   i + 2,
				Error: "Phone number or email already exists",
				Data:  rec,
			})
			continue
		}
		staged = append(staged, r.buildLocked(rec, ownerID, now))
	}

	for _, b := range staged {
		r.buyers[b.ID] = b
		r.appendHistoryLocked(b.ID, ownerID, ImportedDiff(), now)
	}
	return len(staged), failed, nil
}
