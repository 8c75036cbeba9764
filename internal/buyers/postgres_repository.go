package buyers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it
// in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores buyers in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("buyers: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const buyerSelect = `
	SELECT b.id, b.full_name, b.email, b.phone, b.city, b.property_type, b.bhk,
	       b.purpose, b.budget_min, b.budget_max, b.timeline, b.source, b.status,
	       b.notes, b.tags, b.owner_id, COALESCE(NULLIF(u.name, ''), u.email),
	       b.created_at, b.updated_at
	FROM buyers b
	JOIN users u ON u.id = b.owner_id`

func scanBuyer(row pgx.Row) (*Buyer, error) {
	var b Buyer
	var email, bhk, notes *string
	var tags string
	if err := row.Scan(
		&b.ID, &b.FullName, &email, &b.Phone, &b.City, &b.PropertyType, &bhk,
		&b.Purpose, &b.BudgetMin, &b.BudgetMax, &b.Timeline, &b.Source, &b.Status,
		&notes, &tags, &b.OwnerID, &b.OwnerName, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if email != nil {
		b.Email = *email
	}
	if bhk != nil {
		b.BHK = BHK(*bhk)
	}
	if notes != nil {
		b.Notes = *notes
	}
	b.Tags = splitTags(tags)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}

// Create inserts a new row plus its "created" history entry in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, in *BuyerInput, ownerID string) (*Buyer, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("buyers: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := insertBuyer(ctx, tx, in, ownerID)
	if err != nil {
		return nil, err
	}
	if err := insertHistory(ctx, tx, b.ID, ownerID, CreatedDiff()); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("buyers: commit failed: %w", err)
	}
	return b, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertBuyer(ctx context.Context, q execer, in *BuyerInput, ownerID string) (*Buyer, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO buyers (id, full_name, email, phone, city, property_type, bhk,
		    purpose, budget_min, budget_max, timeline, source, status, notes, tags, owner_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	err := q.QueryRow(ctx, query,
		id, in.FullName, nullIfEmpty(in.Email), in.Phone, in.City, in.PropertyType,
		nullIfEmpty(in.BHK), in.Purpose, in.BudgetMin, in.BudgetMax, in.Timeline,
		in.Source, in.Status, nullIfEmpty(in.Notes), strings.Join(in.Tags, ","), ownerID,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateContact
		}
		return nil, fmt.Errorf("buyers: insert failed: %w", err)
	}

	return &Buyer{
		ID:           id,
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		City:         City(in.City),
		PropertyType: PropertyType(in.PropertyType),
		BHK:          BHK(in.BHK),
		Purpose:      Purpose(in.Purpose),
		BudgetMin:    in.BudgetMin,
		BudgetMax:    in.BudgetMax,
		Timeline:     Timeline(in.Timeline),
		Source:       Source(in.Source),
		Status:       Status(in.Status),
		Notes:        in.Notes,
		Tags:         in.Tags,
		OwnerID:      ownerID,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func insertHistory(ctx context.Context, q execer, buyerID, actorID string, diff []byte) error {
	_, err := q.Exec(ctx, `
		INSERT INTO buyer_history (id, buyer_id, changed_by, diff)
		VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), buyerID, actorID, diff)
	if err != nil {
		return fmt.Errorf("buyers: insert history failed: %w", err)
	}
	return nil
}

// GetByID fetches a buyer with its owner display name resolved.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Buyer, error) {
	b, err := scanBuyer(r.db.QueryRow(ctx, buyerSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBuyerNotFound
		}
		return nil, fmt.Errorf("buyers: select failed: %w", err)
	}
	return b, nil
}

// GetHistory returns the newest history entries for a buyer.
func (r *PostgresRepository) GetHistory(ctx context.Context, buyerID string, limit int) ([]HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, buyer_id, changed_by, changed_at, diff
		FROM buyer_history WHERE buyer_id = $1
		ORDER BY changed_at DESC LIMIT $2`, buyerID, limit)
	if err != nil {
		return nil, fmt.Errorf("buyers: history select failed: %w", err)
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.BuyerID, &e.ChangedBy, &e.ChangedAt, &e.Diff); err != nil {
			return nil, fmt.Errorf("buyers: history scan failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update applies a full-record update under the optimistic concurrency check
// and appends a history entry when anything changed.
func (r *PostgresRepository) Update(ctx context.Context, id string, in *BuyerInput, observed time.Time, actorID string) (*Buyer, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("buyers: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	old, err := scanBuyer(tx.QueryRow(ctx, buyerSelect+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBuyerNotFound
		}
		return nil, fmt.Errorf("buyers: select for update failed: %w", err)
	}
	if old.OwnerID != actorID {
		return nil, ErrForbidden
	}
	if old.UpdatedAt.After(observed) {
		return nil, ErrStaleWrite
	}

	changes := ComputeDiff(old, in)

	var updatedAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE buyers SET
		    full_name = $2, email = $3, phone = $4, city = $5, property_type = $6,
		    bhk = $7, purpose = $8, budget_min = $9, budget_max = $10,
		    timeline = $11, source = $12, status = $13, notes = $14, tags = $15,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		id, in.FullName, nullIfEmpty(in.Email), in.Phone, in.City, in.PropertyType,
		nullIfEmpty(in.BHK), in.Purpose, in.BudgetMin, in.BudgetMax, in.Timeline,
		in.Source, in.Status, nullIfEmpty(in.Notes), strings.Join(in.Tags, ","),
	).Scan(&updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateContact
		}
		return nil, fmt.Errorf("buyers: update failed: %w", err)
	}

	if len(changes) > 0 {
		diff, err := MarshalDiff(changes)
		if err != nil {
			return nil, fmt.Errorf("buyers: marshal diff failed: %w", err)
		}
		if err := insertHistory(ctx, tx, id, actorID, diff); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("buyers: commit failed: %w", err)
	}

	updated := *old
	applyInput(&updated, in)
	updated.UpdatedAt = updatedAt
	return &updated, nil
}

// List returns one page ordered by most recently updated plus the total count.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Buyer, int, error) {
	where, args := buildFilter(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM buyers b` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("buyers: count failed: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf("%s%s ORDER BY b.updated_at DESC LIMIT %d OFFSET %d",
		buyerSelect, where, PageSize, (page-1)*PageSize)
	out, err := r.queryBuyers(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Export returns every matching record ordered by most recently updated.
func (r *PostgresRepository) Export(ctx context.Context, f ListFilter) ([]Buyer, error) {
	where, args := buildFilter(f)
	return r.queryBuyers(ctx, buyerSelect+where+" ORDER BY b.updated_at DESC", args)
}

func (r *PostgresRepository) queryBuyers(ctx context.Context, query string, args []any) ([]Buyer, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("buyers: list failed: %w", err)
	}
	defer rows.Close()

	out := []Buyer{}
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, fmt.Errorf("buyers: list scan failed: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func buildFilter(f ListFilter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(b.full_name ILIKE %s OR b.phone LIKE %s OR b.email ILIKE %s)", p, p, p))
	}
	if f.City != "" {
		conds = append(conds, "b.city = "+arg(f.City))
	}
	if f.PropertyType != "" {
		conds = append(conds, "b.property_type = "+arg(f.PropertyType))
	}
	if f.Status != "" {
		conds = append(conds, "b.status = "+arg(f.Status))
	}
	if f.Timeline != "" {
		conds = append(conds, "b.timeline = "+arg(f.Timeline))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ImportAll persists pre-validated records inside one transaction. Each row
// gets a savepoint so a uniqueness conflict rolls back only that row and is
// demoted to a RowFailure; any other error aborts the whole batch.
func (r *PostgresRepository) ImportAll(ctx context.Context, records []BuyerInput, ownerID string) (int, []RowFailure, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("buyers: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	successCount := 0
	var failed []RowFailure
	for i := range records {
		rec := &records[i]
		sp, err := tx.Begin(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("buyers: savepoint failed: %w", err)
		}
		b, err := insertBuyer(ctx, sp, rec, ownerID)
		if err == nil {
			err = insertHistory(ctx, sp, b.ID, ownerID, ImportedDiff())
		}
		if err != nil {
			_ = sp.Rollback(ctx)
			if errors.Is(err, ErrDuplicateContact) || isUniqueViolation(err) {
				failed = append(failed, RowFailure{
					Row:   i + 2,
					Error: "Phone number or email already exists",
					Data:  rec,
				})
				continue
			}
			return 0, nil, err
		}
		if err := sp.Commit(ctx); err != nil {
			return 0, nil, fmt.Errorf("buyers: savepoint commit failed: %w", err)
		}
		successCount++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, fmt.Errorf("buyers: commit failed: %w", err)
	}
	return successCount, failed, nil
}

func applyInput(b *Buyer, in *BuyerInput) {
	b.FullName = in.FullName
	b.Email = in.Email
	b.Phone = in.Phone
	b.City = City(in.City)
	b.PropertyType = PropertyType(in.PropertyType)
	b.BHK = BHK(in.BHK)
	b.Purpose = Purpose(in.Purpose)
	b.BudgetMin = in.BudgetMin
	b.BudgetMax = in.BudgetMax
	b.Timeline = Timeline(in.Timeline)
	b.Source = Source(in.Source)
	b.Status = Status(in.Status)
	b.Notes = in.Notes
	b.Tags = in.Tags
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
