package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// AllocationRepository manages loan records and the transactional return path.
type AllocationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Allocation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Allocation, error)
	ListAll(ctx context.Context) ([]domain.Allocation, error)
	Return(ctx context.Context, id string) (*domain.Allocation, error)
	MarkOverdue(ctx context.Context, asOf time.Time) ([]domain.Allocation, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	NearestReturnDue(ctx context.Context, userID string) (*time.Time, error)
}

type allocationRepository struct {
	pool *pgxpool.Pool
}

// NewAllocationRepository instantiates the repository.
func NewAllocationRepository(pool *pgxpool.Pool) AllocationRepository {
	return &allocationRepository{pool: pool}
}

const allocationSelect = `
    SELECT a.id, a.user_id, a.resource_id, a.request_id, a.assigned_date, a.return_due,
           a.returned_date, a.status, a.created_at,
           r.name, r.category,
           u.first_name || ' ' || u.last_name
    FROM allocations a
    JOIN resources r ON a.resource_id = r.id
    JOIN users u ON a.user_id = u.id`

func scanAllocation(row pgx.Row) (*domain.Allocation, error) {
	var allocation domain.Allocation
	if err := row.Scan(
		&allocation.ID,
		&allocation.UserID,
		&allocation.ResourceID,
		&allocation.RequestID,
		&allocation.AssignedDate,
		&allocation.ReturnDue,
		&allocation.ReturnedDate,
		&allocation.Status,
		&allocation.CreatedAt,
		&allocation.ResourceName,
		&allocation.ResourceCategory,
		&allocation.UserName,
	); err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (r *allocationRepository) GetByID(ctx context.Context, id string) (*domain.Allocation, error) {
	return scanAllocation(r.pool.QueryRow(ctx, allocationSelect+` WHERE a.id=$1`, id))
}

func (r *allocationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Allocation, error) {
	query := allocationSelect + ` WHERE a.user_id=$1 AND a.status != 'returned' ORDER BY a.assigned_date DESC`
	return r.collect(ctx, query, userID)
}

func (r *allocationRepository) ListAll(ctx context.Context) ([]domain.Allocation, error) {
	query := allocationSelect + ` ORDER BY a.assigned_date DESC`
	return r.collect(ctx, query)
}

func (r *allocationRepository) collect(ctx context.Context, query string, args ...any) ([]domain.Allocation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Allocation
	for rows.Next() {
		allocation, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *allocation)
	}
	return result, rows.Err()
}

// Return closes an outstanding allocation and restores resource availability in
// one transaction. The resource reverts to available once no outstanding
// allocations remain for it.
func (r *allocationRepository) Return(ctx context.Context, id string) (*domain.Allocation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var resourceID string
	var status domain.AllocationStatus
	if err := tx.QueryRow(ctx,
		`SELECT resource_id, status FROM allocations WHERE id=$1 FOR UPDATE`, id,
	).Scan(&resourceID, &status); err != nil {
		return nil, err
	}
	if !status.Outstanding() {
		return nil, ErrAllocationInactive
	}

	if _, err := tx.Exec(ctx, `
        UPDATE allocations SET status='returned', returned_date=CURRENT_DATE
        WHERE id=$1`, id); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
        UPDATE resources SET available_qty = LEAST(available_qty + 1, quantity), updated_at=NOW()
        WHERE id=$1`, resourceID); err != nil {
		return nil, err
	}

	var outstanding int
	if err := tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM allocations
        WHERE resource_id=$1 AND status IN ('active', 'overdue')`, resourceID,
	).Scan(&outstanding); err != nil {
		return nil, err
	}
	if outstanding == 0 {
		if _, err := tx.Exec(ctx, `
            UPDATE resources SET status='available', assigned_to=NULL, updated_at=NOW()
            WHERE id=$1 AND status='in-use'`, resourceID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// MarkOverdue flips active allocations past their due date and reports them.
func (r *allocationRepository) MarkOverdue(ctx context.Context, asOf time.Time) ([]domain.Allocation, error) {
	rows, err := r.pool.Query(ctx, `
        UPDATE allocations SET status='overdue'
        WHERE status='active' AND return_due IS NOT NULL AND return_due < $1
        RETURNING id, user_id, resource_id, request_id, assigned_date, return_due,
                  returned_date, status, created_at`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Allocation
	for rows.Next() {
		var allocation domain.Allocation
		if err := rows.Scan(
			&allocation.ID,
			&allocation.UserID,
			&allocation.ResourceID,
			&allocation.RequestID,
			&allocation.AssignedDate,
			&allocation.ReturnDue,
			&allocation.ReturnedDate,
			&allocation.Status,
			&allocation.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, allocation)
	}
	return result, rows.Err()
}

func (r *allocationRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM allocations
        WHERE user_id=$1 AND status IN ('active', 'overdue')`, userID).Scan(&count)
	return count, err
}

func (r *allocationRepository) NearestReturnDue(ctx context.Context, userID string) (*time.Time, error) {
	var due *time.Time
	err := r.pool.QueryRow(ctx, `
        SELECT return_due FROM allocations
        WHERE user_id=$1 AND status IN ('active', 'overdue') AND return_due IS NOT NULL
        ORDER BY return_due ASC LIMIT 1`, userID).Scan(&due)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return due, nil
}
