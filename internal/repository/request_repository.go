package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// Lifecycle sentinels surfaced by the transactional operations.
var (
	ErrRequestNotPending  = errors.New("request is not pending")
	ErrResourceExhausted  = errors.New("resource has no available units")
	ErrAllocationInactive = errors.New("allocation is not outstanding")
)

// RequestFilter captures listing parameters.
type RequestFilter struct {
	UserID *string
	Status *domain.RequestStatus
	Limit  int
	Offset int
}

// RequestRepository encapsulates request persistence, including the
// transactional approve path that keeps resource quantities consistent.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, int, error)
	Counts(ctx context.Context, userID *string) (*domain.RequestCounts, error)
	Approve(ctx context.Context, id, reviewerID, adminNote string, returnDue time.Time) (*domain.Request, *domain.Allocation, error)
	Reject(ctx context.Context, id, reviewerID, adminNote string) (*domain.Request, error)
	Cancel(ctx context.Context, id string) (*domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (user_id, resource_id, reason, priority, needed_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, status, admin_note, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.UserID,
		request.ResourceID,
		request.Reason,
		request.Priority,
		request.NeededBy,
	).Scan(&request.ID, &request.Status, &request.AdminNote, &request.CreatedAt, &request.UpdatedAt)
}

const requestSelect = `
    SELECT req.id, req.user_id, req.resource_id, req.reason, req.priority, req.needed_by,
           req.status, req.admin_note, req.reviewed_by, req.created_at, req.updated_at,
           res.name, res.category,
           u.first_name || ' ' || u.last_name, u.email,
           rev.first_name || ' ' || rev.last_name
    FROM requests req
    JOIN resources res ON req.resource_id = res.id
    JOIN users u ON req.user_id = u.id
    LEFT JOIN users rev ON req.reviewed_by = rev.id`

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var request domain.Request
	if err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.ResourceID,
		&request.Reason,
		&request.Priority,
		&request.NeededBy,
		&request.Status,
		&request.AdminNote,
		&request.ReviewedBy,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.ResourceName,
		&request.ResourceCategory,
		&request.UserName,
		&request.UserEmail,
		&request.ReviewerName,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	return scanRequest(r.pool.QueryRow(ctx, requestSelect+` WHERE req.id=$1`, id))
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("req.user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("req.status=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requests req WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY req.created_at DESC LIMIT %d OFFSET %d`,
		requestSelect, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *request)
	}
	return result, total, rows.Err()
}

func (r *requestRepository) Counts(ctx context.Context, userID *string) (*domain.RequestCounts, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='pending'),
               COUNT(*) FILTER (WHERE status='approved'),
               COUNT(*) FILTER (WHERE status='rejected')
        FROM requests`
	args := []any{}
	if userID != nil {
		query += ` WHERE user_id=$1`
		args = append(args, *userID)
	}
	var counts domain.RequestCounts
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&counts.Total,
		&counts.Pending,
		&counts.Approved,
		&counts.Rejected,
	); err != nil {
		return nil, err
	}
	return &counts, nil
}

// Approve performs the full approval inside one transaction: the request row is
// locked, the availability decrement is a conditional update so two concurrent
// approvals cannot both consume the last unit, and the allocation is created
// before commit.
func (r *requestRepository) Approve(ctx context.Context, id, reviewerID, adminNote string, returnDue time.Time) (*domain.Request, *domain.Allocation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var userID, resourceID string
	var status domain.RequestStatus
	if err := tx.QueryRow(ctx,
		`SELECT user_id, resource_id, status FROM requests WHERE id=$1 FOR UPDATE`, id,
	).Scan(&userID, &resourceID, &status); err != nil {
		return nil, nil, err
	}
	if status != domain.RequestStatusPending {
		return nil, nil, ErrRequestNotPending
	}

	cmd, err := tx.Exec(ctx, `
        UPDATE resources SET
            available_qty = available_qty - 1,
            status = CASE WHEN available_qty - 1 = 0 THEN 'in-use' ELSE status END,
            updated_at = NOW()
        WHERE id=$1 AND available_qty > 0`, resourceID)
	if err != nil {
		return nil, nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, nil, ErrResourceExhausted
	}

	if _, err := tx.Exec(ctx, `
        UPDATE requests SET status='approved', reviewed_by=$1, admin_note=$2, updated_at=NOW()
        WHERE id=$3`, reviewerID, adminNote, id); err != nil {
		return nil, nil, err
	}

	allocation := &domain.Allocation{
		UserID:     userID,
		ResourceID: resourceID,
		RequestID:  &id,
	}
	due := returnDue
	allocation.ReturnDue = &due
	if err := tx.QueryRow(ctx, `
        INSERT INTO allocations (user_id, resource_id, request_id, return_due)
        VALUES ($1,$2,$3,$4)
        RETURNING id, assigned_date, status, created_at`,
		userID, resourceID, id, returnDue,
	).Scan(&allocation.ID, &allocation.AssignedDate, &allocation.Status, &allocation.CreatedAt); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	request, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return request, allocation, nil
}

func (r *requestRepository) Reject(ctx context.Context, id, reviewerID, adminNote string) (*domain.Request, error) {
	return r.decide(ctx, id, domain.RequestStatusRejected, &reviewerID, adminNote)
}

func (r *requestRepository) Cancel(ctx context.Context, id string) (*domain.Request, error) {
	return r.decide(ctx, id, domain.RequestStatusCancelled, nil, "")
}

// decide flips a pending request into a terminal state. The status guard in the
// WHERE clause makes the transition atomic; a zero-row update is disambiguated
// into not-found vs wrong-state.
func (r *requestRepository) decide(ctx context.Context, id string, status domain.RequestStatus, reviewerID *string, adminNote string) (*domain.Request, error) {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE requests SET status=$1, reviewed_by=COALESCE($2, reviewed_by), admin_note=$3, updated_at=NOW()
        WHERE id=$4 AND status='pending'`, status, reviewerID, adminNote, id)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		var current domain.RequestStatus
		if err := r.pool.QueryRow(ctx, `SELECT status FROM requests WHERE id=$1`, id).Scan(&current); err != nil {
			return nil, err
		}
		return nil, ErrRequestNotPending
	}
	return r.GetByID(ctx, id)
}
