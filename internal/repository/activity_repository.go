package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// ActivityFilter narrows audit queries.
type ActivityFilter struct {
	UserID *string
	Action *domain.ActivityAction
	Limit  int
	Offset int
}

// ActivityRepository stores the append-only audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, entry *domain.Activity) error
	Recent(ctx context.Context, limit int) ([]domain.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]domain.Activity, int, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Insert(ctx context.Context, entry *domain.Activity) error {
	const query = `
        INSERT INTO activity_log (user_id, action, details, entity_type, entity_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Details,
		entry.EntityType,
		entry.EntityID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

const activitySelect = `
    SELECT al.id, al.user_id, al.action, al.details, al.entity_type, al.entity_id, al.created_at,
           u.first_name || ' ' || u.last_name
    FROM activity_log al
    LEFT JOIN users u ON al.user_id = u.id`

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var entry domain.Activity
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Action,
		&entry.Details,
		&entry.EntityType,
		&entry.EntityID,
		&entry.CreatedAt,
		&entry.UserName,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *activityRepository) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`%s ORDER BY al.created_at DESC LIMIT %d`, activitySelect, limit)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]domain.Activity, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("al.user_id=$%d", len(args)))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		clauses = append(clauses, fmt.Sprintf("al.action=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log al WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY al.created_at DESC LIMIT %d OFFSET %d`,
		activitySelect, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectActivities(rows)
	return result, total, err
}

func collectActivities(rows pgx.Rows) ([]domain.Activity, error) {
	var result []domain.Activity
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}
