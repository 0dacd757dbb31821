package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// ResourceFilter captures catalog search parameters.
type ResourceFilter struct {
	Search        *string
	Category      *domain.ResourceCategory
	Status        *domain.ResourceStatus
	OnlyAvailable bool
	Limit         int
	Offset        int
}

// ResourceStats aggregates catalog totals by status.
type ResourceStats struct {
	Total       int            `json:"total"`
	Available   int            `json:"available"`
	InUse       int            `json:"in_use"`
	Maintenance int            `json:"maintenance"`
	Retired     int            `json:"retired"`
	Categories  map[string]int `json:"categories"`
}

// CategoryCost is one row of the admin cost overview.
type CategoryCost struct {
	Category  domain.ResourceCategory `json:"category"`
	TotalCost float64                 `json:"total_cost"`
	Count     int                     `json:"count"`
}

// ResourceRepository encapsulates catalog persistence.
type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	Update(ctx context.Context, resource *domain.Resource) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context, filter ResourceFilter) ([]domain.Resource, int, error)
	Stats(ctx context.Context) (*ResourceStats, error)
	CostOverview(ctx context.Context) ([]CategoryCost, error)
}

type resourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository instantiates the repository.
func NewResourceRepository(pool *pgxpool.Pool) ResourceRepository {
	return &resourceRepository{pool: pool}
}

const resourceColumns = `id, name, description, category, status, quantity, available_qty, cost_per_unit, assigned_to, created_at, updated_at`

func (r *resourceRepository) Create(ctx context.Context, resource *domain.Resource) error {
	const query = `
        INSERT INTO resources (name, description, category, status, quantity, available_qty, cost_per_unit)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		resource.Name,
		resource.Description,
		resource.Category,
		resource.Status,
		resource.Quantity,
		resource.AvailableQty,
		resource.CostPerUnit,
	).Scan(&resource.ID, &resource.CreatedAt, &resource.UpdatedAt)
}

func (r *resourceRepository) Update(ctx context.Context, resource *domain.Resource) error {
	const query = `
        UPDATE resources SET name=$1, description=$2, category=$3, status=$4, quantity=$5,
            available_qty=$6, cost_per_unit=$7, assigned_to=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		resource.Name,
		resource.Description,
		resource.Category,
		resource.Status,
		resource.Quantity,
		resource.AvailableQty,
		resource.CostPerUnit,
		resource.AssignedTo,
		resource.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *resourceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id=$1`
	var resource domain.Resource
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&resource.ID,
		&resource.Name,
		&resource.Description,
		&resource.Category,
		&resource.Status,
		&resource.Quantity,
		&resource.AvailableQty,
		&resource.CostPerUnit,
		&resource.AssignedTo,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepository) List(ctx context.Context, filter ResourceFilter) ([]domain.Resource, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.OnlyAvailable {
		clauses = append(clauses, "available_qty > 0")
	}

	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM resources WHERE `+where, args...).Scan(&total); err != nil {
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

	query := fmt.Sprintf(`SELECT %s FROM resources WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		resourceColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Resource
	for rows.Next() {
		var resource domain.Resource
		if err := rows.Scan(
			&resource.ID,
			&resource.Name,
			&resource.Description,
			&resource.Category,
			&resource.Status,
			&resource.Quantity,
			&resource.AvailableQty,
			&resource.CostPerUnit,
			&resource.AssignedTo,
			&resource.CreatedAt,
			&resource.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, resource)
	}
	return result, total, rows.Err()
}

func (r *resourceRepository) Stats(ctx context.Context) (*ResourceStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='available'),
               COUNT(*) FILTER (WHERE status='in-use'),
               COUNT(*) FILTER (WHERE status='maintenance'),
               COUNT(*) FILTER (WHERE status='retired')
        FROM resources`
	stats := &ResourceStats{Categories: map[string]int{}}
	if err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Available,
		&stats.InUse,
		&stats.Maintenance,
		&stats.Retired,
	); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM resources GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.Categories[category] = count
	}
	return stats, rows.Err()
}

func (r *resourceRepository) CostOverview(ctx context.Context) ([]CategoryCost, error) {
	const query = `
        SELECT category, COALESCE(SUM(cost_per_unit * quantity), 0), COUNT(*)
        FROM resources GROUP BY category ORDER BY category`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCost
	for rows.Next() {
		var row CategoryCost
		if err := rows.Scan(&row.Category, &row.TotalCost, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
