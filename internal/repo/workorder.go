package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetdesk-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrWorkOrderNotFound = errors.New("work order not found in organization")

// ListWorkOrdersParams filters and paginates work order listings.
type ListWorkOrdersParams struct {
	OrganizationID string
	TeamID         *string
	Status         *domain.WorkOrderStatus
	AssigneeID     *string
	Cursor         *string
	Limit          int
}

// WorkOrderRepository handles database operations for work orders.
type WorkOrderRepository struct {
	pool *pgxpool.Pool
}

func NewWorkOrderRepository(pool *pgxpool.Pool) *WorkOrderRepository {
	return &WorkOrderRepository{pool: pool}
}

const workOrderColumns = `
	id, organization_id, team_id, equipment_id, title, description,
	status, priority, created_by, assignee_id, due_date, completed_at,
	created_at, updated_at, deleted_at
`

func scanWorkOrder(row pgx.Row) (*domain.WorkOrder, error) {
	var w domain.WorkOrder
	err := row.Scan(
		&w.ID, &w.OrganizationID, &w.TeamID, &w.EquipmentID, &w.Title,
		&w.Description, &w.Status, &w.Priority, &w.CreatedBy, &w.AssigneeID,
		&w.DueDate, &w.CompletedAt, &w.CreatedAt, &w.UpdatedAt, &w.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a new work order in submitted state.
func (r *WorkOrderRepository) Create(ctx context.Context, id, organizationID, createdBy string, req domain.CreateWorkOrderRequest) (*domain.WorkOrder, error) {
	priority := domain.WorkOrderPriorityMedium
	if req.Priority != nil {
		priority = *req.Priority
	}

	query := `
		INSERT INTO work_orders (
			id, organization_id, team_id, equipment_id, title, description,
			status, priority, created_by, due_date
		) VALUES ($1, $2, $3, $4, $5, $6, 'submitted', $7, $8, $9)
		RETURNING ` + workOrderColumns

	w, err := scanWorkOrder(r.pool.QueryRow(ctx, query,
		id, organizationID, req.TeamID, req.EquipmentID, req.Title,
		req.Description, priority, createdBy, req.DueDate,
	))
	if err != nil {
		return nil, fmt.Errorf("insert work order: %w", err)
	}

	return w, nil
}

// Get retrieves one work order within an organization.
func (r *WorkOrderRepository) Get(ctx context.Context, organizationID, workOrderID string) (*domain.WorkOrder, error) {
	query := `
		SELECT ` + workOrderColumns + `
		FROM work_orders
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	w, err := scanWorkOrder(r.pool.QueryRow(ctx, query, workOrderID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, fmt.Errorf("query work order: %w", err)
	}

	return w, nil
}

// List retrieves work orders with cursor-based pagination ordered by
// created_at descending.
func (r *WorkOrderRepository) List(ctx context.Context, params ListWorkOrdersParams) ([]domain.WorkOrder, string, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT ` + workOrderColumns + `
		FROM work_orders
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND ($2::text IS NULL OR team_id = $2)
		  AND ($3::work_order_status IS NULL OR status = $3)
		  AND ($4::text IS NULL OR assignee_id = $4)
		  AND ($5::timestamptz IS NULL OR created_at < $5)
		ORDER BY created_at DESC
		LIMIT $6
	`

	var cursorTime *time.Time
	if params.Cursor != nil && *params.Cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, *params.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor format: %w", err)
		}
		cursorTime = &t
	}

	rows, err := r.pool.Query(ctx, query,
		params.OrganizationID, params.TeamID, params.Status,
		params.AssigneeID, cursorTime, limit+1,
	)
	if err != nil {
		return nil, "", fmt.Errorf("query work order list: %w", err)
	}
	defer rows.Close()

	var items []domain.WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan work order: %w", err)
		}
		items = append(items, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate work orders: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		items = items[:limit]
		nextCursor = items[len(items)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return items, nextCursor, nil
}

// Update edits work order fields (PATCH semantics). Status and assignee have
// dedicated methods so their rules stay in one place.
func (r *WorkOrderRepository) Update(ctx context.Context, organizationID, workOrderID string, req domain.UpdateWorkOrderRequest) (*domain.WorkOrder, error) {
	query := `
		UPDATE work_orders
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    priority = COALESCE($5, priority),
		    due_date = COALESCE($6, due_date),
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING ` + workOrderColumns

	w, err := scanWorkOrder(r.pool.QueryRow(ctx, query,
		workOrderID, organizationID, req.Title, req.Description,
		req.Priority, req.DueDate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, fmt.Errorf("update work order: %w", err)
	}

	return w, nil
}

// UpdateStatus moves a work order to a new lifecycle state. Transition
// validity is checked by the service layer; completed_at is stamped when the
// order reaches completed.
func (r *WorkOrderRepository) UpdateStatus(ctx context.Context, organizationID, workOrderID string, status domain.WorkOrderStatus) (*domain.WorkOrder, error) {
	query := `
		UPDATE work_orders
		SET status = $3,
		    completed_at = CASE WHEN $3 = 'completed' THEN now() ELSE completed_at END,
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING ` + workOrderColumns

	w, err := scanWorkOrder(r.pool.QueryRow(ctx, query, workOrderID, organizationID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, fmt.Errorf("update work order status: %w", err)
	}

	return w, nil
}

// Assign sets or clears the assignee.
func (r *WorkOrderRepository) Assign(ctx context.Context, organizationID, workOrderID string, assigneeID *string) (*domain.WorkOrder, error) {
	query := `
		UPDATE work_orders
		SET assignee_id = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING ` + workOrderColumns

	w, err := scanWorkOrder(r.pool.QueryRow(ctx, query, workOrderID, organizationID, assigneeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, fmt.Errorf("assign work order: %w", err)
	}

	return w, nil
}

// SoftDelete marks a work order as deleted.
func (r *WorkOrderRepository) SoftDelete(ctx context.Context, organizationID, workOrderID string) error {
	query := `
		UPDATE work_orders
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, workOrderID, organizationID)
	if err != nil {
		return fmt.Errorf("delete work order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkOrderNotFound
	}

	return nil
}

// CountByStatus aggregates non-deleted work orders per status for analytics.
func (r *WorkOrderRepository) CountByStatus(ctx context.Context, organizationID string) (map[domain.WorkOrderStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM work_orders
		WHERE organization_id = $1 AND deleted_at IS NULL
		GROUP BY status
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query work order status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.WorkOrderStatus]int)
	for rows.Next() {
		var status domain.WorkOrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan work order status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work order status counts: %w", err)
	}

	return counts, nil
}

// CountByTeam aggregates non-deleted work orders per team for analytics.
func (r *WorkOrderRepository) CountByTeam(ctx context.Context, organizationID string) (map[string]int, error) {
	query := `
		SELECT team_id, COUNT(*)
		FROM work_orders
		WHERE organization_id = $1 AND deleted_at IS NULL
		GROUP BY team_id
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query work order team counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var teamID string
		var count int
		if err := rows.Scan(&teamID, &count); err != nil {
			return nil, fmt.Errorf("scan work order team count: %w", err)
		}
		counts[teamID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work order team counts: %w", err)
	}

	return counts, nil
}

// CountByPriority aggregates non-deleted work orders per priority for
// analytics.
func (r *WorkOrderRepository) CountByPriority(ctx context.Context, organizationID string) (map[domain.WorkOrderPriority]int, error) {
	query := `
		SELECT priority, COUNT(*)
		FROM work_orders
		WHERE organization_id = $1 AND deleted_at IS NULL
		GROUP BY priority
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query work order priority counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.WorkOrderPriority]int)
	for rows.Next() {
		var priority domain.WorkOrderPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("scan work order priority count: %w", err)
		}
		counts[priority] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work order priority counts: %w", err)
	}

	return counts, nil
}

// ListReportRows streams the flattened work order report used by the CSV
// export (premium feature).
func (r *WorkOrderRepository) ListReportRows(ctx context.Context, organizationID string) ([]domain.WorkOrderReportRow, error) {
	query := `
		SELECT w.id, w.team_id, w.equipment_id, e.name, w.title, w.status,
		       w.priority, w.created_by, w.assignee_id, w.created_at, w.completed_at
		FROM work_orders w
		JOIN equipment e ON e.id = w.equipment_id
		WHERE w.organization_id = $1 AND w.deleted_at IS NULL
		ORDER BY w.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query work order report: %w", err)
	}
	defer rows.Close()

	var report []domain.WorkOrderReportRow
	for rows.Next() {
		var row domain.WorkOrderReportRow
		var createdAt time.Time
		var completedAt *time.Time
		err := rows.Scan(
			&row.WorkOrderID, &row.TeamID, &row.EquipmentID, &row.EquipmentName,
			&row.Title, &row.Status, &row.Priority, &row.CreatedBy,
			&row.AssigneeID, &createdAt, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan work order report row: %w", err)
		}
		row.CreatedAt = createdAt.Format(time.RFC3339)
		if completedAt != nil {
			formatted := completedAt.Format(time.RFC3339)
			row.CompletedAt = &formatted
		}
		report = append(report, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work order report: %w", err)
	}

	return report, nil
}
