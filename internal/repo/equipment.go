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

var ErrEquipmentNotFound = errors.New("equipment not found in organization")

// ListEquipmentParams filters and paginates equipment listings.
// Cursor-based pagination ordered by created_at descending.
type ListEquipmentParams struct {
	OrganizationID string
	TeamID         *string
	Status         *domain.EquipmentStatus
	Cursor         *string
	Limit          int
}

// EquipmentRepository handles database operations for equipment assets.
// Multi-tenant isolation is enforced by the organization_id filter on every
// query.
type EquipmentRepository struct {
	pool *pgxpool.Pool
}

func NewEquipmentRepository(pool *pgxpool.Pool) *EquipmentRepository {
	return &EquipmentRepository{pool: pool}
}

const equipmentColumns = `
	id, organization_id, team_id, name, description, serial_number, model,
	manufacturer, location, status, created_by, purchased_at,
	created_at, updated_at, deleted_at
`

func scanEquipment(row pgx.Row) (*domain.Equipment, error) {
	var e domain.Equipment
	err := row.Scan(
		&e.ID, &e.OrganizationID, &e.TeamID, &e.Name, &e.Description,
		&e.SerialNumber, &e.Model, &e.Manufacturer, &e.Location, &e.Status,
		&e.CreatedBy, &e.PurchasedAt, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new equipment row.
func (r *EquipmentRepository) Create(ctx context.Context, id, organizationID, createdBy string, req domain.CreateEquipmentRequest) (*domain.Equipment, error) {
	status := domain.EquipmentStatusOperational
	if req.Status != nil {
		status = *req.Status
	}

	query := `
		INSERT INTO equipment (
			id, organization_id, team_id, name, description, serial_number,
			model, manufacturer, location, status, created_by, purchased_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + equipmentColumns

	e, err := scanEquipment(r.pool.QueryRow(ctx, query,
		id, organizationID, req.TeamID, req.Name, req.Description,
		req.SerialNumber, req.Model, req.Manufacturer, req.Location,
		status, createdBy, req.PurchasedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert equipment: %w", err)
	}

	return e, nil
}

// Get retrieves one piece of equipment within an organization.
func (r *EquipmentRepository) Get(ctx context.Context, organizationID, equipmentID string) (*domain.Equipment, error) {
	query := `
		SELECT ` + equipmentColumns + `
		FROM equipment
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	e, err := scanEquipment(r.pool.QueryRow(ctx, query, equipmentID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("query equipment: %w", err)
	}

	return e, nil
}

// List retrieves equipment for an organization with cursor-based pagination.
func (r *EquipmentRepository) List(ctx context.Context, params ListEquipmentParams) ([]domain.Equipment, string, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT ` + equipmentColumns + `
		FROM equipment
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND ($2::text IS NULL OR team_id = $2)
		  AND ($3::equipment_status IS NULL OR status = $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at DESC
		LIMIT $5
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
		params.OrganizationID, params.TeamID, params.Status, cursorTime, limit+1,
	)
	if err != nil {
		return nil, "", fmt.Errorf("query equipment list: %w", err)
	}
	defer rows.Close()

	var items []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate equipment: %w", err)
	}

	// One extra row was fetched to detect the next page
	var nextCursor string
	if len(items) > limit {
		items = items[:limit]
		nextCursor = items[len(items)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return items, nextCursor, nil
}

// Update applies PATCH semantics: nil fields are left unchanged.
func (r *EquipmentRepository) Update(ctx context.Context, organizationID, equipmentID string, req domain.UpdateEquipmentRequest) (*domain.Equipment, error) {
	query := `
		UPDATE equipment
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    serial_number = COALESCE($5, serial_number),
		    model = COALESCE($6, model),
		    manufacturer = COALESCE($7, manufacturer),
		    location = COALESCE($8, location),
		    status = COALESCE($9, status),
		    purchased_at = COALESCE($10, purchased_at),
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING ` + equipmentColumns

	e, err := scanEquipment(r.pool.QueryRow(ctx, query,
		equipmentID, organizationID, req.Name, req.Description,
		req.SerialNumber, req.Model, req.Manufacturer, req.Location,
		req.Status, req.PurchasedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("update equipment: %w", err)
	}

	return e, nil
}

// SoftDelete marks equipment as deleted, keeping history for audit.
func (r *EquipmentRepository) SoftDelete(ctx context.Context, organizationID, equipmentID string) error {
	query := `
		UPDATE equipment
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, equipmentID, organizationID)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEquipmentNotFound
	}

	return nil
}

// AddImage attaches an uploaded image to equipment.
func (r *EquipmentRepository) AddImage(ctx context.Context, id, organizationID, equipmentID, uploadedBy, url string) (*domain.EquipmentImage, error) {
	// Verify the equipment belongs to the organization before inserting
	if _, err := r.Get(ctx, organizationID, equipmentID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO equipment_images (id, equipment_id, url, uploaded_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, equipment_id, url, uploaded_by, created_at
	`

	var img domain.EquipmentImage
	err := r.pool.QueryRow(ctx, query, id, equipmentID, url, uploadedBy).Scan(
		&img.ID, &img.EquipmentID, &img.URL, &img.UploadedBy, &img.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert equipment image: %w", err)
	}

	return &img, nil
}

// ListImages retrieves the images attached to a piece of equipment.
func (r *EquipmentRepository) ListImages(ctx context.Context, organizationID, equipmentID string) ([]domain.EquipmentImage, error) {
	query := `
		SELECT i.id, i.equipment_id, i.url, i.uploaded_by, i.created_at
		FROM equipment_images i
		JOIN equipment e ON e.id = i.equipment_id
		WHERE i.equipment_id = $1 AND e.organization_id = $2 AND e.deleted_at IS NULL
		ORDER BY i.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, equipmentID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query equipment images: %w", err)
	}
	defer rows.Close()

	var images []domain.EquipmentImage
	for rows.Next() {
		var img domain.EquipmentImage
		if err := rows.Scan(&img.ID, &img.EquipmentID, &img.URL, &img.UploadedBy, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan equipment image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment images: %w", err)
	}

	return images, nil
}

// CountByStatus aggregates non-deleted equipment per status for analytics.
func (r *EquipmentRepository) CountByStatus(ctx context.Context, organizationID string) (map[domain.EquipmentStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM equipment
		WHERE organization_id = $1 AND deleted_at IS NULL
		GROUP BY status
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query equipment status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EquipmentStatus]int)
	for rows.Next() {
		var status domain.EquipmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan equipment status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment status counts: %w", err)
	}

	return counts, nil
}
