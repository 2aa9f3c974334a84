package repo

import (
	"context"
	"errors"
	"fmt"

	"fleetdesk-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoteNotFound = errors.New("note not found in organization")

// NoteRepository handles database operations for equipment notes and their
// images.
type NoteRepository struct {
	pool *pgxpool.Pool
}

func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

const noteColumns = `
	id, organization_id, team_id, equipment_id, body, visibility,
	created_by, created_at, updated_at, deleted_at
`

func scanNote(row pgx.Row) (*domain.EquipmentNote, error) {
	var n domain.EquipmentNote
	err := row.Scan(
		&n.ID, &n.OrganizationID, &n.TeamID, &n.EquipmentID, &n.Body,
		&n.Visibility, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt, &n.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a note against a piece of equipment. TeamID mirrors the
// equipment's team so visibility checks don't need a join.
func (r *NoteRepository) Create(ctx context.Context, id, organizationID, teamID, equipmentID, createdBy string, req domain.CreateNoteRequest) (*domain.EquipmentNote, error) {
	visibility := domain.NoteVisibilityPublic
	if req.Visibility != nil {
		visibility = *req.Visibility
	}

	query := `
		INSERT INTO equipment_notes (
			id, organization_id, team_id, equipment_id, body, visibility, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + noteColumns

	n, err := scanNote(r.pool.QueryRow(ctx, query,
		id, organizationID, teamID, equipmentID, req.Body, visibility, createdBy,
	))
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	return n, nil
}

// Get retrieves one note within an organization.
func (r *NoteRepository) Get(ctx context.Context, organizationID, noteID string) (*domain.EquipmentNote, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM equipment_notes
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	n, err := scanNote(r.pool.QueryRow(ctx, query, noteID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("query note: %w", err)
	}

	return n, nil
}

// ListByEquipment retrieves the notes attached to a piece of equipment.
// When includePrivate is false, private notes are filtered out.
func (r *NoteRepository) ListByEquipment(ctx context.Context, organizationID, equipmentID string, includePrivate bool) ([]domain.EquipmentNote, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM equipment_notes
		WHERE equipment_id = $1 AND organization_id = $2 AND deleted_at IS NULL
		  AND ($3 OR visibility = 'public')
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, equipmentID, organizationID, includePrivate)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.EquipmentNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// Update edits a note (PATCH semantics).
func (r *NoteRepository) Update(ctx context.Context, organizationID, noteID string, req domain.UpdateNoteRequest) (*domain.EquipmentNote, error) {
	query := `
		UPDATE equipment_notes
		SET body = COALESCE($3, body),
		    visibility = COALESCE($4, visibility),
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING ` + noteColumns

	n, err := scanNote(r.pool.QueryRow(ctx, query, noteID, organizationID, req.Body, req.Visibility))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}

	return n, nil
}

// SoftDelete marks a note as deleted.
func (r *NoteRepository) SoftDelete(ctx context.Context, organizationID, noteID string) error {
	query := `
		UPDATE equipment_notes
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, noteID, organizationID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// AddImage attaches an uploaded image to a note.
func (r *NoteRepository) AddImage(ctx context.Context, id, organizationID, noteID, uploadedBy, url string) (*domain.NoteImage, error) {
	// Verify the note belongs to the organization before inserting
	if _, err := r.Get(ctx, organizationID, noteID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO note_images (id, note_id, url, uploaded_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, note_id, url, uploaded_by, created_at
	`

	var img domain.NoteImage
	err := r.pool.QueryRow(ctx, query, id, noteID, url, uploadedBy).Scan(
		&img.ID, &img.NoteID, &img.URL, &img.UploadedBy, &img.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note image: %w", err)
	}

	return &img, nil
}

// ListImages retrieves the images attached to a note.
func (r *NoteRepository) ListImages(ctx context.Context, organizationID, noteID string) ([]domain.NoteImage, error) {
	query := `
		SELECT i.id, i.note_id, i.url, i.uploaded_by, i.created_at
		FROM note_images i
		JOIN equipment_notes n ON n.id = i.note_id
		WHERE i.note_id = $1 AND n.organization_id = $2 AND n.deleted_at IS NULL
		ORDER BY i.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, noteID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query note images: %w", err)
	}
	defer rows.Close()

	var images []domain.NoteImage
	for rows.Next() {
		var img domain.NoteImage
		if err := rows.Scan(&img.ID, &img.NoteID, &img.URL, &img.UploadedBy, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note images: %w", err)
	}

	return images, nil
}
