package repo

import (
	"context"
	"errors"
	"fmt"

	"fleetdesk-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMemberConflict       = errors.New("user is already a member of this organization")
)

// OrganizationRepository handles database operations for organizations and
// their member roster.
type OrganizationRepository struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

// Get retrieves an organization by ID. Soft-deleted organizations are not
// returned.
func (r *OrganizationRepository) Get(ctx context.Context, organizationID string) (*domain.Organization, error) {
	query := `
		SELECT id, name, plan, created_at, updated_at, deleted_at
		FROM organizations
		WHERE id = $1 AND deleted_at IS NULL
	`

	var org domain.Organization
	err := r.pool.QueryRow(ctx, query, organizationID).Scan(
		&org.ID, &org.Name, &org.Plan, &org.CreatedAt, &org.UpdatedAt, &org.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("query organization: %w", err)
	}

	return &org, nil
}

// Update applies PATCH semantics: nil fields are left unchanged.
func (r *OrganizationRepository) Update(ctx context.Context, organizationID string, req domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	query := `
		UPDATE organizations
		SET name = COALESCE($2, name),
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, plan, created_at, updated_at, deleted_at
	`

	var org domain.Organization
	err := r.pool.QueryRow(ctx, query, organizationID, req.Name).Scan(
		&org.ID, &org.Name, &org.Plan, &org.CreatedAt, &org.UpdatedAt, &org.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("update organization: %w", err)
	}

	return &org, nil
}

// SoftDelete marks an organization as deleted. Members, teams and equipment
// rows are retained for audit purposes.
func (r *OrganizationRepository) SoftDelete(ctx context.Context, organizationID string) error {
	query := `
		UPDATE organizations
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, organizationID)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}

	return nil
}

// ListMembers retrieves the member roster of an organization.
func (r *OrganizationRepository) ListMembers(ctx context.Context, organizationID string) ([]domain.OrganizationMember, error) {
	query := `
		SELECT id, organization_id, user_id, role, status, invited_by, created_at, updated_at
		FROM organization_members
		WHERE organization_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query organization members: %w", err)
	}
	defer rows.Close()

	var members []domain.OrganizationMember
	for rows.Next() {
		var m domain.OrganizationMember
		err := rows.Scan(
			&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.Status,
			&m.InvitedBy, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan organization member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization members: %w", err)
	}

	return members, nil
}

// InviteMember inserts a pending membership row.
// Returns ErrMemberConflict if the user already has a membership.
func (r *OrganizationRepository) InviteMember(ctx context.Context, id, organizationID, invitedBy string, req domain.InviteMemberRequest) (*domain.OrganizationMember, error) {
	query := `
		INSERT INTO organization_members (id, organization_id, user_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING id, organization_id, user_id, role, status, invited_by, created_at, updated_at
	`

	var m domain.OrganizationMember
	err := r.pool.QueryRow(ctx, query, id, organizationID, req.UserID, req.Role, invitedBy).Scan(
		&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.Status,
		&m.InvitedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrMemberConflict
		}
		return nil, fmt.Errorf("insert organization member: %w", err)
	}

	return &m, nil
}

// UpdateMember changes a member's role or status (PATCH semantics).
func (r *OrganizationRepository) UpdateMember(ctx context.Context, organizationID, userID string, req domain.UpdateMemberRequest) (*domain.OrganizationMember, error) {
	query := `
		UPDATE organization_members
		SET role = COALESCE($3, role),
		    status = COALESCE($4, status),
		    updated_at = now()
		WHERE organization_id = $1 AND user_id = $2
		RETURNING id, organization_id, user_id, role, status, invited_by, created_at, updated_at
	`

	var m domain.OrganizationMember
	err := r.pool.QueryRow(ctx, query, organizationID, userID, req.Role, req.Status).Scan(
		&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.Status,
		&m.InvitedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("update organization member: %w", err)
	}

	return &m, nil
}

// RemoveMember deletes a membership row.
func (r *OrganizationRepository) RemoveMember(ctx context.Context, organizationID, userID string) error {
	query := `
		DELETE FROM organization_members
		WHERE organization_id = $1 AND user_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, organizationID, userID)
	if err != nil {
		return fmt.Errorf("remove organization member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// CountOwners returns the number of active owners. Used to block demoting or
// removing the last owner.
func (r *OrganizationRepository) CountOwners(ctx context.Context, organizationID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM organization_members
		WHERE organization_id = $1 AND role = 'owner' AND status = 'active'
	`

	var count int
	err := r.pool.QueryRow(ctx, query, organizationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count organization owners: %w", err)
	}

	return count, nil
}

// ListFeatures retrieves the feature flags enabled for an organization.
func (r *OrganizationRepository) ListFeatures(ctx context.Context, organizationID string) ([]domain.OrganizationFeature, error) {
	query := `
		SELECT organization_id, feature, enabled_at
		FROM organization_features
		WHERE organization_id = $1
		ORDER BY feature
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query organization features: %w", err)
	}
	defer rows.Close()

	var features []domain.OrganizationFeature
	for rows.Next() {
		var f domain.OrganizationFeature
		if err := rows.Scan(&f.OrganizationID, &f.Feature, &f.EnabledAt); err != nil {
			return nil, fmt.Errorf("scan organization feature: %w", err)
		}
		features = append(features, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization features: %w", err)
	}

	return features, nil
}
