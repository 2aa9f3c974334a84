package repo

import (
	"context"
	"errors"
	"fmt"

	"fleetdesk-api/internal/authz"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =====================================================
// Error Definitions
// =====================================================

var (
	// ErrMemberNotFound indicates the user is not a member of the organization
	ErrMemberNotFound = errors.New("user is not a member of this organization")
)

// =====================================================
// Repository Definition
// =====================================================

// MembershipRepository loads the raw membership rows that feed authorization
// context construction. Rows are returned as stored, without privilege
// interpretation; dropping cross-organization rows and resolving duplicates
// happens downstream.
type MembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository creates a new MembershipRepository instance.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

// =====================================================
// Core Methods
// =====================================================

// GetOrganizationRow retrieves the organization-level membership row for a
// user, including the org plan and enabled features.
//
// Returns ErrMemberNotFound if the user has no membership row at all. A
// suspended or removed membership is still returned; the authorization layer
// denies based on status.
func (r *MembershipRepository) GetOrganizationRow(ctx context.Context, userID, organizationID string) (*authz.RawOrganization, error) {
	query := `
		SELECT o.id, m.role, m.status, o.plan
		FROM organization_members m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1 AND m.organization_id = $2
	`

	var raw authz.RawOrganization
	err := r.pool.QueryRow(ctx, query, userID, organizationID).Scan(
		&raw.OrganizationID, &raw.Role, &raw.Status, &raw.Plan,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("query organization membership: %w", err)
	}
	raw.UserID = userID

	features, err := r.listFeatures(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	raw.Features = features

	return &raw, nil
}

// GetTeamRows retrieves a user's team membership rows within one
// organization. The owning organization is still included on each row and
// re-checked by the authorization layer, so a cross-organization row ever
// reaching a context build is a genuine data anomaly, not routine noise.
func (r *MembershipRepository) GetTeamRows(ctx context.Context, userID, organizationID string) ([]authz.RawTeamMembership, error) {
	query := `
		SELECT tm.team_id, t.organization_id, tm.role
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.user_id = $1 AND t.organization_id = $2 AND t.deleted_at IS NULL
	`

	rows, err := r.pool.Query(ctx, query, userID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query team memberships: %w", err)
	}
	defer rows.Close()

	var memberships []authz.RawTeamMembership
	for rows.Next() {
		var m authz.RawTeamMembership
		if err := rows.Scan(&m.TeamID, &m.OrganizationID, &m.Role); err != nil {
			return nil, fmt.Errorf("scan team membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team memberships: %w", err)
	}

	return memberships, nil
}

// IsMember checks if a user has any membership row in an organization.
func (r *MembershipRepository) IsMember(ctx context.Context, userID, organizationID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM organization_members
			WHERE user_id = $1 AND organization_id = $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID, organizationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check organization membership: %w", err)
	}

	return exists, nil
}

func (r *MembershipRepository) listFeatures(ctx context.Context, organizationID string) ([]string, error) {
	query := `
		SELECT feature
		FROM organization_features
		WHERE organization_id = $1
		ORDER BY feature
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query organization features: %w", err)
	}
	defer rows.Close()

	var features []string
	for rows.Next() {
		var feature string
		if err := rows.Scan(&feature); err != nil {
			return nil, fmt.Errorf("scan organization feature: %w", err)
		}
		features = append(features, feature)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization features: %w", err)
	}

	return features, nil
}
