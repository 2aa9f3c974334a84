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
	ErrTeamNotFound       = errors.New("team not found in organization")
	ErrTeamMemberNotFound = errors.New("user is not a member of this team")
	ErrTeamMemberConflict = errors.New("user is already a member of this team")
)

// TeamRepository handles database operations for teams and team rosters.
// Multi-tenant isolation is enforced by the organization_id filter on every
// query.
type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

// Create inserts a new team.
func (r *TeamRepository) Create(ctx context.Context, id, organizationID string, req domain.CreateTeamRequest) (*domain.Team, error) {
	query := `
		INSERT INTO teams (id, organization_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, organization_id, name, description, created_at, updated_at, deleted_at
	`

	var t domain.Team
	err := r.pool.QueryRow(ctx, query, id, organizationID, req.Name, req.Description).Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Description,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}

	return &t, nil
}

// Get retrieves a team by ID within an organization.
func (r *TeamRepository) Get(ctx context.Context, organizationID, teamID string) (*domain.Team, error) {
	query := `
		SELECT id, organization_id, name, description, created_at, updated_at, deleted_at
		FROM teams
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	var t domain.Team
	err := r.pool.QueryRow(ctx, query, teamID, organizationID).Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Description,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("query team: %w", err)
	}

	return &t, nil
}

// List retrieves all teams in an organization.
func (r *TeamRepository) List(ctx context.Context, organizationID string) ([]domain.Team, error) {
	query := `
		SELECT id, organization_id, name, description, created_at, updated_at, deleted_at
		FROM teams
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		err := rows.Scan(
			&t.ID, &t.OrganizationID, &t.Name, &t.Description,
			&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}

	return teams, nil
}

// Update applies PATCH semantics: nil fields are left unchanged.
func (r *TeamRepository) Update(ctx context.Context, organizationID, teamID string, req domain.UpdateTeamRequest) (*domain.Team, error) {
	query := `
		UPDATE teams
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING id, organization_id, name, description, created_at, updated_at, deleted_at
	`

	var t domain.Team
	err := r.pool.QueryRow(ctx, query, teamID, organizationID, req.Name, req.Description).Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Description,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("update team: %w", err)
	}

	return &t, nil
}

// SoftDelete marks a team as deleted. Team memberships stop granting access
// immediately because membership loading skips deleted teams.
func (r *TeamRepository) SoftDelete(ctx context.Context, organizationID, teamID string) error {
	query := `
		UPDATE teams
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, teamID, organizationID)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// ListMembers retrieves the roster of a team.
func (r *TeamRepository) ListMembers(ctx context.Context, organizationID, teamID string) ([]domain.TeamMember, error) {
	query := `
		SELECT tm.id, tm.team_id, t.organization_id, tm.user_id, tm.role, tm.created_at, tm.updated_at
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.team_id = $1 AND t.organization_id = $2 AND t.deleted_at IS NULL
		ORDER BY tm.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, teamID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		err := rows.Scan(
			&m.ID, &m.TeamID, &m.OrganizationID, &m.UserID, &m.Role,
			&m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}

	return members, nil
}

// AddMember inserts a team membership row.
// Returns ErrTeamMemberConflict if the user is already on the team.
func (r *TeamRepository) AddMember(ctx context.Context, id, organizationID, teamID string, req domain.AddTeamMemberRequest) (*domain.TeamMember, error) {
	// Verify the team belongs to the organization before inserting
	if _, err := r.Get(ctx, organizationID, teamID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO team_members (id, team_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, team_id, user_id, role, created_at, updated_at
	`

	var m domain.TeamMember
	err := r.pool.QueryRow(ctx, query, id, teamID, req.UserID, req.Role).Scan(
		&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrTeamMemberConflict
		}
		return nil, fmt.Errorf("insert team member: %w", err)
	}
	m.OrganizationID = organizationID

	return &m, nil
}

// UpdateMember changes a team member's role.
func (r *TeamRepository) UpdateMember(ctx context.Context, organizationID, teamID, userID string, req domain.UpdateTeamMemberRequest) (*domain.TeamMember, error) {
	query := `
		UPDATE team_members tm
		SET role = $4, updated_at = now()
		FROM teams t
		WHERE tm.team_id = $1 AND tm.user_id = $2
		  AND t.id = tm.team_id AND t.organization_id = $3 AND t.deleted_at IS NULL
		RETURNING tm.id, tm.team_id, t.organization_id, tm.user_id, tm.role, tm.created_at, tm.updated_at
	`

	var m domain.TeamMember
	err := r.pool.QueryRow(ctx, query, teamID, userID, organizationID, req.Role).Scan(
		&m.ID, &m.TeamID, &m.OrganizationID, &m.UserID, &m.Role,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, fmt.Errorf("update team member: %w", err)
	}

	return &m, nil
}

// RemoveMember deletes a team membership row.
func (r *TeamRepository) RemoveMember(ctx context.Context, organizationID, teamID, userID string) error {
	query := `
		DELETE FROM team_members tm
		USING teams t
		WHERE tm.team_id = $1 AND tm.user_id = $2
		  AND t.id = tm.team_id AND t.organization_id = $3
	`

	tag, err := r.pool.Exec(ctx, query, teamID, userID, organizationID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamMemberNotFound
	}

	return nil
}
