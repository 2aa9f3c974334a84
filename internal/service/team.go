package service

import (
	"context"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"

	"go.uber.org/zap"
)

var (
	ErrTeamNotFound       = repo.ErrTeamNotFound
	ErrTeamMemberNotFound = repo.ErrTeamMemberNotFound
	ErrTeamMemberConflict = repo.ErrTeamMemberConflict
)

// TeamService handles teams and team rosters. Roster changes invalidate the
// affected user's sessions because team roles feed authorization contexts.
type TeamService struct {
	teamRepo  *repo.TeamRepository
	auditRepo *repo.AuditRepo
	session   *SessionService
	log       *logger.Logger
}

func NewTeamService(teamRepo *repo.TeamRepository, auditRepo *repo.AuditRepo, session *SessionService, log *logger.Logger) *TeamService {
	return &TeamService{
		teamRepo:  teamRepo,
		auditRepo: auditRepo,
		session:   session,
		log:       log,
	}
}

func (s *TeamService) audit(ctx context.Context, organizationID, userID, action, entityID string, details map[string]interface{}) {
	if err := s.auditRepo.LogAction(ctx, organizationID, userID, action, "team", entityID, details); err != nil {
		s.log.Error(ctx, "failed to write audit log",
			logger.Module("team"),
			logger.Action("audit"),
			zap.String("audit_action", action),
			zap.Error(err),
		)
	}
}

// Create creates a team.
// Permission: organization.createteams.
func (s *TeamService) Create(ctx context.Context, organizationID, userID string, req domain.CreateTeamRequest) (*domain.Team, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationCreateTeams, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	team, err := s.teamRepo.Create(ctx, generateID(), organizationID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "team.create", team.ID, nil)

	return team, nil
}

// Get retrieves one team.
// Permission: team.view, scoped to the team.
func (s *TeamService) Get(ctx context.Context, organizationID, userID, teamID string) (*domain.Team, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamView, &authz.EntityContext{TeamID: teamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.teamRepo.Get(ctx, organizationID, teamID)
}

// List retrieves all teams in the organization.
// Permission: team.view.
func (s *TeamService) List(ctx context.Context, organizationID, userID string) ([]domain.Team, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamView, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.teamRepo.List(ctx, organizationID)
}

// Update changes team settings.
// Permission: team.manage, scoped to the team.
func (s *TeamService) Update(ctx context.Context, organizationID, userID, teamID string, req domain.UpdateTeamRequest) (*domain.Team, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamManage, &authz.EntityContext{TeamID: teamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	team, err := s.teamRepo.Update(ctx, organizationID, teamID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "team.update", teamID, nil)

	return team, nil
}

// Delete soft-deletes a team, immediately revoking the access its roles
// granted.
// Permission: team.manage, scoped to the team.
func (s *TeamService) Delete(ctx context.Context, organizationID, userID, teamID string) error {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamManage, &authz.EntityContext{TeamID: teamID})
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.teamRepo.SoftDelete(ctx, organizationID, teamID); err != nil {
		return err
	}

	s.audit(ctx, organizationID, userID, "team.delete", teamID, nil)
	s.session.InvalidateOrganization(ctx, organizationID)

	return nil
}

// ListMembers retrieves the team roster.
// Permission: team.view, scoped to the team.
func (s *TeamService) ListMembers(ctx context.Context, organizationID, userID, teamID string) ([]domain.TeamMember, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamView, &authz.EntityContext{TeamID: teamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.teamRepo.ListMembers(ctx, organizationID, teamID)
}

// AddMember adds a user to the team.
// Permission: team.manage, scoped to the team.
func (s *TeamService) AddMember(ctx context.Context, organizationID, userID, teamID string, req domain.AddTeamMemberRequest) (*domain.TeamMember, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamManage, &authz.EntityContext{TeamID: teamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	member, err := s.teamRepo.AddMember(ctx, generateID(), organizationID, teamID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "team.member.add", teamID, map[string]interface{}{
		"member_user_id": req.UserID,
		"role":           string(req.Role),
	})
	s.session.Invalidate(ctx, req.UserID, organizationID)

	return member, nil
}

// UpdateMember changes a team member's role.
// Permission: team.manage, scoped to the team.
func (s *TeamService) UpdateMember(ctx context.Context, organizationID, userID, teamID, memberUserID string, req domain.UpdateTeamMemberRequest) (*domain.TeamMember, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamManage, &authz.EntityContext{TeamID: teamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	member, err := s.teamRepo.UpdateMember(ctx, organizationID, teamID, memberUserID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "team.member.update", teamID, map[string]interface{}{
		"member_user_id": memberUserID,
		"role":           string(req.Role),
	})
	s.session.Invalidate(ctx, memberUserID, organizationID)

	return member, nil
}

// RemoveMember removes a user from the team.
// Permission: team.manage, scoped to the team.
func (s *TeamService) RemoveMember(ctx context.Context, organizationID, userID, teamID, memberUserID string) error {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermTeamManage, &authz.EntityContext{TeamID: teamID})
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.teamRepo.RemoveMember(ctx, organizationID, teamID, memberUserID); err != nil {
		return err
	}

	s.audit(ctx, organizationID, userID, "team.member.remove", teamID, map[string]interface{}{
		"member_user_id": memberUserID,
	})
	s.session.Invalidate(ctx, memberUserID, organizationID)

	return nil
}
