package service

import (
	"context"
	"errors"
	"fmt"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrForbidden            = errors.New("user not authorized for this action")
	ErrOrganizationNotFound = repo.ErrOrganizationNotFound
	ErrMemberConflict       = repo.ErrMemberConflict
	ErrLastOwner            = errors.New("organization must keep at least one active owner")

	// ErrTargetMemberNotFound distinguishes a missing roster target from the
	// caller's own missing membership, which maps to 403 instead of 404.
	ErrTargetMemberNotFound = errors.New("target member not found in organization")
)

// OrganizationService handles organization settings and the member roster.
// Every operation is guarded by the permission engine; membership mutations
// invalidate the affected sessions so revocation takes effect immediately.
type OrganizationService struct {
	orgRepo   *repo.OrganizationRepository
	auditRepo *repo.AuditRepo
	session   *SessionService
	log       *logger.Logger
}

func NewOrganizationService(orgRepo *repo.OrganizationRepository, auditRepo *repo.AuditRepo, session *SessionService, log *logger.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo:   orgRepo,
		auditRepo: auditRepo,
		session:   session,
		log:       log,
	}
}

// generateID creates a new entity identifier.
func generateID() string {
	return uuid.NewString()
}

func (s *OrganizationService) audit(ctx context.Context, organizationID, userID, action, entityType, entityID string, details map[string]interface{}) {
	if err := s.auditRepo.LogAction(ctx, organizationID, userID, action, entityType, entityID, details); err != nil {
		s.log.Error(ctx, "failed to write audit log",
			logger.Module("organization"),
			logger.Action("audit"),
			zap.String("audit_action", action),
			zap.Error(err),
		)
	}
}

// Get retrieves organization settings.
// Permission: organization.view.
func (s *OrganizationService) Get(ctx context.Context, organizationID, userID string) (*domain.Organization, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationView, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.orgRepo.Get(ctx, organizationID)
}

// Update changes organization settings.
// Permission: organization.manage.
func (s *OrganizationService) Update(ctx context.Context, organizationID, userID string, req domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationManage, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	org, err := s.orgRepo.Update(ctx, organizationID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "organization.update", "organization", organizationID, nil)

	return org, nil
}

// Delete soft-deletes the organization.
// Permission: organization.delete (owner only).
func (s *OrganizationService) Delete(ctx context.Context, organizationID, userID string) error {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationDelete, nil)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.orgRepo.SoftDelete(ctx, organizationID); err != nil {
		return err
	}

	s.audit(ctx, organizationID, userID, "organization.delete", "organization", organizationID, nil)
	s.session.InvalidateOrganization(ctx, organizationID)

	return nil
}

// ListMembers retrieves the member roster.
// Permission: organization.view.
func (s *OrganizationService) ListMembers(ctx context.Context, organizationID, userID string) ([]domain.OrganizationMember, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationView, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.orgRepo.ListMembers(ctx, organizationID)
}

// InviteMember creates a pending membership.
// Permission: organization.invite.
func (s *OrganizationService) InviteMember(ctx context.Context, organizationID, userID string, req domain.InviteMemberRequest) (*domain.OrganizationMember, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationInvite, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	member, err := s.orgRepo.InviteMember(ctx, generateID(), organizationID, userID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "organization.invite", "organization_member", member.ID, map[string]interface{}{
		"invited_user_id": req.UserID,
		"role":            string(req.Role),
	})

	return member, nil
}

// UpdateMember changes a member's role or status.
// Permission: organization.managemembers. Demoting the last active owner is
// rejected so the organization cannot lock itself out.
func (s *OrganizationService) UpdateMember(ctx context.Context, organizationID, userID, memberUserID string, req domain.UpdateMemberRequest) (*domain.OrganizationMember, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationManageMembers, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if req.Role != nil || req.Status != nil {
		if err := s.guardLastOwner(ctx, organizationID, memberUserID); err != nil {
			return nil, err
		}
	}

	member, err := s.orgRepo.UpdateMember(ctx, organizationID, memberUserID, req)
	if err != nil {
		if errors.Is(err, repo.ErrMemberNotFound) {
			return nil, ErrTargetMemberNotFound
		}
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "organization.member.update", "organization_member", member.ID, map[string]interface{}{
		"member_user_id": memberUserID,
	})

	// The member's cached context no longer reflects the stored role
	s.session.Invalidate(ctx, memberUserID, organizationID)

	return member, nil
}

// RemoveMember deletes a membership.
// Permission: organization.managemembers.
func (s *OrganizationService) RemoveMember(ctx context.Context, organizationID, userID, memberUserID string) error {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationManageMembers, nil)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.guardLastOwner(ctx, organizationID, memberUserID); err != nil {
		return err
	}

	if err := s.orgRepo.RemoveMember(ctx, organizationID, memberUserID); err != nil {
		if errors.Is(err, repo.ErrMemberNotFound) {
			return ErrTargetMemberNotFound
		}
		return err
	}

	s.audit(ctx, organizationID, userID, "organization.member.remove", "organization_member", memberUserID, nil)
	s.session.Invalidate(ctx, memberUserID, organizationID)

	return nil
}

// ListFeatures retrieves the enabled feature flags.
// Permission: organization.view.
func (s *OrganizationService) ListFeatures(ctx context.Context, organizationID, userID string) ([]domain.OrganizationFeature, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermOrganizationView, nil)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.orgRepo.ListFeatures(ctx, organizationID)
}

// guardLastOwner rejects mutations that would leave the organization without
// an active owner.
func (s *OrganizationService) guardLastOwner(ctx context.Context, organizationID, memberUserID string) error {
	targetCtx, err := s.session.ContextFor(ctx, memberUserID, organizationID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil
		}
		return fmt.Errorf("load target membership: %w", err)
	}

	if targetCtx.Role() != authz.OrgRoleOwner || targetCtx.Status() != authz.StatusActive {
		return nil
	}

	owners, err := s.orgRepo.CountOwners(ctx, organizationID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return ErrLastOwner
	}

	return nil
}
